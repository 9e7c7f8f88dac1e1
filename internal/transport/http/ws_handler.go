package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"quizmaster/internal/app"
)

// WSHandler runs one quiz attempt over a websocket: the client sends view/answer/submit/abandon
// messages and the server pushes a countdown tick derived from the attempt deadline.
type WSHandler struct {
	attempts  *app.AttemptService
	upgrader  websocket.Upgrader
	tickEvery time.Duration
}

func NewWSHandler(attempts *app.AttemptService) *WSHandler {
	return &WSHandler{
		attempts: attempts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		tickEvery: time.Second,
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type viewPayload struct {
	Index int `json:"index"`
}

type answerPayload struct {
	Index         int    `json:"index"`
	Selected      string `json:"selected"`
	RemainingTime *int   `json:"remainingTime"`
}

type tickPayload struct {
	SecondsLeft int  `json:"secondsLeft"`
	Expired     bool `json:"expired"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and begins (or resumes) the caller's attempt at ?quizId=.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID, err := strconv.ParseInt(r.URL.Query().Get("quizId"), 10, 64)
	if err != nil || quizID <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "missing or invalid quizId"})
		return
	}
	id := identityFrom(r.Context())
	if id == nil {
		writeJSON(w, http.StatusUnauthorized, errorBody{Message: "please log in to continue"})
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	ctx := r.Context()
	status, err := h.attempts.Begin(ctx, id.SessionID, quizID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	// Unix nanos of the attempt deadline; zero once the attempt is over.
	var deadline atomic.Int64
	deadline.Store(status.Deadline.UnixNano())

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	ticksDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Warn().Err(err).Msg("ws write error")
				return
			}
		}
	}()

	go func() {
		defer close(ticksDone)
		ticker := time.NewTicker(h.tickEvery)
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				d := deadline.Load()
				if d == 0 {
					continue
				}
				left := time.Unix(0, d).Sub(now)
				tick := tickPayload{SecondsLeft: int(left / time.Second), Expired: left <= 0}
				if tick.Expired {
					tick.SecondsLeft = 0
				}
				select {
				case send <- outboundMessage[any]{Type: "tick", Payload: tick}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "status", Payload: status}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		msg := h.handle(r, id, quizID, inbound)
		switch msg.Type {
		case "status":
			deadline.Store(msg.Payload.(app.AttemptStatus).Deadline.UnixNano())
		case "submitted", "abandoned":
			deadline.Store(0)
		}
		send <- msg
	}

	close(closeSignals)
	<-ticksDone
	close(send)
	<-writerDone
}

func (h *WSHandler) handle(r *http.Request, id *app.Identity, quizID int64, inbound inboundMessage) outboundMessage[any] {
	ctx := r.Context()
	fail := func(err error) outboundMessage[any] {
		return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
	}

	switch inbound.Type {
	case "begin":
		status, err := h.attempts.Begin(ctx, id.SessionID, quizID)
		if err != nil {
			return fail(err)
		}
		return outboundMessage[any]{Type: "status", Payload: status}
	case "view":
		var p viewPayload
		if err := unmarshalPayload(inbound.Payload, &p); err != nil {
			return fail(err)
		}
		view, err := h.attempts.View(ctx, id.SessionID, quizID, p.Index)
		if err != nil {
			return fail(err)
		}
		return outboundMessage[any]{Type: "question", Payload: view}
	case "answer":
		var p answerPayload
		if err := unmarshalPayload(inbound.Payload, &p); err != nil {
			return fail(err)
		}
		res, err := h.attempts.AnswerAndAdvance(ctx, id.SessionID, quizID, p.Index, p.Selected, p.RemainingTime)
		if err != nil {
			return fail(err)
		}
		return outboundMessage[any]{Type: "advanced", Payload: res}
	case "submit":
		var p submitRequest
		if err := unmarshalPayload(inbound.Payload, &p); err != nil {
			return fail(err)
		}
		res, err := h.attempts.Submit(ctx, id.SessionID, id.UserID, quizID, p.Final)
		if err != nil {
			return fail(err)
		}
		return outboundMessage[any]{Type: "submitted", Payload: res}
	case "abandon":
		if err := h.attempts.Abandon(ctx, id.SessionID); err != nil {
			return fail(err)
		}
		return outboundMessage[any]{Type: "abandoned", Payload: struct{}{}}
	default:
		return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
	}
}

func unmarshalPayload(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errBadRequest
	}
	return nil
}
