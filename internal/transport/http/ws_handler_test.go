package http

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestWebSocketAttemptFlow(t *testing.T) {
	api := newTestAPI(t)
	admin := api.login("admin", "admin")
	quizID := api.seedQuiz(admin)
	user := api.register("erin")

	u := "ws" + strings.TrimPrefix(api.server.URL, "http") + "/ws/attempt?quizId=" + itoa(quizID)
	header := http.Header{}
	header.Set("Authorization", "Bearer "+user)
	conn, _, err := websocket.DefaultDialer.Dial(u, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Expect the attempt status first.
	_, payload := readNext(conn, t, "status")
	if payload["total"] != float64(2) {
		t.Fatalf("expected 2 questions, got %v", payload)
	}

	send(t, conn, "view", map[string]any{"index": 0})
	_, payload = readNext(conn, t, "question")
	if payload["title"] != "Sum" {
		t.Fatalf("unexpected question %v", payload)
	}

	send(t, conn, "view", map[string]any{"index": 1})
	_, payload = readNext(conn, t, "error")
	if payload["message"] == "" {
		t.Fatalf("expected skip-ahead error message")
	}

	send(t, conn, "answer", map[string]any{"index": 0, "selected": "3", "remainingTime": 500})
	_, payload = readNext(conn, t, "advanced")
	if payload["nextIndex"] != float64(1) || payload["done"] != false {
		t.Fatalf("unexpected advance %v", payload)
	}

	send(t, conn, "submit", map[string]any{"final": "Paris"})
	_, payload = readNext(conn, t, "submitted")
	if payload["score"] != float64(1) || payload["total"] != float64(2) || payload["attempt"] != float64(1) {
		t.Fatalf("unexpected submit result %v", payload)
	}

	send(t, conn, "dance", nil)
	readNext(conn, t, "error")
}

func TestWebSocketRequiresSession(t *testing.T) {
	api := newTestAPI(t)
	u := "ws" + strings.TrimPrefix(api.server.URL, "http") + "/ws/attempt?quizId=1"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err == nil {
		t.Fatalf("expected dial to fail without a session")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 response, got %+v", resp)
	}
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

// readNext skips countdown ticks and returns the next message.
func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	for {
		var msg struct {
			Type    string         `json:"type"`
			Payload map[string]any `json:"payload"`
		}
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read json: %v", err)
		}
		if msg.Type == "tick" {
			continue
		}
		if expect != "" && msg.Type != expect {
			t.Fatalf("expected type %s, got %s (%v)", expect, msg.Type, msg.Payload)
		}
		return msg.Type, msg.Payload
	}
}
