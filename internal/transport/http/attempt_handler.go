package http

import (
	"net/http"

	"quizmaster/internal/app"
)

type attemptHandler struct {
	attempts *app.AttemptService
	catalog  *app.CatalogService
}

type answerRequest struct {
	Selected      string `json:"selected"`
	RemainingTime *int   `json:"remainingTime"`
}

type submitRequest struct {
	Final *string `json:"final"`
}

func (h *attemptHandler) upcoming(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.catalog.UpcomingQuizzes(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (h *attemptHandler) begin(w http.ResponseWriter, r *http.Request) {
	quizID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	status, err := h.attempts.Begin(r.Context(), identityFrom(r.Context()).SessionID, quizID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *attemptHandler) view(w http.ResponseWriter, r *http.Request) {
	quizID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	index, err := pathIndex(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	view, err := h.attempts.View(r.Context(), identityFrom(r.Context()).SessionID, quizID, index)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *attemptHandler) answer(w http.ResponseWriter, r *http.Request) {
	quizID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	index, err := pathIndex(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in answerRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.attempts.AnswerAndAdvance(r.Context(), identityFrom(r.Context()).SessionID, quizID, index, in.Selected, in.RemainingTime)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *attemptHandler) submit(w http.ResponseWriter, r *http.Request) {
	quizID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in submitRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	id := identityFrom(r.Context())
	res, err := h.attempts.Submit(r.Context(), id.SessionID, id.UserID, quizID, in.Final)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *attemptHandler) abandon(w http.ResponseWriter, r *http.Request) {
	if err := h.attempts.Abandon(r.Context(), identityFrom(r.Context()).SessionID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
