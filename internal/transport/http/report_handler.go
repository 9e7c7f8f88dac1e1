package http

import (
	"net/http"

	"quizmaster/internal/app"
)

type reportHandler struct {
	reports *app.ReportService
}

func (h *reportHandler) history(w http.ResponseWriter, r *http.Request) {
	entries, err := h.reports.History(r.Context(), identityFrom(r.Context()).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *reportHandler) score(w http.ResponseWriter, r *http.Request) {
	scoreID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	entry, err := h.reports.ScoreDetail(r.Context(), identityFrom(r.Context()).UserID, scoreID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *reportHandler) userSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.reports.UserSummary(r.Context(), identityFrom(r.Context()).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *reportHandler) adminSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.reports.AdminSummary(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
