package http

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"quizmaster/internal/app"
)

// registerCatalog mounts the admin CRUD routes for subjects, chapters, quizzes and questions.
func registerCatalog(r *mux.Router, c *app.CatalogService) {
	r.HandleFunc("/subjects", list(c.ListSubjects)).Methods(http.MethodGet)
	r.HandleFunc("/subjects", create(c.CreateSubject)).Methods(http.MethodPost)
	r.HandleFunc("/subjects/{id:[0-9]+}", get(c.GetSubject)).Methods(http.MethodGet)
	r.HandleFunc("/subjects/{id:[0-9]+}", update(c.UpdateSubject)).Methods(http.MethodPut)
	r.HandleFunc("/subjects/{id:[0-9]+}", remove(c.DeleteSubject)).Methods(http.MethodDelete)
	r.HandleFunc("/subjects/{id:[0-9]+}/chapters", get(c.ListChapters)).Methods(http.MethodGet)

	r.HandleFunc("/chapters", create(c.CreateChapter)).Methods(http.MethodPost)
	r.HandleFunc("/chapters/{id:[0-9]+}", get(c.GetChapter)).Methods(http.MethodGet)
	r.HandleFunc("/chapters/{id:[0-9]+}", update(c.UpdateChapter)).Methods(http.MethodPut)
	r.HandleFunc("/chapters/{id:[0-9]+}", remove(c.DeleteChapter)).Methods(http.MethodDelete)
	r.HandleFunc("/chapters/{id:[0-9]+}/quizzes", get(c.ListQuizzes)).Methods(http.MethodGet)

	r.HandleFunc("/quizzes", create(c.CreateQuiz)).Methods(http.MethodPost)
	r.HandleFunc("/quizzes/{id:[0-9]+}", get(c.QuizDetail)).Methods(http.MethodGet)
	r.HandleFunc("/quizzes/{id:[0-9]+}", update(c.UpdateQuiz)).Methods(http.MethodPut)
	r.HandleFunc("/quizzes/{id:[0-9]+}", remove(c.DeleteQuiz)).Methods(http.MethodDelete)

	r.HandleFunc("/questions", create(c.CreateQuestion)).Methods(http.MethodPost)
	r.HandleFunc("/questions/{id:[0-9]+}", get(c.GetQuestion)).Methods(http.MethodGet)
	r.HandleFunc("/questions/{id:[0-9]+}", update(c.UpdateQuestion)).Methods(http.MethodPut)
	r.HandleFunc("/questions/{id:[0-9]+}", remove(c.DeleteQuestion)).Methods(http.MethodDelete)
}

func list[T any](fn func(context.Context) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := fn(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func get[T any](fn func(context.Context, int64) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		out, err := fn(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func create[In, Out any](fn func(context.Context, In) (Out, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in In
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, r, err)
			return
		}
		out, err := fn(r.Context(), in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

func update[In, Out any](fn func(context.Context, int64, In) (Out, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		var in In
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, r, err)
			return
		}
		out, err := fn(r.Context(), id, in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func remove(fn func(context.Context, int64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := fn(r.Context(), id); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
