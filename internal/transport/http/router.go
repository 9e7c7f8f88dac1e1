package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"quizmaster/internal/app"
)

// Services are the use cases exposed over HTTP.
type Services struct {
	Auth     *app.AuthService
	Attempts *app.AttemptService
	Catalog  *app.CatalogService
	Reports  *app.ReportService
}

type RouterConfig struct {
	CookieName string
	TokenTTL   time.Duration
}

// NewRouter wires the JSON API and the attempt websocket.
func NewRouter(svc Services, cfg RouterConfig) http.Handler {
	g := gate{auth: svc.Auth, cookieName: cfg.CookieName}
	auth := &authHandler{auth: svc.Auth, attempts: svc.Attempts, cookieName: cfg.CookieName, tokenTTL: cfg.TokenTTL}
	attempts := &attemptHandler{attempts: svc.Attempts, catalog: svc.Catalog}
	reports := &reportHandler{reports: svc.Reports}
	ws := NewWSHandler(svc.Attempts)

	r := mux.NewRouter()
	r.Use(requestLogger)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Message: "not found"})
	})

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/register", auth.register).Methods(http.MethodPost)
	r.HandleFunc("/login", auth.login).Methods(http.MethodPost)

	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(g.requireAdmin)
	registerCatalog(admin, svc.Catalog)
	admin.HandleFunc("/summary", reports.adminSummary).Methods(http.MethodGet)

	user := r.PathPrefix("/").Subrouter()
	user.Use(g.requireUser)
	user.HandleFunc("/logout", auth.logout).Methods(http.MethodPost)
	user.HandleFunc("/profile", auth.profile).Methods(http.MethodGet)
	user.HandleFunc("/profile", auth.updateProfile).Methods(http.MethodPut)

	user.HandleFunc("/quizzes", attempts.upcoming).Methods(http.MethodGet)
	user.HandleFunc("/quizzes/{id:[0-9]+}/attempt", attempts.begin).Methods(http.MethodPost)
	user.HandleFunc("/quizzes/{id:[0-9]+}/attempt", attempts.abandon).Methods(http.MethodDelete)
	user.HandleFunc("/quizzes/{id:[0-9]+}/attempt/questions/{index:[0-9]+}", attempts.view).Methods(http.MethodGet)
	user.HandleFunc("/quizzes/{id:[0-9]+}/attempt/questions/{index:[0-9]+}", attempts.answer).Methods(http.MethodPost)
	user.HandleFunc("/quizzes/{id:[0-9]+}/attempt/submit", attempts.submit).Methods(http.MethodPost)

	user.HandleFunc("/scores", reports.history).Methods(http.MethodGet)
	user.HandleFunc("/scores/{id:[0-9]+}", reports.score).Methods(http.MethodGet)
	user.HandleFunc("/summary", reports.userSummary).Methods(http.MethodGet)

	user.HandleFunc("/ws/attempt", ws.ServeWS).Methods(http.MethodGet)
	return r
}
