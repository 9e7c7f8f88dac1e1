package http

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"quizmaster/internal/app"
)

type ctxKey int

const identityKey ctxKey = iota

func withIdentity(ctx context.Context, id app.Identity) context.Context {
	return context.WithValue(ctx, identityKey, &id)
}

// identityFrom returns the caller resolved by the auth middleware, or nil.
func identityFrom(ctx context.Context) *app.Identity {
	id, _ := ctx.Value(identityKey).(*app.Identity)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets websocket upgrades pass through the logger.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("latency", time.Since(start)).
			Msg("request")
	})
}

type gate struct {
	auth       *app.AuthService
	cookieName string
}

func (g gate) token(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := r.Cookie(g.cookieName); err == nil {
		return c.Value
	}
	return ""
}

func (g gate) resolve(r *http.Request) (*app.Identity, error) {
	id, err := g.auth.Authenticate(r.Context(), g.token(r))
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// requireUser rejects requests without a valid session.
func (g gate) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := g.resolve(r)
		if err == nil {
			err = app.RequireAuthenticated(id)
		}
		if err != nil {
			writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), *id)))
	})
}

// requireAdmin rejects requests unless the session belongs to an administrator.
func (g gate) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := g.resolve(r)
		if err == nil {
			err = app.RequireAdmin(id)
		}
		if err != nil {
			writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), *id)))
	})
}
