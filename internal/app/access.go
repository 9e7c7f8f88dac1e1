package app

import "quizmaster/internal/domain"

// Identity is the caller resolved from a session token.
type Identity struct {
	UserID    int64
	SessionID string
	Username  string
	IsAdmin   bool
}

// RequireAuthenticated fails unless an identity was resolved.
func RequireAuthenticated(id *Identity) error {
	if id == nil || id.UserID == 0 {
		return domain.ErrUnauthenticated
	}
	return nil
}

// RequireAdmin fails unless the identity is authenticated and carries the admin flag.
func RequireAdmin(id *Identity) error {
	if err := RequireAuthenticated(id); err != nil {
		return err
	}
	if !id.IsAdmin {
		return domain.ErrUnauthorized
	}
	return nil
}
