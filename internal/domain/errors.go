package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a question ID does not resolve.
	ErrQuestionNotFound = errors.New("question not found")
	ErrSubjectNotFound  = errors.New("subject not found")
	ErrChapterNotFound  = errors.New("chapter not found")
	ErrScoreNotFound    = errors.New("score not found")
	ErrUserNotFound     = errors.New("user not found")

	// ErrOutOfRange is returned for a question index beyond the quiz's question count.
	ErrOutOfRange = errors.New("question index out of range")
	// ErrIndexNotReached is returned when a caller skips ahead of the furthest answered question.
	ErrIndexNotReached = errors.New("question index not reached yet")
	// ErrNoActiveAttempt is returned when an attempt operation runs before the attempt was started.
	ErrNoActiveAttempt = errors.New("no active attempt")
	// ErrAttemptMismatch is returned when the session holds an attempt for a different quiz.
	ErrAttemptMismatch = errors.New("session holds an attempt for another quiz")

	ErrUnauthenticated    = errors.New("please log in to continue")
	ErrUnauthorized       = errors.New("you are not authorized to view this page")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrNameTaken          = errors.New("name already exists")
)

// ValidationError reports invalid or missing input fields.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
