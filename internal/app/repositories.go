package app

import (
	"context"
	"time"

	"quizmaster/internal/domain"
)

// QuizRepository loads a quiz with its questions in creation order (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error)
}

// QuizInvalidator drops cached quiz content after the catalog changes.
type QuizInvalidator interface {
	Invalidate(ctx context.Context, quizID int64) error
}

// ScoreStore persists and queries immutable attempt records.
type ScoreStore interface {
	CreateScore(ctx context.Context, score domain.Score) (domain.Score, error)
	GetScore(ctx context.Context, scoreID int64) (domain.Score, error)
	ListScores(ctx context.Context, filter domain.ScoreFilter) ([]domain.Score, error)
	CountScores(ctx context.Context, filter domain.ScoreFilter) (int, error)
}

// SessionStore abstracts where attempt state lives between requests (in-memory, Redis, bbolt).
type SessionStore interface {
	Load(ctx context.Context, sessionID string) (domain.AttemptState, bool, error)
	Save(ctx context.Context, sessionID string, state domain.AttemptState) error
	Delete(ctx context.Context, sessionID string) error
}

// CatalogRepository manages the subject > chapter > quiz > question hierarchy.
// Deletes cascade; DeleteSubject and DeleteChapter return the ids of quizzes removed with them.
type CatalogRepository interface {
	CreateSubject(ctx context.Context, subject domain.Subject) (domain.Subject, error)
	UpdateSubject(ctx context.Context, subject domain.Subject) error
	GetSubject(ctx context.Context, subjectID int64) (domain.Subject, error)
	ListSubjects(ctx context.Context) ([]domain.Subject, error)
	DeleteSubject(ctx context.Context, subjectID int64) ([]int64, error)

	CreateChapter(ctx context.Context, chapter domain.Chapter) (domain.Chapter, error)
	UpdateChapter(ctx context.Context, chapter domain.Chapter) error
	GetChapter(ctx context.Context, chapterID int64) (domain.Chapter, error)
	ListChapters(ctx context.Context, subjectID int64) ([]domain.Chapter, error)
	DeleteChapter(ctx context.Context, chapterID int64) ([]int64, error)

	CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error)
	UpdateQuiz(ctx context.Context, quiz domain.Quiz) error
	GetQuizSummary(ctx context.Context, quizID int64) (domain.QuizSummary, error)
	ListQuizzes(ctx context.Context, chapterID int64) ([]domain.QuizSummary, error)
	ListQuizzesFrom(ctx context.Context, day time.Time) ([]domain.QuizSummary, error)
	DeleteQuiz(ctx context.Context, quizID int64) error

	CreateQuestion(ctx context.Context, question domain.Question) (domain.Question, error)
	UpdateQuestion(ctx context.Context, question domain.Question) error
	GetQuestion(ctx context.Context, questionID int64) (domain.Question, error)
	DeleteQuestion(ctx context.Context, questionID int64) error
}

// UserRepository stores accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user domain.User) (domain.User, error)
	GetUser(ctx context.Context, userID int64) (domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
	UpdateUser(ctx context.Context, user domain.User) error
	HasAdmin(ctx context.Context) (bool, error)
}

// ReportRepository runs the dashboard rollups over scores joined to subjects.
// A userID of 0 means all users.
type ReportRepository interface {
	SubjectAttemptCounts(ctx context.Context, userID int64) ([]domain.SubjectCount, error)
	SubjectMaxScores(ctx context.Context) ([]domain.SubjectMaxScore, error)
	MonthlyAttemptCounts(ctx context.Context, userID int64) ([]domain.MonthCount, error)
}
