package domain

import (
	"strconv"
	"time"
)

// AttemptState is the server-held progress of one in-progress attempt.
// It is keyed by session id and lives in a SessionStore between requests.
type AttemptState struct {
	QuizID int64 `json:"quizId"`
	// RemainingTime is the advisory countdown in seconds, reported by the client.
	RemainingTime int `json:"remainingTime"`
	// Answers maps question id (as text) to the submitted option text.
	Answers map[string]string `json:"answers"`
	// Reached is the furthest question index the caller may view.
	Reached   int       `json:"reached"`
	StartedAt time.Time `json:"startedAt"`
	Deadline  time.Time `json:"deadline"`
}

// NewAttemptState seeds a fresh attempt for quiz at now.
func NewAttemptState(quiz Quiz, now time.Time) AttemptState {
	return AttemptState{
		QuizID:        quiz.ID,
		RemainingTime: quiz.DurationSeconds(),
		Answers:       make(map[string]string),
		StartedAt:     now,
		Deadline:      now.Add(quiz.Duration),
	}
}

// QuestionKey is the answer-map key for a question id.
func QuestionKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

// QuestionView is what a caller renders for one question of an attempt.
type QuestionView struct {
	QuizID        int64               `json:"quizId"`
	Index         int                 `json:"index"`
	Total         int                 `json:"total"`
	QuestionID    int64               `json:"questionId"`
	Title         string              `json:"title"`
	Statement     string              `json:"statement"`
	Options       [OptionCount]string `json:"options"`
	Selected      string              `json:"selected"`
	Answered      bool                `json:"answered"`
	RemainingTime int                 `json:"remainingTime"`
	Deadline      time.Time           `json:"deadline"`
	Expired       bool                `json:"expired"`
	IsLast        bool                `json:"isLast"`
}

// AdvanceResult tells the caller where to go after recording an answer.
// Done is set when the answer was on the last question and the caller should submit.
type AdvanceResult struct {
	NextIndex int  `json:"nextIndex"`
	Done      bool `json:"done"`
}

// SubmitResult is the confirmation of a finished attempt.
type SubmitResult struct {
	ScoreID int64 `json:"scoreId"`
	Score   int   `json:"score"`
	Total   int   `json:"total"`
	Attempt int   `json:"attempt"`
}
