package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"quizmaster/internal/domain"
)

// AttemptService drives a user through a timed quiz attempt across requests.
// State lives in the SessionStore keyed by session id; nothing is held in memory between calls.
type AttemptService struct {
	quizzes  QuizRepository
	scores   ScoreStore
	sessions SessionStore
	now      func() time.Time
}

func NewAttemptService(quizzes QuizRepository, scores ScoreStore, sessions SessionStore) *AttemptService {
	return NewAttemptServiceWithClock(quizzes, scores, sessions, time.Now)
}

// NewAttemptServiceWithClock is test-only for deterministic timestamps.
func NewAttemptServiceWithClock(quizzes QuizRepository, scores ScoreStore, sessions SessionStore, now func() time.Time) *AttemptService {
	return &AttemptService{quizzes: quizzes, scores: scores, sessions: sessions, now: now}
}

// AttemptStatus summarizes the in-progress attempt after Begin.
type AttemptStatus struct {
	QuizID        int64     `json:"quizId"`
	Total         int       `json:"total"`
	RemainingTime int       `json:"remainingTime"`
	Reached       int       `json:"reached"`
	Answered      int       `json:"answered"`
	Deadline      time.Time `json:"deadline"`
}

// Begin loads the quiz and seeds the countdown unless this session already runs an attempt at it.
// An attempt at a different quiz is replaced.
func (s *AttemptService) Begin(ctx context.Context, sessionID string, quizID int64) (AttemptStatus, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return AttemptStatus{}, err
	}

	state, ok, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return AttemptStatus{}, err
	}
	if !ok || state.QuizID != quizID {
		if ok {
			log.Info().Str("session_id", sessionID).Int64("previous_quiz_id", state.QuizID).Int64("quiz_id", quizID).
				Msg("replacing in-progress attempt")
		}
		state = domain.NewAttemptState(quiz, s.now())
		if err := s.sessions.Save(ctx, sessionID, state); err != nil {
			return AttemptStatus{}, err
		}
	}
	return AttemptStatus{
		QuizID:        quizID,
		Total:         len(quiz.Questions),
		RemainingTime: state.RemainingTime,
		Reached:       state.Reached,
		Answered:      len(state.Answers),
		Deadline:      state.Deadline,
	}, nil
}

// View returns the question at index with the countdown and any previously recorded selection.
// Viewing index 0 without an attempt for this quiz starts one.
func (s *AttemptService) View(ctx context.Context, sessionID string, quizID int64, index int) (domain.QuestionView, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.QuestionView{}, err
	}
	if index < 0 || index >= len(quiz.Questions) {
		return domain.QuestionView{}, domain.ErrOutOfRange
	}

	state, ok, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return domain.QuestionView{}, err
	}
	if !ok || state.QuizID != quizID {
		if index != 0 {
			return domain.QuestionView{}, missingAttempt(ok)
		}
		state = domain.NewAttemptState(quiz, s.now())
		if err := s.sessions.Save(ctx, sessionID, state); err != nil {
			return domain.QuestionView{}, err
		}
	}
	if index > state.Reached {
		return domain.QuestionView{}, domain.ErrIndexNotReached
	}

	question := quiz.Questions[index]
	selected, answered := state.Answers[domain.QuestionKey(question.ID)]
	return domain.QuestionView{
		QuizID:        quizID,
		Index:         index,
		Total:         len(quiz.Questions),
		QuestionID:    question.ID,
		Title:         question.Title,
		Statement:     question.Statement,
		Options:       question.Options,
		Selected:      selected,
		Answered:      answered,
		RemainingTime: state.RemainingTime,
		Deadline:      state.Deadline,
		Expired:       !state.Deadline.IsZero() && s.now().After(state.Deadline),
		IsLast:        index == len(quiz.Questions)-1,
	}, nil
}

// AnswerAndAdvance records selected against the question at index and stores the client's countdown.
// The selection is stored verbatim; a nil remaining keeps the stored countdown.
func (s *AttemptService) AnswerAndAdvance(ctx context.Context, sessionID string, quizID int64, index int, selected string, remaining *int) (domain.AdvanceResult, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.AdvanceResult{}, err
	}
	if index < 0 || index >= len(quiz.Questions) {
		return domain.AdvanceResult{}, domain.ErrOutOfRange
	}

	state, ok, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return domain.AdvanceResult{}, err
	}
	if !ok || state.QuizID != quizID {
		return domain.AdvanceResult{}, missingAttempt(ok)
	}
	if index > state.Reached {
		return domain.AdvanceResult{}, domain.ErrIndexNotReached
	}

	if state.Answers == nil {
		state.Answers = make(map[string]string)
	}
	state.Answers[domain.QuestionKey(quiz.Questions[index].ID)] = selected
	if remaining != nil {
		state.RemainingTime = *remaining
	}
	next := index + 1
	if next < len(quiz.Questions) && next > state.Reached {
		state.Reached = next
	}
	if err := s.sessions.Save(ctx, sessionID, state); err != nil {
		return domain.AdvanceResult{}, err
	}
	return domain.AdvanceResult{NextIndex: next, Done: next >= len(quiz.Questions)}, nil
}

// Submit grades the attempt, persists one score row and clears the session state.
// final, when non-nil, is merged as the answer to the last question.
// If persistence fails the state is kept so the caller can retry.
func (s *AttemptService) Submit(ctx context.Context, sessionID string, userID, quizID int64, final *string) (domain.SubmitResult, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.SubmitResult{}, err
	}

	state, ok, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return domain.SubmitResult{}, err
	}
	if ok && state.QuizID != quizID {
		return domain.SubmitResult{}, domain.ErrAttemptMismatch
	}

	answers := make(map[string]string, len(state.Answers)+1)
	for k, v := range state.Answers {
		answers[k] = v
	}
	if final != nil && len(quiz.Questions) > 0 {
		last := quiz.Questions[len(quiz.Questions)-1]
		answers[domain.QuestionKey(last.ID)] = *final
	}

	score, err := s.scores.CreateScore(ctx, domain.Score{
		UserID:      userID,
		QuizID:      quizID,
		Score:       Grade(quiz, answers),
		AttemptDate: domain.Day(s.now()),
	})
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Int64("quiz_id", quizID).Msg("persist score failed; attempt kept")
		return domain.SubmitResult{}, err
	}

	if ok {
		if err := s.sessions.Delete(ctx, sessionID); err != nil {
			log.Warn().Err(err).Str("session_id", sessionID).Msg("clear attempt state failed")
		}
	}

	attempt, err := AttemptNumber(ctx, s.scores, score)
	if err != nil {
		log.Warn().Err(err).Int64("score_id", score.ID).Msg("attempt number lookup failed")
	}
	return domain.SubmitResult{
		ScoreID: score.ID,
		Score:   score.Score,
		Total:   len(quiz.Questions),
		Attempt: attempt,
	}, nil
}

// Abandon discards the in-progress attempt without recording a score.
func (s *AttemptService) Abandon(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

// AttemptNumber returns the 1-based ordinal of score among the user's attempts at the same quiz.
// Same-day attempts are ordered by ascending id.
func (s *AttemptService) AttemptNumber(ctx context.Context, score domain.Score) (int, error) {
	return AttemptNumber(ctx, s.scores, score)
}

// AttemptNumber counts the (user, quiz) rows at or before score in (attempt date, id) order.
func AttemptNumber(ctx context.Context, scores ScoreStore, score domain.Score) (int, error) {
	return scores.CountScores(ctx, domain.ScoreFilter{
		UserID: score.UserID,
		QuizID: score.QuizID,
		UpTo:   &domain.ScoreCursor{Date: score.AttemptDate, ID: score.ID},
	})
}

// Grade counts exact matches between answers and each question's correct option.
func Grade(quiz domain.Quiz, answers map[string]string) int {
	score := 0
	for _, q := range quiz.Questions {
		want := q.CorrectOption()
		if want == "" {
			continue
		}
		if got, ok := answers[domain.QuestionKey(q.ID)]; ok && got == want {
			score++
		}
	}
	return score
}

func missingAttempt(otherQuiz bool) error {
	if otherQuiz {
		return domain.ErrAttemptMismatch
	}
	return domain.ErrNoActiveAttempt
}
