package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quizmaster/internal/domain"
)

// QuizLoader reads a quiz and its questions straight from Postgres for the quiz caches.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

// LoadQuiz returns the quiz with questions in creation (id) order.
func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	var (
		quiz    domain.Quiz
		seconds int
	)
	err := l.pool.QueryRow(ctx,
		`SELECT id, chapter_id, date_of_quiz, duration_seconds, remarks FROM quizzes WHERE id=$1`, quizID,
	).Scan(&quiz.ID, &quiz.ChapterID, &quiz.Date, &seconds, &quiz.Remarks)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	quiz.Date = domain.Day(quiz.Date)
	quiz.Duration = time.Duration(seconds) * time.Second

	rows, err := l.pool.Query(ctx,
		`SELECT id, quiz_id, title, statement, options, correct_index FROM questions WHERE quiz_id=$1 ORDER BY id`, quizID)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	quiz.Questions = make([]domain.Question, 0)
	for rows.Next() {
		var (
			q       domain.Question
			options []string
		)
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Title, &q.Statement, &options, &q.CorrectIndex); err != nil {
			return domain.Quiz{}, fmt.Errorf("scan question: %w", err)
		}
		copy(q.Options[:], options)
		quiz.Questions = append(quiz.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return domain.Quiz{}, fmt.Errorf("load questions: %w", err)
	}
	return quiz, nil
}
