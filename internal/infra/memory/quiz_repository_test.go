package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"quizmaster/internal/domain"
)

func TestQuizRepositoryCaches(t *testing.T) {
	store, quizID := seededStore(t)
	loader := &countingLoader{QuizLoader: store}
	repo := NewQuizRepository(loader, time.Minute)

	quiz, err := repo.GetQuiz(context.Background(), quizID)
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if len(quiz.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(quiz.Questions))
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.GetQuiz(context.Background(), quizID); err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestQuizRepositoryInvalidate(t *testing.T) {
	store, quizID := seededStore(t)
	loader := &countingLoader{QuizLoader: store}
	repo := NewQuizRepository(loader, time.Minute)
	ctx := context.Background()

	_, _ = repo.GetQuiz(ctx, quizID)
	if err := repo.Invalidate(ctx, quizID); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	_, _ = repo.GetQuiz(ctx, quizID)
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, loader calls %d", loader.calls)
	}
}

func TestQuizRepositoryDoesNotCacheMisses(t *testing.T) {
	loader := &countingLoader{QuizLoader: NewStore()}
	repo := NewQuizRepository(loader, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := repo.GetQuiz(context.Background(), 42); !errors.Is(err, domain.ErrQuizNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	}
	if loader.calls != 2 {
		t.Fatalf("expected misses to reach loader, calls %d", loader.calls)
	}
}

type countingLoader struct {
	QuizLoader
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	l.calls++
	return l.QuizLoader.LoadQuiz(ctx, quizID)
}

func seededStore(t *testing.T) (*Store, int64) {
	t.Helper()
	ctx := context.Background()
	store := NewStore()
	subject, err := store.CreateSubject(ctx, domain.Subject{Name: "Maths"})
	if err != nil {
		t.Fatalf("create subject: %v", err)
	}
	chapter, err := store.CreateChapter(ctx, domain.Chapter{SubjectID: subject.ID, Name: "Arithmetic"})
	if err != nil {
		t.Fatalf("create chapter: %v", err)
	}
	quiz, err := store.CreateQuiz(ctx, domain.Quiz{ChapterID: chapter.ID, Date: time.Now(), Duration: 10 * time.Minute})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	for _, q := range []domain.Question{
		{QuizID: quiz.ID, Title: "Q1", Statement: "What is 2 + 2?", Options: [4]string{"3", "4", "5", "6"}, CorrectIndex: 1},
		{QuizID: quiz.ID, Title: "Q2", Statement: "What is 3 + 3?", Options: [4]string{"5", "6", "7", "8"}, CorrectIndex: 1},
	} {
		if _, err := store.CreateQuestion(ctx, q); err != nil {
			t.Fatalf("create question: %v", err)
		}
	}
	return store, quiz.ID
}
