package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quizmaster/internal/domain"
	"quizmaster/internal/infra/memory"
)

func TestQuizRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)
	store, quizID := sampleStore(t)
	loader := &countingLoader{QuizLoader: store}
	repo := NewQuizRepository(client, loader, time.Minute)

	quiz, err := repo.GetQuiz(context.Background(), quizID)
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists(repo.key(quizID)) {
		t.Fatalf("expected quiz cached in redis")
	}

	// Second call should hit cache, loader not incremented.
	cached, err := repo.GetQuiz(context.Background(), quizID)
	if err != nil {
		t.Fatalf("get cached quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if len(cached.Questions) != len(quiz.Questions) || cached.Questions[0].CorrectOption() != "4" {
		t.Fatalf("expected full quiz from cache, got %+v", cached)
	}
}

func TestQuizRepositoryInvalidate(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store, quizID := sampleStore(t)
	loader := &countingLoader{QuizLoader: store}
	repo := NewQuizRepository(newClient(mr), loader, time.Minute)
	ctx := context.Background()

	_, _ = repo.GetQuiz(ctx, quizID)
	if err := repo.Invalidate(ctx, quizID); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	_, _ = repo.GetQuiz(ctx, quizID)
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, loader calls=%d", loader.calls)
	}
}

type countingLoader struct {
	memory.QuizLoader
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	l.calls++
	return l.QuizLoader.LoadQuiz(ctx, quizID)
}

func sampleStore(t *testing.T) (*memory.Store, int64) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	subject, _ := store.CreateSubject(ctx, domain.Subject{Name: "Maths"})
	chapter, _ := store.CreateChapter(ctx, domain.Chapter{SubjectID: subject.ID, Name: "Arithmetic"})
	quiz, err := store.CreateQuiz(ctx, domain.Quiz{ChapterID: chapter.ID, Date: time.Now(), Duration: time.Minute})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	if _, err := store.CreateQuestion(ctx, domain.Question{
		QuizID:       quiz.ID,
		Title:        "Sum",
		Statement:    "What is 2 + 2?",
		Options:      [4]string{"3", "4", "5", "6"},
		CorrectIndex: 1,
	}); err != nil {
		t.Fatalf("create question: %v", err)
	}
	return store, quiz.ID
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
