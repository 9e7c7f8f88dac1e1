package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"quizmaster/internal/domain"
)

func TestStoreDeleteSubjectCascades(t *testing.T) {
	ctx := context.Background()
	store, quizID := seededStore(t)
	user, err := store.CreateUser(ctx, domain.User{Username: "alice", Name: "Alice"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	score, err := store.CreateScore(ctx, domain.Score{UserID: user.ID, QuizID: quizID, Score: 1, AttemptDate: time.Now()})
	if err != nil {
		t.Fatalf("create score: %v", err)
	}

	summary, _ := store.GetQuizSummary(ctx, quizID)
	removed, err := store.DeleteSubject(ctx, summary.SubjectID)
	if err != nil {
		t.Fatalf("delete subject: %v", err)
	}
	if len(removed) != 1 || removed[0] != quizID {
		t.Fatalf("expected removed quiz %d, got %v", quizID, removed)
	}
	if _, err := store.GetChapter(ctx, summary.ChapterID); !errors.Is(err, domain.ErrChapterNotFound) {
		t.Fatalf("expected chapter gone, got %v", err)
	}
	if _, err := store.LoadQuiz(ctx, quizID); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz gone, got %v", err)
	}
	if _, err := store.GetScore(ctx, score.ID); !errors.Is(err, domain.ErrScoreNotFound) {
		t.Fatalf("expected score cascaded, got %v", err)
	}
	if n, _ := store.CountScores(ctx, domain.ScoreFilter{}); n != 0 {
		t.Fatalf("expected no scores left, got %d", n)
	}
}

func TestStoreUniqueNames(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	if _, err := store.CreateSubject(ctx, domain.Subject{Name: "Physics"}); err != nil {
		t.Fatalf("create subject: %v", err)
	}
	if _, err := store.CreateSubject(ctx, domain.Subject{Name: "Physics"}); !errors.Is(err, domain.ErrNameTaken) {
		t.Fatalf("expected name taken, got %v", err)
	}
	if _, err := store.CreateUser(ctx, domain.User{Username: "bob"}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := store.CreateUser(ctx, domain.User{Username: "bob"}); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected username taken, got %v", err)
	}
}

func TestStoreMonthlyCountsOrdered(t *testing.T) {
	ctx := context.Background()
	store, quizID := seededStore(t)
	user, _ := store.CreateUser(ctx, domain.User{Username: "alice"})
	for _, d := range []time.Time{
		time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC),
	} {
		if _, err := store.CreateScore(ctx, domain.Score{UserID: user.ID, QuizID: quizID, AttemptDate: d}); err != nil {
			t.Fatalf("create score: %v", err)
		}
	}

	got, err := store.MonthlyAttemptCounts(ctx, user.ID)
	if err != nil {
		t.Fatalf("monthly: %v", err)
	}
	want := []domain.MonthCount{{Month: "2023-12", Attempts: 1}, {Month: "2024-03", Attempts: 2}}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}

	other, _ := store.MonthlyAttemptCounts(ctx, user.ID+100)
	if len(other) != 0 {
		t.Fatalf("expected empty result for user without scores, got %v", other)
	}
}
