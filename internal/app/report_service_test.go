package app_test

import (
	"context"
	"testing"
	"time"

	"quizmaster/internal/app"
	"quizmaster/internal/domain"
	"quizmaster/internal/infra/memory"
)

func TestSubjectAttemptCounts(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	quizA := seedQuiz(t, store, "A")
	quizB := seedQuiz(t, store, "B")
	_, _ = store.CreateSubject(ctx, domain.Subject{Name: "Unattempted"})
	user, _ := store.CreateUser(ctx, domain.User{Username: "erin"})
	other, _ := store.CreateUser(ctx, domain.User{Username: "finn"})

	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, _ = store.CreateScore(ctx, domain.Score{UserID: user.ID, QuizID: quizA, Score: i, AttemptDate: day})
	}
	_, _ = store.CreateScore(ctx, domain.Score{UserID: user.ID, QuizID: quizB, Score: 1, AttemptDate: day.AddDate(0, 1, 0)})
	_, _ = store.CreateScore(ctx, domain.Score{UserID: other.ID, QuizID: quizB, Score: 5, AttemptDate: day})

	reports := app.NewReportService(store, store, store)
	summary, err := reports.UserSummary(ctx, user.ID)
	if err != nil {
		t.Fatalf("user summary: %v", err)
	}
	got := map[string]int{}
	for _, c := range summary.SubjectAttempts {
		got[c.SubjectName] = c.Attempts
	}
	if len(got) != 2 || got["A"] != 3 || got["B"] != 1 {
		t.Fatalf("expected {A:3 B:1}, got %v", got)
	}
	if len(summary.MonthlyAttempts) != 2 || summary.MonthlyAttempts[0].Month != "2024-01" || summary.MonthlyAttempts[1].Month != "2024-02" {
		t.Fatalf("expected chronological month buckets, got %+v", summary.MonthlyAttempts)
	}

	admin, err := reports.AdminSummary(ctx)
	if err != nil {
		t.Fatalf("admin summary: %v", err)
	}
	maxes := map[string]int{}
	for _, m := range admin.SubjectMaxScores {
		maxes[m.SubjectName] = m.MaxScore
	}
	if maxes["A"] != 2 || maxes["B"] != 5 {
		t.Fatalf("unexpected max scores %v", maxes)
	}
}

func TestEmptyRollups(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedQuiz(t, store, "Lonely")
	reports := app.NewReportService(store, store, store)

	summary, err := reports.UserSummary(ctx, 1)
	if err != nil {
		t.Fatalf("user summary: %v", err)
	}
	if len(summary.SubjectAttempts) != 0 || len(summary.MonthlyAttempts) != 0 {
		t.Fatalf("expected empty rollups, got %+v", summary)
	}
	admin, err := reports.AdminSummary(ctx)
	if err != nil {
		t.Fatalf("admin summary: %v", err)
	}
	if len(admin.SubjectAttempts) != 0 || len(admin.SubjectMaxScores) != 0 {
		t.Fatalf("expected empty admin rollups, got %+v", admin)
	}
}

func TestHistoryCarriesAttemptNumbers(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	quizID := seedQuiz(t, store, "Chemistry")
	user, _ := store.CreateUser(ctx, domain.User{Username: "gail"})
	other, _ := store.CreateUser(ctx, domain.User{Username: "hank"})
	day := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	first, _ := store.CreateScore(ctx, domain.Score{UserID: user.ID, QuizID: quizID, Score: 1, AttemptDate: day})
	second, _ := store.CreateScore(ctx, domain.Score{UserID: user.ID, QuizID: quizID, Score: 2, AttemptDate: day})
	foreign, _ := store.CreateScore(ctx, domain.Score{UserID: other.ID, QuizID: quizID, Score: 2, AttemptDate: day})

	reports := app.NewReportService(store, store, store)
	history, err := reports.History(ctx, user.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(history))
	}
	if history[0].ID != second.ID || history[0].Attempt != 2 || history[1].ID != first.ID || history[1].Attempt != 1 {
		t.Fatalf("unexpected history order/attempts: %+v", history)
	}
	if history[0].Total != 1 || history[0].SubjectName != "Chemistry" {
		t.Fatalf("expected quiz metadata, got %+v", history[0])
	}

	if _, err := reports.ScoreDetail(ctx, user.ID, foreign.ID); err != domain.ErrScoreNotFound {
		t.Fatalf("expected foreign score hidden, got %v", err)
	}
	detail, err := reports.ScoreDetail(ctx, other.ID, foreign.ID)
	if err != nil {
		t.Fatalf("score detail: %v", err)
	}
	if detail.Attempt != 1 {
		t.Fatalf("expected other user's first attempt, got %d", detail.Attempt)
	}
}

// seedQuiz creates subject > chapter > quiz with one question and returns the quiz id.
func seedQuiz(t *testing.T, store *memory.Store, subjectName string) int64 {
	t.Helper()
	ctx := context.Background()
	subject, err := store.CreateSubject(ctx, domain.Subject{Name: subjectName})
	if err != nil {
		t.Fatalf("create subject: %v", err)
	}
	chapter, err := store.CreateChapter(ctx, domain.Chapter{SubjectID: subject.ID, Name: subjectName + " basics"})
	if err != nil {
		t.Fatalf("create chapter: %v", err)
	}
	quiz, err := store.CreateQuiz(ctx, domain.Quiz{ChapterID: chapter.ID, Date: time.Now(), Duration: time.Minute})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	if _, err := store.CreateQuestion(ctx, domain.Question{QuizID: quiz.ID, Title: "Q", Statement: "?", Options: [4]string{"a", "b", "c", "d"}}); err != nil {
		t.Fatalf("create question: %v", err)
	}
	return quiz.ID
}
