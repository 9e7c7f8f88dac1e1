package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"quizmaster/internal/app"
	"quizmaster/internal/domain"
	"quizmaster/internal/infra/memory"
)

func newCatalog() (*app.CatalogService, *memory.Store, *memory.QuizRepository) {
	store := memory.NewStore()
	quizzes := memory.NewQuizRepository(store, time.Minute)
	return app.NewCatalogService(store, quizzes, quizzes), store, quizzes
}

func TestCatalogValidation(t *testing.T) {
	ctx := context.Background()
	catalog, _, _ := newCatalog()

	if _, err := catalog.CreateSubject(ctx, app.SubjectInput{}); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for empty subject, got %v", err)
	}
	if _, err := catalog.CreateChapter(ctx, app.ChapterInput{SubjectID: 42, Name: "Orphan"}); !errors.Is(err, domain.ErrSubjectNotFound) {
		t.Fatalf("expected subject not found, got %v", err)
	}

	subject, _ := catalog.CreateSubject(ctx, app.SubjectInput{Name: "Science"})
	chapter, _ := catalog.CreateChapter(ctx, app.ChapterInput{SubjectID: subject.ID, Name: "Optics"})
	if _, err := catalog.CreateQuiz(ctx, app.QuizInput{ChapterID: chapter.ID, Date: "10/05/2024", DurationMinutes: 10}); !domain.IsValidation(err) {
		t.Fatalf("expected bad date rejected, got %v", err)
	}
	quiz, err := catalog.CreateQuiz(ctx, app.QuizInput{ChapterID: chapter.ID, Date: "2024-05-10", DurationMinutes: 10})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	if quiz.Duration != 10*time.Minute {
		t.Fatalf("expected 10m duration, got %v", quiz.Duration)
	}

	correct := 1
	dup := app.QuestionInput{QuizID: quiz.ID, Title: "T", Statement: "S", Options: [4]string{"a", "a", "b", "c"}, CorrectIndex: &correct}
	if _, err := catalog.CreateQuestion(ctx, dup); !domain.IsValidation(err) {
		t.Fatalf("expected duplicate options rejected, got %v", err)
	}
	bad := 4
	outOfRange := app.QuestionInput{QuizID: quiz.ID, Title: "T", Statement: "S", Options: [4]string{"a", "b", "c", "d"}, CorrectIndex: &bad}
	if _, err := catalog.CreateQuestion(ctx, outOfRange); !domain.IsValidation(err) {
		t.Fatalf("expected correct index rejected, got %v", err)
	}
	missing := app.QuestionInput{QuizID: quiz.ID, Title: "T", Statement: "S", Options: [4]string{"a", "b", "c", "d"}}
	if _, err := catalog.CreateQuestion(ctx, missing); !domain.IsValidation(err) {
		t.Fatalf("expected missing correct index rejected, got %v", err)
	}
}

func TestCatalogQuestionEditsInvalidateCache(t *testing.T) {
	ctx := context.Background()
	catalog, _, quizzes := newCatalog()

	subject, _ := catalog.CreateSubject(ctx, app.SubjectInput{Name: "Science"})
	chapter, _ := catalog.CreateChapter(ctx, app.ChapterInput{SubjectID: subject.ID, Name: "Optics"})
	quiz, _ := catalog.CreateQuiz(ctx, app.QuizInput{ChapterID: chapter.ID, Date: "2024-05-10", DurationMinutes: 10})

	if detail, _ := quizzes.GetQuiz(ctx, quiz.ID); len(detail.Questions) != 0 {
		t.Fatalf("expected empty quiz, got %d questions", len(detail.Questions))
	}

	correct := 0
	q, err := catalog.CreateQuestion(ctx, app.QuestionInput{
		QuizID: quiz.ID, Title: "Light", Statement: "Speed of light?",
		Options: [4]string{"3e8 m/s", "340 m/s", "1 m/s", "0"}, CorrectIndex: &correct,
	})
	if err != nil {
		t.Fatalf("create question: %v", err)
	}
	detail, err := catalog.QuizDetail(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("quiz detail: %v", err)
	}
	if len(detail.Questions) != 1 || detail.Questions[0].CorrectOption() != "3e8 m/s" {
		t.Fatalf("expected fresh question after invalidation, got %+v", detail.Questions)
	}

	if err := catalog.DeleteQuestion(ctx, q.ID); err != nil {
		t.Fatalf("delete question: %v", err)
	}
	if detail, _ := catalog.QuizDetail(ctx, quiz.ID); len(detail.Questions) != 0 {
		t.Fatalf("expected question gone from cached quiz, got %d", len(detail.Questions))
	}
}

func TestDeleteSubjectCascadesToScores(t *testing.T) {
	ctx := context.Background()
	catalog, store, quizzes := newCatalog()

	subject, _ := catalog.CreateSubject(ctx, app.SubjectInput{Name: "History"})
	chapter, _ := catalog.CreateChapter(ctx, app.ChapterInput{SubjectID: subject.ID, Name: "Rome"})
	quiz, _ := catalog.CreateQuiz(ctx, app.QuizInput{ChapterID: chapter.ID, Date: "2024-05-10", DurationMinutes: 10})
	correct := 2
	question, _ := catalog.CreateQuestion(ctx, app.QuestionInput{
		QuizID: quiz.ID, Title: "Founding", Statement: "When was Rome founded?",
		Options: [4]string{"1000 BC", "900 BC", "753 BC", "500 BC"}, CorrectIndex: &correct,
	})
	user, _ := store.CreateUser(ctx, domain.User{Username: "dana"})
	if _, err := store.CreateScore(ctx, domain.Score{UserID: user.ID, QuizID: quiz.ID, Score: 1, AttemptDate: time.Now()}); err != nil {
		t.Fatalf("create score: %v", err)
	}
	_, _ = quizzes.GetQuiz(ctx, quiz.ID)

	if err := catalog.DeleteSubject(ctx, subject.ID); err != nil {
		t.Fatalf("delete subject: %v", err)
	}
	if _, err := catalog.GetChapter(ctx, chapter.ID); !errors.Is(err, domain.ErrChapterNotFound) {
		t.Fatalf("expected chapter removed, got %v", err)
	}
	if _, err := catalog.GetQuestion(ctx, question.ID); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected question removed, got %v", err)
	}
	if _, err := quizzes.GetQuiz(ctx, quiz.ID); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected cached quiz invalidated, got %v", err)
	}
	if n, _ := store.CountScores(ctx, domain.ScoreFilter{UserID: user.ID}); n != 0 {
		t.Fatalf("expected scores cascaded, got %d", n)
	}
}

func TestUpcomingQuizzes(t *testing.T) {
	ctx := context.Background()
	catalog, _, _ := newCatalog()

	subject, _ := catalog.CreateSubject(ctx, app.SubjectInput{Name: "Geography"})
	chapter, _ := catalog.CreateChapter(ctx, app.ChapterInput{SubjectID: subject.ID, Name: "Rivers"})
	today := time.Now().Format("2006-01-02")
	past := time.Now().AddDate(0, 0, -3).Format("2006-01-02")
	if _, err := catalog.CreateQuiz(ctx, app.QuizInput{ChapterID: chapter.ID, Date: past, DurationMinutes: 5}); err != nil {
		t.Fatalf("create past quiz: %v", err)
	}
	todays, err := catalog.CreateQuiz(ctx, app.QuizInput{ChapterID: chapter.ID, Date: today, DurationMinutes: 5})
	if err != nil {
		t.Fatalf("create today quiz: %v", err)
	}

	upcoming, err := catalog.UpcomingQuizzes(ctx)
	if err != nil {
		t.Fatalf("upcoming: %v", err)
	}
	if len(upcoming) != 1 || upcoming[0].ID != todays.ID {
		t.Fatalf("expected only today's quiz, got %+v", upcoming)
	}
	if upcoming[0].SubjectName != "Geography" || upcoming[0].ChapterName != "Rivers" {
		t.Fatalf("expected ancestry names, got %+v", upcoming[0])
	}
}
