package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun/migrate"

	"quizmaster/internal/app"
	"quizmaster/internal/domain"
	"quizmaster/internal/infra/postgres"
	pgmigrations "quizmaster/internal/infra/postgres/migrations"
	infraredis "quizmaster/internal/infra/redis"
)

func TestSubmitAttemptEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := postgres.OpenDB(pgURL)
	defer db.Close()
	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store := postgres.NewStore(db)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	quizRepo := infraredis.NewQuizRepository(redisClient, postgres.NewQuizLoader(pool), 5*time.Minute)
	sessions := infraredis.NewSessionStore(redisClient, 5*time.Minute)

	auth := app.NewAuthService(store, "integration", time.Hour)
	catalog := app.NewCatalogService(store, quizRepo, quizRepo)
	attempts := app.NewAttemptService(quizRepo, store, sessions)
	reports := app.NewReportService(store, store, store)

	user, err := auth.Register(ctx, app.RegisterInput{Username: "alice", Password: "pw", ConfirmPassword: "pw", Name: "Alice"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := auth.Register(ctx, app.RegisterInput{Username: "alice", Password: "pw", ConfirmPassword: "pw", Name: "Again"}); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected unique username, got %v", err)
	}

	quizID := seedQuiz(t, ctx, catalog)

	sid := "session-1"
	if _, err := attempts.Begin(ctx, sid, quizID); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := attempts.AnswerAndAdvance(ctx, sid, quizID, 0, "A", nil); err != nil {
		t.Fatalf("answer q1: %v", err)
	}
	if _, err := attempts.AnswerAndAdvance(ctx, sid, quizID, 1, "X", nil); err != nil {
		t.Fatalf("answer q2: %v", err)
	}
	final := "C"
	res, err := attempts.Submit(ctx, sid, user.ID, quizID, &final)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Score != 2 || res.Total != 3 || res.Attempt != 1 {
		t.Fatalf("unexpected result %+v", res)
	}

	second, err := attempts.Submit(ctx, sid, user.ID, quizID, nil)
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if second.Score != 0 || second.Attempt != 2 {
		t.Fatalf("expected empty second attempt numbered 2, got %+v", second)
	}

	history, err := reports.History(ctx, user.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 || history[0].Attempt != 2 || history[1].Attempt != 1 || history[0].SubjectName != "Letters" {
		t.Fatalf("unexpected history %+v", history)
	}

	summary, err := reports.UserSummary(ctx, user.ID)
	if err != nil {
		t.Fatalf("user summary: %v", err)
	}
	month := time.Now().Format("2006-01")
	if len(summary.MonthlyAttempts) != 1 || summary.MonthlyAttempts[0].Month != month || summary.MonthlyAttempts[0].Attempts != 2 {
		t.Fatalf("unexpected monthly counts %+v", summary.MonthlyAttempts)
	}
	admin, err := reports.AdminSummary(ctx)
	if err != nil {
		t.Fatalf("admin summary: %v", err)
	}
	if len(admin.SubjectMaxScores) != 1 || admin.SubjectMaxScores[0].MaxScore != 2 {
		t.Fatalf("unexpected max scores %+v", admin.SubjectMaxScores)
	}

	// Deleting the subject cascades down to the scores and drops the cached quiz.
	summaryQuiz, _ := store.GetQuizSummary(ctx, quizID)
	if err := catalog.DeleteSubject(ctx, summaryQuiz.SubjectID); err != nil {
		t.Fatalf("delete subject: %v", err)
	}
	if _, err := quizRepo.GetQuiz(ctx, quizID); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz gone after cascade, got %v", err)
	}
	n, err := store.CountScores(ctx, domain.ScoreFilter{UserID: user.ID})
	if err != nil || n != 0 {
		t.Fatalf("expected scores cascaded, n=%d err=%v", n, err)
	}
}

// seedQuiz creates a three-question quiz whose correct options are "A", "B" and "C".
func seedQuiz(t *testing.T, ctx context.Context, catalog *app.CatalogService) int64 {
	t.Helper()
	subject, err := catalog.CreateSubject(ctx, app.SubjectInput{Name: "Letters"})
	if err != nil {
		t.Fatalf("create subject: %v", err)
	}
	chapter, err := catalog.CreateChapter(ctx, app.ChapterInput{SubjectID: subject.ID, Name: "Alphabet"})
	if err != nil {
		t.Fatalf("create chapter: %v", err)
	}
	quiz, err := catalog.CreateQuiz(ctx, app.QuizInput{
		ChapterID:       chapter.ID,
		Date:            time.Now().Format("2006-01-02"),
		DurationMinutes: 5,
	})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	for i := 0; i < 3; i++ {
		correct := i
		if _, err := catalog.CreateQuestion(ctx, app.QuestionInput{
			QuizID:       quiz.ID,
			Title:        fmt.Sprintf("Q%d", i+1),
			Statement:    "Pick the letter",
			Options:      [4]string{"A", "B", "C", "D"},
			CorrectIndex: &correct,
		}); err != nil {
			t.Fatalf("create question: %v", err)
		}
	}
	return quiz.ID
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
