package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"quizmaster/internal/app"
	"quizmaster/internal/config"
	"quizmaster/internal/domain"
	"quizmaster/internal/infra/bolt"
	"quizmaster/internal/infra/memory"
	"quizmaster/internal/infra/postgres"
	infraredis "quizmaster/internal/infra/redis"
	transport "quizmaster/internal/transport/http"
)

// relationalStore is the catalog, account and score persistence behind the services.
type relationalStore interface {
	app.CatalogRepository
	app.UserRepository
	app.ScoreStore
	app.ReportRepository
}

type cachedQuizzes interface {
	app.QuizRepository
	app.QuizInvalidator
}

// newStartCmd builds the CLI subcommand to start the server.
func newStartCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), opts.cfg)
		},
	}
}

func runServer(ctx context.Context, cfg config.Config) error {

	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				log.Warn().Err(err).Msg("close resource failed")
			}
		}
	}()

	var (
		store  relationalStore
		loader memory.QuizLoader
	)
	if cfg.Postgres.URL != "" {
		db := postgres.OpenDB(cfg.Postgres.URL)
		closers = append(closers, db)
		if err := migrateDB(ctx, db); err != nil {
			return err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		closers = append(closers, closerFunc(pool.Close))
		store = postgres.NewStore(db)
		loader = postgres.NewQuizLoader(pool)
	} else {
		mem := memory.NewStore()
		if err := seedSample(ctx, mem); err != nil {
			return err
		}
		log.Warn().Msg("postgres not configured; using in-memory store with sample data")
		store, loader = mem, mem
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, redisClient)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo cachedQuizzes
	if redisClient != nil {
		quizRepo = infraredis.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	sessions, err := openSessions(cfg, redisClient, &closers)
	if err != nil {
		return err
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret = uuid.NewString()
		log.Warn().Msg("auth.jwt_secret not set; tokens will not survive a restart")
	}
	tokenTTL := config.TTLDuration(cfg.Auth.TokenTTL, 12*time.Hour)
	auth := app.NewAuthService(store, secret, tokenTTL)
	created, err := auth.EnsureAdmin(ctx, "admin", "admin")
	if err != nil {
		return err
	}
	if created {
		log.Warn().Msg("created default admin account admin/admin; change its password")
	}

	handler := transport.NewRouter(transport.Services{
		Auth:     auth,
		Attempts: app.NewAttemptService(quizRepo, store, sessions),
		Catalog:  app.NewCatalogService(store, quizRepo, quizRepo),
		Reports:  app.NewReportService(store, store, store),
	}, transport.RouterConfig{CookieName: cfg.Auth.CookieName, TokenTTL: tokenTTL})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("sessions", cfg.Session.Backend).Msg("starting quiz service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server...")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openSessions(cfg config.Config, redisClient *redis.Client, closers *[]io.Closer) (app.SessionStore, error) {
	ttl := config.TTLDuration(cfg.Session.TTL, config.TTLDuration(cfg.Redis.TTL, 2*time.Hour))
	switch cfg.Session.Backend {
	case config.SessionRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("session backend redis requires redis.addr")
		}
		return infraredis.NewSessionStore(redisClient, ttl), nil
	case config.SessionBolt:
		store, err := bolt.Open(cfg.Session.BoltPath, ttl)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, store)
		return store, nil
	case config.SessionMemory:
		return memory.NewSessionStore(), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
}

type closerFunc func()

func (f closerFunc) Close() error {
	f()
	return nil
}

// seedSample provides a small catalog for the in-memory mode; swap in Postgres for real data.
func seedSample(ctx context.Context, store *memory.Store) error {
	now := time.Now()
	subject, err := store.CreateSubject(ctx, domain.Subject{Name: "Mathematics", CreatedAt: now})
	if err != nil {
		return err
	}
	chapter, err := store.CreateChapter(ctx, domain.Chapter{SubjectID: subject.ID, Name: "Arithmetic", CreatedAt: now})
	if err != nil {
		return err
	}
	quiz, err := store.CreateQuiz(ctx, domain.Quiz{ChapterID: chapter.ID, Date: domain.Day(now), Duration: 5 * time.Minute})
	if err != nil {
		return err
	}
	questions := []domain.Question{
		{Title: "Sum", Statement: "What is 2 + 2?", Options: [4]string{"3", "4", "5", "22"}, CorrectIndex: 1},
		{Title: "Product", Statement: "What is 3 x 3?", Options: [4]string{"6", "9", "12", "33"}, CorrectIndex: 1},
		{Title: "Difference", Statement: "What is 10 - 7?", Options: [4]string{"2", "3", "4", "17"}, CorrectIndex: 1},
	}
	for _, q := range questions {
		q.QuizID = quiz.ID
		if _, err := store.CreateQuestion(ctx, q); err != nil {
			return err
		}
	}
	return nil
}
