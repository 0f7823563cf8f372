package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/config"
	"classroom-quiz-service/internal/domain"
	"classroom-quiz-service/internal/infra/memory"
	"classroom-quiz-service/internal/infra/postgres"
	infraredis "classroom-quiz-service/internal/infra/redis"
	transport "classroom-quiz-service/internal/transport/http"
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the quiz scoring server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var (
		quizSource app.QuizRepository
		store      app.AttemptStore
		roster     app.ClassroomRoster
	)
	if pool != nil {
		pgStore := postgres.NewStore(pool)
		quizSource = pgStore
		store = pgStore
		roster = pgStore
	} else {
		log.Printf("postgres not configured, serving demo data from memory")
		memStore := memory.NewStore(sampleQuizzes())
		quizSource = memStore
		store = memStore
		roster = memory.NewRoster(sampleRoster())
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizzes app.QuizRepository
	if redisClient != nil {
		quizzes = infraredis.NewQuizCache(redisClient, quizSource, quizTTL)
	} else {
		quizzes = memory.NewQuizCache(quizSource, quizTTL)
	}

	lockTTL := config.TTLDuration(cfg.SubmitLock.TTL, 30*time.Second)
	var guard app.SubmitGuard
	if redisClient != nil {
		guard = infraredis.NewSubmitGuard(redisClient, lockTTL)
	} else {
		guard = memory.NewSubmitGuard()
	}

	feed := app.NewResultsFeed()
	service := app.NewAttemptService(quizzes, store, roster, guard, feed)
	handler := transport.NewHandler(service)
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	handler.Register(mux)
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz scoring service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuizzes provides minimal demo content for running without Postgres.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:          "quiz-1",
			ClassroomID: "class-1",
			Title:       "Geography check-in",
			Questions: []domain.Question{
				{
					ID:     "q1",
					Prompt: "What is the capital of France?",
					Type:   domain.MultipleChoice,
					Points: 10,
					Options: []domain.Option{
						{ID: "o1", Text: "Lyon", Correct: false},
						{ID: "o2", Text: "Paris", Correct: true},
						{ID: "o3", Text: "Marseille", Correct: false},
					},
				},
				{
					ID:     "q2",
					Prompt: "Name the longest river in Europe.",
					Type:   domain.ShortAnswer,
					Points: 5,
					Options: []domain.Option{
						{ID: "o4", Text: "Volga", Correct: true},
					},
				},
			},
		},
	}
}

func sampleRoster() map[string][]string {
	return map[string][]string{
		"class-1": {"teacher-1"},
	}
}
