package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quizroom-service/internal/app"
	"quizroom-service/internal/config"
	"quizroom-service/internal/domain"
	"quizroom-service/internal/infra/memory"
	pgloader "quizroom-service/internal/infra/postgres"
	redisinfra "quizroom-service/internal/infra/redis"
	transport "quizroom-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz room server",
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
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	// Test bank priority: postgres > JSON directory > built-in sample.
	var loader memory.TestLoader = memory.NewStaticTestLoader(sampleTests())
	if cfg.Tests.Dir != "" {
		loader = memory.NewDirTestLoader(cfg.Tests.Dir)
	}
	if pool != nil {
		loader = pgloader.NewTestLoader(pool)
	}

	testTTL := config.TTLDuration(cfg.Tests.TTL, 10*time.Minute)
	var tests app.TestRepository
	if redisClient != nil {
		tests = redisinfra.NewTestRepository(redisClient, loader, testTTL)
	} else {
		tests = memory.NewTestRepository(loader, testTTL)
	}

	var rooms app.RoomRegistry
	if redisClient != nil {
		rooms = redisinfra.NewRoomRegistry(redisClient, redisTTL)
	} else {
		rooms = memory.NewRoomRegistry()
	}

	bus := app.NewDispatcher()
	service := app.NewRoomService(rooms, tests, bus)
	wsHandler := transport.NewWSHandler(service, bus)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz room service on :%s", finalPort)
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

// sampleTests seeds a minimal bank so the server is usable with no backing
// store configured.
func sampleTests() map[string]domain.Test {
	return map[string]domain.Test{
		"general-1": {
			Metadata: domain.TestMetadata{
				ID:       "general-1",
				Name:     "General Knowledge Warmup",
				Category: "General",
			},
			Questions: []domain.Question{
				{
					Question: "What is the capital of France?",
					Choices: map[string]string{
						"A": "Lyon",
						"B": "Paris",
						"C": "Marseille",
						"D": "Nice",
					},
					Answer:      "B",
					Explanation: "Paris has been the capital since the 10th century.",
				},
				{
					Question: "Which planet is known as the Red Planet?",
					Choices: map[string]string{
						"A": "Venus",
						"B": "Jupiter",
						"C": "Mars",
						"D": "Saturn",
					},
					Answer: "C",
				},
			},
		},
	}
}
