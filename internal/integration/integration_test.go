package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"quizroom-service/internal/app"
	"quizroom-service/internal/domain"
	pgloader "quizroom-service/internal/infra/postgres"
	pgmigrations "quizroom-service/internal/infra/postgres/migrations"
	infraredis "quizroom-service/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestRoomLifecycleEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedTest(t, ctx, pgURL, sampleTest())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := pgloader.NewTestLoader(pool)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	tests := infraredis.NewTestRepository(redisClient, loader, 5*time.Minute)
	rooms := infraredis.NewRoomRegistry(redisClient, 5*time.Minute)
	bus := app.NewDispatcher()
	service := app.NewRoomService(rooms, tests, bus)

	hostCh, hostDetach := bus.Attach("host-1")
	defer hostDetach()
	playerCh, playerDetach := bus.Attach("p1")
	defer playerDetach()

	if err := service.HostRoom(ctx, "host-1", "quiz-1"); err != nil {
		t.Fatalf("host room: %v", err)
	}
	created := (<-hostCh).Payload.(domain.RoomCreated)

	if err := service.JoinRoom("p1", created.RoomCode, "Alice"); err != nil {
		t.Fatalf("join: %v", err)
	}
	<-playerCh // room-joined
	<-playerCh // player-joined
	<-hostCh   // player-joined

	if err := service.StartGame("host-1", created.RoomCode); err != nil {
		t.Fatalf("start: %v", err)
	}
	question := (<-playerCh).Payload.(domain.QuestionStarted)
	if question.Question.Question != "What is 2 + 2?" {
		t.Fatalf("postgres-backed test lost its prompt: %+v", question.Question)
	}
	<-hostCh // question-started

	if err := service.SubmitAnswer("p1", created.RoomCode, "B"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	receipt := (<-playerCh).Payload.(domain.AnswerReceived)
	if !receipt.Correct || receipt.Points <= 0 {
		t.Fatalf("expected positive score for correct answer, got %+v", receipt)
	}

	if err := service.AdvanceQuestion("host-1", created.RoomCode); err != nil {
		t.Fatalf("advance: %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
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

func seedTest(t *testing.T, ctx context.Context, dsn string, test domain.Test) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	data, err := json.Marshal(test)
	if err != nil {
		t.Fatalf("marshal test: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO tests (id, data) VALUES (? , ?::jsonb) ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`, test.Metadata.ID, string(data)); err != nil {
		t.Fatalf("insert test: %v", err)
	}
}

func sampleTest() domain.Test {
	return domain.Test{
		Metadata: domain.TestMetadata{ID: "quiz-1", Name: "Arithmetic"},
		Questions: []domain.Question{
			{
				Question: "What is 2 + 2?",
				Choices:  map[string]string{"A": "3", "B": "4", "C": "5"},
				Answer:   "B",
			},
		},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
