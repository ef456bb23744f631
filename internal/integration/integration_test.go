package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun/migrate"

	"quiz-hosting-service/internal/app"
	"quiz-hosting-service/internal/domain"
	mongoinfra "quiz-hosting-service/internal/infra/mongo"
	"quiz-hosting-service/internal/infra/postgres"
	pgmigrations "quiz-hosting-service/internal/infra/postgres/migrations"
	infraredis "quiz-hosting-service/internal/infra/redis"
)

// stack is the full set of ports backed by one storage engine.
type stack interface {
	app.QuizStore
	app.AttemptStore
	app.UserStore
}

func TestPostgresAttemptLifecycle(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startContainer(t, ctx, tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}, "5432/tcp", "postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable")
	defer pgCleanup()
	redisURL, redisCleanup := startContainer(t, ctx, tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}, "6379/tcp", "redis://%s:%s")
	defer redisCleanup()

	db := postgres.Open(pgURL)
	defer db.Close()
	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisOpts, err := goredis.ParseURL(redisURL)
	if err != nil {
		t.Fatalf("redis url: %v", err)
	}
	redisClient := goredis.NewClient(redisOpts)
	defer redisClient.Close()

	store := postgres.NewStore(db)
	cache := infraredis.NewQuizRepository(redisClient, postgres.NewQuizLoader(pool), 5*time.Minute)
	exerciseLifecycle(t, ctx, store, cache)
}

func TestMongoAttemptLifecycle(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	uri, cleanup := startContainer(t, ctx, tc.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(60 * time.Second),
	}, "27017/tcp", "mongodb://%s:%s")
	defer cleanup()

	client, err := mongoinfra.Connect(ctx, uri)
	if err != nil {
		t.Fatalf("connect mongo: %v", err)
	}
	defer client.Disconnect(context.Background())

	store := mongoinfra.NewStore(client.Database("quiz_test"))
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("indexes: %v", err)
	}
	exerciseLifecycle(t, ctx, store, passthrough{store})
}

// passthrough serves quizzes straight from the store.
type passthrough struct{ loader app.QuizLoader }

func (p passthrough) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return p.loader.LoadQuiz(ctx, quizID)
}

func (p passthrough) Invalidate(context.Context, string) error { return nil }

func exerciseLifecycle(t *testing.T, ctx context.Context, store stack, cache app.QuizRepository) {
	t.Helper()

	catalog := app.NewCatalogService(store, cache, nil, nil)
	attempts := app.NewAttemptService(cache, store, store, store, app.NewBoardHub(), nil, nil, app.AttemptOptions{})

	for _, u := range []domain.User{{ID: "u1", Username: "alice", PasswordHash: "x", Role: "user"}, {ID: "u2", Username: "bob", PasswordHash: "x", Role: "user"}} {
		if err := store.CreateUser(ctx, u); err != nil {
			t.Fatalf("create user: %v", err)
		}
	}
	if err := store.CreateUser(ctx, domain.User{ID: "u3", Username: "alice", PasswordHash: "x"}); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected duplicate username rejected, got %v", err)
	}

	quiz, err := catalog.Create(ctx, domain.QuizSpec{Title: "Letters", NumberOfQuestions: 1, TotalScore: 10, Duration: 5})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	other, err := catalog.Create(ctx, domain.QuizSpec{Title: "Numbers", TotalScore: 1, Duration: 1})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	// Warm the cache before appending so invalidation is exercised.
	if _, err := catalog.Get(ctx, quiz.ID); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	quiz, err = catalog.AddQuestion(ctx, quiz.ID, domain.QuestionSpec{Text: "Pick B", Options: []string{"A", "B"}, CorrectAnswer: "B", Marks: 10})
	if err != nil {
		t.Fatalf("add question: %v", err)
	}
	if _, err := catalog.AddQuestion(ctx, "00000000-0000-0000-0000-000000000000", domain.QuestionSpec{Text: "Q", Options: []string{"A"}, Marks: 1}); !domain.IsNotFound(err) {
		t.Fatalf("expected not found on unknown quiz, got %v", err)
	}
	qid := quiz.Questions[0].ID

	sheet, err := catalog.Questions(ctx, quiz.ID)
	if err != nil || len(sheet.Questions) != 1 {
		t.Fatalf("expected fresh question sheet, got %+v err=%v", sheet, err)
	}

	if _, err := attempts.ListParticipants(ctx, quiz.ID); !errors.Is(err, domain.ErrNoParticipants) {
		t.Fatalf("expected no participants, got %v", err)
	}

	// Concurrent starts collapse onto one attempt.
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := attempts.Start(ctx, quiz.ID, "u1"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent start: %v", err)
	}

	card, err := attempts.Submit(ctx, quiz.ID, "u2", []domain.Response{{QuestionID: qid, SelectedOption: "B"}})
	if err != nil || card.Total != 10 {
		t.Fatalf("submit: card=%+v err=%v", card, err)
	}
	card, err = attempts.Submit(ctx, quiz.ID, "u2", []domain.Response{{QuestionID: qid, SelectedOption: "A"}})
	if err != nil || card.Total != 0 {
		t.Fatalf("resubmit: card=%+v err=%v", card, err)
	}

	own, err := attempts.GetOwnResult(ctx, quiz.ID, "u2")
	if err != nil {
		t.Fatalf("own result: %v", err)
	}
	if own.Status != domain.StatusCompleted || own.Score != 0 || len(own.Responses) != 1 || own.Responses[0].SelectedOption != "A" {
		t.Fatalf("expected last write to win, got %+v", own)
	}

	participants, err := attempts.ListParticipants(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("participants: %v", err)
	}
	if len(participants) != 2 {
		t.Fatalf("expected 2 participants, got %+v", participants)
	}
	names := map[string]string{}
	for _, p := range participants {
		names[p.UserID] = p.Username
	}
	if names["u1"] != "alice" || names["u2"] != "bob" {
		t.Fatalf("unexpected usernames: %+v", names)
	}

	mine, err := attempts.MyQuizzes(ctx, "u2")
	if err != nil {
		t.Fatalf("my quizzes: %v", err)
	}
	status := map[string]domain.AttemptStatus{}
	for _, q := range mine {
		status[q.ID] = q.Status
	}
	if status[quiz.ID] != domain.StatusCompleted || status[other.ID] != domain.StatusNotStarted {
		t.Fatalf("unexpected my quizzes: %+v", mine)
	}
}

func startContainer(t *testing.T, ctx context.Context, req tc.ContainerRequest, port, urlFormat string) (string, func()) {
	t.Helper()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start %s: %v", req.Image, err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	mapped, err := container.MappedPort(ctx, nat.Port(port))
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	return fmt.Sprintf(urlFormat, host, mapped.Port()), func() {
		_ = container.Terminate(ctx)
	}
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
