package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quiz-hosting-service/internal/app"
	"quiz-hosting-service/internal/auth"
	"quiz-hosting-service/internal/config"
	amqpinfra "quiz-hosting-service/internal/infra/amqp"
	"quiz-hosting-service/internal/infra/memory"
	mongoinfra "quiz-hosting-service/internal/infra/mongo"
	"quiz-hosting-service/internal/infra/postgres"
	redisinfra "quiz-hosting-service/internal/infra/redis"
	"quiz-hosting-service/internal/logger"
	"quiz-hosting-service/internal/metrics"
	transport "quiz-hosting-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// stores groups the persistence ports for one storage driver.
type stores struct {
	quizzes  app.QuizStore
	loader   app.QuizLoader
	attempts app.AttemptStore
	users    app.UserStore
	closers  []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logger.New(cfg.Log.Level, cfg.Log.File)
	defer log.Sync()

	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		if cfg.Server.Mode != "debug" {
			return fmt.Errorf("auth.jwt_secret (or JWT_SECRET) is required outside debug mode")
		}
		secret = "debug-only-secret"
		log.Warn("using built-in JWT secret in debug mode")
	}

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "5000"
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	window := config.TTLDuration(cfg.RateLimit.Window, time.Second)

	var (
		quizRepo app.QuizRepository
		limiter  transport.Limiter
	)
	if cfg.Redis.Addr != "" {
		redisClient := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		quizRepo = redisinfra.NewQuizRepository(redisClient, st.loader, quizTTL)
		limiter = redisinfra.NewLimiter(redisClient, cfg.RateLimit.Requests, window)
	} else {
		quizRepo = memory.NewQuizRepository(st.loader, quizTTL)
		memLimiter := memory.NewLimiter(cfg.RateLimit.Requests, window)
		sweepCtx, stopSweep := context.WithCancel(ctx)
		defer stopSweep()
		go memLimiter.Run(sweepCtx)
		limiter = memLimiter
	}
	if cfg.RateLimit.Requests <= 0 {
		limiter = nil
	}

	var events app.EventPublisher = app.NopPublisher{}
	if cfg.AMQP.URL != "" {
		publisher, err := amqpinfra.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			return fmt.Errorf("connect amqp: %w", err)
		}
		defer publisher.Close()
		events = publisher
	} else {
		log.Info("amqp not configured, domain events will not be published")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := metrics.Register(registry); err != nil {
		return err
	}

	catalog := app.NewCatalogService(st.quizzes, quizRepo, events, log.Named("catalog"))
	catalog.StrictAuthoring = cfg.Quiz.StrictAuthoring
	attempts := app.NewAttemptService(quizRepo, st.quizzes, st.attempts, st.users, app.NewBoardHub(), events, log.Named("attempts"), app.AttemptOptions{
		StrictScoring:       cfg.Attempts.StrictScoring,
		EnforceDeadline:     cfg.Attempts.EnforceDeadline,
		EmptyParticipantsOK: cfg.Attempts.EmptyParticipantsOK,
	})
	tokenTTL := config.TTLDuration(cfg.Auth.TokenTTL, 60*time.Minute)
	authService := app.NewAuthService(st.users, auth.NewTokenManager(secret, tokenTTL), log.Named("auth"))

	router := transport.NewRouter(transport.Dependencies{
		Catalog:        catalog,
		Attempts:       attempts,
		Auth:           authService,
		Limiter:        limiter,
		Metrics:        promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Log:            log.Named("http"),
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting quiz service", zap.String("port", finalPort), zap.String("storage", cfg.Storage.Driver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server...")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openStores(ctx context.Context, cfg config.Config, log *zap.Logger) (*stores, error) {
	switch cfg.Storage.Driver {
	case "", "memory":
		quizzes := memory.NewQuizStore()
		return &stores{
			quizzes:  quizzes,
			loader:   quizzes,
			attempts: memory.NewAttemptStore(),
			users:    memory.NewUserStore(),
		}, nil

	case "postgres":
		if cfg.Postgres.URL == "" {
			return nil, fmt.Errorf("postgres url not configured")
		}
		db := postgres.Open(cfg.Postgres.URL)
		if err := migrateDB(ctx, db, log); err != nil {
			db.Close()
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			db.Close()
			return nil, err
		}
		store := postgres.NewStore(db)
		return &stores{
			quizzes:  store,
			loader:   postgres.NewQuizLoader(pool),
			attempts: store,
			users:    store,
			closers:  []func(){func() { _ = db.Close() }, pool.Close},
		}, nil

	case "mongo":
		if cfg.Mongo.URI == "" {
			return nil, fmt.Errorf("mongo uri not configured")
		}
		client, err := mongoinfra.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, err
		}
		store := mongoinfra.NewStore(client.Database(cfg.Mongo.Database))
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return &stores{
			quizzes:  store,
			loader:   store,
			attempts: store,
			users:    store,
			closers:  []func(){func() { _ = client.Disconnect(context.Background()) }},
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
