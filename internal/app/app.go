// Package app wires the book review service together.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"golang.org/x/sync/errgroup"

	"github.com/utafrali/BookReviewGo/internal/auth"
	"github.com/utafrali/BookReviewGo/internal/catalog"
	"github.com/utafrali/BookReviewGo/internal/config"
	"github.com/utafrali/BookReviewGo/internal/event"
	handler "github.com/utafrali/BookReviewGo/internal/handler/http"
	"github.com/utafrali/BookReviewGo/internal/repository"
	"github.com/utafrali/BookReviewGo/internal/repository/memory"
	"github.com/utafrali/BookReviewGo/internal/repository/postgres"
	redisrepo "github.com/utafrali/BookReviewGo/internal/repository/redis"
	"github.com/utafrali/BookReviewGo/internal/service"
	"github.com/utafrali/BookReviewGo/migrations"
	"github.com/utafrali/BookReviewGo/pkg/database"
	"github.com/utafrali/BookReviewGo/pkg/health"
	"github.com/utafrali/BookReviewGo/pkg/httpclient"
	pkgkafka "github.com/utafrali/BookReviewGo/pkg/kafka"
	"github.com/utafrali/BookReviewGo/pkg/tracing"
)

// ServiceName labels logs, metrics and traces.
const ServiceName = "bookreview"

// App wires together all dependencies and runs the book review service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	dlq            *pkgkafka.DLQProducer
	consumers      []*pkgkafka.Consumer
	reviews        *service.ReviewService
	favorites      *service.FavoriteService
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

type stores struct {
	reviews   repository.ReviewRepository
	favorites repository.FavoriteRepository
	profiles  repository.ProfileRepository
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.closeResources()
		}
	}()

	// Initialize OpenTelemetry tracing.
	tracingCfg := cfg.Tracing
	if tracingCfg.ServiceName == "" {
		tracingCfg.ServiceName = ServiceName
	}
	a.tracerShutdown, err = tracing.InitTracer(ctx, tracingCfg)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	healthHandler := health.NewHandler(cfg.InstanceID)

	st, err := a.openStores(ctx, healthHandler)
	if err != nil {
		return nil, err
	}

	// Change events between instances.
	var (
		reviewEvents   service.ReviewEvents
		favoriteEvents service.FavoriteEvents
	)
	if cfg.EventsEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		eventProducer := event.NewProducer(a.producer, cfg.InstanceID, logger)
		reviewEvents, favoriteEvents = eventProducer, eventProducer
		healthHandler.RegisterOptional("kafka", func(ctx context.Context) error {
			return pkgkafka.PingBrokers(ctx, cfg.KafkaBrokers)
		})
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Build the dependency graph.
	a.reviews = service.NewReviewService(st.reviews, st.profiles, reviewEvents, logger)
	a.favorites = service.NewFavoriteService(st.favorites, favoriteEvents, logger)
	profiles := service.NewProfileService(st.profiles, logger)

	if cfg.EventsEnabled {
		a.startConsumers()
	}

	// Books catalog behind retries and a circuit breaker.
	breaker := httpclient.NewCircuitBreakerClient(
		httpclient.New(cfg.HTTPClient),
		httpclient.DefaultCircuitBreakerConfig("books-catalog"),
		logger,
	)
	catalogClient := catalog.NewClient(breaker, cfg.Catalog, logger)
	healthHandler.RegisterOptional("catalog", catalogClient.Ping)

	// HTTP router.
	tokens := auth.NewTokenValidator(cfg.JWT)
	router := handler.NewRouter(
		handler.RouterConfig{
			ServiceName:       ServiceName,
			CORS:              cfg.CORS,
			RateLimit:         cfg.RateLimit,
			ValidateToken:     tokens.Middleware(),
			PprofEnabled:      cfg.PprofEnabled,
			PprofAllowedCIDRs: cfg.PprofAllowedCIDRs,
		},
		handler.Services{
			Reviews:   a.reviews,
			Favorites: a.favorites,
			Profiles:  profiles,
			Catalog:   catalogClient,
		},
		healthHandler,
		logger,
	)

	// Event streams stay open, so there is no write timeout.
	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

func (a *App) openStores(ctx context.Context, healthHandler *health.Handler) (*stores, error) {
	cfg, logger := a.cfg, a.logger

	if cfg.StoreBackend == config.StoreMemory {
		logger.Warn("using in-memory stores, data is lost on restart")
		return &stores{
			reviews:   memory.NewReviewRepository(),
			favorites: memory.NewFavoriteRepository(),
			profiles:  memory.NewProfileRepository(),
		}, nil
	}

	// Initialize PostgreSQL connection pool.
	pgCfg := cfg.PostgresConfig()
	pool, err := database.OpenPostgres(ctx, pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(pool, ServiceName)

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	}

	// Initialize Redis client.
	rdb, err := database.OpenRedis(ctx, cfg.RedisConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.rdb = rdb
	logger.Info("connected to Redis",
		slog.String("addr", cfg.RedisConfig().Addr()),
		slog.Int("db", cfg.RedisDB),
	)

	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})

	return &stores{
		reviews:   postgres.NewReviewRepository(pool),
		favorites: redisrepo.NewFavoriteRepository(rdb),
		profiles:  postgres.NewProfileRepository(pool),
	}, nil
}

// startConsumers subscribes this instance to the change topics. Each
// instance has its own consumer group so every instance sees every event.
func (a *App) startConsumers() {
	cfg, logger := a.cfg, a.logger

	a.dlq = pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)
	store := pkgkafka.NewRedisIdempotencyStore(a.rdb, "bookreview:events:"+cfg.InstanceID+":", cfg.IdempotencyTTL)
	eventConsumer := event.NewConsumer(notifier{a.reviews, a.favorites}, cfg.InstanceID, logger)
	handle := pkgkafka.IdempotentHandler(store, eventConsumer.Handle, logger)

	for _, topic := range []string{event.TopicReviewChanged, event.TopicFavoriteChanged} {
		c := pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
			Brokers:     cfg.KafkaBrokers,
			GroupID:     fmt.Sprintf("%s-%s", ServiceName, cfg.InstanceID),
			Topic:       topic,
			MinBytes:    1,
			MaxBytes:    10e6,
			StartOffset: kafka.LastOffset,
		}, handle, logger).WithDLQ(a.dlq)
		a.consumers = append(a.consumers, c)
	}
}

// Handler returns the HTTP handler.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and Kafka consumers, then blocks until the
// context is canceled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	for _, c := range a.consumers {
		g.Go(func() error {
			if err := c.Start(gctx); err != nil {
				return fmt.Errorf("change event consumer: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			a.logger.Info("shutdown signal received")
		}
		return a.Shutdown()
	})

	return g.Wait()
}

// Shutdown gracefully stops all components in order:
// 1. live subscriptions, so open streams return
// 2. HTTP server
// 3. tracer
// 4. Kafka consumers and producers
// 5. PostgreSQL and Redis
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	a.reviews.Close()
	a.favorites.Close()

	httpCtx, httpCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	errs = append(errs, a.closeResources()...)

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

func (a *App) closeResources() []error {
	var errs []error
	for _, c := range a.consumers {
		if err := c.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.dlq != nil {
		if err := a.dlq.Close(); err != nil {
			a.logger.Error("kafka dlq close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	return errs
}

// notifier forwards remote change events to the local feeds.
type notifier struct {
	reviews   *service.ReviewService
	favorites *service.FavoriteService
}

func (n notifier) NotifyBook(ctx context.Context, bookID string) {
	n.reviews.NotifyBook(ctx, bookID)
}

func (n notifier) NotifyFavorites(ctx context.Context, userID string) {
	n.favorites.NotifyFavorites(ctx, userID)
}
