package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"streak-service/internal/config"
	"streak-service/internal/domain/repository"
	"streak-service/internal/domain/service"
	"streak-service/internal/domain/streak"
	"streak-service/internal/identity"
	cronpkg "streak-service/internal/infrastructure/cron"
	infradb "streak-service/internal/infrastructure/db"
	"streak-service/internal/infrastructure/kafka"
	"streak-service/internal/infrastructure/memory"
	"streak-service/internal/infrastructure/postgres"
	"streak-service/internal/infrastructure/redis"
	"streak-service/internal/infrastructure/smtp"
	"streak-service/internal/infrastructure/sqlite"
	"streak-service/internal/logger"
	appservice "streak-service/internal/service"
	"streak-service/internal/transport/grpc"
	httptransport "streak-service/internal/transport/http"
	"streak-service/pkg/jwt"
)

const (
	accessTokenTTL  = 15 * time.Minute
	shutdownTimeout = 10 * time.Second
)

// App represents the application
type App struct {
	config *config.Config

	coordinator service.CompletionCoordinator
	ingestion   *appservice.Ingestion
	dispatcher  *appservice.NotificationService

	reminders *cronpkg.ReminderScheduler
	sweeper   *cronpkg.DedupSweeper
	consumers []*kafka.Consumer

	grpcServer *grpc.Server
	httpServer *httptransport.Server

	// run in reverse order on Close
	closers []func()
}

// New creates a new application from cfg
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{config: cfg}

	if err := a.init(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.config

	repo, err := a.newRepository(ctx)
	if err != nil {
		return err
	}

	engine := streak.New(streak.Config{
		MilestoneInterval: cfg.Streak.MilestoneInterval,
		GapResetDays:      cfg.Streak.GapResetDays,
		WindowDays:        cfg.Streak.WindowDays,
	})
	store := appservice.NewHabitStore(repo, engine, nil,
		appservice.WithCacheSize(cfg.Storage.CacheSize),
		appservice.WithCacheTTL(cfg.Storage.CacheTTL),
	)

	dedup, err := a.newDedupStore(ctx)
	if err != nil {
		return err
	}

	channels, err := a.newChannels()
	if err != nil {
		return err
	}

	a.dispatcher = appservice.NewNotificationService(dedup, channels, appservice.DispatcherConfig{
		SuppressionWindow: cfg.Notifications.SuppressionWindow,
		QueueSize:         cfg.Notifications.QueueSize,
		Workers:           cfg.Notifications.Workers,
	})
	a.closers = append(a.closers, a.dispatcher.Close)

	a.coordinator = appservice.NewCompletionService(store, engine, a.dispatcher, nil)
	logger.Info("services initialized")

	provider, err := a.newIdentityProvider(ctx)
	if err != nil {
		return err
	}
	a.ingestion = appservice.NewIngestion(a.coordinator, provider, nil)

	// kept as an interface so a disabled scheduler stays a nil interface
	var reminders grpc.ReminderScheduler
	if cfg.Reminders.Enabled {
		a.reminders = cronpkg.NewReminderScheduler(a.ingestion)
		for _, s := range cfg.Reminders.Schedules {
			err := a.reminders.Schedule(cronpkg.Reminder{
				HabitID:             s.HabitID,
				UserID:              s.UserID,
				Title:               s.Title,
				At:                  s.At,
				Frequency:           cronpkg.Frequency(s.Frequency),
				Weekday:             time.Weekday(s.Weekday),
				DayOfMonth:          s.DayOfMonth,
				TimezoneOffsetHours: s.TimezoneOffsetHours,
			})
			if err != nil {
				return fmt.Errorf("invalid reminder for habit %s: %w", s.HabitID, err)
			}
		}
		reminders = a.reminders
	}

	if cfg.Kafka.Enabled {
		a.consumers = []*kafka.Consumer{
			kafka.NewConsumer(&cfg.Kafka, kafka.CompletionTopic, a.ingestion),
			kafka.NewConsumer(&cfg.Kafka, kafka.ReminderTopic, a.ingestion),
		}
		logger.Info("kafka consumers initialized", "brokers", cfg.Kafka.Brokers)
	}

	if cfg.GRPC.Enabled {
		handler := grpc.NewStreakServiceHandler(a.coordinator, provider, reminders)
		a.grpcServer = grpc.NewServer(handler, cfg.GRPC.Port, cfg.Identity.TrustUserHeader)
	}

	if cfg.HTTP.Enabled {
		router := httptransport.NewRouter(httptransport.NewHandler(a.coordinator, reminders), provider, httptransport.RouterOptions{
			RequestsPerMinute: cfg.HTTP.RateLimitPerMinute,
			TrustUserHeader:   cfg.Identity.TrustUserHeader,
		})
		a.httpServer = httptransport.NewServer(router, cfg.HTTP.Port, cfg.HTTP.ReadHeaderTimeout)
	}

	return nil
}

func (a *App) newRepository(ctx context.Context) (repository.HabitRepository, error) {
	cfg := a.config

	switch cfg.Storage.Driver {
	case "postgres":
		pool, err := infradb.NewPostgresPool(ctx, &cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		a.closers = append(a.closers, pool.Close)

		if err := infradb.MigratePostgres(ctx, pool); err != nil {
			return nil, err
		}
		logger.Info("connected to PostgreSQL", "host", cfg.Database.Host, "database", cfg.Database.Database)
		return postgres.NewHabitRepository(pool), nil

	case "sqlite":
		db, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite: %w", err)
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		logger.Info("opened SQLite database", "path", cfg.SQLite.Path)
		return sqlite.NewHabitRepository(db), nil

	default:
		logger.Warn("using in-memory storage, habits are lost on restart")
		return memory.NewHabitRepository(), nil
	}
}

func (a *App) newDedupStore(ctx context.Context) (repository.DedupStore, error) {
	cfg := a.config

	if cfg.Notifications.DedupBackend == "redis" {
		client, err := redis.NewClient(ctx, &cfg.Redis, cfg.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		logger.Info("connected to Redis", "addr", cfg.Redis.Addr)
		return redis.NewDedupStore(client), nil
	}

	store := memory.NewDedupStore()
	a.sweeper = cronpkg.NewDedupSweeper(store, cfg.Reminders.SweepInterval)
	return store, nil
}

func (a *App) newChannels() ([]service.NotificationChannel, error) {
	cfg := a.config
	channels := []service.NotificationChannel{appservice.LogChannel{}}

	if cfg.SMTP.Enabled {
		client, err := smtp.NewClient(&cfg.SMTP)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SMTP client: %w", err)
		}
		channels = append(channels, client)
		logger.Info("SMTP channel enabled", "host", cfg.SMTP.Host)
	}

	if cfg.Kafka.Enabled {
		publisher := kafka.NewPublisher(&cfg.Kafka)
		a.closers = append(a.closers, func() { _ = publisher.Close() })
		channels = append(channels, publisher)
		logger.Info("Kafka notification channel enabled", "topic", cfg.Kafka.NotificationTopic)
	}

	return channels, nil
}

func (a *App) newIdentityProvider(ctx context.Context) (service.IdentityProvider, error) {
	cfg := a.config

	var sessions identity.SessionChecker
	if cfg.Identity.RequireSession && cfg.Redis.Enabled {
		client, err := redis.NewClient(ctx, &cfg.Redis, cfg.Redis.SessionDB)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to session Redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		sessions = redis.NewSessionChecker(client)
	}

	tokens := jwt.NewTokenManager(cfg.Identity.JWTSecret, accessTokenTTL, cfg.Identity.Issuer)
	// a verified token wins over a user id placed on the context
	return identity.Chain(
		identity.NewTokenProvider(tokens, sessions),
		identity.ContextProvider{},
	), nil
}

// Coordinator returns the completion coordinator
func (a *App) Coordinator() service.CompletionCoordinator {
	return a.coordinator
}

// Ingestion returns the trigger ingestion entry point
func (a *App) Ingestion() *appservice.Ingestion {
	return a.ingestion
}

// Run starts the background workers and servers and blocks until ctx is
// cancelled, a signal arrives or a server fails
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.sweeper != nil {
		if err := a.sweeper.Start(); err != nil {
			return fmt.Errorf("failed to start dedup sweeper: %w", err)
		}
	}
	if a.reminders != nil {
		a.reminders.Start()
	}

	g, ctx := errgroup.WithContext(ctx)

	for _, c := range a.consumers {
		g.Go(func() error {
			return c.Start(ctx)
		})
	}
	if a.grpcServer != nil {
		g.Go(a.grpcServer.Start)
	}
	if a.httpServer != nil {
		g.Go(a.httpServer.Start)
	}

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		a.shutdown()
		return nil
	})

	logger.Info("service started",
		"service", a.config.Service.Name,
		"grpc_port", a.config.GRPC.Port,
		"http_port", a.config.HTTP.Port,
		"storage", a.config.Storage.Driver,
	)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		a.Close()
		return err
	}

	a.Close()
	logger.Info("shutdown complete")
	return nil
}

// shutdown stops the inbound surfaces so no new work arrives
func (a *App) shutdown() {
	if a.grpcServer != nil {
		a.grpcServer.Stop()
	}

	if a.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.httpServer.Stop(ctx); err != nil {
			logger.Error("failed to stop HTTP server", "error", err)
		}
	}

	if a.reminders != nil {
		a.reminders.Stop()
	}
	if a.sweeper != nil {
		a.sweeper.Stop()
	}
}

// Close drains pending notifications and releases storage and connections
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
