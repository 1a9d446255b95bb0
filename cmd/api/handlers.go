package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/xavierca1/leadflow/internal/config"
	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/cache"
	"github.com/xavierca1/leadflow/internal/infra/database"
	"github.com/xavierca1/leadflow/internal/infra/http/handlers"
	"github.com/xavierca1/leadflow/internal/infra/http/middleware"
	"github.com/xavierca1/leadflow/internal/infra/mail"
	"github.com/xavierca1/leadflow/internal/infra/memory"
	"github.com/xavierca1/leadflow/internal/infra/queue"
	"github.com/xavierca1/leadflow/internal/usecase"
)

type app struct {
	Handler http.Handler
	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// newApp wires storage, cache, messaging and the HTTP routes. Redis and
// RabbitMQ are optional; without them the user cache is skipped and lead
// events are not published.
func newApp(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*app, error) {
	a := &app{}

	// 1. Repositories
	var (
		db       *sql.DB
		leadRepo entity.LeadRepositoryInterface
		userRepo entity.UserRepositoryInterface
	)
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		var err error
		db, err = database.NewDBConnection(ctx, cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)

		if err := database.Migrate(ctx, db); err != nil {
			a.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		leadRepo = database.NewLeadRepository(db)
		userRepo = database.NewUserRepository(db)
	default:
		log.Warn("using in-memory storage; data is lost on restart")
		leadRepo = memory.NewLeadRepository()
		userRepo = memory.NewUserRepository()
	}

	health := handlers.NewHealthHandler(db, nil, nil, cfg.StorageDriver)

	// 2. User cache
	var userCache usecase.UserCache
	if cfg.RedisURL != "" {
		client, err := cache.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		userCache = cache.NewUserCache(client)
		health.Redis = client
	}

	// 3. Lead events and notification worker
	var publisher usecase.EventPublisher
	if cfg.RabbitMQURL != "" {
		rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, rabbitMQ.Close)
		publisher = queue.NewProducer(rabbitMQ.Ch)
		health.RabbitMQ = rabbitMQ

		workerCh, err := rabbitMQ.Conn.Channel()
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open worker channel: %w", err)
		}

		var notifier queue.Notifier = &mail.LogSender{Log: log}
		if cfg.Mail.Enabled() {
			notifier = mail.NewEmailSender(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.User, cfg.Mail.Password, cfg.Mail.From, cfg.AppBaseURL)
		}

		worker := queue.NewWorker(workerCh, notifier, log)
		go func() {
			if err := worker.Start(ctx, queue.QueueName); err != nil {
				log.WithError(err).Error("lead event worker stopped")
			}
		}()
	}

	// 4. Use cases
	userSvc := usecase.NewUserService(userRepo, userCache, cfg.UserCacheTTL, log)
	lifecycle := usecase.NewLeadLifecycle(
		leadRepo,
		userSvc,
		publisher,
		middleware.LifecycleMetrics{},
		log,
		usecase.LifecycleConfig{
			StrictTransitions:  cfg.LeadStrictTransitions,
			MaxNotes:           cfg.LeadMaxNotes,
			MaxActivityEntries: cfg.LeadMaxActivityEntries,
		},
	)

	// 5. Router
	router := &handlers.Router{
		Leads:       handlers.NewLeadHandler(lifecycle, log),
		Users:       handlers.NewUserHandler(userSvc, cfg.JWTSecret, cfg.JWTTTL, log),
		Health:      health,
		Auth:        middleware.NewAuthenticator(cfg.JWTSecret, userSvc, log),
		Limiter:     middleware.NewRateLimiter(ctx, cfg.RateLimitPerMinute, cfg.RateLimitBurst),
		CORSOrigins: cfg.CORSAllowedOrigins,
		RequestLog:  !cfg.IsProduction(),
	}
	a.Handler = router.Routes()

	return a, nil
}
