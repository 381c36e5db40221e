// Package entitlementengine собирает HTTP-сервер движка прав:
// хранилище, кеш, брокер сообщений, сервисы и маршруты.
package entitlementengine

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"

	"github.com/eventlens/entitlement-engine/internal/cache"
	"github.com/eventlens/entitlement-engine/internal/config"
	"github.com/eventlens/entitlement-engine/internal/lib/jwt"
	"github.com/eventlens/entitlement-engine/internal/lib/rabbitmq"
	"github.com/eventlens/entitlement-engine/internal/lib/sl"
	"github.com/eventlens/entitlement-engine/internal/metrics"
	"github.com/eventlens/entitlement-engine/internal/migrations"
	"github.com/eventlens/entitlement-engine/internal/session"
	authservice "github.com/eventlens/entitlement-engine/internal/services/auth"
	entitlementservice "github.com/eventlens/entitlement-engine/internal/services/entitlement"
	maintenanceservice "github.com/eventlens/entitlement-engine/internal/services/maintenance"
	milestoneservice "github.com/eventlens/entitlement-engine/internal/services/milestone"
	notificationservice "github.com/eventlens/entitlement-engine/internal/services/notification"
	"github.com/eventlens/entitlement-engine/internal/storage/repository"
)

// App — собранный HTTP-сервер движка прав со своими зависимостями.
type App struct {
	server   *http.Server
	logger   *slog.Logger
	db       *repository.Storage
	amqpConn *amqp.Connection

	entitlements *entitlementservice.EntitlementService
	milestones   *milestoneservice.MilestoneService
	sessions     *session.Store
	sweep        time.Duration
}

// New подключает зависимости и собирает приложение.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	amqpConn, err := rabbitmq.Connect(cfg.AddressRabbit, cfg.Retries, cfg.RetryDelay)
	if err != nil {
		return nil, err
	}
	amqpChannel, err := rabbitmq.SetupChannel(amqpConn, rabbitmq.GetNotificationQueues())
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	sessions := session.NewStore()

	authService := authservice.NewAuthService(db, jwtMaker)
	entitlementService := entitlementservice.NewEntitlementService(db, logger, collector, nil)
	maintenanceService := maintenanceservice.NewMaintenanceService(db, cacheRedis, logger, collector)
	notificationService := notificationservice.NewNotificationService(db, cacheRedis, logger)

	// Вехи уходят и в центр уведомлений, и в брокер для внешних
	// потребителей (почта, push).
	milestoneService := milestoneservice.NewMilestoneService(logger, collector,
		milestoneservice.CenterDispatcher{Notifications: notificationService},
		rabbitmq.NewDispatcher(amqpChannel),
	)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, registry, cfg, &Services{
		Auth:          authService,
		Entitlements:  entitlementService,
		Maintenance:   maintenanceService,
		Notifications: notificationService,
		Sessions:      sessions,
		Metrics:       collector,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:       srv,
		logger:       logger,
		db:           db,
		amqpConn:     amqpConn,
		entitlements: entitlementService,
		milestones:   milestoneService,
		sessions:     sessions,
		sweep:        cfg.UnreadInterval,
	}, nil
}

// Run запускает HTTP-сервер и фоновую проверку вех для активных сессий.
// Блокируется до отмены контекста, после чего гасит сервер.
func (a *App) Run(ctx context.Context) error {
	go a.runMilestoneSweep(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		_ = a.amqpConn.Close()
		_ = a.db.DB.Close()
		return err
	}
}

// runMilestoneSweep периодически проверяет активные сессии и отправляет
// вехи истечения, пороги которых достигнуты. Веха уходит не более
// одного раза за сессию; неудачная отправка повторится на следующем
// проходе.
func (a *App) runMilestoneSweep(ctx context.Context) {
	ticker := time.NewTicker(a.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, sess := range a.sessions.All() {
				state := a.entitlements.ResolveForUser(ctx, sess.Username())
				if _, err := a.milestones.Emit(ctx, state, sess); err != nil {
					a.logger.Warn("milestone sweep dispatch failed", sl.Err(err))
				}
			}
		}
	}
}
