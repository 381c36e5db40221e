package entitlementengine

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eventlens/entitlement-engine/internal/config"
	accesscheck "github.com/eventlens/entitlement-engine/internal/http/handlers/access/check"
	"github.com/eventlens/entitlement-engine/internal/http/handlers/auth/login"
	"github.com/eventlens/entitlement-engine/internal/http/handlers/auth/register"
	entitlementresolve "github.com/eventlens/entitlement-engine/internal/http/handlers/entitlement/resolve"
	"github.com/eventlens/entitlement-engine/internal/http/handlers/health"
	"github.com/eventlens/entitlement-engine/internal/http/handlers/maintenance/affectedcount"
	maintenancecheck "github.com/eventlens/entitlement-engine/internal/http/handlers/maintenance/check"
	"github.com/eventlens/entitlement-engine/internal/http/handlers/maintenance/settingsread"
	"github.com/eventlens/entitlement-engine/internal/http/handlers/maintenance/settingsupdate"
	"github.com/eventlens/entitlement-engine/internal/http/handlers/maintenance/status"
	"github.com/eventlens/entitlement-engine/internal/http/handlers/notification/dismiss"
	"github.com/eventlens/entitlement-engine/internal/http/handlers/notification/list"
	"github.com/eventlens/entitlement-engine/internal/http/handlers/notification/markallread"
	"github.com/eventlens/entitlement-engine/internal/http/handlers/notification/markread"
	"github.com/eventlens/entitlement-engine/internal/http/handlers/notification/unreadcount"
	"github.com/eventlens/entitlement-engine/internal/http/middlewarectx"
	"github.com/eventlens/entitlement-engine/internal/metrics"
	"github.com/eventlens/entitlement-engine/internal/session"
	authservice "github.com/eventlens/entitlement-engine/internal/services/auth"
	entitlementservice "github.com/eventlens/entitlement-engine/internal/services/entitlement"
	maintenanceservice "github.com/eventlens/entitlement-engine/internal/services/maintenance"
	notificationservice "github.com/eventlens/entitlement-engine/internal/services/notification"
)

// Services — сервисы, которые обслуживают маршруты приложения.
type Services struct {
	Auth          *authservice.AuthService
	Entitlements  *entitlementservice.EntitlementService
	Maintenance   *maintenanceservice.MaintenanceService
	Notifications *notificationservice.NotificationService
	Sessions      *session.Store
	Metrics       *metrics.Collector
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, registry *prometheus.Registry, cfg *config.Config, svc *Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, svc.Auth).ServeHTTP)
		r.Post("/login", login.New(logger, svc.Auth, svc.Sessions).ServeHTTP)
		r.Get("/maintenance/status", status.New(logger, svc.Maintenance).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(svc.Auth, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger, cfg.RateLimitRPS, cfg.RateLimitBurst))

			r.Get("/maintenance/check", maintenancecheck.New(logger, svc.Maintenance).ServeHTTP)
			r.Get("/entitlement", entitlementresolve.New(logger, svc.Entitlements).ServeHTTP)
			r.Get("/access/check", accesscheck.New(logger, svc.Entitlements, svc.Metrics).ServeHTTP)

			// Основные страницы приложения закрыты окном обслуживания,
			// проверка и статус остаются доступными.
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.MaintenanceMiddleware(logger, svc.Maintenance))

				r.Get("/notifications/unread-count", unreadcount.New(logger, svc.Notifications).ServeHTTP)
				r.Get("/notifications", list.New(logger, svc.Notifications).ServeHTTP)
				r.Post("/notifications/{id}/read", markread.New(logger, svc.Notifications).ServeHTTP)
				r.Post("/notifications/mark-all-read", markallread.New(logger, svc.Notifications).ServeHTTP)
				r.Post("/notifications/{id}/dismiss", dismiss.New(logger, svc.Notifications).ServeHTTP)
			})

			// Административные конечные точки
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.AdminOnlyMiddleware(logger))

				r.Get("/maintenance/settings", settingsread.New(logger, svc.Maintenance).ServeHTTP)
				r.Put("/maintenance/settings", settingsupdate.New(logger, svc.Maintenance).ServeHTTP)
				r.Post("/maintenance/affected-count", affectedcount.New(logger, svc.Maintenance).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	r.Get("/health", health.New(logger).ServeHTTP)
}
