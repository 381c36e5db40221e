package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/eventlens/entitlement-engine/internal/http/response"
	"github.com/eventlens/entitlement-engine/internal/models"
)

// MaintenanceChecker определяет интерфейс для проверки блокировки
// пользователя окном обслуживания.
type MaintenanceChecker interface {
	CheckUser(ctx context.Context, tier models.Tier, role string) (bool, models.MaintenanceStatus)
}

// MaintenanceMiddleware создает middleware, закрывающее защищенные
// маршруты для пользователей, затронутых окном обслуживания.
// Тариф и роль должны быть уже положены в контекст JWTMiddleware.
func MaintenanceMiddleware(log *slog.Logger, checker MaintenanceChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tier, _ := r.Context().Value(Tier).(string)
			role, _ := r.Context().Value(Role).(string)

			affected, status := checker.CheckUser(r.Context(), models.ParseTier(tier), role)
			if affected {
				log.Info("request blocked by maintenance window",
					slog.String("tier", tier), slog.String("role", role))
				render.Status(r, http.StatusServiceUnavailable)
				render.JSON(w, r, response.Response{
					Status: response.StatusError,
					Error:  "maintenance in progress",
					Data:   status,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
