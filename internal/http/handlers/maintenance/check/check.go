// Package check реализует HTTP-обработчик проверки, затронут ли
// аутентифицированный пользователь текущим окном обслуживания.
package check

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/eventlens/entitlement-engine/internal/http/middlewarectx"
	"github.com/eventlens/entitlement-engine/internal/http/response"
	"github.com/eventlens/entitlement-engine/internal/models"
)

// Handler обрабатывает запросы проверки окна обслуживания.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики режима обслуживания.
type Service interface {
	CheckUser(ctx context.Context, tier models.Tier, role string) (bool, models.MaintenanceStatus)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP проверяет пользователя из контекста против текущего окна
// обслуживания. Тариф и роль кладет в контекст JWTMiddleware.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.maintenance.check"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	tier, _ := r.Context().Value(middlewarectx.Tier).(string)
	role, _ := r.Context().Value(middlewarectx.Role).(string)

	affected, status := h.service.CheckUser(r.Context(), models.ParseTier(tier), role)

	log.Info("maintenance check served",
		slog.String("tier", tier), slog.Bool("is_affected", affected))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"is_affected": affected,
		"maintenance": status,
	}))
}
