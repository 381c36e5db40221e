// Package status реализует публичный HTTP-обработчик состояния
// режима обслуживания. Отдается без аутентификации: баннер
// обслуживания показывается и на странице логина.
package status

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/eventlens/entitlement-engine/internal/http/response"
	"github.com/eventlens/entitlement-engine/internal/models"
)

// Handler обрабатывает запросы состояния обслуживания.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики режима обслуживания.
type Service interface {
	Status(ctx context.Context) models.MaintenanceStatus
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP возвращает публичное состояние режима обслуживания.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.maintenance.status"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	status := h.service.Status(r.Context())

	log.Info("maintenance status served", slog.Bool("is_enabled", status.IsEnabled))
	render.JSON(w, r, response.StatusOKWithData(status))
}
