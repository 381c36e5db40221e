// Package settingsread реализует HTTP-обработчик чтения конфигурации
// режима обслуживания. Доступен только администраторам.
package settingsread

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/eventlens/entitlement-engine/internal/http/response"
	"github.com/eventlens/entitlement-engine/internal/lib/sl"
	"github.com/eventlens/entitlement-engine/internal/models"
)

// Handler обрабатывает запросы чтения конфигурации обслуживания.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики режима обслуживания.
type Service interface {
	Settings(ctx context.Context) (*models.MaintenanceConfig, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP возвращает полную конфигурацию режима обслуживания.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.maintenance.settingsread"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	cfg, err := h.service.Settings(r.Context())
	if err != nil {
		log.Error("failed to read maintenance settings", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to read maintenance settings"))
		return
	}

	log.Info("maintenance settings served")
	render.JSON(w, r, response.StatusOKWithData(cfg))
}
