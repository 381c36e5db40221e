// Package settingsupdate реализует HTTP-обработчик изменения
// конфигурации режима обслуживания. Доступен только администраторам.
package settingsupdate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/eventlens/entitlement-engine/internal/http/response"
	"github.com/eventlens/entitlement-engine/internal/lib/sl"
	"github.com/eventlens/entitlement-engine/internal/models"
)

// Request — входные данные для изменения конфигурации обслуживания.
// Каждый элемент AffectedTiers — тариф или значение "all".
type Request struct {
	IsEnabled        bool       `json:"is_enabled"`
	AffectedTiers    []string   `json:"affected_tiers" validate:"required,min=1,dive,oneof=free silver gold all"`
	AllowAdminAccess bool       `json:"allow_admin_access"`
	Title            string     `json:"title" validate:"max=200"`
	Message          string     `json:"message" validate:"max=2000"`
	EstimatedEndTime *time.Time `json:"estimated_end_time"`
}

// Handler обрабатывает запросы изменения конфигурации обслуживания.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики режима обслуживания.
type Service interface {
	Update(ctx context.Context, cfg models.MaintenanceConfig) error
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP сохраняет новую конфигурацию режима обслуживания.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.maintenance.settingsupdate"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	cfg := models.MaintenanceConfig{
		IsEnabled:        req.IsEnabled,
		AffectedTiers:    req.AffectedTiers,
		AllowAdminAccess: req.AllowAdminAccess,
		Title:            req.Title,
		Message:          req.Message,
		EstimatedEndTime: req.EstimatedEndTime,
	}
	if err := h.service.Update(r.Context(), cfg); err != nil {
		log.Error("failed to update maintenance settings", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to update maintenance settings"))
		return
	}

	log.Info("maintenance settings updated",
		slog.Bool("is_enabled", req.IsEnabled),
		slog.Any("affected_tiers", req.AffectedTiers))
	render.JSON(w, r, response.StatusOKWithData(cfg))
}
