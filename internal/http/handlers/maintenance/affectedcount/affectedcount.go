// Package affectedcount реализует HTTP-обработчик предпросмотра числа
// пользователей, которых затронет окно обслуживания с заданным
// множеством тарифов. Используется админкой до включения окна.
package affectedcount

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/eventlens/entitlement-engine/internal/http/response"
	"github.com/eventlens/entitlement-engine/internal/lib/sl"
)

// Request — входные данные предпросмотра.
type Request struct {
	AffectedTiers    []string `json:"affected_tiers" validate:"required,min=1,dive,oneof=free silver gold all"`
	AllowAdminAccess bool     `json:"allow_admin_access"`
}

// Handler обрабатывает запросы предпросмотра затронутых пользователей.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики режима обслуживания.
type Service interface {
	AffectedCount(ctx context.Context, tiers []string, allowAdminAccess bool) (int, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP считает пользователей, попадающих под заданное множество тарифов.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.maintenance.affectedcount"

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

	count, err := h.service.AffectedCount(r.Context(), req.AffectedTiers, req.AllowAdminAccess)
	if err != nil {
		log.Error("failed to count affected users", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to count affected users"))
		return
	}

	log.Info("affected users counted", slog.Int("count", count))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"affected_count": count,
	}))
}
