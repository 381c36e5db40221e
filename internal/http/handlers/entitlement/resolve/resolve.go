// Package resolve реализует HTTP-обработчик получения состояния прав
// текущего пользователя: тариф, пробный период, оставшиеся дни.
package resolve

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

// Handler обрабатывает запросы состояния прав пользователя.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс резолвера состояния прав.
type Service interface {
	ResolveForUser(ctx context.Context, username string) models.EntitlementState
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP вычисляет состояние прав пользователя из контекста.
// Состояние нигде не хранится и собирается заново на каждый запрос.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.entitlement.resolve"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	username, ok := r.Context().Value(middlewarectx.User).(string)
	if !ok || username == "" {
		log.Error("user identification missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("user identification missing"))
		return
	}

	state := h.service.ResolveForUser(r.Context(), username)

	log.Info("entitlement resolved",
		slog.String("username", username),
		slog.String("tier", string(state.Tier)),
		slog.Int("days_remaining", state.DaysRemaining))
	render.JSON(w, r, response.StatusOKWithData(state))
}
