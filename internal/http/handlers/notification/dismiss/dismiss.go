// Package dismiss реализует HTTP-обработчик скрытия уведомления
// из списка пользователя. Скрытое уведомление выпадает и из счётчика
// непрочитанных.
package dismiss

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/eventlens/entitlement-engine/internal/http/middlewarectx"
	"github.com/eventlens/entitlement-engine/internal/http/response"
	"github.com/eventlens/entitlement-engine/internal/lib/sl"
)

// Handler обрабатывает запросы скрытия уведомления.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс центра уведомлений.
type Service interface {
	Dismiss(ctx context.Context, username, id string) (int, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP скрывает уведомление из URL-параметра id.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notification.dismiss"

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

	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		log.Error("invalid notification id", slog.String("id", id))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid notification id"))
		return
	}

	affected, err := h.service.Dismiss(r.Context(), username, id)
	if err != nil {
		log.Error("failed to dismiss notification", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to dismiss notification"))
		return
	}
	if affected == 0 {
		log.Info("notification not found", slog.String("id", id))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("notification not found"))
		return
	}

	log.Info("notification dismissed", slog.String("id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"dismissed_count": affected,
	}))
}
