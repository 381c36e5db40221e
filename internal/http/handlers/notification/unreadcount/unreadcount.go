// Package unreadcount реализует HTTP-обработчик счётчика непрочитанных
// уведомлений текущего пользователя. Опрашивается поллером клиента.
package unreadcount

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/eventlens/entitlement-engine/internal/http/middlewarectx"
	"github.com/eventlens/entitlement-engine/internal/http/response"
	"github.com/eventlens/entitlement-engine/internal/lib/sl"
)

// Handler обрабатывает запросы счётчика непрочитанных.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс центра уведомлений.
type Service interface {
	UnreadCount(ctx context.Context, username string) (int, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP возвращает число непрочитанных уведомлений пользователя.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notification.unreadcount"

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

	count, err := h.service.UnreadCount(r.Context(), username)
	if err != nil {
		log.Error("failed to count unread notifications", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to count unread notifications"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"unread_count": count,
	}))
}
