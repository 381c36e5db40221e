// Package markallread реализует HTTP-обработчик пометки всех
// уведомлений пользователя прочитанными.
package markallread

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

// Handler обрабатывает запросы пометки всех уведомлений прочитанными.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс центра уведомлений.
type Service interface {
	MarkAllRead(ctx context.Context, username string) (int, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP помечает все уведомления пользователя прочитанными.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notification.markallread"

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

	affected, err := h.service.MarkAllRead(r.Context(), username)
	if err != nil {
		log.Error("failed to mark all notifications as read", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to mark all notifications as read"))
		return
	}

	log.Info("all notifications marked as read",
		slog.String("username", username), slog.Int("count", affected))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"marked_count": affected,
	}))
}
