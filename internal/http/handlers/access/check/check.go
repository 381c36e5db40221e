// Package check реализует HTTP-обработчик проверки доступа текущего
// пользователя к странице приложения.
package check

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/eventlens/entitlement-engine/internal/http/middlewarectx"
	"github.com/eventlens/entitlement-engine/internal/http/response"
	"github.com/eventlens/entitlement-engine/internal/models"
	services "github.com/eventlens/entitlement-engine/internal/services/access"
)

// Handler обрабатывает запросы проверки доступа к страницам.
type Handler struct {
	log     *slog.Logger
	service Service
	metrics Recorder
}

// Service описывает интерфейс резолвера состояния прав.
type Service interface {
	ResolveForUser(ctx context.Context, username string) models.EntitlementState
}

// Recorder описывает учет отказов в доступе.
type Recorder interface {
	RecordAccessDenied(reason string)
}

// New создает новый Handler с переданным логгером, сервисом и метриками.
func New(log *slog.Logger, service Service, metrics Recorder) *Handler {
	return &Handler{
		log:     log,
		service: service,
		metrics: metrics,
	}
}

// ServeHTTP проверяет доступ пользователя к странице из query-параметра path.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.access.check"

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

	path := r.URL.Query().Get("path")
	if path == "" || !strings.HasPrefix(path, "/") {
		log.Error("missing or invalid path parameter", slog.String("path", path))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("query parameter path must be an absolute page path"))
		return
	}

	state := h.service.ResolveForUser(r.Context(), username)
	decision := services.Evaluate(state, path)
	if !decision.Allowed && h.metrics != nil {
		h.metrics.RecordAccessDenied(decision.Reason)
	}

	log.Info("access evaluated",
		slog.String("username", username),
		slog.String("path", path),
		slog.Bool("allowed", decision.Allowed))
	render.JSON(w, r, response.StatusOKWithData(decision))
}
