// Package services содержит логику центра уведомлений: подсчёт
// непрочитанных, выборку, пометки о прочтении и чистый трекер дельты
// счётчика для показа тостов.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/eventlens/entitlement-engine/internal/lib/sl"
	"github.com/eventlens/entitlement-engine/internal/models"
)

// Observe сравнивает свежий счётчик непрочитанных с предыдущим
// состоянием и решает, нужно ли запросить последнее уведомление
// для тоста.
//
// Первое наблюдение только фиксирует базовую линию: тосты для уже
// накопившихся уведомлений не показываются. Дальше тост положен
// только на приросте счётчика; уменьшение (прочтение с другого
// клиента) его не вызывает. LastCount всегда пересинхронизируется
// на значение сервера без локальных инкрементов.
func Observe(newCount int, state models.UnreadCounterState) (bool, models.UnreadCounterState) {
	if state.IsFirstLoad {
		return false, models.UnreadCounterState{LastCount: newCount}
	}
	shouldFetch := newCount > state.LastCount
	return shouldFetch, models.UnreadCounterState{LastCount: newCount}
}

// NotificationRepository описывает хранилище уведомлений пользователя.
type NotificationRepository interface {
	// CreateNotification сохраняет уведомление и возвращает его ID.
	CreateNotification(ctx context.Context, n models.Notification) (string, error)
	// CountUnread возвращает число непрочитанных уведомлений пользователя.
	CountUnread(ctx context.Context, username string) (int, error)
	// ListNotifications возвращает уведомления от новых к старым.
	ListNotifications(ctx context.Context, username string, limit int, unreadOnly bool) ([]*models.Notification, error)
	// MarkRead помечает уведомление прочитанным, возвращает число затронутых строк.
	MarkRead(ctx context.Context, username, id string) (int, error)
	// MarkAllRead помечает все уведомления пользователя прочитанными.
	MarkAllRead(ctx context.Context, username string) (int, error)
	// Dismiss скрывает уведомление, возвращает число затронутых строк.
	Dismiss(ctx context.Context, username, id string) (int, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

const unreadCacheTTL = 10 * time.Second

// NotificationService реализует операции центра уведомлений
// с кешированием счётчика непрочитанных.
type NotificationService struct {
	repo  NotificationRepository
	cache Cache
	log   *slog.Logger
}

// NewNotificationService создает новый экземпляр NotificationService.
func NewNotificationService(repo NotificationRepository, cache Cache, log *slog.Logger) *NotificationService {
	return &NotificationService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

func unreadCacheKey(username string) string {
	return "notifications:unread:" + username
}

// Create сохраняет уведомление и сбрасывает кеш счётчика владельца.
func (s *NotificationService) Create(ctx context.Context, n models.Notification) (string, error) {
	const op = "services.notification.Create"

	id, err := s.repo.CreateNotification(ctx, n)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateUnread(n.Username)
	return id, nil
}

// UnreadCount возвращает число непрочитанных уведомлений, сверяясь с кешем.
func (s *NotificationService) UnreadCount(ctx context.Context, username string) (int, error) {
	const op = "services.notification.UnreadCount"

	if s.cache != nil {
		var cached int
		found, err := s.cache.Get(unreadCacheKey(username), &cached)
		if err != nil {
			s.log.Warn("failed to read unread count from cache", slog.String("op", op), sl.Err(err))
		}
		if found {
			return cached, nil
		}
	}

	count, err := s.repo.CountUnread(ctx, username)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if s.cache != nil {
		if err := s.cache.Set(unreadCacheKey(username), count, unreadCacheTTL); err != nil {
			s.log.Warn("failed to cache unread count", slog.String("op", op), sl.Err(err))
		}
	}
	return count, nil
}

// List возвращает уведомления пользователя от новых к старым.
func (s *NotificationService) List(ctx context.Context, username string, limit int, unreadOnly bool) ([]*models.Notification, error) {
	const op = "services.notification.List"

	items, err := s.repo.ListNotifications(ctx, username, limit, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

// MarkRead помечает уведомление прочитанным.
func (s *NotificationService) MarkRead(ctx context.Context, username, id string) (int, error) {
	const op = "services.notification.MarkRead"

	affected, err := s.repo.MarkRead(ctx, username, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateUnread(username)
	return affected, nil
}

// MarkAllRead помечает все уведомления пользователя прочитанными.
func (s *NotificationService) MarkAllRead(ctx context.Context, username string) (int, error) {
	const op = "services.notification.MarkAllRead"

	affected, err := s.repo.MarkAllRead(ctx, username)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateUnread(username)
	return affected, nil
}

// Dismiss скрывает уведомление из списка пользователя.
func (s *NotificationService) Dismiss(ctx context.Context, username, id string) (int, error) {
	const op = "services.notification.Dismiss"

	affected, err := s.repo.Dismiss(ctx, username, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateUnread(username)
	return affected, nil
}

func (s *NotificationService) invalidateUnread(username string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(unreadCacheKey(username)); err != nil {
		s.log.Warn("failed to invalidate unread count cache", sl.Err(err))
	}
}
