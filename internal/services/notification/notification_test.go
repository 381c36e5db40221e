package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/eventlens/entitlement-engine/internal/models"
)

type NotificationRepoMock struct{ mock.Mock }

func (m *NotificationRepoMock) CreateNotification(ctx context.Context, n models.Notification) (string, error) {
	args := m.Called(ctx, n)
	return args.String(0), args.Error(1)
}

func (m *NotificationRepoMock) CountUnread(ctx context.Context, username string) (int, error) {
	args := m.Called(ctx, username)
	return args.Int(0), args.Error(1)
}

func (m *NotificationRepoMock) ListNotifications(ctx context.Context, username string, limit int, unreadOnly bool) ([]*models.Notification, error) {
	args := m.Called(ctx, username, limit, unreadOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Notification), args.Error(1)
}

func (m *NotificationRepoMock) MarkRead(ctx context.Context, username, id string) (int, error) {
	args := m.Called(ctx, username, id)
	return args.Int(0), args.Error(1)
}

func (m *NotificationRepoMock) MarkAllRead(ctx context.Context, username string) (int, error) {
	args := m.Called(ctx, username)
	return args.Int(0), args.Error(1)
}

func (m *NotificationRepoMock) Dismiss(ctx context.Context, username, id string) (int, error) {
	args := m.Called(ctx, username, id)
	return args.Int(0), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}

func (m *CacheMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

func NewNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestObserve(t *testing.T) {
	tests := []struct {
		name       string
		newCount   int
		state      models.UnreadCounterState
		wantFetch  bool
		wantedLast int
	}{
		{
			name:       "первый опрос только фиксирует базовую линию",
			newCount:   5,
			state:      models.NewUnreadCounterState(),
			wantFetch:  false,
			wantedLast: 5,
		},
		{
			name:       "прирост счетчика запрашивает тост",
			newCount:   6,
			state:      models.UnreadCounterState{LastCount: 5},
			wantFetch:  true,
			wantedLast: 6,
		},
		{
			name:       "неизменный счетчик тоста не дает",
			newCount:   5,
			state:      models.UnreadCounterState{LastCount: 5},
			wantFetch:  false,
			wantedLast: 5,
		},
		{
			name:       "уменьшение после чтения с другого клиента тоста не дает",
			newCount:   2,
			state:      models.UnreadCounterState{LastCount: 5},
			wantFetch:  false,
			wantedLast: 2,
		},
		{
			name:       "рост после уменьшения снова дает тост",
			newCount:   3,
			state:      models.UnreadCounterState{LastCount: 2},
			wantFetch:  true,
			wantedLast: 3,
		},
		{
			name:       "ноль на первом опросе фиксируется без тоста",
			newCount:   0,
			state:      models.NewUnreadCounterState(),
			wantFetch:  false,
			wantedLast: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetch, next := Observe(tt.newCount, tt.state)
			assert.Equal(t, tt.wantFetch, fetch)
			assert.Equal(t, tt.wantedLast, next.LastCount)
			assert.False(t, next.IsFirstLoad)
		})
	}
}

func TestNotificationService_UnreadCount(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(repo *NotificationRepoMock, cache *CacheMock)
		want       int
		wantErr    bool
	}{
		{
			name: "промах кеша читает хранилище и кеширует",
			setupMocks: func(repo *NotificationRepoMock, cache *CacheMock) {
				cache.On("Get", "notifications:unread:testuser", mock.Anything).Return(false, nil).Once()
				repo.On("CountUnread", mock.Anything, "testuser").Return(3, nil).Once()
				cache.On("Set", "notifications:unread:testuser", 3, 10*time.Second).Return(nil).Once()
			},
			want: 3,
		},
		{
			name: "ошибка хранилища возвращается вызывающему",
			setupMocks: func(repo *NotificationRepoMock, cache *CacheMock) {
				cache.On("Get", "notifications:unread:testuser", mock.Anything).Return(false, nil).Once()
				repo.On("CountUnread", mock.Anything, "testuser").Return(0, errors.New("db down")).Once()
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(NotificationRepoMock)
			cache := new(CacheMock)
			tt.setupMocks(repo, cache)
			svc := NewNotificationService(repo, cache, NewNoopLogger())

			got, err := svc.UnreadCount(context.Background(), "testuser")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestNotificationService_Create_InvalidatesOwnerCounter(t *testing.T) {
	n := models.Notification{ID: "n1", Username: "testuser", Title: "hello"}

	repo := new(NotificationRepoMock)
	cache := new(CacheMock)
	repo.On("CreateNotification", mock.Anything, n).Return("n1", nil).Once()
	cache.On("Invalidate", "notifications:unread:testuser").Return(nil).Once()

	svc := NewNotificationService(repo, cache, NewNoopLogger())
	id, err := svc.Create(context.Background(), n)
	require.NoError(t, err)
	assert.Equal(t, "n1", id)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestNotificationService_Marks(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(repo *NotificationRepoMock, cache *CacheMock)
		call       func(svc *NotificationService) (int, error)
		want       int
	}{
		{
			name: "пометка одного уведомления сбрасывает кеш",
			setupMocks: func(repo *NotificationRepoMock, cache *CacheMock) {
				repo.On("MarkRead", mock.Anything, "testuser", "n1").Return(1, nil).Once()
				cache.On("Invalidate", "notifications:unread:testuser").Return(nil).Once()
			},
			call: func(svc *NotificationService) (int, error) {
				return svc.MarkRead(context.Background(), "testuser", "n1")
			},
			want: 1,
		},
		{
			name: "пометка всех уведомлений сбрасывает кеш",
			setupMocks: func(repo *NotificationRepoMock, cache *CacheMock) {
				repo.On("MarkAllRead", mock.Anything, "testuser").Return(4, nil).Once()
				cache.On("Invalidate", "notifications:unread:testuser").Return(nil).Once()
			},
			call: func(svc *NotificationService) (int, error) {
				return svc.MarkAllRead(context.Background(), "testuser")
			},
			want: 4,
		},
		{
			name: "скрытие уведомления сбрасывает кеш",
			setupMocks: func(repo *NotificationRepoMock, cache *CacheMock) {
				repo.On("Dismiss", mock.Anything, "testuser", "n2").Return(1, nil).Once()
				cache.On("Invalidate", "notifications:unread:testuser").Return(nil).Once()
			},
			call: func(svc *NotificationService) (int, error) {
				return svc.Dismiss(context.Background(), "testuser", "n2")
			},
			want: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(NotificationRepoMock)
			cache := new(CacheMock)
			tt.setupMocks(repo, cache)
			svc := NewNotificationService(repo, cache, NewNoopLogger())

			got, err := tt.call(svc)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestNotificationService_List(t *testing.T) {
	items := []*models.Notification{
		{ID: "n2", Title: "newer"},
		{ID: "n1", Title: "older"},
	}

	repo := new(NotificationRepoMock)
	repo.On("ListNotifications", mock.Anything, "testuser", 20, true).Return(items, nil).Once()

	svc := NewNotificationService(repo, nil, NewNoopLogger())
	got, err := svc.List(context.Background(), "testuser", 20, true)
	require.NoError(t, err)
	assert.Equal(t, items, got)
	repo.AssertExpectations(t)
}
