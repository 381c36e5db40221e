package repository

import (
	"context"
	"fmt"

	"github.com/eventlens/entitlement-engine/internal/models"
)

// CreateNotification сохраняет уведомление пользователя и возвращает его ID.
func (s *Storage) CreateNotification(ctx context.Context, n models.Notification) (string, error) {
	const op = "storage.CreateNotification"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID string
	query := `INSERT INTO notifications (username, title, message, type)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id;`
	if err := s.DB.QueryRowContext(ctx, query,
		n.Username, n.Title, n.Message, n.Type).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// CountUnread возвращает число непрочитанных и нескрытых уведомлений.
func (s *Storage) CountUnread(ctx context.Context, username string) (int, error) {
	const op = "storage.CountUnread"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT count(*) FROM notifications
			  WHERE username = $1 AND NOT is_read AND NOT is_dismissed`
	var count int
	if err := s.DB.QueryRowContext(ctx, query, username).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// ListNotifications возвращает уведомления пользователя от новых к старым.
func (s *Storage) ListNotifications(ctx context.Context, username string, limit int, unreadOnly bool) ([]*models.Notification, error) {
	const op = "storage.ListNotifications"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, username, title, message, type, is_read, is_dismissed, created_at
			  FROM notifications
			  WHERE username = $1 AND NOT is_dismissed`
	if unreadOnly {
		query += ` AND NOT is_read`
	}
	query += ` ORDER BY created_at DESC LIMIT $2`

	rows, err := s.DB.QueryContext(ctx, query, username, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var items []*models.Notification
	for rows.Next() {
		n := &models.Notification{}
		if err := rows.Scan(&n.ID, &n.Username, &n.Title, &n.Message, &n.Type,
			&n.IsRead, &n.IsDismissed, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

// MarkRead помечает уведомление пользователя прочитанным.
func (s *Storage) MarkRead(ctx context.Context, username, id string) (int, error) {
	const op = "storage.MarkRead"
	return s.execAffected(ctx, op,
		`UPDATE notifications SET is_read = true WHERE username = $1 AND id = $2`,
		username, id)
}

// MarkAllRead помечает все уведомления пользователя прочитанными.
func (s *Storage) MarkAllRead(ctx context.Context, username string) (int, error) {
	const op = "storage.MarkAllRead"
	return s.execAffected(ctx, op,
		`UPDATE notifications SET is_read = true
		 WHERE username = $1 AND NOT is_read AND NOT is_dismissed`,
		username)
}

// Dismiss скрывает уведомление из списка пользователя.
func (s *Storage) Dismiss(ctx context.Context, username, id string) (int, error) {
	const op = "storage.Dismiss"
	return s.execAffected(ctx, op,
		`UPDATE notifications SET is_dismissed = true WHERE username = $1 AND id = $2`,
		username, id)
}

func (s *Storage) execAffected(ctx context.Context, op, query string, args ...any) (int, error) {
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(affected), nil
}
