package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/eventlens/entitlement-engine/internal/models"
)

// RegisterUser сохраняет нового пользователя в базу данных и возвращает его UID.
func (s *Storage) RegisterUser(ctx context.Context, user models.UserSnapshot) (string, error) {
	const op = "storage.RegisterUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID string
	query := `INSERT INTO users (email, username, password_hash, role, plan)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		user.Email, user.Username, user.PasswordHash, user.Role, user.Plan).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetUserByUsername возвращает снимок пользователя по его username.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.UserSnapshot, error) {
	const op = "storage.GetUserByUsername"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, username, password_hash, role, plan, created_at,
			      plan_activated_at, subscription_tier, subscription_days_remaining,
			      subscription_end_date
			  FROM users
			  WHERE username = $1`
	u := &models.UserSnapshot{}
	row := s.DB.QueryRowContext(ctx, query, username)

	var (
		createdAt       sql.NullTime
		planActivatedAt sql.NullTime
		subTier         sql.NullString
		subDays         sql.NullInt64
		subEndDate      sql.NullTime
	)
	if err := row.Scan(&u.UUID, &u.Email, &u.Username, &u.PasswordHash,
		&u.Role, &u.Plan, &createdAt, &planActivatedAt, &subTier, &subDays, &subEndDate); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if createdAt.Valid {
		u.CreatedAt = &createdAt.Time
	}
	if planActivatedAt.Valid {
		u.PlanActivatedAt = &planActivatedAt.Time
	}
	if subTier.Valid || subDays.Valid || subEndDate.Valid {
		sub := &models.SubscriptionInfo{Tier: subTier.String}
		if subDays.Valid {
			days := int(subDays.Int64)
			sub.DaysRemaining = &days
		}
		if subEndDate.Valid {
			sub.EndDate = &subEndDate.Time
		}
		u.Subscription = sub
	}
	return u, nil
}

// UpdateUserPlan активирует платный тариф пользователя.
func (s *Storage) UpdateUserPlan(ctx context.Context, username, plan string) (int, error) {
	const op = "storage.UpdateUserPlan"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET plan = $1, plan_activated_at = now()
			  WHERE username = $2`
	res, err := s.DB.ExecContext(ctx, query, plan, username)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(affected), nil
}

// CountUsersByTiers считает пользователей, чей тариф входит в множество.
// Значение "all" покрывает все тарифы; "none" и пустой план считаются free.
// При excludeAdmins администраторы не попадают в подсчёт.
func (s *Storage) CountUsersByTiers(ctx context.Context, tiers []string, excludeAdmins bool) (int, error) {
	const op = "storage.CountUsersByTiers"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	normalized := make(map[string]bool, len(tiers))
	includeAll := false
	for _, t := range tiers {
		v := strings.ToLower(strings.TrimSpace(t))
		if v == models.TierAll {
			includeAll = true
		}
		if v == "none" || v == "" {
			v = string(models.TierFree)
		}
		normalized[v] = true
	}

	var sb strings.Builder
	sb.WriteString(`SELECT count(*) FROM users WHERE 1=1`)
	args := []any{}

	if excludeAdmins {
		sb.WriteString(` AND role NOT IN ('admin', 'superadmin')`)
	}
	if !includeAll {
		if len(normalized) == 0 {
			return 0, nil
		}
		placeholders := make([]string, 0, len(normalized))
		for tier := range normalized {
			args = append(args, tier)
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
		}
		sb.WriteString(` AND (CASE WHEN plan IS NULL OR plan = '' OR lower(plan) = 'none'
			THEN 'free' ELSE lower(plan) END) IN (`)
		sb.WriteString(strings.Join(placeholders, ", "))
		sb.WriteString(`)`)
	}

	var count int
	if err := s.DB.QueryRowContext(ctx, sb.String(), args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
