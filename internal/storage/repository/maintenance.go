package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/eventlens/entitlement-engine/internal/models"
)

// Конфигурация обслуживания хранится одной строкой с фиксированным id.
const maintenanceSettingsID = 1

// GetMaintenanceSettings возвращает текущую конфигурацию режима обслуживания.
// Если строка настроек ещё не создана, возвращается выключенное окно.
func (s *Storage) GetMaintenanceSettings(ctx context.Context) (*models.MaintenanceConfig, error) {
	const op = "storage.GetMaintenanceSettings"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT is_enabled, affected_tiers, allow_admin_access, title, message,
			      estimated_end_time
			  FROM maintenance_settings
			  WHERE id = $1`
	cfg := &models.MaintenanceConfig{}

	var (
		tiersRaw []byte
		endTime  sql.NullTime
	)
	row := s.DB.QueryRowContext(ctx, query, maintenanceSettingsID)
	err := row.Scan(&cfg.IsEnabled, &tiersRaw, &cfg.AllowAdminAccess, &cfg.Title,
		&cfg.Message, &endTime)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.MaintenanceConfig{AffectedTiers: []string{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := json.Unmarshal(tiersRaw, &cfg.AffectedTiers); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if endTime.Valid {
		cfg.EstimatedEndTime = &endTime.Time
	}
	return cfg, nil
}

// UpdateMaintenanceSettings сохраняет конфигурацию режима обслуживания.
func (s *Storage) UpdateMaintenanceSettings(ctx context.Context, cfg models.MaintenanceConfig) error {
	const op = "storage.UpdateMaintenanceSettings"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tiersRaw, err := json.Marshal(cfg.AffectedTiers)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `INSERT INTO maintenance_settings
			      (id, is_enabled, affected_tiers, allow_admin_access, title, message,
			       estimated_end_time, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, now())
			  ON CONFLICT (id) DO UPDATE SET
			      is_enabled = EXCLUDED.is_enabled,
			      affected_tiers = EXCLUDED.affected_tiers,
			      allow_admin_access = EXCLUDED.allow_admin_access,
			      title = EXCLUDED.title,
			      message = EXCLUDED.message,
			      estimated_end_time = EXCLUDED.estimated_end_time,
			      updated_at = now()`
	_, err = s.DB.ExecContext(ctx, query, maintenanceSettingsID, cfg.IsEnabled, tiersRaw,
		cfg.AllowAdminAccess, cfg.Title, cfg.Message, cfg.EstimatedEndTime)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
