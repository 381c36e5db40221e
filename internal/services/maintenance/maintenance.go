// Package services содержит логику режима обслуживания: чистую проверку
// затронутости пользователя и сервис чтения/записи конфигурации
// с кешированием.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/eventlens/entitlement-engine/internal/lib/sl"
	"github.com/eventlens/entitlement-engine/internal/metrics"
	"github.com/eventlens/entitlement-engine/internal/models"
)

// IsAffected решает, блокирует ли окно обслуживания данного пользователя.
//
// Порядок проверок фиксирован: выключенное окно не блокирует никого;
// анонимный посетитель всегда в зоне действия включённого окна;
// административное исключение срабатывает раньше сопоставления тарифов,
// чтобы администратор с тарифом из затронутого множества всё равно
// сохранял доступ.
func IsAffected(cfg models.MaintenanceConfig, tier models.Tier, role string, isAuthenticated bool) bool {
	if !cfg.IsEnabled {
		return false
	}
	if !isAuthenticated {
		return true
	}
	if cfg.AllowAdminAccess && models.IsAdminRole(role) {
		return false
	}
	return cfg.AffectsTier(tier)
}

// SettingsRepository описывает хранилище конфигурации обслуживания.
type SettingsRepository interface {
	// GetMaintenanceSettings возвращает текущую конфигурацию обслуживания.
	GetMaintenanceSettings(ctx context.Context) (*models.MaintenanceConfig, error)
	// UpdateMaintenanceSettings сохраняет новую конфигурацию обслуживания.
	UpdateMaintenanceSettings(ctx context.Context, cfg models.MaintenanceConfig) error
	// CountUsersByTiers считает пользователей с тарифами из множества.
	CountUsersByTiers(ctx context.Context, tiers []string, excludeAdmins bool) (int, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

const (
	settingsCacheKey = "maintenance:settings"
	settingsCacheTTL = 30 * time.Second
)

// MaintenanceService отвечает за конфигурацию обслуживания и проверку
// затронутости пользователей.
type MaintenanceService struct {
	repo    SettingsRepository
	cache   Cache
	log     *slog.Logger
	metrics metrics.Recorder
}

// NewMaintenanceService создает новый экземпляр MaintenanceService.
func NewMaintenanceService(repo SettingsRepository, cache Cache, log *slog.Logger, rec metrics.Recorder) *MaintenanceService {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &MaintenanceService{
		repo:    repo,
		cache:   cache,
		log:     log,
		metrics: rec,
	}
}

// Settings возвращает конфигурацию обслуживания, сверяясь с кешем.
func (s *MaintenanceService) Settings(ctx context.Context) (*models.MaintenanceConfig, error) {
	const op = "services.maintenance.Settings"

	if s.cache != nil {
		var cached models.MaintenanceConfig
		found, err := s.cache.Get(settingsCacheKey, &cached)
		if err != nil {
			s.log.Warn("failed to read maintenance settings from cache", slog.String("op", op), sl.Err(err))
		}
		if found {
			return &cached, nil
		}
	}

	cfg, err := s.repo.GetMaintenanceSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if s.cache != nil {
		if err := s.cache.Set(settingsCacheKey, cfg, settingsCacheTTL); err != nil {
			s.log.Warn("failed to cache maintenance settings", slog.String("op", op), sl.Err(err))
		}
	}
	return cfg, nil
}

// Update сохраняет конфигурацию обслуживания и сбрасывает кеш.
func (s *MaintenanceService) Update(ctx context.Context, cfg models.MaintenanceConfig) error {
	const op = "services.maintenance.Update"

	if err := s.repo.UpdateMaintenanceSettings(ctx, cfg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(settingsCacheKey); err != nil {
			s.log.Warn("failed to invalidate maintenance settings cache", slog.String("op", op), sl.Err(err))
		}
	}
	return nil
}

// Status возвращает публичное состояние обслуживания.
// Ошибки чтения не блокируют пользователей: при отказе хранилища
// окно считается выключенным.
func (s *MaintenanceService) Status(ctx context.Context) models.MaintenanceStatus {
	const op = "services.maintenance.Status"

	cfg, err := s.Settings(ctx)
	if err != nil {
		s.log.Error("failed to load maintenance settings, reporting disabled", slog.String("op", op), sl.Err(err))
		return models.MaintenanceStatus{}
	}
	return models.MaintenanceStatus{
		IsEnabled:        cfg.IsEnabled,
		Title:            cfg.Title,
		Message:          cfg.Message,
		EstimatedEndTime: cfg.EstimatedEndTime,
	}
}

// CheckUser проверяет, затронут ли аутентифицированный пользователь
// текущим окном обслуживания. Отказ хранилища трактуется как
// "не затронут".
func (s *MaintenanceService) CheckUser(ctx context.Context, tier models.Tier, role string) (bool, models.MaintenanceStatus) {
	const op = "services.maintenance.CheckUser"

	cfg, err := s.Settings(ctx)
	if err != nil {
		s.log.Error("failed to load maintenance settings, treating user as unaffected", slog.String("op", op), sl.Err(err))
		return false, models.MaintenanceStatus{}
	}
	affected := IsAffected(*cfg, tier, role, true)
	if affected {
		s.metrics.RecordMaintenanceBlock()
	}
	return affected, models.MaintenanceStatus{
		IsEnabled:        cfg.IsEnabled,
		Title:            cfg.Title,
		Message:          cfg.Message,
		EstimatedEndTime: cfg.EstimatedEndTime,
	}
}

// AffectedCount возвращает число пользователей, которых затронет окно
// с данным множеством тарифов. Администраторы исключаются из подсчёта,
// когда для них сохраняется доступ.
func (s *MaintenanceService) AffectedCount(ctx context.Context, tiers []string, allowAdminAccess bool) (int, error) {
	const op = "services.maintenance.AffectedCount"

	count, err := s.repo.CountUsersByTiers(ctx, tiers, allowAdminAccess)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
