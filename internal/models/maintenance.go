package models

import (
	"strings"
	"time"
)

// Значение "all" в AffectedTiers означает, что окно обслуживания
// распространяется на все тарифы.
const TierAll = "all"

// MaintenanceConfig — конфигурация режима обслуживания.
// Принадлежит администраторам, изменяется только через настройки;
// движок доступа читает её и никогда не мутирует.
type MaintenanceConfig struct {
	IsEnabled        bool       `json:"is_enabled"`
	AffectedTiers    []string   `json:"affected_tiers"`
	AllowAdminAccess bool       `json:"allow_admin_access"`
	Title            string     `json:"title"`
	Message          string     `json:"message"`
	EstimatedEndTime *time.Time `json:"estimated_end_time,omitempty"`
}

// AffectsTier проверяет, входит ли тариф в множество затронутых.
func (c MaintenanceConfig) AffectsTier(tier Tier) bool {
	for _, t := range c.AffectedTiers {
		normalized := strings.ToLower(strings.TrimSpace(t))
		if normalized == TierAll || Tier(normalized) == tier {
			return true
		}
	}
	return false
}

// MaintenanceStatus — публичное представление состояния обслуживания,
// отдаётся без аутентификации.
type MaintenanceStatus struct {
	IsEnabled        bool       `json:"is_enabled"`
	Title            string     `json:"title"`
	Message          string     `json:"message"`
	EstimatedEndTime *time.Time `json:"estimated_end_time,omitempty"`
}
