// Package models содержит доменные модели движка доступа: тарифы, роли,
// снимки пользователя, состояние прав, конфигурацию режима обслуживания
// и уведомления.
package models

import "strings"

// Tier представляет тарифный уровень подписки.
// Сравнение выполняется только через типизированные константы,
// никаких проверок подстрок по сырым строкам.
type Tier string

const (
	// TierFree — бесплатный уровень, сюда же нормализуются "none" и пустое значение.
	TierFree Tier = "free"
	// TierSilver — платный уровень silver.
	TierSilver Tier = "silver"
	// TierGold — платный уровень gold с максимальным набором страниц.
	TierGold Tier = "gold"
)

// ParseTier нормализует произвольную строку тарифа в Tier.
// Сравнение регистронезависимое; неизвестные значения считаются free.
func ParseTier(raw string) Tier {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "silver":
		return TierSilver
	case "gold":
		return TierGold
	default:
		return TierFree
	}
}

// IsPaid сообщает, является ли тариф платным.
func (t Tier) IsPaid() bool {
	return t == TierSilver || t == TierGold
}

// Роли пользователей системы.
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

// IsAdminRole сообщает, обладает ли роль административными привилегиями.
func IsAdminRole(role string) bool {
	return role == RoleAdmin || role == RoleSuperAdmin
}
