// Package services реализует политику доступа к страницам приложения
// по тарифному уровню пользователя.
package services

import (
	"strings"

	"github.com/eventlens/entitlement-engine/internal/models"
)

// PaymentPath всегда доступен: заблокированный пользователь должен
// иметь возможность дойти до оплаты.
const PaymentPath = "/payment"

// planPermissions — статическая таблица страниц по тарифам.
// Загружается один раз при старте процесса и не изменяется.
var planPermissions = map[models.Tier][]string{
	models.TierFree: {
		"/dashboard",
		"/projects",
		"/clients",
		"/team",
		"/chat",
		"/calendar",
		"/notifications",
		"/settings",
		"/profile",
	},
	models.TierSilver: {
		"/dashboard",
		"/projects",
		"/clients",
		"/team",
		"/chat",
		"/calendar",
		"/notifications",
		"/settings",
		"/profile",
	},
	models.TierGold: {
		"/dashboard",
		"/projects",
		"/clients",
		"/team",
		"/chat",
		"/calendar",
		"/notifications",
		"/settings",
		"/profile",
		"/quotations",
		"/billing",
		"/policy",
	},
}

// goldOnlyPages — страницы, требующие тариф gold независимо от текущего
// тарифа пользователя. Используется, чтобы показать предложение апгрейда
// вместо обычного отказа.
var goldOnlyPages = []string{
	"/quotations",
	"/billing",
	"/policy",
}

// Причины отказа в доступе.
const (
	ReasonUpgradeRequired = "upgrade_required"
	ReasonTrialExpired    = "trial_expired"
	ReasonNotAllowed      = "not_allowed"
)

// Decision — итог проверки доступа к странице.
type Decision struct {
	Allowed         bool   `json:"allowed"`
	RequiresUpgrade bool   `json:"requires_upgrade"`
	Reason          string `json:"reason,omitempty"`
}

// CanAccess сообщает, доступна ли страница на данном тарифе.
// Совпадение засчитывается по точному пути или по префиксу с "/".
func CanAccess(tier models.Tier, path string) bool {
	if matchesPrefix(path, PaymentPath) {
		return true
	}
	for _, allowed := range planPermissions[tier] {
		if matchesPrefix(path, allowed) {
			return true
		}
	}
	return false
}

// RequiresGoldPlan сообщает, требует ли страница тариф gold.
// Проверка не зависит от текущего тарифа пользователя.
func RequiresGoldPlan(path string) bool {
	for _, page := range goldOnlyPages {
		if matchesPrefix(path, page) {
			return true
		}
	}
	return false
}

// Evaluate применяет политику доступа с учётом истекшего пробного периода.
// Истёкший пробный период закрывает все страницы, кроме оплаты, поверх
// обычной табличной проверки.
func Evaluate(ent models.EntitlementState, path string) Decision {
	if matchesPrefix(path, PaymentPath) {
		return Decision{Allowed: true}
	}
	if ent.IsExpired {
		return Decision{
			Allowed:         false,
			RequiresUpgrade: RequiresGoldPlan(path),
			Reason:          ReasonTrialExpired,
		}
	}
	if CanAccess(ent.Tier, path) {
		return Decision{Allowed: true}
	}
	if RequiresGoldPlan(path) {
		return Decision{
			Allowed:         false,
			RequiresUpgrade: true,
			Reason:          ReasonUpgradeRequired,
		}
	}
	return Decision{Allowed: false, Reason: ReasonNotAllowed}
}

func matchesPrefix(path, allowed string) bool {
	return path == allowed || strings.HasPrefix(path, allowed+"/")
}
