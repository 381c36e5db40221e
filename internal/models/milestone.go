package models

import "time"

// Виды вех истечения: пробный период и платный тариф.
const (
	MilestoneKindTrial = "trial-expiry"
	MilestoneKindPlan  = "plan-expiry"
)

// MilestoneEvent — одноразовое напоминание о приближении истечения
// пробного периода или тарифа. ID детерминированно строится из вида
// и порога, по нему проверяется повторная отправка.
type MilestoneEvent struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Days    int    `json:"days"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// MilestoneRecord фиксирует уже отправленную веху в рамках сессии.
type MilestoneRecord struct {
	MilestoneID string
	FiredAt     time.Time
}
