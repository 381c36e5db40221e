package models

// EntitlementState — производное состояние прав пользователя.
// Вычисляется заново при каждом обращении, нигде не хранится.
// Инварианты: HasPaidPlan == (Tier ∈ {silver, gold});
// IsExpired влечёт !HasPaidPlan; DaysRemaining и DaysUsed неотрицательны.
type EntitlementState struct {
	HasPaidPlan   bool `json:"has_paid_plan"`
	Tier          Tier `json:"tier"`
	IsOnTrial     bool `json:"is_on_trial"`
	IsExpired     bool `json:"is_expired"`
	DaysRemaining int  `json:"days_remaining"`
	DaysUsed      int  `json:"days_used"`
}
