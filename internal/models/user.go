package models

import "time"

// SubscriptionInfo описывает данные активной подписки пользователя,
// пришедшие из биллинга. Все поля опциональны: биллинг может отдать
// только часть из них, резолвер прав обходит отсутствующие значения
// по цепочке фолбэков.
type SubscriptionInfo struct {
	Tier          string     `json:"tier"`
	DaysRemaining *int       `json:"days_remaining,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty"`
}

// UserSnapshot представляет снимок пользователя на момент вычисления прав.
// Снимок неизменяем в рамках одного вычисления: резолверы читают его,
// но никогда не модифицируют. Обновляется при логине и периодической
// перезагрузке настроек сессии.
type UserSnapshot struct {
	UUID            string            `json:"uuid"`
	Email           string            `json:"email"`
	Username        string            `json:"username"`
	PasswordHash    string            `json:"-"`
	Role            string            `json:"role"`
	Plan            string            `json:"plan"`                        // Сырое значение тарифа из биллинга
	CreatedAt       *time.Time        `json:"created_at,omitempty"`        // Дата регистрации, может отсутствовать
	PlanActivatedAt *time.Time        `json:"plan_activated_at,omitempty"` // Дата активации платного тарифа
	Subscription    *SubscriptionInfo `json:"subscription,omitempty"`
}
