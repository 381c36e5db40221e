package models

import "time"

// Notification — уведомление пользователя в центре уведомлений.
type Notification struct {
	ID          string    `json:"id"`
	Username    string    `json:"-"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Type        string    `json:"type"`
	IsRead      bool      `json:"is_read"`
	IsDismissed bool      `json:"is_dismissed"`
	CreatedAt   time.Time `json:"created_at"`
}

// UnreadCounterState — состояние счётчика непрочитанных уведомлений
// в рамках одной сессии. LastCount всегда устанавливается только из
// результата последнего завершённого опроса, локально никогда не
// инкрементируется.
type UnreadCounterState struct {
	LastCount   int
	IsFirstLoad bool
}

// NewUnreadCounterState возвращает начальное состояние счётчика:
// первый опрос лишь фиксирует базовую линию и не порождает тостов.
func NewUnreadCounterState() UnreadCounterState {
	return UnreadCounterState{IsFirstLoad: true}
}
