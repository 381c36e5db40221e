// Package events реализует типизированную внутрипроцессную шину
// публикации-подписки с перечислимыми именами событий. Используется
// для сигналов между частями клиентского ядра вместо нетипизированных
// глобальных событий.
package events

import (
	"errors"
	"sync"
)

// Name — перечислимое имя события.
type Name string

const (
	// NotificationToast — показать тост для свежего уведомления.
	NotificationToast Name = "notification.toast"
	// MilestoneFired — отправлена веха истечения тарифа или пробного периода.
	MilestoneFired Name = "milestone.fired"
	// PlanModalClose — закрыть модальное окно выбора тарифа.
	PlanModalClose Name = "plan.modal.close"
	// HelpOpen — открыть панель помощи.
	HelpOpen Name = "help.open"
	// MaintenanceChanged — изменилось состояние окна обслуживания.
	MaintenanceChanged Name = "maintenance.changed"
)

// Event — событие шины с произвольной полезной нагрузкой.
type Event struct {
	Name    Name
	Payload any
}

// ErrBusClosed возвращается при публикации в закрытую шину.
var ErrBusClosed = errors.New("event bus is closed")

const subscriberBuffer = 16

// Bus — внутрипроцессная шина событий. Подписчики получают события
// через буферизованные каналы; переполненный подписчик пропускает
// событие, не блокируя издателя.
type Bus struct {
	mu     sync.RWMutex
	subs   map[Name][]chan Event
	closed bool
}

// NewBus создаёт пустую шину событий.
func NewBus() *Bus {
	return &Bus{subs: make(map[Name][]chan Event)}
}

// Subscribe регистрирует подписчика на событие и возвращает канал
// и функцию отписки. Функцию отписки необходимо вызвать при
// завершении работы подписчика.
func (b *Bus) Subscribe(name Name) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	b.subs[name] = append(b.subs[name], ch)

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		chans := b.subs[name]
		for i, c := range chans {
			if c == ch {
				b.subs[name] = append(chans[:i], chans[i+1:]...)
				close(c)
				return
			}
		}
	}
	return ch, unsubscribe
}

// Publish доставляет событие всем подписчикам его имени.
// Возвращает ошибку только для закрытой шины.
func (b *Bus) Publish(evt Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBusClosed
	}
	for _, ch := range b.subs[evt.Name] {
		select {
		case ch <- evt:
		default:
			// Подписчик не успевает, событие для него пропускается.
		}
	}
	return nil
}

// Close закрывает шину и все каналы подписчиков.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for name, chans := range b.subs {
		for _, ch := range chans {
			close(ch)
		}
		delete(b.subs, name)
	}
}
