// Package services реализует трекер вех истечения: выбор порога по
// оставшимся дням и одноразовую отправку напоминания в рамках сессии.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/eventlens/entitlement-engine/internal/lib/events"
	"github.com/eventlens/entitlement-engine/internal/lib/sl"
	"github.com/eventlens/entitlement-engine/internal/metrics"
	"github.com/eventlens/entitlement-engine/internal/models"
	"github.com/eventlens/entitlement-engine/internal/session"
)

// milestoneWindow — порог оставшихся дней, с которого начинают
// срабатывать вехи.
const milestoneWindow = 15

// PickThreshold выбирает порог вехи по оставшимся дням.
// Возвращает -1, если до ближайшей вехи ещё далеко.
// Пороги фиксированы: 15, 7, затем отдельная веха на каждый из
// последних трёх дней и веха истечения на нуле.
func PickThreshold(daysRemaining int) int {
	switch {
	case daysRemaining > milestoneWindow:
		return -1
	case daysRemaining > 7:
		return 15
	case daysRemaining > 3:
		return 7
	case daysRemaining > 0:
		return daysRemaining
	default:
		return 0
	}
}

// Next строит веху для текущего состояния прав либо nil, если порог
// ещё не достигнут. Функция чистая: проверку повторной отправки
// выполняет вызывающий код по ID вехи.
func Next(ent models.EntitlementState) *models.MilestoneEvent {
	threshold := PickThreshold(ent.DaysRemaining)
	if threshold < 0 {
		return nil
	}
	kind := models.MilestoneKindTrial
	if ent.HasPaidPlan {
		kind = models.MilestoneKindPlan
	}
	evt := &models.MilestoneEvent{
		ID:   fmt.Sprintf("%s-%d", kind, threshold),
		Kind: kind,
		Days: threshold,
	}
	fillText(evt)
	return evt
}

func fillText(evt *models.MilestoneEvent) {
	subject := "Trial period"
	action := "upgrade to a paid plan"
	if evt.Kind == models.MilestoneKindPlan {
		subject = "Your plan"
		action = "renew your plan"
	}
	if evt.Days <= 0 {
		evt.Title = fmt.Sprintf("%s has expired", subject)
		evt.Message = fmt.Sprintf("%s has expired. Please %s to keep using all features.", subject, action)
		return
	}
	evt.Title = fmt.Sprintf("%s expires in %d day(s)", subject, evt.Days)
	evt.Message = fmt.Sprintf("%s will expire in %d day(s). Please %s in time.", subject, evt.Days, action)
}

// Dispatcher доставляет веху получателю: шине событий, брокеру
// сообщений или центру уведомлений.
type Dispatcher interface {
	Dispatch(ctx context.Context, username string, evt models.MilestoneEvent) error
}

// MilestoneService отправляет вехи не более одного раза за сессию.
type MilestoneService struct {
	dispatchers []Dispatcher
	log         *slog.Logger
	metrics     metrics.Recorder
	now         func() time.Time
}

// NewMilestoneService создает новый экземпляр MilestoneService.
func NewMilestoneService(log *slog.Logger, rec metrics.Recorder, dispatchers ...Dispatcher) *MilestoneService {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &MilestoneService{
		dispatchers: dispatchers,
		log:         log,
		metrics:     rec,
		now:         time.Now,
	}
}

// Emit проверяет состояние прав и отправляет новую веху, если её порог
// достигнут и она ещё не отправлялась в этой сессии.
//
// Доставка каждому получателю фиксируется в сессии отдельно: при сбое
// одного из них повторный цикл доотправит только недоставленное, не
// дублируя веху тем, кто её уже получил. Сама веха помечается
// отправленной после успешной доставки всем получателям.
func (s *MilestoneService) Emit(ctx context.Context, ent models.EntitlementState, sess *session.Session) (*models.MilestoneEvent, error) {
	const op = "services.milestone.Emit"

	evt := Next(ent)
	if evt == nil {
		return nil, nil
	}
	if sess.HasFired(evt.ID) {
		return nil, nil
	}

	for i, d := range s.dispatchers {
		key := deliveryKey(evt.ID, i)
		if sess.HasDelivered(key) {
			continue
		}
		if err := d.Dispatch(ctx, sess.Username(), *evt); err != nil {
			s.log.Error("failed to dispatch milestone, will retry on next poll",
				slog.String("op", op), slog.String("milestone_id", evt.ID), sl.Err(err))
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		sess.MarkDelivered(key)
	}

	sess.MarkFired(evt.ID, s.now())
	s.metrics.RecordMilestoneFired(evt.Kind)
	s.log.Info("milestone fired",
		slog.String("op", op),
		slog.String("milestone_id", evt.ID),
		slog.Int("days", evt.Days))
	return evt, nil
}

// deliveryKey — ключ в множестве отправленного для доставки вехи
// конкретному получателю.
func deliveryKey(milestoneID string, dispatcher int) string {
	return fmt.Sprintf("%s/delivery-%d", milestoneID, dispatcher)
}

// BusDispatcher публикует вехи в типизированную шину событий.
type BusDispatcher struct {
	Bus *events.Bus
}

// Dispatch отправляет веху подписчикам шины.
func (d BusDispatcher) Dispatch(_ context.Context, _ string, evt models.MilestoneEvent) error {
	return d.Bus.Publish(events.Event{Name: events.MilestoneFired, Payload: evt})
}

// NotificationCreator сохраняет уведомление в центре уведомлений.
type NotificationCreator interface {
	Create(ctx context.Context, n models.Notification) (string, error)
}

// CenterDispatcher кладёт веху в центр уведомлений пользователя,
// после чего она попадёт в счётчик непрочитанных.
type CenterDispatcher struct {
	Notifications NotificationCreator
}

// Dispatch сохраняет веху как уведомление.
func (d CenterDispatcher) Dispatch(ctx context.Context, username string, evt models.MilestoneEvent) error {
	_, err := d.Notifications.Create(ctx, models.Notification{
		ID:       uuid.New().String(),
		Username: username,
		Title:    evt.Title,
		Message:  evt.Message,
		Type:     evt.Kind,
	})
	return err
}
