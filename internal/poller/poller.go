// Package poller реализует фоновый опрос сервера клиентским ядром:
// счётчик непрочитанных с тостами, вехи истечения и состояние окна
// обслуживания. Работает в одной горутине на сессию.
package poller

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/eventlens/entitlement-engine/internal/lib/events"
	"github.com/eventlens/entitlement-engine/internal/lib/sl"
	"github.com/eventlens/entitlement-engine/internal/metrics"
	"github.com/eventlens/entitlement-engine/internal/models"
	"github.com/eventlens/entitlement-engine/internal/session"
	services "github.com/eventlens/entitlement-engine/internal/services/notification"
)

// API описывает серверные вызовы, которые выполняет поллер.
type API interface {
	UnreadCount(ctx context.Context) (int, error)
	LatestUnread(ctx context.Context) (*models.Notification, error)
	Entitlement(ctx context.Context) (*models.EntitlementState, error)
	MaintenanceStatus(ctx context.Context) (*models.MaintenanceStatus, error)
}

// MilestoneEmitter отправляет веху истечения, если её порог достигнут.
type MilestoneEmitter interface {
	Emit(ctx context.Context, ent models.EntitlementState, sess *session.Session) (*models.MilestoneEvent, error)
}

// Poller опрашивает сервер для одной пользовательской сессии.
type Poller struct {
	log        *slog.Logger
	api        API
	sessions   *session.Store
	bus        *events.Bus
	milestones MilestoneEmitter
	metrics    metrics.Recorder
	username   string

	unreadInterval      time.Duration
	maintenanceInterval time.Duration

	// Монотонный номер запроса счётчика: ответ применяется только если
	// к моменту прихода не был выдан более свежий запрос.
	unreadSeq atomic.Uint64

	lastMaintenance atomic.Pointer[models.MaintenanceStatus]
}

// New создает новый Poller для пользователя.
func New(log *slog.Logger, api API, sessions *session.Store, bus *events.Bus,
	milestones MilestoneEmitter, rec metrics.Recorder, username string,
	unreadInterval, maintenanceInterval time.Duration) *Poller {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Poller{
		log:                 log,
		api:                 api,
		sessions:            sessions,
		bus:                 bus,
		milestones:          milestones,
		metrics:             rec,
		username:            username,
		unreadInterval:      unreadInterval,
		maintenanceInterval: maintenanceInterval,
	}
}

// Run запускает оба цикла опроса и блокируется до отмены контекста.
// Первые циклы выполняются сразу, не дожидаясь тикеров.
func (p *Poller) Run(ctx context.Context) {
	p.log.Info("poller started",
		slog.String("username", p.username),
		slog.Duration("unread_interval", p.unreadInterval),
		slog.Duration("maintenance_interval", p.maintenanceInterval))

	p.runUnreadCycle(ctx)
	p.runMaintenanceCycle(ctx)

	unreadTicker := time.NewTicker(p.unreadInterval)
	defer unreadTicker.Stop()
	maintenanceTicker := time.NewTicker(p.maintenanceInterval)
	defer maintenanceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info("poller stopped", slog.String("username", p.username))
			return
		case <-unreadTicker.C:
			p.runUnreadCycle(ctx)
		case <-maintenanceTicker.C:
			p.runMaintenanceCycle(ctx)
		}
	}
}

// RefreshUnread запускает внеочередной цикл опроса счётчика, например
// после пометки уведомлений прочитанными. Может вызываться конкурентно
// с тикером: более старый из двух ответов будет отброшен по номеру
// запроса.
func (p *Poller) RefreshUnread(ctx context.Context) {
	p.runUnreadCycle(ctx)
}

// runUnreadCycle опрашивает счётчик непрочитанных и состояние прав.
// Результат применяется, только если сессия жива и ответ не устарел.
func (p *Poller) runUnreadCycle(ctx context.Context) {
	const op = "poller.runUnreadCycle"

	seq := p.unreadSeq.Add(1)

	count, err := p.api.UnreadCount(ctx)
	if err != nil {
		p.metrics.RecordPollFailure("unread")
		p.log.Error("failed to poll unread count", slog.String("op", op), sl.Err(err))
		return
	}
	if p.unreadSeq.Load() != seq {
		// Пока ждали ответ, был выдан более свежий запрос.
		p.log.Debug("stale unread response discarded", slog.String("op", op))
		return
	}

	sess, ok := p.sessions.Get(p.username)
	if !ok {
		// Пользователь вышел, ответ не имеет эффекта.
		return
	}

	shouldFetch, next := services.Observe(count, sess.Counter())
	sess.SetCounter(next)

	if shouldFetch {
		// Неудача запроса уведомления не откатывает счётчик: тост
		// пропускается, следующий цикл стартует с новой базовой линии.
		n, err := p.api.LatestUnread(ctx)
		if err != nil {
			p.log.Warn("failed to fetch latest unread notification", slog.String("op", op), sl.Err(err))
		} else if n != nil {
			if err := p.bus.Publish(events.Event{Name: events.NotificationToast, Payload: n}); err != nil {
				p.log.Warn("failed to publish toast event", slog.String("op", op), sl.Err(err))
			}
		}
	}

	p.checkMilestones(ctx, sess)
	p.metrics.RecordPollCycle("unread")
}

// checkMilestones запрашивает состояние прав и отправляет веху,
// если её порог достигнут.
func (p *Poller) checkMilestones(ctx context.Context, sess *session.Session) {
	const op = "poller.checkMilestones"

	if p.milestones == nil {
		return
	}
	ent, err := p.api.Entitlement(ctx)
	if err != nil {
		p.metrics.RecordPollFailure("entitlement")
		p.log.Error("failed to poll entitlement state", slog.String("op", op), sl.Err(err))
		return
	}
	if _, err := p.milestones.Emit(ctx, *ent, sess); err != nil {
		p.log.Warn("milestone dispatch failed, will retry", slog.String("op", op), sl.Err(err))
	}
}

// runMaintenanceCycle опрашивает состояние окна обслуживания
// и публикует событие при его изменении.
func (p *Poller) runMaintenanceCycle(ctx context.Context) {
	const op = "poller.runMaintenanceCycle"

	status, err := p.api.MaintenanceStatus(ctx)
	if err != nil {
		p.metrics.RecordPollFailure("maintenance")
		p.log.Error("failed to poll maintenance status", slog.String("op", op), sl.Err(err))
		return
	}

	prev := p.lastMaintenance.Swap(status)
	if prev == nil || prev.IsEnabled != status.IsEnabled {
		if err := p.bus.Publish(events.Event{Name: events.MaintenanceChanged, Payload: status}); err != nil {
			p.log.Warn("failed to publish maintenance event", slog.String("op", op), sl.Err(err))
		}
	}
	p.metrics.RecordPollCycle("maintenance")
}
