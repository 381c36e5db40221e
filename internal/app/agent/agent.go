// Package agent собирает клиентское ядро движка прав: REST-клиент,
// сессию, шину событий и поллер. Агент логинится под настроенным
// пользователем и транслирует тосты и смену окна обслуживания в лог.
package agent

import (
	"context"
	"log/slog"

	"github.com/eventlens/entitlement-engine/internal/client"
	"github.com/eventlens/entitlement-engine/internal/config"
	"github.com/eventlens/entitlement-engine/internal/lib/events"
	"github.com/eventlens/entitlement-engine/internal/models"
	"github.com/eventlens/entitlement-engine/internal/poller"
	"github.com/eventlens/entitlement-engine/internal/session"
	milestoneservice "github.com/eventlens/entitlement-engine/internal/services/milestone"
)

// App — клиентский агент опроса для одного пользователя.
type App struct {
	logger   *slog.Logger
	api      *client.Client
	sessions *session.Store
	bus      *events.Bus
	poller   *poller.Poller
	username string
	password string
}

// New собирает агент по конфигурации.
func New(cfg *config.Config, logger *slog.Logger) *App {
	api := client.New(cfg.APIURL, "")
	sessions := session.NewStore()
	bus := events.NewBus()

	// На клиенте вехи уходят только в шину: центр уведомлений
	// пополняет серверная проверка.
	milestones := milestoneservice.NewMilestoneService(logger, nil,
		milestoneservice.BusDispatcher{Bus: bus})

	p := poller.New(logger, api, sessions, bus, milestones, nil,
		cfg.AgentUsername, cfg.UnreadInterval, cfg.MaintenanceInterval)

	return &App{
		logger:   logger,
		api:      api,
		sessions: sessions,
		bus:      bus,
		poller:   p,
		username: cfg.AgentUsername,
		password: cfg.AgentPassword,
	}
}

// Run логинит агента и блокируется на цикле опроса до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	if err := a.api.Login(ctx, a.username, a.password); err != nil {
		return err
	}
	a.sessions.Obtain(a.username)

	go a.consumeEvents(ctx)

	a.poller.Run(ctx)
	a.bus.Close()
	return nil
}

func (a *App) consumeEvents(ctx context.Context) {
	toasts, unsubToasts := a.bus.Subscribe(events.NotificationToast)
	defer unsubToasts()
	milestones, unsubMilestones := a.bus.Subscribe(events.MilestoneFired)
	defer unsubMilestones()
	maintenance, unsubMaintenance := a.bus.Subscribe(events.MaintenanceChanged)
	defer unsubMaintenance()

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-toasts:
			if !ok {
				return
			}
			if n, ok := evt.Payload.(*models.Notification); ok {
				a.logger.Info("new notification",
					slog.String("title", n.Title), slog.String("message", n.Message))
			}
		case evt, ok := <-milestones:
			if !ok {
				return
			}
			if m, ok := evt.Payload.(models.MilestoneEvent); ok {
				a.logger.Info("expiry milestone reached",
					slog.String("id", m.ID), slog.Int("days", m.Days))
			}
		case evt, ok := <-maintenance:
			if !ok {
				return
			}
			if status, ok := evt.Payload.(*models.MaintenanceStatus); ok {
				a.logger.Info("maintenance window changed",
					slog.Bool("is_enabled", status.IsEnabled), slog.String("title", status.Title))
			}
		}
	}
}
