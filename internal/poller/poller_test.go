package poller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventlens/entitlement-engine/internal/lib/events"
	"github.com/eventlens/entitlement-engine/internal/models"
	"github.com/eventlens/entitlement-engine/internal/session"
)

// fakeAPI — управляемая замена REST-клиента.
type fakeAPI struct {
	mu          sync.Mutex
	unreadCount int
	unreadErr   error
	latest      *models.Notification
	latestErr   error
	entitlement models.EntitlementState
	maintenance models.MaintenanceStatus
	maintErr    error
	unreadCalls int

	// Одноразовая задержка ответа UnreadCount: вызов сообщает о входе
	// через unreadEntered и ждёт закрытия unreadGate.
	unreadGate    chan struct{}
	unreadEntered chan struct{}
}

func (f *fakeAPI) UnreadCount(context.Context) (int, error) {
	f.mu.Lock()
	f.unreadCalls++
	count, err := f.unreadCount, f.unreadErr
	gate, entered := f.unreadGate, f.unreadEntered
	f.unreadGate, f.unreadEntered = nil, nil
	f.mu.Unlock()

	if gate != nil {
		close(entered)
		<-gate
	}
	return count, err
}

func (f *fakeAPI) LatestUnread(context.Context) (*models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest, f.latestErr
}

func (f *fakeAPI) Entitlement(context.Context) (*models.EntitlementState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &f.entitlement, nil
}

func (f *fakeAPI) MaintenanceStatus(context.Context) (*models.MaintenanceStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.maintErr != nil {
		return nil, f.maintErr
	}
	status := f.maintenance
	return &status, nil
}

func (f *fakeAPI) set(fn func(*fakeAPI)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newTestPoller(api API, sessions *session.Store, bus *events.Bus) *Poller {
	return New(newNoopLogger(), api, sessions, bus, nil, nil, "testuser",
		time.Hour, time.Hour)
}

func TestPoller_FirstLoadSuppressesToast(t *testing.T) {
	api := &fakeAPI{unreadCount: 5, latest: &models.Notification{ID: "n1"}}
	sessions := session.NewStore()
	sessions.Obtain("testuser")
	bus := events.NewBus()
	defer bus.Close()
	toasts, unsubscribe := bus.Subscribe(events.NotificationToast)
	defer unsubscribe()

	p := newTestPoller(api, sessions, bus)
	p.runUnreadCycle(context.Background())

	assert.Empty(t, toasts)
	sess, _ := sessions.Get("testuser")
	assert.Equal(t, 5, sess.Counter().LastCount)
	assert.False(t, sess.Counter().IsFirstLoad)
}

func TestPoller_ToastOnIncrement(t *testing.T) {
	api := &fakeAPI{unreadCount: 5}
	sessions := session.NewStore()
	sessions.Obtain("testuser")
	bus := events.NewBus()
	defer bus.Close()
	toasts, unsubscribe := bus.Subscribe(events.NotificationToast)
	defer unsubscribe()

	p := newTestPoller(api, sessions, bus)
	ctx := context.Background()
	p.runUnreadCycle(ctx)

	api.set(func(f *fakeAPI) {
		f.unreadCount = 6
		f.latest = &models.Notification{ID: "n2", Title: "fresh"}
	})
	p.runUnreadCycle(ctx)

	select {
	case evt := <-toasts:
		n := evt.Payload.(*models.Notification)
		assert.Equal(t, "n2", n.ID)
	case <-time.After(time.Second):
		t.Fatal("toast event was not published")
	}

	// Уменьшение счётчика тоста не даёт, но база пересинхронизируется.
	api.set(func(f *fakeAPI) { f.unreadCount = 2 })
	p.runUnreadCycle(ctx)
	assert.Empty(t, toasts)
	sess, _ := sessions.Get("testuser")
	assert.Equal(t, 2, sess.Counter().LastCount)
}

func TestPoller_FetchFailureDoesNotRollBack(t *testing.T) {
	api := &fakeAPI{unreadCount: 1}
	sessions := session.NewStore()
	sessions.Obtain("testuser")
	bus := events.NewBus()
	defer bus.Close()
	toasts, unsubscribe := bus.Subscribe(events.NotificationToast)
	defer unsubscribe()

	p := newTestPoller(api, sessions, bus)
	ctx := context.Background()
	p.runUnreadCycle(ctx)

	api.set(func(f *fakeAPI) {
		f.unreadCount = 2
		f.latestErr = errors.New("network error")
	})
	p.runUnreadCycle(ctx)

	assert.Empty(t, toasts)
	sess, _ := sessions.Get("testuser")
	assert.Equal(t, 2, sess.Counter().LastCount)

	// Следующий цикл без прироста не пытается показать пропущенный тост.
	api.set(func(f *fakeAPI) { f.latestErr = nil; f.latest = &models.Notification{ID: "n3"} })
	p.runUnreadCycle(ctx)
	assert.Empty(t, toasts)
}

func TestPoller_DeadSessionIgnoresResponse(t *testing.T) {
	api := &fakeAPI{unreadCount: 5}
	sessions := session.NewStore()
	bus := events.NewBus()
	defer bus.Close()

	p := newTestPoller(api, sessions, bus)
	p.runUnreadCycle(context.Background())

	_, ok := sessions.Get("testuser")
	assert.False(t, ok, "poll must not resurrect a destroyed session")
}

func TestPoller_StaleResponseDiscarded(t *testing.T) {
	gate := make(chan struct{})
	entered := make(chan struct{})
	api := &fakeAPI{unreadCount: 7, unreadGate: gate, unreadEntered: entered}
	sessions := session.NewStore()
	sessions.Obtain("testuser")
	bus := events.NewBus()
	defer bus.Close()
	toasts, unsubscribe := bus.Subscribe(events.NotificationToast)
	defer unsubscribe()

	p := newTestPoller(api, sessions, bus)
	ctx := context.Background()

	// Первый цикл зависает в запросе со старым значением счётчика.
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.RefreshUnread(ctx)
	}()
	<-entered

	// Пока первый ответ в пути, внеочередной цикл получает свежее значение.
	api.set(func(f *fakeAPI) { f.unreadCount = 2 })
	p.RefreshUnread(ctx)

	close(gate)
	<-done

	sess, _ := sessions.Get("testuser")
	assert.Equal(t, 2, sess.Counter().LastCount, "older in-flight response must be discarded")
	assert.False(t, sess.Counter().IsFirstLoad)
	assert.Empty(t, toasts, "discarded response must not produce a toast")

	api.mu.Lock()
	calls := api.unreadCalls
	api.mu.Unlock()
	assert.Equal(t, 2, calls)
}

func TestPoller_PollErrorKeepsState(t *testing.T) {
	api := &fakeAPI{unreadCount: 5}
	sessions := session.NewStore()
	sessions.Obtain("testuser")
	bus := events.NewBus()
	defer bus.Close()

	p := newTestPoller(api, sessions, bus)
	ctx := context.Background()
	p.runUnreadCycle(ctx)

	api.set(func(f *fakeAPI) { f.unreadErr = errors.New("server down") })
	p.runUnreadCycle(ctx)

	sess, _ := sessions.Get("testuser")
	assert.Equal(t, 5, sess.Counter().LastCount)
}

func TestPoller_MaintenanceChangePublishesEvent(t *testing.T) {
	api := &fakeAPI{}
	sessions := session.NewStore()
	bus := events.NewBus()
	defer bus.Close()
	changes, unsubscribe := bus.Subscribe(events.MaintenanceChanged)
	defer unsubscribe()

	p := newTestPoller(api, sessions, bus)
	ctx := context.Background()

	// Первый опрос фиксирует исходное состояние и публикует его.
	p.runMaintenanceCycle(ctx)
	require.Len(t, changes, 1)
	<-changes

	// Без изменений события нет.
	p.runMaintenanceCycle(ctx)
	assert.Empty(t, changes)

	api.set(func(f *fakeAPI) { f.maintenance = models.MaintenanceStatus{IsEnabled: true, Title: "Maintenance"} })
	p.runMaintenanceCycle(ctx)
	select {
	case evt := <-changes:
		status := evt.Payload.(*models.MaintenanceStatus)
		assert.True(t, status.IsEnabled)
	case <-time.After(time.Second):
		t.Fatal("maintenance event was not published")
	}
}

func TestPoller_RunStopsOnContextCancel(t *testing.T) {
	api := &fakeAPI{}
	sessions := session.NewStore()
	sessions.Obtain("testuser")
	bus := events.NewBus()
	defer bus.Close()

	p := New(newNoopLogger(), api, sessions, bus, nil, nil, "testuser",
		10*time.Millisecond, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after context cancellation")
	}

	api.mu.Lock()
	calls := api.unreadCalls
	api.mu.Unlock()
	assert.GreaterOrEqual(t, calls, 2, "ticker cycles should have run")
}

type emitterFunc func(ctx context.Context, ent models.EntitlementState, sess *session.Session) (*models.MilestoneEvent, error)

func (f emitterFunc) Emit(ctx context.Context, ent models.EntitlementState, sess *session.Session) (*models.MilestoneEvent, error) {
	return f(ctx, ent, sess)
}

func TestPoller_MilestoneCheckUsesPolledEntitlement(t *testing.T) {
	api := &fakeAPI{entitlement: models.EntitlementState{Tier: models.TierFree, IsOnTrial: true, DaysRemaining: 5}}
	sessions := session.NewStore()
	sessions.Obtain("testuser")
	bus := events.NewBus()
	defer bus.Close()

	var got models.EntitlementState
	emitter := emitterFunc(func(_ context.Context, ent models.EntitlementState, _ *session.Session) (*models.MilestoneEvent, error) {
		got = ent
		return nil, nil
	})

	p := New(newNoopLogger(), api, sessions, bus, emitter, nil, "testuser",
		time.Hour, time.Hour)
	p.runUnreadCycle(context.Background())

	assert.Equal(t, 5, got.DaysRemaining)
}
