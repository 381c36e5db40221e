package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventlens/entitlement-engine/internal/models"
)

func TestSession_MarkFired(t *testing.T) {
	s := New("testuser")
	assert.Equal(t, "testuser", s.Username())
	assert.False(t, s.HasFired("trial-expiry-7"))

	first := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	s.MarkFired("trial-expiry-7", first)
	assert.True(t, s.HasFired("trial-expiry-7"))
	assert.Equal(t, 1, s.FiredCount())

	// Повторная фиксация не перезаписывает запись и не множит счётчик.
	s.MarkFired("trial-expiry-7", first.Add(time.Hour))
	assert.Equal(t, 1, s.FiredCount())

	s.MarkFired("trial-expiry-3", first)
	assert.Equal(t, 2, s.FiredCount())
}

func TestSession_MarkDelivered(t *testing.T) {
	s := New("testuser")
	assert.False(t, s.HasDelivered("trial-expiry-7/delivery-0"))

	s.MarkDelivered("trial-expiry-7/delivery-0")
	assert.True(t, s.HasDelivered("trial-expiry-7/delivery-0"))
	assert.False(t, s.HasDelivered("trial-expiry-7/delivery-1"))

	// Доставки отдельным получателям не считаются отправленными вехами.
	assert.Zero(t, s.FiredCount())
	assert.False(t, s.HasFired("trial-expiry-7"))
}

func TestSession_Counter(t *testing.T) {
	s := New("testuser")
	assert.True(t, s.Counter().IsFirstLoad)

	s.SetCounter(models.UnreadCounterState{LastCount: 7})
	got := s.Counter()
	assert.Equal(t, 7, got.LastCount)
	assert.False(t, got.IsFirstLoad)
}

func TestStore_Lifecycle(t *testing.T) {
	st := NewStore()

	_, ok := st.Get("testuser")
	assert.False(t, ok)

	s := st.Obtain("testuser")
	require.NotNil(t, s)
	assert.Same(t, s, st.Obtain("testuser"))

	got, ok := st.Get("testuser")
	require.True(t, ok)
	assert.Same(t, s, got)

	st.Destroy("testuser")
	_, ok = st.Get("testuser")
	assert.False(t, ok)

	// Новый логин после выхода начинает с чистого множества вех.
	s.MarkFired("trial-expiry-7", time.Now())
	fresh := st.Obtain("testuser")
	assert.NotSame(t, s, fresh)
	assert.False(t, fresh.HasFired("trial-expiry-7"))
}

func TestStore_ConcurrentObtain(t *testing.T) {
	st := NewStore()

	var wg sync.WaitGroup
	sessions := make([]*Session, 16)
	for i := range sessions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sessions[i] = st.Obtain("testuser")
		}(i)
	}
	wg.Wait()

	for _, s := range sessions {
		assert.Same(t, sessions[0], s)
	}
}
