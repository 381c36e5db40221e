// Package session хранит эфемерное состояние аутентифицированной сессии:
// множество отправленных вех истечения и состояние счётчика непрочитанных
// уведомлений. Состояние создаётся при логине и уничтожается при выходе,
// нигде не персистится.
package session

import (
	"sync"
	"time"

	"github.com/eventlens/entitlement-engine/internal/models"
)

// Session — состояние одной сессии пользователя.
// Все методы потокобезопасны: поллеры и обработчики обращаются
// к сессии конкурентно.
type Session struct {
	mu        sync.Mutex
	username  string
	fired     map[string]models.MilestoneRecord
	delivered map[string]struct{}
	counter   models.UnreadCounterState
}

// New создаёт пустую сессию для пользователя.
func New(username string) *Session {
	return &Session{
		username:  username,
		fired:     make(map[string]models.MilestoneRecord),
		delivered: make(map[string]struct{}),
		counter:   models.NewUnreadCounterState(),
	}
}

// Username возвращает имя владельца сессии.
func (s *Session) Username() string {
	return s.username
}

// HasFired проверяет, отправлялась ли веха в рамках этой сессии.
func (s *Session) HasFired(milestoneID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.fired[milestoneID]
	return ok
}

// MarkFired фиксирует отправленную веху. Повторная фиксация
// не изменяет время первой отправки.
func (s *Session) MarkFired(milestoneID string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.fired[milestoneID]; ok {
		return
	}
	s.fired[milestoneID] = models.MilestoneRecord{MilestoneID: milestoneID, FiredAt: at}
}

// HasDelivered проверяет, была ли веха уже доставлена конкретному
// получателю. Ключ формирует отправитель вех.
func (s *Session) HasDelivered(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.delivered[key]
	return ok
}

// MarkDelivered фиксирует доставку вехи конкретному получателю,
// чтобы повторный цикл после частичного сбоя не дублировал её.
func (s *Session) MarkDelivered(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delivered[key] = struct{}{}
}

// FiredCount возвращает число отправленных вех.
func (s *Session) FiredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fired)
}

// Counter возвращает копию состояния счётчика непрочитанных.
func (s *Session) Counter() models.UnreadCounterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counter
}

// SetCounter заменяет состояние счётчика непрочитанных.
func (s *Session) SetCounter(state models.UnreadCounterState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter = state
}

// Store — реестр активных сессий по имени пользователя.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore создаёт пустой реестр сессий.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Obtain возвращает сессию пользователя, создавая её при первом обращении.
func (st *Store) Obtain(username string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[username]; ok {
		return s
	}
	s := New(username)
	st.sessions[username] = s
	return s
}

// Get возвращает сессию пользователя, если она существует.
func (st *Store) Get(username string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[username]
	return s, ok
}

// All возвращает снимок списка активных сессий.
func (st *Store) All() []*Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	sessions := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

// Destroy удаляет сессию пользователя. Ответы запросов, выданных до
// удаления, не должны иметь эффекта: вызывающий код обязан заново
// получить сессию перед записью результата.
func (st *Store) Destroy(username string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, username)
}
