package session

import (
	"context"
	"sync"
	"time"
)

// Memory keeps sessions in process. Expired entries are dropped when read
// and swept on each Create.
type Memory struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]Session

	// Now defaults to time.Now.
	Now func() time.Time
}

// NewMemory returns an empty store whose sessions live for ttl.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, sessions: make(map[string]Session)}
}

func (m *Memory) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m *Memory) Create(ctx context.Context, uid, email string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for id, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, id)
		}
	}

	s := newSession(uid, email, now, m.ttl)
	m.sessions[s.ID] = s
	return s, nil
}

func (m *Memory) Get(ctx context.Context, id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	if s.Expired(m.now()) {
		delete(m.sessions, id)
		return Session{}, ErrNotFound
	}
	return s, nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// Len reports how many sessions are held, expired or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Memory) Close() error { return nil }

var _ Store = (*Memory)(nil)
