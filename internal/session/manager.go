package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"
)

// ErrNotFound is returned for unknown session ids.
var ErrNotFound = errors.New("session not found")

// Manager keeps the open sessions in memory.
type Manager struct {
	opts Options
	log  *log.Helper

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty Manager.
func NewManager(opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = log.DefaultLogger
	}
	return &Manager{
		opts:     opts,
		log:      log.NewHelper(log.With(opts.Logger, "module", "session")),
		sessions: make(map[string]*Session),
	}
}

// Create opens a new session.
func (m *Manager) Create() *Session {
	s := newSession(m.opts)
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	m.log.Infof("session %s opened", s.ID)
	return s
}

// Get returns the session with id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Close closes and forgets the session with id.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	s.Close()
	m.log.Infof("session %s closed", id)
	return nil
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Reap closes sessions idle for longer than idle and without a round in
// flight. It returns how many were closed.
func (m *Manager) Reap(now time.Time, idle time.Duration) int {
	m.mu.Lock()
	var stale []*Session
	for id, s := range m.sessions {
		if s.IdleFor(now) > idle && !s.Running(KindSoftware) && !s.Running(KindInfo) {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.Close()
		m.log.Infof("session %s expired", s.ID)
	}
	return len(stale)
}

// Run reaps idle sessions until ctx is cancelled, then closes the rest.
// A zero idle disables reaping.
func (m *Manager) Run(ctx context.Context, idle time.Duration) {
	defer m.CloseAll()
	if idle <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(idle / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.Reap(now, idle)
		}
	}
}

// CloseAll closes every session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range all {
		s.Close()
	}
}
