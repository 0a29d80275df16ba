package history

import (
	"sync"
	"time"
)

// Turn is one exchange: what the user said and what the bot answered.
type Turn struct {
	User string `json:"user"`
	Bot  string `json:"bot"`
}

type session struct {
	turns    []Turn
	dirty    bool
	lastSeen time.Time
}

// Manager keeps a capped conversation history per session id. Sessions that
// stay idle longer than the idle TTL are dropped on a later Append.
type Manager struct {
	mu        sync.RWMutex
	maxTurns  int
	idleTTL   time.Duration
	now       func() time.Time
	lastSweep time.Time
	sessions  map[string]*session
}

type Option func(*Manager)

// WithIdleTTL expires sessions without activity for d. Zero keeps sessions
// until Reset.
func WithIdleTTL(d time.Duration) Option {
	return func(m *Manager) { m.idleTTL = d }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a manager keeping at most maxTurns turns per session.
// A non-positive maxTurns keeps everything.
func NewManager(maxTurns int, opts ...Option) *Manager {
	m := &Manager{maxTurns: maxTurns, now: time.Now, sessions: make(map[string]*session)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Reset(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}

// Append adds a turn, dropping the oldest ones past the cap, and marks the
// session dirty.
func (m *Manager) Append(sessionID string, t Turn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweepLocked(now)

	s := m.sessions[sessionID]
	if s == nil {
		s = &session{}
		m.sessions[sessionID] = s
	}
	s.turns = append(s.turns, t)
	if m.maxTurns > 0 && len(s.turns) > m.maxTurns {
		s.turns = append([]Turn(nil), s.turns[len(s.turns)-m.maxTurns:]...)
	}
	s.dirty = true
	s.lastSeen = now
}

// sweepLocked drops idle sessions, at most once per idle TTL.
func (m *Manager) sweepLocked(now time.Time) {
	if m.idleTTL <= 0 || now.Sub(m.lastSweep) < m.idleTTL {
		return
	}
	for id, s := range m.sessions {
		if now.Sub(s.lastSeen) > m.idleTTL {
			delete(m.sessions, id)
		}
	}
	m.lastSweep = now
}

// Recent returns a copy of the last n turns (all of them when n <= 0). An
// expired session reads as empty even before it is swept.
func (m *Manager) Recent(sessionID string, n int) []Turn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.sessions[sessionID]
	if s == nil || m.expired(s) {
		return nil
	}
	turns := s.turns
	if n > 0 && len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

func (m *Manager) expired(s *session) bool {
	return m.idleTTL > 0 && m.now().Sub(s.lastSeen) > m.idleTTL
}

func (m *Manager) Get(sessionID string) []Turn { return m.Recent(sessionID, 0) }

// TakeDirty reports whether the session changed since the last call and clears
// the flag.
func (m *Manager) TakeDirty(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.sessions[sessionID]
	if s == nil || !s.dirty {
		return false
	}
	s.dirty = false
	return true
}

// Sessions returns how many sessions are held, including idle ones not yet swept.
func (m *Manager) Sessions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Session binds the manager to one session id.
func (m *Manager) Session(sessionID string) *Session {
	return &Session{m: m, id: sessionID}
}

// Session is a handle on a single conversation.
type Session struct {
	m  *Manager
	id string
}

func (s *Session) Append(t Turn)       { s.m.Append(s.id, t) }
func (s *Session) Recent(n int) []Turn { return s.m.Recent(s.id, n) }
