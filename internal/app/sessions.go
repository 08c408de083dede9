package app

import (
	"sync"

	"github.com/haytac/emote-relay/internal/database"
	"github.com/haytac/emote-relay/internal/emote"
	"github.com/haytac/emote-relay/internal/metrics"
)

// SessionManager keeps one emote session per channel name.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*emote.Session
}

// NewSessionManager creates an empty manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{sessions: make(map[string]*emote.Session)}
}

// Get returns the session of a channel if one exists.
func (m *SessionManager) Get(name string) (*emote.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[name]
	return s, ok
}

// GetOrCreate returns the channel's session, building one with newLoader when
// missing. created reports whether the session is new.
func (m *SessionManager) GetOrCreate(c *database.Channel, newLoader func(*database.Channel) (*emote.Loader, error)) (s *emote.Session, created bool, err error) {
	if s, ok := m.Get(c.Name); ok {
		return s, false, nil
	}

	loader, err := newLoader(c)
	if err != nil {
		return nil, false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[c.Name]; ok {
		return s, false, nil
	}
	s = emote.NewSession(c.PlatformUserID, c.Name, loader)
	m.sessions[c.Name] = s
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
	return s, true, nil
}

// Remove drops a channel's session.
func (m *SessionManager) Remove(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[name]; !ok {
		return
	}
	delete(m.sessions, name)
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
}

// Len returns the number of live sessions.
func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
