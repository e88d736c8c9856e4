package session

import (
	"sync"

	"github.com/google/uuid"
	"github.com/jonathan/bias-detector/internal/catalog"
	"github.com/jonathan/bias-detector/internal/scoring"
)

// Manager is a registry of live sessions keyed by id. New sessions pick up
// whatever catalog the holder currently publishes; existing sessions keep
// the catalog they were created with.
type Manager struct {
	holder *catalog.Holder
	scorer *scoring.Scorer

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewManager creates an empty registry.
func NewManager(holder *catalog.Holder, scorer *scoring.Scorer) *Manager {
	return &Manager{
		holder:   holder,
		scorer:   scorer,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Create starts and registers a new session.
func (m *Manager) Create(opts Options) *Session {
	s := New(m.holder.Load(), m.scorer, opts)
	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	return s
}

// Get looks up a session.
func (m *Manager) Get(id uuid.UUID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Delete removes a session and reports whether it existed.
func (m *Manager) Delete(id uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
