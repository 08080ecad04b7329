package services

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/lexiq/internal/core/ports/driving"
)

// Ensure SessionManager implements the interface.
var _ driving.SessionService = (*SessionManager)(nil)

// Session is one document's re-analysis scope.
type Session struct {
	// ID identifies the document.
	ID string

	// Policy holds the document's state machine and cache.
	Policy *ReanalysisPolicy

	// CreatedAt is when the session was opened.
	CreatedAt time.Time
}

// PolicyFactory builds a fresh policy, with its own cache, for a new session.
type PolicyFactory func() *ReanalysisPolicy

// SessionManager owns one ReanalysisPolicy per document so documents never
// share cached results or "last analysed" state.
type SessionManager struct {
	mu       sync.Mutex
	factory  PolicyFactory
	sessions map[string]*Session
}

// NewSessionManager creates an empty manager.
func NewSessionManager(factory PolicyFactory) *SessionManager {
	return &SessionManager{
		factory:  factory,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for id, creating it on first use.
// An empty id opens a session with a generated ID.
func (m *SessionManager) Get(id string) *Session {
	if id == "" {
		id = uuid.New().String()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s
	}
	s := &Session{ID: id, Policy: m.factory(), CreatedAt: time.Now()}
	m.sessions[id] = s
	return s
}

// Lookup returns the session for id without creating it.
func (m *SessionManager) Lookup(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Open implements driving.SessionService.
func (m *SessionManager) Open(id string) (string, driving.ReanalysisService) {
	s := m.Get(id)
	return s.ID, s.Policy
}

// Find implements driving.SessionService.
func (m *SessionManager) Find(id string) (driving.ReanalysisService, bool) {
	s, ok := m.Lookup(id)
	if !ok {
		return nil, false
	}
	return s.Policy, true
}

// Remove closes the session for id. It reports whether one existed.
func (m *SessionManager) Remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

// IDs returns the open session IDs in sorted order.
func (m *SessionManager) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
