package session

import (
	"errors"
	"fmt"
	"sync"

	"docent.chat/docent/common/id"
)

var ErrNotFound = errors.New("session not found")

// Manager is the in-memory session registry. Sessions live for the process
// lifetime or until explicitly ended; nothing is persisted.
type Manager struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[int64]*Session),
	}
}

// Create registers a new session under a freshly minted ID.
func (m *Manager) Create() *Session {
	sess := New(id.New())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess

	return sess
}

// Get returns the session with the given ID.
func (m *Manager) Get(id int64) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: id=%d", ErrNotFound, id)
	}

	return sess, nil
}

// Delete removes the session with the given ID.
func (m *Manager) Delete(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: id=%d", ErrNotFound, id)
	}
	delete(m.sessions, id)

	return nil
}

// Len reports how many sessions are currently registered.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
