// Package session provides chat-keyed session stores and cancellable
// one-shot tasks for the mini-games.
package session

import "sync"

// Store is a chat-id keyed session map owned by one game kind.
type Store[T any] interface {
	Get(chatID string) (T, bool)
	Set(chatID string, s T)
	Delete(chatID string)
	Has(chatID string) bool
	Len() int
}

// MemoryStore is an in-memory Store. Sessions do not survive a restart.
type MemoryStore[T any] struct {
	mu       sync.RWMutex
	sessions map[string]T
}

// NewMemoryStore creates an empty store.
func NewMemoryStore[T any]() *MemoryStore[T] {
	return &MemoryStore[T]{sessions: make(map[string]T)}
}

// Get returns the session for chatID.
func (m *MemoryStore[T]) Get(chatID string) (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[chatID]
	return s, ok
}

// Set stores s for chatID, replacing any previous session.
func (m *MemoryStore[T]) Set(chatID string, s T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[chatID] = s
}

// Delete removes the session for chatID.
func (m *MemoryStore[T]) Delete(chatID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, chatID)
}

// Has reports whether chatID has a session.
func (m *MemoryStore[T]) Has(chatID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sessions[chatID]
	return ok
}

// Len returns the number of active sessions.
func (m *MemoryStore[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
