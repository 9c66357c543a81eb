package timeline

import (
	"sync"

	apperrors "github.com/kairodev/kairo/internal/errors"
)

// Manager shards threads by id. Each thread folds its own stream; the
// manager only guards the map.
type Manager struct {
	mu      sync.RWMutex
	threads map[string]*Thread
}

func NewManager() *Manager {
	return &Manager{threads: make(map[string]*Thread)}
}

// Thread returns the thread for the id, creating it on first use.
func (m *Manager) Thread(id string) *Thread {
	m.mu.RLock()
	t, ok := m.threads[id]
	m.mu.RUnlock()
	if ok {
		return t
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok = m.threads[id]; ok {
		return t
	}
	t = NewThread(id)
	m.threads[id] = t
	return t
}

// Lookup returns the thread without creating it.
func (m *Manager) Lookup(id string) (*Thread, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.threads[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return t, nil
}

// IsStreaming reports whether the thread currently has a run in
// flight. An unknown id is simply not streaming.
func (m *Manager) IsStreaming(id string) bool {
	t, err := m.Lookup(id)
	if err != nil {
		return false
	}
	return t.Active()
}

// Put installs a restored thread, replacing any in-memory state.
func (m *Manager) Put(t *Thread) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threads[t.ID()] = t
}

// Remove drops the thread from memory.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.threads, id)
}

// IDs returns the ids of all resident threads.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.threads))
	for id := range m.threads {
		out = append(out, id)
	}
	return out
}
