package store

import (
	"context"
	"sync"

	"mapsync/server/internal/editor/state"
)

// Memory is an in-process store for development and tests.
type Memory struct {
	mu        sync.Mutex
	snapshots map[string]state.DocumentSnapshot
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{snapshots: make(map[string]state.DocumentSnapshot)}
}

// Seed installs a snapshot without going through Save, so tests can set
// up rooms directly.
func (m *Memory) Seed(room string, snapshot state.DocumentSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[room] = snapshot
}

func (m *Memory) Load(_ context.Context, room string) (state.DocumentSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot, ok := m.snapshots[room]
	if !ok {
		return state.DocumentSnapshot{}, ErrNotFound
	}
	return snapshot, nil
}

func (m *Memory) Save(_ context.Context, room string, snapshot state.DocumentSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[room] = snapshot
	return nil
}
