// Package registry tracks the live editing session for each room,
// creating sessions on first join and retiring them when they stop.
package registry

import (
	"context"
	"sync"

	"mapsync/server/internal/editor"
	"mapsync/server/internal/store"
)

// Registry maps rooms to running sessions. A room has at most one live
// session; a new one is started from the stored snapshot when the first
// editor joins, and the entry is removed when the session's loop exits.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*editor.Session

	docs store.Store
	cfg  editor.Config
	deps editor.Deps
}

// New builds a Registry. Sessions persist through deps.Persister, which
// is set to docs when left nil.
func New(docs store.Store, cfg editor.Config, deps editor.Deps) *Registry {
	if deps.Persister == nil {
		deps.Persister = docs
	}
	return &Registry{
		sessions: make(map[string]*editor.Session),
		docs:     docs,
		cfg:      cfg,
		deps:     deps,
	}
}

// Join admits a profile into the room's session, starting one if needed.
// It fails with store.ErrNotFound when the room has no stored document.
func (r *Registry) Join(ctx context.Context, room string, profile editor.Profile) (*editor.Session, *editor.Presence, error) {
	for {
		s, err := r.acquire(ctx, room)
		if err != nil {
			return nil, nil, err
		}
		if p, ok := s.Join(profile); ok {
			return s, p, nil
		}
		// The session terminated between lookup and join; drop the stale
		// entry and start over.
		r.evict(room, s)
	}
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Rooms returns the rooms with a live session.
func (r *Registry) Rooms() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	rooms := make([]string, 0, len(r.sessions))
	for room := range r.sessions {
		rooms = append(rooms, room)
	}
	return rooms
}

func (r *Registry) acquire(ctx context.Context, room string) (*editor.Session, error) {
	r.mu.Lock()
	if s, ok := r.sessions[room]; ok {
		r.mu.Unlock()
		return s, nil
	}
	r.mu.Unlock()

	// Load outside the lock; a slow store must not stall other rooms.
	snapshot, err := r.docs.Load(ctx, room)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[room]; ok {
		return s, nil
	}
	s := editor.NewSession(room, &snapshot, r.cfg, r.deps)
	r.sessions[room] = s
	go func() {
		s.Run()
		r.evict(room, s)
	}()
	return s, nil
}

func (r *Registry) evict(room string, s *editor.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[room] == s {
		delete(r.sessions, room)
	}
}
