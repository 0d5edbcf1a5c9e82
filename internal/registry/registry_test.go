package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"mapsync/server/internal/editor"
	"mapsync/server/internal/editor/state"
	"mapsync/server/internal/store"
)

func testConfig() editor.Config {
	cfg := editor.DefaultConfig()
	cfg.TickInterval = time.Millisecond
	cfg.PersistEvery = 0
	return cfg
}

func seededStore(rooms ...string) *store.Memory {
	docs := store.NewMemory()
	for _, room := range rooms {
		docs.Seed(room, state.DocumentSnapshot{
			HitObjects: []state.HitObject{{StartTime: 100, Kind: state.KindCircle}},
		})
	}
	return docs
}

func TestJoinCreatesSessionOnFirstUse(t *testing.T) {
	r := New(seededStore("room-1"), testConfig(), editor.Deps{})

	s1, p1, err := r.Join(context.Background(), "room-1", editor.Profile{DisplayName: "one"})
	if err != nil {
		t.Fatalf("unexpected join error: %v", err)
	}
	if r.Len() != 1 {
		t.Fatalf("expected one live session, got %d", r.Len())
	}

	s2, p2, err := r.Join(context.Background(), "room-1", editor.Profile{DisplayName: "two"})
	if err != nil {
		t.Fatalf("unexpected second join error: %v", err)
	}
	if s1 != s2 {
		t.Fatalf("expected both joins to share one session")
	}
	if p1.ID == p2.ID {
		t.Fatalf("expected distinct presence ids, both got %d", p1.ID)
	}

	s1.Leave(p1.ID)
	s1.Leave(p2.ID)
}

func TestJoinUnknownRoomFails(t *testing.T) {
	r := New(seededStore(), testConfig(), editor.Deps{})

	_, _, err := r.Join(context.Background(), "missing", editor.Profile{DisplayName: "one"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for an unseeded room, got %v", err)
	}
	if r.Len() != 0 {
		t.Fatalf("expected no session for a failed join, got %d", r.Len())
	}
}

func TestSessionEvictedAfterIdleTermination(t *testing.T) {
	cfg := testConfig()
	cfg.IdleTicks = 2
	r := New(seededStore("room-1"), cfg, editor.Deps{})

	s, p, err := r.Join(context.Background(), "room-1", editor.Profile{DisplayName: "one"})
	if err != nil {
		t.Fatalf("unexpected join error: %v", err)
	}
	s.Leave(p.ID)

	deadline := time.Now().Add(2 * time.Second)
	for r.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expected the idle session to be evicted")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// A fresh join after eviction starts a new session.
	s2, p2, err := r.Join(context.Background(), "room-1", editor.Profile{DisplayName: "two"})
	if err != nil {
		t.Fatalf("unexpected rejoin error: %v", err)
	}
	if s2 == s {
		t.Fatalf("expected a new session after eviction")
	}
	s2.Leave(p2.ID)
}

func TestRoomsListsLiveSessions(t *testing.T) {
	r := New(seededStore("room-1", "room-2"), testConfig(), editor.Deps{})

	if _, _, err := r.Join(context.Background(), "room-1", editor.Profile{DisplayName: "one"}); err != nil {
		t.Fatalf("unexpected join error: %v", err)
	}
	if _, _, err := r.Join(context.Background(), "room-2", editor.Profile{DisplayName: "two"}); err != nil {
		t.Fatalf("unexpected join error: %v", err)
	}

	rooms := r.Rooms()
	if len(rooms) != 2 {
		t.Fatalf("expected 2 live rooms, got %d", len(rooms))
	}
}
