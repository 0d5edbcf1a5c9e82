package net

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"mapsync/server/internal/auth"
	"mapsync/server/internal/editor"
	"mapsync/server/internal/editor/state"
	"mapsync/server/internal/registry"
	"mapsync/server/internal/store"
)

var testSecret = []byte("handler-test-secret")

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	docs := store.NewMemory()
	docs.Seed("room-1", state.DocumentSnapshot{
		HitObjects: []state.HitObject{{StartTime: 100, Kind: state.KindCircle}},
	})

	cfg := editor.DefaultConfig()
	cfg.TickInterval = 5 * time.Millisecond
	cfg.PersistEvery = 0

	reg := registry.New(docs, cfg, editor.Deps{})
	verifier, err := auth.NewVerifier(testSecret)
	if err != nil {
		t.Fatalf("unexpected verifier error: %v", err)
	}

	srv := httptest.NewServer(NewHTTPHandler(reg, verifier, HTTPHandlerConfig{}))
	t.Cleanup(srv.Close)
	return srv
}

func joinToken(t *testing.T, room string) string {
	t.Helper()
	token, err := auth.Sign(testSecret, room, auth.Claims{DisplayName: "mapper", ProfileID: 7}, time.Minute)
	if err != nil {
		t.Fatalf("unexpected sign error: %v", err)
	}
	return token
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("unexpected request error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestDiagnostics(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/diagnostics")
	if err != nil {
		t.Fatalf("unexpected request error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var payload struct {
		Status   string   `json:"status"`
		Sessions []string `json:"sessions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode diagnostics: %v", err)
	}
	if payload.Status != "ok" {
		t.Fatalf("expected ok status, got %q", payload.Status)
	}
}

func TestEditRequiresToken(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/edit/room-1")
	if err != nil {
		t.Fatalf("unexpected request error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", resp.StatusCode)
	}
}

func TestEditRejectsBadToken(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/edit/room-1?token=garbage")
	if err != nil {
		t.Fatalf("unexpected request error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for a bad token, got %d", resp.StatusCode)
	}
}

func TestEditRejectsTokenForOtherRoom(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/edit/room-1?token=" + joinToken(t, "room-2"))
	if err != nil {
		t.Fatalf("unexpected request error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for a cross-room token, got %d", resp.StatusCode)
	}
}

func TestEditUnknownRoom(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/edit/missing?token=" + joinToken(t, "missing"))
	if err != nil {
		t.Fatalf("unexpected request error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for an unseeded room, got %d", resp.StatusCode)
	}
}

func TestEditWebsocketHandshake(t *testing.T) {
	srv := newTestServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/edit/room-1?token=" + joinToken(t, "room-1")

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("unexpected dial error: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("unexpected read error: %v", err)
	}

	var msg struct {
		Command struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		} `json:"command"`
	}
	if err := json.Unmarshal(frame, &msg); err != nil {
		t.Fatalf("failed to decode first frame: %v", err)
	}
	if msg.Command.Type != editor.SrvOwnID {
		t.Fatalf("expected the first frame to carry the presence id, got %q", msg.Command.Type)
	}
	var id uint64
	if err := json.Unmarshal(msg.Command.Payload, &id); err != nil || id == 0 {
		t.Fatalf("expected a positive presence id, got %d (err %v)", id, err)
	}
}
