// Package net wires the HTTP surface: health and diagnostics endpoints
// plus the websocket upgrade that admits editors into a room session.
package net

import (
	"encoding/json"
	"errors"
	"log"
	nethttp "net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"mapsync/server/internal/auth"
	"mapsync/server/internal/editor"
	"mapsync/server/internal/net/ws"
	"mapsync/server/internal/registry"
	"mapsync/server/internal/store"
	"mapsync/server/internal/telemetry"
	"mapsync/server/logging"
)

// HTTPHandlerConfig carries the optional collaborators of the handler.
type HTTPHandlerConfig struct {
	Logger    *log.Logger
	Metrics   telemetry.Metrics
	Publisher logging.Publisher
}

// NewHTTPHandler builds the router. Tokens are required on the edit
// endpoint; health and diagnostics are open.
func NewHTTPHandler(reg *registry.Registry, verifier *auth.Verifier, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	connHandler := ws.NewHandler(logger, cfg.Publisher)

	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	}).Methods(nethttp.MethodGet)

	r.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		payload := struct {
			Status     string            `json:"status"`
			ServerTime int64             `json:"serverTime"`
			Sessions   []string          `json:"sessions"`
			Counters   map[string]uint64 `json:"counters,omitempty"`
		}{
			Status:     "ok",
			ServerTime: time.Now().UnixMilli(),
			Sessions:   reg.Rooms(),
		}
		if counters, ok := cfg.Metrics.(*telemetry.Counters); ok {
			payload.Counters = counters.Snapshot()
		}

		data, err := json.Marshal(payload)
		if err != nil {
			nethttp.Error(w, "failed to encode", nethttp.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}).Methods(nethttp.MethodGet)

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(*nethttp.Request) bool {
			return true
		},
	}

	r.HandleFunc("/edit/{room}", func(w nethttp.ResponseWriter, req *nethttp.Request) {
		room := mux.Vars(req)["room"]

		token := req.URL.Query().Get("token")
		if token == "" {
			nethttp.Error(w, "missing token", nethttp.StatusUnauthorized)
			return
		}
		claims, err := verifier.Verify(token, room)
		if err != nil {
			nethttp.Error(w, "invalid token", nethttp.StatusForbidden)
			return
		}

		profile := editor.Profile{
			ProfileID:   claims.ProfileID,
			DisplayName: claims.DisplayName,
			AvatarURL:   claims.AvatarURL,
		}

		session, presence, err := reg.Join(req.Context(), room, profile)
		if errors.Is(err, store.ErrNotFound) {
			nethttp.Error(w, "unknown room", nethttp.StatusNotFound)
			return
		}
		if err != nil {
			logger.Printf("join failed for room %s: %v", room, err)
			nethttp.Error(w, "session unavailable", nethttp.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			logger.Printf("upgrade failed for room %s: %v", room, err)
			session.Leave(presence.ID)
			return
		}

		connHandler.Serve(session, presence, conn)
	}).Methods(nethttp.MethodGet)

	return r
}
