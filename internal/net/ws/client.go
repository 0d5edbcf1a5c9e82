// Package ws runs the websocket side of an editing connection: one read
// loop feeding the session's command queue and one write pump draining
// the presence's outbound queue.
package ws

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"mapsync/server/internal/editor"
	"mapsync/server/logging"
	"mapsync/server/logging/network"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxFrameSize = 256 * 1024
)

// Handler serves websocket connections for one session registry.
type Handler struct {
	logger    *log.Logger
	publisher logging.Publisher
}

// NewHandler constructs a connection handler.
func NewHandler(logger *log.Logger, publisher logging.Publisher) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	return &Handler{logger: logger, publisher: publisher}
}

// Serve runs the connection until the peer disconnects, the presence is
// dropped, or the session terminates. It blocks in the read loop and
// leaves the session on the way out.
func (h *Handler) Serve(s *editor.Session, p *editor.Presence, conn *websocket.Conn) {
	if h == nil || s == nil || p == nil || conn == nil {
		return
	}

	done := make(chan struct{})
	go h.writePump(p, conn, done)

	h.readPump(s, p, conn)

	s.Leave(p.ID)
	<-done
}

func (h *Handler) readPump(s *editor.Session, p *editor.Presence, conn *websocket.Conn) {
	conn.SetReadLimit(maxFrameSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		msg, err := editor.DecodeClientMessage(payload)
		if err != nil {
			h.logger.Printf("discarding malformed frame from presence %d in %s: %v", p.ID, s.Room(), err)
			network.DecodeFailed(context.Background(), h.publisher, s.Room(),
				logging.EntityRef{ID: strconv.FormatUint(p.ID, 10), Kind: logging.EntityKindUser},
				network.DecodeFailedPayload{Reason: err.Error()})
			continue
		}

		if !s.Enqueue(p.ID, msg) {
			return
		}
	}
}

// writePump forwards queued frames to the socket and keeps the
// connection alive with pings. It exits when the presence's outbound
// channel closes, and closes the connection on the way out so the read
// loop unblocks.
func (h *Handler) writePump(p *editor.Presence, conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	defer conn.Close()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	outbound := p.Outbound()
	for {
		select {
		case frame, ok := <-outbound:
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
