package editor

import (
	"sync"
	"sync/atomic"
)

// Profile is the authenticated identity a presence joins with.
type Profile struct {
	ProfileID   int64  `json:"profileId"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
}

// Presence is one connected client: a session-scoped id, the user's
// profile, and a bounded outbound queue. The transport drains Outbound
// into the socket; the session schedules encoded frames into it.
type Presence struct {
	ID      uint64
	Profile Profile

	send      chan []byte
	closeOnce sync.Once
	dropped   atomic.Bool
}

func newPresence(id uint64, profile Profile, queueSize int) *Presence {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Presence{
		ID:      id,
		Profile: profile,
		send:    make(chan []byte, queueSize),
	}
}

// Outbound exposes the frames queued for this presence.
func (p *Presence) Outbound() <-chan []byte {
	return p.send
}

// deliver queues a frame without blocking. A full queue means the client
// is too slow to keep up: the presence is dropped so its write pump exits
// and the connection closes.
func (p *Presence) deliver(frame []byte) bool {
	if p.dropped.Load() {
		return false
	}
	select {
	case p.send <- frame:
		return true
	default:
		p.Drop()
		return false
	}
}

// Drop closes the outbound queue. Safe to call more than once; after the
// first call every deliver is a no-op.
func (p *Presence) Drop() {
	p.closeOnce.Do(func() {
		p.dropped.Store(true)
		close(p.send)
	})
}

// Dropped reports whether the presence has been disconnected for falling
// behind.
func (p *Presence) Dropped() bool {
	return p.dropped.Load()
}
