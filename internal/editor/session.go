package editor

import (
	"context"
	"strconv"
	"sync"
	"time"

	"mapsync/server/internal/editor/state"
	"mapsync/server/internal/telemetry"
	"mapsync/server/logging"
	"mapsync/server/logging/lifecycle"
	"mapsync/server/logging/network"
	loggingStorage "mapsync/server/logging/storage"
)

// Telemetry counter keys.
const (
	metricTicksTotal         = "editor_ticks_total"
	metricCommandsProcessed  = "editor_commands_processed_total"
	metricCommandsDropped    = "editor_commands_dropped_total"
	metricInvalidPayloads    = "editor_invalid_payloads_total"
	metricUnauthorizedEdits  = "editor_unauthorized_edits_total"
	metricFramesSent         = "editor_frames_sent_total"
	metricFramesDropped      = "editor_frames_dropped_total"
	metricPersistFailures    = "editor_persist_failures_total"
	metricPendingCommandPeak = "editor_pending_commands_peak"
	metricSessionsTerminated = "editor_sessions_terminated_total"
)

// Persister saves document snapshots. Saves are best-effort: a failure is
// logged and never affects the tick loop.
type Persister interface {
	Save(ctx context.Context, room string, snap state.DocumentSnapshot) error
}

// Config tunes one session's tick loop.
type Config struct {
	TickInterval   time.Duration
	IdleTicks      int
	PersistEvery   int
	SendQueueSize  int
	PendingLimit   int
	PersistTimeout time.Duration
}

// DefaultConfig matches the legacy cadence: 50 ms ticks, ~10 s idle
// shutdown, snapshot every ~30 s.
func DefaultConfig() Config {
	return Config{
		TickInterval:   50 * time.Millisecond,
		IdleTicks:      200,
		PersistEvery:   600,
		SendQueueSize:  256,
		PendingLimit:   4096,
		PersistTimeout: 10 * time.Second,
	}
}

// Normalized fills zero fields with defaults.
func (c Config) Normalized() Config {
	def := DefaultConfig()
	if c.TickInterval <= 0 {
		c.TickInterval = def.TickInterval
	}
	if c.IdleTicks <= 0 {
		c.IdleTicks = def.IdleTicks
	}
	if c.PersistEvery < 0 {
		c.PersistEvery = 0
	}
	if c.SendQueueSize <= 0 {
		c.SendQueueSize = def.SendQueueSize
	}
	if c.PendingLimit <= 0 {
		c.PendingLimit = def.PendingLimit
	}
	if c.PersistTimeout <= 0 {
		c.PersistTimeout = def.PersistTimeout
	}
	return c
}

type sessionStatus int

const (
	statusActive sessionStatus = iota
	statusTerminated
)

type queuedMessage struct {
	presence *Presence
	msg      ClientMessage
}

// Deps are the injected collaborators of a session.
type Deps struct {
	Persister Persister
	Logger    telemetry.Logger
	Metrics   telemetry.Metrics
	Publisher logging.Publisher
}

func (d Deps) normalized() Deps {
	if d.Logger == nil {
		d.Logger = telemetry.LoggerFunc(func(string, ...any) {})
	}
	if d.Metrics == nil {
		d.Metrics = telemetry.NewCounters()
	}
	if d.Publisher == nil {
		d.Publisher = logging.NopPublisher()
	}
	return d
}

// Session is the authoritative engine for one room. All document mutation
// happens inside Tick while the session mutex is held; join, leave, and
// command enqueueing only stage work for the next tick under the same
// mutex.
type Session struct {
	room string
	cfg  Config

	mu         sync.Mutex
	doc        *state.Document
	presences  []*Presence
	pending    []queuedMessage
	status     sessionStatus
	tick       uint64
	nextPresID uint64

	persister Persister
	logger    telemetry.Logger
	metrics   telemetry.Metrics
	publisher logging.Publisher
}

// NewSession builds a session around an already-loaded document snapshot.
// A load failure is handled by the caller: no snapshot, no session.
func NewSession(room string, snap *state.DocumentSnapshot, cfg Config, deps Deps) *Session {
	deps = deps.normalized()
	return &Session{
		room:      room,
		cfg:       cfg.Normalized(),
		doc:       state.NewDocument(snap),
		persister: deps.Persister,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
		publisher: deps.Publisher,
	}
}

// Room returns the room identifier this session serves.
func (s *Session) Room() string {
	return s.room
}

// Join registers a new presence and queues its UserJoined event for the
// next tick. It fails once the session has terminated.
func (s *Session) Join(profile Profile) (*Presence, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != statusActive {
		return nil, false
	}
	s.nextPresID++
	p := newPresence(s.nextPresID, profile, s.cfg.SendQueueSize)
	s.presences = append(s.presences, p)
	s.doc.PushEvent(state.Event{Kind: state.EventUserJoined, PresenceID: p.ID})
	return p, true
}

// Leave removes the presence immediately and queues its UserLeft event so
// the next tick broadcasts the departure and releases its locks.
func (s *Session) Leave(presenceID uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.presences {
		if p.ID == presenceID {
			s.presences = append(s.presences[:i], s.presences[i+1:]...)
			p.Drop()
			s.doc.PushEvent(state.Event{Kind: state.EventUserLeft, PresenceID: presenceID})
			return
		}
	}
}

// Enqueue stages an inbound command for the next tick. Nothing is mutated
// here; arrival order is preserved.
func (s *Session) Enqueue(presenceID uint64, msg ClientMessage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != statusActive {
		return false
	}
	p := s.presenceLocked(presenceID)
	if p == nil {
		return false
	}
	if len(s.pending) >= s.cfg.PendingLimit {
		s.metrics.Add(metricCommandsDropped, 1)
		s.logger.Printf("[backpressure] dropping command room=%s presence=%d pending=%d", s.room, presenceID, len(s.pending))
		return false
	}
	s.pending = append(s.pending, queuedMessage{presence: p, msg: msg})
	s.metrics.Store(metricPendingCommandPeak, uint64(len(s.pending)))
	return true
}

// Run drives the fixed-cadence tick loop until the session terminates on
// idle timeout. Sessions have no external cancellation signal.
func (s *Session) Run() {
	lifecycle.SessionStarted(context.Background(), s.publisher, s.room)
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()
	for range ticker.C {
		if !s.Tick() {
			return
		}
	}
}

// Tick executes one drain-process-broadcast cycle and reports whether the
// session should keep running.
func (s *Session) Tick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tick++
	s.metrics.Add(metricTicksTotal, 1)
	d := NewDispatcher()

	for _, ev := range s.doc.DrainEvents() {
		s.handleEvent(ev, d)
	}

	pending := s.pending
	s.pending = nil
	for _, qm := range pending {
		s.handleMessage(qm.presence, qm.msg, d)
		s.metrics.Add(metricCommandsProcessed, 1)
	}

	d.Broadcast(tickCommand(s.userTicksLocked()))

	if len(s.presences) == 0 {
		s.doc.EmptyTicks++
	} else {
		s.doc.EmptyTicks = 0
	}

	d.Flush(s)

	if s.cfg.PersistEvery > 0 && s.persister != nil && s.tick%uint64(s.cfg.PersistEvery) == 0 {
		go s.persist(s.doc.Snapshot(), s.tick)
	}

	if s.doc.EmptyTicks >= s.cfg.IdleTicks {
		s.status = statusTerminated
		s.metrics.Add(metricSessionsTerminated, 1)
		lifecycle.SessionEnded(context.Background(), s.publisher, s.room, s.tick, lifecycle.SessionEndedPayload{
			Ticks:      s.tick,
			EmptyTicks: s.doc.EmptyTicks,
		})
		if s.persister != nil {
			go s.persist(s.doc.Snapshot(), s.tick)
		}
		return false
	}
	return true
}

// Terminated reports whether the session has shut down.
func (s *Session) Terminated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status == statusTerminated
}

// PresenceCount reports the number of connected presences.
func (s *Session) PresenceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.presences)
}

func (s *Session) handleEvent(ev state.Event, d *Dispatcher) {
	switch ev.Kind {
	case state.EventUserJoined:
		s.handleUserJoined(ev.PresenceID, d)
	case state.EventUserLeft:
		s.handleUserLeft(ev.PresenceID, d)
	}
}

func (s *Session) handleMessage(p *Presence, msg ClientMessage, d *Dispatcher) {
	switch cmd := msg.Command.(type) {
	case CursorPosCommand:
		s.handleCursorPos(p, cmd)
	case CurrentTimeCommand:
		s.handleCurrentTime(p, cmd)
	case SelectHitObjectsCommand:
		s.handleSelection(p, cmd.IDs, cmd.Selected, cmd.Unique, d)
	case CreateHitObjectCommand:
		s.handleCreateHitObject(p, cmd.HitObject, msg.ResponseID, d)
	case UpdateHitObjectCommand:
		s.handleUpdateHitObject(p, cmd.HitObject, d)
	case DeleteHitObjectsCommand:
		s.handleDeleteHitObjects(p, cmd.IDs, false, d)
	case CreateTimingPointCommand:
		s.handleCreateTimingPoint(cmd.TimingPoint, msg.ResponseID, d)
	case UpdateTimingPointCommand:
		s.handleUpdateTimingPoint(cmd.TimingPoint, d)
	case DeleteTimingPointsCommand:
		s.handleDeleteTimingPoints(cmd.IDs, d)
	case SetHitObjectOverridesCommand:
		s.handleSetOverrides(p, cmd.ID, cmd.Overrides, d)
	default:
		s.logger.Printf("unhandled command from presence %d in room %s", p.ID, s.room)
	}
}

func (s *Session) handleUserJoined(presenceID uint64, d *Dispatcher) {
	p := s.presenceLocked(presenceID)
	if p == nil {
		// Disconnected before the join event was processed; the queued
		// UserLeft event will find nothing to remove.
		return
	}
	user := state.UserInfo{
		ID:          p.ID,
		DisplayName: p.Profile.DisplayName,
		AvatarURL:   p.Profile.AvatarURL,
		ProfileID:   p.Profile.ProfileID,
	}
	s.doc.Users.Add(user)

	d.SendTo(ownIDCommand(p.ID), p.ID)
	d.Broadcast(userJoinedCommand(user))
	d.Broadcast(userListCommand(append([]state.UserInfo(nil), s.doc.Users.All()...)))
	d.SendTo(stateCommand(s.doc), p.ID)

	lifecycle.UserJoined(context.Background(), s.publisher, s.room, s.tick, userRef(p.ID))
}

func (s *Session) handleUserLeft(presenceID uint64, d *Dispatcher) {
	user, ok := s.doc.Users.Remove(presenceID)
	if !ok {
		return
	}
	released := s.doc.HitObjects.ClearSelectedBy(presenceID)
	if len(released) > 0 {
		d.Broadcast(hitObjectSelectedCommand(released, nil))
	}
	d.Broadcast(userLeftCommand(user))

	lifecycle.UserLeft(context.Background(), s.publisher, s.room, s.tick, userRef(presenceID), lifecycle.UserLeftPayload{
		ReleasedLocks: len(released),
	})
}

func (s *Session) handleCursorPos(p *Presence, cmd CursorPosCommand) {
	if user := s.doc.Users.FindMut(p.ID); user != nil {
		pos := cmd.Pos
		user.CursorPos = &pos
	}
}

func (s *Session) handleCurrentTime(p *Presence, cmd CurrentTimeCommand) {
	if user := s.doc.Users.FindMut(p.ID); user != nil {
		user.CurrentTime = cmd.Time
	}
}

func (s *Session) userTicksLocked() []UserTick {
	users := s.doc.Users.All()
	ticks := make([]UserTick, 0, len(users))
	for i := range users {
		ticks = append(ticks, UserTick{
			ID:          users[i].ID,
			CursorPos:   users[i].CursorPos,
			CurrentTime: users[i].CurrentTime,
		})
	}
	return ticks
}

func (s *Session) presenceLocked(id uint64) *Presence {
	for _, p := range s.presences {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *Session) deliverTo(presenceID uint64, frame []byte) {
	p := s.presenceLocked(presenceID)
	if p == nil {
		return
	}
	s.deliverPresence(p, frame)
}

func (s *Session) deliverAll(frame []byte) {
	for _, p := range s.presences {
		s.deliverPresence(p, frame)
	}
}

func (s *Session) deliverPresence(p *Presence, frame []byte) {
	wasDropped := p.Dropped()
	if p.deliver(frame) {
		s.metrics.Add(metricFramesSent, 1)
		return
	}
	s.metrics.Add(metricFramesDropped, 1)
	if !wasDropped {
		s.logger.Printf("dropping slow presence %d in room %s", p.ID, s.room)
		network.SendQueueDrop(context.Background(), s.publisher, s.room, s.tick, userRef(p.ID),
			network.SendQueueDropPayload{Capacity: s.cfg.SendQueueSize})
	}
}

func (s *Session) persist(snap *state.DocumentSnapshot, tick uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.PersistTimeout)
	defer cancel()
	if err := s.persister.Save(ctx, s.room, *snap); err != nil {
		s.metrics.Add(metricPersistFailures, 1)
		s.logger.Printf("persist failed for room %s: %v", s.room, err)
		loggingStorage.PersistFailed(ctx, s.publisher, s.room, tick, loggingStorage.PersistFailedPayload{
			Reason: err.Error(),
		})
		return
	}
	loggingStorage.SnapshotSaved(ctx, s.publisher, s.room, tick, loggingStorage.SnapshotSavedPayload{
		HitObjects:   len(snap.HitObjects),
		TimingPoints: len(snap.TimingPoints),
	})
}

func userRef(id uint64) logging.EntityRef {
	return logging.EntityRef{ID: strconv.FormatUint(id, 10), Kind: logging.EntityKindUser}
}
