package editor

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"mapsync/server/internal/editor/state"
	"mapsync/server/internal/telemetry"
)

type recordingPersister struct {
	mu    sync.Mutex
	saves []state.DocumentSnapshot
	done  chan struct{}
}

func newRecordingPersister() *recordingPersister {
	return &recordingPersister{done: make(chan struct{}, 16)}
}

func (r *recordingPersister) Save(_ context.Context, _ string, snap state.DocumentSnapshot) error {
	r.mu.Lock()
	r.saves = append(r.saves, snap)
	r.mu.Unlock()
	r.done <- struct{}{}
	return nil
}

func (r *recordingPersister) waitForSave(t *testing.T) state.DocumentSnapshot {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected a snapshot save")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves[len(r.saves)-1]
}

type wireCommand struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type wireMessage struct {
	ResponseID string      `json:"responseId"`
	Command    wireCommand `json:"command"`
}

// receivedCommands drains the presence's outbound queue, unwrapping batch
// envelopes into their member messages in order.
func receivedCommands(t *testing.T, p *Presence) []wireMessage {
	t.Helper()
	var out []wireMessage
	for {
		select {
		case frame, ok := <-p.Outbound():
			if !ok {
				return out
			}
			var msg wireMessage
			if err := json.Unmarshal(frame, &msg); err != nil {
				t.Fatalf("failed to decode frame: %v", err)
			}
			if msg.Command.Type != SrvMultiple {
				out = append(out, msg)
				continue
			}
			var members []wireMessage
			if err := json.Unmarshal(msg.Command.Payload, &members); err != nil {
				t.Fatalf("failed to decode batch payload: %v", err)
			}
			out = append(out, members...)
		default:
			return out
		}
	}
}

func commandsOfType(msgs []wireMessage, cmdType string) []wireMessage {
	var out []wireMessage
	for _, msg := range msgs {
		if msg.Command.Type == cmdType {
			out = append(out, msg)
		}
	}
	return out
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.PersistEvery = 0
	return cfg
}

func seededSnapshot(startTimes ...int) *state.DocumentSnapshot {
	snap := &state.DocumentSnapshot{}
	for _, startTime := range startTimes {
		snap.HitObjects = append(snap.HitObjects, state.HitObject{StartTime: startTime, Kind: state.KindCircle})
	}
	return snap
}

// joinTwo connects two presences and runs one tick so the join handshake
// is flushed and drained.
func joinTwo(t *testing.T, s *Session) (*Presence, *Presence) {
	t.Helper()
	p1, ok := s.Join(Profile{DisplayName: "one"})
	if !ok {
		t.Fatalf("expected first join to succeed")
	}
	p2, ok := s.Join(Profile{DisplayName: "two"})
	if !ok {
		t.Fatalf("expected second join to succeed")
	}
	s.Tick()
	receivedCommands(t, p1)
	receivedCommands(t, p2)
	return p1, p2
}

func selectCommand(ids []uint64, selected, unique bool) ClientMessage {
	return ClientMessage{Command: SelectHitObjectsCommand{IDs: ids, Selected: selected, Unique: unique}}
}

func TestJoinHandshake(t *testing.T) {
	s := NewSession("room-1", seededSnapshot(100), testConfig(), Deps{})
	p, ok := s.Join(Profile{DisplayName: "mapper", ProfileID: 77})
	if !ok {
		t.Fatalf("expected join to succeed")
	}
	s.Tick()

	msgs := receivedCommands(t, p)

	ownID := commandsOfType(msgs, SrvOwnID)
	if len(ownID) != 1 {
		t.Fatalf("expected one ownId message, got %d", len(ownID))
	}
	var id uint64
	if err := json.Unmarshal(ownID[0].Command.Payload, &id); err != nil || id != p.ID {
		t.Fatalf("expected ownId %d, got %d (err %v)", p.ID, id, err)
	}

	if len(commandsOfType(msgs, SrvUserJoined)) != 1 {
		t.Fatalf("expected a userJoined broadcast")
	}
	if len(commandsOfType(msgs, SrvUserList)) != 1 {
		t.Fatalf("expected a userList broadcast")
	}
	if len(commandsOfType(msgs, SrvTick)) != 1 {
		t.Fatalf("expected a tick snapshot")
	}

	states := commandsOfType(msgs, SrvState)
	if len(states) != 1 {
		t.Fatalf("expected one state message, got %d", len(states))
	}
	var payload StatePayload
	if err := json.Unmarshal(states[0].Command.Payload, &payload); err != nil {
		t.Fatalf("failed to decode state payload: %v", err)
	}
	if len(payload.HitObjects) != 1 || payload.HitObjects[0].ID != 1 {
		t.Fatalf("expected the seeded object with id 1, got %+v", payload.HitObjects)
	}
}

func TestUniqueSelectReleasesPreviousSelection(t *testing.T) {
	s := NewSession("room-1", seededSnapshot(100, 200, 300), testConfig(), Deps{})
	p1, p2 := joinTwo(t, s)

	s.Enqueue(p1.ID, selectCommand([]uint64{1, 2}, true, true))
	s.Tick()
	receivedCommands(t, p1)
	receivedCommands(t, p2)

	s.Enqueue(p1.ID, selectCommand([]uint64{3}, true, true))
	s.Tick()

	msgs := receivedCommands(t, p2)
	selections := commandsOfType(msgs, SrvHitObjectSelected)
	if len(selections) != 2 {
		t.Fatalf("expected exactly two grouped selection messages, got %d", len(selections))
	}

	var sawSelected, sawDeselected bool
	for _, msg := range selections {
		var payload SelectionPayload
		if err := json.Unmarshal(msg.Command.Payload, &payload); err != nil {
			t.Fatalf("failed to decode selection payload: %v", err)
		}
		if payload.SelectedBy != nil {
			if *payload.SelectedBy != p1.ID || len(payload.IDs) != 1 || payload.IDs[0] != 3 {
				t.Fatalf("unexpected selected group %+v", payload)
			}
			sawSelected = true
		} else {
			if len(payload.IDs) != 2 {
				t.Fatalf("expected both prior ids released, got %+v", payload.IDs)
			}
			sawDeselected = true
		}
	}
	if !sawSelected || !sawDeselected {
		t.Fatalf("expected one selected and one deselected group")
	}
}

func TestSelectLockedObjectIsNoOp(t *testing.T) {
	s := NewSession("room-1", seededSnapshot(100), testConfig(), Deps{})
	p1, p2 := joinTwo(t, s)

	s.Enqueue(p1.ID, selectCommand([]uint64{1}, true, false))
	s.Tick()
	receivedCommands(t, p1)
	receivedCommands(t, p2)

	s.Enqueue(p2.ID, selectCommand([]uint64{1}, true, false))
	s.Tick()

	msgs := receivedCommands(t, p1)
	if got := commandsOfType(msgs, SrvHitObjectSelected); len(got) != 0 {
		t.Fatalf("expected no selection broadcast for a contested grab, got %d", len(got))
	}
	obj, _ := s.doc.HitObjects.FindByID(1)
	if owner, ok := obj.SelectedByID(); !ok || owner != p1.ID {
		t.Fatalf("expected lock to stay with presence %d, got %+v", p1.ID, obj.SelectedBy)
	}
}

func TestDeselectingForeignLockIsNoOp(t *testing.T) {
	s := NewSession("room-1", seededSnapshot(100), testConfig(), Deps{})
	p1, p2 := joinTwo(t, s)

	s.Enqueue(p1.ID, selectCommand([]uint64{1}, true, false))
	s.Tick()
	receivedCommands(t, p1)
	receivedCommands(t, p2)

	s.Enqueue(p2.ID, selectCommand([]uint64{1}, false, false))
	s.Tick()

	obj, _ := s.doc.HitObjects.FindByID(1)
	if owner, ok := obj.SelectedByID(); !ok || owner != p1.ID {
		t.Fatalf("expected foreign deselect to be ignored, lock now %+v", obj.SelectedBy)
	}
}

func TestCreateEvictsUnlockedObjectsAtSameStartTime(t *testing.T) {
	s := NewSession("room-1", seededSnapshot(100, 100), testConfig(), Deps{})
	p1, p2 := joinTwo(t, s)

	// Presence 2 locks the second object, shielding it from eviction.
	s.Enqueue(p2.ID, selectCommand([]uint64{2}, true, false))
	s.Tick()
	receivedCommands(t, p1)
	receivedCommands(t, p2)

	s.Enqueue(p1.ID, ClientMessage{
		ResponseID: "req-9",
		Command:    CreateHitObjectCommand{HitObject: state.HitObject{StartTime: 100, Kind: state.KindCircle}},
	})
	s.Tick()

	msgs := receivedCommands(t, p2)

	deleted := commandsOfType(msgs, SrvHitObjectDeleted)
	if len(deleted) != 1 {
		t.Fatalf("expected exactly one eviction, got %d", len(deleted))
	}
	var deletedID uint64
	if err := json.Unmarshal(deleted[0].Command.Payload, &deletedID); err != nil || deletedID != 1 {
		t.Fatalf("expected the unlocked object 1 evicted, got %d (err %v)", deletedID, err)
	}

	created := commandsOfType(msgs, SrvHitObjectCreated)
	if len(created) != 1 {
		t.Fatalf("expected one created broadcast, got %d", len(created))
	}
	if created[0].ResponseID != "req-9" {
		t.Fatalf("expected created broadcast correlated to req-9, got %q", created[0].ResponseID)
	}
	var obj state.HitObject
	if err := json.Unmarshal(created[0].Command.Payload, &obj); err != nil {
		t.Fatalf("failed to decode created payload: %v", err)
	}
	if owner, ok := obj.SelectedByID(); !ok || owner != p1.ID {
		t.Fatalf("expected new object locked by its creator, got %+v", obj.SelectedBy)
	}

	if stored, ok := s.doc.HitObjects.FindByID(2); !ok || stored.SelectedBy == nil {
		t.Fatalf("expected the foreign-locked object to survive eviction")
	}
}

func TestCreateRejectsInvalidSlider(t *testing.T) {
	metrics := telemetry.NewCounters()
	s := NewSession("room-1", seededSnapshot(), testConfig(), Deps{Metrics: metrics})
	p1, p2 := joinTwo(t, s)

	s.Enqueue(p1.ID, ClientMessage{Command: CreateHitObjectCommand{
		HitObject: state.HitObject{StartTime: 100, Kind: state.KindSlider},
	}})
	s.Tick()

	if got := commandsOfType(receivedCommands(t, p2), SrvHitObjectCreated); len(got) != 0 {
		t.Fatalf("expected invalid slider to be dropped, got created broadcast")
	}
	if s.doc.HitObjects.Len() != 0 {
		t.Fatalf("expected document untouched, got %d objects", s.doc.HitObjects.Len())
	}
	if metrics.Snapshot()["editor_invalid_payloads_total"] != 1 {
		t.Fatalf("expected an invalid payload counter increment")
	}
}

func TestUpdateRequiresLock(t *testing.T) {
	metrics := telemetry.NewCounters()
	s := NewSession("room-1", seededSnapshot(100), testConfig(), Deps{Metrics: metrics})
	p1, p2 := joinTwo(t, s)

	s.Enqueue(p1.ID, selectCommand([]uint64{1}, true, false))
	s.Tick()
	receivedCommands(t, p1)
	receivedCommands(t, p2)

	s.Enqueue(p2.ID, ClientMessage{Command: UpdateHitObjectCommand{
		HitObject: state.HitObject{ID: 1, StartTime: 500, Kind: state.KindCircle},
	}})
	s.Tick()

	if got := commandsOfType(receivedCommands(t, p1), SrvHitObjectUpdated); len(got) != 0 {
		t.Fatalf("expected no update broadcast for an unauthorized edit")
	}
	obj, _ := s.doc.HitObjects.FindByID(1)
	if obj.StartTime != 100 {
		t.Fatalf("expected object untouched, start time now %d", obj.StartTime)
	}
	if metrics.Snapshot()["editor_unauthorized_edits_total"] != 1 {
		t.Fatalf("expected an unauthorized edit counter increment")
	}
}

func TestUpdatePreservesLock(t *testing.T) {
	s := NewSession("room-1", seededSnapshot(100), testConfig(), Deps{})
	p1, p2 := joinTwo(t, s)

	s.Enqueue(p1.ID, selectCommand([]uint64{1}, true, false))
	s.Tick()
	receivedCommands(t, p1)
	receivedCommands(t, p2)

	s.Enqueue(p1.ID, ClientMessage{Command: UpdateHitObjectCommand{
		HitObject: state.HitObject{ID: 1, StartTime: 250, Kind: state.KindCircle},
	}})
	s.Tick()

	msgs := receivedCommands(t, p2)
	updated := commandsOfType(msgs, SrvHitObjectUpdated)
	if len(updated) != 1 {
		t.Fatalf("expected one update broadcast, got %d", len(updated))
	}
	obj, _ := s.doc.HitObjects.FindByID(1)
	if obj.StartTime != 250 {
		t.Fatalf("expected start time 250, got %d", obj.StartTime)
	}
	if owner, ok := obj.SelectedByID(); !ok || owner != p1.ID {
		t.Fatalf("expected lock to survive the update, got %+v", obj.SelectedBy)
	}
}

func TestDeleteOnlyRemovesOwnedObjects(t *testing.T) {
	s := NewSession("room-1", seededSnapshot(100, 200, 300), testConfig(), Deps{})
	p1, p2 := joinTwo(t, s)

	s.Enqueue(p1.ID, selectCommand([]uint64{1}, true, false))
	s.Enqueue(p2.ID, selectCommand([]uint64{2}, true, false))
	s.Tick()
	receivedCommands(t, p1)
	receivedCommands(t, p2)

	// Object 1 is p1's, object 2 is p2's, object 3 is unselected. A plain
	// delete request only removes what the requester holds.
	s.Enqueue(p1.ID, ClientMessage{Command: DeleteHitObjectsCommand{IDs: []uint64{1, 2, 3}}})
	s.Tick()

	deleted := commandsOfType(receivedCommands(t, p2), SrvHitObjectDeleted)
	if len(deleted) != 1 {
		t.Fatalf("expected exactly one deletion, got %d", len(deleted))
	}
	var id uint64
	if err := json.Unmarshal(deleted[0].Command.Payload, &id); err != nil || id != 1 {
		t.Fatalf("expected object 1 deleted, got %d (err %v)", id, err)
	}
	if s.doc.HitObjects.Len() != 2 {
		t.Fatalf("expected 2 objects left, got %d", s.doc.HitObjects.Len())
	}
}

func TestOverridesMoveObjectAndBroadcast(t *testing.T) {
	s := NewSession("room-1", seededSnapshot(100, 200), testConfig(), Deps{})
	p1, p2 := joinTwo(t, s)

	s.Enqueue(p1.ID, selectCommand([]uint64{1}, true, false))
	s.Tick()
	receivedCommands(t, p1)
	receivedCommands(t, p2)

	newTime := 300
	s.Enqueue(p1.ID, ClientMessage{Command: SetHitObjectOverridesCommand{
		ID:        1,
		Overrides: HitObjectOverrides{Time: &newTime},
	}})
	s.Tick()

	overridden := commandsOfType(receivedCommands(t, p2), SrvHitObjectOverridden)
	if len(overridden) != 1 {
		t.Fatalf("expected one override broadcast, got %d", len(overridden))
	}
	var payload OverriddenPayload
	if err := json.Unmarshal(overridden[0].Command.Payload, &payload); err != nil {
		t.Fatalf("failed to decode override payload: %v", err)
	}
	if payload.ID != 1 || payload.Overrides.Time == nil || *payload.Overrides.Time != 300 {
		t.Fatalf("unexpected override payload %+v", payload)
	}

	objects := s.doc.HitObjects.All()
	if objects[0].ID != 2 || objects[1].ID != 1 {
		t.Fatalf("expected object 1 reinserted after object 2, got order %d, %d", objects[0].ID, objects[1].ID)
	}
	if objects[1].StartTime != 300 {
		t.Fatalf("expected moved start time 300, got %d", objects[1].StartTime)
	}
}

func TestOverridesRequireLock(t *testing.T) {
	s := NewSession("room-1", seededSnapshot(100), testConfig(), Deps{})
	p1, p2 := joinTwo(t, s)

	newTime := 300
	s.Enqueue(p2.ID, ClientMessage{Command: SetHitObjectOverridesCommand{
		ID:        1,
		Overrides: HitObjectOverrides{Time: &newTime},
	}})
	s.Tick()

	if got := commandsOfType(receivedCommands(t, p1), SrvHitObjectOverridden); len(got) != 0 {
		t.Fatalf("expected override without a lock to be dropped")
	}
	obj, _ := s.doc.HitObjects.FindByID(1)
	if obj.StartTime != 100 {
		t.Fatalf("expected object untouched, start time now %d", obj.StartTime)
	}
}

func TestLeaveReleasesLocksAndBroadcasts(t *testing.T) {
	s := NewSession("room-1", seededSnapshot(100, 200), testConfig(), Deps{})
	p1, p2 := joinTwo(t, s)

	s.Enqueue(p1.ID, selectCommand([]uint64{1, 2}, true, false))
	s.Tick()
	receivedCommands(t, p1)
	receivedCommands(t, p2)

	s.Leave(p1.ID)
	s.Tick()

	msgs := receivedCommands(t, p2)
	selections := commandsOfType(msgs, SrvHitObjectSelected)
	if len(selections) != 1 {
		t.Fatalf("expected one grouped deselection, got %d", len(selections))
	}
	var payload SelectionPayload
	if err := json.Unmarshal(selections[0].Command.Payload, &payload); err != nil {
		t.Fatalf("failed to decode selection payload: %v", err)
	}
	if payload.SelectedBy != nil || len(payload.IDs) != 2 {
		t.Fatalf("expected both locks released, got %+v", payload)
	}
	if len(commandsOfType(msgs, SrvUserLeft)) != 1 {
		t.Fatalf("expected a userLeft broadcast")
	}
	for _, obj := range s.doc.HitObjects.All() {
		if obj.SelectedBy != nil {
			t.Fatalf("expected object %d unselected after disconnect", obj.ID)
		}
	}
}

func TestTimingPointLifecycle(t *testing.T) {
	s := NewSession("room-1", seededSnapshot(), testConfig(), Deps{})
	p1, p2 := joinTwo(t, s)

	velocity := 1.4
	s.Enqueue(p1.ID, ClientMessage{
		ResponseID: "req-3",
		Command:    CreateTimingPointCommand{TimingPoint: state.TimingPoint{Offset: 1000, SliderVelocity: &velocity}},
	})
	s.Tick()

	msgs := receivedCommands(t, p2)
	created := commandsOfType(msgs, SrvTimingPointCreated)
	if len(created) != 1 || created[0].ResponseID != "req-3" {
		t.Fatalf("expected one created broadcast correlated to req-3, got %+v", created)
	}
	receivedCommands(t, p1)

	// Timing points carry no locks: the other presence may edit freely.
	s.Enqueue(p2.ID, ClientMessage{Command: UpdateTimingPointCommand{
		TimingPoint: state.TimingPoint{ID: 1, Offset: 2000},
	}})
	s.Enqueue(p2.ID, ClientMessage{Command: UpdateTimingPointCommand{
		TimingPoint: state.TimingPoint{ID: 99, Offset: 1},
	}})
	s.Tick()

	updated := commandsOfType(receivedCommands(t, p1), SrvTimingPointUpdated)
	if len(updated) != 1 {
		t.Fatalf("expected one update broadcast, unknown ids dropped, got %d", len(updated))
	}
	receivedCommands(t, p2)

	s.Enqueue(p1.ID, ClientMessage{Command: DeleteTimingPointsCommand{IDs: []uint64{1, 99}}})
	s.Tick()

	deleted := commandsOfType(receivedCommands(t, p2), SrvTimingPointDeleted)
	if len(deleted) != 1 {
		t.Fatalf("expected one deletion broadcast, got %d", len(deleted))
	}
	if s.doc.TimingPoints.Len() != 0 {
		t.Fatalf("expected empty timing point store, got %d", s.doc.TimingPoints.Len())
	}
}

func TestCursorAndTimeAppearInNextTick(t *testing.T) {
	s := NewSession("room-1", seededSnapshot(), testConfig(), Deps{})
	p1, p2 := joinTwo(t, s)

	s.Enqueue(p1.ID, ClientMessage{Command: CursorPosCommand{Pos: state.Vec2{X: 256, Y: 192}}})
	s.Enqueue(p1.ID, ClientMessage{Command: CurrentTimeCommand{Time: 4500}})
	s.Tick()

	ticks := commandsOfType(receivedCommands(t, p2), SrvTick)
	if len(ticks) != 1 {
		t.Fatalf("expected one tick snapshot, got %d", len(ticks))
	}
	var payload TickPayload
	if err := json.Unmarshal(ticks[0].Command.Payload, &payload); err != nil {
		t.Fatalf("failed to decode tick payload: %v", err)
	}
	var found bool
	for _, user := range payload.UserTicks {
		if user.ID != p1.ID {
			continue
		}
		found = true
		if user.CursorPos == nil || user.CursorPos.X != 256 {
			t.Fatalf("expected cursor position in tick, got %+v", user.CursorPos)
		}
		if user.CurrentTime != 4500 {
			t.Fatalf("expected playback time 4500, got %d", user.CurrentTime)
		}
	}
	if !found {
		t.Fatalf("expected presence %d in tick snapshot", p1.ID)
	}
}

func TestIdleTerminationPersistsAndStopsLoop(t *testing.T) {
	persister := newRecordingPersister()
	cfg := testConfig()
	cfg.IdleTicks = 3
	s := NewSession("room-1", seededSnapshot(100), cfg, Deps{Persister: persister})

	for i := 0; i < 2; i++ {
		if !s.Tick() {
			t.Fatalf("expected tick %d to keep running", i+1)
		}
	}
	if s.Tick() {
		t.Fatalf("expected third empty tick to terminate the session")
	}
	if !s.Terminated() {
		t.Fatalf("expected terminated status")
	}

	snap := persister.waitForSave(t)
	if len(snap.HitObjects) != 1 {
		t.Fatalf("expected final snapshot to carry the document, got %d objects", len(snap.HitObjects))
	}

	if _, ok := s.Join(Profile{DisplayName: "late"}); ok {
		t.Fatalf("expected join on a terminated session to fail")
	}
	if s.Enqueue(1, selectCommand([]uint64{1}, true, false)) {
		t.Fatalf("expected enqueue on a terminated session to fail")
	}
}

func TestPresenceResetsIdleCounter(t *testing.T) {
	cfg := testConfig()
	cfg.IdleTicks = 2
	s := NewSession("room-1", seededSnapshot(), cfg, Deps{})

	if !s.Tick() {
		t.Fatalf("expected first empty tick to keep running")
	}
	p, _ := s.Join(Profile{DisplayName: "mapper"})
	if !s.Tick() {
		t.Fatalf("expected occupied tick to keep running")
	}
	if s.doc.EmptyTicks != 0 {
		t.Fatalf("expected idle counter reset while occupied, got %d", s.doc.EmptyTicks)
	}
	receivedCommands(t, p)
}

func TestEnqueueBackpressure(t *testing.T) {
	metrics := telemetry.NewCounters()
	cfg := testConfig()
	cfg.PendingLimit = 1
	s := NewSession("room-1", seededSnapshot(), cfg, Deps{Metrics: metrics})
	p, _ := s.Join(Profile{DisplayName: "mapper"})

	if !s.Enqueue(p.ID, selectCommand([]uint64{1}, true, false)) {
		t.Fatalf("expected first enqueue to succeed")
	}
	if s.Enqueue(p.ID, selectCommand([]uint64{2}, true, false)) {
		t.Fatalf("expected enqueue beyond the pending limit to fail")
	}
	if metrics.Snapshot()["editor_commands_dropped_total"] != 1 {
		t.Fatalf("expected a dropped command counter increment")
	}
}

func TestSlowPresenceIsDropped(t *testing.T) {
	cfg := testConfig()
	cfg.SendQueueSize = 1
	s := NewSession("room-1", seededSnapshot(), cfg, Deps{})
	p, _ := s.Join(Profile{DisplayName: "slow"})

	// Never drain the outbound queue; the per-tick snapshot overflows it.
	s.Tick()
	s.Tick()
	s.Tick()

	if !p.Dropped() {
		t.Fatalf("expected presence with a full send queue to be dropped")
	}
}

func TestEnqueueRejectsUnknownPresence(t *testing.T) {
	s := NewSession("room-1", seededSnapshot(), testConfig(), Deps{})
	if s.Enqueue(42, selectCommand([]uint64{1}, true, false)) {
		t.Fatalf("expected enqueue for an unknown presence to fail")
	}
}
