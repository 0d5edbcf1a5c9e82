package state

// Difficulty carries the gameplay tuning fields of a document. The session
// never interprets them; they round-trip through load, state broadcasts,
// and persistence unmodified.
type Difficulty struct {
	HPDrainRate       float64 `json:"hpDrainRate"`
	CircleSize        float64 `json:"circleSize"`
	OverallDifficulty float64 `json:"overallDifficulty"`
	ApproachRate      float64 `json:"approachRate"`
	SliderMultiplier  float64 `json:"sliderMultiplier"`
	SliderTickRate    float64 `json:"sliderTickRate"`
}

// Metadata identifies the document for presentation purposes.
type Metadata struct {
	Title   string `json:"title"`
	Artist  string `json:"artist"`
	Creator string `json:"creator"`
	Version string `json:"version"`
}

// EventKind discriminates lifecycle events.
type EventKind int

const (
	EventUserJoined EventKind = iota
	EventUserLeft
)

// Event is a queued join/leave lifecycle event, applied at the next tick.
type Event struct {
	Kind       EventKind
	PresenceID uint64
}

// DocumentSnapshot is the load/persist representation of a document.
// Entity ids and selection locks are session-scoped and never persisted.
type DocumentSnapshot struct {
	Difficulty   Difficulty    `json:"difficulty"`
	Metadata     Metadata      `json:"metadata"`
	HitObjects   []HitObject   `json:"hitObjects"`
	TimingPoints []TimingPoint `json:"timingPoints"`
}

// Document aggregates the per-session stores, the pending lifecycle event
// queue, and the idle counter. It is mutated exclusively inside a tick.
type Document struct {
	Difficulty Difficulty
	Metadata   Metadata

	HitObjects   HitObjectStore
	TimingPoints TimingPointStore
	Users        Roster

	EmptyTicks int

	events []Event

	nextHitObjectID   uint64
	nextTimingPointID uint64
}

// NewDocument builds a live document from a loaded snapshot. Every entity
// gets a fresh session-scoped id and starts unselected.
func NewDocument(snap *DocumentSnapshot) *Document {
	doc := &Document{}
	if snap == nil {
		return doc
	}
	doc.Difficulty = snap.Difficulty
	doc.Metadata = snap.Metadata
	for _, obj := range snap.HitObjects {
		obj.ID = doc.NextHitObjectID()
		obj.SelectedBy = nil
		doc.HitObjects.Insert(obj)
	}
	for _, tp := range snap.TimingPoints {
		tp.ID = doc.NextTimingPointID()
		doc.TimingPoints.Insert(tp)
	}
	return doc
}

// NextHitObjectID returns a fresh id, unique for the session lifetime.
func (d *Document) NextHitObjectID() uint64 {
	d.nextHitObjectID++
	return d.nextHitObjectID
}

// NextTimingPointID returns a fresh id, unique for the session lifetime.
func (d *Document) NextTimingPointID() uint64 {
	d.nextTimingPointID++
	return d.nextTimingPointID
}

// PushEvent queues a lifecycle event for the next tick.
func (d *Document) PushEvent(ev Event) {
	d.events = append(d.events, ev)
}

// DrainEvents returns queued lifecycle events in FIFO order and clears
// the queue.
func (d *Document) DrainEvents() []Event {
	events := d.events
	d.events = nil
	return events
}

// Snapshot produces the persistable form of the document. Ids and
// selection locks are stripped: both are session-scoped.
func (d *Document) Snapshot() *DocumentSnapshot {
	snap := &DocumentSnapshot{
		Difficulty: d.Difficulty,
		Metadata:   d.Metadata,
	}
	for _, obj := range d.HitObjects.All() {
		obj.ID = 0
		obj.SelectedBy = nil
		if obj.Slider != nil {
			slider := *obj.Slider
			slider.ControlPoints = append([]SliderControlPoint(nil), slider.ControlPoints...)
			obj.Slider = &slider
		}
		snap.HitObjects = append(snap.HitObjects, obj)
	}
	for _, tp := range d.TimingPoints.All() {
		tp.ID = 0
		snap.TimingPoints = append(snap.TimingPoints, tp)
	}
	return snap
}
