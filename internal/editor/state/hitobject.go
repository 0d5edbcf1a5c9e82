package state

import "sort"

// HitObjectKind tags the variant payload of a hit object.
type HitObjectKind string

const (
	KindCircle  HitObjectKind = "circle"
	KindSlider  HitObjectKind = "slider"
	KindSpinner HitObjectKind = "spinner"
)

// ControlPointKind identifies how a slider control point joins the path.
type ControlPointKind int

const (
	ControlPointNone ControlPointKind = iota
	ControlPointBezier
	ControlPointCircle
	ControlPointLinear
)

// SliderControlPoint is one anchor of a slider path.
type SliderControlPoint struct {
	Position IVec2            `json:"position"`
	Kind     ControlPointKind `json:"kind"`
}

// SliderData carries the slider-only fields of a hit object.
type SliderData struct {
	ExpectedDistance float64              `json:"expectedDistance"`
	ControlPoints    []SliderControlPoint `json:"controlPoints"`
	Repeats          int                  `json:"repeats"`
}

// HitObject is a timed playfield entity. SelectedBy, when set, grants the
// owning presence exclusive update/delete rights until it deselects or
// disconnects.
type HitObject struct {
	ID         uint64        `json:"id,omitempty"`
	StartTime  int           `json:"startTime"`
	Position   IVec2         `json:"position"`
	NewCombo   bool          `json:"newCombo"`
	SelectedBy *uint64       `json:"selectedBy,omitempty"`
	Kind       HitObjectKind `json:"type"`
	Slider     *SliderData   `json:"slider,omitempty"`
}

// Valid reports whether the payload is acceptable for create/update.
// Circles and spinners carry no extra data and are always valid.
func (h HitObject) Valid() bool {
	switch h.Kind {
	case KindCircle, KindSpinner:
		return true
	case KindSlider:
		s := h.Slider
		if s == nil {
			return false
		}
		if len(s.ControlPoints) < 2 {
			return false
		}
		if s.ControlPoints[0].Kind == ControlPointNone {
			return false
		}
		if s.ExpectedDistance < 0 {
			return false
		}
		return s.Repeats >= 1
	default:
		return false
	}
}

// SelectedByID returns the lock owner, if any.
func (h HitObject) SelectedByID() (uint64, bool) {
	if h.SelectedBy == nil {
		return 0, false
	}
	return *h.SelectedBy, true
}

// HitObjectStore keeps hit objects sorted ascending by StartTime. Two
// objects may share the same StartTime; insertion order breaks the tie.
type HitObjectStore struct {
	objects []HitObject
}

// Insert places the object at its sorted position.
func (s *HitObjectStore) Insert(obj HitObject) {
	idx := sort.Search(len(s.objects), func(i int) bool {
		return s.objects[i].StartTime >= obj.StartTime
	})
	s.objects = append(s.objects, HitObject{})
	copy(s.objects[idx+1:], s.objects[idx:])
	s.objects[idx] = obj
}

// FindByID returns a copy of the object with the given id.
func (s *HitObjectStore) FindByID(id uint64) (HitObject, bool) {
	for i := range s.objects {
		if s.objects[i].ID == id {
			return s.objects[i], true
		}
	}
	return HitObject{}, false
}

// FindByIDMut returns a pointer into the store for in-place mutation. The
// pointer is invalidated by the next Insert or DeleteByID.
func (s *HitObjectStore) FindByIDMut(id uint64) *HitObject {
	for i := range s.objects {
		if s.objects[i].ID == id {
			return &s.objects[i]
		}
	}
	return nil
}

// DeleteByID removes the object and returns it.
func (s *HitObjectStore) DeleteByID(id uint64) (HitObject, bool) {
	for i := range s.objects {
		if s.objects[i].ID == id {
			removed := s.objects[i]
			s.objects = append(s.objects[:i], s.objects[i+1:]...)
			return removed, true
		}
	}
	return HitObject{}, false
}

// UpdateByID replaces the stored object, reinserting it when the start
// time moved so ordering holds. It fails if the id is unknown or the
// replacement changes the variant tag; the store is left untouched on
// failure.
func (s *HitObjectStore) UpdateByID(id uint64, obj HitObject) bool {
	for i := range s.objects {
		if s.objects[i].ID == id && s.objects[i].Kind == obj.Kind {
			obj.ID = id
			if s.objects[i].StartTime == obj.StartTime {
				s.objects[i] = obj
				return true
			}
			s.objects = append(s.objects[:i], s.objects[i+1:]...)
			s.Insert(obj)
			return true
		}
	}
	return false
}

// FindByStartTime returns copies of every object at exactly the given time.
func (s *HitObjectStore) FindByStartTime(startTime int) []HitObject {
	var found []HitObject
	for i := range s.objects {
		if s.objects[i].StartTime == startTime {
			found = append(found, s.objects[i])
		}
	}
	return found
}

// FindSelectedBy returns ids of every object locked by the given presence,
// in store order.
func (s *HitObjectStore) FindSelectedBy(presenceID uint64) []uint64 {
	var ids []uint64
	for i := range s.objects {
		if owner, ok := s.objects[i].SelectedByID(); ok && owner == presenceID {
			ids = append(ids, s.objects[i].ID)
		}
	}
	return ids
}

// ClearSelectedBy drops every lock held by the presence and returns the
// affected ids in store order.
func (s *HitObjectStore) ClearSelectedBy(presenceID uint64) []uint64 {
	var ids []uint64
	for i := range s.objects {
		if owner, ok := s.objects[i].SelectedByID(); ok && owner == presenceID {
			s.objects[i].SelectedBy = nil
			ids = append(ids, s.objects[i].ID)
		}
	}
	return ids
}

// All returns the objects in start-time order. The slice is shared; callers
// must not mutate it.
func (s *HitObjectStore) All() []HitObject {
	return s.objects
}

// Len reports the number of stored objects.
func (s *HitObjectStore) Len() int {
	return len(s.objects)
}
