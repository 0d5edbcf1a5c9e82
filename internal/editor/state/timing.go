package state

import "sort"

// TimingInfo is the tempo part of a timing point.
type TimingInfo struct {
	BPM       float64 `json:"bpm"`
	Signature int     `json:"signature"`
}

// TimingPoint is a timed control entity. Timing points carry no ownership:
// any connected presence may create, update, or delete any of them.
type TimingPoint struct {
	ID             uint64      `json:"id,omitempty"`
	Offset         int         `json:"offset"`
	Timing         *TimingInfo `json:"timing,omitempty"`
	SliderVelocity *float64    `json:"sliderVelocity,omitempty"`
	Volume         *int        `json:"volume,omitempty"`
}

// TimingPointStore keeps timing points sorted ascending by Offset.
// Duplicate offsets are not prevented.
type TimingPointStore struct {
	points []TimingPoint
}

// Insert places the timing point at its sorted position.
func (s *TimingPointStore) Insert(tp TimingPoint) {
	idx := sort.Search(len(s.points), func(i int) bool {
		return s.points[i].Offset >= tp.Offset
	})
	s.points = append(s.points, TimingPoint{})
	copy(s.points[idx+1:], s.points[idx:])
	s.points[idx] = tp
}

// FindByID returns a copy of the timing point with the given id.
func (s *TimingPointStore) FindByID(id uint64) (TimingPoint, bool) {
	for i := range s.points {
		if s.points[i].ID == id {
			return s.points[i], true
		}
	}
	return TimingPoint{}, false
}

// DeleteByID removes the timing point and returns it.
func (s *TimingPointStore) DeleteByID(id uint64) (TimingPoint, bool) {
	for i := range s.points {
		if s.points[i].ID == id {
			removed := s.points[i]
			s.points = append(s.points[:i], s.points[i+1:]...)
			return removed, true
		}
	}
	return TimingPoint{}, false
}

// UpdateByID replaces the stored timing point, reinserting it when the
// offset moved so ordering holds. It fails on unknown ids.
func (s *TimingPointStore) UpdateByID(id uint64, tp TimingPoint) bool {
	for i := range s.points {
		if s.points[i].ID == id {
			tp.ID = id
			if s.points[i].Offset == tp.Offset {
				s.points[i] = tp
				return true
			}
			s.points = append(s.points[:i], s.points[i+1:]...)
			s.Insert(tp)
			return true
		}
	}
	return false
}

// All returns the timing points in offset order. The slice is shared;
// callers must not mutate it.
func (s *TimingPointStore) All() []TimingPoint {
	return s.points
}

// Len reports the number of stored timing points.
func (s *TimingPointStore) Len() int {
	return len(s.points)
}
