package editor

import "mapsync/server/internal/editor/state"

// handleCreateHitObject validates the payload, evicts conflicting objects
// at the exact same start time (skipping ones locked by someone else),
// inserts the new object locked by its creator, and announces it with the
// request's correlation id.
func (s *Session) handleCreateHitObject(p *Presence, obj state.HitObject, responseID string, d *Dispatcher) {
	if !obj.Valid() {
		s.metrics.Add(metricInvalidPayloads, 1)
		s.logger.Printf("invalid hit object from presence %d in room %s", p.ID, s.room)
		return
	}

	overlapping := s.doc.HitObjects.FindByStartTime(obj.StartTime)
	if len(overlapping) > 0 {
		ids := make([]uint64, 0, len(overlapping))
		for _, existing := range overlapping {
			ids = append(ids, existing.ID)
		}
		s.handleDeleteHitObjects(p, ids, true, d)
	}

	obj.ID = s.doc.NextHitObjectID()
	owner := p.ID
	obj.SelectedBy = &owner
	s.doc.HitObjects.Insert(obj)

	d.BroadcastResponse(hitObjectCreatedCommand(obj), responseID)

	// Clears the creator's previous unique selection; the new object is
	// already locked, so only deselections broadcast here.
	s.handleSelection(p, []uint64{obj.ID}, true, true, d)
}

// handleUpdateHitObject replaces an object the requester holds the lock
// on. Anything else - invalid payload, unknown id, foreign or absent lock,
// variant tag change - is dropped without a reply.
func (s *Session) handleUpdateHitObject(p *Presence, obj state.HitObject, d *Dispatcher) {
	if !obj.Valid() {
		s.metrics.Add(metricInvalidPayloads, 1)
		s.logger.Printf("invalid hit object update from presence %d in room %s", p.ID, s.room)
		return
	}

	original, ok := s.doc.HitObjects.FindByID(obj.ID)
	if !ok {
		return
	}
	owner, locked := original.SelectedByID()
	if !locked || owner != p.ID {
		s.metrics.Add(metricUnauthorizedEdits, 1)
		return
	}

	// The lock survives the update regardless of what the client sent.
	holder := p.ID
	obj.SelectedBy = &holder

	if s.doc.HitObjects.UpdateByID(obj.ID, obj) {
		d.Broadcast(hitObjectUpdatedCommand(obj))
	}
}

// handleDeleteHitObjects deletes each id the requester may delete: objects
// it holds the lock on, plus unselected objects when andUnselected is set
// (the eviction mode used during create). Objects locked by another
// presence are always left untouched.
func (s *Session) handleDeleteHitObjects(p *Presence, ids []uint64, andUnselected bool, d *Dispatcher) {
	for _, id := range ids {
		obj, ok := s.doc.HitObjects.FindByID(id)
		if !ok {
			continue
		}
		owner, locked := obj.SelectedByID()
		allowed := (locked && owner == p.ID) || (!locked && andUnselected)
		if !allowed {
			continue
		}
		if _, removed := s.doc.HitObjects.DeleteByID(id); removed {
			d.Broadcast(hitObjectDeletedCommand(id))
		}
	}
}

// handleSelection implements the select/deselect protocol. With unique
// set, every object the requester currently holds that is absent from ids
// is released first. Grabbing an unselected object succeeds; releasing
// your own lock succeeds; every other transition is a no-op. At most two
// grouped notifications go out: one for newly selected ids, one for newly
// deselected ids.
func (s *Session) handleSelection(p *Presence, ids []uint64, selected, unique bool, d *Dispatcher) {
	var selectedIDs, deselectedIDs []uint64

	if unique {
		for _, id := range s.doc.HitObjects.FindSelectedBy(p.ID) {
			if containsID(ids, id) {
				continue
			}
			if obj := s.doc.HitObjects.FindByIDMut(id); obj != nil {
				obj.SelectedBy = nil
				deselectedIDs = append(deselectedIDs, id)
			}
		}
	}

	for _, id := range ids {
		obj := s.doc.HitObjects.FindByIDMut(id)
		if obj == nil {
			continue
		}
		owner, locked := obj.SelectedByID()
		switch {
		case locked && owner == p.ID && !selected:
			obj.SelectedBy = nil
			deselectedIDs = append(deselectedIDs, id)
		case !locked && selected:
			holder := p.ID
			obj.SelectedBy = &holder
			selectedIDs = append(selectedIDs, id)
		}
	}

	if len(selectedIDs) > 0 {
		owner := p.ID
		d.Broadcast(hitObjectSelectedCommand(selectedIDs, &owner))
	}
	if len(deselectedIDs) > 0 {
		d.Broadcast(hitObjectSelectedCommand(deselectedIDs, nil))
	}
}

// handleSetOverrides applies partial field overrides to an object the
// requester holds the lock on. Slider-only overrides are ignored on
// circles and spinners; an override that would leave the object invalid
// is dropped whole.
func (s *Session) handleSetOverrides(p *Presence, id uint64, overrides HitObjectOverrides, d *Dispatcher) {
	original, ok := s.doc.HitObjects.FindByID(id)
	if !ok {
		return
	}
	owner, locked := original.SelectedByID()
	if !locked || owner != p.ID {
		s.metrics.Add(metricUnauthorizedEdits, 1)
		return
	}

	updated := original
	if overrides.Time != nil {
		updated.StartTime = *overrides.Time
	}
	if overrides.Position != nil {
		updated.Position = *overrides.Position
	}
	if overrides.NewCombo != nil {
		updated.NewCombo = *overrides.NewCombo
	}
	if updated.Kind == state.KindSlider && updated.Slider != nil {
		slider := *updated.Slider
		slider.ControlPoints = append([]state.SliderControlPoint(nil), slider.ControlPoints...)
		if overrides.ControlPoints != nil {
			slider.ControlPoints = overrides.ControlPoints
		}
		if overrides.ExpectedDistance != nil {
			slider.ExpectedDistance = *overrides.ExpectedDistance
		}
		if overrides.RepeatCount != nil {
			slider.Repeats = *overrides.RepeatCount
		}
		updated.Slider = &slider
	}
	if !updated.Valid() {
		s.metrics.Add(metricInvalidPayloads, 1)
		s.logger.Printf("invalid overrides from presence %d in room %s", p.ID, s.room)
		return
	}

	if !s.doc.HitObjects.UpdateByID(id, updated) {
		return
	}

	d.Broadcast(hitObjectOverriddenCommand(id, overrides))
}

func containsID(ids []uint64, id uint64) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
