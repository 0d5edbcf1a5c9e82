package editor

import "mapsync/server/internal/editor/state"

// Timing points carry no locks; any participant may edit any of them.

func (s *Session) handleCreateTimingPoint(tp state.TimingPoint, responseID string, d *Dispatcher) {
	tp.ID = s.doc.NextTimingPointID()
	s.doc.TimingPoints.Insert(tp)
	d.BroadcastResponse(timingPointCreatedCommand(tp), responseID)
}

func (s *Session) handleUpdateTimingPoint(tp state.TimingPoint, d *Dispatcher) {
	if s.doc.TimingPoints.UpdateByID(tp.ID, tp) {
		d.Broadcast(timingPointUpdatedCommand(tp))
	}
}

func (s *Session) handleDeleteTimingPoints(ids []uint64, d *Dispatcher) {
	for _, id := range ids {
		if _, removed := s.doc.TimingPoints.DeleteByID(id); removed {
			d.Broadcast(timingPointDeletedCommand(id))
		}
	}
}
