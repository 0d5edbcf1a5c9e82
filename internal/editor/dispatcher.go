package editor

import "encoding/json"

// pendingMessage is one scheduled outbound command. A nil recipients list
// means "the full roster at flush time"; a non-empty responseID marks the
// message as the reply to a specific client request.
type pendingMessage struct {
	cmd        ServerCommand
	recipients []uint64
	responseID string
}

func (m pendingMessage) immediate() bool {
	return m.recipients != nil || m.responseID != ""
}

// Dispatcher accumulates the outbound commands produced during one tick
// and delivers them on flush. Targeted and response-correlated messages go
// out individually; everything else is combined, in schedule order, into a
// single batch envelope per tick so ordinary chatter costs one frame per
// client.
type Dispatcher struct {
	pending []pendingMessage
}

// NewDispatcher returns an empty dispatcher for one tick.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Broadcast schedules a command for every presence connected at flush time.
func (d *Dispatcher) Broadcast(cmd ServerCommand) {
	d.pending = append(d.pending, pendingMessage{cmd: cmd})
}

// BroadcastResponse schedules a command correlated to a client request. An
// empty responseID degrades to a plain broadcast.
func (d *Dispatcher) BroadcastResponse(cmd ServerCommand, responseID string) {
	d.pending = append(d.pending, pendingMessage{cmd: cmd, responseID: responseID})
}

// SendTo schedules a command for an explicit recipient list.
func (d *Dispatcher) SendTo(cmd ServerCommand, recipients ...uint64) {
	if len(recipients) == 0 {
		recipients = []uint64{}
	}
	d.pending = append(d.pending, pendingMessage{cmd: cmd, recipients: recipients})
}

// Flush delivers everything scheduled during this tick. Recipients resolve
// against the roster as it stands now, not as it stood when the command
// was scheduled. A failed delivery to one presence never aborts the rest.
func (d *Dispatcher) Flush(s *Session) {
	if len(d.pending) == 0 {
		return
	}

	var batch []ServerMessage
	for _, pm := range d.pending {
		if !pm.immediate() {
			batch = append(batch, ServerMessage{Command: pm.cmd})
			continue
		}
		msg := ServerMessage{ResponseID: pm.responseID, Command: pm.cmd}
		frame, err := json.Marshal(msg)
		if err != nil {
			s.logger.Printf("failed to encode %s message: %v", pm.cmd.Type, err)
			continue
		}
		if pm.recipients != nil {
			for _, id := range pm.recipients {
				s.deliverTo(id, frame)
			}
		} else {
			s.deliverAll(frame)
		}
	}

	if len(batch) == 0 {
		d.pending = nil
		return
	}
	frame, err := json.Marshal(ServerMessage{Command: multipleCommand(batch)})
	if err != nil {
		s.logger.Printf("failed to encode batch envelope: %v", err)
		d.pending = nil
		return
	}
	s.deliverAll(frame)
	d.pending = nil
}

// Pending reports the number of messages scheduled so far. Used by tests
// and diagnostics.
func (d *Dispatcher) Pending() int {
	return len(d.pending)
}
