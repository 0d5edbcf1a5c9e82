package editor

import "mapsync/server/internal/editor/state"

// Server command type tags, as they appear on the wire.
const (
	SrvMultiple            = "multiple"
	SrvOwnID               = "ownId"
	SrvUserJoined          = "userJoined"
	SrvUserLeft            = "userLeft"
	SrvTick                = "tick"
	SrvUserList            = "userList"
	SrvHitObjectCreated    = "hitObjectCreated"
	SrvHitObjectUpdated    = "hitObjectUpdated"
	SrvHitObjectDeleted    = "hitObjectDeleted"
	SrvHitObjectSelected   = "hitObjectSelected"
	SrvHitObjectOverridden = "hitObjectOverridden"
	SrvTimingPointCreated  = "timingPointCreated"
	SrvTimingPointUpdated  = "timingPointUpdated"
	SrvTimingPointDeleted  = "timingPointDeleted"
	SrvState               = "state"
)

// ServerCommand is one outbound command: a wire type tag plus its typed
// payload.
type ServerCommand struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// ServerMessage is one outbound envelope, optionally correlated to the
// client request it answers.
type ServerMessage struct {
	ResponseID string        `json:"responseId,omitempty"`
	Command    ServerCommand `json:"command"`
}

// UserTick is one user's entry in the per-tick roster snapshot.
type UserTick struct {
	ID          uint64      `json:"id"`
	CursorPos   *state.Vec2 `json:"cursorPos,omitempty"`
	CurrentTime int         `json:"currentTime"`
}

// TickPayload is the per-tick roster/cursor snapshot.
type TickPayload struct {
	UserTicks []UserTick `json:"userTicks"`
}

// SelectionPayload announces a grouped selection change. A nil SelectedBy
// means the ids are now unselected.
type SelectionPayload struct {
	IDs        []uint64 `json:"ids"`
	SelectedBy *uint64  `json:"selectedBy"`
}

// OverriddenPayload announces applied per-object overrides.
type OverriddenPayload struct {
	ID        uint64             `json:"id"`
	Overrides HitObjectOverrides `json:"overrides"`
}

// StatePayload is the full document snapshot sent to a joining presence.
type StatePayload struct {
	Difficulty   state.Difficulty    `json:"difficulty"`
	Metadata     state.Metadata      `json:"metadata"`
	HitObjects   []state.HitObject   `json:"hitObjects"`
	TimingPoints []state.TimingPoint `json:"timingPoints"`
}

func ownIDCommand(id uint64) ServerCommand {
	return ServerCommand{Type: SrvOwnID, Payload: id}
}

func userJoinedCommand(user state.UserInfo) ServerCommand {
	return ServerCommand{Type: SrvUserJoined, Payload: user}
}

func userLeftCommand(user state.UserInfo) ServerCommand {
	return ServerCommand{Type: SrvUserLeft, Payload: user}
}

func tickCommand(ticks []UserTick) ServerCommand {
	return ServerCommand{Type: SrvTick, Payload: TickPayload{UserTicks: ticks}}
}

func userListCommand(users []state.UserInfo) ServerCommand {
	return ServerCommand{Type: SrvUserList, Payload: users}
}

func hitObjectCreatedCommand(obj state.HitObject) ServerCommand {
	return ServerCommand{Type: SrvHitObjectCreated, Payload: obj}
}

func hitObjectUpdatedCommand(obj state.HitObject) ServerCommand {
	return ServerCommand{Type: SrvHitObjectUpdated, Payload: obj}
}

func hitObjectDeletedCommand(id uint64) ServerCommand {
	return ServerCommand{Type: SrvHitObjectDeleted, Payload: id}
}

func hitObjectSelectedCommand(ids []uint64, selectedBy *uint64) ServerCommand {
	return ServerCommand{Type: SrvHitObjectSelected, Payload: SelectionPayload{IDs: ids, SelectedBy: selectedBy}}
}

func hitObjectOverriddenCommand(id uint64, overrides HitObjectOverrides) ServerCommand {
	return ServerCommand{Type: SrvHitObjectOverridden, Payload: OverriddenPayload{ID: id, Overrides: overrides}}
}

func timingPointCreatedCommand(tp state.TimingPoint) ServerCommand {
	return ServerCommand{Type: SrvTimingPointCreated, Payload: tp}
}

func timingPointUpdatedCommand(tp state.TimingPoint) ServerCommand {
	return ServerCommand{Type: SrvTimingPointUpdated, Payload: tp}
}

func timingPointDeletedCommand(id uint64) ServerCommand {
	return ServerCommand{Type: SrvTimingPointDeleted, Payload: id}
}

func stateCommand(doc *state.Document) ServerCommand {
	payload := StatePayload{
		Difficulty:   doc.Difficulty,
		Metadata:     doc.Metadata,
		HitObjects:   append([]state.HitObject(nil), doc.HitObjects.All()...),
		TimingPoints: append([]state.TimingPoint(nil), doc.TimingPoints.All()...),
	}
	return ServerCommand{Type: SrvState, Payload: payload}
}

func multipleCommand(messages []ServerMessage) ServerCommand {
	return ServerCommand{Type: SrvMultiple, Payload: messages}
}
