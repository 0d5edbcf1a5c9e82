package editor

import (
	"encoding/json"
	"fmt"

	"mapsync/server/internal/editor/state"
)

// Client command type tags, as they appear on the wire.
const (
	CmdCursorPos             = "cursorPos"
	CmdCurrentTime           = "currentTime"
	CmdSelectHitObject       = "selectHitObject"
	CmdCreateHitObject       = "createHitObject"
	CmdUpdateHitObject       = "updateHitObject"
	CmdDeleteHitObject       = "deleteHitObject"
	CmdCreateTimingPoint     = "createTimingPoint"
	CmdUpdateTimingPoint     = "updateTimingPoint"
	CmdDeleteTimingPoint     = "deleteTimingPoint"
	CmdSetHitObjectOverrides = "setHitObjectOverrides"
)

// ClientCommand is one decoded inbound command payload.
type ClientCommand interface {
	commandType() string
}

// CursorPosCommand reports the user's cursor position.
type CursorPosCommand struct {
	Pos state.Vec2
}

// CurrentTimeCommand reports the user's playback time.
type CurrentTimeCommand struct {
	Time int
}

// SelectHitObjectsCommand grabs or releases selection locks.
type SelectHitObjectsCommand struct {
	IDs      []uint64 `json:"ids"`
	Selected bool     `json:"selected"`
	Unique   bool     `json:"unique"`
}

// CreateHitObjectCommand carries a new hit object payload; the server
// assigns the id.
type CreateHitObjectCommand struct {
	HitObject state.HitObject
}

// UpdateHitObjectCommand replaces an existing hit object, id included in
// the payload.
type UpdateHitObjectCommand struct {
	HitObject state.HitObject
}

// DeleteHitObjectsCommand deletes the caller's locked objects by id.
type DeleteHitObjectsCommand struct {
	IDs []uint64
}

// CreateTimingPointCommand carries a new timing point payload.
type CreateTimingPointCommand struct {
	TimingPoint state.TimingPoint
}

// UpdateTimingPointCommand replaces an existing timing point.
type UpdateTimingPointCommand struct {
	TimingPoint state.TimingPoint
}

// DeleteTimingPointsCommand deletes timing points by id.
type DeleteTimingPointsCommand struct {
	IDs []uint64
}

// HitObjectOverrides is a partial update of an owned hit object. Nil
// fields are left untouched. Overrides never change the variant tag.
type HitObjectOverrides struct {
	Time             *int                       `json:"time,omitempty"`
	Position         *state.IVec2               `json:"position,omitempty"`
	NewCombo         *bool                      `json:"newCombo,omitempty"`
	ControlPoints    []state.SliderControlPoint `json:"controlPoints,omitempty"`
	ExpectedDistance *float64                   `json:"expectedDistance,omitempty"`
	RepeatCount      *int                       `json:"repeatCount,omitempty"`
}

// SetHitObjectOverridesCommand applies ad-hoc field overrides to one
// owned hit object.
type SetHitObjectOverridesCommand struct {
	ID        uint64             `json:"id"`
	Overrides HitObjectOverrides `json:"overrides"`
}

func (CursorPosCommand) commandType() string             { return CmdCursorPos }
func (CurrentTimeCommand) commandType() string           { return CmdCurrentTime }
func (SelectHitObjectsCommand) commandType() string      { return CmdSelectHitObject }
func (CreateHitObjectCommand) commandType() string       { return CmdCreateHitObject }
func (UpdateHitObjectCommand) commandType() string       { return CmdUpdateHitObject }
func (DeleteHitObjectsCommand) commandType() string      { return CmdDeleteHitObject }
func (CreateTimingPointCommand) commandType() string     { return CmdCreateTimingPoint }
func (UpdateTimingPointCommand) commandType() string     { return CmdUpdateTimingPoint }
func (DeleteTimingPointsCommand) commandType() string    { return CmdDeleteTimingPoint }
func (SetHitObjectOverridesCommand) commandType() string { return CmdSetHitObjectOverrides }

// ClientMessage is one decoded inbound envelope. ResponseID, when set,
// correlates the server's reply to this request.
type ClientMessage struct {
	ResponseID string
	Command    ClientCommand
}

type clientEnvelope struct {
	ResponseID string `json:"responseId"`
	Command    struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	} `json:"command"`
}

// DecodeClientMessage parses one inbound JSON frame.
func DecodeClientMessage(data []byte) (ClientMessage, error) {
	var env clientEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return ClientMessage{}, fmt.Errorf("decode envelope: %w", err)
	}

	msg := ClientMessage{ResponseID: env.ResponseID}
	payload := env.Command.Payload

	switch env.Command.Type {
	case CmdCursorPos:
		var pos state.Vec2
		if err := json.Unmarshal(payload, &pos); err != nil {
			return ClientMessage{}, fmt.Errorf("decode %s: %w", env.Command.Type, err)
		}
		msg.Command = CursorPosCommand{Pos: pos}
	case CmdCurrentTime:
		var t int
		if err := json.Unmarshal(payload, &t); err != nil {
			return ClientMessage{}, fmt.Errorf("decode %s: %w", env.Command.Type, err)
		}
		msg.Command = CurrentTimeCommand{Time: t}
	case CmdSelectHitObject:
		var cmd SelectHitObjectsCommand
		if err := json.Unmarshal(payload, &cmd); err != nil {
			return ClientMessage{}, fmt.Errorf("decode %s: %w", env.Command.Type, err)
		}
		msg.Command = cmd
	case CmdCreateHitObject:
		var obj state.HitObject
		if err := json.Unmarshal(payload, &obj); err != nil {
			return ClientMessage{}, fmt.Errorf("decode %s: %w", env.Command.Type, err)
		}
		msg.Command = CreateHitObjectCommand{HitObject: obj}
	case CmdUpdateHitObject:
		var obj state.HitObject
		if err := json.Unmarshal(payload, &obj); err != nil {
			return ClientMessage{}, fmt.Errorf("decode %s: %w", env.Command.Type, err)
		}
		msg.Command = UpdateHitObjectCommand{HitObject: obj}
	case CmdDeleteHitObject:
		var ids []uint64
		if err := json.Unmarshal(payload, &ids); err != nil {
			return ClientMessage{}, fmt.Errorf("decode %s: %w", env.Command.Type, err)
		}
		msg.Command = DeleteHitObjectsCommand{IDs: ids}
	case CmdCreateTimingPoint:
		var tp state.TimingPoint
		if err := json.Unmarshal(payload, &tp); err != nil {
			return ClientMessage{}, fmt.Errorf("decode %s: %w", env.Command.Type, err)
		}
		msg.Command = CreateTimingPointCommand{TimingPoint: tp}
	case CmdUpdateTimingPoint:
		var tp state.TimingPoint
		if err := json.Unmarshal(payload, &tp); err != nil {
			return ClientMessage{}, fmt.Errorf("decode %s: %w", env.Command.Type, err)
		}
		msg.Command = UpdateTimingPointCommand{TimingPoint: tp}
	case CmdDeleteTimingPoint:
		var ids []uint64
		if err := json.Unmarshal(payload, &ids); err != nil {
			return ClientMessage{}, fmt.Errorf("decode %s: %w", env.Command.Type, err)
		}
		msg.Command = DeleteTimingPointsCommand{IDs: ids}
	case CmdSetHitObjectOverrides:
		var cmd SetHitObjectOverridesCommand
		if err := json.Unmarshal(payload, &cmd); err != nil {
			return ClientMessage{}, fmt.Errorf("decode %s: %w", env.Command.Type, err)
		}
		msg.Command = cmd
	default:
		return ClientMessage{}, fmt.Errorf("unknown command type %q", env.Command.Type)
	}

	return msg, nil
}
