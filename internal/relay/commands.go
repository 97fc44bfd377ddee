package relay

import (
	"encoding/json"
	"fmt"
)

// Inbound command types.
const (
	CommandJoinRoom    = "join_room"
	CommandLeaveRoom   = "leave_room"
	CommandRoomMessage = "room_message"
)

// Command is a decoded inbound frame. The concrete type is one of JoinRoom,
// LeaveRoom or RoomMessage.
type Command interface {
	Type() string
	Validate() error
}

// JoinRoom asks to join RoomID under UserID (defaults to the connection id).
type JoinRoom struct {
	RoomID string
	UserID string
}

func (JoinRoom) Type() string { return CommandJoinRoom }

func (c JoinRoom) Validate() error {
	if c.RoomID == "" {
		return requestError(ErrInvalidRequest, msgRoomIDRequired)
	}
	return nil
}

// LeaveRoom asks to leave RoomID.
type LeaveRoom struct {
	RoomID string
}

func (LeaveRoom) Type() string { return CommandLeaveRoom }

// Validate always succeeds; leaving an unknown room is a no-op.
func (LeaveRoom) Validate() error { return nil }

// RoomMessage sends Message to every participant of RoomID.
type RoomMessage struct {
	RoomID  string
	Message string
	UserID  string
}

func (RoomMessage) Type() string { return CommandRoomMessage }

func (c RoomMessage) Validate() error {
	if c.RoomID == "" || c.Message == "" {
		return requestError(ErrInvalidRequest, msgRoomAndMessage)
	}
	return nil
}

// header carries only the type tag, so unknown commands are recognised
// before their fields are looked at.
type header struct {
	Type string `json:"type"`
}

// envelope is the wire shape shared by every known inbound frame.
type envelope struct {
	RoomID  string `json:"roomId"`
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

// DecodeCommand parses a raw frame into a typed Command. Frames that are not
// a JSON object, or whose type is not a string, yield ErrInvalidPayload. A
// missing or unrecognised type yields ErrUnknownCommand whatever the other
// fields hold. Known commands with wrongly typed fields yield
// ErrInvalidPayload.
func DecodeCommand(raw []byte) (Command, error) {
	var head *header
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if head == nil {
		return nil, fmt.Errorf("%w: not an object", ErrInvalidPayload)
	}

	switch head.Type {
	case CommandJoinRoom, CommandLeaveRoom, CommandRoomMessage:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, head.Type)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	switch head.Type {
	case CommandJoinRoom:
		return JoinRoom{RoomID: env.RoomID, UserID: env.UserID}, nil
	case CommandLeaveRoom:
		return LeaveRoom{RoomID: env.RoomID}, nil
	default:
		return RoomMessage{RoomID: env.RoomID, Message: env.Message, UserID: env.UserID}, nil
	}
}
