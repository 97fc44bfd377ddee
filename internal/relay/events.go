package relay

import (
	"encoding/json"
	"time"
)

// Outbound event types.
const (
	EventConnected   = "connected"
	EventJoinedRoom  = "joined_room"
	EventLeftRoom    = "left_room"
	EventUserJoined  = "user_joined"
	EventUserLeft    = "user_left"
	EventRoomMessage = "room_message"
	EventError       = "error"
)

// TimestampLayout formats timestamps as ISO-8601 UTC with millisecond
// precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Event is an outbound frame: a type tag and its payload.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ConnectedData is sent once after a connection is registered.
type ConnectedData struct {
	ClientID string `json:"clientId"`
}

// JoinedRoomData confirms a join to the joining connection.
type JoinedRoomData struct {
	RoomID           string `json:"roomId"`
	ParticipantCount int    `json:"participantCount"`
	UserID           string `json:"userId"`
}

// LeftRoomData confirms a leave to the leaving connection.
type LeftRoomData struct {
	RoomID string `json:"roomId"`
}

// PresenceData announces a join or leave to the other participants.
type PresenceData struct {
	UserID           string `json:"userId"`
	ParticipantCount int    `json:"participantCount"`
}

// RoomMessageData carries a chat message to every participant.
type RoomMessageData struct {
	RoomID    string `json:"roomId"`
	Message   string `json:"message"`
	UserID    string `json:"userId"`
	Timestamp string `json:"timestamp"`
}

// ErrorData carries a client-visible failure.
type ErrorData struct {
	Message string `json:"message"`
}

func connectedEvent(clientID string) Event {
	return Event{Type: EventConnected, Data: ConnectedData{ClientID: clientID}}
}

func errorEvent(message string) Event {
	return Event{Type: EventError, Data: ErrorData{Message: message}}
}

func roomMessageEvent(roomID, message, userID string, at time.Time) Event {
	return Event{
		Type: EventRoomMessage,
		Data: RoomMessageData{
			RoomID:    roomID,
			Message:   message,
			UserID:    userID,
			Timestamp: FormatTimestamp(at),
		},
	}
}

func encodeEvent(ev Event) ([]byte, error) {
	return json.Marshal(ev)
}
