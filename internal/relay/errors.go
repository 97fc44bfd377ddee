package relay

import "errors"

// Error kinds returned by Registry operations and DecodeCommand.
var (
	ErrInvalidPayload = errors.New("invalid payload")
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotAMember     = errors.New("not a member of room")
	ErrRoomNotFound   = errors.New("room not found")
	ErrUnknownCommand = errors.New("unknown command type")
)

// Client-visible error texts.
const (
	msgInvalidFormat   = "Invalid message format"
	msgRoomIDRequired  = "Room ID is required"
	msgRoomAndMessage  = "Room ID and message are required"
	msgNotInRoom       = "You are not in this room"
	msgMessageRequired = "message is required"
	msgRoomNotFound    = "Room not found"
)

// RequestError is a failure that is reported back to the caller. Message is
// the text sent to the client; Kind is one of the Err* sentinels.
type RequestError struct {
	Kind    error
	Message string
}

func (e *RequestError) Error() string {
	return e.Kind.Error() + ": " + e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Kind
}

func requestError(kind error, message string) *RequestError {
	return &RequestError{Kind: kind, Message: message}
}

// ClientMessage returns the text that should be shown to the caller for err.
func ClientMessage(err error) string {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Message
	}
	return err.Error()
}
