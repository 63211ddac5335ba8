package server

// Note: match events (ball-start, ball-result, etc.) are defined in
// internal/game/events.go and are also sent as WebSocket messages

// MessageType represents a WebSocket message type with type safety
type MessageType string

// WebSocket message type constants for the client to server direction.
// Server to client types are the game.EventType values.
const (
	MessageTypeCreateRoom   MessageType = "create-room"
	MessageTypeJoinRoom     MessageType = "join-room"
	MessageTypeStartToss    MessageType = "start-toss"
	MessageTypeChooseNumber MessageType = "choose-number"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}
