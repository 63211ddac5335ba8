package server

import (
	"encoding/json"
	"time"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

type CreateRoomData struct {
	DisplayName string `json:"displayName,omitempty"`
}

type JoinRoomData struct {
	RoomID      string `json:"roomId"`
	DisplayName string `json:"displayName,omitempty"`
}

type StartTossData struct {
	RoomID string `json:"roomId"`
}

type ChooseNumberData struct {
	RoomID string `json:"roomId"`
	Number int    `json:"number"`
}

// Server → Client Messages
//
// Everything match-related is a game event payload (see
// internal/game/events.go). Only the error envelope is transport-level.

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
