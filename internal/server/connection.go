package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/irfathmostofa/hand-cricket-backend/internal/game"
	"github.com/irfathmostofa/hand-cricket-backend/internal/playerid"
)

// Connection represents a WebSocket connection to a client
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	playerID  string
	roomID    string
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	closeOnce sync.Once
	engine    *game.Engine
}

// NewConnection creates a new connection wrapper with a fresh
// connection-scoped player id
func NewConnection(conn *websocket.Conn, logger *log.Logger, engine *game.Engine) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	id := playerid.Generate()

	return &Connection{
		conn:     conn,
		send:     make(chan *Message, 256),
		playerID: id,
		logger:   logger.WithPrefix("conn").With("player", id),
		ctx:      ctx,
		cancel:   cancel,
		engine:   engine,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage sends a message to the client
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed, this is expected during shutdown
			c.logger.Debug("Attempted to send message on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close() // Ignore close errors
		return ErrConnectionClosed
	}
}

// PlayerID returns the connection-scoped player id
func (c *Connection) PlayerID() string {
	return c.playerID
}

// SetRoom associates this connection with a room
func (c *Connection) SetRoom(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomID = roomID
}

// RoomID returns the associated room code
func (c *Connection) RoomID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var (
	ErrConnectionClosed = websocket.ErrCloseSent
)

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }() // Ignore close errors during cleanup

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			break
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // Ignore close errors during cleanup
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type)

	if c.engine == nil {
		c.sendError("service_unavailable", "Match engine not available")
		return
	}

	switch msg.Type {
	case MessageTypeCreateRoom:
		var data CreateRoomData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse create room data")
			return
		}
		c.handleCreateRoom(data)

	case MessageTypeJoinRoom:
		var data JoinRoomData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse join room data")
			return
		}
		c.handleJoinRoom(data)

	case MessageTypeStartToss:
		var data StartTossData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse start toss data")
			return
		}
		c.handleStartToss(data)

	case MessageTypeChooseNumber:
		var data ChooseNumberData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse choose number data")
			return
		}
		c.handleChooseNumber(data)

	default:
		c.sendError("unknown_message_type", "Unknown message type: "+msg.Type.String())
	}
}

// sendError sends an error message to this client only
func (c *Connection) sendError(code, message string) {
	errorMsg, err := NewMessage(MessageType(game.EventError), ErrorData{
		Code:    code,
		Message: message,
	})
	if err != nil {
		c.logger.Error("Failed to create error message", "error", err)
		return
	}

	_ = c.SendMessage(errorMsg) // Ignore send errors during error handling
}

// sendEvent sends a game event to this client only
func (c *Connection) sendEvent(event game.EventType, payload any) {
	msg, err := NewMessage(MessageType(event), payload)
	if err != nil {
		c.logger.Error("Failed to create event message", "error", err, "event", event)
		return
	}
	_ = c.SendMessage(msg) // Ignore send errors
}

func (c *Connection) handleCreateRoom(data CreateRoomData) {
	if c.RoomID() != "" {
		c.sendError("already_in_room", "Already in room "+c.RoomID())
		return
	}

	m := c.engine.CreateRoom(c.playerID, data.DisplayName)
	c.SetRoom(m.RoomID)
	c.logger.Info("Room created", "room", m.RoomID)

	c.sendEvent(game.EventRoomCreated, game.RoomCreatedPayload{
		RoomID: m.RoomID,
		Player: game.PlayerInfo{ID: m.Players[0].ID, Name: m.Players[0].Name},
	})
}

func (c *Connection) handleJoinRoom(data JoinRoomData) {
	if c.RoomID() != "" {
		c.sendError("already_in_room", "Already in room "+c.RoomID())
		return
	}

	// room-joined is broadcast by the engine once the seat is taken, but
	// the joining connection must be associated first so it receives it
	c.SetRoom(data.RoomID)
	_, err := c.engine.JoinRoom(data.RoomID, c.playerID, data.DisplayName)
	if err != nil {
		c.SetRoom("")
		switch {
		case errors.Is(err, game.ErrRoomNotFound):
			c.sendError("room_not_found", "Room not found")
		case errors.Is(err, game.ErrRoomFull):
			c.sendError("room_full", "Room is full")
		default:
			c.sendError("join_failed", err.Error())
		}
		return
	}

	c.logger.Info("Joined room", "room", data.RoomID)
}

func (c *Connection) handleStartToss(data StartTossData) {
	err := c.engine.StartToss(data.RoomID, c.playerID)
	if err != nil {
		switch {
		case errors.Is(err, game.ErrRoomNotFound):
			c.sendError("room_not_found", "Room not found")
		case errors.Is(err, game.ErrNotEnoughPlayers):
			c.sendError("not_enough_players", err.Error())
		default:
			c.sendError("toss_failed", err.Error())
		}
	}
}

func (c *Connection) handleChooseNumber(data ChooseNumberData) {
	err := c.engine.SubmitChoice(data.RoomID, c.playerID, data.Number)
	if err != nil {
		switch {
		case errors.Is(err, game.ErrInvalidChoice):
			c.sendError("invalid_choice", err.Error())
		case errors.Is(err, game.ErrRoomNotFound):
			c.sendError("room_not_found", "Room not found")
		default:
			c.sendError("choice_failed", err.Error())
		}
	}
}
