// Package rooms provides the concurrency-safe registry mapping room codes
// to match state. Rooms are created on demand and removed when a player
// disconnects; there is no other deletion path.
package rooms

import (
	"sync"

	"github.com/charmbracelet/log"

	"github.com/irfathmostofa/hand-cricket-backend/internal/game"
)

// Registry tracks live rooms and which room each connected player is in.
// It implements game.RoomStore.
type Registry struct {
	mu      sync.RWMutex
	rooms   map[string]*game.Match
	players map[string]string // playerID -> room code
	rand    RandSource
	logger  *log.Logger
}

// NewRegistry constructs an empty registry. The rand source feeds room
// code generation and is injectable for deterministic tests.
func NewRegistry(rand RandSource, logger *log.Logger) *Registry {
	return &Registry{
		rooms:   make(map[string]*game.Match),
		players: make(map[string]string),
		rand:    rand,
		logger:  logger.WithPrefix("rooms"),
	}
}

// Create allocates an unused room code, builds the match under it and
// registers it. Code generation and insertion happen under one write lock
// so two concurrent creates can never claim the same code.
func (r *Registry) Create(build func(roomID string) *game.Match) *game.Match {
	r.mu.Lock()
	defer r.mu.Unlock()

	code := generateCode(r.rand)
	for {
		if _, taken := r.rooms[code]; !taken {
			break
		}
		code = generateCode(r.rand)
	}

	m := build(code)
	r.rooms[code] = m
	r.logger.Debug("Registered room", "room", code, "total", len(r.rooms))
	return m
}

// Get retrieves a room by code.
func (r *Registry) Get(roomID string) (*game.Match, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.rooms[roomID]
	return m, ok
}

// Bind associates a player's connection id with a room so a disconnect can
// find the room to tear down.
func (r *Registry) Bind(playerID, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.players[playerID] = roomID
}

// RoomFor returns the room the given player is in, if any.
func (r *Registry) RoomFor(playerID string) (*game.Match, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	code, ok := r.players[playerID]
	if !ok {
		return nil, false
	}
	m, ok := r.rooms[code]
	return m, ok
}

// Delete removes a room and every player binding pointing at it.
func (r *Registry) Delete(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[roomID]; !ok {
		return
	}
	delete(r.rooms, roomID)
	for playerID, code := range r.players {
		if code == roomID {
			delete(r.players, playerID)
		}
	}
	r.logger.Debug("Removed room", "room", roomID, "total", len(r.rooms))
}

// Count returns the number of live rooms.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
