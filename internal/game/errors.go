package game

import "errors"

// Errors surfaced to the originating connection. Everything else that can
// go wrong with an inbound event (stale round, unknown player, wrong
// phase) is silently dropped so a late or duplicate message can never
// corrupt match state.
var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomFull         = errors.New("room is full")
	ErrNotEnoughPlayers = errors.New("cannot start toss: waiting for second player")
	ErrTossAlreadyDone  = errors.New("toss already completed")
	ErrInvalidChoice    = errors.New("choice must be between 1 and 6")
	ErrMatchFinished    = errors.New("match already finished")
)
