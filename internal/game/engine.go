package game

import (
	"fmt"
	rand "math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
)

// Broadcaster delivers an event to every connection currently joined to a
// room. The transport layer implements this; the engine never talks to
// sockets directly.
type Broadcaster interface {
	Publish(roomID string, event EventType, payload any)
}

// RoomStore is the registry the engine resolves rooms through. It must be
// safe for concurrent use across rooms.
type RoomStore interface {
	// Create allocates a fresh collision-checked room code, invokes build
	// with it and registers the result.
	Create(build func(roomID string) *Match) *Match
	Get(roomID string) (*Match, bool)
	Delete(roomID string)
	// Bind associates a player's connection id with a room for disconnect
	// lookup. Delete removes all bindings for the room.
	Bind(playerID, roomID string)
	RoomFor(playerID string) (*Match, bool)
}

// Timings collects every delay the engine schedules. The ball timeout is
// the fallback deadline for choice collection; the rest exist purely to
// pace the client display and are not correctness requirements.
type Timings struct {
	BallTimeout   time.Duration
	ResultDelay   time.Duration // resolved ball -> end-of-ball check
	NextBallDelay time.Duration
	TossDelay     time.Duration // toss result -> first ball
	InningsBreak  time.Duration // innings end -> first ball of the chase
}

// DefaultTimings returns the production pacing.
func DefaultTimings() Timings {
	return Timings{
		BallTimeout:   5 * time.Second,
		ResultDelay:   2 * time.Second,
		NextBallDelay: 3 * time.Second,
		TossDelay:     3 * time.Second,
		InningsBreak:  3 * time.Second,
	}
}

// Engine drives hand-cricket matches. Every inbound event and every timer
// callback resolves the room, takes its lock and applies the event under
// it, so per-room state is never touched concurrently.
type Engine struct {
	store       RoomStore
	broadcaster Broadcaster
	clock       quartz.Clock
	logger      *log.Logger
	timings     Timings
	matchConfig MatchConfig
	recorder    Recorder // optional match archival

	randMu sync.Mutex
	rand   *rand.Rand
}

// NewEngine creates an engine. The clock and rng are injected so tests can
// drive timeouts and fix toss/fallback outcomes deterministically.
func NewEngine(store RoomStore, broadcaster Broadcaster, clock quartz.Clock, rng *rand.Rand, logger *log.Logger, timings Timings, matchConfig MatchConfig) *Engine {
	return &Engine{
		store:       store,
		broadcaster: broadcaster,
		clock:       clock,
		rand:        rng,
		logger:      logger.WithPrefix("engine"),
		timings:     timings,
		matchConfig: matchConfig,
	}
}

// SetRecorder installs an archival sink for completed matches.
func (e *Engine) SetRecorder(recorder Recorder) {
	e.recorder = recorder
}

// intN draws a uniform value in [0,n). The engine is entered concurrently
// for different rooms, and rand.Rand is not safe for concurrent use.
func (e *Engine) intN(n int) int {
	e.randMu.Lock()
	defer e.randMu.Unlock()
	return e.rand.IntN(n)
}

// CreateRoom registers a new room with the caller in the first seat and
// returns its state. The room starts in WAITING.
func (e *Engine) CreateRoom(playerID, name string) *Match {
	if name == "" {
		name = "Player 1"
	}
	m := e.store.Create(func(roomID string) *Match {
		return NewMatch(roomID, e.matchConfig, &Player{ID: playerID, Name: name})
	})
	e.store.Bind(playerID, m.RoomID)
	e.logger.Info("Room created", "room", m.RoomID, "player", playerID)
	return m
}

// JoinRoom seats the second player and advances the room to TOSS. Both
// players are notified of the full seating.
func (e *Engine) JoinRoom(roomID, playerID, name string) (*Match, error) {
	m, ok := e.store.Get(roomID)
	if !ok {
		return nil, ErrRoomNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrRoomNotFound
	}
	if m.Players[1] != nil {
		return nil, ErrRoomFull
	}
	if name == "" {
		name = "Player 2"
	}
	m.Players[1] = &Player{ID: playerID, Name: name}
	m.Status = StatusToss
	e.store.Bind(playerID, roomID)
	e.logger.Info("Player joined room", "room", roomID, "player", playerID)

	e.publish(m, EventRoomJoined, RoomJoinedPayload{
		RoomID:  roomID,
		Players: m.playerInfos(),
	})
	return m, nil
}

// StartToss picks the player who bats first, uniformly at random, and
// schedules the first ball of the first innings.
func (e *Engine) StartToss(roomID, playerID string) error {
	m, ok := e.store.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrRoomNotFound
	}
	if m.Players[1] == nil {
		return ErrNotEnoughPlayers
	}
	if m.Status == StatusFinished {
		return ErrMatchFinished
	}
	if m.Status != StatusToss {
		return ErrTossAlreadyDone
	}

	winner := m.Players[e.intN(2)]
	loser := m.Players[0]
	if loser == winner {
		loser = m.Players[1]
	}

	m.TossWinner = winner
	m.First.Batting, m.First.Bowling = winner, loser
	m.Second.Batting, m.Second.Bowling = loser, winner
	m.Status = StatusInnings1
	e.logger.Info("Toss complete", "room", roomID, "winner", winner.ID)

	e.publish(m, EventTossResult, TossResultPayload{
		Winner:       PlayerInfo{ID: winner.ID, Name: winner.Name},
		BattingFirst: PlayerInfo{ID: winner.ID, Name: winner.Name},
		Message:      fmt.Sprintf("%s won the toss and will bat first", winner.Name),
	})

	e.scheduleBallLocked(m, e.timings.TossDelay)
	return nil
}

// SubmitChoice records a player's number for the current ball. A value
// outside 1-6 is rejected; a submission for a round that is already
// resolved, or before any round has started, is silently dropped. If both
// players now have a choice the ball resolves immediately and the fallback
// timer is cancelled.
func (e *Engine) SubmitChoice(roomID, playerID string, value int) error {
	if value < 1 || value > 6 {
		return ErrInvalidChoice
	}
	m, ok := e.store.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrRoomNotFound
	}
	if m.Status != StatusInnings1 && m.Status != StatusInnings2 {
		return nil
	}
	if !m.hasPlayer(playerID) || !m.Round.active() {
		return nil
	}

	m.Round.record(playerID, value)
	e.publish(m, EventChoiceSubmitted, ChoiceSubmittedPayload{
		PlayerID:    playerID,
		ChoiceCount: len(m.Round.Choices),
	})

	if m.Round.complete() {
		if m.ballTimer != nil {
			m.ballTimer.Stop()
			m.ballTimer = nil
		}
		e.resolveBallLocked(m)
	}
	return nil
}

// Disconnect tears down the room the player belongs to, at any status.
// The opposing player is notified and every pending timer is invalidated;
// a timer that already fired becomes a no-op via the closed flag.
func (e *Engine) Disconnect(playerID string) {
	m, ok := e.store.RoomFor(playerID)
	if !ok {
		return
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.stopTimersLocked()
	e.logger.Info("Player disconnected, tearing down room", "room", m.RoomID, "player", playerID)
	e.publish(m, EventPlayerLeft, PlayerLeftPayload{
		PlayerID: playerID,
		Message:  "Opponent left the game. Match ended.",
	})
	m.mu.Unlock()

	e.store.Delete(m.RoomID)
}

// scheduleBallLocked arms the delayed start of the next ball. The callback
// re-enters the engine, re-acquires the room lock and re-checks that the
// room still exists and is still in an innings.
func (e *Engine) scheduleBallLocked(m *Match, delay time.Duration) {
	roomID := m.RoomID
	m.nextTimer = e.clock.AfterFunc(delay, func() {
		m, ok := e.store.Get(roomID)
		if !ok {
			return
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.closed || (m.Status != StatusInnings1 && m.Status != StatusInnings2) {
			return
		}
		e.startBallLocked(m)
	})
}

// startBallLocked opens a new choice round and arms the fallback timer.
// A round that would exceed the innings ball limit is never started; that
// is guaranteed by the end-of-ball check running before this.
func (e *Engine) startBallLocked(m *Match) {
	deadline := e.clock.Now().Add(e.timings.BallTimeout)
	m.Round.begin(deadline)
	e.logger.Debug("Ball started", "room", m.RoomID, "round", m.Round.ID, "innings", m.InningsNumber())

	e.publish(m, EventBallStart, BallStartPayload{
		Innings:        m.InningsNumber(),
		TimeoutSeconds: int(e.timings.BallTimeout / time.Second),
		GameState:      m.Snapshot(),
	})

	roundID := m.Round.ID
	roomID := m.RoomID
	m.ballTimer = e.clock.AfterFunc(e.timings.BallTimeout, func() {
		e.ballTimeout(roomID, roundID)
	})
}

// ballTimeout is the fallback when the deadline passes before both choices
// arrive. Missing choices are filled with independent uniform draws in
// [1,6]. The captured round id guards against firing for a stale round.
func (e *Engine) ballTimeout(roomID string, roundID int64) {
	m, ok := e.store.Get(roomID)
	if !ok {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || m.Round.ID != roundID || m.Round.Resolved {
		return
	}
	for _, p := range m.Players {
		if p == nil {
			continue
		}
		if _, ok := m.Round.Choices[p.ID]; !ok {
			m.Round.record(p.ID, e.intN(6)+1)
		}
	}
	e.logger.Debug("Ball timeout, filled missing choices", "room", roomID, "round", roundID)
	e.resolveBallLocked(m)
}

// resolveBallLocked applies the two choices to the active innings. Guarded
// to run exactly once per round no matter how many triggers fire.
func (e *Engine) resolveBallLocked(m *Match) {
	if !m.Round.markResolved() {
		return
	}
	if m.ballTimer != nil {
		m.ballTimer.Stop()
		m.ballTimer = nil
	}

	inn := m.CurrentInnings()
	bat := m.Round.Choices[inn.Batting.ID]
	bowl := m.Round.Choices[inn.Bowling.ID]

	inn.Balls++
	rec := BallRecord{Bat: bat, Bowl: bowl}
	var message string
	if bat == bowl {
		inn.WicketsLeft--
		rec.Out = true
		message = "OUT!"
	} else {
		inn.Score += bat
		rec.Runs = bat
		message = fmt.Sprintf("+%d runs", bat)
	}
	inn.History = append(inn.History, rec)
	e.logger.Debug("Ball resolved",
		"room", m.RoomID, "round", m.Round.ID,
		"bat", bat, "bowl", bowl, "out", rec.Out,
		"score", inn.Score, "wicketsLeft", inn.WicketsLeft)

	e.publish(m, EventBallResult, BallResultPayload{
		Bat:       bat,
		Bowl:      bowl,
		BattingID: inn.Batting.ID,
		BowlingID: inn.Bowling.ID,
		Out:       rec.Out,
		Runs:      rec.Runs,
		Message:   message,
		GameState: m.Snapshot(),
		LastBalls: inn.LastBalls(4),
	})

	// Give clients a moment to display the result before the next
	// transition.
	roundID := m.Round.ID
	roomID := m.RoomID
	m.nextTimer = e.clock.AfterFunc(e.timings.ResultDelay, func() {
		e.afterBall(roomID, roundID)
	})
}

// afterBall runs the end-of-ball check: innings exhaustion, chase success
// or the next delivery. The chase check runs on every resolved ball, not
// only at over or wicket exhaustion.
func (e *Engine) afterBall(roomID string, roundID int64) {
	m, ok := e.store.Get(roomID)
	if !ok {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || m.Round.ID != roundID || !m.Round.Resolved {
		return
	}
	if m.Status != StatusInnings1 && m.Status != StatusInnings2 {
		return
	}

	inn := m.CurrentInnings()
	switch {
	case inn.WicketsLeft <= 0 || inn.Balls >= m.Config.TotalBalls():
		if m.Status == StatusInnings1 {
			e.switchInningsLocked(m)
		} else {
			e.endMatchLocked(m)
		}
	case m.Status == StatusInnings2 && inn.Score >= inn.Target:
		e.endMatchLocked(m)
	default:
		e.scheduleBallLocked(m, e.timings.NextBallDelay)
	}
}

// switchInningsLocked sets the chase target and moves to the second
// innings. Batting and bowling roles were fixed at the toss.
func (e *Engine) switchInningsLocked(m *Match) {
	m.Second.Target = m.First.Score + 1
	m.Status = StatusInnings2
	e.logger.Info("First innings ended", "room", m.RoomID, "target", m.Second.Target)

	e.publish(m, EventInningsEnd, InningsEndPayload{
		Target:            m.Second.Target,
		FirstInningsScore: m.First.Score,
		GameState:         m.Snapshot(),
	})

	e.scheduleBallLocked(m, e.timings.InningsBreak)
}

// endMatchLocked determines the winner, marks the match FINISHED and
// broadcasts the result. FINISHED is terminal; no further rounds start.
func (e *Engine) endMatchLocked(m *Match) {
	var winner *Player
	var margin string
	if m.Second.Score >= m.Second.Target {
		winner = m.Second.Batting
		margin = fmt.Sprintf("by %d %s", m.Second.WicketsLeft, pluralize(m.Second.WicketsLeft, "wicket"))
	} else {
		winner = m.First.Batting
		runs := m.Second.Target - m.Second.Score - 1
		margin = fmt.Sprintf("by %d %s", runs, pluralize(runs, "run"))
	}

	m.Status = StatusFinished
	m.stopTimersLocked()
	e.logger.Info("Match ended", "room", m.RoomID, "winner", winner.ID, "margin", margin)

	if e.recorder != nil {
		rec := m.recordLocked(e.clock.Now(), winner, margin)
		go e.recorder.RecordMatch(rec)
	}

	e.publish(m, EventMatchEnd, MatchEndPayload{
		Winner:             PlayerInfo{ID: winner.ID, Name: winner.Name},
		Margin:             margin,
		Message:            fmt.Sprintf("%s won %s", winner.Name, margin),
		FirstInningsScore:  m.First.Score,
		SecondInningsScore: m.Second.Score,
		Target:             m.Second.Target,
		GameState:          m.Snapshot(),
	})
}

func (e *Engine) publish(m *Match, event EventType, payload any) {
	e.broadcaster.Publish(m.RoomID, event, payload)
}

func (m *Match) playerInfos() []PlayerInfo {
	infos := make([]PlayerInfo, 0, 2)
	for _, p := range m.Players {
		if p != nil {
			infos = append(infos, PlayerInfo{ID: p.ID, Name: p.Name})
		}
	}
	return infos
}

func pluralize(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
