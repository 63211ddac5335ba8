package game

import (
	"context"
	"fmt"
	"io"
	rand "math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordedEvent captures one Publish call for later inspection.
type recordedEvent struct {
	roomID  string
	event   EventType
	payload any
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (b *recordingBroadcaster) Publish(roomID string, event EventType, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{roomID: roomID, event: event, payload: payload})
}

func (b *recordingBroadcaster) ofType(event EventType) []recordedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []recordedEvent
	for _, e := range b.events {
		if e.event == event {
			out = append(out, e)
		}
	}
	return out
}

func (b *recordingBroadcaster) count(event EventType) int {
	return len(b.ofType(event))
}

func (b *recordingBroadcaster) total() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

func (b *recordingBroadcaster) last(t *testing.T, event EventType) recordedEvent {
	t.Helper()
	events := b.ofType(event)
	require.NotEmpty(t, events, "no %s event recorded", event)
	return events[len(events)-1]
}

// stubStore is a minimal in-memory RoomStore with predictable room codes.
type stubStore struct {
	mu      sync.Mutex
	next    int
	rooms   map[string]*Match
	players map[string]string
}

func newStubStore() *stubStore {
	return &stubStore{
		rooms:   make(map[string]*Match),
		players: make(map[string]string),
	}
}

func (s *stubStore) Create(build func(roomID string) *Match) *Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	code := fmt.Sprintf("ROOM%02d", s.next)
	m := build(code)
	s.rooms[code] = m
	return m
}

func (s *stubStore) Get(roomID string) (*Match, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rooms[roomID]
	return m, ok
}

func (s *stubStore) Delete(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, roomID)
	for playerID, room := range s.players {
		if room == roomID {
			delete(s.players, playerID)
		}
	}
}

func (s *stubStore) Bind(playerID, roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[playerID] = roomID
}

func (s *stubStore) RoomFor(playerID string) (*Match, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	roomID, ok := s.players[playerID]
	if !ok {
		return nil, false
	}
	m, ok := s.rooms[roomID]
	return m, ok
}

type engineFixture struct {
	engine  *Engine
	store   *stubStore
	bc      *recordingBroadcaster
	clock   *quartz.Mock
	timings Timings
}

func newEngineFixture(t *testing.T, cfg MatchConfig) *engineFixture {
	t.Helper()
	f := &engineFixture{
		store:   newStubStore(),
		bc:      &recordingBroadcaster{},
		clock:   quartz.NewMock(t),
		timings: DefaultTimings(),
	}
	rng := rand.New(rand.NewPCG(42, 0))
	f.engine = NewEngine(f.store, f.bc, f.clock, rng, log.New(io.Discard), f.timings, cfg)
	return f
}

// advance moves the mock clock and waits for every triggered callback to
// finish before returning.
func (f *engineFixture) advance(t *testing.T, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	f.clock.Advance(d).MustWait(ctx)
}

// startMatch seats two players, runs the toss and advances to the first
// ball of the first innings.
func (f *engineFixture) startMatch(t *testing.T) *Match {
	t.Helper()
	m := f.engine.CreateRoom("p1", "Alice")
	_, err := f.engine.JoinRoom(m.RoomID, "p2", "Bob")
	require.NoError(t, err)
	require.NoError(t, f.engine.StartToss(m.RoomID, "p1"))
	f.advance(t, f.timings.TossDelay)
	require.Equal(t, 1, f.bc.count(EventBallStart), "first ball should have started")
	return m
}

// playBall submits both choices for the active ball and advances through
// the result delay so the end-of-ball check runs.
func (f *engineFixture) playBall(t *testing.T, m *Match, batVal, bowlVal int) {
	t.Helper()
	inn := m.CurrentInnings()
	require.NoError(t, f.engine.SubmitChoice(m.RoomID, inn.Batting.ID, batVal))
	require.NoError(t, f.engine.SubmitChoice(m.RoomID, inn.Bowling.ID, bowlVal))
	f.advance(t, f.timings.ResultDelay)
}

func TestCreateRoom(t *testing.T) {
	f := newEngineFixture(t, DefaultMatchConfig())

	m := f.engine.CreateRoom("p1", "Alice")

	assert.Equal(t, StatusWaiting, m.Status)
	require.NotNil(t, m.Players[0])
	assert.Equal(t, "Alice", m.Players[0].Name)
	assert.Nil(t, m.Players[1])

	got, ok := f.store.Get(m.RoomID)
	require.True(t, ok)
	assert.Same(t, m, got)

	bound, ok := f.store.RoomFor("p1")
	require.True(t, ok)
	assert.Same(t, m, bound)
}

func TestCreateRoom_DefaultName(t *testing.T) {
	f := newEngineFixture(t, DefaultMatchConfig())
	m := f.engine.CreateRoom("p1", "")
	assert.Equal(t, "Player 1", m.Players[0].Name)
}

func TestJoinRoom(t *testing.T) {
	f := newEngineFixture(t, DefaultMatchConfig())
	m := f.engine.CreateRoom("p1", "Alice")

	t.Run("unknown room", func(t *testing.T) {
		_, err := f.engine.JoinRoom("NOSUCH", "p2", "Bob")
		assert.ErrorIs(t, err, ErrRoomNotFound)
	})

	t.Run("second seat fills and room advances to toss", func(t *testing.T) {
		joined, err := f.engine.JoinRoom(m.RoomID, "p2", "Bob")
		require.NoError(t, err)
		assert.Same(t, m, joined)
		assert.Equal(t, StatusToss, m.Status)

		ev := f.bc.last(t, EventRoomJoined)
		payload := ev.payload.(RoomJoinedPayload)
		assert.Equal(t, m.RoomID, payload.RoomID)
		require.Len(t, payload.Players, 2)
		assert.Equal(t, "Alice", payload.Players[0].Name)
		assert.Equal(t, "Bob", payload.Players[1].Name)
	})

	t.Run("third player rejected", func(t *testing.T) {
		_, err := f.engine.JoinRoom(m.RoomID, "p3", "Carol")
		assert.ErrorIs(t, err, ErrRoomFull)
	})
}

func TestStartToss(t *testing.T) {
	f := newEngineFixture(t, DefaultMatchConfig())
	m := f.engine.CreateRoom("p1", "Alice")

	t.Run("rejected before second player", func(t *testing.T) {
		err := f.engine.StartToss(m.RoomID, "p1")
		assert.ErrorIs(t, err, ErrNotEnoughPlayers)
	})

	_, err := f.engine.JoinRoom(m.RoomID, "p2", "Bob")
	require.NoError(t, err)

	t.Run("assigns roles and starts the first innings", func(t *testing.T) {
		require.NoError(t, f.engine.StartToss(m.RoomID, "p1"))

		assert.Equal(t, StatusInnings1, m.Status)
		require.NotNil(t, m.TossWinner)
		assert.Same(t, m.TossWinner, m.First.Batting)
		assert.Same(t, m.TossWinner, m.Second.Bowling)
		assert.NotSame(t, m.First.Batting, m.First.Bowling)
		assert.Same(t, m.First.Bowling, m.Second.Batting)

		ev := f.bc.last(t, EventTossResult)
		payload := ev.payload.(TossResultPayload)
		assert.Equal(t, m.TossWinner.ID, payload.Winner.ID)
		assert.Equal(t, payload.Winner, payload.BattingFirst)
	})

	t.Run("rejected once done", func(t *testing.T) {
		err := f.engine.StartToss(m.RoomID, "p1")
		assert.ErrorIs(t, err, ErrTossAlreadyDone)
	})

	t.Run("first ball starts after the toss delay", func(t *testing.T) {
		assert.Equal(t, 0, f.bc.count(EventBallStart))
		f.advance(t, f.timings.TossDelay)
		require.Equal(t, 1, f.bc.count(EventBallStart))

		payload := f.bc.last(t, EventBallStart).payload.(BallStartPayload)
		assert.Equal(t, 1, payload.Innings)
		assert.Equal(t, m.TossWinner.ID, payload.GameState.Batting.ID)
		assert.EqualValues(t, 1, m.Round.ID)
	})
}

func TestBallResolution_Runs(t *testing.T) {
	f := newEngineFixture(t, DefaultMatchConfig())
	m := f.startMatch(t)

	f.playBall(t, m, 4, 2)

	assert.Equal(t, 4, m.First.Score)
	assert.Equal(t, 1, m.First.Balls)
	assert.Equal(t, m.Config.MaxWickets, m.First.WicketsLeft)
	require.Len(t, m.First.History, 1)
	assert.Equal(t, BallRecord{Bat: 4, Bowl: 2, Runs: 4}, m.First.History[0])

	payload := f.bc.last(t, EventBallResult).payload.(BallResultPayload)
	assert.Equal(t, 4, payload.Bat)
	assert.Equal(t, 2, payload.Bowl)
	assert.False(t, payload.Out)
	assert.Equal(t, 4, payload.Runs)
	assert.Equal(t, "+4 runs", payload.Message)
	assert.Equal(t, 4, payload.GameState.Score)
	assert.Equal(t, m.First.Batting.ID, payload.BattingID)
}

func TestBallResolution_Wicket(t *testing.T) {
	f := newEngineFixture(t, DefaultMatchConfig())
	m := f.startMatch(t)

	f.playBall(t, m, 3, 3)

	assert.Equal(t, 0, m.First.Score)
	assert.Equal(t, m.Config.MaxWickets-1, m.First.WicketsLeft)

	payload := f.bc.last(t, EventBallResult).payload.(BallResultPayload)
	assert.True(t, payload.Out)
	assert.Equal(t, 0, payload.Runs)
	assert.Equal(t, "OUT!", payload.Message)
	assert.Equal(t, 1, payload.GameState.Wickets)
}

func TestSubmitChoice_OutOfRange(t *testing.T) {
	f := newEngineFixture(t, DefaultMatchConfig())
	m := f.startMatch(t)
	batID := m.First.Batting.ID

	for _, v := range []int{0, 7, -1, 100} {
		err := f.engine.SubmitChoice(m.RoomID, batID, v)
		assert.ErrorIs(t, err, ErrInvalidChoice, "value %d", v)
	}

	assert.Equal(t, 0, f.bc.count(EventChoiceSubmitted))
	assert.Empty(t, m.Round.Choices)

	// The round is untouched; a valid submission still works.
	require.NoError(t, f.engine.SubmitChoice(m.RoomID, batID, 3))
	assert.Equal(t, 1, f.bc.count(EventChoiceSubmitted))
}

func TestSubmitChoice_IgnoredOutsidePlay(t *testing.T) {
	f := newEngineFixture(t, DefaultMatchConfig())
	m := f.engine.CreateRoom("p1", "Alice")
	_, err := f.engine.JoinRoom(m.RoomID, "p2", "Bob")
	require.NoError(t, err)

	// Toss phase: dropped without error.
	require.NoError(t, f.engine.SubmitChoice(m.RoomID, "p1", 3))
	assert.Equal(t, 0, f.bc.count(EventChoiceSubmitted))

	require.NoError(t, f.engine.StartToss(m.RoomID, "p1"))
	f.advance(t, f.timings.TossDelay)

	// Unknown player: dropped without error.
	require.NoError(t, f.engine.SubmitChoice(m.RoomID, "intruder", 3))
	assert.Equal(t, 0, f.bc.count(EventChoiceSubmitted))
	assert.Empty(t, m.Round.Choices)
}

func TestSubmitChoice_LastWriteWins(t *testing.T) {
	f := newEngineFixture(t, DefaultMatchConfig())
	m := f.startMatch(t)
	batID := m.First.Batting.ID
	bowlID := m.First.Bowling.ID

	require.NoError(t, f.engine.SubmitChoice(m.RoomID, batID, 3))
	require.NoError(t, f.engine.SubmitChoice(m.RoomID, batID, 5))
	require.NoError(t, f.engine.SubmitChoice(m.RoomID, bowlID, 1))
	f.advance(t, f.timings.ResultDelay)

	// The resubmission overwrote the first value and did not count as a
	// second choice.
	events := f.bc.ofType(EventChoiceSubmitted)
	require.Len(t, events, 3)
	assert.Equal(t, 1, events[0].payload.(ChoiceSubmittedPayload).ChoiceCount)
	assert.Equal(t, 1, events[1].payload.(ChoiceSubmittedPayload).ChoiceCount)
	assert.Equal(t, 2, events[2].payload.(ChoiceSubmittedPayload).ChoiceCount)

	assert.Equal(t, 5, m.First.Score)
	assert.Equal(t, 1, m.First.Balls)
}

func TestBallTimeout_FillsMissingChoices(t *testing.T) {
	f := newEngineFixture(t, DefaultMatchConfig())
	m := f.startMatch(t)
	batID := m.First.Batting.ID

	require.NoError(t, f.engine.SubmitChoice(m.RoomID, batID, 3))
	f.advance(t, f.timings.BallTimeout)

	require.Equal(t, 1, f.bc.count(EventBallResult))
	payload := f.bc.last(t, EventBallResult).payload.(BallResultPayload)
	assert.Equal(t, 3, payload.Bat, "submitted value must be preserved")
	assert.GreaterOrEqual(t, payload.Bowl, 1)
	assert.LessOrEqual(t, payload.Bowl, 6)
	assert.Equal(t, 1, m.First.Balls)
}

func TestBallTimeout_NoSubmissions(t *testing.T) {
	f := newEngineFixture(t, DefaultMatchConfig())
	m := f.startMatch(t)

	f.advance(t, f.timings.BallTimeout)

	require.Equal(t, 1, f.bc.count(EventBallResult))
	payload := f.bc.last(t, EventBallResult).payload.(BallResultPayload)
	for _, v := range []int{payload.Bat, payload.Bowl} {
		assert.GreaterOrEqual(t, v, 1)
		assert.LessOrEqual(t, v, 6)
	}
	assert.Equal(t, 1, m.First.Balls)
}

func TestBallResolvesExactlyOnce(t *testing.T) {
	f := newEngineFixture(t, DefaultMatchConfig())
	m := f.startMatch(t)
	inn := m.First

	// Resolve by submission, then march the clock far past the original
	// fallback deadline. The fallback must not resolve the ball again.
	require.NoError(t, f.engine.SubmitChoice(m.RoomID, inn.Batting.ID, 4))
	require.NoError(t, f.engine.SubmitChoice(m.RoomID, inn.Bowling.ID, 2))
	f.advance(t, f.timings.ResultDelay)
	f.advance(t, f.timings.NextBallDelay)
	f.advance(t, f.timings.BallTimeout)

	// Ball 1 resolved once by submission, ball 2 once by its own timeout.
	assert.Equal(t, 2, f.bc.count(EventBallResult))
	assert.Equal(t, 2, inn.Balls)
	assert.Equal(t, 4, inn.History[0].Bat)
}

func TestWicketsEndInningsEarly(t *testing.T) {
	f := newEngineFixture(t, MatchConfig{Overs: 1, BallsPerOver: 6, MaxWickets: 2})
	m := f.startMatch(t)

	f.playBall(t, m, 3, 3) // out, 1 wicket left
	f.advance(t, f.timings.NextBallDelay)
	f.playBall(t, m, 4, 1) // 4 runs
	f.advance(t, f.timings.NextBallDelay)
	f.playBall(t, m, 2, 2) // out, innings over after 3 of 6 balls

	assert.Equal(t, StatusInnings2, m.Status)
	assert.Equal(t, 3, m.First.Balls)
	assert.Equal(t, 0, m.First.WicketsLeft)
	assert.Equal(t, 5, m.Second.Target, "target is first innings score plus one")

	payload := f.bc.last(t, EventInningsEnd).payload.(InningsEndPayload)
	assert.Equal(t, 5, payload.Target)
	assert.Equal(t, 4, payload.FirstInningsScore)

	// Second innings opens after the break with swapped roles.
	balls := f.bc.count(EventBallStart)
	f.advance(t, f.timings.InningsBreak)
	require.Equal(t, balls+1, f.bc.count(EventBallStart))
	start := f.bc.last(t, EventBallStart).payload.(BallStartPayload)
	assert.Equal(t, 2, start.Innings)
	assert.Equal(t, m.Second.Batting.ID, start.GameState.Batting.ID)
	assert.Equal(t, 5, start.GameState.Target)
}

func TestChaseEndsMatchImmediately(t *testing.T) {
	f := newEngineFixture(t, MatchConfig{Overs: 1, BallsPerOver: 3, MaxWickets: 1})
	m := f.startMatch(t)

	f.playBall(t, m, 2, 2) // out, first innings over at 0; target 1
	require.Equal(t, StatusInnings2, m.Status)
	f.advance(t, f.timings.InningsBreak)

	f.playBall(t, m, 4, 1) // 4 >= target 1, chase done on ball 1 of 3

	assert.Equal(t, StatusFinished, m.Status)
	assert.Equal(t, 1, m.Second.Balls)

	payload := f.bc.last(t, EventMatchEnd).payload.(MatchEndPayload)
	assert.Equal(t, m.Second.Batting.ID, payload.Winner.ID)
	assert.Equal(t, "by 1 wicket", payload.Margin)
	assert.Equal(t, 0, payload.FirstInningsScore)
	assert.Equal(t, 4, payload.SecondInningsScore)
	assert.Equal(t, 1, payload.Target)

	// FINISHED is terminal: nothing else fires.
	events := f.bc.total()
	f.advance(t, f.timings.NextBallDelay)
	f.advance(t, f.timings.BallTimeout)
	assert.Equal(t, events, f.bc.total())
	require.NoError(t, f.engine.SubmitChoice(m.RoomID, m.Second.Batting.ID, 3))
	assert.Equal(t, events, f.bc.total())
}

func TestFullMatch_ChaseWins(t *testing.T) {
	f := newEngineFixture(t, MatchConfig{Overs: 1, BallsPerOver: 6, MaxWickets: 5})
	m := f.startMatch(t)

	// First innings runs its full six balls for 21.
	for i, pair := range [][2]int{{1, 2}, {2, 1}, {3, 1}, {4, 1}, {5, 1}, {6, 1}} {
		f.playBall(t, m, pair[0], pair[1])
		if i < 5 {
			f.advance(t, f.timings.NextBallDelay)
		}
	}
	require.Equal(t, StatusInnings2, m.Status)
	require.Equal(t, 21, m.First.Score)
	require.Equal(t, 22, m.Second.Target)
	f.advance(t, f.timings.InningsBreak)

	// Chase reaches 22 on the fourth ball without losing a wicket.
	for i, pair := range [][2]int{{6, 1}, {6, 2}, {6, 3}, {4, 6}} {
		f.playBall(t, m, pair[0], pair[1])
		if i < 3 {
			f.advance(t, f.timings.NextBallDelay)
		}
	}

	assert.Equal(t, StatusFinished, m.Status)
	payload := f.bc.last(t, EventMatchEnd).payload.(MatchEndPayload)
	assert.Equal(t, m.Second.Batting.ID, payload.Winner.ID)
	assert.Equal(t, "by 5 wickets", payload.Margin)
	assert.Equal(t, 22, payload.SecondInningsScore)
}

func TestFullMatch_DefenseWins(t *testing.T) {
	f := newEngineFixture(t, MatchConfig{Overs: 1, BallsPerOver: 2, MaxWickets: 5})
	m := f.startMatch(t)

	f.playBall(t, m, 4, 1)
	f.advance(t, f.timings.NextBallDelay)
	f.playBall(t, m, 3, 1) // first innings 7, target 8
	require.Equal(t, 8, m.Second.Target)
	f.advance(t, f.timings.InningsBreak)

	f.playBall(t, m, 2, 1)
	f.advance(t, f.timings.NextBallDelay)
	f.playBall(t, m, 1, 3) // chase closes on 3, short by 4

	assert.Equal(t, StatusFinished, m.Status)
	payload := f.bc.last(t, EventMatchEnd).payload.(MatchEndPayload)
	assert.Equal(t, m.First.Batting.ID, payload.Winner.ID)
	assert.Equal(t, "by 4 runs", payload.Margin)
}

func TestFullMatch_ScoresLevelGoesToDefense(t *testing.T) {
	f := newEngineFixture(t, MatchConfig{Overs: 1, BallsPerOver: 2, MaxWickets: 5})
	m := f.startMatch(t)

	f.playBall(t, m, 4, 1)
	f.advance(t, f.timings.NextBallDelay)
	f.playBall(t, m, 3, 2) // target 8
	f.advance(t, f.timings.InningsBreak)

	f.playBall(t, m, 5, 1)
	f.advance(t, f.timings.NextBallDelay)
	f.playBall(t, m, 2, 3) // chase finishes level on 7

	payload := f.bc.last(t, EventMatchEnd).payload.(MatchEndPayload)
	assert.Equal(t, m.First.Batting.ID, payload.Winner.ID)
	assert.Equal(t, "by 0 runs", payload.Margin)
}

func TestStaleSubmissionIgnored(t *testing.T) {
	f := newEngineFixture(t, DefaultMatchConfig())
	m := f.startMatch(t)
	inn := m.First

	require.NoError(t, f.engine.SubmitChoice(m.RoomID, inn.Batting.ID, 4))
	require.NoError(t, f.engine.SubmitChoice(m.RoomID, inn.Bowling.ID, 2))

	// The ball is resolved but the next one has not started. A submission
	// in this window must not touch anything.
	score, choices := inn.Score, f.bc.count(EventChoiceSubmitted)
	require.NoError(t, f.engine.SubmitChoice(m.RoomID, inn.Batting.ID, 6))

	assert.Equal(t, score, inn.Score)
	assert.Equal(t, choices, f.bc.count(EventChoiceSubmitted))
	assert.Equal(t, 1, f.bc.count(EventBallResult))
	assert.Equal(t, 1, inn.Balls)
}

func TestStatusNeverRegresses(t *testing.T) {
	f := newEngineFixture(t, MatchConfig{Overs: 1, BallsPerOver: 1, MaxWickets: 1})
	m := f.engine.CreateRoom("p1", "Alice")
	prev := m.Status

	check := func() {
		require.GreaterOrEqual(t, m.Status, prev, "status regressed from %s to %s", prev, m.Status)
		prev = m.Status
	}

	_, err := f.engine.JoinRoom(m.RoomID, "p2", "Bob")
	require.NoError(t, err)
	check()
	require.NoError(t, f.engine.StartToss(m.RoomID, "p1"))
	check()
	f.advance(t, f.timings.TossDelay)
	check()
	f.playBall(t, m, 2, 5) // only ball of innings one
	check()
	f.advance(t, f.timings.InningsBreak)
	check()
	f.playBall(t, m, 1, 6) // only ball of the chase
	check()
	assert.Equal(t, StatusFinished, m.Status)
}

type captureRecorder struct {
	ch chan MatchRecord
}

func (r *captureRecorder) RecordMatch(record MatchRecord) {
	r.ch <- record
}

func TestCompletedMatchIsRecorded(t *testing.T) {
	f := newEngineFixture(t, MatchConfig{Overs: 1, BallsPerOver: 1, MaxWickets: 1})
	rec := &captureRecorder{ch: make(chan MatchRecord, 1)}
	f.engine.SetRecorder(rec)

	m := f.startMatch(t)
	f.playBall(t, m, 2, 5) // innings one: 2, target 3
	f.advance(t, f.timings.InningsBreak)
	f.playBall(t, m, 1, 6) // chase falls short on 1

	var record MatchRecord
	select {
	case record = <-rec.ch:
	case <-time.After(5 * time.Second):
		t.Fatal("no match record received")
	}

	assert.Equal(t, m.RoomID, record.RoomID)
	assert.Equal(t, m.TossWinner.Name, record.TossWinner)
	assert.Equal(t, m.First.Batting.Name, record.Winner)
	assert.Equal(t, "by 1 run", record.Margin)
	assert.Equal(t, 2, record.Innings[0].Score)
	assert.Equal(t, 1, record.Innings[1].Score)
	assert.Equal(t, 3, record.Innings[1].Target)
	require.Len(t, record.Innings[0].Deliveries, 1)
	assert.Equal(t, BallRecord{Bat: 2, Bowl: 5, Runs: 2}, record.Innings[0].Deliveries[0])
}

func TestDisconnectTearsDownRoom(t *testing.T) {
	f := newEngineFixture(t, DefaultMatchConfig())
	m := f.startMatch(t)

	// Mid-round, fallback timer armed.
	require.NoError(t, f.engine.SubmitChoice(m.RoomID, m.First.Batting.ID, 3))

	f.engine.Disconnect("p2")

	payload := f.bc.last(t, EventPlayerLeft).payload.(PlayerLeftPayload)
	assert.Equal(t, "p2", payload.PlayerID)

	_, ok := f.store.Get(m.RoomID)
	assert.False(t, ok, "room should be removed from the store")
	_, ok = f.store.RoomFor("p1")
	assert.False(t, ok, "bindings should be removed with the room")

	// Pending timers are dead: nothing fires and nothing panics.
	events := f.bc.total()
	f.advance(t, f.timings.BallTimeout+f.timings.ResultDelay+f.timings.NextBallDelay)
	assert.Equal(t, events, f.bc.total())

	// Repeat and unknown disconnects are no-ops.
	f.engine.Disconnect("p2")
	f.engine.Disconnect("ghost")
	assert.Equal(t, events, f.bc.total())
}

func TestDisconnectWhileWaiting(t *testing.T) {
	f := newEngineFixture(t, DefaultMatchConfig())
	m := f.engine.CreateRoom("p1", "Alice")

	f.engine.Disconnect("p1")

	_, ok := f.store.Get(m.RoomID)
	assert.False(t, ok)
	assert.Equal(t, 1, f.bc.count(EventPlayerLeft))
}
