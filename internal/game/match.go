package game

import (
	"fmt"
	"sync"

	"github.com/coder/quartz"
)

// Status represents the lifecycle phase of a match. A match only ever
// moves forward through these values.
type Status int

const (
	StatusWaiting Status = iota // room created, one player seated
	StatusToss                  // both players present, toss not yet done
	StatusInnings1
	StatusInnings2
	StatusFinished
)

// String returns the string representation of the match status
func (s Status) String() string {
	switch s {
	case StatusWaiting:
		return "WAITING"
	case StatusToss:
		return "TOSS"
	case StatusInnings1:
		return "INNINGS_1"
	case StatusInnings2:
		return "INNINGS_2"
	case StatusFinished:
		return "FINISHED"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// MatchConfig holds the rule parameters for a match. It is fixed when the
// room is created and never changes afterwards.
type MatchConfig struct {
	Overs        int `json:"overs"`
	BallsPerOver int `json:"ballsPerOver"`
	MaxWickets   int `json:"maxWickets"`
}

// DefaultMatchConfig returns the standard two-over quickplay rules.
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		Overs:        2,
		BallsPerOver: 6,
		MaxWickets:   5,
	}
}

// TotalBalls returns the maximum number of balls in one innings.
func (c MatchConfig) TotalBalls() int {
	return c.Overs * c.BallsPerOver
}

// Validate checks that all rule parameters are positive.
func (c MatchConfig) Validate() error {
	if c.Overs <= 0 {
		return fmt.Errorf("overs must be positive, got %d", c.Overs)
	}
	if c.BallsPerOver <= 0 {
		return fmt.Errorf("balls per over must be positive, got %d", c.BallsPerOver)
	}
	if c.MaxWickets <= 0 {
		return fmt.Errorf("max wickets must be positive, got %d", c.MaxWickets)
	}
	return nil
}

// Player identifies one of the two participants in a room. The ID is the
// connection-scoped identifier assigned by the transport layer.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// BallRecord is one resolved ball in an innings history.
type BallRecord struct {
	Bat  int  `json:"bat"`
	Bowl int  `json:"bowl"`
	Out  bool `json:"out"`
	Runs int  `json:"runs"`
}

// Innings tracks one player's batting period. Score and Balls only ever
// increase; WicketsLeft only ever decreases, and only through ball
// resolution.
type Innings struct {
	Batting     *Player
	Bowling     *Player
	Score       int
	WicketsLeft int
	Balls       int
	Target      int // second innings only; 0 until the first innings ends
	History     []BallRecord
}

// LastBalls returns up to n most recent ball records, oldest first.
func (i *Innings) LastBalls(n int) []BallRecord {
	if len(i.History) <= n {
		return append([]BallRecord(nil), i.History...)
	}
	return append([]BallRecord(nil), i.History[len(i.History)-n:]...)
}

// Match is the authoritative state for one room. All access goes through
// the engine, which holds mu for the duration of every event it applies.
type Match struct {
	mu sync.Mutex

	RoomID     string
	Config     MatchConfig
	Players    [2]*Player // Players[1] is nil until the second player joins
	Status     Status
	TossWinner *Player
	First      *Innings
	Second     *Innings
	Round      BallRound

	ballTimer *quartz.Timer // fallback for the current ball
	nextTimer *quartz.Timer // pending delayed transition (next ball, innings break)
	closed    bool          // set on teardown; late timer fires become no-ops
}

// NewMatch creates the state for a freshly created room with the creator
// in the first seat.
func NewMatch(roomID string, config MatchConfig, creator *Player) *Match {
	return &Match{
		RoomID:  roomID,
		Config:  config,
		Players: [2]*Player{creator, nil},
		Status:  StatusWaiting,
		First:   &Innings{WicketsLeft: config.MaxWickets},
		Second:  &Innings{WicketsLeft: config.MaxWickets},
	}
}

// InningsNumber returns 1 or 2 depending on which innings is (or was last)
// active.
func (m *Match) InningsNumber() int {
	if m.Status >= StatusInnings2 {
		return 2
	}
	return 1
}

// CurrentInnings returns the innings currently being played. Before the
// toss this is the (empty) first innings.
func (m *Match) CurrentInnings() *Innings {
	if m.InningsNumber() == 2 {
		return m.Second
	}
	return m.First
}

// hasPlayer reports whether the given connection id belongs to this room.
func (m *Match) hasPlayer(playerID string) bool {
	for _, p := range m.Players {
		if p != nil && p.ID == playerID {
			return true
		}
	}
	return false
}

// Snapshot derives the game-state view sent to clients with every
// ball-level event.
func (m *Match) Snapshot() GameState {
	inn := m.CurrentInnings()
	gs := GameState{
		Innings:     m.InningsNumber(),
		Score:       inn.Score,
		Wickets:     m.Config.MaxWickets - inn.WicketsLeft,
		WicketsLeft: inn.WicketsLeft,
		Balls:       inn.Balls,
		Overs:       inn.Balls / m.Config.BallsPerOver,
		BallsInOver: inn.Balls % m.Config.BallsPerOver,
		TotalOvers:  m.Config.Overs,
	}
	if gs.Innings == 2 {
		gs.Target = inn.Target
	}
	if inn.Batting != nil {
		gs.Batting = PlayerInfo{ID: inn.Batting.ID, Name: inn.Batting.Name}
		gs.Bowling = PlayerInfo{ID: inn.Bowling.ID, Name: inn.Bowling.Name}
	}
	return gs
}

// stopTimersLocked cancels any pending timers. Stop may race with a timer
// that has already fired; the fired callback then bails out on the closed
// flag or a stale round id. Callers must hold mu.
func (m *Match) stopTimersLocked() {
	if m.ballTimer != nil {
		m.ballTimer.Stop()
		m.ballTimer = nil
	}
	if m.nextTimer != nil {
		m.nextTimer.Stop()
		m.nextTimer = nil
	}
}
