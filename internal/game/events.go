package game

// EventType represents a game event type with type safety
type EventType string

// EventType constants for match domain events. These names double as the
// WebSocket message types delivered to clients.
const (
	EventRoomCreated     EventType = "room-created"
	EventRoomJoined      EventType = "room-joined"
	EventTossResult      EventType = "toss-result"
	EventBallStart       EventType = "ball-start"
	EventChoiceSubmitted EventType = "choice-submitted"
	EventBallResult      EventType = "ball-result"
	EventInningsEnd      EventType = "innings-end"
	EventMatchEnd        EventType = "match-end"
	EventPlayerLeft      EventType = "player-left"
	EventError           EventType = "error"
)

// String returns the string representation of the event type
func (et EventType) String() string {
	return string(et)
}

// PlayerInfo is the client-facing view of a player.
type PlayerInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GameState is the derived per-innings snapshot attached to ball-level
// events so clients never need to track scoring themselves.
type GameState struct {
	Innings     int        `json:"innings"`
	Score       int        `json:"score"`
	Wickets     int        `json:"wickets"`
	WicketsLeft int        `json:"wicketsLeft"`
	Balls       int        `json:"balls"`
	Overs       int        `json:"overs"`
	BallsInOver int        `json:"ballsInOver"`
	TotalOvers  int        `json:"totalOvers"`
	Target      int        `json:"target,omitempty"` // second innings only
	Batting     PlayerInfo `json:"batting"`
	Bowling     PlayerInfo `json:"bowling"`
}

// RoomCreatedPayload is sent to the creating connection only.
type RoomCreatedPayload struct {
	RoomID string     `json:"roomId"`
	Player PlayerInfo `json:"player"`
}

// RoomJoinedPayload is broadcast to the room when the second seat fills.
type RoomJoinedPayload struct {
	RoomID  string       `json:"roomId"`
	Players []PlayerInfo `json:"players"`
}

// TossResultPayload announces which player bats first.
type TossResultPayload struct {
	Winner       PlayerInfo `json:"winner"`
	BattingFirst PlayerInfo `json:"battingFirst"`
	Message      string     `json:"message"`
}

// BallStartPayload opens a new choice round.
type BallStartPayload struct {
	Innings        int       `json:"innings"`
	TimeoutSeconds int       `json:"timeoutSeconds"`
	GameState      GameState `json:"gameState"`
}

// ChoiceSubmittedPayload reports progress on the current round without
// revealing the chosen value.
type ChoiceSubmittedPayload struct {
	PlayerID    string `json:"playerId"`
	ChoiceCount int    `json:"choiceCount"`
}

// BallResultPayload carries the outcome of one resolved ball along with a
// trailing window of recent deliveries.
type BallResultPayload struct {
	Bat       int          `json:"bat"`
	Bowl      int          `json:"bowl"`
	BattingID string       `json:"battingId"`
	BowlingID string       `json:"bowlingId"`
	Out       bool         `json:"out"`
	Runs      int          `json:"runs"`
	Message   string       `json:"message"`
	GameState GameState    `json:"gameState"`
	LastBalls []BallRecord `json:"lastBalls"`
}

// InningsEndPayload is broadcast at the first-to-second innings switch.
// The snapshot reflects the upcoming second innings.
type InningsEndPayload struct {
	Target            int       `json:"target"`
	FirstInningsScore int       `json:"firstInningsScore"`
	GameState         GameState `json:"gameState"`
}

// MatchEndPayload concludes the match.
type MatchEndPayload struct {
	Winner             PlayerInfo `json:"winner"`
	Margin             string     `json:"margin"`
	Message            string     `json:"message"`
	FirstInningsScore  int        `json:"firstInningsScore"`
	SecondInningsScore int        `json:"secondInningsScore"`
	Target             int        `json:"target"`
	GameState          GameState  `json:"gameState"`
}

// PlayerLeftPayload notifies the remaining player that the room is gone.
type PlayerLeftPayload struct {
	PlayerID string `json:"playerId"`
	Message  string `json:"message"`
}
