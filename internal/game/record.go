package game

import "time"

// Recorder receives a summary of every completed match. Implementations
// must not block; the engine invokes them off the room lock.
type Recorder interface {
	RecordMatch(record MatchRecord)
}

// InningsRecord is the archived form of one innings.
type InningsRecord struct {
	Batting    string       `json:"batting"`
	Bowling    string       `json:"bowling"`
	Score      int          `json:"score"`
	Wickets    int          `json:"wickets"`
	Balls      int          `json:"balls"`
	Target     int          `json:"target,omitempty"`
	Deliveries []BallRecord `json:"deliveries"`
}

// MatchRecord is the archived form of a completed match.
type MatchRecord struct {
	RoomID     string           `json:"roomId"`
	FinishedAt time.Time        `json:"finishedAt"`
	Config     MatchConfig      `json:"config"`
	TossWinner string           `json:"tossWinner"`
	Winner     string           `json:"winner"`
	Margin     string           `json:"margin"`
	Innings    [2]InningsRecord `json:"innings"`
}

// recordLocked snapshots the finished match for archival. Callers must
// hold mu.
func (m *Match) recordLocked(finishedAt time.Time, winner *Player, margin string) MatchRecord {
	rec := MatchRecord{
		RoomID:     m.RoomID,
		FinishedAt: finishedAt,
		Config:     m.Config,
		TossWinner: m.TossWinner.Name,
		Winner:     winner.Name,
		Margin:     margin,
	}
	for i, inn := range [2]*Innings{m.First, m.Second} {
		rec.Innings[i] = InningsRecord{
			Batting:    inn.Batting.Name,
			Bowling:    inn.Bowling.Name,
			Score:      inn.Score,
			Wickets:    m.Config.MaxWickets - inn.WicketsLeft,
			Balls:      inn.Balls,
			Target:     inn.Target,
			Deliveries: append([]BallRecord(nil), inn.History...),
		}
	}
	return rec
}
