package game

import "time"

// BallRound collects the two per-ball choices for the current delivery.
// A round is identified by a monotonically increasing ID so that a timer
// fallback racing a both-submitted trigger, or a submission arriving after
// resolution, can be detected and dropped.
type BallRound struct {
	ID       int64
	Choices  map[string]int // playerID -> chosen value 1-6
	Deadline time.Time
	Resolved bool
}

// begin resets the round for a new delivery under the next round id.
func (r *BallRound) begin(deadline time.Time) {
	r.ID++
	r.Choices = make(map[string]int, 2)
	r.Deadline = deadline
	r.Resolved = false
}

// active reports whether a round has been started and not yet resolved.
func (r *BallRound) active() bool {
	return r.ID > 0 && !r.Resolved
}

// record stores a player's choice. Resubmitting before resolution
// overwrites the earlier value (last write wins).
func (r *BallRound) record(playerID string, value int) {
	r.Choices[playerID] = value
}

// complete reports whether both players have a choice recorded.
func (r *BallRound) complete() bool {
	return len(r.Choices) == 2
}

// markResolved flips the resolved flag exactly once. It returns false if
// the round was already resolved, which closes the race between the
// both-submitted trigger and the fallback timer firing for the same round.
func (r *BallRound) markResolved() bool {
	if r.Resolved {
		return false
	}
	r.Resolved = true
	return true
}
