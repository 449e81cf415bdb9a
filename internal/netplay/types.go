// Package netplay implements the two-party session core: the authority
// ledger that tracks who simulates the ball, the replication engine
// that publishes and predicts ball state, the authoritative match state
// machine, and the peer loop that drives them all from a single
// simulation goroutine per participant.
package netplay

import (
	"fmt"

	"github.com/liamharte04/EEECS-PingPong/internal/core"
)

// ParticipantID is an alias to core.ParticipantID for convenience.
// Participant 1 is always the first-joined participant and acts as the
// session authority; participant 2 is the joiner.
type ParticipantID = core.ParticipantID

// Re-export participant constants for convenience.
const (
	NoParticipant = core.NoParticipant
	Participant1  = core.Participant1
	Participant2  = core.Participant2
)

// SessionID uniquely identifies a presentation session (e.g., one SSH
// connection). Used by the coordinator to pair sessions into matches.
type SessionID string

// MatchID uniquely identifies a hosted match.
type MatchID string

// Phase is the match state machine phase. Transitions are monotonic:
// Waiting -> Counting -> Serving -> Rallying -> Scored -> (Counting |
// GameOver), with disconnects forcing a return to Waiting from any
// phase.
type Phase int

const (
	PhaseWaiting Phase = iota
	PhaseCounting
	PhaseServing
	PhaseRallying
	PhaseScored
	PhaseGameOver
)

// String returns a human-readable name for the phase.
func (p Phase) String() string {
	switch p {
	case PhaseWaiting:
		return "Waiting"
	case PhaseCounting:
		return "Counting"
	case PhaseServing:
		return "Serving"
	case PhaseRallying:
		return "Rallying"
	case PhaseScored:
		return "Scored"
	case PhaseGameOver:
		return "GameOver"
	default:
		return "Unknown"
	}
}

// MatchState is the replicated match record. It is mutated only by the
// session authority; every other participant holds a read-only copy
// refreshed by whole-state broadcasts. Rev increases with every
// mutation so receivers can discard stale broadcasts.
type MatchState struct {
	Phase        Phase              `json:"phase"`
	Score1       int                `json:"score1"`
	Score2       int                `json:"score2"`
	Server       core.ParticipantID `json:"server"`
	Winner       core.ParticipantID `json:"winner"`
	WinThreshold int                `json:"win_threshold"`
	Countdown    int                `json:"countdown"` // remaining countdown step, 0 outside Counting
	Status       string             `json:"status"`
	BallObjectID string             `json:"ball_object_id"` // empty when no ball exists
	Rev          uint64             `json:"rev"`
}

// Score returns the score recorded for a participant.
func (s MatchState) Score(id core.ParticipantID) int {
	if id == core.Participant2 {
		return s.Score2
	}
	return s.Score1
}

// addPoint credits one point to a participant.
func (s *MatchState) addPoint(id core.ParticipantID) {
	if id == core.Participant2 {
		s.Score2++
	} else {
		s.Score1++
	}
}

// ScoreLine formats the score from participant 1's perspective.
func (s MatchState) ScoreLine() string {
	return fmt.Sprintf("%d-%d", s.Score1, s.Score2)
}

// MatchResult contains the outcome reported when a peer loop ends.
type MatchResult struct {
	MatchID MatchID
	Reason  MatchEndReason
	Winner  core.ParticipantID
	Score1  int
	Score2  int
	Ticks   uint64
}
