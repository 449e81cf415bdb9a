package netplay

// ScoreReplicator holds a non-authority peer's copy of the match
// state. The authority replaces the whole record on every change;
// replicas never apply deltas and never mutate the copy themselves,
// they only swap in strictly newer revisions.
type ScoreReplicator struct {
	state MatchState
}

// NewScoreReplicator creates an empty replica. Its zero revision
// guarantees the authority's first broadcast is accepted.
func NewScoreReplicator() *ScoreReplicator {
	return &ScoreReplicator{}
}

// State returns the current replicated match state.
func (r *ScoreReplicator) State() MatchState {
	return r.state
}

// Apply replaces the replica with incoming if it is strictly newer.
// Reordered or duplicated broadcasts fail with ErrStaleMessage and
// leave the replica untouched.
func (r *ScoreReplicator) Apply(incoming MatchState) error {
	if incoming.Rev <= r.state.Rev {
		return ErrStaleMessage
	}
	r.state = incoming
	return nil
}

// Force overwrites the replica unconditionally, keeping the revision
// moving forward. Used when the authority is gone and the peer must
// wind the match down on its own.
func (r *ScoreReplicator) Force(s MatchState) {
	if s.Rev <= r.state.Rev {
		s.Rev = r.state.Rev + 1
	}
	r.state = s
}

// ScoreChanged compares two match states and returns which participant
// gained a point between them. Used to raise presentation events from
// replicated state changes.
func ScoreChanged(prev, cur MatchState) (ParticipantID, bool) {
	if cur.Score1 > prev.Score1 {
		return Participant1, true
	}
	if cur.Score2 > prev.Score2 {
		return Participant2, true
	}
	return NoParticipant, false
}
