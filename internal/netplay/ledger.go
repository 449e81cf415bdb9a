package netplay

import "time"

// pendingTransfer tracks an ownership hand-off that has been applied
// locally but not yet acknowledged by the new owner.
type pendingTransfer struct {
	seq      uint64
	newOwner ParticipantID
	deadline time.Time
}

// Ledger is the authority record for a replicated ball. Exactly one
// participant owns the object at a time; only the owner integrates
// physics for it. Hand-offs are pushed by the current owner and
// confirmed by the new owner, with a revert if confirmation never
// arrives.
//
// The ledger is not safe for concurrent use. Each peer drives its own
// copy from the simulation tick.
type Ledger struct {
	objectID  string
	owner     ParticipantID
	prevOwner ParticipantID

	// lastSeq is the highest transfer sequence applied this rally.
	// Commits at or below it are stale and must be ignored.
	lastSeq uint64

	cooldown      time.Duration
	ackTimeout    time.Duration
	cooldownUntil time.Time

	pending *pendingTransfer
}

// NewLedger creates a ledger with the given hand-off cooldown and
// acknowledgement timeout.
func NewLedger(cooldown, ackTimeout time.Duration) *Ledger {
	return &Ledger{
		cooldown:   cooldown,
		ackTimeout: ackTimeout,
	}
}

// BeginRally binds the ledger to a new ball and seeds its owner.
// Sequence numbering and the cooldown restart from zero.
func (l *Ledger) BeginRally(objectID string, owner ParticipantID) {
	l.objectID = objectID
	l.owner = owner
	l.prevOwner = NoParticipant
	l.lastSeq = 0
	l.cooldownUntil = time.Time{}
	l.pending = nil
}

// EndRally releases the current object. Any pending hand-off is
// abandoned without a revert; the ball it concerned no longer exists.
func (l *Ledger) EndRally() {
	l.objectID = ""
	l.owner = NoParticipant
	l.prevOwner = NoParticipant
	l.lastSeq = 0
	l.pending = nil
}

// ObjectID returns the identifier of the tracked ball, or "" when no
// rally is active.
func (l *Ledger) ObjectID() string {
	return l.objectID
}

// HasObject reports whether the ledger is tracking a ball.
func (l *Ledger) HasObject() bool {
	return l.objectID != ""
}

// Owner returns the participant that currently owns the ball.
func (l *Ledger) Owner() ParticipantID {
	return l.owner
}

// CooldownActive reports whether hand-offs are still suppressed at
// now. The instant the cooldown expires counts as inactive, so a
// request exactly at the boundary is accepted.
func (l *Ledger) CooldownActive(now time.Time) bool {
	return now.Before(l.cooldownUntil)
}

// TransferPending reports whether a hand-off is awaiting its
// acknowledgement.
func (l *Ledger) TransferPending() bool {
	return l.pending != nil
}

// ClearCooldown lifts the hand-off cooldown immediately. Used when a
// rally is torn down out of band, such as on disconnect.
func (l *Ledger) ClearCooldown() {
	l.cooldownUntil = time.Time{}
}

// RequestTransfer starts a hand-off to newOwner. The ledger applies
// the new owner immediately and arms the acknowledgement deadline; the
// returned commit must be sent to the other participant. Requests are
// rejected while the cooldown is active, while another hand-off is in
// flight, or when newOwner already owns the ball.
func (l *Ledger) RequestTransfer(newOwner ParticipantID, now time.Time) (TransferCommit, error) {
	if !l.HasObject() {
		return TransferCommit{}, ErrNoBall
	}
	if newOwner == l.owner {
		return TransferCommit{}, ErrTransferSelf
	}
	if l.pending != nil {
		return TransferCommit{}, ErrTransferPending
	}
	if l.CooldownActive(now) {
		return TransferCommit{}, ErrTransferCooldown
	}

	l.lastSeq++
	commit := TransferCommit{
		ObjectID:  l.objectID,
		NewOwner:  newOwner,
		PrevOwner: l.owner,
		Seq:       l.lastSeq,
		T:         now.UnixMilli(),
	}

	l.prevOwner = l.owner
	l.owner = newOwner
	l.pending = &pendingTransfer{
		seq:      commit.Seq,
		newOwner: newOwner,
		deadline: now.Add(l.ackTimeout),
	}
	l.cooldownUntil = now.Add(l.cooldown)
	return commit, nil
}

// ApplyCommit applies a hand-off received from the other participant.
// Commits for a different ball or with a sequence at or below the last
// applied one are rejected. The cooldown is armed on this side too, so
// both participants observe the same quiet period.
func (l *Ledger) ApplyCommit(c TransferCommit, now time.Time) error {
	if !l.HasObject() || c.ObjectID != l.objectID {
		return ErrWrongObject
	}
	if c.Seq <= l.lastSeq {
		return ErrStaleMessage
	}

	l.lastSeq = c.Seq
	l.prevOwner = l.owner
	l.owner = c.NewOwner
	l.cooldownUntil = now.Add(l.cooldown)
	if !c.Revert {
		// A forward commit supersedes anything we had in flight.
		l.pending = nil
	}
	return nil
}

// ApplyAck settles the pending hand-off. A positive acknowledgement
// finalizes it. A rejection reverts ownership right away; the returned
// commit announces the revert and must be sent like any other. Acks
// for an unknown or already settled sequence return ErrStaleMessage.
func (l *Ledger) ApplyAck(a TransferAck, now time.Time) (TransferCommit, bool, error) {
	if l.pending == nil || a.Seq != l.pending.seq || a.ObjectID != l.objectID {
		return TransferCommit{}, false, ErrStaleMessage
	}

	if a.OK {
		l.pending = nil
		return TransferCommit{}, false, nil
	}
	return l.revert(now), true, nil
}

// Tick checks the acknowledgement deadline. When it has passed the
// hand-off is reverted and the revert commit is returned for
// broadcast.
func (l *Ledger) Tick(now time.Time) (TransferCommit, bool) {
	if l.pending == nil || now.Before(l.pending.deadline) {
		return TransferCommit{}, false
	}
	return l.revert(now), true
}

// revert restores the previous owner and arms a fresh cooldown so the
// failed hand-off is not retried immediately. The revert is sequenced
// after the commit it cancels.
func (l *Ledger) revert(now time.Time) TransferCommit {
	l.lastSeq++
	commit := TransferCommit{
		ObjectID:  l.objectID,
		NewOwner:  l.prevOwner,
		PrevOwner: l.owner,
		Seq:       l.lastSeq,
		T:         now.UnixMilli(),
		Revert:    true,
	}

	l.owner = l.prevOwner
	l.prevOwner = commit.PrevOwner
	l.pending = nil
	l.cooldownUntil = now.Add(l.cooldown)
	return commit
}
