package netplay

import "errors"

// Transfer and replication failures are local, recoverable conditions.
// Callers log them and continue; none of them terminate the session.
var (
	// ErrTransferCooldown rejects a transfer request while the cooldown
	// window from the previous commit is still open.
	ErrTransferCooldown = errors.New("transfer cooldown active")

	// ErrTransferSelf rejects a transfer to the participant that
	// already owns the object.
	ErrTransferSelf = errors.New("target already owns object")

	// ErrTransferPending rejects a transfer while an earlier commit is
	// still waiting on its acknowledgement.
	ErrTransferPending = errors.New("transfer pending acknowledgement")

	// ErrStaleMessage marks a message sequenced before one already
	// applied. Discarded silently; the next fresh broadcast corrects
	// state.
	ErrStaleMessage = errors.New("stale message")

	// ErrMalformedSample marks a physics sample with non-finite or
	// absurd values. The last known-good state is retained.
	ErrMalformedSample = errors.New("malformed sample")

	// ErrWrongObject marks a message about a ball that no longer
	// exists, usually stragglers from a finished rally.
	ErrWrongObject = errors.New("unknown object")

	// ErrNoBall is returned when an operation needs a live ball and
	// none exists.
	ErrNoBall = errors.New("no ball in play")
)
