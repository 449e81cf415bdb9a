package netplay

import (
	"github.com/liamharte04/EEECS-PingPong/internal/core"
	"github.com/liamharte04/EEECS-PingPong/internal/sim"
)

// RallyEvent is the outcome of analyzing one owned simulation step.
type RallyEvent struct {
	// Hit is set when a paddle touched the ball this step; Hitter is
	// the paddle's participant.
	Hit    bool
	Hitter ParticipantID

	// Exited is set when the ball left the playable volume; Exit is
	// where it was last seen.
	Exited bool
	Exit   core.Vec3
}

// RallyDetector interprets the owner's simulation output: which paddle
// hit the ball, whether the ball left play, and whether a position
// falls inside a score zone. It also remembers the last hitter so the
// ball can be steered away from them after contact.
type RallyDetector struct {
	court      core.Court
	lastHitter ParticipantID
}

// NewRallyDetector creates a detector for the given court.
func NewRallyDetector(court core.Court) *RallyDetector {
	return &RallyDetector{court: court}
}

// Reset clears per-rally state. Call when a rally starts.
func (d *RallyDetector) Reset() {
	d.lastHitter = NoParticipant
}

// LastHitter returns the participant who touched the ball most
// recently this rally, or NoParticipant before the first touch.
func (d *RallyDetector) LastHitter() ParticipantID {
	return d.lastHitter
}

// Analyze inspects the contacts from one owned step. On a paddle hit
// it corrects the ball velocity to move away from the hitter's half,
// covering reflections that left it grazing along the net line. On an
// exit it reports where the ball left.
func (d *RallyDetector) Analyze(w *sim.World, contacts []sim.Contact) RallyEvent {
	var evt RallyEvent
	for _, c := range contacts {
		if c.Surface == core.SurfacePaddle && c.Participant.Valid() {
			evt.Hit = true
			evt.Hitter = c.Participant
		}
	}
	if evt.Hit {
		d.lastHitter = evt.Hitter
		d.steerAway(w, evt.Hitter)
	}

	if b, ok := w.BallState(); ok && d.court.OutOfBounds(b.Pos) {
		evt.Exited = true
		evt.Exit = b.Pos
	}
	return evt
}

// steerAway flips the ball's length-axis velocity if it still points
// into the hitter's half after the reflection.
func (d *RallyDetector) steerAway(w *sim.World, hitter ParticipantID) {
	b, ok := w.BallState()
	if !ok {
		return
	}
	if b.Vel.Z*hitter.HalfSign() > 0 {
		b.Vel.Z = -b.Vel.Z
		w.SetBallState(b)
	}
}

// ScoreZoneHit reports whether pos falls inside either score zone.
// The session authority checks this against its view of the ball every
// tick; it is the canonical way a rally ends.
func (d *RallyDetector) ScoreZoneHit(pos core.Vec3) bool {
	_, ok := d.court.ZoneAt(pos)
	return ok
}
