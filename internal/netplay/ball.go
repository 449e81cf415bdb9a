package netplay

import (
	"time"

	"github.com/liamharte04/EEECS-PingPong/internal/core"
	"github.com/liamharte04/EEECS-PingPong/internal/sim"
)

// delayAlpha is the smoothing factor for the one-way delay estimate.
const delayAlpha = 0.2

// ReplicatorConfig tunes the replication engine. Zero values are
// replaced with defaults matching the shipped configuration.
type ReplicatorConfig struct {
	// PublishEvery is the tick divisor for outgoing ball samples.
	PublishEvery int

	// SmoothingRate is the fraction per second by which the displayed
	// ball closes on the predicted target.
	SmoothingRate float64

	// SnapDistance is the displayed-to-corrected distance beyond which
	// smoothing is abandoned and the ball teleports.
	SnapDistance float64

	// DelayClamp caps the per-sample delay estimate so a bad clock on
	// the other side cannot fling the prediction.
	DelayClamp time.Duration
}

func (c ReplicatorConfig) withDefaults() ReplicatorConfig {
	if c.PublishEvery < 1 {
		c.PublishEvery = 3
	}
	if c.SmoothingRate <= 0 {
		c.SmoothingRate = 12
	}
	if c.SnapDistance <= 0 {
		c.SnapDistance = 1.2
	}
	if c.DelayClamp <= 0 {
		c.DelayClamp = 250 * time.Millisecond
	}
	return c
}

// BallReplicator keeps one peer's view of the ball consistent with the
// owner's simulation. On the owning side it paces outgoing samples; on
// the remote side it extrapolates between samples and eases the
// displayed ball toward the compensated target so corrections are not
// visible as pops.
type BallReplicator struct {
	cfg ReplicatorConfig

	objectID string
	owned    bool

	// Owner side.
	tick    int
	pubSeq  uint64
	exited  bool
	exitPos core.Vec3

	// Remote side.
	lastRecvSeq uint64
	target      core.Pose
	displayed   core.Pose
	delayEst    float64 // seconds, smoothed
	haveDelay   bool
}

// NewBallReplicator creates a replicator. It starts without an object;
// BeginRally binds it to a ball.
func NewBallReplicator(cfg ReplicatorConfig) *BallReplicator {
	return &BallReplicator{cfg: cfg.withDefaults()}
}

// BeginRally binds the replicator to a fresh ball. spawn is the serve
// position both sides agree on, so the remote view starts aligned
// before the first sample arrives.
func (r *BallReplicator) BeginRally(objectID string, owned bool, spawn core.Vec3) {
	r.objectID = objectID
	r.owned = owned
	r.tick = 0
	r.pubSeq = 0
	r.exited = false
	r.exitPos = core.Vec3{}
	r.lastRecvSeq = 0
	r.target = core.Pose{Pos: spawn}
	r.displayed = core.Pose{Pos: spawn}
	r.delayEst = 0
	r.haveDelay = false
}

// EndRally detaches the replicator from its ball.
func (r *BallReplicator) EndRally() {
	r.objectID = ""
	r.owned = false
}

// ObjectID returns the bound ball's identifier, or "" when idle.
func (r *BallReplicator) ObjectID() string {
	return r.objectID
}

// Owned reports whether this peer currently simulates the ball.
func (r *BallReplicator) Owned() bool {
	return r.owned
}

// Exited reports whether the owned ball left the playable volume.
// Publishing stays suppressed from that point until the next rally.
func (r *BallReplicator) Exited() bool {
	return r.exited
}

// ExitPos returns the position at which the owned ball left the
// playable volume. Only meaningful when Exited reports true.
func (r *BallReplicator) ExitPos() core.Vec3 {
	return r.exitPos
}

// MarkExited records that the owned ball left the playable volume at
// pos. Further samples for this ball are suppressed so remotes never
// see it tunnel through the floor.
func (r *BallReplicator) MarkExited(pos core.Vec3) {
	r.exited = true
	r.exitPos = pos
}

// Publish paces outgoing samples on the owning side. It returns a
// sample on every PublishEvery-th call and reports whether one was
// produced. Nothing is produced after the ball exits.
func (r *BallReplicator) Publish(b sim.Ball, now time.Time) (BallSample, bool) {
	if !r.owned || r.exited {
		return BallSample{}, false
	}
	r.tick++
	if r.tick%r.cfg.PublishEvery != 0 {
		return BallSample{}, false
	}
	r.pubSeq++
	return BallSample{
		ObjectID: r.objectID,
		Pos:      b.Pos,
		Vel:      b.Vel,
		Seq:      r.pubSeq,
		T:        now.UnixMilli(),
	}, true
}

// ApplySample ingests an owner-published sample on the remote side.
// Samples are validated, ordered by sequence, and lag-compensated by
// the smoothed one-way delay before becoming the new prediction
// target. A target far from the displayed ball snaps instead of
// easing.
func (r *BallReplicator) ApplySample(s BallSample, now time.Time) error {
	if r.owned {
		return ErrStaleMessage
	}
	if s.ObjectID != r.objectID || r.objectID == "" {
		return ErrWrongObject
	}
	if err := s.Validate(); err != nil {
		return err
	}
	if s.Seq <= r.lastRecvSeq {
		return ErrStaleMessage
	}
	r.lastRecvSeq = s.Seq

	delay := float64(now.UnixMilli()-s.T) / 1000
	delay = core.ClampF(delay, 0, r.cfg.DelayClamp.Seconds())
	if !r.haveDelay {
		r.delayEst = delay
		r.haveDelay = true
	} else {
		r.delayEst += delayAlpha * (delay - r.delayEst)
	}

	corrected := s.Pos.Add(s.Vel.Scale(r.delayEst))
	r.target = core.Pose{Pos: corrected, Vel: s.Vel}
	if r.displayed.Pos.Dist(corrected) > r.cfg.SnapDistance {
		r.displayed = r.target
	}
	return nil
}

// StepRemote advances the prediction by dt and eases the displayed
// ball toward it. The returned pose is what this peer should render.
func (r *BallReplicator) StepRemote(dt float64) core.Pose {
	if r.owned || r.objectID == "" {
		return r.displayed
	}
	r.target.Pos = r.target.Pos.Add(r.target.Vel.Scale(dt))
	t := core.ClampF(r.cfg.SmoothingRate*dt, 0, 1)
	r.displayed.Pos = core.Lerp(r.displayed.Pos, r.target.Pos, t)
	r.displayed.Vel = r.target.Vel
	return r.displayed
}

// View returns the pose this peer should render for the ball. Owners
// render the simulated ball directly, so this is only consulted on the
// remote side.
func (r *BallReplicator) View() core.Pose {
	return r.displayed
}

// BecomeOwner switches this peer to the owning role, seeding the
// world's ball from the replicated view so simulation continues from
// what the player saw.
func (r *BallReplicator) BecomeOwner(w *sim.World) {
	if r.objectID == "" {
		return
	}
	wasOwned := r.owned
	r.owned = true
	r.tick = 0
	if wasOwned {
		return
	}
	w.SetBallState(sim.Ball{
		Pos:    r.displayed.Pos,
		Vel:    r.target.Vel,
		Served: true,
	})
}

// BecomeRemote switches this peer to the remote role, seeding the
// prediction from the last simulated state and dropping the world's
// ball so nothing integrates it locally.
func (r *BallReplicator) BecomeRemote(w *sim.World) {
	if !r.owned {
		return
	}
	r.owned = false
	r.lastRecvSeq = 0
	if b, ok := w.BallState(); ok {
		r.target = core.Pose{Pos: b.Pos, Vel: b.Vel}
		r.displayed = r.target
	}
	w.DestroyBall()
}
