// Package sim implements the deterministic court simulation: ball
// integration, paddle movement, and collision response. It knows
// nothing about networking or ownership; the replication layer decides
// when a peer is allowed to step the ball.
package sim

import (
	"math/rand"

	"github.com/liamharte04/EEECS-PingPong/internal/config"
	"github.com/liamharte04/EEECS-PingPong/internal/core"
)

// BallRadius is the collision radius of the ball in meters.
const BallRadius = 0.02

// catchDepth is how far in front of the paddle plane a hit registers.
const catchDepth = 0.14

// catchMargin widens the paddle face slightly so grazes still connect.
const catchMargin = 0.06

// Ball is the single shared physics object. Kinematic means frozen in
// place waiting for the serve; Served flips once the first impulse is
// applied.
type Ball struct {
	Pos       core.Vec3
	Vel       core.Vec3
	Kinematic bool
	Served    bool
}

// Paddle is one participant's manipulator in court space.
type Paddle struct {
	Owner core.ParticipantID
	Pose  core.Pose
}

// Contact describes something the ball touched during a step.
// Participant is the paddle's owner for paddle contacts and zero
// otherwise.
type Contact struct {
	Surface     core.Surface
	Participant core.ParticipantID
	Pos         core.Vec3
}

// World holds the court, both paddles, and the ball (when one exists).
// Each peer runs its own World; only the ball owner integrates ball
// physics.
type World struct {
	court core.Court
	phys  config.PhysicsConfig
	pad   config.PaddleConfig
	rng   *rand.Rand

	ball    *Ball
	paddles [2]Paddle
}

// NewWorld creates a world with paddles at their home positions.
func NewWorld(court core.Court, phys config.PhysicsConfig, pad config.PaddleConfig, seed int64) *World {
	w := &World{
		court: court,
		phys:  phys,
		pad:   pad,
		rng:   rand.New(rand.NewSource(seed)),
	}
	for i, id := range []core.ParticipantID{core.Participant1, core.Participant2} {
		w.paddles[i] = Paddle{
			Owner: id,
			Pose:  core.Pose{Pos: court.PaddleHome(id)},
		}
	}
	return w
}

// Court returns the court geometry.
func (w *World) Court() core.Court {
	return w.court
}

// SpawnBall creates a fresh frozen ball just above the serving
// participant's paddle, replacing any existing ball.
func (w *World) SpawnBall(server core.ParticipantID) {
	w.ball = &Ball{
		Pos:       w.court.ServeSpawn(server),
		Kinematic: true,
	}
}

// DestroyBall removes the ball from the world.
func (w *World) DestroyBall() {
	w.ball = nil
}

// HasBall reports whether a ball currently exists.
func (w *World) HasBall() bool {
	return w.ball != nil
}

// BallState returns a copy of the ball, if one exists.
func (w *World) BallState() (Ball, bool) {
	if w.ball == nil {
		return Ball{}, false
	}
	return *w.ball, true
}

// SetBallState overwrites the ball wholesale. The replication layer
// uses this to seed the simulation after an ownership handoff and to
// keep a non-owner's displayed ball current.
func (w *World) SetBallState(b Ball) {
	cp := b
	w.ball = &cp
}

// Serve unfreezes the ball with a randomized impulse biased toward the
// receiving side. It does nothing unless a frozen ball exists.
func (w *World) Serve(server core.ParticipantID) bool {
	if w.ball == nil || !w.ball.Kinematic {
		return false
	}
	w.ball.Kinematic = false
	w.ball.Served = true
	w.ball.Vel = core.Vec3{
		X: (w.rng.Float64() - 0.5) * 1.6,
		Y: w.phys.ServeLift,
		Z: -server.HalfSign() * w.phys.ServeSpeed,
	}
	return true
}

// Paddle returns a copy of the given participant's paddle.
func (w *World) Paddle(id core.ParticipantID) Paddle {
	return *w.paddle(id)
}

func (w *World) paddle(id core.ParticipantID) *Paddle {
	if id == core.Participant2 {
		return &w.paddles[1]
	}
	return &w.paddles[0]
}

// SetPaddlePose applies a raw pose, clamped to the participant's own
// half. Remote paddle samples and rich capture devices come in here.
func (w *World) SetPaddlePose(id core.ParticipantID, pose core.Pose) {
	p := w.paddle(id)
	p.Pose = pose
	p.Pose.Pos = w.clampPaddle(id, p.Pose.Pos)
}

// MovePaddle integrates held directional input into the paddle pose.
// This is the keyboard adapter: x moves across the table, z toward and
// away from the net, height stays fixed.
func (w *World) MovePaddle(id core.ParticipantID, in core.InputFrame, dt float64) {
	p := w.paddle(id)
	sign := id.HalfSign()

	var vel core.Vec3
	if in.Has(core.ActionLeft) {
		vel.X -= w.pad.MoveSpeed
	}
	if in.Has(core.ActionRight) {
		vel.X += w.pad.MoveSpeed
	}
	if in.Has(core.ActionUp) {
		vel.Z -= sign * w.pad.MoveSpeed
	}
	if in.Has(core.ActionDown) {
		vel.Z += sign * w.pad.MoveSpeed
	}

	p.Pose.Vel = vel
	p.Pose.Pos = w.clampPaddle(id, p.Pose.Pos.Add(vel.Scale(dt)))
}

// clampPaddle keeps a paddle inside its own half and within reach of
// the table.
func (w *World) clampPaddle(id core.ParticipantID, pos core.Vec3) core.Vec3 {
	sign := id.HalfSign()
	zNear := sign * (w.court.HalfLength - 1.2) // closest to the net
	zFar := sign * (w.court.HalfLength + 0.3)  // behind the end line
	zMin, zMax := zNear, zFar
	if zMin > zMax {
		zMin, zMax = zMax, zMin
	}

	pos.X = core.ClampF(pos.X, -w.court.HalfWidth-0.4, w.court.HalfWidth+0.4)
	pos.Y = core.ClampF(pos.Y, w.court.TableHeight+0.05, w.court.TableHeight+0.9)
	pos.Z = core.ClampF(pos.Z, zMin, zMax)
	return pos
}

// StepOwned advances ball physics by dt. Only the owning peer calls
// this; it returns the contacts that occurred during the step.
func (w *World) StepOwned(dt float64) []Contact {
	b := w.ball
	if b == nil || b.Kinematic {
		return nil
	}

	var contacts []Contact
	prevZ := b.Pos.Z

	b.Vel.Y -= w.phys.Gravity * dt
	b.Pos = b.Pos.Add(b.Vel.Scale(dt))

	// Bounce off the table surface while over it
	overTable := b.Pos.Z >= -w.court.HalfLength && b.Pos.Z <= w.court.HalfLength &&
		b.Pos.X >= -w.court.HalfWidth && b.Pos.X <= w.court.HalfWidth
	if overTable && b.Vel.Y < 0 && b.Pos.Y-BallRadius <= w.court.TableHeight {
		b.Pos.Y = w.court.TableHeight + BallRadius
		b.Vel.Y = -b.Vel.Y * w.phys.Restitution
		contacts = append(contacts, Contact{Surface: core.SurfaceTable, Pos: b.Pos})
	}

	// Net: crossing the center line below the net top costs most of the
	// ball's drive
	netTop := w.court.TableHeight + w.court.NetHeight
	if prevZ*b.Pos.Z < 0 && b.Pos.Y < netTop {
		b.Pos.Z = prevZ
		b.Vel.Z = -b.Vel.Z * 0.3
		contacts = append(contacts, Contact{Surface: core.SurfaceNet, Pos: b.Pos})
	}

	// Side walls keep wild shots in the room
	wallX := w.court.HalfWidth + 1.2
	if b.Pos.X < -wallX && b.Vel.X < 0 {
		b.Pos.X = -wallX
		b.Vel.X = -b.Vel.X * w.phys.Restitution
		contacts = append(contacts, Contact{Surface: core.SurfaceWall, Pos: b.Pos})
	}
	if b.Pos.X > wallX && b.Vel.X > 0 {
		b.Pos.X = wallX
		b.Vel.X = -b.Vel.X * w.phys.Restitution
		contacts = append(contacts, Contact{Surface: core.SurfaceWall, Pos: b.Pos})
	}

	for i := range w.paddles {
		if c, hit := w.collidePaddle(b, &w.paddles[i]); hit {
			contacts = append(contacts, c)
		}
	}

	// Overall speed cap, plus a separate cap on upward speed so the
	// ball cannot develop an unplayable vertical bounce
	b.Vel = b.Vel.ClampLen(w.phys.MaxSpeed)
	if up := w.phys.MaxSpeed * w.phys.VerticalCapFrac; b.Vel.Y > up {
		b.Vel.Y = up
	}

	return contacts
}

// collidePaddle reflects the ball off a paddle face. Hit offset adds
// spin, paddle velocity transfers into the return, and each return
// speeds the rally up slightly.
func (w *World) collidePaddle(b *Ball, p *Paddle) (Contact, bool) {
	sign := p.Owner.HalfSign()

	// Only a ball moving toward this paddle's end line can be hit
	if b.Vel.Z*sign <= 0 {
		return Contact{}, false
	}

	dx := b.Pos.X - p.Pose.Pos.X
	dy := b.Pos.Y - p.Pose.Pos.Y
	dz := b.Pos.Z - p.Pose.Pos.Z
	if dz*sign > 0 || dz*sign < -catchDepth {
		return Contact{}, false
	}
	if dx < -(w.pad.HalfWidth+catchMargin) || dx > w.pad.HalfWidth+catchMargin {
		return Contact{}, false
	}
	if dy < -(w.pad.HalfHeight+catchMargin) || dy > w.pad.HalfHeight+catchMargin {
		return Contact{}, false
	}

	b.Pos.Z = p.Pose.Pos.Z - sign*catchDepth
	b.Vel.Z = -b.Vel.Z * w.phys.RallyAccel

	// Spin from where the ball struck the face
	b.Vel.X += dx / w.pad.HalfWidth * 1.4
	b.Vel.Y += dy / w.pad.HalfHeight * 0.8

	// A moving paddle puts its motion into the ball
	b.Vel = b.Vel.Add(p.Pose.Vel.Scale(w.pad.Impulse))

	return Contact{Surface: core.SurfacePaddle, Participant: p.Owner, Pos: b.Pos}, true
}
