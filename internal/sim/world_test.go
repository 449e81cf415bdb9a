package sim

import (
	"math"
	"testing"

	"github.com/liamharte04/EEECS-PingPong/internal/config"
	"github.com/liamharte04/EEECS-PingPong/internal/core"
)

const testDt = 1.0 / 30.0

func newTestWorld(seed int64) *World {
	cfg := config.Default()
	court := core.NewCourt(
		cfg.Court.HalfLength, cfg.Court.HalfWidth, cfg.Court.TableHeight,
		cfg.Court.NetHeight, cfg.Court.BoundsMargin, cfg.Court.KillPlaneY,
	)
	return NewWorld(court, cfg.Physics, cfg.Paddle, seed)
}

func TestServeImpulse(t *testing.T) {
	w := newTestWorld(7)

	if w.Serve(core.Participant1) {
		t.Fatal("Serve should fail with no ball spawned")
	}

	w.SpawnBall(core.Participant1)
	ball, ok := w.BallState()
	if !ok {
		t.Fatal("SpawnBall should create a ball")
	}
	if !ball.Kinematic || ball.Served {
		t.Errorf("fresh ball should be frozen and unserved, got %+v", ball)
	}
	if ball.Pos.Z >= 0 {
		t.Errorf("participant 1 serve spawn should sit on negative z, got %f", ball.Pos.Z)
	}

	if !w.Serve(core.Participant1) {
		t.Fatal("Serve should succeed on a frozen ball")
	}
	ball, _ = w.BallState()
	if ball.Kinematic || !ball.Served {
		t.Errorf("served ball should be live, got %+v", ball)
	}
	if ball.Vel.Z <= 0 {
		t.Errorf("serve from participant 1 should travel toward positive z, got vz=%f", ball.Vel.Z)
	}

	// A second trigger on a live ball does nothing.
	if w.Serve(core.Participant1) {
		t.Error("Serve on a live ball should be a no-op")
	}

	w.SpawnBall(core.Participant2)
	w.Serve(core.Participant2)
	ball, _ = w.BallState()
	if ball.Vel.Z >= 0 {
		t.Errorf("serve from participant 2 should travel toward negative z, got vz=%f", ball.Vel.Z)
	}
}

func TestStepOwnedFrozenBall(t *testing.T) {
	w := newTestWorld(1)
	w.SpawnBall(core.Participant1)

	before, _ := w.BallState()
	if contacts := w.StepOwned(testDt); contacts != nil {
		t.Errorf("frozen ball should not step, got contacts %v", contacts)
	}
	after, _ := w.BallState()
	if before != after {
		t.Errorf("frozen ball moved: %+v -> %+v", before, after)
	}
}

func TestTableBounce(t *testing.T) {
	w := newTestWorld(1)
	court := w.Court()

	w.SetBallState(Ball{
		Pos:    core.Vec3{X: 0, Y: court.TableHeight + 0.01, Z: 1},
		Vel:    core.Vec3{Y: -3, Z: 2},
		Served: true,
	})

	contacts := w.StepOwned(testDt)
	found := false
	for _, c := range contacts {
		if c.Surface == core.SurfaceTable {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a table contact, got %v", contacts)
	}

	ball, _ := w.BallState()
	if ball.Vel.Y <= 0 {
		t.Errorf("bounce should reverse vertical velocity, got vy=%f", ball.Vel.Y)
	}
	if ball.Pos.Y < court.TableHeight {
		t.Errorf("ball should rest above the table, got y=%f", ball.Pos.Y)
	}
}

func TestNetAbsorbsDrive(t *testing.T) {
	w := newTestWorld(1)
	court := w.Court()

	// Skimming across the center line below the net top.
	w.SetBallState(Ball{
		Pos:    core.Vec3{Y: court.TableHeight + 0.1, Z: 0.02},
		Vel:    core.Vec3{Z: -4},
		Served: true,
	})

	contacts := w.StepOwned(testDt)
	found := false
	for _, c := range contacts {
		if c.Surface == core.SurfaceNet {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a net contact, got %v", contacts)
	}

	ball, _ := w.BallState()
	if ball.Vel.Z <= 0 {
		t.Errorf("net should reflect the ball back, got vz=%f", ball.Vel.Z)
	}
	if math.Abs(ball.Vel.Z) > 4*0.5 {
		t.Errorf("net should absorb most drive, got |vz|=%f", math.Abs(ball.Vel.Z))
	}
}

func TestPaddleHitReflectsAway(t *testing.T) {
	w := newTestWorld(1)

	paddle := w.Paddle(core.Participant2)
	w.SetBallState(Ball{
		Pos:    core.Vec3{X: paddle.Pose.Pos.X, Y: paddle.Pose.Pos.Y, Z: paddle.Pose.Pos.Z - 0.05},
		Vel:    core.Vec3{Z: 5},
		Served: true,
	})

	contacts := w.StepOwned(testDt)
	var hit *Contact
	for i, c := range contacts {
		if c.Surface == core.SurfacePaddle {
			hit = &contacts[i]
		}
	}
	if hit == nil {
		t.Fatalf("expected a paddle contact, got %v", contacts)
	}
	if hit.Participant != core.Participant2 {
		t.Errorf("contact participant = %v, expected %v", hit.Participant, core.Participant2)
	}

	ball, _ := w.BallState()
	if ball.Vel.Z >= 0 {
		t.Errorf("return should travel away from participant 2, got vz=%f", ball.Vel.Z)
	}
}

func TestSpeedCaps(t *testing.T) {
	w := newTestWorld(1)
	cfg := config.Default()

	w.SetBallState(Ball{
		Pos:    core.Vec3{Y: 2, Z: 0.5},
		Vel:    core.Vec3{X: 40, Y: 90, Z: 40},
		Served: true,
	})
	w.StepOwned(testDt)

	ball, _ := w.BallState()
	if ball.Vel.Len() > cfg.Physics.MaxSpeed+1e-9 {
		t.Errorf("speed %f exceeds cap %f", ball.Vel.Len(), cfg.Physics.MaxSpeed)
	}
	upCap := cfg.Physics.MaxSpeed * cfg.Physics.VerticalCapFrac
	if ball.Vel.Y > upCap+1e-9 {
		t.Errorf("upward speed %f exceeds vertical cap %f", ball.Vel.Y, upCap)
	}

	// The vertical cap applies upward only: a hard downward smash keeps
	// its pace (subject to the overall cap).
	w.SetBallState(Ball{
		Pos:    core.Vec3{Y: 3, Z: 0.5},
		Vel:    core.Vec3{Y: -12},
		Served: true,
	})
	w.StepOwned(testDt)
	ball, _ = w.BallState()
	if ball.Vel.Y > -10 {
		t.Errorf("downward speed should not be clipped to the vertical cap, got vy=%f", ball.Vel.Y)
	}
}

func TestMovePaddleClamps(t *testing.T) {
	w := newTestWorld(1)

	in := core.NewInputFrame()
	in.Set(core.ActionRight)
	for i := 0; i < 300; i++ {
		w.MovePaddle(core.Participant1, in, testDt)
	}

	p := w.Paddle(core.Participant1)
	limit := w.Court().HalfWidth + 0.4
	if p.Pose.Pos.X > limit+1e-9 {
		t.Errorf("paddle x %f exceeds clamp %f", p.Pose.Pos.X, limit)
	}

	// The paddle can never wander into the opposing half.
	in.Clear()
	in.Set(core.ActionUp)
	for i := 0; i < 600; i++ {
		w.MovePaddle(core.Participant1, in, testDt)
	}
	p = w.Paddle(core.Participant1)
	if p.Pose.Pos.Z >= 0 {
		t.Errorf("participant 1 paddle crossed the center line, z=%f", p.Pose.Pos.Z)
	}
}

func TestDeterministicReplay(t *testing.T) {
	run := func() Ball {
		w := newTestWorld(42)
		w.SpawnBall(core.Participant1)
		w.Serve(core.Participant1)

		in := core.NewInputFrame()
		in.Set(core.ActionLeft)
		for i := 0; i < 90; i++ {
			w.MovePaddle(core.Participant1, in, testDt)
			w.MovePaddle(core.Participant2, core.NewInputFrame(), testDt)
			w.StepOwned(testDt)
		}
		ball, _ := w.BallState()
		return ball
	}

	a := run()
	b := run()
	if a != b {
		t.Errorf("same seed and inputs diverged:\n%+v\n%+v", a, b)
	}
}

func TestBotDecide(t *testing.T) {
	bot := NewBot()
	bot.ServeDelayTicks = 3

	// Waits, then serves.
	for i := 0; i < 2; i++ {
		if d := bot.Decide(0, 0, false, true); d.Serve {
			t.Fatalf("bot served after %d ticks, expected delay of 3", i+1)
		}
	}
	if d := bot.Decide(0, 0, false, true); !d.Serve {
		t.Error("bot should serve once its delay elapses")
	}

	// Chases an approaching ball.
	d := bot.Decide(-1, 0, true, false)
	if !d.MoveLeft || d.MoveRight {
		t.Errorf("bot should move left toward the ball, got %+v", d)
	}

	// Ignores a ball heading the other way, drifts home instead.
	d = bot.Decide(-1, 0.01, false, false)
	if d.MoveLeft {
		t.Errorf("bot should not chase a receding ball, got %+v", d)
	}
}
