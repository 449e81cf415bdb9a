package netplay

import (
	"testing"

	"github.com/liamharte04/EEECS-PingPong/internal/core"
	"github.com/liamharte04/EEECS-PingPong/internal/sim"
)

func TestAnalyzeRecordsHit(t *testing.T) {
	w := newTestReplicatorWorld()
	d := NewRallyDetector(core.DefaultCourt())
	d.Reset()
	w.SetBallState(sim.Ball{Pos: core.Vec3{Y: 1, Z: -4}, Vel: core.Vec3{Z: 3}, Served: true})

	evt := d.Analyze(w, []sim.Contact{
		{Surface: core.SurfaceTable},
		{Surface: core.SurfacePaddle, Participant: core.Participant1},
	})
	if !evt.Hit || evt.Hitter != Participant1 {
		t.Fatalf("Analyze() = %+v, expected a hit by participant 1", evt)
	}
	if evt.Exited {
		t.Error("Exited = true for an in-bounds ball")
	}
	if d.LastHitter() != Participant1 {
		t.Errorf("LastHitter() = %v, expected %v", d.LastHitter(), Participant1)
	}
}

func TestAnalyzeIgnoresNonPaddleContacts(t *testing.T) {
	w := newTestReplicatorWorld()
	d := NewRallyDetector(core.DefaultCourt())
	d.Reset()
	w.SetBallState(sim.Ball{Pos: core.Vec3{Y: 1}, Vel: core.Vec3{Z: 3}, Served: true})

	evt := d.Analyze(w, []sim.Contact{
		{Surface: core.SurfaceTable},
		{Surface: core.SurfaceNet},
		{Surface: core.SurfaceWall},
	})
	if evt.Hit {
		t.Errorf("Analyze() = %+v, expected no hit", evt)
	}
	if d.LastHitter() != NoParticipant {
		t.Errorf("LastHitter() = %v, expected %v", d.LastHitter(), NoParticipant)
	}
}

func TestAnalyzeSteersBallAwayFromHitter(t *testing.T) {
	tests := []struct {
		name   string
		hitter ParticipantID
		velZ   float64
		wantZ  float64
	}{
		{name: "flip toward p2 after p1 hit", hitter: Participant1, velZ: -2.5, wantZ: 2.5},
		{name: "flip toward p1 after p2 hit", hitter: Participant2, velZ: 2.5, wantZ: -2.5},
		{name: "p1 hit already outbound", hitter: Participant1, velZ: 3, wantZ: 3},
		{name: "p2 hit already outbound", hitter: Participant2, velZ: -3, wantZ: -3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestReplicatorWorld()
			d := NewRallyDetector(core.DefaultCourt())
			d.Reset()
			w.SetBallState(sim.Ball{
				Pos:    core.Vec3{Y: 1, Z: tt.hitter.HalfSign() * 4},
				Vel:    core.Vec3{X: 0.3, Z: tt.velZ},
				Served: true,
			})

			evt := d.Analyze(w, []sim.Contact{{Surface: core.SurfacePaddle, Participant: tt.hitter}})
			if !evt.Hit || evt.Hitter != tt.hitter {
				t.Fatalf("Analyze() = %+v, expected a hit by %v", evt, tt.hitter)
			}
			b, _ := w.BallState()
			if b.Vel.Z != tt.wantZ {
				t.Errorf("Vel.Z after hit = %v, expected %v", b.Vel.Z, tt.wantZ)
			}
			if b.Vel.X != 0.3 {
				t.Errorf("Vel.X after hit = %v, expected untouched", b.Vel.X)
			}
		})
	}
}

func TestAnalyzeDetectsExit(t *testing.T) {
	court := core.DefaultCourt()
	tests := []struct {
		name   string
		pos    core.Vec3
		exited bool
	}{
		{name: "past far end line", pos: core.Vec3{Y: 0.5, Z: 6}, exited: true},
		{name: "past near end line", pos: core.Vec3{Y: 0.5, Z: -6}, exited: true},
		{name: "below kill plane", pos: core.Vec3{Y: -0.6, Z: 0}, exited: true},
		{name: "inside margin", pos: core.Vec3{Y: 0.5, Z: 5.5}, exited: false},
		{name: "mid court", pos: core.Vec3{Y: 1, Z: 0}, exited: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestReplicatorWorld()
			d := NewRallyDetector(court)
			w.SetBallState(sim.Ball{Pos: tt.pos, Vel: core.Vec3{Z: 1}, Served: true})

			evt := d.Analyze(w, nil)
			if evt.Exited != tt.exited {
				t.Fatalf("Exited = %v for pos %+v, expected %v", evt.Exited, tt.pos, tt.exited)
			}
			if tt.exited && evt.Exit != tt.pos {
				t.Errorf("Exit = %+v, expected last seen pos %+v", evt.Exit, tt.pos)
			}
		})
	}
}

func TestAnalyzeWithoutBall(t *testing.T) {
	w := newTestReplicatorWorld()
	d := NewRallyDetector(core.DefaultCourt())

	evt := d.Analyze(w, []sim.Contact{{Surface: core.SurfacePaddle, Participant: Participant2}})
	if evt.Exited {
		t.Error("Exited = true with no ball in the world")
	}
	if !evt.Hit {
		t.Error("Hit = false, contact list should still be honored")
	}
}

func TestScoreZoneHit(t *testing.T) {
	d := NewRallyDetector(core.DefaultCourt())
	tests := []struct {
		name string
		pos  core.Vec3
		hit  bool
	}{
		{name: "behind far end", pos: core.Vec3{Y: 0.5, Z: 6}, hit: true},
		{name: "behind near end", pos: core.Vec3{Y: 0.5, Z: -6}, hit: true},
		{name: "mid court", pos: core.Vec3{Y: 1, Z: 0}, hit: false},
		{name: "behind far end but high", pos: core.Vec3{Y: 3, Z: 6}, hit: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.ScoreZoneHit(tt.pos); got != tt.hit {
				t.Errorf("ScoreZoneHit(%+v) = %v, expected %v", tt.pos, got, tt.hit)
			}
		})
	}
}

func TestResetClearsLastHitter(t *testing.T) {
	w := newTestReplicatorWorld()
	d := NewRallyDetector(core.DefaultCourt())
	w.SetBallState(sim.Ball{Pos: core.Vec3{Y: 1}, Vel: core.Vec3{Z: 1}, Served: true})

	d.Analyze(w, []sim.Contact{{Surface: core.SurfacePaddle, Participant: Participant2}})
	if d.LastHitter() != Participant2 {
		t.Fatalf("LastHitter() = %v, expected %v", d.LastHitter(), Participant2)
	}
	d.Reset()
	if d.LastHitter() != NoParticipant {
		t.Errorf("LastHitter() after Reset = %v, expected %v", d.LastHitter(), NoParticipant)
	}
}
