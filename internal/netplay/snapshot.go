package netplay

import "github.com/liamharte04/EEECS-PingPong/internal/core"

// BallView is the ball as one peer should present it: the simulated
// state on the owning side, the smoothed prediction elsewhere.
type BallView struct {
	Pos     core.Vec3
	Vel     core.Vec3
	Frozen  bool // waiting on the serve
	Visible bool
}

// CourtSnapshot is an immutable per-tick view of the session handed to
// the presentation layer. It carries everything a renderer needs so
// the TUI never reaches into live netplay state.
type CourtSnapshot struct {
	Self  ParticipantID
	Owner ParticipantID
	Ball  BallView

	Paddle1 core.Pose
	Paddle2 core.Pose

	State MatchState
}

// PaddlePose returns the pose of the given participant's paddle.
func (s CourtSnapshot) PaddlePose(id ParticipantID) core.Pose {
	if id == Participant2 {
		return s.Paddle2
	}
	return s.Paddle1
}

// Owned reports whether the viewing participant simulates the ball.
func (s CourtSnapshot) Owned() bool {
	return s.Owner.Valid() && s.Owner == s.Self
}
