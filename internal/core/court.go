package core

// Surface classifies what the ball touched. Tags are assigned to
// collidables at construction so contact dispatch never inspects types
// or names at runtime.
type Surface int

const (
	SurfaceNone Surface = iota
	SurfacePaddle
	SurfaceTable
	SurfaceNet
	SurfaceWall
	SurfaceScoreZone
)

// String returns a human-readable name for the surface tag.
func (s Surface) String() string {
	switch s {
	case SurfacePaddle:
		return "paddle"
	case SurfaceTable:
		return "table"
	case SurfaceNet:
		return "net"
	case SurfaceWall:
		return "wall"
	case SurfaceScoreZone:
		return "score-zone"
	default:
		return "none"
	}
}

// ScoreZone is a static trigger region behind one end of the table.
// Entering it credits Scorer with the point. Zones are built once with
// the court and never mutated.
type ScoreZone struct {
	Scorer   ParticipantID
	Min, Max Vec3
}

// Contains reports whether pos lies inside the zone.
func (z ScoreZone) Contains(pos Vec3) bool {
	return pos.X >= z.Min.X && pos.X <= z.Max.X &&
		pos.Y >= z.Min.Y && pos.Y <= z.Max.Y &&
		pos.Z >= z.Min.Z && pos.Z <= z.Max.Z
}

// Court holds the fixed play-space geometry. Participant 1 defends the
// negative-z end, participant 2 the positive-z end.
type Court struct {
	HalfLength   float64 // table half extent along z
	HalfWidth    float64 // table half extent along x
	TableHeight  float64 // y of the table surface
	NetHeight    float64 // net extent above the table surface
	BoundsMargin float64 // how far past the end line still counts as in play
	KillPlaneY   float64 // below this the ball is gone regardless of z

	zones [2]ScoreZone
}

// NewCourt builds a court and its two score zones from the given table
// dimensions.
func NewCourt(halfLength, halfWidth, tableHeight, netHeight, boundsMargin, killPlaneY float64) Court {
	c := Court{
		HalfLength:   halfLength,
		HalfWidth:    halfWidth,
		TableHeight:  tableHeight,
		NetHeight:    netHeight,
		BoundsMargin: boundsMargin,
		KillPlaneY:   killPlaneY,
	}
	zw := halfWidth + 1.5
	ceiling := tableHeight + 0.05
	// Past participant 2's end line: participant 1 scores.
	c.zones[0] = ScoreZone{
		Scorer: Participant1,
		Min:    Vec3{X: -zw, Y: killPlaneY, Z: halfLength + 0.1},
		Max:    Vec3{X: zw, Y: ceiling, Z: halfLength + 4},
	}
	c.zones[1] = ScoreZone{
		Scorer: Participant2,
		Min:    Vec3{X: -zw, Y: killPlaneY, Z: -halfLength - 4},
		Max:    Vec3{X: zw, Y: ceiling, Z: -halfLength - 0.1},
	}
	return c
}

// DefaultCourt returns regulation-ish dimensions used when no config
// overrides them.
func DefaultCourt() Court {
	return NewCourt(5.0, 1.5, 0.76, 0.35, 0.75, -0.5)
}

// Zones returns the two score zones.
func (c Court) Zones() [2]ScoreZone {
	return c.zones
}

// ZoneAt returns the score zone containing pos, if any.
func (c Court) ZoneAt(pos Vec3) (ScoreZone, bool) {
	for _, z := range c.zones {
		if z.Contains(pos) {
			return z, true
		}
	}
	return ScoreZone{}, false
}

// OutOfBounds reports whether pos is outside live play: past the
// extended end lines or below the kill plane.
func (c Court) OutOfBounds(pos Vec3) bool {
	if pos.Y < c.KillPlaneY {
		return true
	}
	limit := c.HalfLength + c.BoundsMargin
	return pos.Z > limit || pos.Z < -limit
}

// CreditFor resolves the scoring decision for an exit position. It is a
// pure function of the exit side relative to the center line, not of
// who last touched the ball: leaving toward participant 2's half scores
// for participant 1 and vice versa. An exit exactly on the center line
// (z == 0) deterministically credits participant 1.
func (c Court) CreditFor(exit Vec3) ParticipantID {
	if exit.Z >= 0 {
		return Participant1
	}
	return Participant2
}

// ServeSpawn returns where a fresh ball is placed for the given serving
// participant: just above where their paddle guards the end line.
func (c Court) ServeSpawn(server ParticipantID) Vec3 {
	return Vec3{
		X: 0,
		Y: c.TableHeight + 0.55,
		Z: server.HalfSign() * (c.HalfLength - 0.4),
	}
}

// PaddleHome returns the rest position for a participant's paddle.
func (c Court) PaddleHome(id ParticipantID) Vec3 {
	return Vec3{
		X: 0,
		Y: c.TableHeight + 0.25,
		Z: id.HalfSign() * (c.HalfLength - 0.25),
	}
}
