// Package core provides fundamental types for the ping-pong session core.
// It contains no external dependencies (especially no Bubble Tea and no
// networking) to keep simulation and replication logic pure and testable.
package core

import "math"

// Vec3 is a 3D vector in court space. X runs across the table width,
// Y points up, Z runs along the table length from participant 1's end
// (negative) to participant 2's end (positive).
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns v multiplied by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Len returns the Euclidean length of v.
func (v Vec3) Len() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Dist returns the distance between v and o.
func (v Vec3) Dist(o Vec3) float64 {
	return v.Sub(o).Len()
}

// ClampLen returns v scaled down so its length does not exceed max.
// A zero vector is returned unchanged.
func (v Vec3) ClampLen(max float64) Vec3 {
	l := v.Len()
	if l <= max || l == 0 {
		return v
	}
	return v.Scale(max / l)
}

// IsFinite reports whether all components are finite numbers.
// Replication handlers use this to reject malformed samples before they
// can poison the predicted state.
func (v Vec3) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}

// Lerp moves a toward b by fraction t in [0, 1].
func Lerp(a, b Vec3, t float64) Vec3 {
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}
	return a.Add(b.Sub(a).Scale(t))
}

// ClampF restricts a float64 value to be within [min, max].
func ClampF(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// Pose is a manipulator sample: where a participant's paddle is and how
// fast it is moving. Velocity feeds into hit response so a fast swing
// returns the ball harder.
type Pose struct {
	Pos Vec3 `json:"pos"`
	Vel Vec3 `json:"vel"`
}

// IsFinite reports whether both pose components are finite.
func (p Pose) IsFinite() bool {
	return p.Pos.IsFinite() && p.Vel.IsFinite()
}
