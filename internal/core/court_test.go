package core

import (
	"math"
	"testing"
)

func TestCreditFor(t *testing.T) {
	c := DefaultCourt()

	tests := []struct {
		name     string
		exit     Vec3
		expected ParticipantID
	}{
		{"deep past participant 2 end", Vec3{Z: 6}, Participant1},
		{"deep past participant 1 end", Vec3{Z: -6}, Participant2},
		{"just past center toward 2", Vec3{Z: 0.001}, Participant1},
		{"just past center toward 1", Vec3{Z: -0.001}, Participant2},
		{"exactly on center line", Vec3{Z: 0}, Participant1},
		{"negative zero", Vec3{Z: math.Copysign(0, -1)}, Participant1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := c.CreditFor(tc.exit)
			if got != tc.expected {
				t.Errorf("CreditFor(%+v) = %v, expected %v", tc.exit, got, tc.expected)
			}
		})
	}
}

func TestOutOfBounds(t *testing.T) {
	c := DefaultCourt()

	tests := []struct {
		name     string
		pos      Vec3
		expected bool
	}{
		{"center of table", Vec3{Y: 1, Z: 0}, false},
		{"near end line", Vec3{Y: 1, Z: 5.5}, false},
		{"past extended bounds positive", Vec3{Y: 1, Z: 6}, true},
		{"past extended bounds negative", Vec3{Y: 1, Z: -6}, true},
		{"below kill plane", Vec3{Y: -1, Z: 0}, true},
		{"exactly at kill plane", Vec3{Y: -0.5, Z: 0}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := c.OutOfBounds(tc.pos)
			if got != tc.expected {
				t.Errorf("OutOfBounds(%+v) = %v, expected %v", tc.pos, got, tc.expected)
			}
		})
	}
}

func TestScoreZones(t *testing.T) {
	c := DefaultCourt()

	// A ball that dropped past participant 2's end line credits participant 1.
	pos := Vec3{X: 0.2, Y: 0.3, Z: 6}
	zone, ok := c.ZoneAt(pos)
	if !ok {
		t.Fatalf("ZoneAt(%+v) found no zone", pos)
	}
	if zone.Scorer != Participant1 {
		t.Errorf("zone scorer = %v, expected %v", zone.Scorer, Participant1)
	}

	// Mirror image credits participant 2.
	pos.Z = -6
	zone, ok = c.ZoneAt(pos)
	if !ok {
		t.Fatalf("ZoneAt(%+v) found no zone", pos)
	}
	if zone.Scorer != Participant2 {
		t.Errorf("zone scorer = %v, expected %v", zone.Scorer, Participant2)
	}

	// A ball above table height is still in flight, no zone.
	if _, ok := c.ZoneAt(Vec3{Y: 2, Z: 6}); ok {
		t.Error("ball above the zone ceiling should not trigger a zone")
	}

	// A live ball over the table is in no zone.
	if _, ok := c.ZoneAt(Vec3{Y: 1, Z: 0}); ok {
		t.Error("ball over the table should not trigger a zone")
	}
}

func TestServeSpawn(t *testing.T) {
	c := DefaultCourt()

	p1 := c.ServeSpawn(Participant1)
	if p1.Z >= 0 {
		t.Errorf("participant 1 serve spawn should be on negative z, got %+v", p1)
	}
	p2 := c.ServeSpawn(Participant2)
	if p2.Z <= 0 {
		t.Errorf("participant 2 serve spawn should be on positive z, got %+v", p2)
	}
	if p1.Y <= c.TableHeight || p2.Y <= c.TableHeight {
		t.Error("serve spawn should sit above the table surface")
	}
}

func TestParticipantOther(t *testing.T) {
	if Participant1.Other() != Participant2 {
		t.Error("Participant1.Other() should be Participant2")
	}
	if Participant2.Other() != Participant1 {
		t.Error("Participant2.Other() should be Participant1")
	}
	if NoParticipant.Other() != NoParticipant {
		t.Error("NoParticipant.Other() should be NoParticipant")
	}
}

func TestVec3Helpers(t *testing.T) {
	v := Vec3{X: 3, Y: 0, Z: 4}
	if v.Len() != 5 {
		t.Errorf("Len() = %f, expected 5", v.Len())
	}

	clamped := v.ClampLen(2.5)
	if math.Abs(clamped.Len()-2.5) > 1e-9 {
		t.Errorf("ClampLen(2.5).Len() = %f, expected 2.5", clamped.Len())
	}
	// Under the cap the vector is untouched.
	if got := v.ClampLen(10); got != v {
		t.Errorf("ClampLen(10) = %+v, expected %+v", got, v)
	}

	if (Vec3{X: math.NaN()}).IsFinite() {
		t.Error("NaN component should not be finite")
	}
	if (Vec3{Z: math.Inf(1)}).IsFinite() {
		t.Error("Inf component should not be finite")
	}
	if !(Vec3{X: 1, Y: 2, Z: 3}).IsFinite() {
		t.Error("ordinary vector should be finite")
	}

	mid := Lerp(Vec3{}, Vec3{X: 2}, 0.5)
	if mid.X != 1 {
		t.Errorf("Lerp midpoint X = %f, expected 1", mid.X)
	}
	if got := Lerp(Vec3{X: 1}, Vec3{X: 9}, 1.5); got.X != 9 {
		t.Errorf("Lerp should clamp t above 1, got %+v", got)
	}
}
