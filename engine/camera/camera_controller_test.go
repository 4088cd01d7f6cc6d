package camera

import (
	"math"
	"testing"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func TestSetPositionKeepsExplicitPosition(t *testing.T) {
	c := NewOrbitController(WithTarget([3]float32{0, 2, 0}))

	want := [3]float32{12, 5, 0}
	c.SetPosition(want)

	if got := c.Position(); got != want {
		t.Fatalf("Position() = %v after SetPosition(%v)", got, want)
	}
	// Spherical state follows the new position: distance to (0,2,0) is
	// sqrt(144+9) and the azimuth points down +X.
	if r := c.Radius(); !near(r, float32(math.Sqrt(153))) {
		t.Errorf("Radius() = %v, want %v", r, math.Sqrt(153))
	}
	if az := c.Azimuth(); !near(az, float32(math.Pi/2)) {
		t.Errorf("Azimuth() = %v, want %v", az, math.Pi/2)
	}
}

func TestSetTargetKeepsPosition(t *testing.T) {
	c := NewOrbitController(WithRadius(10), WithElevation(0.3))
	pos := c.Position()

	c.SetTarget([3]float32{5, 0, 5})

	if got := c.Position(); got != pos {
		t.Fatalf("Position() = %v after SetTarget, want unchanged %v", got, pos)
	}
	if tgt := c.Target(); tgt != [3]float32{5, 0, 5} {
		t.Fatalf("Target() = %v, want {5 0 5}", tgt)
	}
}

func TestScriptedKeyframesSurviveRoundTrip(t *testing.T) {
	// A scripted flight sets target then position each frame; the controller
	// must report back exactly what was set, not a re-projection of it.
	c := NewOrbitController()
	frames := [][2][3]float32{
		{{12, 5, 0}, {0, 2, 0}},
		{{0, 6, 12}, {0, 2, 0}},
		{{-12, 4, 0}, {1, 2, -1}},
	}
	for i, f := range frames {
		c.SetTarget(f[1])
		c.SetPosition(f[0])
		if got := c.Position(); got != f[0] {
			t.Fatalf("frame %d: Position() = %v, want %v", i, got, f[0])
		}
		if got := c.Target(); got != f[1] {
			t.Fatalf("frame %d: Target() = %v, want %v", i, got, f[1])
		}
	}
}

func TestOrbitClampsElevation(t *testing.T) {
	c := NewOrbitController(
		WithElevationBounds(-1.0, 1.0),
		WithMouseSensitivity(0.1),
	)

	c.Orbit(0, -1000)
	if el := c.Elevation(); !near(el, 1.0) {
		t.Errorf("Elevation() = %v after large upward drag, want clamp at 1.0", el)
	}
	c.Orbit(0, 1000)
	if el := c.Elevation(); !near(el, -1.0) {
		t.Errorf("Elevation() = %v after large downward drag, want clamp at -1.0", el)
	}
}

func TestZoomClampsRadius(t *testing.T) {
	c := NewOrbitController(WithRadius(10), WithRadiusBounds(2, 50), WithZoomSpeed(1))

	c.Zoom(100)
	if r := c.Radius(); !near(r, 2) {
		t.Errorf("Radius() = %v after zoom in, want 2", r)
	}
	c.Zoom(-100)
	if r := c.Radius(); !near(r, 50) {
		t.Errorf("Radius() = %v after zoom out, want 50", r)
	}
}

func TestPanMovesPositionAndTargetTogether(t *testing.T) {
	c := NewOrbitController(WithRadius(10), WithAzimuth(0.7), WithElevation(0.35), WithPanSpeed(0.5))

	offset := diff3(c.Position(), c.Target())
	radius := c.Radius()

	c.PanRight(3)
	c.PanUp(-2)
	c.PanForward(1)

	if got := diff3(c.Position(), c.Target()); !near3(got, offset) {
		t.Errorf("pan changed the position-target offset: got %v, want %v", got, offset)
	}
	if r := c.Radius(); !near(r, radius) {
		t.Errorf("pan changed the radius: got %v, want %v", r, radius)
	}
}

func diff3(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func near3(a, b [3]float32) bool {
	return near(a[0], b[0]) && near(a[1], b[1]) && near(a[2], b[2])
}
