package view

import "testing"

func TestViewMatrixComparableForStaticDetection(t *testing.T) {
	a := NewView(1280, 720)
	b := NewView(1280, 720)

	m := [16]float32{}
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
	m[14] = -4.2

	a.SetMatrices(m, [3]float32{0, 0, 4.2}, 1.0, 0.1)
	b.SetMatrices(m, [3]float32{0, 0, 4.2}, 1.0, 0.1)

	if a.ViewMatrix() != b.ViewMatrix() {
		t.Error("identical matrices must compare equal bit-for-bit")
	}

	m[12] += 1e-7
	b.SetMatrices(m, [3]float32{1e-7, 0, 4.2}, 1.0, 0.1)
	if a.ViewMatrix() == b.ViewMatrix() {
		t.Error("any bit change in the view matrix must break equality")
	}
}

func TestJitterRangeAndDeterminism(t *testing.T) {
	x0, y0 := Jitter(0)
	if x0 != 0 || y0 != 0 {
		t.Errorf("frame 0 should be centered, got (%v, %v)", x0, y0)
	}

	for i := uint32(1); i < 64; i++ {
		x, y := Jitter(i)
		if x < -0.5 || x >= 0.5 || y < -0.5 || y >= 0.5 {
			t.Fatalf("jitter %d = (%v, %v) outside [-0.5, 0.5)", i, x, y)
		}
		x2, y2 := Jitter(i)
		if x != x2 || y != y2 {
			t.Fatalf("jitter %d not deterministic", i)
		}
	}

	x1, y1 := Jitter(1)
	x2, y2 := Jitter(2)
	if x1 == x2 && y1 == y2 {
		t.Error("consecutive jitter samples should differ")
	}
}

func TestJitterShiftsProjection(t *testing.T) {
	v := NewView(1920, 1080)
	m := [16]float32{}
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
	v.SetMatrices(m, [3]float32{}, 1.0, 0.1)

	base := v.ProjMatrix()
	v.SetPixelOffset(0.25, -0.25)
	jittered := v.ProjMatrix()

	if base == jittered {
		t.Error("pixel offset must change the projection matrix")
	}
	v.SetPixelOffset(0, 0)
	if v.ProjMatrix() != base {
		t.Error("clearing the offset must restore the unjittered projection")
	}
}

func TestCopyPreviousFrom(t *testing.T) {
	cur := NewView(640, 480)
	prev := NewView(640, 480)

	m := [16]float32{}
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
	m[12] = 3
	prev.SetMatrices(m, [3]float32{-3, 0, 0}, 1.2, 0.05)

	cur.CopyPreviousFrom(prev)
	if cur.Constants().PrevWorldToClip != prev.WorldToClip() {
		t.Error("previous world-to-clip should mirror the captured view")
	}
}
