package engine

import "testing"

func identityMatrix() [16]float32 {
	var m [16]float32
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
	return m
}

func TestAccumulationCountSaturatesAtTarget(t *testing.T) {
	var p temporalPolicy
	m := identityMatrix()

	want := []uint32{1, 2, 3, 4, 4}
	for i, expected := range want {
		d := p.evaluate(m, true, 4, false)
		if d.accumulationCount != expected {
			t.Errorf("frame %d: count = %d, want %d", i, d.accumulationCount, expected)
		}
		if got := 1.0 / float32(expected); d.accumulationWeight != got {
			t.Errorf("frame %d: weight = %v, want %v", i, d.accumulationWeight, got)
		}
		p.commit(m)
	}
}

func TestAccumulationUnboundedWhenTargetZero(t *testing.T) {
	var p temporalPolicy
	m := identityMatrix()

	var d temporalDecision
	for i := 0; i < 100; i++ {
		d = p.evaluate(m, true, 0, false)
		p.commit(m)
	}
	if d.accumulationCount != 100 {
		t.Errorf("count = %d, want 100", d.accumulationCount)
	}
}

func TestAccumulationRestartsOnCameraMove(t *testing.T) {
	var p temporalPolicy
	m := identityMatrix()

	for i := 0; i < 3; i++ {
		p.evaluate(m, true, 0, false)
		p.commit(m)
	}

	// The tiniest matrix change must break the bit-exact static detection.
	moved := m
	moved[12] += 1e-7
	d := p.evaluate(moved, true, 0, false)
	if d.cameraStatic {
		t.Error("camera reported static after view matrix changed")
	}
	if d.accumulationCount != 1 {
		t.Errorf("count = %d, want 1 after camera move", d.accumulationCount)
	}
}

func TestAccumulationRestartsOnExplicitReset(t *testing.T) {
	var p temporalPolicy
	m := identityMatrix()

	for i := 0; i < 3; i++ {
		p.evaluate(m, true, 0, false)
		p.commit(m)
	}
	d := p.evaluate(m, true, 0, true)
	if d.accumulationCount != 1 {
		t.Errorf("count = %d, want 1 after reset", d.accumulationCount)
	}
	// The reset is one-shot: the next frame resumes accumulating.
	p.commit(m)
	d = p.evaluate(m, true, 0, false)
	if d.accumulationCount != 2 {
		t.Errorf("count = %d, want 2 on the frame after reset", d.accumulationCount)
	}
}

func TestTaaClampTightensWhenStatic(t *testing.T) {
	var p temporalPolicy
	m := identityMatrix()

	d := p.evaluate(m, false, 0, false)
	if d.taaClamp != taaClampMoving {
		t.Errorf("first frame clamp = %v, want %v", d.taaClamp, taaClampMoving)
	}
	p.commit(m)

	d = p.evaluate(m, false, 0, false)
	if !d.cameraStatic {
		t.Fatal("camera not static with identical view matrix")
	}
	if d.taaClamp != taaClampStatic {
		t.Errorf("static clamp = %v, want %v", d.taaClamp, taaClampStatic)
	}
}

func TestJitterSkipsOddFramesDuringCheckerboardAccumulation(t *testing.T) {
	var p temporalPolicy

	// Without the checkerboard interaction the sequence always advances.
	first := p.advanceJitter(0, true, false)
	second := p.advanceJitter(1, true, false)
	if second == first {
		t.Error("jitter did not advance without checkerboard")
	}

	p = temporalPolicy{}
	even := p.advanceJitter(2, true, true)
	odd := p.advanceJitter(3, true, true)
	if odd != even {
		t.Errorf("jitter advanced on odd frame: %d -> %d", even, odd)
	}
	next := p.advanceJitter(4, true, true)
	if next == odd {
		t.Error("jitter did not resume on the next even frame")
	}
}

func TestInvalidateDropsStaticBaseline(t *testing.T) {
	var p temporalPolicy
	m := identityMatrix()

	p.evaluate(m, true, 0, false)
	p.commit(m)
	p.invalidate()

	d := p.evaluate(m, true, 0, false)
	if d.cameraStatic {
		t.Error("camera static after baseline invalidation")
	}
	if d.accumulationCount != 1 {
		t.Errorf("count = %d, want 1 after invalidation", d.accumulationCount)
	}
}
