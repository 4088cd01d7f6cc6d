package scene

import "testing"

func TestCameraPathSampleInterpolates(t *testing.T) {
	path := NewCameraPath(60,
		CameraKeyframe{Time: 0, Position: [3]float32{0, 0, 0}, Target: [3]float32{0, 0, -1}},
		CameraKeyframe{Time: 1, Position: [3]float32{10, 0, 0}, Target: [3]float32{10, 0, -1}},
	)

	// Frame 30 at 60fps is t=0.5, halfway between the keyframes.
	pos, target, ok := path.Sample(30)
	if !ok {
		t.Fatal("sample inside the path must succeed")
	}
	if pos != ([3]float32{5, 0, 0}) {
		t.Errorf("position = %v, want {5 0 0}", pos)
	}
	if target != ([3]float32{5, 0, -1}) {
		t.Errorf("target = %v, want {5 0 -1}", target)
	}
}

func TestCameraPathSampleExhaustion(t *testing.T) {
	path := NewCameraPath(60,
		CameraKeyframe{Time: 0},
		CameraKeyframe{Time: 1},
	)
	if _, _, ok := path.Sample(60); !ok {
		t.Error("frame 60 is exactly the end of a 1s path and must sample")
	}
	if _, _, ok := path.Sample(61); ok {
		t.Error("frame 61 is past a 1s path and must report exhaustion")
	}
}

func TestCameraPathEmpty(t *testing.T) {
	path := NewCameraPath(60)
	if _, _, ok := path.Sample(0); ok {
		t.Error("empty path must report exhaustion immediately")
	}
	if path.Duration() != 0 {
		t.Errorf("empty path duration = %v, want 0", path.Duration())
	}
}

func TestCameraPathClampsBeforeFirstKeyframe(t *testing.T) {
	path := NewCameraPath(60,
		CameraKeyframe{Time: 1, Position: [3]float32{1, 2, 3}},
		CameraKeyframe{Time: 2, Position: [3]float32{4, 5, 6}},
	)
	pos, _, ok := path.Sample(0)
	if !ok || pos != ([3]float32{1, 2, 3}) {
		t.Errorf("sample before first keyframe = %v ok=%v, want first keyframe", pos, ok)
	}
}
