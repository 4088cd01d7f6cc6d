package engine

// TAA history clamp factors. The tighter static factor sharpens the image when
// nothing moves; the looser moving factor resists ghosting.
const (
	taaClampStatic float32 = 2.0
	taaClampMoving float32 = 1.5
)

// temporalPolicy tracks the cross-frame state behind the per-frame temporal
// decisions: the previous view matrix for static-camera detection, the
// accumulation counter, and the jitter sequence position.
type temporalPolicy struct {
	prevViewValid  bool
	prevViewMatrix [16]float32

	accumulationCount uint32
	jitterIndex       uint32
}

// temporalDecision is the policy output for one frame.
type temporalDecision struct {
	// cameraStatic is true when a previous valid view exists and the current
	// view matrix equals it bit for bit.
	cameraStatic bool

	// accumulationCount is the post-update accumulated frame count.
	accumulationCount uint32

	// accumulationWeight is the blend weight for this frame, 1/count while
	// accumulating and 1 otherwise.
	accumulationWeight float32

	// taaClamp is the TAA history clamp factor.
	taaClamp float32
}

// evaluate computes the frame's temporal decision and advances the
// accumulation counter.
//
// Parameters:
//   - viewMatrix: the current world-to-view matrix
//   - accumulate: whether reference accumulation is enabled
//   - target: the accumulation counter cap, 0 for unbounded
//   - reset: whether an explicit accumulation reset was requested
//
// Returns:
//   - temporalDecision: the frame's temporal scalars
func (t *temporalPolicy) evaluate(viewMatrix [16]float32, accumulate bool, target uint32, reset bool) temporalDecision {
	static := t.prevViewValid && viewMatrix == t.prevViewMatrix

	if static && accumulate && !reset {
		t.accumulationCount++
		if target != 0 && t.accumulationCount > target {
			t.accumulationCount = target
		}
	} else {
		t.accumulationCount = 1
	}

	d := temporalDecision{
		cameraStatic:       static,
		accumulationCount:  t.accumulationCount,
		accumulationWeight: 1.0 / float32(t.accumulationCount),
		taaClamp:           taaClampMoving,
	}
	if static {
		d.taaClamp = taaClampStatic
	}
	return d
}

// advanceJitter reports whether the jitter sequence moves forward this frame
// and advances it when it does. The advance is skipped on odd effective frame
// indices while accumulation and checkerboard sampling are both active, which
// would otherwise resonate the jitter sequence against the checkerboard field
// pattern.
//
// Parameters:
//   - effectiveFrame: the frame's effective frame index
//   - accumulate: whether reference accumulation is enabled
//   - checkerboard: whether checkerboard field rendering is enabled
//
// Returns:
//   - uint32: the jitter sequence index to sample this frame
func (t *temporalPolicy) advanceJitter(effectiveFrame uint32, accumulate, checkerboard bool) uint32 {
	skip := accumulate && checkerboard && effectiveFrame%2 == 1
	if !skip {
		t.jitterIndex++
	}
	return t.jitterIndex
}

// commit captures the frame's view matrix as the next frame's comparison
// baseline. Called once per completed frame.
//
// Parameters:
//   - viewMatrix: the world-to-view matrix the frame rendered with
func (t *temporalPolicy) commit(viewMatrix [16]float32) {
	t.prevViewMatrix = viewMatrix
	t.prevViewValid = true
}

// invalidate drops the previous-view baseline, forcing the next frame to be
// treated as moving. Used when the view state is rebuilt from scratch.
func (t *temporalPolicy) invalidate() {
	t.prevViewValid = false
	t.accumulationCount = 1
}
