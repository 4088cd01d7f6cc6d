package view

// halton returns the index-th element of the Halton low-discrepancy sequence
// for the given base, in [0, 1).
func halton(index uint32, base uint32) float32 {
	f := float32(1)
	r := float32(0)
	for index > 0 {
		f /= float32(base)
		r += f * float32(index%base)
		index /= base
	}
	return r
}

// Jitter returns the sub-pixel offset for a frame index, in pixels in
// [-0.5, 0.5), using the base-2/base-3 Halton sequence the temporal
// anti-aliasing filter expects. Index 0 yields a centered sample.
//
// Parameters:
//   - frameIndex: the jitter sequence position
//
// Returns:
//   - float32, float32: the x and y offsets
func Jitter(frameIndex uint32) (float32, float32) {
	if frameIndex == 0 {
		return 0, 0
	}
	// 16-sample cycle, 1-based to avoid the degenerate (0, 0) first element.
	i := frameIndex%16 + 1
	return halton(i, 2) - 0.5, halton(i, 3) - 0.5
}
