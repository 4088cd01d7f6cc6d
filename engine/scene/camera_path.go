package scene

// CameraKeyframe is one sample on a scripted camera path.
type CameraKeyframe struct {
	// Time is the keyframe timestamp in seconds.
	Time float32

	// Position is the camera position at this keyframe.
	Position [3]float32

	// Target is the look-at target at this keyframe.
	Target [3]float32
}

// CameraPath is a scripted camera trajectory sampled by animation frame index
// during offline animation and benchmark runs. Keyframes are interpolated
// linearly; sampling past the last keyframe reports exhaustion, which ends a
// benchmark run.
type CameraPath struct {
	frameRate float32
	keyframes []CameraKeyframe
}

// NewCameraPath creates a camera path.
//
// Parameters:
//   - frameRate: the animation frame rate used to convert frame indices to path time
//   - keyframes: the path keyframes in ascending time order
//
// Returns:
//   - *CameraPath: the path
func NewCameraPath(frameRate float32, keyframes ...CameraKeyframe) *CameraPath {
	if frameRate <= 0 {
		frameRate = 60
	}
	return &CameraPath{frameRate: frameRate, keyframes: keyframes}
}

// Duration returns the path length in seconds.
//
// Returns:
//   - float32: the last keyframe's timestamp, or 0 for an empty path
func (p *CameraPath) Duration() float32 {
	if len(p.keyframes) == 0 {
		return 0
	}
	return p.keyframes[len(p.keyframes)-1].Time
}

// Sample evaluates the path at an animation frame index.
//
// Parameters:
//   - frame: the animation frame index
//
// Returns:
//   - [3]float32: the interpolated camera position
//   - [3]float32: the interpolated look-at target
//   - bool: false when the frame lies past the end of the path
func (p *CameraPath) Sample(frame uint32) ([3]float32, [3]float32, bool) {
	if len(p.keyframes) == 0 {
		return [3]float32{}, [3]float32{}, false
	}
	t := float32(frame) / p.frameRate
	if t > p.Duration() {
		return [3]float32{}, [3]float32{}, false
	}
	if t <= p.keyframes[0].Time || len(p.keyframes) == 1 {
		k := p.keyframes[0]
		return k.Position, k.Target, true
	}

	for i := 1; i < len(p.keyframes); i++ {
		if t > p.keyframes[i].Time {
			continue
		}
		a, b := p.keyframes[i-1], p.keyframes[i]
		span := b.Time - a.Time
		var f float32
		if span > 0 {
			f = (t - a.Time) / span
		}
		return lerp3(a.Position, b.Position, f), lerp3(a.Target, b.Target, f), true
	}

	last := p.keyframes[len(p.keyframes)-1]
	return last.Position, last.Target, true
}

func lerp3(a, b [3]float32, f float32) [3]float32 {
	return [3]float32{
		a[0] + (b[0]-a[0])*f,
		a[1] + (b[1]-a[1])*f,
		a[2] + (b[2]-a[2])*f,
	}
}
