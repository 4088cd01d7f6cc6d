package camera

// ControllerOption configures a CameraController at construction.
type ControllerOption func(*orbitController)

// WithRadius sets the starting distance from the target.
//
// Parameters:
//   - radius: the orbit radius
//
// Returns:
//   - ControllerOption: the option
func WithRadius(radius float32) ControllerOption {
	return func(c *orbitController) {
		c.radius = radius
	}
}

// WithAzimuth sets the starting horizontal orbit angle.
//
// Parameters:
//   - azimuth: the angle in radians, 0 looking from +Z
//
// Returns:
//   - ControllerOption: the option
func WithAzimuth(azimuth float32) ControllerOption {
	return func(c *orbitController) {
		c.azimuth = azimuth
	}
}

// WithElevation sets the starting vertical orbit angle.
//
// Parameters:
//   - elevation: the angle in radians above the horizontal plane
//
// Returns:
//   - ControllerOption: the option
func WithElevation(elevation float32) ControllerOption {
	return func(c *orbitController) {
		c.elevation = elevation
	}
}

// WithTarget sets the point the camera orbits around.
//
// Parameters:
//   - target: the world-space look-at point
//
// Returns:
//   - ControllerOption: the option
func WithTarget(target [3]float32) ControllerOption {
	return func(c *orbitController) {
		c.target = target
	}
}

// WithRadiusBounds clamps how close and how far the camera can zoom.
//
// Parameters:
//   - min, max: the radius bounds
//
// Returns:
//   - ControllerOption: the option
func WithRadiusBounds(min, max float32) ControllerOption {
	return func(c *orbitController) {
		c.minRadius = min
		c.maxRadius = max
	}
}

// WithElevationBounds clamps the vertical orbit angle, keeping the camera
// from flipping over the poles.
//
// Parameters:
//   - min, max: the elevation bounds in radians
//
// Returns:
//   - ControllerOption: the option
func WithElevationBounds(min, max float32) ControllerOption {
	return func(c *orbitController) {
		c.minElevation = min
		c.maxElevation = max
	}
}

// WithMouseSensitivity scales how far a pixel of mouse drag orbits the camera.
//
// Parameters:
//   - sensitivity: radians per pixel
//
// Returns:
//   - ControllerOption: the option
func WithMouseSensitivity(sensitivity float32) ControllerOption {
	return func(c *orbitController) {
		c.mouseSensitivity = sensitivity
	}
}

// WithZoomSpeed scales how far one unit of scroll input zooms.
//
// Parameters:
//   - speed: world units per scroll step
//
// Returns:
//   - ControllerOption: the option
func WithZoomSpeed(speed float32) ControllerOption {
	return func(c *orbitController) {
		c.zoomSpeed = speed
	}
}

// WithPanSpeed scales how far one unit of pan input translates the camera.
//
// Parameters:
//   - speed: world units per pan step
//
// Returns:
//   - ControllerOption: the option
func WithPanSpeed(speed float32) ControllerOption {
	return func(c *orbitController) {
		c.panSpeed = speed
	}
}
