package camera

import (
	"math"
	"sync"
)

// CameraController owns the positional state the camera renders from: a
// world-space position and a look-at target, plus the spherical orbit
// parameters (radius, azimuth, elevation) that relate the two. Orbit and zoom
// move the position around the target; panning translates both together so
// the orbit pivot follows the camera.
type CameraController interface {
	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - [3]float32: the position
	Position() [3]float32

	// SetPosition places the camera at an explicit world-space position. The
	// orbit parameters are re-derived from the new position relative to the
	// current target, so later orbit input continues smoothly from here.
	//
	// Parameters:
	//   - pos: the new world-space position
	SetPosition(pos [3]float32)

	// Target returns the look-at point the camera orbits around.
	//
	// Returns:
	//   - [3]float32: the target
	Target() [3]float32

	// SetTarget moves the orbit pivot. The camera position stays where it is;
	// the orbit parameters are re-derived so the camera now orbits the new
	// target from its current position.
	//
	// Parameters:
	//   - target: the new world-space target
	SetTarget(target [3]float32)

	// Orbit rotates the camera around the target from a mouse drag. Horizontal
	// movement changes azimuth, vertical movement changes elevation, both
	// scaled by the controller's mouse sensitivity.
	//
	// Parameters:
	//   - dx, dy: the drag delta in pixels
	Orbit(dx, dy float32)

	// Zoom moves the camera along the view ray. Positive delta moves toward
	// the target; the distance is clamped to the configured radius bounds.
	//
	// Parameters:
	//   - delta: the zoom input, scaled by the zoom speed
	Zoom(delta float32)

	// PanRight translates camera and target along the camera's right axis.
	//
	// Parameters:
	//   - delta: the pan input, scaled by the pan speed
	PanRight(delta float32)

	// PanUp translates camera and target along the camera's up axis.
	//
	// Parameters:
	//   - delta: the pan input, scaled by the pan speed
	PanUp(delta float32)

	// PanForward translates camera and target along the view direction.
	//
	// Parameters:
	//   - delta: the pan input, scaled by the pan speed
	PanForward(delta float32)

	// Radius returns the current distance from the target.
	//
	// Returns:
	//   - float32: the orbit radius
	Radius() float32

	// SetRadius sets the distance from the target, clamped to the radius
	// bounds, and moves the camera accordingly.
	//
	// Parameters:
	//   - radius: the new distance
	SetRadius(radius float32)

	// Azimuth returns the horizontal orbit angle around the Y axis, where 0
	// looks down the -Z axis from +Z.
	//
	// Returns:
	//   - float32: the azimuth in radians
	Azimuth() float32

	// Elevation returns the vertical orbit angle above the horizontal plane.
	//
	// Returns:
	//   - float32: the elevation in radians
	Elevation() float32
}

// orbitController is the single CameraController implementation.
type orbitController struct {
	mu sync.Mutex

	position [3]float32
	target   [3]float32

	radius    float32
	azimuth   float32
	elevation float32

	minRadius    float32
	maxRadius    float32
	minElevation float32
	maxElevation float32

	mouseSensitivity float32
	zoomSpeed        float32
	panSpeed         float32
}

var _ CameraController = &orbitController{}

// NewOrbitController creates a CameraController orbiting the origin.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewOrbitController(options ...ControllerOption) CameraController {
	c := &orbitController{
		radius:    10.0,
		elevation: float32(math.Pi / 6),

		minRadius:    0.1,
		maxRadius:    2000.0,
		minElevation: float32(-math.Pi/2 + 0.05),
		maxElevation: float32(math.Pi/2 - 0.05),

		mouseSensitivity: 0.005,
		zoomSpeed:        1.0,
		panSpeed:         1.0,
	}
	for _, option := range options {
		option(c)
	}
	c.applySpherical()
	return c
}

func (c *orbitController) Position() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *orbitController) SetPosition(pos [3]float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = pos
	c.deriveSpherical()
}

func (c *orbitController) Target() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

func (c *orbitController) SetTarget(target [3]float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = target
	c.deriveSpherical()
}

func (c *orbitController) Orbit(dx, dy float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.azimuth += dx * c.mouseSensitivity
	c.elevation = clampf(c.elevation-dy*c.mouseSensitivity, c.minElevation, c.maxElevation)
	c.applySpherical()
}

func (c *orbitController) Zoom(delta float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.radius = clampf(c.radius-delta*c.zoomSpeed, c.minRadius, c.maxRadius)
	c.applySpherical()
}

func (c *orbitController) PanRight(delta float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	right, _, _ := c.axes()
	c.translate(right, delta*c.panSpeed)
}

func (c *orbitController) PanUp(delta float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, up, _ := c.axes()
	c.translate(up, delta*c.panSpeed)
}

func (c *orbitController) PanForward(delta float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _, forward := c.axes()
	c.translate(forward, delta*c.panSpeed)
}

func (c *orbitController) Radius() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.radius
}

func (c *orbitController) SetRadius(radius float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.radius = clampf(radius, c.minRadius, c.maxRadius)
	c.applySpherical()
}

func (c *orbitController) Azimuth() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.azimuth
}

func (c *orbitController) Elevation() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elevation
}

// applySpherical recomputes the position from the target and the orbit
// parameters. Caller must hold the mutex.
func (c *orbitController) applySpherical() {
	cosEl := float32(math.Cos(float64(c.elevation)))
	sinEl := float32(math.Sin(float64(c.elevation)))
	cosAz := float32(math.Cos(float64(c.azimuth)))
	sinAz := float32(math.Sin(float64(c.azimuth)))

	c.position[0] = c.target[0] + c.radius*cosEl*sinAz
	c.position[1] = c.target[1] + c.radius*sinEl
	c.position[2] = c.target[2] + c.radius*cosEl*cosAz
}

// deriveSpherical recomputes the orbit parameters from the current position
// and target, leaving both untouched. When position and target coincide the
// previous angles are kept so orbit input stays continuous. Caller must hold
// the mutex.
func (c *orbitController) deriveSpherical() {
	ox := c.position[0] - c.target[0]
	oy := c.position[1] - c.target[1]
	oz := c.position[2] - c.target[2]
	r := float32(math.Sqrt(float64(ox*ox + oy*oy + oz*oz)))
	if r < 1e-6 {
		return
	}
	c.radius = r
	c.elevation = float32(math.Asin(float64(clampf(oy/r, -1, 1))))
	if ox != 0 || oz != 0 {
		c.azimuth = float32(math.Atan2(float64(ox), float64(oz)))
	}
}

// axes returns the camera's right, up, and forward unit vectors, consistent
// with a look-at view matrix using world up (0, 1, 0). When the camera looks
// straight up or down the right axis degenerates and zero vectors are
// returned. Caller must hold the mutex.
func (c *orbitController) axes() (right, up, forward [3]float32) {
	bx := c.position[0] - c.target[0]
	by := c.position[1] - c.target[1]
	bz := c.position[2] - c.target[2]
	bLen := float32(math.Sqrt(float64(bx*bx + by*by + bz*bz)))
	if bLen < 1e-6 {
		return
	}
	bx /= bLen
	by /= bLen
	bz /= bLen

	// right = normalize(cross(worldUp, back)) = normalize((bz, 0, -bx))
	rLen := float32(math.Sqrt(float64(bz*bz + bx*bx)))
	if rLen < 1e-6 {
		return
	}
	right = [3]float32{bz / rLen, 0, -bx / rLen}

	// up = cross(back, right)
	up = [3]float32{
		by*right[2] - bz*right[1],
		bz*right[0] - bx*right[2],
		bx*right[1] - by*right[0],
	}
	forward = [3]float32{-bx, -by, -bz}
	return right, up, forward
}

// translate shifts position and target by dir scaled with amount, preserving
// the orbit relationship between them. Caller must hold the mutex.
func (c *orbitController) translate(dir [3]float32, amount float32) {
	c.position[0] += dir[0] * amount
	c.position[1] += dir[1] * amount
	c.position[2] += dir[2] * amount
	c.target[0] += dir[0] * amount
	c.target[1] += dir[1] * amount
	c.target[2] += dir[2] * amount
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
