package game_object

import (
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/lumen-go/engine/light"
	"github.com/Carmen-Shannon/lumen-go/engine/model"
)

type gameObject struct {
	mu sync.RWMutex

	id            uint64
	enabled       atomic.Bool
	mdl           model.Model
	attachedLight light.Light

	position      [3]float32
	scale         [3]float32
	rotation      [3]float32
	rotationSpeed [3]float32
}

// GameObject defines the interface for a scene entity: a model reference, a
// transform, an optional spin animation, and an optional attached light. The
// scene derives one mesh instance per submesh of the object's model and keeps
// the attached light's position in sync with the transform every frame.
// Thread-safe for concurrent access.
type GameObject interface {
	// ID returns the object's unique identifier.
	//
	// Returns:
	//   - uint64: the object ID
	ID() uint64

	// SetID sets the object's unique identifier.
	//
	// Parameters:
	//   - id: the object ID
	SetID(id uint64)

	// Enabled returns whether this object is enabled for rendering.
	//
	// Returns:
	//   - bool: true if the object is rendered
	Enabled() bool

	// SetEnabled sets whether the object is enabled for rendering.
	//
	// Parameters:
	//   - enabled: true to render the object, false to skip it
	SetEnabled(enabled bool)

	// Model returns the object's model.
	//
	// Returns:
	//   - model.Model: the model, or nil
	Model() model.Model

	// SetModel replaces the object's model. The scene must rebuild its GPU
	// resources afterwards.
	//
	// Parameters:
	//   - m: the new model
	SetModel(m model.Model)

	// Position returns the object's current world position.
	//
	// Returns:
	//   - x, y, z: the position components
	Position() (x, y, z float32)

	// SetPosition updates the object's world position.
	//
	// Parameters:
	//   - x, y, z: the position components
	SetPosition(x, y, z float32)

	// Rotation returns the object's current Euler rotation in radians.
	//
	// Returns:
	//   - rx, ry, rz: the rotation components
	Rotation() (rx, ry, rz float32)

	// SetRotation updates the object's Euler rotation.
	//
	// Parameters:
	//   - rx, ry, rz: the rotation components in radians
	SetRotation(rx, ry, rz float32)

	// RotationSpeed returns the object's angular velocity in radians per
	// second. A non-zero speed makes the object animate, which keeps the
	// scene's acceleration structure refreshing.
	//
	// Returns:
	//   - rx, ry, rz: the angular velocity components
	RotationSpeed() (rx, ry, rz float32)

	// SetRotationSpeed updates the object's angular velocity.
	//
	// Parameters:
	//   - rx, ry, rz: the angular velocity components in radians per second
	SetRotationSpeed(rx, ry, rz float32)

	// Scale returns the object's scale factors.
	//
	// Returns:
	//   - sx, sy, sz: the scale components
	Scale() (sx, sy, sz float32)

	// SetScale updates the object's scale factors.
	//
	// Parameters:
	//   - sx, sy, sz: the scale components
	SetScale(sx, sy, sz float32)

	// Animated reports whether the object moves on its own.
	//
	// Returns:
	//   - bool: true when the rotation speed is non-zero
	Animated() bool

	// Advance integrates the object's rotation by its angular velocity.
	//
	// Parameters:
	//   - deltaTime: elapsed time in seconds
	Advance(deltaTime float32)

	// Light returns the light attached to this object, or nil.
	//
	// Returns:
	//   - light.Light: the attached light or nil
	Light() light.Light

	// SetLight attaches a light whose position follows the object.
	//
	// Parameters:
	//   - l: the light to attach, or nil to detach
	SetLight(l light.Light)
}

var _ GameObject = &gameObject{}

// NewGameObject creates a GameObject with the given options applied.
// Defaults: enabled, unit scale, no rotation, no attached light.
//
// Parameters:
//   - options: builder options to apply
//
// Returns:
//   - GameObject: the new object
func NewGameObject(options ...GameObjectBuilderOption) GameObject {
	obj := &gameObject{
		scale: [3]float32{1, 1, 1},
	}
	obj.enabled.Store(true)
	for _, opt := range options {
		opt(obj)
	}
	return obj
}

func (g *gameObject) ID() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.id
}

func (g *gameObject) SetID(id uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.id = id
}

func (g *gameObject) Enabled() bool {
	return g.enabled.Load()
}

func (g *gameObject) SetEnabled(enabled bool) {
	g.enabled.Store(enabled)
}

func (g *gameObject) Model() model.Model {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.mdl
}

func (g *gameObject) SetModel(m model.Model) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mdl = m
}

func (g *gameObject) Position() (x, y, z float32) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.position[0], g.position[1], g.position[2]
}

func (g *gameObject) SetPosition(x, y, z float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.position = [3]float32{x, y, z}
}

func (g *gameObject) Rotation() (rx, ry, rz float32) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.rotation[0], g.rotation[1], g.rotation[2]
}

func (g *gameObject) SetRotation(rx, ry, rz float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rotation = [3]float32{rx, ry, rz}
}

func (g *gameObject) RotationSpeed() (rx, ry, rz float32) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.rotationSpeed[0], g.rotationSpeed[1], g.rotationSpeed[2]
}

func (g *gameObject) SetRotationSpeed(rx, ry, rz float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rotationSpeed = [3]float32{rx, ry, rz}
}

func (g *gameObject) Scale() (sx, sy, sz float32) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.scale[0], g.scale[1], g.scale[2]
}

func (g *gameObject) SetScale(sx, sy, sz float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scale = [3]float32{sx, sy, sz}
}

func (g *gameObject) Animated() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.rotationSpeed != [3]float32{}
}

func (g *gameObject) Advance(deltaTime float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range 3 {
		g.rotation[i] += g.rotationSpeed[i] * deltaTime
	}
}

func (g *gameObject) Light() light.Light {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.attachedLight
}

func (g *gameObject) SetLight(l light.Light) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.attachedLight = l
}
