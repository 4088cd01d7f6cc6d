package light

import "math"

// environmentLightImpl is the implementation of the EnvironmentLight interface.
type environmentLightImpl struct {
	textureSlot   int
	rotation      float32
	intensityBias float32
}

// EnvironmentLight describes the distant illumination from the environment map.
// Unlike primitive lights it is not packed into the light buffer slot list; the
// lighting passes sample it through the descriptor table slot it points at.
// A negative slot disables environment lighting entirely.
type EnvironmentLight interface {
	// TextureSlot returns the descriptor table slot holding the active
	// environment texture, or a negative value when environment lighting is
	// disabled.
	//
	// Returns:
	//   - int: the slot index, or negative if disabled
	TextureSlot() int

	// Rotation returns the azimuthal rotation of the environment map as a
	// fraction of a full turn in [-0.5, 0.5].
	//
	// Returns:
	//   - float32: the rotation fraction
	Rotation() float32

	// IntensityBias returns the exposure-style log2 bias applied to the
	// environment radiance.
	//
	// Returns:
	//   - float32: the bias in stops
	IntensityBias() float32

	// RadianceScale returns the linear multiplier derived from the intensity
	// bias, exp2(bias).
	//
	// Returns:
	//   - float32: the linear radiance scale
	RadianceScale() float32

	// SetTextureSlot points the environment light at a descriptor table slot.
	//
	// Parameters:
	//   - slot: the slot index, or negative to disable environment lighting
	SetTextureSlot(slot int)

	// SetRotation sets the azimuthal rotation fraction, clamped to [-0.5, 0.5].
	//
	// Parameters:
	//   - rotation: the rotation fraction
	SetRotation(rotation float32)

	// SetIntensityBias sets the log2 radiance bias.
	//
	// Parameters:
	//   - bias: the bias in stops
	SetIntensityBias(bias float32)
}

var _ EnvironmentLight = &environmentLightImpl{}

// NewEnvironmentLight creates an EnvironmentLight with lighting disabled until
// a texture slot is assigned.
//
// Returns:
//   - EnvironmentLight: the new environment light
func NewEnvironmentLight() EnvironmentLight {
	return &environmentLightImpl{
		textureSlot: -1,
	}
}

func (e *environmentLightImpl) TextureSlot() int {
	return e.textureSlot
}

func (e *environmentLightImpl) Rotation() float32 {
	return e.rotation
}

func (e *environmentLightImpl) IntensityBias() float32 {
	return e.intensityBias
}

func (e *environmentLightImpl) RadianceScale() float32 {
	return float32(math.Exp2(float64(e.intensityBias)))
}

func (e *environmentLightImpl) SetTextureSlot(slot int) {
	e.textureSlot = slot
}

func (e *environmentLightImpl) SetRotation(rotation float32) {
	if rotation < -0.5 {
		rotation = -0.5
	}
	if rotation > 0.5 {
		rotation = 0.5
	}
	e.rotation = rotation
}

func (e *environmentLightImpl) SetIntensityBias(bias float32) {
	e.intensityBias = bias
}
