package light

// LightType identifies the kind of primitive light source.
type LightType int

const (
	// LightTypeDirectional represents a light with no position, only direction.
	// Used for large distant sources like the sun. Its angular size controls
	// the softness of ray-traced shadows.
	LightTypeDirectional LightType = iota

	// LightTypePoint represents a sphere light that emits in all directions
	// from a position. The radius controls penumbra width when visibility is
	// resolved with shadow rays.
	LightTypePoint

	// LightTypeSpot represents a light that emits in a cone from a position
	// along a direction, controlled by inner and outer cone half-angles.
	LightTypeSpot
)

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	lightType LightType
	position  [3]float32
	direction [3]float32
	radiance  [3]float32
	intensity float32
	radius    float32
	innerCone float32 // stored as cos(angle in radians)
	outerCone float32 // stored as cos(angle in radians)
	enabled   bool
}

// Light defines the interface for a primitive (non-emissive-mesh) light source.
//
// Primitive lights are scene-level entities gathered by the light preparation
// pass each frame and packed into the GPU light buffer alongside emissive
// triangles. All light types share this interface; type-specific properties
// (e.g. cone angles for spot lights) return zero values when not applicable.
type Light interface {
	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: the light type (directional, point, or spot)
	Type() LightType

	// Position returns the world-space position of the light.
	// Meaningless for directional lights.
	//
	// Returns:
	//   - [3]float32: position as (x, y, z)
	Position() [3]float32

	// Direction returns the normalized direction of the light.
	// For directional lights this is the light direction. For spot lights this
	// is the cone axis. Meaningless for point lights.
	//
	// Returns:
	//   - [3]float32: normalized direction as (x, y, z)
	Direction() [3]float32

	// Radiance returns the RGB radiance of the light.
	//
	// Returns:
	//   - [3]float32: radiance as (r, g, b)
	Radiance() [3]float32

	// Intensity returns the scalar intensity multiplier for the light.
	//
	// Returns:
	//   - float32: the intensity value
	Intensity() float32

	// Radius returns the emitter size. For point and spot lights this is the
	// sphere radius in world units; for directional lights it is the angular
	// radius in radians. Zero yields hard shadows.
	//
	// Returns:
	//   - float32: the radius value
	Radius() float32

	// InnerCone returns the cosine of the inner cone half-angle for spot lights.
	// Fragments within this angle receive full intensity. Meaningless for
	// directional and point lights.
	//
	// Returns:
	//   - float32: cos(inner half-angle)
	InnerCone() float32

	// OuterCone returns the cosine of the outer cone half-angle for spot lights.
	// Fragments outside this angle receive zero intensity from the spot cone
	// falloff. Meaningless for directional and point lights.
	//
	// Returns:
	//   - float32: cos(outer half-angle)
	OuterCone() float32

	// Enabled returns whether this light is active for rendering.
	// Disabled lights are skipped when the light buffer is packed and do not
	// count toward the primitive light statistics.
	//
	// Returns:
	//   - bool: true if the light is enabled
	Enabled() bool

	// SetPosition sets the world-space position of the light.
	//
	// Parameters:
	//   - x, y, z: position components
	SetPosition(x, y, z float32)

	// SetDirection sets the direction of the light and normalizes it.
	//
	// Parameters:
	//   - x, y, z: direction components (will be normalized)
	SetDirection(x, y, z float32)

	// SetRadiance sets the RGB radiance of the light.
	//
	// Parameters:
	//   - r, g, b: radiance components
	SetRadiance(r, g, b float32)

	// SetIntensity sets the scalar intensity multiplier.
	//
	// Parameters:
	//   - intensity: the intensity value
	SetIntensity(intensity float32)

	// SetRadius sets the emitter size.
	//
	// Parameters:
	//   - radius: sphere radius in world units, or angular radius in radians
	//     for directional lights
	SetRadius(radius float32)

	// SetSpotCone sets the inner and outer cone half-angles for spot lights.
	// Angles are specified in degrees and stored internally as cosines.
	//
	// Parameters:
	//   - innerDeg: inner cone half-angle in degrees
	//   - outerDeg: outer cone half-angle in degrees
	SetSpotCone(innerDeg, outerDeg float32)

	// SetEnabled enables or disables the light for rendering.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)
}

var _ Light = &lightImpl{}

// NewLight creates a new Light of the specified type with sensible defaults and
// any provided options applied.
//
// Parameters:
//   - lightType: the kind of light to create (directional, point, or spot)
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: a new Light instance
func NewLight(lightType LightType, opts ...LightBuilderOption) Light {
	l := &lightImpl{
		lightType: lightType,
		position:  [3]float32{0, 0, 0},
		direction: [3]float32{0, -1, 0},
		radiance:  [3]float32{1, 1, 1},
		intensity: 1.0,
		radius:    0.05,
		innerCone: 0.9063, // cos(25°)
		outerCone: 0.8192, // cos(35°)
		enabled:   true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *lightImpl) Type() LightType {
	return l.lightType
}

func (l *lightImpl) Position() [3]float32 {
	return l.position
}

func (l *lightImpl) Direction() [3]float32 {
	return l.direction
}

func (l *lightImpl) Radiance() [3]float32 {
	return l.radiance
}

func (l *lightImpl) Intensity() float32 {
	return l.intensity
}

func (l *lightImpl) Radius() float32 {
	return l.radius
}

func (l *lightImpl) InnerCone() float32 {
	return l.innerCone
}

func (l *lightImpl) OuterCone() float32 {
	return l.outerCone
}

func (l *lightImpl) Enabled() bool {
	return l.enabled
}

func (l *lightImpl) SetPosition(x, y, z float32) {
	l.position = [3]float32{x, y, z}
}

func (l *lightImpl) SetDirection(x, y, z float32) {
	l.direction = normalize3(x, y, z)
}

func (l *lightImpl) SetRadiance(r, g, b float32) {
	l.radiance = [3]float32{r, g, b}
}

func (l *lightImpl) SetIntensity(intensity float32) {
	l.intensity = intensity
}

func (l *lightImpl) SetRadius(radius float32) {
	l.radius = radius
}

func (l *lightImpl) SetSpotCone(innerDeg, outerDeg float32) {
	l.innerCone = cosDeg(innerDeg)
	l.outerCone = cosDeg(outerDeg)
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.enabled = enabled
}
