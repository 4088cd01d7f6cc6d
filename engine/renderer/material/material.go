package material

// material is the implementation of the Material interface.
type material struct {
	name             string
	baseColor        [4]float32
	metallic         float32
	roughness        float32
	emissiveRadiance [3]float32
	ior              float32
	transmissive     bool
}

// Material describes the surface of a mesh as the G-buffer passes consume it:
// an albedo and specular reflectance pair, a roughness, and an optional
// emissive radiance that turns the mesh's triangles into light sources.
//
// Surface properties are set at load time and are read-only through this
// interface; the scene packs them into per-instance constants each time the
// instance buffer is rebuilt.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// BaseColor retrieves the albedo/diffuse RGBA color of the material.
	//
	// Returns:
	//   - [4]float32: the base color as RGBA values
	BaseColor() [4]float32

	// Metallic retrieves the metallic factor of the material.
	// A value of 0.0 represents a dielectric surface, 1.0 represents a fully metallic surface.
	//
	// Returns:
	//   - float32: the metallic factor
	Metallic() float32

	// Roughness retrieves the roughness factor of the material.
	// A value of 0.0 represents a perfectly smooth surface, 1.0 represents a fully rough surface.
	//
	// Returns:
	//   - float32: the roughness factor
	Roughness() float32

	// EmissiveRadiance retrieves the RGB radiance emitted per unit area, or
	// zero for non-emissive surfaces.
	//
	// Returns:
	//   - [3]float32: the emitted radiance
	EmissiveRadiance() [3]float32

	// Emissive reports whether the material emits light. Emissive instances
	// contribute their triangles to the light buffer.
	//
	// Returns:
	//   - bool: true when any emissive radiance channel is non-zero
	Emissive() bool

	// SpecularColor derives the specular reflectance at normal incidence from
	// the base color and metallic factor.
	//
	// Returns:
	//   - [3]float32: the F0 reflectance
	SpecularColor() [3]float32

	// Transmissive reports whether the surface refracts rather than
	// reflects. Transmissive instances are drawn by the glass pass after
	// compositing instead of the G-buffer fill.
	//
	// Returns:
	//   - bool: true for glass-like surfaces
	Transmissive() bool

	// Ior retrieves the index of refraction used by the glass pass.
	//
	// Returns:
	//   - float32: the index of refraction
	Ior() float32
}

var _ Material = &material{}

// NewMaterial creates a Material with the given options applied.
// Defaults: white base color, dielectric, roughness 0.5, no emission,
// index of refraction 1.5.
//
// Parameters:
//   - options: builder options to apply
//
// Returns:
//   - Material: the new material
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		baseColor: [4]float32{1, 1, 1, 1},
		roughness: 0.5,
		ior:       1.5,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) BaseColor() [4]float32 {
	return m.baseColor
}

func (m *material) Metallic() float32 {
	return m.metallic
}

func (m *material) Roughness() float32 {
	return m.roughness
}

func (m *material) EmissiveRadiance() [3]float32 {
	return m.emissiveRadiance
}

func (m *material) Emissive() bool {
	return m.emissiveRadiance[0] != 0 || m.emissiveRadiance[1] != 0 || m.emissiveRadiance[2] != 0
}

func (m *material) SpecularColor() [3]float32 {
	const dielectricF0 = 0.04
	var f0 [3]float32
	for i := range 3 {
		f0[i] = dielectricF0 + (m.baseColor[i]-dielectricF0)*m.metallic
	}
	return f0
}

func (m *material) Transmissive() bool {
	return m.transmissive
}

func (m *material) Ior() float32 {
	return m.ior
}
