package material

// MaterialBuilderOption is a functional option for configuring a Material.
// Use the With* functions to create options.
type MaterialBuilderOption func(*material)

// WithName sets the material identifier.
//
// Parameters:
//   - name: the material name
//
// Returns:
//   - MaterialBuilderOption: option function to apply
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithBaseColor sets the albedo/diffuse RGBA color.
//
// Parameters:
//   - color: the base color as RGBA values
//
// Returns:
//   - MaterialBuilderOption: option function to apply
func WithBaseColor(color [4]float32) MaterialBuilderOption {
	return func(m *material) {
		m.baseColor = color
	}
}

// WithMetallic sets the metallic factor (0.0 dielectric, 1.0 metallic).
//
// Parameters:
//   - metallic: the metallic factor
//
// Returns:
//   - MaterialBuilderOption: option function to apply
func WithMetallic(metallic float32) MaterialBuilderOption {
	return func(m *material) {
		m.metallic = metallic
	}
}

// WithRoughness sets the roughness factor (0.0 smooth, 1.0 rough).
//
// Parameters:
//   - roughness: the roughness factor
//
// Returns:
//   - MaterialBuilderOption: option function to apply
func WithRoughness(roughness float32) MaterialBuilderOption {
	return func(m *material) {
		m.roughness = roughness
	}
}

// WithEmissiveRadiance sets the RGB radiance emitted per unit area. Any
// non-zero channel marks the material emissive, adding its triangles to the
// light buffer.
//
// Parameters:
//   - radiance: the emitted radiance
//
// Returns:
//   - MaterialBuilderOption: option function to apply
func WithEmissiveRadiance(radiance [3]float32) MaterialBuilderOption {
	return func(m *material) {
		m.emissiveRadiance = radiance
	}
}

// WithTransmissive marks the surface as glass-like: it is skipped by the
// G-buffer fill and drawn by the glass pass with the given index of
// refraction.
//
// Parameters:
//   - ior: the index of refraction (typically 1.3–1.8)
//
// Returns:
//   - MaterialBuilderOption: option function to apply
func WithTransmissive(ior float32) MaterialBuilderOption {
	return func(m *material) {
		m.transmissive = true
		m.ior = ior
	}
}
