package model

// --- Import Types ---

// ImportedModel represents a 3D model loaded from an external format.
// This is the universal format that importers (glTF, primitives) produce.
type ImportedModel struct {
	// Name is the model identifier.
	Name string

	// Meshes contains all mesh data (may have multiple meshes/submeshes).
	Meshes []ImportedMesh

	// Materials are referenced materials (indices into a material library).
	Materials []ImportedMaterial
}

// ImportedMesh represents a single mesh within an imported model.
type ImportedMesh struct {
	// Name is the mesh identifier.
	Name string

	// Vertices are the mesh vertices in model space.
	Vertices []GPUVertex

	// Indices are the triangle indices.
	Indices []uint32

	// MaterialIndex references ImportedModel.Materials.
	MaterialIndex int

	// BoundingMin is the minimum corner of the axis-aligned bounding box.
	BoundingMin [3]float32

	// BoundingMax is the maximum corner of the axis-aligned bounding box.
	BoundingMax [3]float32
}

// ImportedMaterial represents raw surface properties read from a model file
// before conversion to a render material.
type ImportedMaterial struct {
	// Name is the material identifier.
	Name string

	// BaseColor is the albedo/diffuse RGBA factor.
	BaseColor [4]float32

	// Metallic is the metallic factor (0.0 dielectric, 1.0 metallic).
	Metallic float32

	// Roughness is the roughness factor (0.0 smooth, 1.0 rough).
	Roughness float32

	// EmissiveFactor is the RGB emissive color factor.
	EmissiveFactor [3]float32

	// EmissiveStrength scales the emissive factor into radiance
	// (KHR_materials_emissive_strength, 1.0 when absent).
	EmissiveStrength float32

	// Transmissive marks glass-like surfaces drawn by the glass pass.
	Transmissive bool

	// Ior is the index of refraction for transmissive surfaces.
	Ior float32
}

// EmissiveRadiance resolves the emitted radiance from the factor and
// strength, treating an absent strength as 1.0.
//
// Returns:
//   - [3]float32: the emitted RGB radiance
func (m *ImportedMaterial) EmissiveRadiance() [3]float32 {
	strength := m.EmissiveStrength
	if strength == 0 {
		strength = 1
	}
	return [3]float32{
		m.EmissiveFactor[0] * strength,
		m.EmissiveFactor[1] * strength,
		m.EmissiveFactor[2] * strength,
	}
}
