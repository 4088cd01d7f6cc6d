package model

import (
	"github.com/Carmen-Shannon/lumen-go/engine/renderer/material"
)

// model is the implementation of the Model interface.
type model struct {
	name      string
	meshes    []ImportedMesh
	materials []material.Material
}

// Model defines the interface for a loaded 3D model: CPU-side mesh geometry
// and the render materials its submeshes reference. The scene owns the GPU
// side (vertex/index buffers, instance constants, acceleration structures);
// a Model is pure data and can be shared by any number of instances.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Meshes retrieves the model's submeshes.
	//
	// Returns:
	//   - []ImportedMesh: the submesh geometry
	Meshes() []ImportedMesh

	// Materials retrieves the render materials referenced by the submeshes'
	// MaterialIndex fields.
	//
	// Returns:
	//   - []material.Material: the material library
	Materials() []material.Material

	// Material resolves a submesh's material, falling back to a default
	// material when the index is out of range.
	//
	// Parameters:
	//   - index: the submesh MaterialIndex
	//
	// Returns:
	//   - material.Material: the resolved material
	Material(index int) material.Material

	// TriangleCount retrieves the total triangle count across all submeshes.
	//
	// Returns:
	//   - uint32: the triangle count
	TriangleCount() uint32

	// EmissiveTriangleCount retrieves the triangle count across submeshes
	// whose material is emissive. Each such triangle occupies one light
	// buffer slot per instance.
	//
	// Returns:
	//   - uint32: the emissive triangle count
	EmissiveTriangleCount() uint32

	// Bounds retrieves the axis-aligned bounding box enclosing all submeshes
	// in model space.
	//
	// Returns:
	//   - [3]float32: the minimum corner
	//   - [3]float32: the maximum corner
	Bounds() ([3]float32, [3]float32)
}

var _ Model = &model{}

// NewModel creates a Model with the given options applied.
//
// Parameters:
//   - options: builder options to apply
//
// Returns:
//   - Model: the new model
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Meshes() []ImportedMesh {
	return m.meshes
}

func (m *model) Materials() []material.Material {
	return m.materials
}

func (m *model) Material(index int) material.Material {
	if index < 0 || index >= len(m.materials) {
		return material.NewMaterial(material.WithName("default"))
	}
	return m.materials[index]
}

func (m *model) TriangleCount() uint32 {
	var count uint32
	for i := range m.meshes {
		count += uint32(len(m.meshes[i].Indices) / 3)
	}
	return count
}

func (m *model) EmissiveTriangleCount() uint32 {
	var count uint32
	for i := range m.meshes {
		if m.Material(m.meshes[i].MaterialIndex).Emissive() {
			count += uint32(len(m.meshes[i].Indices) / 3)
		}
	}
	return count
}

func (m *model) Bounds() ([3]float32, [3]float32) {
	if len(m.meshes) == 0 {
		return [3]float32{}, [3]float32{}
	}
	bmin := m.meshes[0].BoundingMin
	bmax := m.meshes[0].BoundingMax
	for _, mesh := range m.meshes[1:] {
		for i := range 3 {
			if mesh.BoundingMin[i] < bmin[i] {
				bmin[i] = mesh.BoundingMin[i]
			}
			if mesh.BoundingMax[i] > bmax[i] {
				bmax[i] = mesh.BoundingMax[i]
			}
		}
	}
	return bmin, bmax
}
