package model

import (
	"github.com/Carmen-Shannon/lumen-go/engine/renderer/material"
)

// ModelBuilderOption is a functional option for configuring a Model via NewModel.
type ModelBuilderOption func(*model)

// WithName is an option builder that sets the name of the Model.
//
// Parameters:
//   - name: the model identifier
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithMeshes is an option builder that sets the submesh geometry of the Model.
//
// Parameters:
//   - meshes: the submeshes
//
// Returns:
//   - ModelBuilderOption: a function that applies the meshes option to a model
func WithMeshes(meshes ...ImportedMesh) ModelBuilderOption {
	return func(m *model) {
		m.meshes = meshes
	}
}

// WithMaterials is an option builder that sets the material library of the Model.
//
// Parameters:
//   - materials: the render materials referenced by submesh MaterialIndex fields
//
// Returns:
//   - ModelBuilderOption: a function that applies the materials option to a model
func WithMaterials(materials ...material.Material) ModelBuilderOption {
	return func(m *model) {
		m.materials = materials
	}
}
