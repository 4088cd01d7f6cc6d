package loader

import (
	"fmt"
	"io"

	"github.com/Carmen-Shannon/lumen-go/engine/model"
)

// gltfBackend is the loaderBackend for glTF 2.0 and GLB files.
type gltfBackend struct{}

var _ loaderBackend = gltfBackend{}

// newGLTFLoaderBackend creates the glTF loader backend.
//
// Returns:
//   - loaderBackend: the backend
func newGLTFLoaderBackend() loaderBackend {
	return gltfBackend{}
}

func (gltfBackend) Load(path string) (*model.ImportedModel, error) {
	f, err := parseGLTFFile(path)
	if err != nil {
		return nil, err
	}
	return assembleModel(f, path)
}

func (gltfBackend) LoadReader(r io.Reader, isGLB bool) (*model.ImportedModel, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read model data: %w", err)
	}
	f, err := parseGLTF(data, "", isGLB)
	if err != nil {
		return nil, err
	}
	return assembleModel(f, "")
}

// assembleModel extracts meshes and materials from a parsed document into an
// ImportedModel.
func assembleModel(f *gltfFile, fallbackName string) (*model.ImportedModel, error) {
	meshes, err := extractMeshes(f)
	if err != nil {
		return nil, fmt.Errorf("mesh extraction failed: %w", err)
	}
	materials, err := extractMaterials(f)
	if err != nil {
		return nil, fmt.Errorf("material extraction failed: %w", err)
	}

	return &model.ImportedModel{
		Name:      modelName(f, fallbackName),
		Meshes:    meshes,
		Materials: materials,
	}, nil
}

// modelName prefers the default scene's name, then the source path, then a
// placeholder.
func modelName(f *gltfFile, fallback string) string {
	if f.doc.Scene != nil && *f.doc.Scene < len(f.doc.Scenes) {
		if name := f.doc.Scenes[*f.doc.Scene].Name; name != "" {
			return name
		}
	}
	if fallback != "" {
		return fallback
	}
	return "unnamed_model"
}
