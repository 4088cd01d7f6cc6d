package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/lumen-go/engine/model"
)

// extractMaterials converts the document's materials in index order, so the
// MaterialIndex references on extracted primitives stay valid. PBR
// metallic-roughness factors plus the emissive-strength, transmission, and
// IOR extensions map onto ImportedMaterial; texture references are ignored.
func extractMaterials(f *gltfFile) ([]model.ImportedMaterial, error) {
	if len(f.doc.Materials) == 0 {
		return nil, nil
	}
	materials := make([]model.ImportedMaterial, len(f.doc.Materials))
	for i := range f.doc.Materials {
		materials[i] = extractMaterial(&f.doc.Materials[i], i)
	}
	return materials, nil
}

// extractMaterial resolves one material against the glTF defaults: white base
// color, fully metallic, fully rough, IOR 1.5.
func extractMaterial(src *gltfMaterial, index int) model.ImportedMaterial {
	imported := model.ImportedMaterial{
		Name:      src.Name,
		BaseColor: [4]float32{1, 1, 1, 1},
		Metallic:  1,
		Roughness: 1,
		Ior:       1.5,
	}
	if imported.Name == "" {
		imported.Name = fmt.Sprintf("material_%d", index)
	}

	if pbr := src.PbrMetallicRoughness; pbr != nil {
		if pbr.BaseColorFactor != nil {
			imported.BaseColor = *pbr.BaseColorFactor
		}
		if pbr.MetallicFactor != nil {
			imported.Metallic = *pbr.MetallicFactor
		}
		if pbr.RoughnessFactor != nil {
			imported.Roughness = *pbr.RoughnessFactor
		}
	}

	if src.EmissiveFactor != nil {
		imported.EmissiveFactor = *src.EmissiveFactor
	}

	if ext := src.Extensions; ext != nil {
		if ext.EmissiveStrength != nil && ext.EmissiveStrength.EmissiveStrength != nil {
			imported.EmissiveStrength = *ext.EmissiveStrength.EmissiveStrength
		}
		if ext.Transmission != nil && ext.Transmission.TransmissionFactor != nil {
			imported.Transmissive = *ext.Transmission.TransmissionFactor > 0
		}
		if ext.Ior != nil && ext.Ior.Ior != nil {
			imported.Ior = *ext.Ior.Ior
		}
	}

	return imported
}
