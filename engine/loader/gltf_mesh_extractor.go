package loader

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/lumen-go/engine/model"
)

// extractMeshes converts every mesh in the document into ImportedMesh values,
// one per primitive, flattened in document order.
func extractMeshes(f *gltfFile) ([]model.ImportedMesh, error) {
	var meshes []model.ImportedMesh
	for meshIdx := range f.doc.Meshes {
		mesh := &f.doc.Meshes[meshIdx]
		for primIdx := range mesh.Primitives {
			imported, err := extractPrimitive(f, &mesh.Primitives[primIdx], mesh.Name, primIdx)
			if err != nil {
				return nil, fmt.Errorf("mesh %d primitive %d: %w", meshIdx, primIdx, err)
			}
			meshes = append(meshes, imported)
		}
	}
	return meshes, nil
}

// extractPrimitive builds one ImportedMesh from a primitive. POSITION is
// required; NORMAL and TEXCOORD_0 are optional, with normals rebuilt from the
// triangle geometry when absent.
func extractPrimitive(f *gltfFile, prim *gltfPrimitive, meshName string, primIndex int) (model.ImportedMesh, error) {
	if prim.Mode != nil && *prim.Mode != gltfPrimitiveModeTriangles {
		return model.ImportedMesh{}, fmt.Errorf("unsupported primitive mode: %d (only triangles supported)", *prim.Mode)
	}

	posAccessor, ok := prim.Attributes["POSITION"]
	if !ok {
		return model.ImportedMesh{}, fmt.Errorf("primitive has no POSITION attribute")
	}
	positions, err := f.readVec3(posAccessor)
	if err != nil {
		return model.ImportedMesh{}, fmt.Errorf("read positions: %w", err)
	}

	vertices := make([]model.GPUVertex, len(positions))
	for i, pos := range positions {
		vertices[i].Position = pos
	}

	hasNormals := false
	if normalAccessor, ok := prim.Attributes["NORMAL"]; ok {
		normals, err := f.readVec3(normalAccessor)
		if err != nil {
			return model.ImportedMesh{}, fmt.Errorf("read normals: %w", err)
		}
		for i := range normals {
			if i < len(vertices) {
				vertices[i].Normal = normals[i]
			}
		}
		hasNormals = true
	}

	if texCoordAccessor, ok := prim.Attributes["TEXCOORD_0"]; ok {
		texCoords, err := f.readVec2(texCoordAccessor)
		if err != nil {
			return model.ImportedMesh{}, fmt.Errorf("read texcoords: %w", err)
		}
		for i := range texCoords {
			if i < len(vertices) {
				vertices[i].TexCoord = texCoords[i]
			}
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = f.readIndices(*prim.Indices)
		if err != nil {
			return model.ImportedMesh{}, fmt.Errorf("read indices: %w", err)
		}
	} else {
		// Non-indexed geometry draws vertices in order.
		indices = make([]uint32, len(vertices))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	if !hasNormals && len(indices) >= 3 {
		buildSmoothNormals(vertices, indices)
	}

	bmin, bmax := model.ComputeBounds(vertices)

	materialIndex := 0
	if prim.Material != nil {
		materialIndex = *prim.Material
	}

	name := meshName
	if name == "" {
		name = fmt.Sprintf("mesh_%d", primIndex)
	}
	if len(prim.Attributes) > 0 && primIndex > 0 {
		name = fmt.Sprintf("%s_prim%d", name, primIndex)
	}

	return model.ImportedMesh{
		Name:          name,
		Vertices:      vertices,
		Indices:       indices,
		MaterialIndex: materialIndex,
		BoundingMin:   bmin,
		BoundingMax:   bmax,
	}, nil
}

// buildSmoothNormals fills in vertex normals for documents that omit the
// NORMAL attribute. Each triangle's unnormalized face normal (the edge cross
// product, proportional to area) accumulates onto its three vertices, so
// larger triangles weigh more; the sums normalize into smooth per-vertex
// normals. Degenerate vertices fall back to +Y.
func buildSmoothNormals(vertices []model.GPUVertex, indices []uint32) {
	n := len(vertices)
	accum := make([][3]float32, n)

	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		if int(i0) >= n || int(i1) >= n || int(i2) >= n {
			continue
		}

		p0, p1, p2 := vertices[i0].Position, vertices[i1].Position, vertices[i2].Position
		e1 := [3]float32{p1[0] - p0[0], p1[1] - p0[1], p1[2] - p0[2]}
		e2 := [3]float32{p2[0] - p0[0], p2[1] - p0[1], p2[2] - p0[2]}

		face := [3]float32{
			e1[1]*e2[2] - e1[2]*e2[1],
			e1[2]*e2[0] - e1[0]*e2[2],
			e1[0]*e2[1] - e1[1]*e2[0],
		}

		for _, idx := range [3]uint32{i0, i1, i2} {
			accum[idx][0] += face[0]
			accum[idx][1] += face[1]
			accum[idx][2] += face[2]
		}
	}

	for i := range accum {
		length := float32(math.Sqrt(float64(accum[i][0]*accum[i][0] + accum[i][1]*accum[i][1] + accum[i][2]*accum[i][2])))
		if length < 1e-6 {
			vertices[i].Normal = [3]float32{0, 1, 0}
			continue
		}
		vertices[i].Normal = [3]float32{
			accum[i][0] / length,
			accum[i][1] / length,
			accum[i][2] / length,
		}
	}
}
