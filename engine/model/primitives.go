package model

import (
	"math"

	"github.com/Carmen-Shannon/lumen-go/engine/renderer/material"
)

// NewBox creates a unit-style box model centered at the origin.
//
// Parameters:
//   - name: the model identifier
//   - halfX, halfY, halfZ: the half extents along each axis
//   - mat: the surface material
//
// Returns:
//   - Model: the box model
func NewBox(name string, halfX, halfY, halfZ float32, mat material.Material) Model {
	type face struct {
		normal [3]float32
		u, v   [3]float32
	}
	faces := []face{
		{normal: [3]float32{1, 0, 0}, u: [3]float32{0, 0, -1}, v: [3]float32{0, 1, 0}},
		{normal: [3]float32{-1, 0, 0}, u: [3]float32{0, 0, 1}, v: [3]float32{0, 1, 0}},
		{normal: [3]float32{0, 1, 0}, u: [3]float32{1, 0, 0}, v: [3]float32{0, 0, -1}},
		{normal: [3]float32{0, -1, 0}, u: [3]float32{1, 0, 0}, v: [3]float32{0, 0, 1}},
		{normal: [3]float32{0, 0, 1}, u: [3]float32{1, 0, 0}, v: [3]float32{0, 1, 0}},
		{normal: [3]float32{0, 0, -1}, u: [3]float32{-1, 0, 0}, v: [3]float32{0, 1, 0}},
	}
	half := [3]float32{halfX, halfY, halfZ}

	var vertices []GPUVertex
	var indices []uint32
	for _, f := range faces {
		base := uint32(len(vertices))
		for corner := range 4 {
			su := float32(corner&1)*2 - 1
			sv := float32(corner>>1)*2 - 1
			var pos [3]float32
			for i := range 3 {
				pos[i] = (f.normal[i] + f.u[i]*su + f.v[i]*sv) * half[i]
			}
			vertices = append(vertices, GPUVertex{
				Position: pos,
				Normal:   f.normal,
				TexCoord: [2]float32{su*0.5 + 0.5, sv*0.5 + 0.5},
			})
		}
		indices = append(indices, base, base+1, base+2, base+2, base+1, base+3)
	}

	return newPrimitive(name, vertices, indices, mat)
}

// NewPlane creates a flat quad in the XZ plane facing +Y, centered at the
// origin.
//
// Parameters:
//   - name: the model identifier
//   - halfX, halfZ: the half extents along the X and Z axes
//   - mat: the surface material
//
// Returns:
//   - Model: the plane model
func NewPlane(name string, halfX, halfZ float32, mat material.Material) Model {
	vertices := []GPUVertex{
		{Position: [3]float32{-halfX, 0, -halfZ}, Normal: [3]float32{0, 1, 0}, TexCoord: [2]float32{0, 0}},
		{Position: [3]float32{halfX, 0, -halfZ}, Normal: [3]float32{0, 1, 0}, TexCoord: [2]float32{1, 0}},
		{Position: [3]float32{-halfX, 0, halfZ}, Normal: [3]float32{0, 1, 0}, TexCoord: [2]float32{0, 1}},
		{Position: [3]float32{halfX, 0, halfZ}, Normal: [3]float32{0, 1, 0}, TexCoord: [2]float32{1, 1}},
	}
	indices := []uint32{0, 2, 1, 1, 2, 3}
	return newPrimitive(name, vertices, indices, mat)
}

// NewSphere creates a UV sphere centered at the origin.
//
// Parameters:
//   - name: the model identifier
//   - radius: the sphere radius
//   - segments: the longitudinal subdivision count (latitudinal is half)
//   - mat: the surface material
//
// Returns:
//   - Model: the sphere model
func NewSphere(name string, radius float32, segments int, mat material.Material) Model {
	if segments < 3 {
		segments = 3
	}
	rings := segments / 2
	if rings < 2 {
		rings = 2
	}

	var vertices []GPUVertex
	var indices []uint32
	for ring := 0; ring <= rings; ring++ {
		phi := math.Pi * float64(ring) / float64(rings)
		y := float32(math.Cos(phi))
		r := float32(math.Sin(phi))
		for seg := 0; seg <= segments; seg++ {
			theta := 2 * math.Pi * float64(seg) / float64(segments)
			nx := r * float32(math.Cos(theta))
			nz := r * float32(math.Sin(theta))
			vertices = append(vertices, GPUVertex{
				Position: [3]float32{nx * radius, y * radius, nz * radius},
				Normal:   [3]float32{nx, y, nz},
				TexCoord: [2]float32{float32(seg) / float32(segments), float32(ring) / float32(rings)},
			})
		}
	}
	stride := uint32(segments + 1)
	for ring := 0; ring < rings; ring++ {
		for seg := 0; seg < segments; seg++ {
			a := uint32(ring)*stride + uint32(seg)
			b := a + stride
			indices = append(indices, a, b, a+1, a+1, b, b+1)
		}
	}
	return newPrimitive(name, vertices, indices, mat)
}

func newPrimitive(name string, vertices []GPUVertex, indices []uint32, mat material.Material) Model {
	bmin, bmax := ComputeBounds(vertices)
	mesh := ImportedMesh{
		Name:        name,
		Vertices:    vertices,
		Indices:     indices,
		BoundingMin: bmin,
		BoundingMax: bmax,
	}
	return NewModel(WithName(name), WithMeshes(mesh), WithMaterials(mat))
}
