package scene

import (
	"unsafe"
)

// Triangle is one world-space triangle gathered from the scene's mesh
// instances, the unit the BVH builder partitions.
type Triangle struct {
	V0, V1, V2 [3]float32
}

// Centroid returns the triangle's centroid.
//
// Returns:
//   - [3]float32: the averaged vertex position
func (t *Triangle) Centroid() [3]float32 {
	return [3]float32{
		(t.V0[0] + t.V1[0] + t.V2[0]) / 3,
		(t.V0[1] + t.V1[1] + t.V2[1]) / 3,
		(t.V0[2] + t.V1[2] + t.V2[2]) / 3,
	}
}

// GPUBvhNode is the GPU-aligned representation of one BVH node, matching the
// WGSL BvhNode struct consumed by the ray traversal shaders. Interior nodes
// store the left child index (the right child follows it) with a zero count;
// leaves store the first triangle index and the triangle count.
// Size: 32 bytes (std430 aligned).
type GPUBvhNode struct {
	BoundsMin   [3]float32 // offset  0: AABB minimum corner
	LeftOrFirst uint32     // offset 12: left child index or first triangle index
	BoundsMax   [3]float32 // offset 16: AABB maximum corner
	Count       uint32     // offset 28: 0 for interior nodes, triangle count for leaves
}

// GPUBvhNodeSize is the packed size of GPUBvhNode.
const GPUBvhNodeSize = int(unsafe.Sizeof(GPUBvhNode{}))

// GPUTriangle is the GPU layout of one triangle in the traversal buffer:
// three vec4 slots holding the world-space vertex positions.
// Size: 48 bytes.
type GPUTriangle struct {
	V0 [4]float32
	V1 [4]float32
	V2 [4]float32
}

// GPUTriangleSize is the packed size of GPUTriangle.
const GPUTriangleSize = int(unsafe.Sizeof(GPUTriangle{}))

// GPUEmissiveTriangle is the GPU-aligned representation of one emissive
// triangle, matching the WGSL EmissiveTriangle struct the light preparation
// pass reads. Size: 64 bytes (std430 aligned).
type GPUEmissiveTriangle struct {
	V0       [4]float32 // offset  0: world-space vertex
	V1       [4]float32 // offset 16: world-space vertex
	V2       [4]float32 // offset 32: world-space vertex
	Radiance [4]float32 // offset 48: RGB emitted radiance, A unused
}

// GPUEmissiveTriangleSize is the packed size of GPUEmissiveTriangle.
const GPUEmissiveTriangleSize = int(unsafe.Sizeof(GPUEmissiveTriangle{}))
