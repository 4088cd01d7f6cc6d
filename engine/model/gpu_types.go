package model

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUVertex is the GPU-aligned representation of a single mesh vertex,
// matching the WGSL VertexInput struct of the G-buffer raster pipeline.
// Size: 32 bytes (std430 aligned, no padding required).
type GPUVertex struct {
	Position [3]float32 // offset  0: vertex position in model space (12 bytes)
	Normal   [3]float32 // offset 12: vertex normal (12 bytes)
	TexCoord [2]float32 // offset 24: UV texture coordinate (8 bytes)
}

// Size returns the size of the GPUVertex struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (32)
func (g *GPUVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUVertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload
func (g *GPUVertex) Marshal() []byte {
	buf := make([]byte, 32)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.Normal[0]))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.Normal[1]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(g.Normal[2]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(g.TexCoord[0]))
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(g.TexCoord[1]))
	return buf
}

// MarshalVertexBuffer serializes a vertex slice into a single interleaved
// buffer ready for GPU upload.
//
// Parameters:
//   - vertices: the vertices to serialize
//
// Returns:
//   - []byte: the interleaved vertex buffer
func MarshalVertexBuffer(vertices []GPUVertex) []byte {
	stride := (&GPUVertex{}).Size()
	buf := make([]byte, 0, len(vertices)*stride)
	for i := range vertices {
		buf = append(buf, vertices[i].Marshal()...)
	}
	return buf
}

// MarshalIndexBuffer serializes a 32-bit index slice into a byte buffer ready
// for GPU upload.
//
// Parameters:
//   - indices: the triangle indices to serialize
//
// Returns:
//   - []byte: the index buffer
func MarshalIndexBuffer(indices []uint32) []byte {
	buf := make([]byte, len(indices)*4)
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], idx)
	}
	return buf
}

// ComputeBounds calculates the axis-aligned bounding box of a vertex slice.
//
// Parameters:
//   - vertices: the vertices to bound
//
// Returns:
//   - [3]float32: the minimum corner
//   - [3]float32: the maximum corner
func ComputeBounds(vertices []GPUVertex) ([3]float32, [3]float32) {
	if len(vertices) == 0 {
		return [3]float32{}, [3]float32{}
	}
	bmin := vertices[0].Position
	bmax := vertices[0].Position
	for _, v := range vertices[1:] {
		for i := range 3 {
			if v.Position[i] < bmin[i] {
				bmin[i] = v.Position[i]
			}
			if v.Position[i] > bmax[i] {
				bmax[i] = v.Position[i]
			}
		}
	}
	return bmin, bmax
}
