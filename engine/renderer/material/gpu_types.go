package material

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUSurfaceParams is the GPU-aligned surface parameter block packed into the
// per-instance constants consumed by the G-buffer shaders.
// Size: 32 bytes (two vec4<f32>, std430 aligned).
type GPUSurfaceParams struct {
	BaseColor [4]float32 // offset  0: RGB albedo, A = roughness (16 bytes)
	Specular  [4]float32 // offset 16: RGB F0 reflectance, A unused (16 bytes)
}

// Size returns the size of the GPUSurfaceParams struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (32)
func (g *GPUSurfaceParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUSurfaceParams struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload
func (g *GPUSurfaceParams) Marshal() []byte {
	buf := make([]byte, 32)
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], math.Float32bits(g.BaseColor[i]))
		binary.LittleEndian.PutUint32(buf[16+i*4:16+i*4+4], math.Float32bits(g.Specular[i]))
	}
	return buf
}

// ToGPUSurfaceParams converts a Material into the packed surface parameters.
//
// Parameters:
//   - m: the material to pack
//
// Returns:
//   - GPUSurfaceParams: the GPU-aligned representation
func ToGPUSurfaceParams(m Material) GPUSurfaceParams {
	base := m.BaseColor()
	f0 := m.SpecularColor()
	return GPUSurfaceParams{
		BaseColor: [4]float32{base[0], base[1], base[2], m.Roughness()},
		Specular:  [4]float32{f0[0], f0[1], f0[2], 0},
	}
}
