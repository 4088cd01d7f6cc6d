package light

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// MaxGPULights is the maximum number of primitive lights that can be packed
// into the GPU light buffer per frame. Emissive triangles are appended by the
// light preparation compute pass and are not subject to this cap; it bounds
// only the CPU-uploaded analytic lights.
const MaxGPULights = 1024

// GPULight is the GPU-aligned representation of a single primitive light,
// matching the WGSL Light struct consumed by the light sampling shaders.
// Size: 64 bytes (std430 / WGSL aligned).
type GPULight struct {
	Position  [3]float32 // offset  0: world-space position (point/spot) or unused (directional)
	LightType uint32     // offset 12: 0 = directional, 1 = point, 2 = spot
	Radiance  [3]float32 // offset 16: RGB radiance
	Intensity float32    // offset 28: scalar multiplier
	Direction [3]float32 // offset 32: normalized direction (directional/spot) or unused (point)
	Radius    float32    // offset 44: emitter radius (world units, or radians for directional)
	InnerCone float32    // offset 48: cos(inner half-angle) for spot
	OuterCone float32    // offset 52: cos(outer half-angle) for spot
	_pad      [2]uint32  // offset 56: padding to 64-byte alignment
}

// Size returns the size of the GPULight struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (64)
func (g *GPULight) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPULight struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload
func (g *GPULight) Marshal() []byte {
	buf := make([]byte, 64)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], g.LightType)
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.Radiance[0]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(g.Radiance[1]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(g.Radiance[2]))
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(g.Intensity))
	binary.LittleEndian.PutUint32(buf[32:36], math.Float32bits(g.Direction[0]))
	binary.LittleEndian.PutUint32(buf[36:40], math.Float32bits(g.Direction[1]))
	binary.LittleEndian.PutUint32(buf[40:44], math.Float32bits(g.Direction[2]))
	binary.LittleEndian.PutUint32(buf[44:48], math.Float32bits(g.Radius))
	binary.LittleEndian.PutUint32(buf[48:52], math.Float32bits(g.InnerCone))
	binary.LittleEndian.PutUint32(buf[52:56], math.Float32bits(g.OuterCone))
	binary.LittleEndian.PutUint32(buf[56:60], 0)
	binary.LittleEndian.PutUint32(buf[60:64], 0)
	return buf
}

// GPULightBufferHeader is the header prepended to the light storage buffer.
// The primitive lights written by the CPU follow the header; the light
// preparation pass appends emissive triangle entries after them, so the
// header records both counts and the environment sampling parameters.
// Size: 32 bytes (std430 aligned).
type GPULightBufferHeader struct {
	PrimitiveLightCount   uint32    // offset  0: CPU-packed lights following the header
	EmissiveTriangleCount uint32    // offset  4: triangle entries appended by the prepare pass
	EnvironmentSlot       int32     // offset  8: descriptor table slot, negative = disabled
	EnvironmentRotation   float32   // offset 12: azimuthal rotation fraction in [-0.5, 0.5]
	EnvironmentScale      float32   // offset 16: linear radiance multiplier, exp2(intensity bias)
	_pad                  [3]uint32 // offset 20: padding to 32-byte alignment
}

// Size returns the size of the GPULightBufferHeader struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (32)
func (h *GPULightBufferHeader) Size() int {
	return int(unsafe.Sizeof(*h))
}

// Marshal serializes the GPULightBufferHeader struct into a byte buffer
// suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload
func (h *GPULightBufferHeader) Marshal() []byte {
	buf := make([]byte, 32)
	binary.LittleEndian.PutUint32(buf[0:4], h.PrimitiveLightCount)
	binary.LittleEndian.PutUint32(buf[4:8], h.EmissiveTriangleCount)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(h.EnvironmentSlot))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(h.EnvironmentRotation))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(h.EnvironmentScale))
	binary.LittleEndian.PutUint32(buf[20:24], 0)
	binary.LittleEndian.PutUint32(buf[24:28], 0)
	binary.LittleEndian.PutUint32(buf[28:32], 0)
	return buf
}

// ToGPULight converts a Light interface value into the GPU-aligned GPULight
// struct suitable for writing into the light storage buffer.
//
// Parameters:
//   - l: the Light to convert
//
// Returns:
//   - GPULight: the GPU-aligned representation
func ToGPULight(l Light) GPULight {
	return GPULight{
		Position:  l.Position(),
		LightType: uint32(l.Type()),
		Radiance:  l.Radiance(),
		Intensity: l.Intensity(),
		Direction: l.Direction(),
		Radius:    l.Radius(),
		InnerCone: l.InnerCone(),
		OuterCone: l.OuterCone(),
	}
}

// MarshalLightBuffer marshals the primitive lights and environment parameters
// into a byte buffer suitable for GPU upload. The buffer layout is:
//
//	[GPULightBufferHeader (32 bytes)] [GPULight × count (64 bytes each)]
//
// Only enabled lights are included, up to MaxGPULights. Lights beyond the
// budget are silently dropped. The emissive triangle count is recorded in the
// header so the light preparation pass knows where to append its entries; the
// triangles themselves are produced on the GPU.
//
// sunScale multiplies the intensity of directional lights. A file-backed
// environment map already carries its own sun, so the caller passes 0 to mute
// the analytic sun and 1 under the procedural sky.
//
// Parameters:
//   - lights: the full slice of lights to marshal (only enabled lights are included)
//   - env: the environment light, or nil when environment lighting is disabled
//   - emissiveTriangles: the scene's emissive triangle count
//   - sunScale: intensity multiplier applied to directional lights
//
// Returns:
//   - []byte: the marshaled buffer ready for GPU upload
func MarshalLightBuffer(lights []Light, env EnvironmentLight, emissiveTriangles uint32, sunScale float32) []byte {
	headerSize := (&GPULightBufferHeader{}).Size()
	lightSize := (&GPULight{}).Size()

	enabledCount := 0
	for _, l := range lights {
		if l.Enabled() {
			enabledCount++
			if enabledCount >= MaxGPULights {
				break
			}
		}
	}

	header := GPULightBufferHeader{
		PrimitiveLightCount:   uint32(enabledCount),
		EmissiveTriangleCount: emissiveTriangles,
		EnvironmentSlot:       -1,
	}
	if env != nil {
		header.EnvironmentSlot = int32(env.TextureSlot())
		header.EnvironmentRotation = env.Rotation()
		header.EnvironmentScale = env.RadianceScale()
	}

	buf := make([]byte, headerSize+enabledCount*lightSize)
	copy(buf[:headerSize], header.Marshal())

	offset := headerSize
	written := 0
	for _, l := range lights {
		if !l.Enabled() {
			continue
		}
		if written >= MaxGPULights {
			break
		}
		gpu := ToGPULight(l)
		if gpu.LightType == uint32(LightTypeDirectional) {
			gpu.Intensity *= sunScale
		}
		copy(buf[offset:offset+lightSize], gpu.Marshal())
		offset += lightSize
		written++
	}

	return buf
}
