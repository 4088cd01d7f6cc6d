// package pass implements the GPU passes the frame orchestrator sequences
// each frame. Every pass owns its pipelines and bind group providers: the
// pipelines are created once (and recreated after a shader reload), while the
// binding sets are recreated whenever the render targets or sampling resources
// they reference are rebuilt. Passes record their work onto a CommandStream
// inside a named profiling section.
package pass

import (
	"github.com/Carmen-Shannon/lumen-go/common"
	"github.com/Carmen-Shannon/lumen-go/engine/renderer"
	"github.com/Carmen-Shannon/lumen-go/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/lumen-go/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/lumen-go/engine/restir"
	"github.com/cogentcore/webgpu/wgpu"
)

// Device is the slice of the renderer the passes need to create pipelines and
// binding sets. renderer.Renderer satisfies it.
type Device interface {
	RegisterPipelines(pipelines ...pipeline.Pipeline) error
	Pipeline(key string) pipeline.Pipeline
	DropPipelines(keys ...string)
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error
	InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error
	WriteBuffers(writes []bind_group_provider.BufferWrite)
	SurfaceFormat() wgpu.TextureFormat
}

var _ Device = (renderer.Renderer)(nil)

// FrameInputs carries the per-frame values shared by the lighting passes. The
// orchestrator fills one FrameInputs per frame and hands it to every pass that
// packs frame constants.
type FrameInputs struct {
	// Params is the resampling frame state (frame index, importance grid
	// center, local light count).
	Params restir.FrameParams

	// Checkerboard is the active checkerboard field selection.
	Checkerboard restir.CheckerboardMode

	// Viewport is the render resolution in pixels.
	Viewport [2]float32

	// AccumulationWeight is 1/N while reference accumulation runs, 1 otherwise.
	AccumulationWeight float32

	// EnvironmentScale is the environment radiance scale applied during shading.
	EnvironmentScale float32
}

// frameConstants mirrors the FrameConstants uniform block in the lighting
// shaders, laid out for direct upload via common.StructToBytes.
type frameConstants struct {
	FrameIndex      uint32
	LocalLightCount uint32
	Flags           uint32
	Checkerboard    uint32

	ImportanceCenter [3]float32
	CellSize         float32

	Viewport           [2]float32
	AccumulationWeight float32
	EnvironmentScale   float32
}

// newFrameConstants packs a FrameInputs plus pass-specific flag bits into the
// uniform block layout.
func newFrameConstants(in FrameInputs, flags uint32) frameConstants {
	return frameConstants{
		FrameIndex:         in.Params.FrameIndex,
		LocalLightCount:    in.Params.LocalLightCount,
		Flags:              flags,
		Checkerboard:       uint32(in.Checkerboard),
		ImportanceCenter:   in.Params.ImportanceCenter,
		CellSize:           in.Params.CellSize,
		Viewport:           in.Viewport,
		AccumulationWeight: in.AccumulationWeight,
		EnvironmentScale:   in.EnvironmentScale,
	}
}

// dispatchDims converts a pixel extent into 8x8 workgroup counts.
func dispatchDims(width, height uint32) (uint32, uint32) {
	return (width + 7) / 8, (height + 7) / 8
}

// uniformEntry builds a uniform buffer layout entry with a minimum binding size.
func uniformEntry(binding uint32, visibility wgpu.ShaderStage, size uint64) wgpu.BindGroupLayoutEntry {
	e := wgpu.BindGroupLayoutEntry{Binding: binding, Visibility: visibility}
	e.Buffer.Type = wgpu.BufferBindingTypeUniform
	e.Buffer.MinBindingSize = size
	return e
}

// storageBufferEntry builds a storage buffer layout entry.
func storageBufferEntry(binding uint32, visibility wgpu.ShaderStage, readOnly bool) wgpu.BindGroupLayoutEntry {
	e := wgpu.BindGroupLayoutEntry{Binding: binding, Visibility: visibility}
	if readOnly {
		e.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
	} else {
		e.Buffer.Type = wgpu.BufferBindingTypeStorage
	}
	return e
}

// textureEntry builds a sampled 2D texture layout entry.
func textureEntry(binding uint32, visibility wgpu.ShaderStage, sampleType wgpu.TextureSampleType) wgpu.BindGroupLayoutEntry {
	e := wgpu.BindGroupLayoutEntry{Binding: binding, Visibility: visibility}
	e.Texture.SampleType = sampleType
	e.Texture.ViewDimension = wgpu.TextureViewDimension2D
	return e
}

// storageTextureEntry builds a 2D storage texture layout entry.
func storageTextureEntry(binding uint32, visibility wgpu.ShaderStage, format wgpu.TextureFormat, access wgpu.StorageTextureAccess) wgpu.BindGroupLayoutEntry {
	e := wgpu.BindGroupLayoutEntry{Binding: binding, Visibility: visibility}
	e.StorageTexture.Access = access
	e.StorageTexture.Format = format
	e.StorageTexture.ViewDimension = wgpu.TextureViewDimension2D
	return e
}

// samplerEntry builds a filtering sampler layout entry.
func samplerEntry(binding uint32, visibility wgpu.ShaderStage) wgpu.BindGroupLayoutEntry {
	e := wgpu.BindGroupLayoutEntry{Binding: binding, Visibility: visibility}
	e.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	return e
}

// releaseBindings drops a binding set without touching resources the pass does
// not own. Texture views are owned by the textures they came from, and the
// listed external buffer bindings belong to the sampling resources or scene;
// only the bind group, layout, samplers, and the buffers the provider itself
// created are released.
func releaseBindings(p bind_group_provider.BindGroupProvider, externalBuffers ...int) {
	if p == nil {
		return
	}
	owned := make(map[int]*wgpu.Buffer)
	for binding, buf := range p.Buffers() {
		external := false
		for _, e := range externalBuffers {
			if binding == e {
				external = true
				break
			}
		}
		if !external {
			owned[binding] = buf
		}
	}
	p.SetBuffers(owned)
	p.SetTextureViews(map[int]*wgpu.TextureView{})
	p.Release()
}
