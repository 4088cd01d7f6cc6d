package pass

import (
	"fmt"

	"github.com/Carmen-Shannon/lumen-go/common"
	"github.com/Carmen-Shannon/lumen-go/engine/renderer"
	"github.com/Carmen-Shannon/lumen-go/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/lumen-go/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/lumen-go/engine/renderer/shader"
	"github.com/Carmen-Shannon/lumen-go/engine/resources"
	"github.com/cogentcore/webgpu/wgpu"
)

const brdfRaysKey = "brdf_rays"

// Flag bits in the lighting passes' shared uniform block, mirrored by the
// BRDF ray shader.
const (
	// BrdfFlagAdditive blends the BRDF ray results over the lighting channels
	// instead of replacing them.
	BrdfFlagAdditive uint32 = 1 << 0

	// BrdfFlagSpecularMIS weights specular hits against the resampled estimate.
	BrdfFlagSpecularMIS uint32 = 1 << 1

	// BrdfFlagIndirect adds the single-bounce indirect estimate.
	BrdfFlagIndirect uint32 = 1 << 2
)

// BrdfRaysPass samples the surface BRDF and traces the sampled rays through
// the scene BVH, accumulating hits into the lighting channels. Depending on
// the rendering mode it either supplements the resampled estimate or replaces
// it entirely.
type BrdfRaysPass struct {
	device  Device
	factory shader.Factory

	pipeline pipeline.Pipeline

	frameBindings bind_group_provider.BindGroupProvider
	gbufferReads  [2]bind_group_provider.BindGroupProvider
	outputs       bind_group_provider.BindGroupProvider
	parity        int

	targets *resources.RenderTargets
}

// NewBrdfRaysPass creates the BRDF ray tracing pass.
//
// Parameters:
//   - device: the renderer surface used for pipelines and binding sets
//   - factory: the shader factory source is loaded through
//
// Returns:
//   - *BrdfRaysPass: the pass, with no pipeline or binding sets yet
func NewBrdfRaysPass(device Device, factory shader.Factory) *BrdfRaysPass {
	return &BrdfRaysPass{device: device, factory: factory}
}

func (p *BrdfRaysPass) frameLayout() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "brdf_frame",
		Entries: []wgpu.BindGroupLayoutEntry{
			uniformEntry(0, wgpu.ShaderStageCompute, frameConstantsSize),
			storageBufferEntry(1, wgpu.ShaderStageCompute, true),
			storageBufferEntry(2, wgpu.ShaderStageCompute, true),
			storageBufferEntry(3, wgpu.ShaderStageCompute, true),
		},
	}
}

func (p *BrdfRaysPass) gbufferLayout() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "brdf_gbuffer",
		Entries: []wgpu.BindGroupLayoutEntry{
			textureEntry(0, wgpu.ShaderStageCompute, wgpu.TextureSampleTypeUnfilterableFloat),
			textureEntry(1, wgpu.ShaderStageCompute, wgpu.TextureSampleTypeFloat),
			textureEntry(2, wgpu.ShaderStageCompute, wgpu.TextureSampleTypeFloat),
		},
	}
}

func (p *BrdfRaysPass) outputLayout() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "brdf_outputs",
		Entries: []wgpu.BindGroupLayoutEntry{
			storageTextureEntry(0, wgpu.ShaderStageCompute, wgpu.TextureFormatRGBA16Float, wgpu.StorageTextureAccessReadWrite),
			storageTextureEntry(1, wgpu.ShaderStageCompute, wgpu.TextureFormatRGBA16Float, wgpu.StorageTextureAccessReadWrite),
		},
	}
}

// CreatePipelines builds and registers the pass's compute pipeline.
//
// Returns:
//   - error: an error if shader loading or pipeline registration fails
func (p *BrdfRaysPass) CreatePipelines() error {
	cs, err := p.factory.Load("brdf_rays.wgsl", shader.ShaderTypeCompute, "cs_main")
	if err != nil {
		return err
	}
	p.pipeline = pipeline.NewPipeline(brdfRaysKey, pipeline.PipelineTypeCompute,
		pipeline.WithComputeShader(cs),
		pipeline.WithBindGroupLayout(0, p.frameLayout()),
		pipeline.WithBindGroupLayout(1, p.gbufferLayout()),
		pipeline.WithBindGroupLayout(2, p.outputLayout()),
	)
	return p.device.RegisterPipelines(p.pipeline)
}

// DropPipelines removes this pass's pipeline from the renderer cache.
func (p *BrdfRaysPass) DropPipelines() {
	p.device.DropPipelines(brdfRaysKey)
}

// CreateBindingSet (re)creates the pass's bind groups against the current
// render targets, sampling resources, and scene geometry buffers.
//
// Parameters:
//   - rt: the active render targets
//   - sr: the active sampling resources
//   - bvhNodes: the scene BVH node buffer
//   - triangles: the scene triangle position buffer
//
// Returns:
//   - error: an error if bind group creation fails
func (p *BrdfRaysPass) CreateBindingSet(rt *resources.RenderTargets, sr *resources.SamplingResources, bvhNodes, triangles *wgpu.Buffer) error {
	p.releaseBindingSet()
	p.targets = rt
	p.parity = rt.FrameParity()

	p.frameBindings = bind_group_provider.NewBindGroupProvider("brdf_frame")
	p.frameBindings.SetBuffer(1, bvhNodes)
	p.frameBindings.SetBuffer(2, triangles)
	p.frameBindings.SetBuffer(3, sr.LightBuffer)
	if err := p.device.InitBindGroup(p.frameBindings, p.frameLayout(), nil, nil); err != nil {
		return fmt.Errorf("brdf frame bindings: %w", err)
	}

	reads := [2][3]renderer.Texture{
		{rt.Depth(), rt.Normals(), rt.SpecularRough()},
		{rt.PrevDepth(), rt.PrevNormals(), rt.PrevSpecularRough()},
	}
	for i, texs := range reads {
		provider := bind_group_provider.NewBindGroupProvider(fmt.Sprintf("brdf_gbuffer_%d", i))
		for binding, t := range texs {
			provider.SetTextureView(binding, t.View())
		}
		if err := p.device.InitBindGroup(provider, p.gbufferLayout(), nil, nil); err != nil {
			return fmt.Errorf("brdf gbuffer bindings: %w", err)
		}
		p.gbufferReads[i] = provider
	}

	p.outputs = bind_group_provider.NewBindGroupProvider("brdf_outputs")
	p.outputs.SetTextureView(0, rt.DiffuseLighting.View())
	p.outputs.SetTextureView(1, rt.SpecularLighting.View())
	if err := p.device.InitBindGroup(p.outputs, p.outputLayout(), nil, nil); err != nil {
		return fmt.Errorf("brdf output bindings: %w", err)
	}

	return nil
}

// Render encodes the BRDF ray dispatch for one frame.
//
// Parameters:
//   - cs: the command stream to record into
//   - in: the frame inputs shared by the lighting passes
//   - flags: the BrdfFlag bits selected by the active rendering mode
func (p *BrdfRaysPass) Render(cs renderer.CommandStream, in FrameInputs, flags uint32) {
	cs.BeginSection("BRDF Rays")
	defer cs.EndSection()

	constants := newFrameConstants(in, flags)
	p.device.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: p.frameBindings, Binding: 0, Offset: 0, Data: common.StructToBytes(&constants)},
	})

	x, y := dispatchDims(p.targets.Width(), p.targets.Height())
	idx := p.targets.FrameParity() ^ p.parity
	cs.Dispatch(p.pipeline, []*wgpu.BindGroup{
		p.frameBindings.BindGroup(),
		p.gbufferReads[idx].BindGroup(),
		p.outputs.BindGroup(),
	}, x, y, 1)
}

func (p *BrdfRaysPass) releaseBindingSet() {
	releaseBindings(p.frameBindings, 1, 2, 3)
	for i := range p.gbufferReads {
		releaseBindings(p.gbufferReads[i])
		p.gbufferReads[i] = nil
	}
	releaseBindings(p.outputs)
	p.frameBindings, p.outputs = nil, nil
}

// Release frees the pass's binding sets.
func (p *BrdfRaysPass) Release() {
	p.releaseBindingSet()
}
