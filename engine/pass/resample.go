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

const resampleKey = "resample_direct"

// ResampleFlagPackDenoiser stores demodulated irradiance in the lighting
// channels instead of the shaded result, for denoiser consumption.
const ResampleFlagPackDenoiser uint32 = 1 << 3

// frameConstantsSize is the packed size of the lighting passes' uniform block.
const frameConstantsSize = 48

// ResamplePass runs direct lighting via spatiotemporal reservoir resampling:
// candidate generation over the light buffer, temporal reuse against last
// frame's reservoirs, and final shading into the lighting channels.
type ResamplePass struct {
	device  Device
	factory shader.Factory

	pipeline pipeline.Pipeline

	frameBindings bind_group_provider.BindGroupProvider
	gbufferReads  [2]bind_group_provider.BindGroupProvider
	outputs       bind_group_provider.BindGroupProvider
	parity        int

	targets *resources.RenderTargets
}

// NewResamplePass creates the resampled direct lighting pass.
//
// Parameters:
//   - device: the renderer surface used for pipelines and binding sets
//   - factory: the shader factory source is loaded through
//
// Returns:
//   - *ResamplePass: the pass, with no pipeline or binding sets yet
func NewResamplePass(device Device, factory shader.Factory) *ResamplePass {
	return &ResamplePass{device: device, factory: factory}
}

func (p *ResamplePass) frameLayout() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "resample_frame",
		Entries: []wgpu.BindGroupLayoutEntry{
			uniformEntry(0, wgpu.ShaderStageCompute, frameConstantsSize),
			storageBufferEntry(1, wgpu.ShaderStageCompute, true),
			storageBufferEntry(2, wgpu.ShaderStageCompute, false),
			storageBufferEntry(3, wgpu.ShaderStageCompute, true),
		},
	}
}

func (p *ResamplePass) gbufferLayout() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "resample_gbuffer",
		Entries: []wgpu.BindGroupLayoutEntry{
			textureEntry(0, wgpu.ShaderStageCompute, wgpu.TextureSampleTypeUnfilterableFloat),
			textureEntry(1, wgpu.ShaderStageCompute, wgpu.TextureSampleTypeFloat),
			textureEntry(2, wgpu.ShaderStageCompute, wgpu.TextureSampleTypeFloat),
		},
	}
}

func (p *ResamplePass) outputLayout() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "resample_outputs",
		Entries: []wgpu.BindGroupLayoutEntry{
			storageTextureEntry(0, wgpu.ShaderStageCompute, wgpu.TextureFormatRGBA16Float, wgpu.StorageTextureAccessWriteOnly),
			storageTextureEntry(1, wgpu.ShaderStageCompute, wgpu.TextureFormatRGBA16Float, wgpu.StorageTextureAccessWriteOnly),
		},
	}
}

// CreatePipelines builds and registers the pass's compute pipeline.
//
// Returns:
//   - error: an error if shader loading or pipeline registration fails
func (p *ResamplePass) CreatePipelines() error {
	cs, err := p.factory.Load("resample_direct.wgsl", shader.ShaderTypeCompute, "cs_main")
	if err != nil {
		return err
	}
	p.pipeline = pipeline.NewPipeline(resampleKey, pipeline.PipelineTypeCompute,
		pipeline.WithComputeShader(cs),
		pipeline.WithBindGroupLayout(0, p.frameLayout()),
		pipeline.WithBindGroupLayout(1, p.gbufferLayout()),
		pipeline.WithBindGroupLayout(2, p.outputLayout()),
	)
	return p.device.RegisterPipelines(p.pipeline)
}

// DropPipelines removes this pass's pipeline from the renderer cache.
func (p *ResamplePass) DropPipelines() {
	p.device.DropPipelines(resampleKey)
}

// CreateBindingSet (re)creates the pass's bind groups against the current
// render targets and sampling resources.
//
// Parameters:
//   - rt: the active render targets
//   - sr: the active sampling resources
//
// Returns:
//   - error: an error if bind group creation fails
func (p *ResamplePass) CreateBindingSet(rt *resources.RenderTargets, sr *resources.SamplingResources) error {
	p.releaseBindingSet()
	p.targets = rt
	p.parity = rt.FrameParity()

	p.frameBindings = bind_group_provider.NewBindGroupProvider("resample_frame")
	p.frameBindings.SetBuffer(1, sr.LightBuffer)
	p.frameBindings.SetBuffer(2, sr.ReservoirBuffer)
	p.frameBindings.SetBuffer(3, sr.ImportanceGridBuffer)
	if err := p.device.InitBindGroup(p.frameBindings, p.frameLayout(), nil, nil); err != nil {
		return fmt.Errorf("resample frame bindings: %w", err)
	}

	reads := [2][3]renderer.Texture{
		{rt.Depth(), rt.Normals(), rt.DiffuseAlbedo()},
		{rt.PrevDepth(), rt.PrevNormals(), rt.PrevDiffuseAlbedo()},
	}
	for i, texs := range reads {
		provider := bind_group_provider.NewBindGroupProvider(fmt.Sprintf("resample_gbuffer_%d", i))
		for binding, t := range texs {
			provider.SetTextureView(binding, t.View())
		}
		if err := p.device.InitBindGroup(provider, p.gbufferLayout(), nil, nil); err != nil {
			return fmt.Errorf("resample gbuffer bindings: %w", err)
		}
		p.gbufferReads[i] = provider
	}

	p.outputs = bind_group_provider.NewBindGroupProvider("resample_outputs")
	p.outputs.SetTextureView(0, rt.DiffuseLighting.View())
	p.outputs.SetTextureView(1, rt.SpecularLighting.View())
	if err := p.device.InitBindGroup(p.outputs, p.outputLayout(), nil, nil); err != nil {
		return fmt.Errorf("resample output bindings: %w", err)
	}

	return nil
}

// Render encodes the resampling dispatch for one frame.
//
// Parameters:
//   - cs: the command stream to record into
//   - in: the frame inputs shared by the lighting passes
//   - flags: ResampleFlagPackDenoiser or 0
func (p *ResamplePass) Render(cs renderer.CommandStream, in FrameInputs, flags uint32) {
	cs.BeginSection("Resample Direct")
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

func (p *ResamplePass) releaseBindingSet() {
	releaseBindings(p.frameBindings, 1, 2, 3)
	for i := range p.gbufferReads {
		releaseBindings(p.gbufferReads[i])
		p.gbufferReads[i] = nil
	}
	releaseBindings(p.outputs)
	p.frameBindings, p.outputs = nil, nil
}

// Release frees the pass's binding sets.
func (p *ResamplePass) Release() {
	p.releaseBindingSet()
}
