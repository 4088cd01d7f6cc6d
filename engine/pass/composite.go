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

const compositeKey = "composite"

// compositeConstants mirrors the CompositeConstants uniform block.
type compositeConstants struct {
	Viewport         [2]float32
	UseDenoised      uint32
	EnvironmentScale float32
}

// CompositePass combines the lighting channels with the G-buffer albedo into
// the HDR color target, falling back to the environment map on primary ray
// misses.
type CompositePass struct {
	device  Device
	factory shader.Factory

	pipeline pipeline.Pipeline
	bindings [2]bind_group_provider.BindGroupProvider
	parity   int

	targets *resources.RenderTargets
}

// NewCompositePass creates the composite pass.
//
// Parameters:
//   - device: the renderer surface used for pipelines and binding sets
//   - factory: the shader factory source is loaded through
//
// Returns:
//   - *CompositePass: the pass, with no pipeline or binding sets yet
func NewCompositePass(device Device, factory shader.Factory) *CompositePass {
	return &CompositePass{device: device, factory: factory}
}

func (p *CompositePass) layout() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "composite",
		Entries: []wgpu.BindGroupLayoutEntry{
			uniformEntry(0, wgpu.ShaderStageCompute, 16),
			textureEntry(1, wgpu.ShaderStageCompute, wgpu.TextureSampleTypeUnfilterableFloat),
			textureEntry(2, wgpu.ShaderStageCompute, wgpu.TextureSampleTypeFloat),
			textureEntry(3, wgpu.ShaderStageCompute, wgpu.TextureSampleTypeFloat),
			textureEntry(4, wgpu.ShaderStageCompute, wgpu.TextureSampleTypeFloat),
			textureEntry(5, wgpu.ShaderStageCompute, wgpu.TextureSampleTypeFloat),
			storageTextureEntry(6, wgpu.ShaderStageCompute, wgpu.TextureFormatRGBA16Float, wgpu.StorageTextureAccessWriteOnly),
		},
	}
}

// CreatePipelines builds and registers the pass's compute pipeline.
//
// Returns:
//   - error: an error if shader loading or pipeline registration fails
func (p *CompositePass) CreatePipelines() error {
	cs, err := p.factory.Load("composite.wgsl", shader.ShaderTypeCompute, "cs_main")
	if err != nil {
		return err
	}
	p.pipeline = pipeline.NewPipeline(compositeKey, pipeline.PipelineTypeCompute,
		pipeline.WithComputeShader(cs),
		pipeline.WithBindGroupLayout(0, p.layout()),
	)
	return p.device.RegisterPipelines(p.pipeline)
}

// DropPipelines removes this pass's pipeline from the renderer cache.
func (p *CompositePass) DropPipelines() {
	p.device.DropPipelines(compositeKey)
}

// CreateBindingSet (re)creates the pass's bind groups. The lighting channel
// textures are chosen by the caller, which is how the orchestrator switches
// between the raw and denoised channels when the denoiser toggles.
//
// Parameters:
//   - rt: the active render targets
//   - diffuse, specular: the lighting channels to composite
//   - environment: the active environment map texture
//
// Returns:
//   - error: an error if bind group creation fails
func (p *CompositePass) CreateBindingSet(rt *resources.RenderTargets, diffuse, specular, environment renderer.Texture) error {
	p.releaseBindingSet()
	p.targets = rt
	p.parity = rt.FrameParity()

	gbuffer := [2][2]renderer.Texture{
		{rt.Depth(), rt.DiffuseAlbedo()},
		{rt.PrevDepth(), rt.PrevDiffuseAlbedo()},
	}
	for i, texs := range gbuffer {
		provider := bind_group_provider.NewBindGroupProvider(fmt.Sprintf("composite_%d", i))
		provider.SetTextureView(1, texs[0].View())
		provider.SetTextureView(2, texs[1].View())
		provider.SetTextureView(3, diffuse.View())
		provider.SetTextureView(4, specular.View())
		provider.SetTextureView(5, environment.View())
		provider.SetTextureView(6, rt.HdrColor.View())
		if err := p.device.InitBindGroup(provider, p.layout(), nil, nil); err != nil {
			return fmt.Errorf("composite bindings: %w", err)
		}
		p.bindings[i] = provider
	}
	return nil
}

// Render encodes the composite dispatch.
//
// Parameters:
//   - cs: the command stream to record into
//   - useDenoised: whether the bound lighting channels are denoiser output
//   - environmentScale: the environment radiance scale for miss shading
func (p *CompositePass) Render(cs renderer.CommandStream, useDenoised bool, environmentScale float32) {
	cs.BeginSection("Composite")
	defer cs.EndSection()

	idx := p.targets.FrameParity() ^ p.parity
	constants := compositeConstants{
		Viewport:         [2]float32{float32(p.targets.Width()), float32(p.targets.Height())},
		EnvironmentScale: environmentScale,
	}
	if useDenoised {
		constants.UseDenoised = 1
	}
	p.device.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: p.bindings[idx], Binding: 0, Offset: 0, Data: common.StructToBytes(&constants)},
	})

	x, y := dispatchDims(p.targets.Width(), p.targets.Height())
	cs.Dispatch(p.pipeline, []*wgpu.BindGroup{p.bindings[idx].BindGroup()}, x, y, 1)
}

func (p *CompositePass) releaseBindingSet() {
	for i := range p.bindings {
		releaseBindings(p.bindings[i])
		p.bindings[i] = nil
	}
}

// Release frees the pass's binding sets.
func (p *CompositePass) Release() {
	p.releaseBindingSet()
}
