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

const glassKey = "glass"

// glassConstants mirrors the GlassConstants uniform block.
type glassConstants struct {
	Viewport     [2]float32
	Ior          float32
	TintStrength float32
}

// GlassPass traces refraction for glass surfaces and blends the result over
// the composited HDR color. Runs after composite and before accumulation.
type GlassPass struct {
	device  Device
	factory shader.Factory

	pipeline pipeline.Pipeline
	bindings [2]bind_group_provider.BindGroupProvider
	parity   int

	targets *resources.RenderTargets
}

// NewGlassPass creates the transparent geometry pass.
//
// Parameters:
//   - device: the renderer surface used for pipelines and binding sets
//   - factory: the shader factory source is loaded through
//
// Returns:
//   - *GlassPass: the pass, with no pipeline or binding sets yet
func NewGlassPass(device Device, factory shader.Factory) *GlassPass {
	return &GlassPass{device: device, factory: factory}
}

func (p *GlassPass) layout() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "glass",
		Entries: []wgpu.BindGroupLayoutEntry{
			uniformEntry(0, wgpu.ShaderStageCompute, 16),
			textureEntry(1, wgpu.ShaderStageCompute, wgpu.TextureSampleTypeUnfilterableFloat),
			textureEntry(2, wgpu.ShaderStageCompute, wgpu.TextureSampleTypeFloat),
			textureEntry(3, wgpu.ShaderStageCompute, wgpu.TextureSampleTypeFloat),
			storageTextureEntry(4, wgpu.ShaderStageCompute, wgpu.TextureFormatRGBA16Float, wgpu.StorageTextureAccessReadWrite),
		},
	}
}

// CreatePipelines builds and registers the pass's compute pipeline.
//
// Returns:
//   - error: an error if shader loading or pipeline registration fails
func (p *GlassPass) CreatePipelines() error {
	cs, err := p.factory.Load("glass.wgsl", shader.ShaderTypeCompute, "cs_main")
	if err != nil {
		return err
	}
	p.pipeline = pipeline.NewPipeline(glassKey, pipeline.PipelineTypeCompute,
		pipeline.WithComputeShader(cs),
		pipeline.WithBindGroupLayout(0, p.layout()),
	)
	return p.device.RegisterPipelines(p.pipeline)
}

// DropPipelines removes this pass's pipeline from the renderer cache.
func (p *GlassPass) DropPipelines() {
	p.device.DropPipelines(glassKey)
}

// CreateBindingSet (re)creates the pass's bind groups against the current
// render targets.
//
// Parameters:
//   - rt: the active render targets
//
// Returns:
//   - error: an error if bind group creation fails
func (p *GlassPass) CreateBindingSet(rt *resources.RenderTargets) error {
	p.releaseBindingSet()
	p.targets = rt
	p.parity = rt.FrameParity()

	gbuffer := [2][3]renderer.Texture{
		{rt.Depth(), rt.Normals(), rt.SpecularRough()},
		{rt.PrevDepth(), rt.PrevNormals(), rt.PrevSpecularRough()},
	}
	for i, texs := range gbuffer {
		provider := bind_group_provider.NewBindGroupProvider(fmt.Sprintf("glass_%d", i))
		provider.SetTextureView(1, texs[0].View())
		provider.SetTextureView(2, texs[1].View())
		provider.SetTextureView(3, texs[2].View())
		provider.SetTextureView(4, rt.HdrColor.View())
		if err := p.device.InitBindGroup(provider, p.layout(), nil, nil); err != nil {
			return fmt.Errorf("glass bindings: %w", err)
		}
		p.bindings[i] = provider
	}
	return nil
}

// Render encodes the glass refraction dispatch.
//
// Parameters:
//   - cs: the command stream to record into
//   - ior: the refraction strength
//   - tintStrength: how strongly the fresnel-weighted base color tints the result
func (p *GlassPass) Render(cs renderer.CommandStream, ior, tintStrength float32) {
	cs.BeginSection("Glass")
	defer cs.EndSection()

	idx := p.targets.FrameParity() ^ p.parity
	constants := glassConstants{
		Viewport:     [2]float32{float32(p.targets.Width()), float32(p.targets.Height())},
		Ior:          ior,
		TintStrength: tintStrength,
	}
	p.device.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: p.bindings[idx], Binding: 0, Offset: 0, Data: common.StructToBytes(&constants)},
	})

	x, y := dispatchDims(p.targets.Width(), p.targets.Height())
	cs.Dispatch(p.pipeline, []*wgpu.BindGroup{p.bindings[idx].BindGroup()}, x, y, 1)
}

func (p *GlassPass) releaseBindingSet() {
	for i := range p.bindings {
		releaseBindings(p.bindings[i])
		p.bindings[i] = nil
	}
}

// Release frees the pass's binding sets.
func (p *GlassPass) Release() {
	p.releaseBindingSet()
}
