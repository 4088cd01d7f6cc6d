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

const tonemapKey = "tonemap"

// defaultExposure is the exposure the pass starts from whenever it is
// recreated, so a rebuilt post chain does not inherit a stale adaptation.
const defaultExposure = 0.05

// tonemapConstants mirrors the TonemapConstants uniform block.
type tonemapConstants struct {
	Viewport [2]float32
	Exposure float32
	Gamma    float32
}

// TonemapPass applies exposure and a filmic curve to the chosen HDR source,
// writing the LDR target the blit pass presents.
type TonemapPass struct {
	device  Device
	factory shader.Factory

	pipeline pipeline.Pipeline
	bindings [2]bind_group_provider.BindGroupProvider
	parity   int

	exposure float32

	targets *resources.RenderTargets
}

// NewTonemapPass creates the tone mapping pass with the default exposure.
//
// Parameters:
//   - device: the renderer surface used for pipelines and binding sets
//   - factory: the shader factory source is loaded through
//
// Returns:
//   - *TonemapPass: the pass, with no pipeline or binding sets yet
func NewTonemapPass(device Device, factory shader.Factory) *TonemapPass {
	return &TonemapPass{device: device, factory: factory, exposure: defaultExposure}
}

func (p *TonemapPass) layout() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "tonemap",
		Entries: []wgpu.BindGroupLayoutEntry{
			uniformEntry(0, wgpu.ShaderStageCompute, 16),
			textureEntry(1, wgpu.ShaderStageCompute, wgpu.TextureSampleTypeFloat),
			storageTextureEntry(2, wgpu.ShaderStageCompute, wgpu.TextureFormatRGBA8Unorm, wgpu.StorageTextureAccessWriteOnly),
		},
	}
}

// CreatePipelines builds and registers the pass's compute pipeline, resetting
// the exposure adaptation.
//
// Returns:
//   - error: an error if shader loading or pipeline registration fails
func (p *TonemapPass) CreatePipelines() error {
	cs, err := p.factory.Load("tonemap.wgsl", shader.ShaderTypeCompute, "cs_main")
	if err != nil {
		return err
	}
	p.pipeline = pipeline.NewPipeline(tonemapKey, pipeline.PipelineTypeCompute,
		pipeline.WithComputeShader(cs),
		pipeline.WithBindGroupLayout(0, p.layout()),
	)
	p.exposure = defaultExposure
	return p.device.RegisterPipelines(p.pipeline)
}

// DropPipelines removes this pass's pipeline from the renderer cache.
func (p *TonemapPass) DropPipelines() {
	p.device.DropPipelines(tonemapKey)
}

// CreateBindingSet (re)creates the pass's bind groups. The HDR source is
// chosen by the caller per frame parity; single-buffered sources pass the same
// texture twice.
//
// Parameters:
//   - rt: the active render targets
//   - source: the HDR source for the current frame parity
//   - sourcePrev: the HDR source for the other parity
//
// Returns:
//   - error: an error if bind group creation fails
func (p *TonemapPass) CreateBindingSet(rt *resources.RenderTargets, source, sourcePrev renderer.Texture) error {
	p.releaseBindingSet()
	p.targets = rt
	p.parity = rt.FrameParity()

	sources := [2]renderer.Texture{source, sourcePrev}
	for i, src := range sources {
		provider := bind_group_provider.NewBindGroupProvider(fmt.Sprintf("tonemap_%d", i))
		provider.SetTextureView(1, src.View())
		provider.SetTextureView(2, rt.LdrColor.View())
		if err := p.device.InitBindGroup(provider, p.layout(), nil, nil); err != nil {
			return fmt.Errorf("tonemap bindings: %w", err)
		}
		p.bindings[i] = provider
	}
	return nil
}

// SetExposure overrides the current exposure.
//
// Parameters:
//   - exposure: the linear exposure multiplier
func (p *TonemapPass) SetExposure(exposure float32) {
	p.exposure = exposure
}

// Exposure returns the current exposure.
//
// Returns:
//   - float32: the linear exposure multiplier
func (p *TonemapPass) Exposure() float32 {
	return p.exposure
}

// Render encodes the tone mapping dispatch.
//
// Parameters:
//   - cs: the command stream to record into
//   - gamma: the display gamma
func (p *TonemapPass) Render(cs renderer.CommandStream, gamma float32) {
	cs.BeginSection("Tonemap")
	defer cs.EndSection()

	idx := p.targets.FrameParity() ^ p.parity
	constants := tonemapConstants{
		Viewport: [2]float32{float32(p.targets.Width()), float32(p.targets.Height())},
		Exposure: p.exposure,
		Gamma:    gamma,
	}
	p.device.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: p.bindings[idx], Binding: 0, Offset: 0, Data: common.StructToBytes(&constants)},
	})

	x, y := dispatchDims(p.targets.Width(), p.targets.Height())
	cs.Dispatch(p.pipeline, []*wgpu.BindGroup{p.bindings[idx].BindGroup()}, x, y, 1)
}

func (p *TonemapPass) releaseBindingSet() {
	for i := range p.bindings {
		releaseBindings(p.bindings[i])
		p.bindings[i] = nil
	}
}

// Release frees the pass's binding sets.
func (p *TonemapPass) Release() {
	p.releaseBindingSet()
}
