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

const blitKey = "blit"

// BlitPass draws the chosen output texture to the swapchain surface as a
// single fullscreen triangle. It is the only pass that touches the surface.
type BlitPass struct {
	device  Device
	factory shader.Factory

	pipeline pipeline.Pipeline
	bindings [2]bind_group_provider.BindGroupProvider
	parity   int

	targets *resources.RenderTargets
}

// NewBlitPass creates the surface blit pass.
//
// Parameters:
//   - device: the renderer surface used for pipelines and binding sets
//   - factory: the shader factory source is loaded through
//
// Returns:
//   - *BlitPass: the pass, with no pipeline or binding set yet
func NewBlitPass(device Device, factory shader.Factory) *BlitPass {
	return &BlitPass{device: device, factory: factory}
}

func (p *BlitPass) layout() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "blit",
		Entries: []wgpu.BindGroupLayoutEntry{
			textureEntry(0, wgpu.ShaderStageFragment, wgpu.TextureSampleTypeFloat),
			samplerEntry(1, wgpu.ShaderStageFragment),
		},
	}
}

// CreatePipelines builds and registers the pass's render pipeline against the
// surface format.
//
// Returns:
//   - error: an error if shader loading or pipeline registration fails
func (p *BlitPass) CreatePipelines() error {
	vs, err := p.factory.Load("blit.wgsl", shader.ShaderTypeVertex, "vs_main")
	if err != nil {
		return err
	}
	fs, err := p.factory.Load("blit.wgsl", shader.ShaderTypeFragment, "fs_main")
	if err != nil {
		return err
	}
	p.pipeline = pipeline.NewPipeline(blitKey, pipeline.PipelineTypeRender,
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithBindGroupLayout(0, p.layout()),
		pipeline.WithColorTargetFormats(p.device.SurfaceFormat()),
	)
	return p.device.RegisterPipelines(p.pipeline)
}

// DropPipelines removes this pass's pipeline from the renderer cache.
func (p *BlitPass) DropPipelines() {
	p.device.DropPipelines(blitKey)
}

// CreateBindingSet (re)creates the pass's bind groups against the texture to
// present. Single-buffered sources pass the same texture twice.
//
// Parameters:
//   - rt: the active render targets, used only for frame parity
//   - source: the texture to present on the current frame parity
//   - sourcePrev: the texture to present on the other parity
//
// Returns:
//   - error: an error if sampler or bind group creation fails
func (p *BlitPass) CreateBindingSet(rt *resources.RenderTargets, source, sourcePrev renderer.Texture) error {
	p.releaseBindingSet()
	p.targets = rt
	p.parity = rt.FrameParity()

	sources := [2]renderer.Texture{source, sourcePrev}
	for i, src := range sources {
		provider := bind_group_provider.NewBindGroupProvider(fmt.Sprintf("blit_%d", i))
		provider.SetTextureView(0, src.View())
		if err := p.device.InitSampler(provider, 1, common.SamplerStagingData{
			AddressModeU: wgpu.AddressModeClampToEdge,
			AddressModeV: wgpu.AddressModeClampToEdge,
			AddressModeW: wgpu.AddressModeClampToEdge,
		}); err != nil {
			return fmt.Errorf("blit sampler: %w", err)
		}
		if err := p.device.InitBindGroup(provider, p.layout(), nil, nil); err != nil {
			return fmt.Errorf("blit bindings: %w", err)
		}
		p.bindings[i] = provider
	}
	return nil
}

// Render encodes the fullscreen blit to the surface.
//
// Parameters:
//   - cs: the command stream to record into
//   - surface: the acquired swapchain view
func (p *BlitPass) Render(cs renderer.CommandStream, surface *wgpu.TextureView) {
	cs.BeginSection("Blit")
	defer cs.EndSection()

	idx := p.targets.FrameParity() ^ p.parity
	cs.DrawFullscreen(p.pipeline, []*wgpu.BindGroup{p.bindings[idx].BindGroup()}, surface, true)
}

func (p *BlitPass) releaseBindingSet() {
	for i := range p.bindings {
		releaseBindings(p.bindings[i])
		p.bindings[i] = nil
	}
}

// Release frees the pass's binding sets.
func (p *BlitPass) Release() {
	p.releaseBindingSet()
}
