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

const taaKey = "taa"

// taaConstants mirrors the TaaConstants uniform block.
type taaConstants struct {
	Viewport       [2]float32
	ClampingFactor float32
	NewFrameWeight float32
}

// TaaPass resolves temporal anti-aliasing: it reprojects the previous frame's
// feedback through the motion vectors, clamps it against the current frame's
// neighborhood, and writes the blended result into this frame's feedback
// target. The temporal policy supplies the clamping factor, widening it while
// the camera is static.
type TaaPass struct {
	device  Device
	factory shader.Factory

	pipeline pipeline.Pipeline
	bindings [2]bind_group_provider.BindGroupProvider
	parity   int

	targets *resources.RenderTargets
}

// NewTaaPass creates the temporal anti-aliasing pass.
//
// Parameters:
//   - device: the renderer surface used for pipelines and binding sets
//   - factory: the shader factory source is loaded through
//
// Returns:
//   - *TaaPass: the pass, with no pipeline or binding sets yet
func NewTaaPass(device Device, factory shader.Factory) *TaaPass {
	return &TaaPass{device: device, factory: factory}
}

func (p *TaaPass) layout() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "taa",
		Entries: []wgpu.BindGroupLayoutEntry{
			uniformEntry(0, wgpu.ShaderStageCompute, 16),
			textureEntry(1, wgpu.ShaderStageCompute, wgpu.TextureSampleTypeFloat),
			textureEntry(2, wgpu.ShaderStageCompute, wgpu.TextureSampleTypeFloat),
			textureEntry(3, wgpu.ShaderStageCompute, wgpu.TextureSampleTypeFloat),
			storageTextureEntry(4, wgpu.ShaderStageCompute, wgpu.TextureFormatRGBA16Float, wgpu.StorageTextureAccessWriteOnly),
		},
	}
}

// CreatePipelines builds and registers the pass's compute pipeline.
//
// Returns:
//   - error: an error if shader loading or pipeline registration fails
func (p *TaaPass) CreatePipelines() error {
	cs, err := p.factory.Load("taa.wgsl", shader.ShaderTypeCompute, "cs_main")
	if err != nil {
		return err
	}
	p.pipeline = pipeline.NewPipeline(taaKey, pipeline.PipelineTypeCompute,
		pipeline.WithComputeShader(cs),
		pipeline.WithBindGroupLayout(0, p.layout()),
	)
	return p.device.RegisterPipelines(p.pipeline)
}

// DropPipelines removes this pass's pipeline from the renderer cache.
func (p *TaaPass) DropPipelines() {
	p.device.DropPipelines(taaKey)
}

// CreateBindingSet (re)creates the pass's bind groups against the current
// render targets.
//
// Parameters:
//   - rt: the active render targets
//
// Returns:
//   - error: an error if bind group creation fails
func (p *TaaPass) CreateBindingSet(rt *resources.RenderTargets) error {
	p.releaseBindingSet()
	p.targets = rt
	p.parity = rt.FrameParity()

	feedback := [2][2]renderer.Texture{
		{rt.PrevTaaFeedback(), rt.TaaFeedback()},
		{rt.TaaFeedback(), rt.PrevTaaFeedback()},
	}
	for i, texs := range feedback {
		provider := bind_group_provider.NewBindGroupProvider(fmt.Sprintf("taa_%d", i))
		provider.SetTextureView(1, rt.HdrColor.View())
		provider.SetTextureView(2, rt.MotionVectors.View())
		provider.SetTextureView(3, texs[0].View())
		provider.SetTextureView(4, texs[1].View())
		if err := p.device.InitBindGroup(provider, p.layout(), nil, nil); err != nil {
			return fmt.Errorf("taa bindings: %w", err)
		}
		p.bindings[i] = provider
	}
	return nil
}

// Render encodes the TAA resolve dispatch.
//
// Parameters:
//   - cs: the command stream to record into
//   - clampingFactor: the history clamp width in neighborhood sigmas
//   - newFrameWeight: the blend weight of the current frame
func (p *TaaPass) Render(cs renderer.CommandStream, clampingFactor, newFrameWeight float32) {
	cs.BeginSection("TAA")
	defer cs.EndSection()

	idx := p.targets.FrameParity() ^ p.parity
	constants := taaConstants{
		Viewport:       [2]float32{float32(p.targets.Width()), float32(p.targets.Height())},
		ClampingFactor: clampingFactor,
		NewFrameWeight: newFrameWeight,
	}
	p.device.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: p.bindings[idx], Binding: 0, Offset: 0, Data: common.StructToBytes(&constants)},
	})

	x, y := dispatchDims(p.targets.Width(), p.targets.Height())
	cs.Dispatch(p.pipeline, []*wgpu.BindGroup{p.bindings[idx].BindGroup()}, x, y, 1)
}

func (p *TaaPass) releaseBindingSet() {
	for i := range p.bindings {
		releaseBindings(p.bindings[i])
		p.bindings[i] = nil
	}
}

// Release frees the pass's binding sets.
func (p *TaaPass) Release() {
	p.releaseBindingSet()
}
