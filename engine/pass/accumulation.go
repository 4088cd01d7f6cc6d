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

const accumulationKey = "accumulation"

// accumulationConstants mirrors the AccumulationConstants uniform block.
type accumulationConstants struct {
	Viewport    [2]float32
	BlendWeight float32
	_           float32
}

// AccumulationPass blends the current HDR frame into the running average
// while reference accumulation is active. The blend weight is 1/N for the
// N-th accumulated frame, so a weight of 1 restarts the average.
type AccumulationPass struct {
	device  Device
	factory shader.Factory

	pipeline pipeline.Pipeline
	bindings bind_group_provider.BindGroupProvider

	targets *resources.RenderTargets
}

// NewAccumulationPass creates the reference accumulation pass.
//
// Parameters:
//   - device: the renderer surface used for pipelines and binding sets
//   - factory: the shader factory source is loaded through
//
// Returns:
//   - *AccumulationPass: the pass, with no pipeline or binding set yet
func NewAccumulationPass(device Device, factory shader.Factory) *AccumulationPass {
	return &AccumulationPass{device: device, factory: factory}
}

func (p *AccumulationPass) layout() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "accumulation",
		Entries: []wgpu.BindGroupLayoutEntry{
			uniformEntry(0, wgpu.ShaderStageCompute, 16),
			textureEntry(1, wgpu.ShaderStageCompute, wgpu.TextureSampleTypeFloat),
			storageTextureEntry(2, wgpu.ShaderStageCompute, wgpu.TextureFormatRGBA32Float, wgpu.StorageTextureAccessReadWrite),
		},
	}
}

// CreatePipelines builds and registers the pass's compute pipeline.
//
// Returns:
//   - error: an error if shader loading or pipeline registration fails
func (p *AccumulationPass) CreatePipelines() error {
	cs, err := p.factory.Load("accumulation.wgsl", shader.ShaderTypeCompute, "cs_main")
	if err != nil {
		return err
	}
	p.pipeline = pipeline.NewPipeline(accumulationKey, pipeline.PipelineTypeCompute,
		pipeline.WithComputeShader(cs),
		pipeline.WithBindGroupLayout(0, p.layout()),
	)
	return p.device.RegisterPipelines(p.pipeline)
}

// DropPipelines removes this pass's pipeline from the renderer cache.
func (p *AccumulationPass) DropPipelines() {
	p.device.DropPipelines(accumulationKey)
}

// CreateBindingSet (re)creates the pass's bind group against the current
// render targets.
//
// Parameters:
//   - rt: the active render targets
//
// Returns:
//   - error: an error if bind group creation fails
func (p *AccumulationPass) CreateBindingSet(rt *resources.RenderTargets) error {
	releaseBindings(p.bindings)
	p.targets = rt

	p.bindings = bind_group_provider.NewBindGroupProvider("accumulation")
	p.bindings.SetTextureView(1, rt.HdrColor.View())
	p.bindings.SetTextureView(2, rt.AccumulatedColor.View())
	if err := p.device.InitBindGroup(p.bindings, p.layout(), nil, nil); err != nil {
		return fmt.Errorf("accumulation bindings: %w", err)
	}
	return nil
}

// Render encodes the accumulation blend dispatch.
//
// Parameters:
//   - cs: the command stream to record into
//   - blendWeight: the current frame's blend weight, 1/N for frame N
func (p *AccumulationPass) Render(cs renderer.CommandStream, blendWeight float32) {
	cs.BeginSection("Accumulation")
	defer cs.EndSection()

	constants := accumulationConstants{
		Viewport:    [2]float32{float32(p.targets.Width()), float32(p.targets.Height())},
		BlendWeight: blendWeight,
	}
	p.device.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: p.bindings, Binding: 0, Offset: 0, Data: common.StructToBytes(&constants)},
	})

	x, y := dispatchDims(p.targets.Width(), p.targets.Height())
	cs.Dispatch(p.pipeline, []*wgpu.BindGroup{p.bindings.BindGroup()}, x, y, 1)
}

// Release frees the pass's binding set.
func (p *AccumulationPass) Release() {
	releaseBindings(p.bindings)
	p.bindings = nil
}
