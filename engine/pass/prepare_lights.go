package pass

import (
	"fmt"

	"github.com/Carmen-Shannon/lumen-go/engine/renderer"
	"github.com/Carmen-Shannon/lumen-go/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/lumen-go/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/lumen-go/engine/renderer/shader"
	"github.com/Carmen-Shannon/lumen-go/engine/resources"
	"github.com/cogentcore/webgpu/wgpu"
)

const prepareLightsKey = "prepare_lights"

// prepareLightsWorkgroup is the shader's 1D workgroup width.
const prepareLightsWorkgroup = 64

// PrepareLightsPass appends one light buffer slot per emissive triangle after
// the CPU-packed primitive lights and writes each slot's flux into the local
// light PDF base level. Runs whenever the light buffer contents change.
type PrepareLightsPass struct {
	device  Device
	factory shader.Factory

	pipeline pipeline.Pipeline
	bindings bind_group_provider.BindGroupProvider
}

// NewPrepareLightsPass creates the light preparation pass.
//
// Parameters:
//   - device: the renderer surface used for pipelines and binding sets
//   - factory: the shader factory source is loaded through
//
// Returns:
//   - *PrepareLightsPass: the pass, with no pipeline or binding set yet
func NewPrepareLightsPass(device Device, factory shader.Factory) *PrepareLightsPass {
	return &PrepareLightsPass{device: device, factory: factory}
}

func (p *PrepareLightsPass) layout() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "prepare_lights",
		Entries: []wgpu.BindGroupLayoutEntry{
			storageBufferEntry(0, wgpu.ShaderStageCompute, false),
			storageBufferEntry(1, wgpu.ShaderStageCompute, true),
			storageTextureEntry(2, wgpu.ShaderStageCompute, wgpu.TextureFormatR32Float, wgpu.StorageTextureAccessWriteOnly),
		},
	}
}

// CreatePipelines builds and registers the pass's compute pipeline.
//
// Returns:
//   - error: an error if shader loading or pipeline registration fails
func (p *PrepareLightsPass) CreatePipelines() error {
	cs, err := p.factory.Load("prepare_lights.wgsl", shader.ShaderTypeCompute, "cs_main")
	if err != nil {
		return err
	}
	p.pipeline = pipeline.NewPipeline(prepareLightsKey, pipeline.PipelineTypeCompute,
		pipeline.WithComputeShader(cs),
		pipeline.WithBindGroupLayout(0, p.layout()),
	)
	return p.device.RegisterPipelines(p.pipeline)
}

// DropPipelines removes this pass's pipeline from the renderer cache.
func (p *PrepareLightsPass) DropPipelines() {
	p.device.DropPipelines(prepareLightsKey)
}

// CreateBindingSet (re)creates the pass's bind group against the current
// sampling resources and scene emissive triangle buffer.
//
// Parameters:
//   - sr: the active sampling resources
//   - emissiveTriangles: the scene's packed emissive triangle buffer
//
// Returns:
//   - error: an error if bind group creation fails
func (p *PrepareLightsPass) CreateBindingSet(sr *resources.SamplingResources, emissiveTriangles *wgpu.Buffer) error {
	releaseBindings(p.bindings, 0, 1)

	p.bindings = bind_group_provider.NewBindGroupProvider("prepare_lights")
	p.bindings.SetBuffer(0, sr.LightBuffer)
	p.bindings.SetBuffer(1, emissiveTriangles)
	p.bindings.SetTextureView(2, sr.LocalLightPdf.MipView(0))
	if err := p.device.InitBindGroup(p.bindings, p.layout(), nil, nil); err != nil {
		return fmt.Errorf("prepare lights bindings: %w", err)
	}
	return nil
}

// Render encodes the light preparation dispatch, one invocation per emissive
// triangle. A scene without emissive geometry skips the dispatch entirely.
//
// Parameters:
//   - cs: the command stream to record into
//   - emissiveTriangleCount: the number of emissive triangles to append
func (p *PrepareLightsPass) Render(cs renderer.CommandStream, emissiveTriangleCount uint32) {
	if emissiveTriangleCount == 0 {
		return
	}
	cs.BeginSection("Prepare Lights")
	defer cs.EndSection()

	groups := (emissiveTriangleCount + prepareLightsWorkgroup - 1) / prepareLightsWorkgroup
	cs.Dispatch(p.pipeline, []*wgpu.BindGroup{p.bindings.BindGroup()}, groups, 1, 1)
}

// Release frees the pass's binding set.
func (p *PrepareLightsPass) Release() {
	releaseBindings(p.bindings, 0, 1)
	p.bindings = nil
}
