package pass

import (
	"fmt"

	"github.com/Carmen-Shannon/lumen-go/common"
	"github.com/Carmen-Shannon/lumen-go/engine/renderer"
	"github.com/Carmen-Shannon/lumen-go/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/lumen-go/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/lumen-go/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

const skyKey = "sky"

// SkyParams describes the procedural sun-and-horizon sky.
type SkyParams struct {
	// SunDirection is the unit vector toward the sun.
	SunDirection [3]float32

	// SunIntensity scales the sun disc radiance.
	SunIntensity float32

	// HorizonColor and ZenithColor bound the sky gradient.
	HorizonColor [3]float32
	ZenithColor  [3]float32

	// ZenithFactor shapes the gradient falloff toward the horizon.
	ZenithFactor float32
}

// DefaultSkyParams returns a plain daytime sky.
//
// Returns:
//   - SkyParams: the default sun and gradient parameters
func DefaultSkyParams() SkyParams {
	return SkyParams{
		SunDirection: [3]float32{0.577, 0.577, 0.577},
		SunIntensity: 10,
		HorizonColor: [3]float32{0.8, 0.85, 0.95},
		ZenithColor:  [3]float32{0.25, 0.45, 0.85},
		ZenithFactor: 3,
	}
}

// skyConstants mirrors the SkyConstants uniform block.
type skyConstants struct {
	SunDirection [3]float32
	SunIntensity float32
	HorizonColor [3]float32
	ZenithFactor float32
	ZenithColor  [3]float32
	_            float32
}

// SkyPass renders the procedural sky into the environment map texture. It only
// runs when the procedural environment entry is selected and dirty.
type SkyPass struct {
	device  Device
	factory shader.Factory

	pipeline pipeline.Pipeline
	bindings bind_group_provider.BindGroupProvider

	envWidth  uint32
	envHeight uint32
}

// NewSkyPass creates the procedural sky pass.
//
// Parameters:
//   - device: the renderer surface used for pipelines and binding sets
//   - factory: the shader factory source is loaded through
//
// Returns:
//   - *SkyPass: the pass, with no pipeline or binding set yet
func NewSkyPass(device Device, factory shader.Factory) *SkyPass {
	return &SkyPass{device: device, factory: factory}
}

func (p *SkyPass) layout() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "sky",
		Entries: []wgpu.BindGroupLayoutEntry{
			uniformEntry(0, wgpu.ShaderStageCompute, 48),
			storageTextureEntry(1, wgpu.ShaderStageCompute, wgpu.TextureFormatRGBA16Float, wgpu.StorageTextureAccessWriteOnly),
		},
	}
}

// CreatePipelines builds and registers the pass's compute pipeline.
//
// Returns:
//   - error: an error if shader loading or pipeline registration fails
func (p *SkyPass) CreatePipelines() error {
	cs, err := p.factory.Load("envmap_procedural.wgsl", shader.ShaderTypeCompute, "cs_main")
	if err != nil {
		return err
	}
	p.pipeline = pipeline.NewPipeline(skyKey, pipeline.PipelineTypeCompute,
		pipeline.WithComputeShader(cs),
		pipeline.WithBindGroupLayout(0, p.layout()),
	)
	return p.device.RegisterPipelines(p.pipeline)
}

// DropPipelines removes this pass's pipeline from the renderer cache.
func (p *SkyPass) DropPipelines() {
	p.device.DropPipelines(skyKey)
}

// CreateBindingSet (re)creates the pass's bind group against the procedural
// environment texture.
//
// Parameters:
//   - environment: the procedural environment map texture
//
// Returns:
//   - error: an error if bind group creation fails
func (p *SkyPass) CreateBindingSet(environment renderer.Texture) error {
	releaseBindings(p.bindings)
	p.envWidth = environment.Width()
	p.envHeight = environment.Height()

	p.bindings = bind_group_provider.NewBindGroupProvider("sky")
	p.bindings.SetTextureView(1, environment.View())
	if err := p.device.InitBindGroup(p.bindings, p.layout(), nil, nil); err != nil {
		return fmt.Errorf("sky bindings: %w", err)
	}
	return nil
}

// Render encodes the sky generation dispatch.
//
// Parameters:
//   - cs: the command stream to record into
//   - params: the sun and gradient parameters
func (p *SkyPass) Render(cs renderer.CommandStream, params SkyParams) {
	cs.BeginSection("Sky")
	defer cs.EndSection()

	constants := skyConstants{
		SunDirection: params.SunDirection,
		SunIntensity: params.SunIntensity,
		HorizonColor: params.HorizonColor,
		ZenithFactor: params.ZenithFactor,
		ZenithColor:  params.ZenithColor,
	}
	p.device.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: p.bindings, Binding: 0, Offset: 0, Data: common.StructToBytes(&constants)},
	})

	x, y := dispatchDims(p.envWidth, p.envHeight)
	cs.Dispatch(p.pipeline, []*wgpu.BindGroup{p.bindings.BindGroup()}, x, y, 1)
}

// Release frees the pass's binding set.
func (p *SkyPass) Release() {
	releaseBindings(p.bindings)
	p.bindings = nil
}
