package pass

import (
	"fmt"

	"github.com/Carmen-Shannon/lumen-go/common"
	"github.com/Carmen-Shannon/lumen-go/engine/renderer"
	"github.com/Carmen-Shannon/lumen-go/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/lumen-go/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/lumen-go/engine/renderer/shader"
	"github.com/Carmen-Shannon/lumen-go/engine/resources"
	"github.com/Carmen-Shannon/lumen-go/engine/view"
	"github.com/cogentcore/webgpu/wgpu"
)

const (
	gbufferRasterKey = "gbuffer_raster"
	gbufferRayKey    = "gbuffer_rays"
)

// viewVisibility covers every stage the shared view uniform is read from, so
// one bind group serves both the raster and ray traced G-buffer pipelines.
const viewVisibility = wgpu.ShaderStageVertex | wgpu.ShaderStageFragment | wgpu.ShaderStageCompute

// viewConstantsSize is the packed size of view.Constants.
const viewConstantsSize = 352

// InstanceConstants mirrors the per-draw uniform block consumed by the raster
// G-buffer shader. The scene packs one per mesh instance.
type InstanceConstants struct {
	Model      [16]float32
	PrevModel  [16]float32
	BaseColor  [4]float32 // RGB albedo, A = roughness
	Specular   [4]float32 // RGB F0 reflectance, A unused
	MaterialID uint32
	Emissive   uint32
	_          [2]uint32
}

// InstanceConstantsSize is the packed size of InstanceConstants.
const InstanceConstantsSize = 176

// InstanceLayout returns the bind group layout descriptor for the per-draw
// instance constants (group 1 of the raster pipeline). The scene uses it to
// initialize one bind group per mesh instance.
//
// Returns:
//   - wgpu.BindGroupLayoutDescriptor: the instance constants layout
func InstanceLayout() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "gbuffer_instance",
		Entries: []wgpu.BindGroupLayoutEntry{
			uniformEntry(0, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, InstanceConstantsSize),
		},
	}
}

// MeshDraw is one instance draw the raster G-buffer pass encodes.
type MeshDraw struct {
	// Mesh holds the instance's vertex and index buffers.
	Mesh bind_group_provider.BindGroupProvider

	// Instance is the group 1 bind group carrying the instance constants.
	Instance *wgpu.BindGroup
}

// GBufferPass fills the G-buffer channels, either by rasterizing the scene
// meshes or by tracing primary rays through the scene BVH. Both paths write
// the same channels so downstream passes do not care which one ran.
type GBufferPass struct {
	device  Device
	factory shader.Factory

	rasterPipeline pipeline.Pipeline
	rayPipeline    pipeline.Pipeline

	viewBindings  bind_group_provider.BindGroupProvider
	sceneBindings bind_group_provider.BindGroupProvider

	// rayOutputs holds one binding set per frame parity, since the G-buffer
	// surfaces it writes are double buffered and flip every frame.
	rayOutputs [2]bind_group_provider.BindGroupProvider
	parity     int

	targets *resources.RenderTargets
}

// NewGBufferPass creates the G-buffer pass.
//
// Parameters:
//   - device: the renderer surface used for pipelines and binding sets
//   - factory: the shader factory source is loaded through
//
// Returns:
//   - *GBufferPass: the pass, with no pipelines or binding sets yet
func NewGBufferPass(device Device, factory shader.Factory) *GBufferPass {
	return &GBufferPass{device: device, factory: factory}
}

func (p *GBufferPass) viewLayout() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "gbuffer_view",
		Entries: []wgpu.BindGroupLayoutEntry{
			uniformEntry(0, viewVisibility, viewConstantsSize),
		},
	}
}

// CreatePipelines builds and registers both G-buffer pipelines. Called once at
// startup and again after a shader reload drops the pipeline cache.
//
// Returns:
//   - error: an error if shader loading or pipeline registration fails
func (p *GBufferPass) CreatePipelines() error {
	vs, err := p.factory.Load("gbuffer_raster.wgsl", shader.ShaderTypeVertex, "vs_main")
	if err != nil {
		return err
	}
	fs, err := p.factory.Load("gbuffer_raster.wgsl", shader.ShaderTypeFragment, "fs_main")
	if err != nil {
		return err
	}
	cs, err := p.factory.Load("gbuffer_rt.wgsl", shader.ShaderTypeCompute, "cs_main")
	if err != nil {
		return err
	}

	p.rasterPipeline = pipeline.NewPipeline(gbufferRasterKey, pipeline.PipelineTypeRender,
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithBindGroupLayout(0, p.viewLayout()),
		pipeline.WithBindGroupLayout(1, InstanceLayout()),
		pipeline.WithColorTargetFormats(
			wgpu.TextureFormatR32Float,
			wgpu.TextureFormatRGBA16Float,
			wgpu.TextureFormatRGBA16Float,
			wgpu.TextureFormatRGBA8Unorm,
			wgpu.TextureFormatRGBA8Unorm,
			wgpu.TextureFormatRGBA16Float,
		),
		pipeline.WithDepthFormat(wgpu.TextureFormatDepth32Float),
		pipeline.WithCullMode(wgpu.CullModeBack),
		pipeline.WithVertexLayouts(wgpu.VertexBufferLayout{
			ArrayStride: 32,
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes: []wgpu.VertexAttribute{
				{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
				{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
				{Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2},
			},
		}),
	)

	p.rayPipeline = pipeline.NewPipeline(gbufferRayKey, pipeline.PipelineTypeCompute,
		pipeline.WithComputeShader(cs),
		pipeline.WithBindGroupLayout(0, p.viewLayout()),
		pipeline.WithBindGroupLayout(1, wgpu.BindGroupLayoutDescriptor{
			Label: "gbuffer_ray_scene",
			Entries: []wgpu.BindGroupLayoutEntry{
				storageBufferEntry(0, wgpu.ShaderStageCompute, true),
				storageBufferEntry(1, wgpu.ShaderStageCompute, true),
			},
		}),
		pipeline.WithBindGroupLayout(2, wgpu.BindGroupLayoutDescriptor{
			Label: "gbuffer_ray_outputs",
			Entries: []wgpu.BindGroupLayoutEntry{
				storageTextureEntry(0, wgpu.ShaderStageCompute, wgpu.TextureFormatR32Float, wgpu.StorageTextureAccessWriteOnly),
				storageTextureEntry(1, wgpu.ShaderStageCompute, wgpu.TextureFormatRGBA16Float, wgpu.StorageTextureAccessWriteOnly),
				storageTextureEntry(2, wgpu.ShaderStageCompute, wgpu.TextureFormatRGBA16Float, wgpu.StorageTextureAccessWriteOnly),
				storageTextureEntry(3, wgpu.ShaderStageCompute, wgpu.TextureFormatRGBA8Unorm, wgpu.StorageTextureAccessWriteOnly),
				storageTextureEntry(4, wgpu.ShaderStageCompute, wgpu.TextureFormatRGBA8Unorm, wgpu.StorageTextureAccessWriteOnly),
				storageTextureEntry(5, wgpu.ShaderStageCompute, wgpu.TextureFormatRGBA16Float, wgpu.StorageTextureAccessWriteOnly),
			},
		}),
	)

	return p.device.RegisterPipelines(p.rasterPipeline, p.rayPipeline)
}

// DropPipelines removes this pass's pipelines from the renderer cache.
func (p *GBufferPass) DropPipelines() {
	p.device.DropPipelines(gbufferRasterKey, gbufferRayKey)
}

// CreateBindingSet (re)creates the pass's bind groups against the current
// render targets and scene geometry buffers. Must be called after the render
// targets are rebuilt or the scene acceleration structure is reallocated.
//
// Parameters:
//   - rt: the active render targets
//   - bvhNodes: the scene BVH node buffer
//   - triangles: the scene triangle position buffer
//
// Returns:
//   - error: an error if bind group creation fails
func (p *GBufferPass) CreateBindingSet(rt *resources.RenderTargets, bvhNodes, triangles *wgpu.Buffer) error {
	p.releaseBindingSet()
	p.targets = rt

	p.viewBindings = bind_group_provider.NewBindGroupProvider("gbuffer_view")
	if err := p.device.InitBindGroup(p.viewBindings, p.viewLayout(), nil, nil); err != nil {
		return fmt.Errorf("gbuffer view bindings: %w", err)
	}

	p.sceneBindings = bind_group_provider.NewBindGroupProvider("gbuffer_ray_scene")
	p.sceneBindings.SetBuffer(0, bvhNodes)
	p.sceneBindings.SetBuffer(1, triangles)
	if err := p.device.InitBindGroup(p.sceneBindings, wgpu.BindGroupLayoutDescriptor{
		Label: "gbuffer_ray_scene",
		Entries: []wgpu.BindGroupLayoutEntry{
			storageBufferEntry(0, wgpu.ShaderStageCompute, true),
			storageBufferEntry(1, wgpu.ShaderStageCompute, true),
		},
	}, nil, nil); err != nil {
		return fmt.Errorf("gbuffer scene bindings: %w", err)
	}

	p.parity = rt.FrameParity()
	outputs := [2][]renderer.Texture{
		{rt.Depth(), rt.Normals(), rt.GeoNormals(), rt.DiffuseAlbedo(), rt.SpecularRough(), rt.MotionVectors},
		{rt.PrevDepth(), rt.PrevNormals(), rt.PrevGeoNormals(), rt.PrevDiffuseAlbedo(), rt.PrevSpecularRough(), rt.MotionVectors},
	}
	for i, texs := range outputs {
		provider := bind_group_provider.NewBindGroupProvider(fmt.Sprintf("gbuffer_ray_outputs_%d", i))
		for binding, t := range texs {
			provider.SetTextureView(binding, t.View())
		}
		if err := p.device.InitBindGroup(provider, wgpu.BindGroupLayoutDescriptor{
			Label: "gbuffer_ray_outputs",
			Entries: []wgpu.BindGroupLayoutEntry{
				storageTextureEntry(0, wgpu.ShaderStageCompute, wgpu.TextureFormatR32Float, wgpu.StorageTextureAccessWriteOnly),
				storageTextureEntry(1, wgpu.ShaderStageCompute, wgpu.TextureFormatRGBA16Float, wgpu.StorageTextureAccessWriteOnly),
				storageTextureEntry(2, wgpu.ShaderStageCompute, wgpu.TextureFormatRGBA16Float, wgpu.StorageTextureAccessWriteOnly),
				storageTextureEntry(3, wgpu.ShaderStageCompute, wgpu.TextureFormatRGBA8Unorm, wgpu.StorageTextureAccessWriteOnly),
				storageTextureEntry(4, wgpu.ShaderStageCompute, wgpu.TextureFormatRGBA8Unorm, wgpu.StorageTextureAccessWriteOnly),
				storageTextureEntry(5, wgpu.ShaderStageCompute, wgpu.TextureFormatRGBA16Float, wgpu.StorageTextureAccessWriteOnly),
			},
		}, nil, nil); err != nil {
			return fmt.Errorf("gbuffer ray outputs: %w", err)
		}
		p.rayOutputs[i] = provider
	}

	return nil
}

// WriteViewConstants uploads the frame's view uniform block. The orchestrator
// calls this once per frame before either G-buffer path renders.
//
// Parameters:
//   - c: the packed view constants
func (p *GBufferPass) WriteViewConstants(c view.Constants) {
	p.device.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: p.viewBindings, Binding: 0, Offset: 0, Data: common.StructToBytes(&c)},
	})
}

// RenderRaster encodes the rasterized G-buffer fill, one indexed draw per mesh
// instance. The first draw clears every attachment.
//
// Parameters:
//   - cs: the command stream to record into
//   - draws: the mesh instances to draw
func (p *GBufferPass) RenderRaster(cs renderer.CommandStream, draws []MeshDraw) {
	cs.BeginSection("G-Buffer Raster")
	defer cs.EndSection()

	rt := p.targets
	colorTargets := []*wgpu.TextureView{
		rt.Depth().View(),
		rt.Normals().View(),
		rt.GeoNormals().View(),
		rt.DiffuseAlbedo().View(),
		rt.SpecularRough().View(),
		rt.MotionVectors.View(),
	}
	for i, draw := range draws {
		cs.DrawIndexed(p.rasterPipeline, draw.Mesh,
			[]*wgpu.BindGroup{p.viewBindings.BindGroup(), draw.Instance},
			colorTargets, rt.RasterDepth.View(), i == 0)
	}
}

// RenderRayTraced encodes the ray traced G-buffer fill.
//
// Parameters:
//   - cs: the command stream to record into
func (p *GBufferPass) RenderRayTraced(cs renderer.CommandStream) {
	cs.BeginSection("G-Buffer Ray Traced")
	defer cs.EndSection()

	x, y := dispatchDims(p.targets.Width(), p.targets.Height())
	idx := p.targets.FrameParity() ^ p.parity
	cs.Dispatch(p.rayPipeline, []*wgpu.BindGroup{
		p.viewBindings.BindGroup(),
		p.sceneBindings.BindGroup(),
		p.rayOutputs[idx].BindGroup(),
	}, x, y, 1)
}

func (p *GBufferPass) releaseBindingSet() {
	releaseBindings(p.viewBindings)
	releaseBindings(p.sceneBindings, 0, 1)
	for i := range p.rayOutputs {
		releaseBindings(p.rayOutputs[i])
		p.rayOutputs[i] = nil
	}
	p.viewBindings, p.sceneBindings = nil, nil
}

// Release frees the pass's binding sets.
func (p *GBufferPass) Release() {
	p.releaseBindingSet()
}
