package denoiser

import (
	"fmt"

	"github.com/Carmen-Shannon/lumen-go/common"
	"github.com/Carmen-Shannon/lumen-go/engine/pass"
	"github.com/Carmen-Shannon/lumen-go/engine/renderer"
	"github.com/Carmen-Shannon/lumen-go/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/lumen-go/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/lumen-go/engine/renderer/shader"
	"github.com/Carmen-Shannon/lumen-go/engine/resources"
	"github.com/Carmen-Shannon/lumen-go/engine/restir"
	"github.com/cogentcore/webgpu/wgpu"
)

const denoiseKey = "denoise"

// Method selects the denoising filter preset.
type Method int

const (
	// MethodRelax favors fast temporal convergence with a wide spatial
	// kernel, suited to the resampled direct lighting channels.
	MethodRelax Method = iota

	// MethodReblur favors detail retention with a tighter kernel and a
	// longer history.
	MethodReblur
)

// String returns the method name for logs and UI.
//
// Returns:
//   - string: the method name
func (m Method) String() string {
	switch m {
	case MethodRelax:
		return "ReLAX"
	case MethodReblur:
		return "ReBLUR"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// Settings are the per-method filter parameters. MethodSettings supplies the
// preset for a method; callers may override before the first frame.
type Settings struct {
	// HistoryWeight is the fraction of the temporal history kept per frame.
	HistoryWeight float32

	// DepthSigma scales the depth edge-stopping term.
	DepthSigma float32

	// NormalSigma is the exponent of the normal edge-stopping term.
	NormalSigma float32
}

// MethodSettings returns the default filter parameters for a method.
//
// Parameters:
//   - m: the denoising method
//
// Returns:
//   - Settings: the method's preset parameters
func MethodSettings(m Method) Settings {
	switch m {
	case MethodReblur:
		return Settings{HistoryWeight: 0.95, DepthSigma: 48, NormalSigma: 32}
	default:
		return Settings{HistoryWeight: 0.9, DepthSigma: 32, NormalSigma: 16}
	}
}

// denoiseConstants mirrors the DenoiseConstants uniform block.
type denoiseConstants struct {
	Viewport      [2]float32
	HistoryWeight float32
	Checkerboard  uint32
	DepthSigma    float32
	NormalSigma   float32
	_             [2]float32
}

const denoiseConstantsSize = 32

// Denoiser filters the noisy diffuse and specular lighting channels into the
// denoised targets the composite pass can read. It is an optional component:
// the engine constructs one per method choice at startup, forces the toggle
// off if construction fails, and discards and reconstructs it whenever the
// method changes.
type Denoiser struct {
	device  pass.Device
	factory shader.Factory
	method  Method

	settings Settings

	pipeline pipeline.Pipeline
	bindings [2]bind_group_provider.BindGroupProvider
	parity   int

	checkerboard restir.CheckerboardMode

	targets *resources.RenderTargets
}

// New constructs a denoiser for the given method and registers its pipeline.
// A construction error means the denoiser is unavailable on this device and
// the caller should disable the feature rather than fail.
//
// Parameters:
//   - device: the renderer surface used for pipelines and binding sets
//   - factory: the shader factory source is loaded through
//   - method: the filter preset to build
//
// Returns:
//   - *Denoiser: the constructed denoiser, with no binding sets yet
//   - error: an error if the filter pipeline cannot be built
func New(device pass.Device, factory shader.Factory, method Method) (*Denoiser, error) {
	d := &Denoiser{
		device:   device,
		factory:  factory,
		method:   method,
		settings: MethodSettings(method),
	}
	if err := d.CreatePipelines(); err != nil {
		return nil, fmt.Errorf("denoiser %s: %w", method, err)
	}
	return d, nil
}

// Method returns the method this denoiser was built for. The lifecycle
// manager compares it against the requested method to decide reconstruction.
//
// Returns:
//   - Method: the active denoising method
func (d *Denoiser) Method() Method {
	return d.method
}

// SetSettings overrides the filter parameters.
//
// Parameters:
//   - s: the parameters to use from the next frame on
func (d *Denoiser) SetSettings(s Settings) {
	d.settings = s
}

// SetCheckerboard mirrors the resampling context's checkerboard setting. The
// filter either matches the context's field split or runs disabled.
//
// Parameters:
//   - mode: the resampling context's checkerboard mode
func (d *Denoiser) SetCheckerboard(mode restir.CheckerboardMode) {
	d.checkerboard = mode
}

func (d *Denoiser) layout() wgpu.BindGroupLayoutDescriptor {
	entries := []wgpu.BindGroupLayoutEntry{
		{Binding: 0, Visibility: wgpu.ShaderStageCompute},
		{Binding: 1, Visibility: wgpu.ShaderStageCompute},
		{Binding: 2, Visibility: wgpu.ShaderStageCompute},
		{Binding: 3, Visibility: wgpu.ShaderStageCompute},
		{Binding: 4, Visibility: wgpu.ShaderStageCompute},
		{Binding: 5, Visibility: wgpu.ShaderStageCompute},
		{Binding: 6, Visibility: wgpu.ShaderStageCompute},
	}
	entries[0].Buffer.Type = wgpu.BufferBindingTypeUniform
	entries[0].Buffer.MinBindingSize = denoiseConstantsSize
	entries[1].Texture.SampleType = wgpu.TextureSampleTypeUnfilterableFloat
	entries[1].Texture.ViewDimension = wgpu.TextureViewDimension2D
	entries[2].Texture.SampleType = wgpu.TextureSampleTypeFloat
	entries[2].Texture.ViewDimension = wgpu.TextureViewDimension2D
	entries[3].Texture.SampleType = wgpu.TextureSampleTypeFloat
	entries[3].Texture.ViewDimension = wgpu.TextureViewDimension2D
	entries[4].Texture.SampleType = wgpu.TextureSampleTypeFloat
	entries[4].Texture.ViewDimension = wgpu.TextureViewDimension2D
	for i := 5; i <= 6; i++ {
		entries[i].StorageTexture.Access = wgpu.StorageTextureAccessWriteOnly
		entries[i].StorageTexture.Format = wgpu.TextureFormatRGBA16Float
		entries[i].StorageTexture.ViewDimension = wgpu.TextureViewDimension2D
	}
	return wgpu.BindGroupLayoutDescriptor{Label: "denoise", Entries: entries}
}

// CreatePipelines builds and registers the filter pipeline.
//
// Returns:
//   - error: an error if shader loading or pipeline registration fails
func (d *Denoiser) CreatePipelines() error {
	cs, err := d.factory.Load("denoise.wgsl", shader.ShaderTypeCompute, "cs_main")
	if err != nil {
		return err
	}
	d.pipeline = pipeline.NewPipeline(denoiseKey, pipeline.PipelineTypeCompute,
		pipeline.WithComputeShader(cs),
		pipeline.WithBindGroupLayout(0, d.layout()),
	)
	return d.device.RegisterPipelines(d.pipeline)
}

// DropPipelines removes the filter pipeline from the renderer cache.
func (d *Denoiser) DropPipelines() {
	d.device.DropPipelines(denoiseKey)
}

// CreateBindingSet (re)creates the filter's bind groups against the current
// render targets.
//
// Parameters:
//   - rt: the active render targets
//
// Returns:
//   - error: an error if bind group creation fails
func (d *Denoiser) CreateBindingSet(rt *resources.RenderTargets) error {
	d.releaseBindingSet()
	d.targets = rt
	d.parity = rt.FrameParity()

	guides := [2][2]renderer.Texture{
		{rt.Depth(), rt.Normals()},
		{rt.PrevDepth(), rt.PrevNormals()},
	}
	for i, texs := range guides {
		provider := bind_group_provider.NewBindGroupProvider(fmt.Sprintf("denoise_%d", i))
		provider.SetTextureView(1, texs[0].View())
		provider.SetTextureView(2, texs[1].View())
		provider.SetTextureView(3, rt.DiffuseLighting.View())
		provider.SetTextureView(4, rt.SpecularLighting.View())
		provider.SetTextureView(5, rt.DenoisedDiffuse.View())
		provider.SetTextureView(6, rt.DenoisedSpecular.View())
		if err := d.device.InitBindGroup(provider, d.layout(), nil, nil); err != nil {
			return fmt.Errorf("denoise bindings: %w", err)
		}
		d.bindings[i] = provider
	}
	return nil
}

// Render encodes the filter dispatch over the lighting channels.
//
// Parameters:
//   - cs: the command stream to record into
func (d *Denoiser) Render(cs renderer.CommandStream) {
	cs.BeginSection("Denoising")
	defer cs.EndSection()

	idx := d.targets.FrameParity() ^ d.parity
	var checkerboard uint32
	if d.checkerboard.Enabled() {
		checkerboard = uint32(d.checkerboard)
	}
	constants := denoiseConstants{
		Viewport:      [2]float32{float32(d.targets.Width()), float32(d.targets.Height())},
		HistoryWeight: d.settings.HistoryWeight,
		Checkerboard:  checkerboard,
		DepthSigma:    d.settings.DepthSigma,
		NormalSigma:   d.settings.NormalSigma,
	}
	d.device.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: d.bindings[idx], Binding: 0, Offset: 0, Data: common.StructToBytes(&constants)},
	})

	x := (d.targets.Width() + 7) / 8
	y := (d.targets.Height() + 7) / 8
	cs.Dispatch(d.pipeline, []*wgpu.BindGroup{d.bindings[idx].BindGroup()}, x, y, 1)
}

func (d *Denoiser) releaseBindingSet() {
	for i := range d.bindings {
		if d.bindings[i] == nil {
			continue
		}
		d.bindings[i].SetBuffers(map[int]*wgpu.Buffer{0: d.bindings[i].Buffer(0)})
		d.bindings[i].SetTextureViews(map[int]*wgpu.TextureView{})
		d.bindings[i].Release()
		d.bindings[i] = nil
	}
}

// Release frees the filter's binding sets. The pipeline stays registered
// until DropPipelines.
func (d *Denoiser) Release() {
	d.releaseBindingSet()
}
