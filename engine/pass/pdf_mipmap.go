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

const (
	envPdfBaseKey = "env_pdf_base"
	pdfReduceKey  = "pdf_reduce"
)

// PdfMipmapPass builds the importance sampling pyramids: the environment PDF
// (luminance of the environment map, reduced level by level) and the local
// light PDF (flux written by the light preparation pass, reduced the same
// way). Each reduction level sums 2x2 texels of the level above.
type PdfMipmapPass struct {
	device  Device
	factory shader.Factory

	basePipeline   pipeline.Pipeline
	reducePipeline pipeline.Pipeline

	envBase     bind_group_provider.BindGroupProvider
	envLevels   []bind_group_provider.BindGroupProvider
	localLevels []bind_group_provider.BindGroupProvider

	envPdf   renderer.Texture
	localPdf renderer.Texture
}

// NewPdfMipmapPass creates the PDF pyramid pass.
//
// Parameters:
//   - device: the renderer surface used for pipelines and binding sets
//   - factory: the shader factory source is loaded through
//
// Returns:
//   - *PdfMipmapPass: the pass, with no pipelines or binding sets yet
func NewPdfMipmapPass(device Device, factory shader.Factory) *PdfMipmapPass {
	return &PdfMipmapPass{device: device, factory: factory}
}

func (p *PdfMipmapPass) baseLayout() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "env_pdf_base",
		Entries: []wgpu.BindGroupLayoutEntry{
			textureEntry(0, wgpu.ShaderStageCompute, wgpu.TextureSampleTypeFloat),
			storageTextureEntry(1, wgpu.ShaderStageCompute, wgpu.TextureFormatR32Float, wgpu.StorageTextureAccessWriteOnly),
		},
	}
}

func (p *PdfMipmapPass) reduceLayout() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "pdf_reduce",
		Entries: []wgpu.BindGroupLayoutEntry{
			textureEntry(0, wgpu.ShaderStageCompute, wgpu.TextureSampleTypeUnfilterableFloat),
			storageTextureEntry(1, wgpu.ShaderStageCompute, wgpu.TextureFormatR32Float, wgpu.StorageTextureAccessWriteOnly),
		},
	}
}

// CreatePipelines builds and registers both pyramid pipelines.
//
// Returns:
//   - error: an error if shader loading or pipeline registration fails
func (p *PdfMipmapPass) CreatePipelines() error {
	base, err := p.factory.Load("env_pdf.wgsl", shader.ShaderTypeCompute, "cs_main")
	if err != nil {
		return err
	}
	reduce, err := p.factory.Load("pdf_mipmap.wgsl", shader.ShaderTypeCompute, "cs_main")
	if err != nil {
		return err
	}
	p.basePipeline = pipeline.NewPipeline(envPdfBaseKey, pipeline.PipelineTypeCompute,
		pipeline.WithComputeShader(base),
		pipeline.WithBindGroupLayout(0, p.baseLayout()),
	)
	p.reducePipeline = pipeline.NewPipeline(pdfReduceKey, pipeline.PipelineTypeCompute,
		pipeline.WithComputeShader(reduce),
		pipeline.WithBindGroupLayout(0, p.reduceLayout()),
	)
	return p.device.RegisterPipelines(p.basePipeline, p.reducePipeline)
}

// DropPipelines removes this pass's pipelines from the renderer cache.
func (p *PdfMipmapPass) DropPipelines() {
	p.device.DropPipelines(envPdfBaseKey, pdfReduceKey)
}

// CreateBindingSet (re)creates the per-level bind groups against the current
// sampling resources and environment map.
//
// Parameters:
//   - sr: the active sampling resources
//   - environment: the active environment map texture
//
// Returns:
//   - error: an error if bind group creation fails
func (p *PdfMipmapPass) CreateBindingSet(sr *resources.SamplingResources, environment renderer.Texture) error {
	p.releaseBindingSet()
	p.envPdf = sr.EnvironmentPdf
	p.localPdf = sr.LocalLightPdf

	p.envBase = bind_group_provider.NewBindGroupProvider("env_pdf_base")
	p.envBase.SetTextureView(0, environment.View())
	p.envBase.SetTextureView(1, sr.EnvironmentPdf.MipView(0))
	if err := p.device.InitBindGroup(p.envBase, p.baseLayout(), nil, nil); err != nil {
		return fmt.Errorf("environment pdf base bindings: %w", err)
	}

	var err error
	p.envLevels, err = p.buildChain("env_pdf_reduce", sr.EnvironmentPdf)
	if err != nil {
		return err
	}
	p.localLevels, err = p.buildChain("local_pdf_reduce", sr.LocalLightPdf)
	if err != nil {
		return err
	}
	return nil
}

// buildChain creates one reduction bind group per mip transition of a pyramid.
func (p *PdfMipmapPass) buildChain(label string, pyramid renderer.Texture) ([]bind_group_provider.BindGroupProvider, error) {
	levels := make([]bind_group_provider.BindGroupProvider, 0, pyramid.MipLevels()-1)
	for level := uint32(0); level+1 < pyramid.MipLevels(); level++ {
		provider := bind_group_provider.NewBindGroupProvider(fmt.Sprintf("%s_%d", label, level))
		provider.SetTextureView(0, pyramid.MipView(level))
		provider.SetTextureView(1, pyramid.MipView(level+1))
		if err := p.device.InitBindGroup(provider, p.reduceLayout(), nil, nil); err != nil {
			return nil, fmt.Errorf("%s level %d bindings: %w", label, level, err)
		}
		levels = append(levels, provider)
	}
	return levels, nil
}

// BuildEnvironmentPdf encodes the full environment pyramid build: the
// luminance base level followed by every reduction.
//
// Parameters:
//   - cs: the command stream to record into
func (p *PdfMipmapPass) BuildEnvironmentPdf(cs renderer.CommandStream) {
	cs.BeginSection("Environment PDF")
	defer cs.EndSection()

	x, y := dispatchDims(p.envPdf.Width(), p.envPdf.Height())
	cs.Dispatch(p.basePipeline, []*wgpu.BindGroup{p.envBase.BindGroup()}, x, y, 1)
	p.reduce(cs, p.envPdf, p.envLevels)
}

// ReduceLocalLightPdf encodes the local light pyramid reduction. The base
// level is written by the light preparation pass.
//
// Parameters:
//   - cs: the command stream to record into
func (p *PdfMipmapPass) ReduceLocalLightPdf(cs renderer.CommandStream) {
	cs.BeginSection("Local Light PDF")
	defer cs.EndSection()

	p.reduce(cs, p.localPdf, p.localLevels)
}

func (p *PdfMipmapPass) reduce(cs renderer.CommandStream, pyramid renderer.Texture, levels []bind_group_provider.BindGroupProvider) {
	for i, provider := range levels {
		dstLevel := uint32(i + 1)
		w := max(pyramid.Width()>>dstLevel, 1)
		h := max(pyramid.Height()>>dstLevel, 1)
		x, y := dispatchDims(w, h)
		cs.Dispatch(p.reducePipeline, []*wgpu.BindGroup{provider.BindGroup()}, x, y, 1)
	}
}

func (p *PdfMipmapPass) releaseBindingSet() {
	releaseBindings(p.envBase)
	p.envBase = nil
	for _, provider := range p.envLevels {
		releaseBindings(provider)
	}
	p.envLevels = nil
	for _, provider := range p.localLevels {
		releaseBindings(provider)
	}
	p.localLevels = nil
}

// Release frees the pass's binding sets.
func (p *PdfMipmapPass) Release() {
	p.releaseBindingSet()
}
