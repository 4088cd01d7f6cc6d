package resources

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/lumen-go/common"
	"github.com/Carmen-Shannon/lumen-go/engine/light"
	"github.com/Carmen-Shannon/lumen-go/engine/renderer"
	"github.com/Carmen-Shannon/lumen-go/engine/restir"
	"github.com/cogentcore/webgpu/wgpu"
)

// reservoirLayers is the number of reservoir buffer layers the resampling
// passes ping-pong between (temporal input, spatial input, output).
const reservoirLayers = 3

// reservoirStride is the packed size of one reservoir slot in bytes.
const reservoirStride = 32

// lightSlotStride is the packed size of one light buffer slot in bytes,
// matching light.GPULight.
const lightSlotStride = 64

// importanceSlotStride is the packed size of one presampled importance grid
// slot in bytes (light index plus inverse source PDF).
const importanceSlotStride = 8

// SamplingResources is the bundle of GPU resources sized by the light
// statistics, the environment map resolution, and the resampling context.
// Any change to those inputs requires a full rebuild; the bundle records them
// for the lifecycle manager's compatibility query.
type SamplingResources struct {
	stats     light.Stats
	envWidth  uint32
	envHeight uint32
	params    restir.ContextParams

	// LightBuffer holds the header, primitive lights, and emissive triangle
	// slots consumed by the sampling shaders.
	LightBuffer *wgpu.Buffer

	// PrevLightBuffer holds last frame's light buffer so temporal reuse can
	// map reservoir light indices across frames.
	PrevLightBuffer *wgpu.Buffer

	// ReservoirBuffer holds reservoirLayers layers of resampling state.
	ReservoirBuffer *wgpu.Buffer

	// ImportanceGridBuffer holds the presampled local light slots.
	ImportanceGridBuffer *wgpu.Buffer

	// EnvironmentPdf is the luminance mipmap pyramid over the environment map
	// used for environment importance sampling.
	EnvironmentPdf renderer.Texture

	// LocalLightPdf is the power mipmap pyramid over the local light set used
	// for local light importance sampling.
	LocalLightPdf renderer.Texture
}

// NewSamplingResources allocates the light-dependent resource bundle.
//
// Parameters:
//   - creator: the renderer used to allocate buffers and textures
//   - ctx: the resampling context the reservoir sizes come from
//   - stats: the scene light statistics
//   - envWidth, envHeight: the active environment map resolution
//
// Returns:
//   - *SamplingResources: the fully allocated bundle
//   - error: an error if any allocation fails
func NewSamplingResources(creator TextureCreator, ctx restir.Context, stats light.Stats, envWidth, envHeight uint32) (*SamplingResources, error) {
	sr := &SamplingResources{
		stats:     stats,
		envWidth:  envWidth,
		envHeight: envHeight,
		params:    ctx.Params(),
	}

	headerSize := uint64((&light.GPULightBufferHeader{}).Size())
	lightBufferSize := headerSize + uint64(stats.TotalLights())*lightSlotStride
	if lightBufferSize < headerSize+lightSlotStride {
		// A scene with no lights still binds a valid buffer.
		lightBufferSize = headerSize + lightSlotStride
	}

	var err error
	sr.LightBuffer, err = creator.CreateBuffer("light_buffer", lightBufferSize,
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst|wgpu.BufferUsageCopySrc)
	if err != nil {
		return nil, fmt.Errorf("create light buffer: %w", err)
	}
	sr.PrevLightBuffer, err = creator.CreateBuffer("light_buffer_prev", lightBufferSize,
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst)
	if err != nil {
		return nil, fmt.Errorf("create previous light buffer: %w", err)
	}

	reservoirSize := uint64(ctx.ReservoirElementCount()) * reservoirLayers * reservoirStride
	sr.ReservoirBuffer, err = creator.CreateBuffer("reservoir_buffer", reservoirSize,
		wgpu.BufferUsageStorage)
	if err != nil {
		return nil, fmt.Errorf("create reservoir buffer: %w", err)
	}

	gridSize := uint64(ctx.ImportanceGridSlotCount()) * importanceSlotStride
	sr.ImportanceGridBuffer, err = creator.CreateBuffer("importance_grid_buffer", gridSize,
		wgpu.BufferUsageStorage)
	if err != nil {
		return nil, fmt.Errorf("create importance grid buffer: %w", err)
	}

	pdfW, pdfH := envWidth, envHeight
	if pdfW == 0 || pdfH == 0 {
		pdfW, pdfH = 1, 1
	}
	sr.EnvironmentPdf, err = creator.CreateTexture(renderer.TextureDesc{
		Label:     "environment_pdf",
		Width:     pdfW,
		Height:    pdfH,
		MipLevels: common.MipLevels(pdfW, pdfH),
		Format:    wgpu.TextureFormatR32Float,
		Usage:     storageUsage,
	})
	if err != nil {
		return nil, fmt.Errorf("create environment pdf texture: %w", err)
	}

	llW, llH := LocalLightPdfSize(stats.TotalLights())
	sr.LocalLightPdf, err = creator.CreateTexture(renderer.TextureDesc{
		Label:     "local_light_pdf",
		Width:     llW,
		Height:    llH,
		MipLevels: common.MipLevels(llW, llH),
		Format:    wgpu.TextureFormatR32Float,
		Usage:     storageUsage,
	})
	if err != nil {
		return nil, fmt.Errorf("create local light pdf texture: %w", err)
	}

	return sr, nil
}

// LocalLightPdfSize computes the power-of-two texture dimensions needed to
// give every light buffer slot one texel in the local light PDF mipmap.
//
// Parameters:
//   - lightCount: the number of light slots
//
// Returns:
//   - uint32, uint32: the texture width and height
func LocalLightPdfSize(lightCount uint32) (uint32, uint32) {
	if lightCount == 0 {
		return 1, 1
	}
	width := common.NextPow2(uint32(math.Ceil(math.Sqrt(float64(lightCount)))))
	height := common.NextPow2((lightCount + width - 1) / width)
	return width, height
}

// Stats returns the light statistics the bundle was sized for.
//
// Returns:
//   - light.Stats: the statistics
func (sr *SamplingResources) Stats() light.Stats {
	return sr.stats
}

// EnvironmentSize returns the environment map resolution the PDF texture was
// sized for.
//
// Returns:
//   - uint32, uint32: the width and height
func (sr *SamplingResources) EnvironmentSize() (uint32, uint32) {
	return sr.envWidth, sr.envHeight
}

// IsCompatible reports whether the bundle matches the current sizing inputs.
//
// Parameters:
//   - params: the active resampling context parameters
//   - stats: the current light statistics
//   - envWidth, envHeight: the active environment map resolution
//
// Returns:
//   - bool: true if no sizing input changed since allocation
func (sr *SamplingResources) IsCompatible(params restir.ContextParams, stats light.Stats, envWidth, envHeight uint32) bool {
	return sr.params == params && sr.stats == stats &&
		sr.envWidth == envWidth && sr.envHeight == envHeight
}

// Release frees every buffer and texture in the bundle. The caller must ensure
// no GPU work referencing the bundle is in flight.
func (sr *SamplingResources) Release() {
	for _, b := range []*wgpu.Buffer{sr.LightBuffer, sr.PrevLightBuffer, sr.ReservoirBuffer, sr.ImportanceGridBuffer} {
		if b != nil {
			b.Release()
		}
	}
	if sr.EnvironmentPdf != nil {
		sr.EnvironmentPdf.Release()
	}
	if sr.LocalLightPdf != nil {
		sr.LocalLightPdf.Release()
	}
}
