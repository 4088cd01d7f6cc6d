// package resources holds the two GPU resource bundles the frame orchestrator
// owns: the render targets sized to the output resolution, and the sampling
// resources sized to the light statistics and environment map. Both bundles
// record the inputs they were built from so the lifecycle manager can detect
// staleness with a simple compatibility query instead of tracking dirty flags
// on every consumer.
package resources

import (
	"fmt"

	"github.com/Carmen-Shannon/lumen-go/engine/renderer"
	"github.com/cogentcore/webgpu/wgpu"
)

// TextureCreator is the slice of the renderer the resource bundles need to
// allocate their GPU objects. renderer.Renderer satisfies it.
type TextureCreator interface {
	CreateTexture(desc renderer.TextureDesc) (renderer.Texture, error)
	CreateBuffer(label string, size uint64, usage wgpu.BufferUsage) (*wgpu.Buffer, error)
}

// storageUsage is the usage set shared by the compute-written offscreen targets.
const storageUsage = wgpu.TextureUsageStorageBinding | wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopySrc | wgpu.TextureUsageCopyDst

// RenderTargets is the bundle of output-resolution GPU surfaces. The G-buffer
// channels and TAA feedback are double buffered; NextFrame flips which half is
// "current" so passes read last frame's surfaces while writing this frame's.
type RenderTargets struct {
	width  uint32
	height uint32
	frame  int

	// HdrColor accumulates the lit result in linear HDR.
	HdrColor renderer.Texture

	// LdrColor receives the tone-mapped output and is blitted to the surface.
	LdrColor renderer.Texture

	// AccumulatedColor is the running average target for reference accumulation.
	AccumulatedColor renderer.Texture

	// MotionVectors holds screen-space motion from the G-buffer pass.
	MotionVectors renderer.Texture

	// RasterDepth is the hardware depth attachment used only by the rasterized
	// G-buffer path.
	RasterDepth renderer.Texture

	// DiffuseLighting and SpecularLighting are the denoiser input channels.
	DiffuseLighting  renderer.Texture
	SpecularLighting renderer.Texture

	// DenoisedDiffuse and DenoisedSpecular receive the denoiser output.
	DenoisedDiffuse  renderer.Texture
	DenoisedSpecular renderer.Texture

	depth         [2]renderer.Texture
	normals       [2]renderer.Texture
	geoNormals    [2]renderer.Texture
	diffuseAlbedo [2]renderer.Texture
	specularRough [2]renderer.Texture
	taaFeedback   [2]renderer.Texture
}

// NewRenderTargets allocates every surface for the given output resolution.
// Allocation failure is fatal to the caller; there is no partial bundle.
//
// Parameters:
//   - creator: the renderer used to allocate textures
//   - width, height: the output resolution in pixels
//
// Returns:
//   - *RenderTargets: the fully allocated bundle
//   - error: an error if any allocation fails
func NewRenderTargets(creator TextureCreator, width, height uint32) (*RenderTargets, error) {
	rt := &RenderTargets{width: width, height: height}

	single := []struct {
		target *renderer.Texture
		label  string
		format wgpu.TextureFormat
		usage  wgpu.TextureUsage
	}{
		{&rt.HdrColor, "hdr_color", wgpu.TextureFormatRGBA16Float, storageUsage},
		{&rt.LdrColor, "ldr_color", wgpu.TextureFormatRGBA8Unorm, storageUsage | wgpu.TextureUsageRenderAttachment},
		{&rt.AccumulatedColor, "accumulated_color", wgpu.TextureFormatRGBA32Float, storageUsage},
		{&rt.MotionVectors, "motion_vectors", wgpu.TextureFormatRGBA16Float, storageUsage | wgpu.TextureUsageRenderAttachment},
		{&rt.RasterDepth, "raster_depth", wgpu.TextureFormatDepth32Float, wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding},
		{&rt.DiffuseLighting, "diffuse_lighting", wgpu.TextureFormatRGBA16Float, storageUsage},
		{&rt.SpecularLighting, "specular_lighting", wgpu.TextureFormatRGBA16Float, storageUsage},
		{&rt.DenoisedDiffuse, "denoised_diffuse", wgpu.TextureFormatRGBA16Float, storageUsage},
		{&rt.DenoisedSpecular, "denoised_specular", wgpu.TextureFormatRGBA16Float, storageUsage},
	}
	for _, s := range single {
		t, err := creator.CreateTexture(renderer.TextureDesc{
			Label:  s.label,
			Width:  width,
			Height: height,
			Format: s.format,
			Usage:  s.usage,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s target: %w", s.label, err)
		}
		*s.target = t
	}

	doubled := []struct {
		target *[2]renderer.Texture
		label  string
		format wgpu.TextureFormat
		usage  wgpu.TextureUsage
	}{
		{&rt.depth, "gbuffer_depth", wgpu.TextureFormatR32Float, storageUsage | wgpu.TextureUsageRenderAttachment},
		{&rt.normals, "gbuffer_normals", wgpu.TextureFormatRGBA16Float, storageUsage | wgpu.TextureUsageRenderAttachment},
		{&rt.geoNormals, "gbuffer_geo_normals", wgpu.TextureFormatRGBA16Float, storageUsage | wgpu.TextureUsageRenderAttachment},
		{&rt.diffuseAlbedo, "gbuffer_diffuse_albedo", wgpu.TextureFormatRGBA8Unorm, storageUsage | wgpu.TextureUsageRenderAttachment},
		{&rt.specularRough, "gbuffer_specular_rough", wgpu.TextureFormatRGBA8Unorm, storageUsage | wgpu.TextureUsageRenderAttachment},
		{&rt.taaFeedback, "taa_feedback", wgpu.TextureFormatRGBA16Float, storageUsage},
	}
	for _, d := range doubled {
		for i := range 2 {
			t, err := creator.CreateTexture(renderer.TextureDesc{
				Label:  fmt.Sprintf("%s_%d", d.label, i),
				Width:  width,
				Height: height,
				Format: d.format,
				Usage:  d.usage,
			})
			if err != nil {
				return nil, fmt.Errorf("create %s target: %w", d.label, err)
			}
			d.target[i] = t
		}
	}

	return rt, nil
}

// Width returns the bundle's output width in pixels.
//
// Returns:
//   - uint32: the width
func (rt *RenderTargets) Width() uint32 {
	return rt.width
}

// Height returns the bundle's output height in pixels.
//
// Returns:
//   - uint32: the height
func (rt *RenderTargets) Height() uint32 {
	return rt.height
}

// IsCompatible reports whether the bundle matches an output resolution.
//
// Parameters:
//   - width, height: the resolution to check against
//
// Returns:
//   - bool: true if the bundle was allocated for exactly this resolution
func (rt *RenderTargets) IsCompatible(width, height uint32) bool {
	return rt.width == width && rt.height == height
}

// NextFrame flips the double-buffered surfaces so the current frame's writes
// become the next frame's history. Called once per frame before any pass
// executes.
func (rt *RenderTargets) NextFrame() {
	rt.frame = 1 - rt.frame
}

// FrameParity returns which half of the double-buffered surfaces is current.
// Binding sets created per parity use it to select the matching bind group
// after the per-frame flip.
//
// Returns:
//   - int: 0 or 1
func (rt *RenderTargets) FrameParity() int {
	return rt.frame
}

// Depth returns the current frame's G-buffer depth target.
func (rt *RenderTargets) Depth() renderer.Texture { return rt.depth[rt.frame] }

// PrevDepth returns the previous frame's G-buffer depth target.
func (rt *RenderTargets) PrevDepth() renderer.Texture { return rt.depth[1-rt.frame] }

// Normals returns the current frame's shading normal target.
func (rt *RenderTargets) Normals() renderer.Texture { return rt.normals[rt.frame] }

// PrevNormals returns the previous frame's shading normal target.
func (rt *RenderTargets) PrevNormals() renderer.Texture { return rt.normals[1-rt.frame] }

// GeoNormals returns the current frame's geometric normal target.
func (rt *RenderTargets) GeoNormals() renderer.Texture { return rt.geoNormals[rt.frame] }

// PrevGeoNormals returns the previous frame's geometric normal target.
func (rt *RenderTargets) PrevGeoNormals() renderer.Texture { return rt.geoNormals[1-rt.frame] }

// DiffuseAlbedo returns the current frame's diffuse albedo target.
func (rt *RenderTargets) DiffuseAlbedo() renderer.Texture { return rt.diffuseAlbedo[rt.frame] }

// PrevDiffuseAlbedo returns the previous frame's diffuse albedo target.
func (rt *RenderTargets) PrevDiffuseAlbedo() renderer.Texture { return rt.diffuseAlbedo[1-rt.frame] }

// SpecularRough returns the current frame's specular/roughness target.
func (rt *RenderTargets) SpecularRough() renderer.Texture { return rt.specularRough[rt.frame] }

// PrevSpecularRough returns the previous frame's specular/roughness target.
func (rt *RenderTargets) PrevSpecularRough() renderer.Texture { return rt.specularRough[1-rt.frame] }

// TaaFeedback returns the current frame's TAA history output target.
func (rt *RenderTargets) TaaFeedback() renderer.Texture { return rt.taaFeedback[rt.frame] }

// PrevTaaFeedback returns the previous frame's TAA history target.
func (rt *RenderTargets) PrevTaaFeedback() renderer.Texture { return rt.taaFeedback[1-rt.frame] }

// Release frees every texture in the bundle. The caller must ensure no GPU
// work referencing the bundle is in flight.
func (rt *RenderTargets) Release() {
	for _, t := range []renderer.Texture{
		rt.HdrColor, rt.LdrColor, rt.AccumulatedColor, rt.MotionVectors,
		rt.RasterDepth, rt.DiffuseLighting, rt.SpecularLighting,
		rt.DenoisedDiffuse, rt.DenoisedSpecular,
	} {
		if t != nil {
			t.Release()
		}
	}
	for _, pair := range [][2]renderer.Texture{
		rt.depth, rt.normals, rt.geoNormals, rt.diffuseAlbedo, rt.specularRough, rt.taaFeedback,
	} {
		for _, t := range pair {
			if t != nil {
				t.Release()
			}
		}
	}
}
