package renderer

import (
	"github.com/Carmen-Shannon/lumen-go/common"
	"github.com/Carmen-Shannon/lumen-go/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/lumen-go/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// Feature identifies an optional GPU capability the frame orchestrator gates
// its pass selection on.
type Feature int

const (
	// FeatureRayQuery indicates support for inline ray traversal from compute
	// shaders. The WGPU backend implements traversal over a GPU BVH inside
	// compute passes, so this is always available there.
	FeatureRayQuery Feature = iota

	// FeatureRayPipeline indicates support for dedicated ray tracing pipeline
	// stages (raygen/hit/miss). Not exposed by the WGPU backend.
	FeatureRayPipeline

	// FeatureFloat32Filterable indicates support for linear filtering of
	// 32-bit float textures.
	FeatureFloat32Filterable
)

// TextureDesc describes an offscreen texture to create through the backend.
type TextureDesc struct {
	// Label is the debug label attached to the GPU texture.
	Label string
	// Width and Height are the texture dimensions in texels.
	Width, Height uint32
	// MipLevels is the mip chain length; 0 is treated as 1.
	MipLevels uint32
	// Format is the texel format.
	Format wgpu.TextureFormat
	// Usage is the allowed usage set for the texture.
	Usage wgpu.TextureUsage
}

// RendererBackend is the top-level backend interface for the Renderer.
// It embeds the concrete backend interface for the selected GPU API.
type RendererBackend interface {
	wgpuRendererBackend
}

// wgpuRendererBackend is the backend contract the WGPU implementation satisfies.
type wgpuRendererBackend interface {
	Device() *wgpu.Device
	Queue() *wgpu.Queue
	Instance() *wgpu.Instance
	Adapter() *wgpu.Adapter
	Surface() *wgpu.Surface

	// ConfigureSurface is a wrapper for boilerplate logic required when calling ConfigureSurface on a surface.
	// This is required when the surface size changes, such as when the window is resized.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	ConfigureSurface(width, height int)

	// SurfaceFormat returns the configured surface texture format.
	//
	// Returns:
	//   - wgpu.TextureFormat: the surface format, or TextureFormatUndefined before ConfigureSurface
	SurfaceFormat() wgpu.TextureFormat

	// SetPresentMode sets the surface present mode which controls how frames are delivered to the display.
	// A call to ConfigureSurface is required after changing this for the new mode to take effect.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// SupportsFeature reports whether the backend supports an optional capability.
	//
	// Parameters:
	//   - f: the Feature to query
	//
	// Returns:
	//   - bool: true if the capability is available on this backend/adapter
	SupportsFeature(f Feature) bool

	// CreateTexture creates an offscreen GPU texture from a descriptor.
	//
	// Parameters:
	//   - desc: the texture descriptor
	//
	// Returns:
	//   - Texture: the created texture handle
	//   - error: an error if texture creation fails
	CreateTexture(desc TextureDesc) (Texture, error)

	// CreateBuffer creates a GPU buffer of the given size and usage.
	//
	// Parameters:
	//   - label: the debug label for the buffer
	//   - size: the buffer size in bytes
	//   - usage: the allowed usage set for the buffer
	//
	// Returns:
	//   - *wgpu.Buffer: the created buffer
	//   - error: an error if buffer creation fails
	CreateBuffer(label string, size uint64, usage wgpu.BufferUsage) (*wgpu.Buffer, error)

	// WriteTexture uploads tightly packed pixel data to mip level 0 of a texture.
	//
	// Parameters:
	//   - t: the destination texture
	//   - pixels: the pixel data, rows tightly packed
	//   - bytesPerPixel: the size of one texel in bytes
	WriteTexture(t Texture, pixels []byte, bytesPerPixel uint32)

	// RegisterRenderPipeline creates a render pipeline from the pipeline's shaders,
	// declared bind group layouts, vertex layouts, and color/depth target formats.
	//
	// Parameters:
	//   - p: the pipeline object containing the shaders and configuration for the pipeline
	//
	// Returns:
	//   - error: an error if the pipeline could not be created, otherwise nil
	RegisterRenderPipeline(p pipeline.Pipeline) error

	// RegisterComputePipeline creates a compute pipeline from the pipeline's compute
	// shader and declared bind group layouts.
	//
	// Parameters:
	//   - p: the pipeline object containing the shader and configuration for the pipeline
	//
	// Returns:
	//   - error: an error if the pipeline could not be created, otherwise nil
	RegisterComputePipeline(p pipeline.Pipeline) error

	// InitMeshBuffers inits the vertex and index buffers for a mesh based on the provided vertex and index data, and stores them on the given BindGroupProvider.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created vertex and index buffers on
	//   - vertexData: the raw vertex data bytes to upload to the GPU
	//   - indexData: the raw index data bytes to upload to the GPU
	//   - indexCount: the number of indices represented in the indexData, used for draw calls
	//
	// Returns:
	//   - error: an error if the buffers could not be created or initialized, otherwise nil
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error

	// InitBindGroup is a high-level function that creates GPU buffers and a bind group based on a layout descriptor.
	// Texture views and samplers must already be staged on the provider for their bindings.
	//
	// Parameters:
	//   - provider: the BindGroupProvider describing the layout entries and storage for the bind group
	//   - descriptor: the BindGroupLayoutDescriptor describing the layout of the bind group
	//   - bufferUsageOverrides: a map of binding indices to buffer usage flags, allowing customization of buffer usage
	//   - bufferSizeOverrides: a map of binding indices to buffer sizes, allowing customization of buffer sizes
	//
	// Returns:
	//   - error: an error if the bind group could not be initialized, otherwise nil
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error

	// InitSampler creates a GPU sampler based on the provided staging data, and stores it on the given BindGroupProvider.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created sampler on
	//   - bindingKey: the integer key identifying the bind group layout entry for this sampler
	//   - samplerStagingData: the SamplerStagingData containing the configuration for creating the sampler
	//
	// Returns:
	//   - error: an error if the sampler could not be created or initialized, otherwise nil
	InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error

	// WriteBuffers writes all staged buffer writes to the GPU queue.
	// Each BufferWrite targets a specific buffer on a BindGroupProvider at a given binding and offset.
	//
	// Parameters:
	//   - writes: a slice of BufferWrite structs describing the data to write
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// OpenStream creates a command stream backed by a fresh command encoder.
	// Work recorded on the stream is not visible to the GPU until SubmitStream.
	//
	// Parameters:
	//   - label: the debug label for the stream's command encoder
	//
	// Returns:
	//   - CommandStream: the opened stream
	//   - error: an error if the command encoder could not be created
	OpenStream(label string) (CommandStream, error)

	// SubmitStream finishes the stream's command encoder and submits the resulting
	// command buffer to the GPU queue.
	//
	// Parameters:
	//   - cs: the stream to finish and submit
	//
	// Returns:
	//   - error: an error if the command buffer could not be finished
	SubmitStream(cs CommandStream) error

	// AcquireSurfaceView acquires the next swapchain texture and returns a view of it.
	// Must be paired with Present once the frame targeting the view has been submitted.
	//
	// Returns:
	//   - *wgpu.TextureView: a view of the acquired swapchain texture
	//   - error: an error if the swapchain texture could not be acquired
	AcquireSurfaceView() (*wgpu.TextureView, error)

	// Present presents the surface to the display and releases the swapchain texture.
	// Must be called once per frame after the final stream targeting the surface is submitted.
	Present()

	// WaitForIdle blocks until the GPU has drained all submitted work. Required
	// before releasing texture views that in-flight frames may still reference.
	WaitForIdle()

	// ReadBuffer synchronously reads back the contents of a mappable GPU buffer.
	// Blocks until the GPU finishes pending work touching the buffer.
	//
	// Parameters:
	//   - buf: the buffer to read; must carry wgpu.BufferUsageMapRead
	//   - size: the number of bytes to read from offset 0
	//
	// Returns:
	//   - []byte: a copy of the buffer contents
	//   - error: an error if mapping fails
	ReadBuffer(buf *wgpu.Buffer, size uint64) ([]byte, error)
}
