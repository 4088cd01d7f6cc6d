package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/lumen-go/common"
	"github.com/Carmen-Shannon/lumen-go/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/lumen-go/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/lumen-go/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelineCache   map[string]pipeline.Pipeline
	descriptorTable *DescriptorTable

	backendType RendererBackendType
	backend     RendererBackend

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
}

// Renderer defines the interface for the rendering system.
//
// This is a high-level API designed to simplify rendering tasks into a streamlined and idiomatic flow.
// The Renderer manages a cache of pipelines and a descriptor table of registered texture views,
// and implements a backend which allows for multiple backend API implementations to exist.
type Renderer interface {
	// Pipeline retrieves the cached Pipeline associated with the given key.
	// If the Pipeline does not exist, this will return nil.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to retrieve
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// Pipelines retrieves the entire cache of Pipelines.
	//
	// Returns:
	//   - map[string]pipeline.Pipeline: a map of pipeline keys to their corresponding Pipeline objects
	Pipelines() map[string]pipeline.Pipeline

	// RegisterPipelines registers one or more pipelines by creating the corresponding GPU
	// pipeline objects (render or compute) via the backend, then caching them by PipelineKey.
	// Pipelines whose keys are already registered are skipped to avoid duplicate GPU resource creation.
	//
	// Parameters:
	//   - pipelines: the Pipelines to register
	//
	// Returns:
	//   - error: an error if pipeline creation fails
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// DropPipelines removes pipelines from the cache by key. Dropped pipelines
	// are recreated on the next RegisterPipelines call with the same key, which
	// is how a pass invalidates its pipelines after a shader reload.
	//
	// Parameters:
	//   - keys: the pipeline keys to remove
	DropPipelines(keys ...string)

	// ClearPipelineCache empties the entire pipeline cache. Every pass must
	// re-register its pipelines afterwards.
	ClearPipelineCache()

	// DescriptorTable returns the renderer's texture view slot table.
	//
	// Returns:
	//   - *DescriptorTable: the descriptor table
	DescriptorTable() *DescriptorTable

	// Resize configures the underlying backend to handle a new surface size.
	// This should be called when re-sizing the window or when the surface size should change.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SurfaceFormat returns the configured surface texture format.
	//
	// Returns:
	//   - wgpu.TextureFormat: the surface format
	SurfaceFormat() wgpu.TextureFormat

	// SetPresentMode sets the surface present mode which controls how frames are delivered to the display.
	// A call to Resize is required after changing this for the new mode to take effect.
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
	//   - bool: true if the capability is available
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

	// InitMeshBuffers creates GPU vertex and index buffers from raw byte data and stores them
	// on the given BindGroupProvider for later use in draw calls.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created buffers on
	//   - vertexData: the raw vertex data bytes to upload to the GPU
	//   - indexData: the raw index data bytes to upload to the GPU
	//   - indexCount: the number of indices, used for draw calls
	//
	// Returns:
	//   - error: an error if buffer creation fails
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error

	// InitBindGroup creates GPU buffers and a bind group from a layout descriptor and stores them
	// on the given BindGroupProvider. Texture views and samplers must be staged on the provider
	// before calling this method. Buffer usage and size can be overridden per binding.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created bind group on
	//   - descriptor: the layout descriptor defining the bind group entries
	//   - bufferUsageOverrides: additional buffer usage flags to OR into the derived usage, keyed by binding index (nil safe)
	//   - bufferSizeOverrides: custom buffer sizes to use instead of MinBindingSize, keyed by binding index (nil safe)
	//
	// Returns:
	//   - error: an error if bind group creation fails
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error

	// InitSampler creates a GPU sampler from staging data and stores it on the given BindGroupProvider
	// at the specified binding index. Must be called before InitBindGroup for any sampler bindings.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created sampler on
	//   - bindingKey: the binding index for this sampler
	//   - samplerStagingData: the sampler configuration
	//
	// Returns:
	//   - error: an error if sampler creation fails
	InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error

	// WriteBuffers writes all staged buffer writes to the GPU queue.
	// Each BufferWrite targets a specific buffer on a BindGroupProvider at a given binding and offset.
	//
	// Parameters:
	//   - writes: a slice of BufferWrite structs describing the data to write
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// OpenStream creates a command stream for recording one frame segment.
	//
	// Parameters:
	//   - label: the debug label for the stream
	//
	// Returns:
	//   - CommandStream: the opened stream
	//   - error: an error if the stream could not be created
	OpenStream(label string) (CommandStream, error)

	// SubmitStream finishes a stream and submits it to the GPU queue.
	//
	// Parameters:
	//   - cs: the stream to submit
	//
	// Returns:
	//   - error: an error if submission fails
	SubmitStream(cs CommandStream) error

	// AcquireSurfaceView acquires the next swapchain texture view.
	// Must be paired with Present after the frame's final stream is submitted.
	//
	// Returns:
	//   - *wgpu.TextureView: the swapchain view
	//   - error: an error if the swapchain texture could not be acquired
	AcquireSurfaceView() (*wgpu.TextureView, error)

	// Present presents the surface to the display and releases the swapchain texture.
	// Must be called once per frame after the frame's final stream is submitted.
	Present()

	// WaitForIdle blocks until the GPU has drained all submitted work. Must be
	// called before releasing texture views still referenced by in-flight frames,
	// e.g. when the environment map registry replaces a descriptor table entry.
	WaitForIdle()

	// ReadBuffer synchronously reads back a mappable GPU buffer's contents.
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

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer instance with the specified backend type and window.
// The window supplies the platform-specific surface descriptor for surface creation.
//
// Parameters:
//   - backendType: the type of rendering backend to use (e.g., WGPU)
//   - window: the window providing the surface descriptor and initial size
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
func NewRenderer(backendType RendererBackendType, window window.Window, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:              &sync.Mutex{},
		pipelineCache:   make(map[string]pipeline.Pipeline),
		descriptorTable: NewDescriptorTable(),
		backendType:     backendType,
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend = newWGPURendererBackend(window.SurfaceDescriptor(), r.forceFallbackAdapter)
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}

	r.backend.ConfigureSurface(window.Width(), window.Height())
	return r
}

func (r *renderer) Resize(width, height int) {
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SurfaceFormat() wgpu.TextureFormat {
	return r.backend.SurfaceFormat()
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) SupportsFeature(f Feature) bool {
	return r.backend.SupportsFeature(f)
}

func (r *renderer) DescriptorTable() *DescriptorTable {
	return r.descriptorTable
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) Pipelines() map[string]pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pipelines {
		key := p.PipelineKey()
		if _, exists := r.pipelineCache[key]; exists {
			continue
		}
		switch p.Type() {
		case pipeline.PipelineTypeCompute:
			if err := r.backend.RegisterComputePipeline(p); err != nil {
				return fmt.Errorf("register compute pipeline %q: %w", key, err)
			}
		case pipeline.PipelineTypeRender:
			if err := r.backend.RegisterRenderPipeline(p); err != nil {
				return fmt.Errorf("register render pipeline %q: %w", key, err)
			}
		}
		r.pipelineCache[key] = p
	}
	return nil
}

func (r *renderer) DropPipelines(keys ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, key := range keys {
		delete(r.pipelineCache, key)
	}
}

func (r *renderer) ClearPipelineCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pipelineCache = make(map[string]pipeline.Pipeline)
}

func (r *renderer) CreateTexture(desc TextureDesc) (Texture, error) {
	return r.backend.CreateTexture(desc)
}

func (r *renderer) CreateBuffer(label string, size uint64, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	return r.backend.CreateBuffer(label, size, usage)
}

func (r *renderer) WriteTexture(t Texture, pixels []byte, bytesPerPixel uint32) {
	r.backend.WriteTexture(t, pixels, bytesPerPixel)
}

func (r *renderer) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	return r.backend.InitMeshBuffers(provider, vertexData, indexData, indexCount)
}

func (r *renderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error {
	return r.backend.InitBindGroup(provider, descriptor, bufferUsageOverrides, bufferSizeOverrides)
}

func (r *renderer) InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error {
	return r.backend.InitSampler(provider, bindingKey, samplerStagingData)
}

func (r *renderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend.WriteBuffers(writes)
}

func (r *renderer) OpenStream(label string) (CommandStream, error) {
	return r.backend.OpenStream(label)
}

func (r *renderer) SubmitStream(cs CommandStream) error {
	return r.backend.SubmitStream(cs)
}

func (r *renderer) AcquireSurfaceView() (*wgpu.TextureView, error) {
	return r.backend.AcquireSurfaceView()
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) WaitForIdle() {
	r.backend.WaitForIdle()
}

func (r *renderer) ReadBuffer(buf *wgpu.Buffer, size uint64) ([]byte, error) {
	return r.backend.ReadBuffer(buf, size)
}
