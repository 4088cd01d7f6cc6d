// package envmap manages the active environment source: either a procedurally
// rendered sky texture or a file-backed texture selected from a registry of
// image paths. The source carries a dirty level driving the orchestrator's
// reload work: 0 = clean, 1 = the PDF mipmap needs regeneration, 2 = the
// texture itself needs a full reload followed by PDF regeneration.
package envmap

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/Carmen-Shannon/lumen-go/common"
	"github.com/Carmen-Shannon/lumen-go/engine/renderer"
	"github.com/cogentcore/webgpu/wgpu"
)

// Dirty levels for the environment source.
const (
	// DirtyNone means the texture and its PDF mipmap are both valid.
	DirtyNone = 0

	// DirtyPdf means the texture is valid but the PDF mipmap must be rebuilt.
	DirtyPdf = 1

	// DirtyFull means the texture must be reloaded, then the PDF rebuilt.
	DirtyFull = 2
)

// proceduralWidth and proceduralHeight size the procedural sky texture.
const (
	proceduralWidth  = 1024
	proceduralHeight = 512
)

// Device is the slice of the renderer the registry needs.
// renderer.Renderer satisfies it.
type Device interface {
	CreateTexture(desc renderer.TextureDesc) (renderer.Texture, error)
	WriteTexture(t renderer.Texture, pixels []byte, bytesPerPixel uint32)
	WaitForIdle()
	DescriptorTable() *renderer.DescriptorTable
}

// Source describes one selectable environment entry.
type Source struct {
	// Name is the display name shown in the selection list.
	Name string

	// Path is the image file path, empty for the procedural sky.
	Path string
}

// registryImpl is the implementation of the Registry interface.
type registryImpl struct {
	mu *sync.Mutex

	device  Device
	sources []Source
	current int
	dirty   int

	texture renderer.Texture
	slot    int
}

// Registry tracks the selectable environment sources and the active texture.
// Index 0 is always the procedural sky; file-backed entries follow. Selecting
// a source or requesting a reload raises the dirty level to DirtyFull; the
// orchestrator resolves it with Reload (2 to 1) and MarkPdfRegenerated
// (1 to 0). A pipeline rebuild independently raises the level to DirtyPdf.
type Registry interface {
	// Sources returns the current selectable entries. Entries whose files
	// failed to load have already been pruned.
	//
	// Returns:
	//   - []Source: the selectable sources, procedural sky first
	Sources() []Source

	// CurrentIndex returns the index of the active source.
	//
	// Returns:
	//   - int: the active index
	CurrentIndex() int

	// IsFileBacked reports whether the active source is a file-backed texture
	// rather than the procedural sky.
	//
	// Returns:
	//   - bool: true for a file-backed source
	IsFileBacked() bool

	// DirtyLevel returns the pending reload work level.
	//
	// Returns:
	//   - int: DirtyNone, DirtyPdf, or DirtyFull
	DirtyLevel() int

	// Select switches the active source and raises the dirty level to
	// DirtyFull. Out-of-range indices are ignored.
	//
	// Parameters:
	//   - index: the source index to activate
	Select(index int)

	// RequestReload raises the dirty level to DirtyFull without changing the
	// selection.
	RequestReload()

	// MarkPipelinesChanged raises the dirty level to at least DirtyPdf. Called
	// after a shader reload rebuilds the PDF generation pipelines.
	MarkPipelinesChanged()

	// Reload resolves dirty level DirtyFull: loads the selected file (or
	// allocates the procedural sky texture), swaps it into the descriptor
	// table after draining the GPU, and drops the level to DirtyPdf. If the
	// file fails to load the entry is pruned from the source list and the
	// selection falls back to the procedural sky; no error is returned for
	// that case.
	//
	// Returns:
	//   - error: an error only if the fallback itself cannot be allocated
	Reload() error

	// MarkPdfRegenerated resolves dirty level DirtyPdf after the PDF mipmap
	// pass has run, dropping the level to DirtyNone.
	MarkPdfRegenerated()

	// Texture returns the active environment texture, or nil before the first
	// Reload.
	//
	// Returns:
	//   - renderer.Texture: the active texture
	Texture() renderer.Texture

	// TextureSlot returns the descriptor table slot of the active texture, or
	// a negative value before the first Reload.
	//
	// Returns:
	//   - int: the slot index
	TextureSlot() int

	// Size returns the active texture's resolution, or zeros before the first
	// Reload. The sampling resources are sized from this.
	//
	// Returns:
	//   - uint32, uint32: the width and height
	Size() (uint32, uint32)
}

var _ Registry = &registryImpl{}

// NewRegistry creates a Registry over the given image paths. The procedural
// sky is always entry 0 and starts selected; the registry starts at DirtyFull
// so the first frame performs the initial load.
//
// Parameters:
//   - device: the renderer used for texture creation and descriptor updates
//   - paths: the candidate environment image files
//
// Returns:
//   - Registry: the new registry
func NewRegistry(device Device, paths ...string) Registry {
	sources := make([]Source, 0, len(paths)+1)
	sources = append(sources, Source{Name: "Procedural Sky"})
	for _, p := range paths {
		sources = append(sources, Source{
			Name: filepath.Base(p),
			Path: p,
		})
	}
	return &registryImpl{
		mu:      &sync.Mutex{},
		device:  device,
		sources: sources,
		dirty:   DirtyFull,
		slot:    -1,
	}
}

func (r *registryImpl) Sources() []Source {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Source, len(r.sources))
	copy(out, r.sources)
	return out
}

func (r *registryImpl) CurrentIndex() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

func (r *registryImpl) IsFileBacked() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sources[r.current].Path != ""
}

func (r *registryImpl) DirtyLevel() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dirty
}

func (r *registryImpl) Select(index int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= len(r.sources) || index == r.current {
		return
	}
	r.current = index
	r.dirty = DirtyFull
}

func (r *registryImpl) RequestReload() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dirty = DirtyFull
}

func (r *registryImpl) MarkPipelinesChanged() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dirty < DirtyPdf {
		r.dirty = DirtyPdf
	}
}

func (r *registryImpl) Reload() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for {
		src := r.sources[r.current]
		tex, err := r.loadSource(src)
		if err == nil {
			r.install(tex)
			r.dirty = DirtyPdf
			return nil
		}
		if src.Path == "" {
			return fmt.Errorf("allocate procedural sky texture: %w", err)
		}
		// Bad file: drop the entry and fall back to the procedural sky.
		log.Printf("[EnvMap] failed to load %q, removing from selection: %v", src.Path, err)
		r.sources = append(r.sources[:r.current], r.sources[r.current+1:]...)
		r.current = 0
	}
}

func (r *registryImpl) MarkPdfRegenerated() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dirty == DirtyPdf {
		r.dirty = DirtyNone
	}
}

func (r *registryImpl) Texture() renderer.Texture {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.texture
}

func (r *registryImpl) TextureSlot() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.slot
}

func (r *registryImpl) Size() (uint32, uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.texture == nil {
		return 0, 0
	}
	return r.texture.Width(), r.texture.Height()
}

// loadSource produces the texture for a source. File-backed sources are
// decoded and uploaded; the procedural source gets a storage texture the sky
// render pass fills each time it runs. Caller must hold the mutex.
func (r *registryImpl) loadSource(src Source) (renderer.Texture, error) {
	if src.Path == "" {
		return r.device.CreateTexture(renderer.TextureDesc{
			Label:  "envmap_procedural",
			Width:  proceduralWidth,
			Height: proceduralHeight,
			Format: wgpu.TextureFormatRGBA16Float,
			Usage:  wgpu.TextureUsageStorageBinding | wgpu.TextureUsageTextureBinding,
		})
	}

	data, err := os.ReadFile(src.Path)
	if err != nil {
		return nil, err
	}
	img := common.ImportedImage{
		Name: src.Name,
		Path: src.Path,
		Data: data,
	}
	pixels, width, height, err := img.Decode()
	if err != nil {
		return nil, err
	}

	tex, err := r.device.CreateTexture(renderer.TextureDesc{
		Label:  "envmap_" + src.Name,
		Width:  width,
		Height: height,
		Format: wgpu.TextureFormatRGBA8Unorm,
		Usage:  wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	r.device.WriteTexture(tex, pixels, 4)
	return tex, nil
}

// install swaps the new texture into the descriptor table, draining the GPU
// before the old view is released. Caller must hold the mutex.
func (r *registryImpl) install(tex renderer.Texture) {
	table := r.device.DescriptorTable()
	if r.slot < 0 {
		r.texture = tex
		r.slot = table.Allocate(tex)
		return
	}
	r.device.WaitForIdle()
	table.Replace(r.slot, tex)
	if r.texture != nil {
		r.texture.Release()
	}
	r.texture = tex
}
