package renderer

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuTexture is the WGPU implementation of the Texture interface.
type wgpuTexture struct {
	desc TextureDesc
	raw  *wgpu.Texture

	// view is the full-resource view, created lazily on first use.
	view *wgpu.TextureView
	// mipViews caches single-level views keyed by mip level.
	mipViews map[uint32]*wgpu.TextureView
}

// Texture is a handle to an offscreen GPU texture created through the Renderer.
// Render target bundles hold Textures and hand their views to binding sets;
// the bundle owns the texture, the binding set owns the views it creates.
type Texture interface {
	// Label returns the debug label the texture was created with.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// Width returns the texture width in texels.
	//
	// Returns:
	//   - uint32: the width
	Width() uint32

	// Height returns the texture height in texels.
	//
	// Returns:
	//   - uint32: the height
	Height() uint32

	// MipLevels returns the texture's mip chain length.
	//
	// Returns:
	//   - uint32: the number of mip levels (at least 1)
	MipLevels() uint32

	// Format returns the texel format.
	//
	// Returns:
	//   - wgpu.TextureFormat: the format
	Format() wgpu.TextureFormat

	// View returns a full-resource view of the texture, created lazily and
	// owned by the texture.
	//
	// Returns:
	//   - *wgpu.TextureView: the view, or nil if view creation failed
	View() *wgpu.TextureView

	// MipView returns a single-level view of the given mip, created lazily and
	// owned by the texture. Used by the mipmap reduction passes that read one
	// level and write the next.
	//
	// Parameters:
	//   - level: the mip level
	//
	// Returns:
	//   - *wgpu.TextureView: the view, or nil if the level is out of range
	MipView(level uint32) *wgpu.TextureView

	// Raw returns the underlying GPU texture.
	//
	// Returns:
	//   - *wgpu.Texture: the wrapped texture
	Raw() *wgpu.Texture

	// Release releases the texture and every view it created.
	Release()
}

var _ Texture = &wgpuTexture{}

func newWGPUTexture(desc TextureDesc, raw *wgpu.Texture) *wgpuTexture {
	if desc.MipLevels == 0 {
		desc.MipLevels = 1
	}
	return &wgpuTexture{
		desc:     desc,
		raw:      raw,
		mipViews: make(map[uint32]*wgpu.TextureView),
	}
}

func (t *wgpuTexture) Label() string {
	return t.desc.Label
}

func (t *wgpuTexture) Width() uint32 {
	return t.desc.Width
}

func (t *wgpuTexture) Height() uint32 {
	return t.desc.Height
}

func (t *wgpuTexture) MipLevels() uint32 {
	return t.desc.MipLevels
}

func (t *wgpuTexture) Format() wgpu.TextureFormat {
	return t.desc.Format
}

func (t *wgpuTexture) View() *wgpu.TextureView {
	if t.view != nil {
		return t.view
	}
	view, err := t.raw.CreateView(nil)
	if err != nil {
		return nil
	}
	t.view = view
	return view
}

func (t *wgpuTexture) MipView(level uint32) *wgpu.TextureView {
	if level >= t.desc.MipLevels {
		return nil
	}
	if v, ok := t.mipViews[level]; ok {
		return v
	}
	view, err := t.raw.CreateView(&wgpu.TextureViewDescriptor{
		Label:           fmt.Sprintf("%s mip %d", t.desc.Label, level),
		Format:          t.desc.Format,
		Dimension:       wgpu.TextureViewDimension2D,
		BaseMipLevel:    level,
		MipLevelCount:   1,
		BaseArrayLayer:  0,
		ArrayLayerCount: 1,
		Aspect:          wgpu.TextureAspectAll,
	})
	if err != nil {
		return nil
	}
	t.mipViews[level] = view
	return view
}

func (t *wgpuTexture) Raw() *wgpu.Texture {
	return t.raw
}

func (t *wgpuTexture) Release() {
	for level, v := range t.mipViews {
		if v != nil {
			v.Release()
		}
		delete(t.mipViews, level)
	}
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.raw != nil {
		t.raw.Release()
		t.raw = nil
	}
}
