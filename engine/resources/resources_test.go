package resources

import (
	"testing"

	"github.com/Carmen-Shannon/lumen-go/engine/light"
	"github.com/Carmen-Shannon/lumen-go/engine/renderer"
	"github.com/Carmen-Shannon/lumen-go/engine/restir"
	"github.com/cogentcore/webgpu/wgpu"
)

// fakeTexture satisfies renderer.Texture without touching a GPU.
type fakeTexture struct {
	desc renderer.TextureDesc
}

func (f *fakeTexture) Label() string                          { return f.desc.Label }
func (f *fakeTexture) Width() uint32                          { return f.desc.Width }
func (f *fakeTexture) Height() uint32                         { return f.desc.Height }
func (f *fakeTexture) MipLevels() uint32                      { return f.desc.MipLevels }
func (f *fakeTexture) Format() wgpu.TextureFormat             { return f.desc.Format }
func (f *fakeTexture) View() *wgpu.TextureView                { return nil }
func (f *fakeTexture) MipView(level uint32) *wgpu.TextureView { return nil }
func (f *fakeTexture) Raw() *wgpu.Texture                     { return nil }
func (f *fakeTexture) Release()                               {}

// fakeCreator records every allocation request.
type fakeCreator struct {
	textures    []renderer.TextureDesc
	bufferSizes map[string]uint64
}

func newFakeCreator() *fakeCreator {
	return &fakeCreator{bufferSizes: make(map[string]uint64)}
}

func (f *fakeCreator) CreateTexture(desc renderer.TextureDesc) (renderer.Texture, error) {
	f.textures = append(f.textures, desc)
	return &fakeTexture{desc: desc}, nil
}

func (f *fakeCreator) CreateBuffer(label string, size uint64, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	f.bufferSizes[label] = size
	return nil, nil
}

func TestRenderTargetsSizedToResolution(t *testing.T) {
	fc := newFakeCreator()
	rt, err := NewRenderTargets(fc, 2560, 1440)
	if err != nil {
		t.Fatal(err)
	}

	for _, desc := range fc.textures {
		if desc.Width != 2560 || desc.Height != 1440 {
			t.Errorf("target %q sized %dx%d, want 2560x1440", desc.Label, desc.Width, desc.Height)
		}
	}
	if !rt.IsCompatible(2560, 1440) {
		t.Error("bundle should be compatible with its own resolution")
	}
	if rt.IsCompatible(1920, 1080) {
		t.Error("bundle must not be compatible with another resolution")
	}
}

func TestRenderTargetsDoubleBufferFlip(t *testing.T) {
	fc := newFakeCreator()
	rt, err := NewRenderTargets(fc, 64, 64)
	if err != nil {
		t.Fatal(err)
	}

	before := rt.Depth()
	beforePrev := rt.PrevDepth()
	if before == beforePrev {
		t.Fatal("current and previous depth must be distinct textures")
	}

	rt.NextFrame()
	if rt.Depth() != beforePrev || rt.PrevDepth() != before {
		t.Error("NextFrame must swap current and previous depth")
	}
	rt.NextFrame()
	if rt.Depth() != before {
		t.Error("two flips must return to the original assignment")
	}
}

func TestSamplingResourcesBufferSizes(t *testing.T) {
	fc := newFakeCreator()
	ctx := restir.NewContext(restir.ContextParams{
		RenderWidth:            1920,
		RenderHeight:           1080,
		ImportanceGridCells:    8,
		ImportanceSlotsPerCell: 128,
	})
	stats := light.Stats{EmissiveMeshes: 2, EmissiveTriangles: 100, PrimitiveLights: 4}

	sr, err := NewSamplingResources(fc, ctx, stats, 1024, 512)
	if err != nil {
		t.Fatal(err)
	}

	wantLight := uint64(32 + 104*64)
	if got := fc.bufferSizes["light_buffer"]; got != wantLight {
		t.Errorf("light buffer size = %d, want %d", got, wantLight)
	}
	if fc.bufferSizes["light_buffer_prev"] != wantLight {
		t.Error("previous light buffer must match the light buffer size")
	}
	wantReservoir := uint64(ctx.ReservoirElementCount()) * 3 * 32
	if got := fc.bufferSizes["reservoir_buffer"]; got != wantReservoir {
		t.Errorf("reservoir buffer size = %d, want %d", got, wantReservoir)
	}
	wantGrid := uint64(8*8*8*128) * 8
	if got := fc.bufferSizes["importance_grid_buffer"]; got != wantGrid {
		t.Errorf("importance grid buffer size = %d, want %d", got, wantGrid)
	}

	if sr.EnvironmentPdf.Width() != 1024 || sr.EnvironmentPdf.Height() != 512 {
		t.Error("environment pdf must match the environment map resolution")
	}
	if sr.EnvironmentPdf.MipLevels() != 11 {
		t.Errorf("environment pdf mip levels = %d, want 11 for 1024x512", sr.EnvironmentPdf.MipLevels())
	}

	if !sr.IsCompatible(ctx.Params(), stats, 1024, 512) {
		t.Error("bundle should be compatible with its own inputs")
	}
	stats.EmissiveTriangles++
	if sr.IsCompatible(ctx.Params(), stats, 1024, 512) {
		t.Error("light count change must invalidate the bundle")
	}
}

func TestLocalLightPdfSize(t *testing.T) {
	cases := []struct {
		count uint32
		w, h  uint32
	}{
		{0, 1, 1},
		{1, 1, 1},
		{5, 4, 2},
		{100, 16, 8},
		{1024, 32, 32},
	}
	for _, c := range cases {
		w, h := LocalLightPdfSize(c.count)
		if w != c.w || h != c.h {
			t.Errorf("LocalLightPdfSize(%d) = %dx%d, want %dx%d", c.count, w, h, c.w, c.h)
		}
		if w*h < c.count && c.count > 0 {
			t.Errorf("pdf texture %dx%d cannot hold %d lights", w, h, c.count)
		}
	}
}
