package envmap

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/lumen-go/engine/renderer"
	"github.com/cogentcore/webgpu/wgpu"
)

type fakeTexture struct {
	desc     renderer.TextureDesc
	released bool
}

func (f *fakeTexture) Label() string                          { return f.desc.Label }
func (f *fakeTexture) Width() uint32                          { return f.desc.Width }
func (f *fakeTexture) Height() uint32                         { return f.desc.Height }
func (f *fakeTexture) MipLevels() uint32                      { return 1 }
func (f *fakeTexture) Format() wgpu.TextureFormat             { return f.desc.Format }
func (f *fakeTexture) View() *wgpu.TextureView                { return nil }
func (f *fakeTexture) MipView(level uint32) *wgpu.TextureView { return nil }
func (f *fakeTexture) Raw() *wgpu.Texture                     { return nil }
func (f *fakeTexture) Release()                               { f.released = true }

type fakeDevice struct {
	table     *renderer.DescriptorTable
	idleWaits int
	writes    int
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{table: renderer.NewDescriptorTable()}
}

func (f *fakeDevice) CreateTexture(desc renderer.TextureDesc) (renderer.Texture, error) {
	return &fakeTexture{desc: desc}, nil
}

func (f *fakeDevice) WriteTexture(t renderer.Texture, pixels []byte, bytesPerPixel uint32) {
	f.writes++
}

func (f *fakeDevice) WaitForIdle() { f.idleWaits++ }

func (f *fakeDevice) DescriptorTable() *renderer.DescriptorTable { return f.table }

func writeTestPNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	if err := png.Encode(file, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDirtyLevelTransitions(t *testing.T) {
	dev := newFakeDevice()
	reg := NewRegistry(dev)

	if reg.DirtyLevel() != DirtyFull {
		t.Fatal("registry must start at DirtyFull for the initial load")
	}
	if err := reg.Reload(); err != nil {
		t.Fatal(err)
	}
	if reg.DirtyLevel() != DirtyPdf {
		t.Error("Reload must drop the level to DirtyPdf")
	}
	reg.MarkPdfRegenerated()
	if reg.DirtyLevel() != DirtyNone {
		t.Error("MarkPdfRegenerated must drop the level to DirtyNone")
	}

	reg.MarkPipelinesChanged()
	if reg.DirtyLevel() != DirtyPdf {
		t.Error("a pipeline rebuild must request PDF regeneration")
	}
	reg.RequestReload()
	if reg.DirtyLevel() != DirtyFull {
		t.Error("a reload request must raise the level to DirtyFull")
	}
	// A pipeline change must not lower a pending full reload.
	reg.MarkPipelinesChanged()
	if reg.DirtyLevel() != DirtyFull {
		t.Error("DirtyPdf must not override DirtyFull")
	}
}

func TestSelectFileBackedSource(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir, "studio.png", 8, 4)

	dev := newFakeDevice()
	reg := NewRegistry(dev, path)
	if err := reg.Reload(); err != nil {
		t.Fatal(err)
	}
	if reg.IsFileBacked() {
		t.Error("procedural sky should be active initially")
	}

	reg.Select(1)
	if reg.DirtyLevel() != DirtyFull {
		t.Fatal("selecting a source must raise DirtyFull")
	}
	if err := reg.Reload(); err != nil {
		t.Fatal(err)
	}
	if !reg.IsFileBacked() {
		t.Error("file-backed source should be active after reload")
	}
	w, h := reg.Size()
	if w != 8 || h != 4 {
		t.Errorf("size = %dx%d, want 8x4", w, h)
	}
	if dev.writes != 1 {
		t.Errorf("expected one texture upload, got %d", dev.writes)
	}
}

func TestReloadWaitsForIdleBeforeReplacingSlot(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir, "sky.png", 4, 4)

	dev := newFakeDevice()
	reg := NewRegistry(dev, path)
	if err := reg.Reload(); err != nil {
		t.Fatal(err)
	}
	slot := reg.TextureSlot()
	if slot < 0 {
		t.Fatal("first reload must allocate a descriptor slot")
	}
	if dev.idleWaits != 0 {
		t.Error("first allocation needs no idle wait")
	}

	old := reg.Texture().(*fakeTexture)
	reg.Select(1)
	if err := reg.Reload(); err != nil {
		t.Fatal(err)
	}
	if dev.idleWaits != 1 {
		t.Error("replacing a bound descriptor must drain the GPU first")
	}
	if reg.TextureSlot() != slot {
		t.Error("the environment texture must keep its descriptor slot")
	}
	if !old.released {
		t.Error("the previous texture must be released after the swap")
	}
}

func TestBadFilePrunedAndFallsBack(t *testing.T) {
	dev := newFakeDevice()
	reg := NewRegistry(dev, "/nonexistent/env.png")

	reg.Select(1)
	if err := reg.Reload(); err != nil {
		t.Fatal("a bad file must fall back, not fail")
	}
	if reg.IsFileBacked() {
		t.Error("fallback must land on the procedural sky")
	}
	if len(reg.Sources()) != 1 {
		t.Error("the bad entry must be pruned from the selection list")
	}
	if reg.CurrentIndex() != 0 {
		t.Error("selection must revert to the procedural sky")
	}
}
