package engine

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/Carmen-Shannon/lumen-go/common"
	"github.com/Carmen-Shannon/lumen-go/engine/camera"
	"github.com/Carmen-Shannon/lumen-go/engine/renderer"
	"github.com/Carmen-Shannon/lumen-go/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/lumen-go/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/lumen-go/engine/scene"
	"github.com/Carmen-Shannon/lumen-go/engine/window"
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

// fakeStream records what happened to one command stream.
type fakeStream struct {
	label     string
	submitted bool
	discarded bool
	sections  []renderer.Section
}

var _ renderer.CommandStream = &fakeStream{}

func (s *fakeStream) Label() string { return s.label }
func (s *fakeStream) BeginSection(label string) {
	s.sections = append(s.sections, renderer.Section{Label: label})
}
func (s *fakeStream) EndSection()                  {}
func (s *fakeStream) Sections() []renderer.Section { return s.sections }
func (s *fakeStream) Discard()                     { s.discarded = true }
func (s *fakeStream) Dispatch(p pipeline.Pipeline, bindGroups []*wgpu.BindGroup, x, y, z uint32) {}
func (s *fakeStream) DrawIndexed(p pipeline.Pipeline, meshProvider bind_group_provider.BindGroupProvider, bindGroups []*wgpu.BindGroup, colorTargets []*wgpu.TextureView, depthTarget *wgpu.TextureView, clear bool) {
}
func (s *fakeStream) DrawFullscreen(p pipeline.Pipeline, bindGroups []*wgpu.BindGroup, target *wgpu.TextureView, clear bool) {
}
func (s *fakeStream) ClearTexture(target *wgpu.TextureView, value wgpu.Color)      {}
func (s *fakeStream) CopyTexture(src, dst renderer.Texture)                        {}
func (s *fakeStream) CopyTexturePixel(src renderer.Texture, x, y uint32, dst *wgpu.Buffer) {}

// fakeRenderer satisfies renderer.Renderer, recording texture allocations,
// staged buffer writes, and the per-frame stream lifecycle.
type fakeRenderer struct {
	table *renderer.DescriptorTable

	textures []renderer.TextureDesc
	writes   []bind_group_provider.BufferWrite
	streams  []*fakeStream

	failAcquire bool
	presents    int
}

var _ renderer.Renderer = &fakeRenderer{}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{table: renderer.NewDescriptorTable()}
}

func (f *fakeRenderer) Pipeline(key string) pipeline.Pipeline            { return nil }
func (f *fakeRenderer) Pipelines() map[string]pipeline.Pipeline          { return nil }
func (f *fakeRenderer) RegisterPipelines(ps ...pipeline.Pipeline) error  { return nil }
func (f *fakeRenderer) DropPipelines(keys ...string)                     {}
func (f *fakeRenderer) ClearPipelineCache()                              {}
func (f *fakeRenderer) DescriptorTable() *renderer.DescriptorTable       { return f.table }
func (f *fakeRenderer) Resize(width, height int)                         {}
func (f *fakeRenderer) SurfaceFormat() wgpu.TextureFormat                { return wgpu.TextureFormatBGRA8Unorm }
func (f *fakeRenderer) SetPresentMode(mode renderer.PresentMode)         {}
func (f *fakeRenderer) SupportsFeature(feature renderer.Feature) bool    { return true }
func (f *fakeRenderer) WriteTexture(t renderer.Texture, pixels []byte, bytesPerPixel uint32) {}
func (f *fakeRenderer) WaitForIdle()                                     {}
func (f *fakeRenderer) Present()                                         { f.presents++ }

func (f *fakeRenderer) CreateTexture(desc renderer.TextureDesc) (renderer.Texture, error) {
	f.textures = append(f.textures, desc)
	return &fakeTexture{desc: desc}, nil
}

func (f *fakeRenderer) CreateBuffer(label string, size uint64, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	return nil, nil
}

func (f *fakeRenderer) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	return nil
}

func (f *fakeRenderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error {
	return nil
}

func (f *fakeRenderer) InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error {
	return nil
}

func (f *fakeRenderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	f.writes = append(f.writes, writes...)
}

func (f *fakeRenderer) OpenStream(label string) (renderer.CommandStream, error) {
	cs := &fakeStream{label: label}
	f.streams = append(f.streams, cs)
	return cs, nil
}

func (f *fakeRenderer) SubmitStream(cs renderer.CommandStream) error {
	cs.(*fakeStream).submitted = true
	return nil
}

func (f *fakeRenderer) AcquireSurfaceView() (*wgpu.TextureView, error) {
	if f.failAcquire {
		return nil, errors.New("surface lost")
	}
	return new(wgpu.TextureView), nil
}

func (f *fakeRenderer) ReadBuffer(buf *wgpu.Buffer, size uint64) ([]byte, error) {
	return make([]byte, size), nil
}

// fakeWindow is a fixed-size window with no message loop.
type fakeWindow struct {
	width, height int
}

var _ window.Window = &fakeWindow{}

func (w *fakeWindow) SetUpdateCallback(callback func())                        {}
func (w *fakeWindow) SetResizeCallback(callback func(width, height int))       {}
func (w *fakeWindow) SetScrollCallback(callback func(delta float32))           {}
func (w *fakeWindow) SetKeyDownCallback(callback func(keyCode uint32))         {}
func (w *fakeWindow) SetKeyUpCallback(callback func(keyCode uint32))           {}
func (w *fakeWindow) SetMiddleMouseDownCallback(callback func(x, y int32))     {}
func (w *fakeWindow) SetMiddleMouseUpCallback(callback func(x, y int32))       {}
func (w *fakeWindow) SetMouseMoveCallback(callback func(x, y int32))           {}
func (w *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor               { return nil }
func (w *fakeWindow) IsRunning() bool                                          { return true }
func (w *fakeWindow) Close() error                                             { return nil }
func (w *fakeWindow) ProcessMessages()                                         {}
func (w *fakeWindow) Width() int                                               { return w.width }
func (w *fakeWindow) Height() int                                              { return w.height }

// newTestEngine builds an engine over an empty scene and the fakes, fully
// initialized and ready for direct renderFrame calls.
func newTestEngine(t *testing.T) (*engine, *fakeRenderer, *fakeWindow) {
	t.Helper()
	fr := newFakeRenderer()
	fw := &fakeWindow{width: 320, height: 180}
	cam := camera.NewCamera(camera.WithController(camera.NewOrbitController()))
	scn := scene.NewScene("test", cam, fr)
	e := NewEngine(WithWindow(fw), WithScene(scn)).(*engine)
	if err := e.initGPU(); err != nil {
		t.Fatalf("initGPU: %v", err)
	}
	return e, fr, fw
}

// countTargets counts allocations of one named render target.
func countTargets(fr *fakeRenderer, label string) int {
	n := 0
	for _, desc := range fr.textures {
		if desc.Label == label {
			n++
		}
	}
	return n
}

func TestFirstFrameSeedsPreviousClipMatrix(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.renderFrame(0.016)

	// The views swap after a completed frame, so frame 0's view is prevVw.
	c := e.prevVw.Constants()
	if c.WorldToClip == identityMatrix() {
		t.Fatal("frame 0 never received camera matrices")
	}
	if c.PrevWorldToClip != c.WorldToClip {
		t.Error("frame 0 must render with zero motion, previous clip matrix seeded from the current one")
	}
}

func TestResizeRestartsAccumulation(t *testing.T) {
	e, _, fw := newTestEngine(t)
	e.UpdateSettings(func(s *Settings) {
		s.EnableAccumulation = true
		s.EnableTaa = false
	})

	for i := 0; i < 3; i++ {
		e.renderFrame(0.016)
	}
	if e.temporal.accumulationCount != 3 {
		t.Fatalf("static camera accumulated %d frames, want 3", e.temporal.accumulationCount)
	}

	// The camera does not move across a resize, but the rebuilt targets carry
	// no history, so accumulation must restart anyway.
	fw.width, fw.height = 640, 360
	e.renderFrame(0.016)
	if !e.lc.targets.IsCompatible(640, 360) {
		t.Fatal("render targets not rebuilt for the new resolution")
	}
	if e.temporal.accumulationCount != 1 {
		t.Errorf("post-resize accumulation count = %d, want 1", e.temporal.accumulationCount)
	}
}

func TestResizeRebuildsTargetsOnce(t *testing.T) {
	e, fr, fw := newTestEngine(t)

	e.renderFrame(0.016)
	e.renderFrame(0.016)
	if got := countTargets(fr, "hdr_color"); got != 1 {
		t.Fatalf("hdr_color allocated %d times across steady frames, want 1", got)
	}

	fw.width, fw.height = 640, 360
	e.renderFrame(0.016)
	e.renderFrame(0.016)
	if got := countTargets(fr, "hdr_color"); got != 2 {
		t.Errorf("hdr_color allocated %d times after one resize, want 2", got)
	}
}

func TestModeSwitchKeepsResourceBundles(t *testing.T) {
	e, fr, _ := newTestEngine(t)
	e.renderFrame(0.016)

	targets := e.lc.targets
	sampling := e.lc.sampling
	allocs := len(fr.textures)

	modes := []RenderingMode{
		DirectResamplingOnly,
		DirectResamplingWithBrdfIndirect,
		BrdfDirectOnly,
		DirectResamplingWithBrdfMIS,
	}
	for _, mode := range modes {
		e.UpdateSettings(func(s *Settings) { s.Mode = mode })
		e.renderFrame(0.016)
		if e.lc.targets != targets {
			t.Fatalf("mode %v rebuilt the render targets", mode)
		}
		if e.lc.sampling != sampling {
			t.Fatalf("mode %v rebuilt the sampling resources", mode)
		}
	}
	if len(fr.textures) != allocs {
		t.Errorf("mode switches allocated %d new textures", len(fr.textures)-allocs)
	}
}

func TestFrameStepWaitRepresentsWithoutAdvancing(t *testing.T) {
	e, fr, _ := newTestEngine(t)
	e.renderFrame(0.016)
	if e.frameIndex != 1 {
		t.Fatalf("frame index = %d after one frame, want 1", e.frameIndex)
	}

	e.UpdateSettings(func(s *Settings) { s.FrameStep = FrameStepWait })
	presents := fr.presents
	jitter := e.temporal.jitterIndex

	e.renderFrame(0.016)
	e.renderFrame(0.016)
	if e.frameIndex != 1 {
		t.Errorf("wait mode advanced the frame index to %d", e.frameIndex)
	}
	if e.temporal.jitterIndex != jitter {
		t.Error("wait mode advanced the jitter sequence")
	}
	if fr.presents != presents+2 {
		t.Errorf("wait mode presented %d times, want 2", fr.presents-presents)
	}
	if last := fr.streams[len(fr.streams)-1]; last.label != "representation" {
		t.Errorf("wait mode recorded stream %q, want the re-present stream", last.label)
	}

	// Stepping runs exactly one frame, then falls back to waiting.
	e.UpdateSettings(func(s *Settings) { s.FrameStep = FrameStepStep })
	e.renderFrame(0.016)
	if e.frameIndex != 2 {
		t.Errorf("single step left frame index at %d, want 2", e.frameIndex)
	}
	if e.Settings().FrameStep != FrameStepWait {
		t.Error("single step must revert to wait mode")
	}
}

// lastUploadedFrameIndex decodes FrameIndex from the most recent frame
// constants upload to the resampling pass.
func lastUploadedFrameIndex(t *testing.T, fr *fakeRenderer) uint32 {
	t.Helper()
	for i := len(fr.writes) - 1; i >= 0; i-- {
		w := fr.writes[i]
		if w.Provider != nil && w.Provider.Label() == "resample_frame" && w.Binding == 0 {
			return binary.LittleEndian.Uint32(w.Data[:4])
		}
	}
	t.Fatal("no frame constants upload recorded")
	return 0
}

func TestBenchmarkRendersSampledPathFrame(t *testing.T) {
	e, fr, _ := newTestEngine(t)
	e.scn.SetCameraPath(scene.NewCameraPath(60,
		scene.CameraKeyframe{Time: 0, Position: [3]float32{0, 1, 8}, Target: [3]float32{0, 1, 0}},
		scene.CameraKeyframe{Time: 1, Position: [3]float32{8, 1, 0}, Target: [3]float32{0, 1, 0}},
	))
	e.UpdateSettings(func(s *Settings) { s.Benchmark = true })

	// The animation clock advances past the sampled frame within the same
	// renderFrame call; the shaders must still see the sampled index.
	fr.writes = nil
	e.renderFrame(0.016)
	if got := lastUploadedFrameIndex(t, fr); got != 0 {
		t.Errorf("first benchmark frame uploaded frame index %d, want 0", got)
	}
	if got := e.Settings().AnimationFrame; got != 1 {
		t.Fatalf("animation clock = %d after the first benchmark frame, want 1", got)
	}

	fr.writes = nil
	e.renderFrame(0.016)
	if got := lastUploadedFrameIndex(t, fr); got != 1 {
		t.Errorf("second benchmark frame uploaded frame index %d, want 1", got)
	}
}

func TestAcquireFailureDiscardsFrameStream(t *testing.T) {
	e, fr, _ := newTestEngine(t)
	fr.failAcquire = true
	e.renderFrame(0.016)

	cs := fr.streams[len(fr.streams)-1]
	if cs.label != "frame" {
		t.Fatalf("last stream = %q, want the frame stream", cs.label)
	}
	if !cs.discarded {
		t.Error("frame stream must be discarded when the surface cannot be acquired")
	}
	if cs.submitted {
		t.Error("frame stream must not be submitted after an acquire failure")
	}
	if e.frameIndex != 0 {
		t.Errorf("frame index advanced to %d on a failed frame", e.frameIndex)
	}
}

func TestAcquireFailureDiscardsRepresentStream(t *testing.T) {
	e, fr, _ := newTestEngine(t)
	e.renderFrame(0.016)
	e.UpdateSettings(func(s *Settings) { s.FrameStep = FrameStepWait })

	fr.failAcquire = true
	e.renderFrame(0.016)

	cs := fr.streams[len(fr.streams)-1]
	if cs.label != "representation" {
		t.Fatalf("last stream = %q, want the re-present stream", cs.label)
	}
	if !cs.discarded {
		t.Error("re-present stream must be discarded when the surface cannot be acquired")
	}
	if cs.submitted {
		t.Error("re-present stream must not be submitted after an acquire failure")
	}
}
