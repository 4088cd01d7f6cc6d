package engine

import (
	"encoding/binary"
	"errors"
	"log"
	"math"
	"sync"
	"time"

	"github.com/Carmen-Shannon/lumen-go/engine/envmap"
	"github.com/Carmen-Shannon/lumen-go/engine/light"
	"github.com/Carmen-Shannon/lumen-go/engine/pass"
	"github.com/Carmen-Shannon/lumen-go/engine/profiler"
	"github.com/Carmen-Shannon/lumen-go/engine/renderer"
	"github.com/Carmen-Shannon/lumen-go/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/lumen-go/engine/renderer/shader"
	"github.com/Carmen-Shannon/lumen-go/engine/restir"
	"github.com/Carmen-Shannon/lumen-go/engine/scene"
	"github.com/Carmen-Shannon/lumen-go/engine/view"
	"github.com/Carmen-Shannon/lumen-go/engine/window"
	"github.com/Carmen-Shannon/lumen-go/shaders"
	"github.com/cogentcore/webgpu/wgpu"
)

// engine implements the Engine interface.
// Coordinates the tick, render, and window threads and sequences the frame.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window window.Window
	scn    scene.Scene

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)

	// mu guards settings. The render goroutine holds it for the duration of a
	// frame, so UpdateSettings callers apply between frames.
	mu       sync.Mutex
	settings Settings

	envPaths []string
	registry envmap.Registry
	factory  shader.Factory
	lc       *lifecycle

	// vw is the frame's view; prevVw held last frame's matrices for motion
	// vector reconstruction. The pair swaps after every completed frame.
	vw     view.View
	prevVw view.View

	temporal   temporalPolicy
	frameIndex uint32

	// framesSinceAnimation implements the acceleration structure refresh
	// hysteresis: the BVH rebuilds for one extra frame after animation stops
	// so the previous-frame geometry the temporal passes sample stays valid.
	framesSinceAnimation int

	forceRasterGBuffer bool
	benchmarkActive    bool

	centerFrozen bool
	frozenCenter [3]float32

	lastSky    pass.SkyParams
	haveSky    bool
	prevLights []byte

	readbackBuf     *wgpu.Buffer
	readbackPending int
}

// Engine is the main entry point. It owns the frame sequence: resource
// validation, scene animation, the lighting pass chain, temporal policy, and
// presentation.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Scene returns the scene the engine renders.
	//
	// Returns:
	//   - scene.Scene: the active scene
	Scene() scene.Scene

	// Settings returns a copy of the current settings snapshot.
	//
	// Returns:
	//   - Settings: the settings as of the last completed frame
	Settings() Settings

	// UpdateSettings applies a mutation to the settings between frames. The
	// mutation blocks until any in-flight frame completes, so one-shot request
	// flags set here are observed by the very next frame.
	//
	// Parameters:
	//   - fn: the mutation to apply
	UpdateSettings(fn func(*Settings))

	// Environments returns the environment source registry for source
	// selection and reload requests.
	//
	// Returns:
	//   - envmap.Registry: the registry
	Environments() envmap.Registry

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in ticks per second.
	// The tick callback will be called at this rate for input and game logic.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick.
	// Use this for input processing and camera control.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// Run starts the main engine loop (blocks until window closes).
	Run()

	// Quit signals all engine goroutines to stop and shuts down the engine.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine instance with the provided options.
// GPU resources are not touched until Run; construction only wires state.
//
// Parameters:
//   - options: functional options for engine configuration (window, scene, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		profiler:        profiler.NewProfiler(),
		engineTickRate:  time.Second / 60,
		settings:        DefaultSettings(),
	}

	for _, opt := range options {
		opt(e)
	}

	if e.window != nil {
		e.window.SetResizeCallback(func(width, height int) {
			if e.scn == nil {
				return
			}
			if r := e.scn.Renderer(); r != nil {
				r.Resize(width, height)
			}
			if c := e.scn.Camera(); c != nil && height > 0 {
				c.SetAspect(float32(width) / float32(height))
			}
		})
	}

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Scene() scene.Scene {
	return e.scn
}

func (e *engine) Settings() Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

func (e *engine) UpdateSettings(fn func(*Settings)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.settings)
}

func (e *engine) Environments() envmap.Registry {
	return e.registry
}

func (e *engine) Run() {
	if err := e.initGPU(); err != nil {
		log.Fatalf("engine startup: %v", err)
	}
	e.handle()
	e.window.ProcessMessages()
}

// initGPU performs the one-time GPU setup: feature gating, scene upload, and
// environment source loading. VSync stays on through the load so the window
// does not spin before the first real frame.
func (e *engine) initGPU() error {
	if e.window == nil {
		return errors.New("no window configured")
	}
	if e.scn == nil {
		return errors.New("no scene configured")
	}
	r := e.scn.Renderer()
	if r == nil {
		return errors.New("scene has no renderer")
	}

	if !r.SupportsFeature(renderer.FeatureRayQuery) && !r.SupportsFeature(renderer.FeatureRayPipeline) {
		return errors.New("device supports neither ray queries nor ray tracing pipelines")
	}
	if !r.SupportsFeature(renderer.FeatureRayQuery) {
		log.Println("ray queries unavailable, forcing rasterized G-buffer")
		e.forceRasterGBuffer = true
	}

	r.SetPresentMode(renderer.PresentModeVSync)

	if err := e.scn.InitGPU(); err != nil {
		return err
	}

	e.factory = shader.NewFactory(shaders.FS)
	e.registry = envmap.NewRegistry(r, e.envPaths...)
	if err := e.registry.Reload(); err != nil {
		// Failed sources have been pruned; the procedural sky remains.
		log.Printf("environment load: %v", err)
	}
	e.lc = newLifecycle(r, e.factory, e.registry)

	width, height := uint32(e.window.Width()), uint32(e.window.Height())
	e.vw = view.NewView(width, height)
	e.prevVw = view.NewView(width, height)
	if c := e.scn.Camera(); c != nil && height > 0 {
		c.SetAspect(float32(width) / float32(height))
	}

	r.SetPresentMode(renderer.PresentModeUncapped)
	e.running = true
	return nil
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running = false
		close(e.quitChannel)
	})
}

// handle launches the engine, render, and quit goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(3)
	go e.handleEngine()
	go e.handleRender()
	go e.handleQuit()
}

// handleEngine runs the fixed-rate engine tick loop in its own goroutine.
// Fires the tick callback at the configured tick rate and listens for dynamic
// rate changes via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// handleRender runs the render loop in its own goroutine. Each iteration runs
// one full frame through renderFrame, then spins down the remainder of the
// frame budget when the FPS limiter is active. Recovers from panics to avoid
// crashing the process and signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("render goroutine recovered from panic: %v", r)
			e.signalQuit()
		}
	}()

	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
			frameStart := time.Now()
			dt := float32(frameStart.Sub(lastRender).Seconds())
			lastRender = frameStart

			minFrameTime := e.renderFrame(dt)

			if e.profilingEnabled {
				e.profiler.Tick()
			}

			// The limiter spins in short sleeps rather than one long one;
			// coarse timer resolution would otherwise overshoot the budget.
			for minFrameTime > 0 && time.Since(frameStart) < minFrameTime {
				time.Sleep(100 * time.Microsecond)
			}
		}
	}
}

// handleQuit blocks until the quit channel is closed, then releases the GPU
// resources the engine owns and decrements the WaitGroup.
func (e *engine) handleQuit() {
	defer e.wg.Done()
	<-e.quitChannel
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lc != nil {
		e.lc.release()
	}
}

// renderFrame runs one full frame: settings intake, frame-step gating,
// benchmark and animation advancement, temporal policy, resource validation,
// the lighting pass chain, presentation, and post-frame state capture.
//
// Parameters:
//   - dt: seconds since the previous frame
//
// Returns:
//   - time.Duration: the minimum frame duration for the FPS limiter, 0 when uncapped
func (e *engine) renderFrame(dt float32) time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := &e.settings

	if e.forceRasterGBuffer {
		s.UseRayTracedGBuffer = false
	}

	var minFrameTime time.Duration
	if s.EnableFpsLimit && s.FpsLimit > 0 {
		minFrameTime = time.Second / time.Duration(s.FpsLimit)
	}

	width, height := uint32(e.window.Width()), uint32(e.window.Height())
	if width == 0 || height == 0 {
		return minFrameTime
	}

	if s.FrameStep == FrameStepWait {
		e.presentLastFrame()
		return minFrameTime
	}
	singleStep := s.FrameStep == FrameStepStep

	r := e.scn.Renderer()

	// Benchmark transitions. Entering resets the profiler's section
	// aggregation and the animation clock; the run ends when the camera path
	// is exhausted.
	if s.Benchmark && !e.benchmarkActive {
		e.benchmarkActive = true
		s.AnimationFrame = 0
		e.profiler.BeginBenchmark()
	}
	// The frame the camera path was sampled at; the counter advances past it
	// immediately, so rendering reads this captured value.
	benchFrame := s.AnimationFrame
	if s.Benchmark {
		if e.scn.ApplyCameraPath(s.AnimationFrame) {
			s.AnimationFrame++
		} else {
			s.Benchmark = false
			e.benchmarkActive = false
			s.BenchmarkResults = e.profiler.EndBenchmark()
		}
	} else if e.benchmarkActive {
		e.benchmarkActive = false
	}

	effectiveFrame := e.frameIndex
	if e.benchmarkActive {
		effectiveFrame = benchFrame
	}
	if s.FreezeRandom {
		effectiveFrame = 0
	}

	animated := false
	if s.EnableAnimations || e.benchmarkActive {
		animated = e.scn.Animate(dt)
	}
	if animated {
		e.framesSinceAnimation = 0
	} else if e.framesSinceAnimation < 2 {
		e.framesSinceAnimation++
	}
	if e.framesSinceAnimation < 2 {
		accelStart := time.Now()
		if err := e.scn.RefreshAccel(); err != nil {
			log.Printf("acceleration structure refresh: %v", err)
			e.signalQuit()
			return 0
		}
		if e.profilingEnabled {
			e.profiler.Record([]renderer.Section{{Label: "Accel Update", Duration: time.Since(accelStart)}})
		}
	}

	// A full environment reload must land before resource validation so the
	// sampling bundle sizes against the new texture dimensions.
	if e.registry.DirtyLevel() == envmap.DirtyFull {
		if err := e.registry.Reload(); err != nil {
			log.Printf("environment reload: %v", err)
		}
	}

	cam := e.scn.Camera()
	cam.Update()
	ctrl := cam.Controller()

	viewMatrix := cam.ViewMatrix()
	// A resolution change rebuilds the render targets below, dropping the
	// accumulated history, so accumulation restarts even though the view
	// matrix did not move.
	if e.lc.targets == nil || !e.lc.targets.IsCompatible(width, height) {
		e.temporal.invalidate()
	}
	decision := e.temporal.evaluate(viewMatrix, s.EnableAccumulation, s.AccumulationTarget, s.ResetAccumulation)
	s.ResetAccumulation = false

	jitterIndex := e.temporal.advanceJitter(effectiveFrame, s.EnableAccumulation, s.Checkerboard.Enabled())
	jx, jy := view.Jitter(jitterIndex)

	e.vw.SetViewport(width, height)
	e.vw.SetMatrices(viewMatrix, ctrl.Position(), cam.Fov(), cam.Near())
	e.vw.SetPixelOffset(jx, jy)
	if e.frameIndex == 0 {
		// No completed frame exists yet; the previous matrix seeds from the
		// current one so first-frame motion vectors are zero.
		e.vw.CopyPreviousFrom(e.vw)
	} else {
		e.vw.CopyPreviousFrom(e.prevVw)
	}

	stats := e.scn.Stats()

	if err := e.lc.prepare(e.scn, s, stats, width, height); err != nil {
		log.Printf("frame resource preparation: %v", err)
		e.signalQuit()
		return 0
	}
	e.lc.targets.NextFrame()

	cs, err := r.OpenStream("frame")
	if err != nil {
		log.Printf("open command stream: %v", err)
		return minFrameTime
	}

	e.uploadLights(r, s, stats)
	e.lc.gbuffer.WriteViewConstants(e.vw.Constants())

	e.renderEnvironment(cs, s)

	cs.BeginSection("Light Preparation")
	e.lc.prepareLights.Render(cs, stats.EmissiveTriangles)
	if s.LocalLightImportanceSampling {
		e.lc.pdfMipmap.ReduceLocalLightPdf(cs)
	}
	cs.EndSection()

	if s.UseRayTracedGBuffer {
		e.lc.gbuffer.RenderRayTraced(cs)
	} else {
		e.lc.gbuffer.RenderRaster(cs, e.scn.Draws())
	}

	in := e.frameInputs(s, stats, effectiveFrame, ctrl.Position(), width, height, decision.accumulationWeight)
	plan := planFor(s.Mode)
	if plan.runResampling {
		e.lc.resample.Render(cs, in, plan.resamplingFlags)
	}
	if plan.runBrdfRays {
		e.lc.brdfRays.Render(cs, in, plan.brdfFlags)
	}

	useDenoised := s.EnableDenoiser && e.lc.den != nil
	if useDenoised {
		e.lc.den.Render(cs)
	}
	e.lc.composite.Render(cs, useDenoised, in.EnvironmentScale)

	if e.scn.HasGlass() {
		e.lc.glass.Render(cs, e.scn.GlassIor(), s.GlassTintStrength)
	}

	if s.EnableAccumulation {
		e.lc.accumulation.Render(cs, decision.accumulationWeight)
	} else if s.EnableTaa {
		e.lc.taa.Render(cs, decision.taaClamp, 0.1)
	}
	if s.EnableTonemap {
		e.lc.tonemap.Render(cs, s.Gamma)
	}

	e.serviceReadback(cs, r, s, width, height)

	surface, err := r.AcquireSurfaceView()
	if err != nil {
		log.Printf("acquire surface: %v", err)
		cs.Discard()
		return minFrameTime
	}
	e.lc.blit.Render(cs, surface)

	if err := r.SubmitStream(cs); err != nil {
		log.Printf("submit frame: %v", err)
		return minFrameTime
	}
	if e.profilingEnabled {
		e.profiler.Record(cs.Sections())
	}
	r.Present()

	e.temporal.commit(viewMatrix)
	e.vw, e.prevVw = e.prevVw, e.vw
	e.frameIndex++

	if singleStep {
		s.FrameStep = FrameStepWait
	}
	return minFrameTime
}

// presentLastFrame re-presents the last completed frame without advancing any
// state. Used while frame stepping holds the sequence in wait mode.
func (e *engine) presentLastFrame() {
	if e.lc == nil || !e.lc.ready() {
		return
	}
	r := e.scn.Renderer()
	cs, err := r.OpenStream("representation")
	if err != nil {
		return
	}
	surface, err := r.AcquireSurfaceView()
	if err != nil {
		cs.Discard()
		return
	}
	e.lc.blit.Render(cs, surface)
	if err := r.SubmitStream(cs); err != nil {
		return
	}
	r.Present()
}

// uploadLights marshals the frame's light buffer and stages it together with
// the previous frame's data, which temporal resampling reads for reprojected
// reservoir validation.
func (e *engine) uploadLights(r renderer.Renderer, s *Settings, stats light.Stats) {
	env := e.scn.EnvironmentLight()
	if env != nil {
		env.SetRotation(s.EnvironmentRotation)
		env.SetIntensityBias(s.EnvironmentIntensityBias)
		slot := -1
		if s.EnableEnvironmentMap {
			slot = e.registry.TextureSlot()
		}
		env.SetTextureSlot(slot)
	}

	var envLight light.EnvironmentLight
	if s.EnableEnvironmentMap {
		envLight = env
	}
	// A file-backed environment map carries its own sun, so the analytic
	// directional sun is muted while one is active.
	sunScale := float32(1)
	if s.EnableEnvironmentMap && e.registry.IsFileBacked() {
		sunScale = 0
	}
	data := light.MarshalLightBuffer(e.scn.Lights(), envLight, stats.EmissiveTriangles, sunScale)

	prev := e.prevLights
	if len(prev) != len(data) {
		// Light count changed; the previous layout no longer matches, so seed
		// the history with the current frame.
		prev = data
	}
	r.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: e.lc.lightBindings, Binding: 0, Data: data},
		{Provider: e.lc.lightBindings, Binding: 1, Data: prev},
	})
	e.prevLights = data
}

// renderEnvironment keeps the environment texture and its PDF mipmap current:
// the procedural sky redraws when its parameters change, and the PDF rebuilds
// whenever the texture content or the pipelines did.
func (e *engine) renderEnvironment(cs renderer.CommandStream, s *Settings) {
	skyChanged := !e.registry.IsFileBacked() && (!e.haveSky || s.Sky != e.lastSky)
	if skyChanged {
		e.lc.sky.Render(cs, s.Sky)
		e.lastSky = s.Sky
		e.haveSky = true
	}
	if skyChanged || e.registry.DirtyLevel() == envmap.DirtyPdf {
		e.lc.pdfMipmap.BuildEnvironmentPdf(cs)
		e.registry.MarkPdfRegenerated()
	}
}

// frameInputs assembles the shared per-frame constants the lighting passes
// upload.
func (e *engine) frameInputs(s *Settings, stats light.Stats, effectiveFrame uint32, cameraPosition [3]float32, width, height uint32, accumulationWeight float32) pass.FrameInputs {
	center := cameraPosition
	if s.FreezeImportanceCenter {
		if !e.centerFrozen {
			e.frozenCenter = center
			e.centerFrozen = true
		}
		center = e.frozenCenter
	} else {
		e.centerFrozen = false
	}

	var envScale float32
	if s.EnableEnvironmentMap {
		envScale = float32(math.Exp2(float64(s.EnvironmentIntensityBias)))
	}

	return pass.FrameInputs{
		Params: restir.FrameParams{
			FrameIndex:                   effectiveFrame,
			ImportanceCenter:             center,
			CellSize:                     s.ImportanceCellSize,
			LocalLightCount:              stats.TotalLights(),
			LocalLightImportanceSampling: s.LocalLightImportanceSampling,
			EnvironmentLightPresent:      s.EnableEnvironmentMap,
		},
		Checkerboard:       s.Checkerboard,
		Viewport:           [2]float32{float32(width), float32(height)},
		AccumulationWeight: accumulationWeight,
		EnvironmentScale:   envScale,
	}
}

// serviceReadback schedules a requested G-buffer albedo readback and harvests
// it two frames later, once the copied data is safely past the GPU pipeline.
func (e *engine) serviceReadback(cs renderer.CommandStream, r renderer.Renderer, s *Settings, width, height uint32) {
	if s.ReadbackRequested {
		s.ReadbackRequested = false
		if e.readbackBuf == nil {
			buf, err := r.CreateBuffer("albedo readback", 256, wgpu.BufferUsageCopyDst|wgpu.BufferUsageMapRead)
			if err != nil {
				log.Printf("readback buffer: %v", err)
				return
			}
			e.readbackBuf = buf
		}
		x, y := s.ReadbackPosition[0], s.ReadbackPosition[1]
		if x >= width {
			x = width - 1
		}
		if y >= height {
			y = height - 1
		}
		cs.CopyTexturePixel(e.lc.targets.DiffuseAlbedo(), x, y, e.readbackBuf)
		e.readbackPending = 2
		return
	}
	if e.readbackPending > 0 {
		e.readbackPending--
		if e.readbackPending == 0 {
			data, err := r.ReadBuffer(e.readbackBuf, 4)
			if err != nil {
				log.Printf("readback: %v", err)
				return
			}
			s.ReadbackResult = binary.LittleEndian.Uint32(data)
		}
	}
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetTickRate sets the engine tick rate in ticks per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Second / time.Duration(fps)

	if e.running {
		// Send to channel for immediate update in running engine loop
		// Non-blocking send - if channel is full, replace the pending value
		select {
		case e.tickRateChannel <- newRate:
		default:
			// Channel has a pending update, drain and send new value
			select {
			case <-e.tickRateChannel:
			default:
			}
			e.tickRateChannel <- newRate
		}
	} else {
		// Engine not running, just update the field
		e.engineTickRate = newRate
	}
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}
