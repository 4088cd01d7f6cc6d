package engine

import (
	"fmt"
	"log"

	"github.com/Carmen-Shannon/lumen-go/engine/denoiser"
	"github.com/Carmen-Shannon/lumen-go/engine/envmap"
	"github.com/Carmen-Shannon/lumen-go/engine/light"
	"github.com/Carmen-Shannon/lumen-go/engine/pass"
	"github.com/Carmen-Shannon/lumen-go/engine/renderer"
	"github.com/Carmen-Shannon/lumen-go/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/lumen-go/engine/renderer/shader"
	"github.com/Carmen-Shannon/lumen-go/engine/resources"
	"github.com/Carmen-Shannon/lumen-go/engine/restir"
	"github.com/Carmen-Shannon/lumen-go/engine/scene"
)

// displayChain fingerprints the settings that select which textures the post
// chain binds. Any change forces a binding set rebuild.
type displayChain struct {
	accumulation bool
	taa          bool
	tonemap      bool
	denoised     bool
}

// lifecycle owns every GPU resource bundle and pass object the frame binds,
// and guarantees that before any pass executes, everything it references is
// valid for the frame's resolution, light statistics, context parameters, and
// scene geometry. Resources rebuild on demand, never eagerly, in a strict
// order: render targets, resampling context, sampling resources, pipelines,
// then binding sets. Descriptor releases are always preceded by a GPU idle
// wait.
type lifecycle struct {
	r        renderer.Renderer
	factory  shader.Factory
	registry envmap.Registry

	targets  *resources.RenderTargets
	ctx      restir.Context
	sampling *resources.SamplingResources

	gbuffer       *pass.GBufferPass
	prepareLights *pass.PrepareLightsPass
	resample      *pass.ResamplePass
	brdfRays      *pass.BrdfRaysPass
	pdfMipmap     *pass.PdfMipmapPass
	sky           *pass.SkyPass
	composite     *pass.CompositePass
	glass         *pass.GlassPass
	accumulation  *pass.AccumulationPass
	taa           *pass.TaaPass
	tonemap       *pass.TonemapPass
	blit          *pass.BlitPass
	den           *denoiser.Denoiser

	// lightBindings wraps the sampling bundle's light buffers so light data
	// uploads can go through the renderer's staged write path: binding 0 is
	// the current light buffer, binding 1 the previous frame's.
	lightBindings bind_group_provider.BindGroupProvider

	pipelinesValid  bool
	bindingsValid   bool
	geometryVersion uint64
	envTexture      renderer.Texture
	display         displayChain
}

func newLifecycle(r renderer.Renderer, factory shader.Factory, registry envmap.Registry) *lifecycle {
	return &lifecycle{
		r:             r,
		factory:       factory,
		registry:      registry,
		gbuffer:       pass.NewGBufferPass(r, factory),
		prepareLights: pass.NewPrepareLightsPass(r, factory),
		resample:      pass.NewResamplePass(r, factory),
		brdfRays:      pass.NewBrdfRaysPass(r, factory),
		pdfMipmap:     pass.NewPdfMipmapPass(r, factory),
		sky:           pass.NewSkyPass(r, factory),
		composite:     pass.NewCompositePass(r, factory),
		glass:         pass.NewGlassPass(r, factory),
		accumulation:  pass.NewAccumulationPass(r, factory),
		taa:           pass.NewTaaPass(r, factory),
		tonemap:       pass.NewTonemapPass(r, factory),
		blit:          pass.NewBlitPass(r, factory),
	}
}

// ready reports whether a full frame has been prepared at least once, which
// the frame-step wait mode needs before it can re-present.
func (l *lifecycle) ready() bool {
	return l.targets != nil && l.bindingsValid
}

// prepare validates every resource bundle against the frame's inputs and
// rebuilds whatever is stale. Called once per frame before any pass records.
// Rebuild failures are returned as errors and are fatal to the frame loop.
//
// Parameters:
//   - scn: the scene providing geometry buffers
//   - s: the frame's settings snapshot; ReloadShaders is cleared in place and
//     EnableDenoiser is forced off when denoiser construction fails
//   - stats: the scene's current light statistics
//   - width, height: the output resolution
//
// Returns:
//   - error: an error if any resource rebuild fails
func (l *lifecycle) prepare(scn scene.Scene, s *Settings, stats light.Stats, width, height uint32) error {
	if s.ReloadShaders {
		s.ReloadShaders = false
		l.factory.ClearCache()
		l.dropPipelines()
		// A pipeline rebuild invalidates the PDF generation dispatches even
		// when the environment data itself is unchanged.
		l.registry.MarkPipelinesChanged()
	}

	if l.targets == nil || !l.targets.IsCompatible(width, height) {
		l.r.WaitForIdle()
		l.releaseBindingSets()
		if l.targets != nil {
			l.targets.Release()
		}
		targets, err := resources.NewRenderTargets(l.r, width, height)
		if err != nil {
			return fmt.Errorf("render targets %dx%d: %w", width, height, err)
		}
		l.targets = targets
		l.ctx = nil
		l.dropSampling()
	}

	desired := restir.DefaultContextParams(width, height)
	desired.Checkerboard = s.Checkerboard
	if l.ctx == nil || l.ctx.Params() != desired {
		l.ctx = restir.NewContext(desired)
		l.dropSampling()
	}

	envWidth, envHeight := l.registry.Size()
	if l.sampling == nil || !l.sampling.IsCompatible(l.ctx.Params(), stats, envWidth, envHeight) {
		l.r.WaitForIdle()
		l.releaseBindingSets()
		l.dropSampling()
		sampling, err := resources.NewSamplingResources(l.r, l.ctx, stats, envWidth, envHeight)
		if err != nil {
			return fmt.Errorf("sampling resources: %w", err)
		}
		l.sampling = sampling
		l.lightBindings = bind_group_provider.NewBindGroupProvider("light_upload")
		l.lightBindings.SetBuffer(0, sampling.LightBuffer)
		l.lightBindings.SetBuffer(1, sampling.PrevLightBuffer)
	}

	if gv := scn.GeometryVersion(); gv != l.geometryVersion {
		l.geometryVersion = gv
		l.bindingsValid = false
	}
	if l.envTexture != l.registry.Texture() {
		l.bindingsValid = false
	}

	if err := l.prepareDenoiser(s); err != nil {
		return err
	}

	display := displayChain{
		accumulation: s.EnableAccumulation,
		taa:          s.EnableTaa,
		tonemap:      s.EnableTonemap,
		denoised:     s.EnableDenoiser && l.den != nil,
	}
	if display != l.display {
		l.bindingsValid = false
	}

	if !l.pipelinesValid {
		if err := l.createPipelines(); err != nil {
			return err
		}
		l.pipelinesValid = true
		l.bindingsValid = false
	}

	if !l.bindingsValid {
		if err := l.createBindingSets(scn, display); err != nil {
			return err
		}
		l.bindingsValid = true
		l.display = display
	}
	return nil
}

// prepareDenoiser reconstructs the denoiser when the method changes and forces
// the toggle off when construction fails. The checkerboard setting mirrors the
// resampling context's.
func (l *lifecycle) prepareDenoiser(s *Settings) error {
	if s.EnableDenoiser && (l.den == nil || l.den.Method() != s.DenoiserMethod) {
		l.r.WaitForIdle()
		if l.den != nil {
			l.den.Release()
			l.den.DropPipelines()
			l.den = nil
		}
		den, err := denoiser.New(l.r, l.factory, s.DenoiserMethod)
		if err != nil {
			log.Printf("denoiser unavailable, disabling: %v", err)
			s.EnableDenoiser = false
		} else {
			l.den = den
		}
		l.bindingsValid = false
	}
	if l.den != nil {
		l.den.SetCheckerboard(s.Checkerboard)
	}
	return nil
}

func (l *lifecycle) createPipelines() error {
	type pipelined interface{ CreatePipelines() error }
	passes := []pipelined{
		l.gbuffer, l.prepareLights, l.resample, l.brdfRays, l.pdfMipmap,
		l.sky, l.composite, l.glass, l.accumulation, l.taa, l.tonemap, l.blit,
	}
	for _, p := range passes {
		if err := p.CreatePipelines(); err != nil {
			return fmt.Errorf("create pipelines: %w", err)
		}
	}
	if l.den != nil {
		if err := l.den.CreatePipelines(); err != nil {
			return fmt.Errorf("create denoiser pipeline: %w", err)
		}
	}
	return nil
}

func (l *lifecycle) dropPipelines() {
	type droppable interface{ DropPipelines() }
	passes := []droppable{
		l.gbuffer, l.prepareLights, l.resample, l.brdfRays, l.pdfMipmap,
		l.sky, l.composite, l.glass, l.accumulation, l.taa, l.tonemap, l.blit,
	}
	for _, p := range passes {
		p.DropPipelines()
	}
	if l.den != nil {
		l.den.DropPipelines()
	}
	l.pipelinesValid = false
}

// createBindingSets builds every pass's bind groups in dependency order. The
// caller has already drained the GPU and released the previous sets via the
// resource rebuild paths; releasing again here is safe because each pass's
// CreateBindingSet drops its own stale set first.
func (l *lifecycle) createBindingSets(scn scene.Scene, display displayChain) error {
	l.r.WaitForIdle()

	rt := l.targets
	sr := l.sampling
	env := l.registry.Texture()

	if err := l.gbuffer.CreateBindingSet(rt, scn.BvhBuffer(), scn.TriangleBuffer()); err != nil {
		return err
	}
	if err := l.prepareLights.CreateBindingSet(sr, scn.EmissiveTriangleBuffer()); err != nil {
		return err
	}
	if err := l.resample.CreateBindingSet(rt, sr); err != nil {
		return err
	}
	if err := l.brdfRays.CreateBindingSet(rt, sr, scn.BvhBuffer(), scn.TriangleBuffer()); err != nil {
		return err
	}
	if err := l.pdfMipmap.CreateBindingSet(sr, env); err != nil {
		return err
	}
	if err := l.sky.CreateBindingSet(env); err != nil {
		return err
	}

	diffuse, specular := rt.DiffuseLighting, rt.SpecularLighting
	if display.denoised {
		diffuse, specular = rt.DenoisedDiffuse, rt.DenoisedSpecular
	}
	if err := l.composite.CreateBindingSet(rt, diffuse, specular, env); err != nil {
		return err
	}
	if err := l.glass.CreateBindingSet(rt); err != nil {
		return err
	}
	if err := l.accumulation.CreateBindingSet(rt); err != nil {
		return err
	}
	if err := l.taa.CreateBindingSet(rt); err != nil {
		return err
	}

	// The tone map reads the end of whichever temporal chain is active;
	// accumulation wins over TAA when both are enabled.
	tmSrc, tmPrev := rt.HdrColor, rt.HdrColor
	switch {
	case display.accumulation:
		tmSrc, tmPrev = rt.AccumulatedColor, rt.AccumulatedColor
	case display.taa:
		tmSrc, tmPrev = rt.TaaFeedback(), rt.PrevTaaFeedback()
	}
	if err := l.tonemap.CreateBindingSet(rt, tmSrc, tmPrev); err != nil {
		return err
	}

	blitSrc, blitPrev := tmSrc, tmPrev
	if display.tonemap {
		blitSrc, blitPrev = rt.LdrColor, rt.LdrColor
	}
	if err := l.blit.CreateBindingSet(rt, blitSrc, blitPrev); err != nil {
		return err
	}

	if l.den != nil {
		if err := l.den.CreateBindingSet(rt); err != nil {
			return err
		}
	}

	l.envTexture = env
	return nil
}

func (l *lifecycle) releaseBindingSets() {
	type releasable interface{ Release() }
	passes := []releasable{
		l.gbuffer, l.prepareLights, l.resample, l.brdfRays, l.pdfMipmap,
		l.sky, l.composite, l.glass, l.accumulation, l.taa, l.tonemap, l.blit,
	}
	for _, p := range passes {
		p.Release()
	}
	if l.den != nil {
		l.den.Release()
	}
	l.bindingsValid = false
}

// dropSampling releases the sampling bundle and its upload provider. The
// caller is responsible for the idle wait.
func (l *lifecycle) dropSampling() {
	if l.sampling != nil {
		l.sampling.Release()
		l.sampling = nil
	}
	l.lightBindings = nil
	l.bindingsValid = false
}

// release frees everything the lifecycle owns, in reverse dependency order.
func (l *lifecycle) release() {
	l.r.WaitForIdle()
	l.releaseBindingSets()
	l.dropPipelines()
	l.dropSampling()
	if l.targets != nil {
		l.targets.Release()
		l.targets = nil
	}
	if l.den != nil {
		l.den = nil
	}
}
