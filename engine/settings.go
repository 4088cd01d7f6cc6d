package engine

import (
	"github.com/Carmen-Shannon/lumen-go/engine/denoiser"
	"github.com/Carmen-Shannon/lumen-go/engine/pass"
	"github.com/Carmen-Shannon/lumen-go/engine/restir"
)

// FrameStepMode freezes frame advancement for debugging.
type FrameStepMode int

const (
	// FrameStepDisabled runs frames normally.
	FrameStepDisabled FrameStepMode = iota

	// FrameStepWait re-presents the last completed frame without running any
	// pass or advancing temporal state.
	FrameStepWait

	// FrameStepStep runs exactly one full frame, then reverts to FrameStepWait.
	FrameStepStep
)

// Settings is the runtime configuration snapshot the frame sequencer reads at
// the start of every frame. Most fields are read-only to the sequencer; the
// one-shot request flags (ReloadShaders, ResetAccumulation, readback and
// benchmark state) are cleared or written back in place, which is why the
// sequencer receives the snapshot by pointer.
type Settings struct {
	// Mode selects the direct lighting strategy.
	Mode RenderingMode

	// UseRayTracedGBuffer fills the G-buffer with rays instead of
	// rasterization. Forced off when ray queries are unsupported.
	UseRayTracedGBuffer bool

	// EnableAccumulation blends static-camera frames into a running average.
	// Mutually exclusive with TAA; accumulation wins when both are set.
	EnableAccumulation bool

	// AccumulationTarget caps the accumulated frame count. 0 = unbounded.
	AccumulationTarget uint32

	// EnableTaa runs the temporal anti-aliasing resolve.
	EnableTaa bool

	// EnableTonemap runs the tone mapping pass before the blit.
	EnableTonemap bool

	// Gamma is the display gamma applied by the tone mapping pass.
	Gamma float32

	// EnableDenoiser runs the denoiser over the lighting channels. Forced off
	// when denoiser construction fails.
	EnableDenoiser bool

	// DenoiserMethod selects the denoising kernel. Changing it discards and
	// reconstructs the denoiser.
	DenoiserMethod denoiser.Method

	// Checkerboard selects the resampling field rendering mode. Changing it
	// recreates the resampling context.
	Checkerboard restir.CheckerboardMode

	// LocalLightImportanceSampling enables the presampled importance grid and
	// the local light PDF mipmap.
	LocalLightImportanceSampling bool

	// ImportanceCellSize is the world-space edge length of one importance
	// grid cell.
	ImportanceCellSize float32

	// FreezeImportanceCenter keeps the importance grid centered where it was
	// instead of following the camera.
	FreezeImportanceCenter bool

	// FreezeRandom pins the effective frame index to 0, freezing every random
	// sequence.
	FreezeRandom bool

	// EnableEnvironmentMap lights the scene with the active environment
	// source. When off, environment contribution and its light slot are
	// disabled entirely.
	EnableEnvironmentMap bool

	// EnvironmentIntensityBias scales environment radiance by exp2(bias).
	EnvironmentIntensityBias float32

	// EnvironmentRotation spins the environment map, in turns in [-0.5, 0.5].
	EnvironmentRotation float32

	// Sky parameterizes the procedural sky when no file-backed map is active.
	Sky pass.SkyParams

	// GlassTintStrength scales the transmission tint of the glass pass.
	GlassTintStrength float32

	// EnableAnimations advances object animation each frame.
	EnableAnimations bool

	// EnableFpsLimit caps the frame rate at FpsLimit frames per second by
	// spinning between frames.
	EnableFpsLimit bool

	// FpsLimit is the frame rate cap when EnableFpsLimit is set.
	FpsLimit int

	// FrameStep freezes or single-steps frame advancement.
	FrameStep FrameStepMode

	// Benchmark drives the camera along the scene's camera path and captures
	// the profiler report into BenchmarkResults when the path is exhausted.
	// Cleared by the sequencer at path exhaustion.
	Benchmark bool

	// AnimationFrame is the offline animation clock, advanced by the
	// sequencer while Benchmark is active.
	AnimationFrame uint32

	// BenchmarkResults receives the profiler's text report when a benchmark
	// run completes.
	BenchmarkResults string

	// ReloadShaders requests a shader hot-reload. One-shot: observed at the
	// start of the next frame and cleared by the sequencer.
	ReloadShaders bool

	// ResetAccumulation discards accumulation history this frame. One-shot:
	// cleared by the sequencer.
	ResetAccumulation bool

	// ReadbackRequested schedules a 2-frame-delayed readback of the G-buffer
	// albedo texel at ReadbackPosition. One-shot: cleared by the sequencer.
	ReadbackRequested bool

	// ReadbackPosition is the pixel coordinate to read back.
	ReadbackPosition [2]uint32

	// ReadbackResult receives the packed RGBA8 texel once the delayed
	// readback completes.
	ReadbackResult uint32
}

// DefaultSettings returns the settings a session starts from.
//
// Returns:
//   - Settings: the default snapshot
func DefaultSettings() Settings {
	return Settings{
		Mode:                         DirectResamplingWithBrdfMIS,
		EnableTaa:                    true,
		EnableTonemap:                true,
		Gamma:                        2.2,
		AccumulationTarget:           0,
		DenoiserMethod:               denoiser.MethodRelax,
		LocalLightImportanceSampling: true,
		ImportanceCellSize:           1.0,
		EnableEnvironmentMap:         true,
		Sky:                          pass.DefaultSkyParams(),
		GlassTintStrength:            1.0,
		EnableAnimations:             true,
		FpsLimit:                     60,
	}
}
