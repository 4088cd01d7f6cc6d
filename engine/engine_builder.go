package engine

import (
	"time"

	"github.com/Carmen-Shannon/lumen-go/engine/scene"
	"github.com/Carmen-Shannon/lumen-go/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithTickRate sets the engine tick rate in ticks per second.
// The tick callback will be called at this rate for input and game logic.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = time.Second / time.Duration(fps)
	}
}

// WithWindow sets a custom configured window for the engine to use rather than allowing the engine
// to create and manage one internally.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithScene sets the scene the engine renders.
//
// Parameters:
//   - s: the Scene to render
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithScene(s scene.Scene) EngineBuilderOption {
	return func(e *engine) {
		e.scn = s
	}
}

// WithEnvironmentMaps registers file-backed environment sources alongside the
// built-in procedural sky. Sources whose files fail to load are pruned at
// startup.
//
// Parameters:
//   - paths: filesystem paths to equirectangular HDR environment maps
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithEnvironmentMaps(paths ...string) EngineBuilderOption {
	return func(e *engine) {
		e.envPaths = append(e.envPaths, paths...)
	}
}

// WithSettings overrides the initial settings snapshot. The engine starts from
// DefaultSettings when this option is not given.
//
// Parameters:
//   - s: the initial settings
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSettings(s Settings) EngineBuilderOption {
	return func(e *engine) {
		e.settings = s
	}
}
