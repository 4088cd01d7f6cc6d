package scene

import (
	"github.com/Carmen-Shannon/lumen-go/engine/game_object"
	"github.com/Carmen-Shannon/lumen-go/engine/light"
)

// SceneBuilderOption is a functional option for configuring a Scene during construction.
type SceneBuilderOption func(*scene)

// WithObjects adds GameObjects to the Scene at construction time. Objects
// without IDs are assigned one.
//
// Parameters:
//   - objects: the GameObjects to add
//
// Returns:
//   - SceneBuilderOption: functional option to add the objects
func WithObjects(objects ...game_object.GameObject) SceneBuilderOption {
	return func(s *scene) {
		for _, obj := range objects {
			if obj.ID() == 0 {
				obj.SetID(s.nextID)
				s.nextID++
			}
			if _, exists := s.registry[obj.ID()]; !exists {
				s.order = append(s.order, obj.ID())
			}
			s.registry[obj.ID()] = obj
		}
	}
}

// WithLights adds analytic lights to the Scene at construction time.
//
// Parameters:
//   - lights: the lights to add
//
// Returns:
//   - SceneBuilderOption: functional option to add the lights
func WithLights(lights ...light.Light) SceneBuilderOption {
	return func(s *scene) {
		s.lights = append(s.lights, lights...)
	}
}

// WithEnvironmentLight sets the Scene's environment light parameters.
//
// Parameters:
//   - env: the environment light
//
// Returns:
//   - SceneBuilderOption: functional option to set the environment light
func WithEnvironmentLight(env light.EnvironmentLight) SceneBuilderOption {
	return func(s *scene) {
		s.envLight = env
	}
}

// WithComputeWorkers sets the number of worker goroutines used for the
// parallel instance transform phase of Animate. Defaults to NumCPU-1 with a
// floor of 1.
//
// Parameters:
//   - workers: the worker count (values below 1 are clamped to 1)
//
// Returns:
//   - SceneBuilderOption: functional option to set the worker count
func WithComputeWorkers(workers int) SceneBuilderOption {
	return func(s *scene) {
		s.computeWorkers = max(workers, 1)
	}
}

// WithCameraPath sets a scripted camera path for offline animation and
// benchmark runs.
//
// Parameters:
//   - path: the camera path
//
// Returns:
//   - SceneBuilderOption: functional option to set the camera path
func WithCameraPath(path *CameraPath) SceneBuilderOption {
	return func(s *scene) {
		s.path = path
	}
}
