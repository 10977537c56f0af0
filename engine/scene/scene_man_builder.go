package scene

import (
	"github.com/sirupsen/logrus"
)

// SceneManBuilderOption is a functional option for configuring a SceneMan.
// Use the With* functions to create options.
type SceneManBuilderOption func(sm *sceneMan)

// UpdateHook is called for every actor after Update integrated its body. With more than
// one update worker the hook runs concurrently for different actors.
type UpdateHook func(actor *Actor, dt float32)

// WithLogger sets the logger the scene reports stage transitions to.
// Defaults to the standard logrus logger.
//
// Parameters:
//   - log: the logger
//
// Returns:
//   - SceneManBuilderOption: option function to apply
func WithLogger(log logrus.FieldLogger) SceneManBuilderOption {
	return func(sm *sceneMan) {
		if log != nil {
			sm.baseLog = log
		}
	}
}

// WithUpdateWorkers sets the number of pool workers Update spreads actor integration
// over. Values below 2 keep Update on the calling goroutine, which is the default.
//
// Parameters:
//   - n: the number of update workers
//
// Returns:
//   - SceneManBuilderOption: option function to apply
func WithUpdateWorkers(n int) SceneManBuilderOption {
	return func(sm *sceneMan) {
		if n < 1 {
			n = 1
		}
		sm.updateWorkers = n
	}
}

// WithReleaseLocalMeshData sets whether Load drops the CPU copy of mesh data once it is
// uploaded. Defaults to true. Keep local data when the same models are passed to Reload.
//
// Parameters:
//   - release: true to drop local mesh data after upload
//
// Returns:
//   - SceneManBuilderOption: option function to apply
func WithReleaseLocalMeshData(release bool) SceneManBuilderOption {
	return func(sm *sceneMan) {
		sm.releaseLocalMeshData = release
	}
}

// WithUpdateHook installs a per-actor hook run by Update after integration.
//
// Parameters:
//   - hook: the hook, nil to remove
//
// Returns:
//   - SceneManBuilderOption: option function to apply
func WithUpdateHook(hook UpdateHook) SceneManBuilderOption {
	return func(sm *sceneMan) {
		sm.updateHook = hook
	}
}
