package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-scene/engine/device"
	"github.com/Carmen-Shannon/oxy-scene/engine/profiler"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/Carmen-Shannon/oxy-scene/engine/window"
	"github.com/sirupsen/logrus"
)

// engine implements the Engine interface.
// Runs the frame loop for one scene on the goroutine that calls Run.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates
	tasks           chan func()

	running bool

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	scene  scene.SceneMan
	dev    device.Device
	window window.Window
	log    logrus.FieldLogger

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)

	frames    uint64
	maxFrames uint64
	lastErr   string
}

// Engine drives a baked scene: every tick it runs the tick callback, Update and Draw,
// then presents when the device owns a swapchain.
type Engine interface {
	// Window returns the window the engine polls, nil when headless.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Scene returns the scene the engine drives.
	//
	// Returns:
	//   - scene.SceneMan: the scene
	Scene() scene.SceneMan

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in frames per second.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each tick before the scene updates.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// Post queues fn to run on the frame loop goroutine before the next frame. Use it
	// for anything that touches the scene from another goroutine, such as a reload.
	// After Run returns, Post never blocks and fn may be dropped.
	//
	// Parameters:
	//   - fn: the function to run
	Post(fn func())

	// Step runs one frame: tick callback, Update, Draw and Present.
	//
	// Parameters:
	//   - deltaTime: the frame time in seconds
	//
	// Returns:
	//   - error: the Update or Draw error
	Step(deltaTime float32) error

	// Frames returns the number of frames stepped by Run.
	Frames() uint64

	// Run starts the frame loop and blocks until the window closes, the frame limit is
	// reached, Quit is called or ctx is cancelled. An engine runs once.
	//
	// Parameters:
	//   - ctx: cancels the loop
	//
	// Returns:
	//   - error: ctx.Err() when cancelled, nil otherwise
	Run(ctx context.Context) error

	// Quit signals the frame loop to stop.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine for sm drawing on dev. It panics if either is nil.
//
// Parameters:
//   - sm: the scene to drive
//   - dev: the device the scene draws on; presented after each frame if it is a device.Presenter
//   - options: functional options for engine configuration (profiling, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(sm scene.SceneMan, dev device.Device, options ...EngineBuilderOption) Engine {
	if sm == nil {
		panic("engine: NewEngine requires a non-nil SceneMan")
	}
	if dev == nil {
		panic("engine: NewEngine requires a non-nil Device")
	}

	e := &engine{
		tickRateChannel: make(chan time.Duration, 1),
		tasks:           make(chan func(), 16),
		quitChannel:     make(chan struct{}),
		scene:           sm,
		dev:             dev,
		log:             logrus.StandardLogger(),
		engineTickRate:  time.Second / 60,
	}

	for _, opt := range options {
		opt(e)
	}

	e.profiler = profiler.NewProfiler(e.log, time.Second)

	if e.window != nil {
		if p, ok := e.dev.(device.Presenter); ok {
			e.window.SetResizeCallback(func(width, height int) {
				p.Resize(width, height)
			})
		}
	}

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Scene() scene.SceneMan {
	return e.scene
}

// Quit signals the frame loop to stop.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

func (e *engine) Post(fn func()) {
	if fn == nil {
		return
	}
	select {
	case e.tasks <- fn:
	case <-e.quitChannel:
	}
}

func (e *engine) Frames() uint64 {
	return e.frames
}

func (e *engine) Step(dt float32) error {
	if e.tickCallback != nil {
		e.tickCallback(dt)
	}
	if err := e.scene.Update(dt); err != nil {
		return err
	}
	if err := e.scene.Draw(); err != nil {
		return err
	}
	if p, ok := e.dev.(device.Presenter); ok {
		p.Present()
	}
	return nil
}

func (e *engine) Run(ctx context.Context) error {
	e.running = true
	defer func() {
		e.running = false
		// Unblocks Post callers once the loop is gone.
		e.Quit()
	}()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.quitChannel:
			return nil
		case fn := <-e.tasks:
			fn()
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		case <-ticker.C:
			if e.window != nil && !e.window.PollEvents() {
				return nil
			}

			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			e.reportFrameError(e.Step(dt))
			e.frames++

			if e.profilingEnabled {
				stats := e.scene.Stats()
				e.profiler.Tick(logrus.Fields{
					"draws":     stats.Draws,
					"pipelines": stats.Pipelines,
				})
			}
			if e.maxFrames > 0 && e.frames >= e.maxFrames {
				return nil
			}
		}
	}
}

// reportFrameError logs a frame error once until the error changes, so a scene left
// unbaked by a failed reload does not flood the log.
func (e *engine) reportFrameError(err error) {
	if err == nil {
		if e.lastErr != "" {
			e.log.Info("frame loop recovered")
		}
		e.lastErr = ""
		return
	}
	if msg := err.Error(); msg != e.lastErr {
		e.lastErr = msg
		var notReady *scene.SceneNotReadyError
		if errors.As(err, &notReady) {
			e.log.WithError(err).Warn("scene not ready, skipping frames")
			return
		}
		e.log.WithError(err).Error("frame failed")
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

// SetTickRate sets the engine tick rate in frames per second.
// If the engine is running, the change takes effect on the next loop iteration.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	if !e.running {
		e.engineTickRate = newRate
		return
	}
	// Non-blocking send - if channel is full, replace the pending value
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}
