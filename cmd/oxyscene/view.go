package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine"
	"github.com/Carmen-Shannon/oxy-scene/engine/device"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/Carmen-Shannon/oxy-scene/engine/shader"
	"github.com/Carmen-Shannon/oxy-scene/engine/window"
	"github.com/spf13/cobra"
)

type viewOptions struct {
	shaders  string
	watch    bool
	tickRate float64
	width    int
	height   int
	vsync    bool
	profile  bool
	software bool
}

func newViewCommand(opts *rootOptions) *cobra.Command {
	vo := &viewOptions{}

	cmd := &cobra.Command{
		Use:   "view <scene>",
		Short: "Open a window and draw a scene with WebGPU",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd.Context(), opts, vo, args[0])
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&vo.shaders, "shaders", "", "directory of <name>.vert.wgsl / <name>.frag.wgsl shaders")
	flags.BoolVar(&vo.watch, "watch", false, "reload the scene when the scene file or model manifest changes")
	flags.Float64Var(&vo.tickRate, "tick-rate", 60, "frames per second")
	flags.IntVar(&vo.width, "width", 1280, "window width in pixels")
	flags.IntVar(&vo.height, "height", 720, "window height in pixels")
	flags.BoolVar(&vo.vsync, "vsync", true, "wait for vertical sync when presenting")
	flags.BoolVar(&vo.profile, "profile", false, "log frame and memory statistics every second")
	flags.BoolVar(&vo.software, "software", false, "force a software (fallback) adapter")
	return cmd
}

func runView(ctx context.Context, opts *rootOptions, vo *viewOptions, scenePath string) error {
	in, err := opts.readInputs(scenePath)
	if err != nil {
		return err
	}

	lib := shader.NewLibrary()
	if vo.shaders != "" {
		n, err := lib.LoadDir(vo.shaders)
		if err != nil {
			return err
		}
		opts.log.WithField("shaders", n).Info("loaded shader directory")
	}

	win, err := window.NewWindow(
		window.WithTitle("oxyscene - "+filepath.Base(scenePath)),
		window.WithSize(vo.width, vo.height),
	)
	if err != nil {
		return err
	}
	defer win.Close()

	dev, err := device.NewWGPUDevice(win.SurfaceDescriptor(), lib,
		device.WithPresentMode(vo.vsync),
		device.WithForceSoftwareAdapter(vo.software),
		device.WithSurfaceSize(win.Width(), win.Height()),
	)
	if err != nil {
		return err
	}
	defer dev.Destroy()

	sm := opts.newScene(filepath.Base(scenePath), dev)
	defer sm.Release()
	if err := sm.Load(in.desc, in.models); err != nil {
		printErrors(os.Stderr, err)
		return errors.New("scene failed to load")
	}
	if err := sm.Bake(); err != nil {
		var bakeErr *scene.BakeError
		if !errors.As(err, &bakeErr) || sm.BakedMask() != scene.AllBaked {
			return err
		}
		opts.log.WithError(err).Warn("scene baked with errors")
	}

	eng := engine.NewEngine(sm, dev,
		engine.WithWindow(win),
		engine.WithTickRate(vo.tickRate),
		engine.WithProfiling(vo.profile),
		engine.WithLogger(opts.log),
	)

	reload := func() {
		start := time.Now()
		in, err := opts.readInputs(scenePath)
		if err != nil {
			opts.log.WithError(err).Error("reload failed, keeping current scene")
			return
		}
		if err := sm.Reload(in.desc, in.models); err != nil {
			opts.log.WithError(err).Error("reload loaded with errors")
		}
		if err := sm.Bake(); err != nil {
			opts.log.WithError(err).Error("reload baked with errors")
		}
		opts.log.WithField("elapsed", time.Since(start)).Info("scene reloaded")
	}

	// Key callbacks run inside PollEvents on the frame loop goroutine.
	paused, profiling := false, vo.profile
	win.SetKeyDownCallback(func(keyCode uint32) {
		switch keyCode {
		case common.KeyR:
			reload()
		case common.KeyP:
			profiling = !profiling
			if profiling {
				eng.EnableProfiler()
			} else {
				eng.DisableProfiler()
			}
		case common.KeySpace:
			paused = !paused
			if paused {
				eng.SetTickRate(4)
			} else {
				eng.SetTickRate(vo.tickRate)
			}
		}
	})

	if vo.watch {
		stop, err := watchFiles(opts.log, []string{scenePath, opts.models}, 200*time.Millisecond, func() {
			eng.Post(reload)
		})
		if err != nil {
			return err
		}
		defer stop()
	}

	fmt.Println("oxyscene view")
	fmt.Println("  R=Reload  P=Profiler  Space=Slow motion  Esc=Quit")

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()
	if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
