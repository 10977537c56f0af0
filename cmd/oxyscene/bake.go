package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/Carmen-Shannon/oxy-scene/engine"
	"github.com/Carmen-Shannon/oxy-scene/engine/device"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/spf13/cobra"
)

func newBakeCommand(opts *rootOptions) *cobra.Command {
	var (
		frames int
		dt     float32
	)

	cmd := &cobra.Command{
		Use:   "bake <scene>",
		Short: "Bake a scene on the headless device and print its render passes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := opts.readInputs(args[0])
			if err != nil {
				return err
			}

			dev := device.NewRecordingDevice()
			sm := opts.newScene(filepath.Base(args[0]), dev)
			out := cmd.OutOrStdout()

			if err := sm.Load(in.desc, in.models); err != nil {
				printErrors(out, err)
				return errors.New("scene failed to load")
			}
			bakeErr := sm.Bake()

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PASS\tPATTERN\tSAMPLES\tACTORS\tDRAWS")
			for _, pass := range sm.RenderPasses() {
				draws := 0
				for _, cb := range pass.CommandBuffers() {
					draws += len(cb.Draws())
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\n", pass.Name, pass.Pattern, pass.SampleCount, len(pass.Actors()), draws)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			s := sm.Stats()
			fmt.Fprintf(out, "baked %s: %d pipelines, %d command buffers, %d draws\n", s.Baked, s.Pipelines, s.CommandBuffers, s.Draws)
			if bakeErr != nil {
				printErrors(out, bakeErr)
			}
			if sm.BakedMask() != scene.AllBaked {
				return errors.New("scene failed to bake")
			}

			if frames > 0 {
				eng := engine.NewEngine(sm, dev, engine.WithLogger(opts.log))
				for range frames {
					if err := eng.Step(dt); err != nil {
						return err
					}
				}
				fmt.Fprintf(out, "simulated %d frames: %d submissions\n", frames, dev.Counts().Submits)
				for _, a := range sm.Actors() {
					p := a.Body.Position
					fmt.Fprintf(out, "  %s at (%g, %g, %g)\n", a.Name, p.X(), p.Y(), p.Z())
				}
			}

			if bakeErr != nil {
				return errors.New("scene baked with errors")
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&frames, "frames", 0, "simulate this many frames after baking")
	cmd.Flags().Float32Var(&dt, "dt", 1.0/60, "time step of each simulated frame in seconds")
	return cmd
}
