package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/Carmen-Shannon/oxy-scene/engine/device"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/spf13/cobra"
)

func newValidateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <scene>",
		Short: "Load a scene description and report every problem found",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := opts.readInputs(args[0])
			if err != nil {
				return err
			}

			sm := opts.newScene(filepath.Base(args[0]), device.NewRecordingDevice())
			loadErr := sm.Load(in.desc, in.models)

			out := cmd.OutOrStdout()
			s := sm.Stats()
			fmt.Fprintf(out, "%s: %d effects, %d models, %d actors, %d render passes\n",
				args[0], s.Effects, s.Models, s.Actors, s.RenderPasses)
			if loadErr != nil {
				printErrors(out, loadErr)
				return errors.New("scene is invalid")
			}
			fmt.Fprintln(out, "ok")
			return nil
		},
	}
}

// printErrors writes one line per aggregated error.
func printErrors(out io.Writer, err error) {
	var errs []error
	var loadErr *scene.LoadError
	var bakeErr *scene.BakeError
	switch {
	case errors.As(err, &loadErr):
		errs = loadErr.Errs
	case errors.As(err, &bakeErr):
		errs = bakeErr.Errs
	default:
		errs = []error{err}
	}
	for _, e := range errs {
		fmt.Fprintf(out, "  error: %v\n", e)
	}
}
