package main

import (
	"os"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/logger"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// rootOptions holds the flags shared by every subcommand.
type rootOptions struct {
	logLevel     string
	logFormat    string
	models       string
	placeholders bool
	workers      int

	log *logrus.Logger
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{log: logger.Log}

	cmd := &cobra.Command{
		Use:          "oxyscene",
		Short:        "Validate, bake and view declarative scene descriptions",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			opts.log = logger.New(opts.logLevel, opts.logFormat, cmd.ErrOrStderr())
			logger.Log = opts.log
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.logLevel, "log-level", common.Coalesce(os.Getenv("LOG_LEVEL"), "info"), "log level (trace, debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", common.Coalesce(os.Getenv("LOG_FORMAT"), "text"), "log format (text or json)")
	flags.StringVar(&opts.models, "models", "", "geometry manifest (.yaml or .toml) providing the scene's models")
	flags.BoolVar(&opts.placeholders, "placeholders", false, "use a unit cube for every model the manifest does not provide")
	flags.IntVar(&opts.workers, "workers", 1, "worker goroutines used to update actors")

	cmd.AddCommand(
		newValidateCommand(opts),
		newBakeCommand(opts),
		newViewCommand(opts),
	)
	return cmd
}
