// Package logger configures the logrus logger shared by the engine, the scene
// manager and the command line tools.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger. It is usable before Init with logrus defaults.
var Log = logrus.New()

// Init configures Log from the LOG_LEVEL and LOG_FORMAT environment variables.
// LOG_LEVEL defaults to "info"; LOG_FORMAT is "json" or anything else for text.
func Init() {
	Log = New(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), os.Stdout)
}

// New creates a logger with the given level and format.
//
// Parameters:
//   - level: a logrus level name; unknown or empty values fall back to info
//   - format: "json" for JSON output, anything else for coloured text
//   - out: the writer log entries go to
//
// Returns:
//   - *logrus.Logger: the configured logger
func New(level, format string, out io.Writer) *logrus.Logger {
	l := logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	if strings.ToLower(format) == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
	}

	l.SetOutput(out)
	return l
}

// Discard returns a logger that drops every entry, for tests and quiet tools.
//
// Returns:
//   - *logrus.Logger: a logger writing to io.Discard
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
