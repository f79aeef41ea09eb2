// Package logger is the process-wide console log for recall.
//
// Errors are always written. Everything below error level is written only
// after SetVerbose(true), which the --verbose flag turns on, so that a normal
// run stays quiet while a verbose one traces ingest and search step by step.
package logger

import (
	"io"
	"os"
	"sync/atomic"

	"github.com/phuslu/log"
)

// sink is swapped whole so readers never see a writer from one call and a
// level from another.
type sink struct {
	out     io.Writer
	verbose bool
	log     *log.Logger
}

var current atomic.Pointer[sink]

func init() { install(os.Stderr, false) }

func install(out io.Writer, verbose bool) {
	level := log.ErrorLevel
	if verbose {
		level = log.DebugLevel
	}
	current.Store(&sink{
		out:     out,
		verbose: verbose,
		log:     &log.Logger{Level: level, Writer: &log.ConsoleWriter{Writer: out}},
	})
}

// SetVerbose switches debug, info and warning output on or off.
func SetVerbose(v bool) { install(current.Load().out, v) }

// IsVerbose reports whether verbose output is on.
func IsVerbose() bool { return current.Load().verbose }

// SetOutput redirects the log, stderr by default.
func SetOutput(w io.Writer) { install(w, current.Load().verbose) }

// Debug traces a pipeline step.
func Debug(format string, args ...any) { current.Load().log.Debug().Msgf(format, args...) }

// Section marks the start of a phase in verbose output.
func Section(name string) { current.Load().log.Debug().Msgf("=== %s ===", name) }

// Info reports progress a verbose run should show, such as a finished phase.
func Info(format string, args ...any) { current.Load().log.Info().Msgf(format, args...) }

// Warn reports a problem recall worked around, such as an ignored setting.
func Warn(format string, args ...any) { current.Load().log.Warn().Msgf(format, args...) }

// Error is written whatever the verbosity.
func Error(format string, args ...any) { current.Load().log.Error().Msgf(format, args...) }
