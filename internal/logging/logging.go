// Package logging builds the daemon's logger: stderr, plus a size-rotated
// file when one is configured.
package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits for the log file.
const (
	MaxSizeMB  = 10
	MaxBackups = 5
	MaxAgeDays = 28
)

// Options configures New.
type Options struct {
	// File is the log file path. Empty disables file logging.
	File string

	// Stderr defaults to os.Stderr. Set Quiet to suppress it, e.g. while
	// the terminal readout owns the screen.
	Stderr io.Writer
	Quiet  bool
}

// New returns a logger and a close function for the file sink.
func New(opts Options) (*log.Logger, func() error) {
	var writers []io.Writer
	if !opts.Quiet {
		stderr := opts.Stderr
		if stderr == nil {
			stderr = os.Stderr
		}
		writers = append(writers, stderr)
	}

	closeFn := func() error { return nil }
	if opts.File != "" {
		file := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    MaxSizeMB,
			MaxBackups: MaxBackups,
			MaxAge:     MaxAgeDays,
			Compress:   true,
		}
		writers = append(writers, file)
		closeFn = file.Close
	}

	if len(writers) == 0 {
		return log.New(io.Discard, "", 0), closeFn
	}
	return log.New(io.MultiWriter(writers...), "", log.LstdFlags), closeFn
}
