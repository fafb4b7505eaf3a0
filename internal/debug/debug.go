// SPDX-License-Identifier: Unlicense OR MIT

// Package debug holds the process-wide structured logger. Logging
// is disabled unless the PLINTH_DEBUG environment variable is set,
// in which case JSON lines go to standard error.
package debug

import (
	"os"
	"sync"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

var (
	once   sync.Once
	logger *logiface.Logger[*stumpy.Event]
)

// Log returns the shared logger.
func Log() *logiface.Logger[*stumpy.Event] {
	once.Do(func() {
		level := logiface.LevelDisabled
		if os.Getenv("PLINTH_DEBUG") != "" {
			level = logiface.LevelDebug
		}
		logger = stumpy.L.New(
			stumpy.L.WithStumpy(stumpy.WithWriter(os.Stderr)),
			stumpy.L.WithLevel(level),
		)
	})
	return logger
}

// SetLogger replaces the shared logger, for tests that capture
// output. It must be called before the first Log.
func SetLogger(l *logiface.Logger[*stumpy.Event]) {
	once.Do(func() {})
	logger = l
}
