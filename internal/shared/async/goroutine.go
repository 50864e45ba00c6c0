// Package async runs the pipeline's background work (the upload transfer
// and the derive poller) behind a panic guard, so a fault in either surfaces
// as a failed step instead of taking the CLI down mid-publish.
package async

import "runtime/debug"

// Logger is the slice of the logging contract the guard reports through.
type Logger interface {
	Error(format string, args ...any)
}

// Go runs fn on its own goroutine, logging and swallowing any panic.
func Go(logger Logger, name string, fn func()) {
	go func() {
		defer func() {
			r := recover()
			if r == nil || logger == nil {
				return
			}
			logger.Error("background task %s panicked: %v\n%s", name, r, debug.Stack())
		}()
		fn()
	}()
}
