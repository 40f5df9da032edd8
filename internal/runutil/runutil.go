package runutil

import (
	"log"
	"runtime/debug"
)

// SafeGo launches fn on a new goroutine and logs a stack trace if it panics
// before re-raising. The session engine, dispatcher and ducker all run
// background goroutines; a silent panic there would stall a live workout
// with no trace in the log file.
func SafeGo(logger *log.Logger, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Printf("PANIC: %v\n%s", r, debug.Stack())
				panic(r)
			}
		}()
		fn()
	}()
}
