package accelrt

import (
	"github.com/accelrt/accelrt/base"
)

// FutureIsValid reports whether the operation behind the future has
// completed. A null or non-future handle yields false without reporting:
// probing a future is a query, not a fault.
func FutureIsValid(future Handle) bool {
	f, ok := future.obj.(base.Future)
	if !ok {
		return false
	}
	return f.Valid()
}

// FutureGetTimeNs returns the operation's execution time in nanoseconds.
// A future that is not yet valid, null, or not a future at all yields
// the -1 sentinel, never a fault.
func FutureGetTimeNs(future Handle) int64 {
	f, ok := future.obj.(base.Future)
	if !ok {
		return -1
	}
	return f.TimeNs()
}
