package accelrt

import (
	"os"
	"sync/atomic"

	"github.com/accelrt/accelrt/base"
	"k8s.io/klog/v2"
)

// ErrorCode classifies a reported failure. The set is closed: backends
// map their internal failures onto it at the boundary, and anything they
// fail to classify arrives as UnknownError.
type ErrorCode = base.ErrorCode

const (
	NoError          = base.NoError
	UnknownError     = base.UnknownError
	InvalidArgument  = base.InvalidArgument
	InvalidOperation = base.InvalidOperation
	OutOfMemory      = base.OutOfMemory
	Uninitialized    = base.Uninitialized
	Unsupported      = base.Unsupported
	DeviceLost       = base.DeviceLost
)

// ErrorFunc is the process-wide failure callback. It runs on the
// goroutine of the failing call and must return normally for the runtime
// to remain usable.
type ErrorFunc func(code ErrorCode, message string)

var errorFunc atomic.Pointer[ErrorFunc]

func init() {
	def := ErrorFunc(func(code ErrorCode, message string) {
		klog.Errorf("accelrt fatal error (%s): %s", code, message)
		os.Exit(1)
	})
	errorFunc.Store(&def)
}

// SetErrorFunc atomically replaces the process-wide error callback.
// Passing nil clears it, which suppresses reporting entirely; failing
// calls still return their documented sentinels.
func SetErrorFunc(fn ErrorFunc) {
	if fn == nil {
		errorFunc.Store(nil)
		return
	}
	errorFunc.Store(&fn)
}

// report classifies err and delivers it to the registered callback.
// Every failure is reported exactly once, by the call that observed it.
func report(err error) {
	if err == nil {
		return
	}
	fn := errorFunc.Load()
	if fn == nil {
		return
	}
	(*fn)(base.CodeOf(err), err.Error())
}
