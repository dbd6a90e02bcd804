// Package accelrt is a portable runtime for dispatching compute kernels
// to CPU and GPU devices through one uniform, handle-based surface.
//
// Every object the runtime hands out (Device, Context, MemoryView,
// Module, Kernel, TaskQueue, Future) is referenced by an opaque Handle
// with an intrusive use count: Retain and Release manage lifetime, and
// the object is destroyed when the count reaches zero.
//
// Failures never surface as Go errors here. Each operation returns a
// documented sentinel (NilHandle, zero, false or -1) and reports the
// classified failure through the process-wide callback registered with
// SetErrorFunc. The default callback logs the message and terminates
// the process; install a non-terminating callback for recoverable
// handling, or clear it with nil to silence reporting.
//
// Device selection accepts an explicit backend kind or DeviceTypeAuto,
// which prefers the GPU and silently falls back to the CPU when GPU
// construction fails. Backends are compiled in by default and can be
// excluded with the accelrt_nocpu and accelrt_nogpu build tags.
package accelrt
