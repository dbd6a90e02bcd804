// Package base defines the contracts every execution backend implements:
// the capability interfaces (Device, Context, MemoryView, Module, Kernel,
// TaskQueue, Future), the intrusive reference counting shared by all
// boundary objects, the coded error type translated at the boundary, the
// backend registry, and the ordered asynchronous command stream that task
// queues are built on.
//
// Users of the runtime normally don't import this package directly: the
// accelrt root package exposes the handle-based surface built on top of it.
// Backend implementers (see the cpu and gpu packages) implement these
// interfaces and register a Backend factory set.
package base
