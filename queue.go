package accelrt

import (
	"github.com/accelrt/accelrt/base"
)

// NewTaskQueue creates an ordered asynchronous command stream on the
// device. Returns NilHandle on failure.
func NewTaskQueue(device Handle) Handle {
	dev, err := resolve[base.Device](device, "device")
	if err != nil {
		report(err)
		return NilHandle
	}
	queue, err := dev.NewTaskQueue()
	if err != nil {
		report(err)
		return NilHandle
	}
	return handleOf(queue)
}

func resolveQueue(queue Handle) (base.TaskQueue, error) {
	return resolve[base.TaskQueue](queue, "task queue")
}

// futureHandle wraps a per-operation completion token, reporting any
// failure the queue surfaced for an earlier command.
func futureHandle(future base.Future, err error) Handle {
	if err != nil {
		report(err)
	}
	if future == nil {
		return NilHandle
	}
	return handleOf(future)
}

// DeviceBarrier enqueues an ordering point: every command enqueued before
// it completes before any command enqueued after it begins. Returns the
// barrier's completion token, or NilHandle on failure.
func DeviceBarrier(queue Handle) Handle {
	q, err := resolveQueue(queue)
	if err != nil {
		report(err)
		return NilHandle
	}
	return futureHandle(q.Barrier())
}

// CopyToDevice enqueues a copy of the view's host-side contents to its
// device-side storage. Returns the operation's completion token, or
// NilHandle on failure.
func CopyToDevice(queue, view Handle) Handle {
	q, err := resolveQueue(queue)
	if err != nil {
		report(err)
		return NilHandle
	}
	v, err := resolve[base.MemoryView](view, "memory view")
	if err != nil {
		report(err)
		return NilHandle
	}
	return futureHandle(q.CopyToDevice(v))
}

// CopyToHost enqueues a copy of the view's device-side contents back to
// its host-side storage. Returns the operation's completion token, or
// NilHandle on failure.
func CopyToHost(queue, view Handle) Handle {
	q, err := resolveQueue(queue)
	if err != nil {
		report(err)
		return NilHandle
	}
	v, err := resolve[base.MemoryView](view, "memory view")
	if err != nil {
		report(err)
		return NilHandle
	}
	return futureHandle(q.CopyToHost(v))
}

// CopyMemoryView enqueues a copy of numBytes from src to dst. A size
// exceeding either view's capacity is an invalid operation detected
// synchronously: no command is enqueued and the queue state is
// untouched. Returns the operation's completion token, or NilHandle on
// failure.
func CopyMemoryView(queue, dst, src Handle, numBytes uint64) Handle {
	q, err := resolveQueue(queue)
	if err != nil {
		report(err)
		return NilHandle
	}
	d, err := resolve[base.MemoryView](dst, "memory view")
	if err != nil {
		report(err)
		return NilHandle
	}
	s, err := resolve[base.MemoryView](src, "memory view")
	if err != nil {
		report(err)
		return NilHandle
	}
	if numBytes > d.NumBytes() || numBytes > s.NumBytes() {
		report(base.InvalidOperationf(
			"copy of %d bytes exceeds a memory view's capacity (dst %d, src %d)",
			numBytes, d.NumBytes(), s.NumBytes()))
		return NilHandle
	}
	return futureHandle(q.CopyMemoryView(d, s, numBytes))
}

// Launch1D enqueues kernel over a dim0 grid. Equivalent to Launch3D with
// the missing dimensions set to 1.
func Launch1D(queue, kernel, params Handle, dim0 uint64) Handle {
	return Launch3D(queue, kernel, params, dim0, 1, 1)
}

// Launch2D enqueues kernel over a dim0 x dim1 grid. Equivalent to
// Launch3D with dim2 set to 1.
func Launch2D(queue, kernel, params Handle, dim0, dim1 uint64) Handle {
	return Launch3D(queue, kernel, params, dim0, dim1, 1)
}

// Launch3D enqueues kernel over a dim0 x dim1 x dim2 grid. params may be
// NilHandle for kernels that take no parameters. Returns the launch's
// completion token, or NilHandle on failure.
func Launch3D(queue, kernel, params Handle, dim0, dim1, dim2 uint64) Handle {
	q, err := resolveQueue(queue)
	if err != nil {
		report(err)
		return NilHandle
	}
	k, err := resolve[base.Kernel](kernel, "kernel")
	if err != nil {
		report(err)
		return NilHandle
	}
	var p base.MemoryView
	if !params.IsNil() {
		if p, err = resolve[base.MemoryView](params, "memory view"); err != nil {
			report(err)
			return NilHandle
		}
	}
	return futureHandle(q.Launch(k, p, dim0, dim1, dim2))
}

// Sync blocks until every command enqueued on the queue before the call
// has completed. This is the only blocking operation in the runtime.
func Sync(queue Handle) {
	q, err := resolveQueue(queue)
	if err != nil {
		report(err)
		return
	}
	if err := q.Sync(); err != nil {
		report(err)
	}
}
