package cpu

import (
	"runtime"
	"sync"
	"unsafe"

	"github.com/accelrt/accelrt/base"
)

// minGridPerWorker keeps tiny launches sequential; splitting a handful of
// grid points across goroutines costs more than it saves.
const minGridPerWorker = 64

// taskQueue is the CPU command stream: an ordered asynchronous executor
// whose launch commands fan each grid out over a worker pool. Copies to
// and from the device are no-ops here (one address space), but they are
// still enqueued so their ordering is observable.
type taskQueue struct {
	base.RefCounted
	stream *base.Stream
}

var _ base.TaskQueue = (*taskQueue)(nil)

func newTaskQueue() *taskQueue {
	q := &taskQueue{stream: base.NewStream()}
	q.InitRef()
	return q
}

// Barrier implements base.TaskQueue.
func (q *taskQueue) Barrier() (base.Future, error) { return q.stream.Barrier() }

// CopyToDevice implements base.TaskQueue. Host storage is the device
// storage on this backend.
func (q *taskQueue) CopyToDevice(view base.MemoryView) (base.Future, error) {
	return q.stream.SubmitTimed(func() error { return nil })
}

// CopyToHost implements base.TaskQueue.
func (q *taskQueue) CopyToHost(view base.MemoryView) (base.Future, error) {
	return q.stream.SubmitTimed(func() error { return nil })
}

// CopyMemoryView implements base.TaskQueue. Sizes are validated by the
// boundary before the command is enqueued.
func (q *taskQueue) CopyMemoryView(dst, src base.MemoryView, numBytes uint64) (base.Future, error) {
	d, ok := dst.(*memoryView)
	if !ok {
		return nil, base.InvalidOperationf("cpu: memory view is a %T, not a cpu view", dst)
	}
	s, ok := src.(*memoryView)
	if !ok {
		return nil, base.InvalidOperationf("cpu: memory view is a %T, not a cpu view", src)
	}
	return q.stream.SubmitTimed(func() error {
		copy(d.bytes()[:numBytes], s.bytes()[:numBytes])
		return nil
	})
}

// Launch implements base.TaskQueue.
func (q *taskQueue) Launch(bk base.Kernel, params base.MemoryView, dim0, dim1, dim2 uint64) (base.Future, error) {
	k, ok := bk.(*kernel)
	if !ok {
		return nil, base.InvalidOperationf("cpu: kernel is a %T, not a cpu kernel", bk)
	}
	var paramsPtr unsafe.Pointer
	if params != nil {
		paramsPtr = params.HostPtr()
	}
	return q.stream.SubmitTimed(func() error {
		runGrid(k.fn, paramsPtr, dim0, dim1, dim2)
		return nil
	})
}

// Sync implements base.TaskQueue.
func (q *taskQueue) Sync() error { return q.stream.Sync() }

// NativeHandle implements base.TaskQueue.
func (q *taskQueue) NativeHandle() uintptr { return uintptr(unsafe.Pointer(q)) }

// Destroy implements base.Object.
func (q *taskQueue) Destroy() error { return q.stream.Close() }

// runGrid invokes fn for every point of the d0 x d1 x d2 grid, splitting
// the flattened index range across up to NumCPU workers.
func runGrid(fn KernelFunc, params unsafe.Pointer, d0, d1, d2 uint64) {
	total := d0 * d1 * d2
	if total == 0 {
		return
	}
	point := func(flat uint64) {
		i0 := flat % d0
		i1 := (flat / d0) % d1
		i2 := flat / (d0 * d1)
		fn(params, i0, i1, i2, d0, d1, d2)
	}

	workers := uint64(runtime.NumCPU())
	if workers <= 1 || total < minGridPerWorker {
		for flat := uint64(0); flat < total; flat++ {
			point(flat)
		}
		return
	}

	chunk := (total + workers - 1) / workers
	if chunk < minGridPerWorker {
		chunk = minGridPerWorker
	}
	var wg sync.WaitGroup
	for start := uint64(0); start < total; start += chunk {
		end := start + chunk
		if end > total {
			end = total
		}
		wg.Add(1)
		go func(s, e uint64) {
			defer wg.Done()
			for flat := s; flat < e; flat++ {
				point(flat)
			}
		}(start, end)
	}
	wg.Wait()
}
