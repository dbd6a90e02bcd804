package gpu

import (
	"unsafe"

	"github.com/accelrt/accelrt/base"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/pkg/errors"
)

// taskQueue orders GPU work on a base.Stream. Each command runs to
// completion inside the stream goroutine (submit then poll), which keeps
// the per-command timings meaningful and makes Sync a pure drain.
type taskQueue struct {
	base.RefCounted
	dev    *Device
	stream *base.Stream
}

var _ base.TaskQueue = (*taskQueue)(nil)

func newTaskQueue(d *Device) *taskQueue {
	q := &taskQueue{dev: d, stream: base.NewStream()}
	q.InitRef()
	return q
}

// Barrier implements base.TaskQueue.
func (q *taskQueue) Barrier() (base.Future, error) {
	return q.stream.Barrier()
}

func (q *taskQueue) view(bm base.MemoryView) (*memoryView, error) {
	m, ok := bm.(*memoryView)
	if !ok || m == nil {
		return nil, base.InvalidOperationf("gpu: memory view does not belong to this backend")
	}
	if err := m.ensureBuffer(q.dev); err != nil {
		return nil, err
	}
	return m, nil
}

// CopyToDevice implements base.TaskQueue, uploading the host mirror into
// the view's storage buffer.
func (q *taskQueue) CopyToDevice(bm base.MemoryView) (base.Future, error) {
	m, err := q.view(bm)
	if err != nil {
		return nil, err
	}
	return q.stream.SubmitTimed(func() error {
		src := m.hostBytes()
		if len(src) == 0 {
			return nil
		}
		if err := q.dev.queue.WriteBuffer(m.buffer, 0, padBytes(src)); err != nil {
			return errors.WithMessage(err, "gpu: writing buffer")
		}
		q.dev.waitDone()
		return nil
	})
}

// CopyToHost implements base.TaskQueue, reading the storage buffer back
// into the host mirror through a staging buffer.
func (q *taskQueue) CopyToHost(bm base.MemoryView) (base.Future, error) {
	m, err := q.view(bm)
	if err != nil {
		return nil, err
	}
	if m.host == nil {
		return nil, base.InvalidOperationf("gpu: memory view has no host storage to copy into")
	}
	return q.stream.SubmitTimed(func() error {
		return q.readInto(m)
	})
}

func (q *taskQueue) readInto(m *memoryView) error {
	dst := m.hostBytes()
	if len(dst) == 0 {
		return nil
	}
	size := paddedSize(m.numBytes)
	staging, err := q.dev.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "accelrt-staging",
		Size:  size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return errors.WithMessage(err, "gpu: creating staging buffer")
	}
	defer staging.Release()

	enc, err := q.dev.device.CreateCommandEncoder(nil)
	if err != nil {
		return errors.WithMessage(err, "gpu: creating command encoder")
	}
	enc.CopyBufferToBuffer(m.buffer, 0, staging, 0, size)
	cmd, err := enc.Finish(nil)
	if err != nil {
		enc.Release()
		return errors.WithMessage(err, "gpu: encoding readback")
	}
	q.dev.queue.Submit(cmd)
	cmd.Release()
	enc.Release()

	done := false
	err = staging.MapAsync(wgpu.MapModeRead, 0, size, func(status wgpu.BufferMapAsyncStatus) {
		done = status == wgpu.BufferMapAsyncStatusSuccess
	})
	if err != nil {
		return errors.WithMessage(err, "gpu: mapping staging buffer")
	}
	q.dev.waitDone()
	if !done {
		return base.Errorf(base.DeviceLost, "gpu: staging buffer map failed")
	}
	copy(dst, staging.GetMappedRange(0, uint(size)))
	staging.Unmap()
	return nil
}

// CopyMemoryView implements base.TaskQueue with a device-side
// buffer-to-buffer copy. Size validation happens at the boundary before
// anything is enqueued.
func (q *taskQueue) CopyMemoryView(dst, src base.MemoryView, numBytes uint64) (base.Future, error) {
	d, err := q.view(dst)
	if err != nil {
		return nil, err
	}
	s, err := q.view(src)
	if err != nil {
		return nil, err
	}
	return q.stream.SubmitTimed(func() error {
		if numBytes == 0 {
			return nil
		}
		enc, err := q.dev.device.CreateCommandEncoder(nil)
		if err != nil {
			return errors.WithMessage(err, "gpu: creating command encoder")
		}
		enc.CopyBufferToBuffer(s.buffer, 0, d.buffer, 0, paddedSize(numBytes))
		cmd, err := enc.Finish(nil)
		if err != nil {
			enc.Release()
			return errors.WithMessage(err, "gpu: encoding copy")
		}
		q.dev.queue.Submit(cmd)
		cmd.Release()
		enc.Release()
		q.dev.waitDone()
		return nil
	})
}

// Launch implements base.TaskQueue, dispatching one workgroup per grid
// point. The params view, when present, is bound as the storage buffer
// at binding 0 of group 0.
func (q *taskQueue) Launch(bk base.Kernel, params base.MemoryView, dim0, dim1, dim2 uint64) (base.Future, error) {
	k, ok := bk.(*kernel)
	if !ok || k == nil {
		return nil, base.InvalidOperationf("gpu: kernel does not belong to this backend")
	}
	const maxDim = uint64(^uint32(0))
	if dim0 > maxDim || dim1 > maxDim || dim2 > maxDim {
		return nil, base.InvalidOperationf("gpu: grid dimension exceeds dispatch limit")
	}
	var p *memoryView
	if params != nil {
		var err error
		if p, err = q.view(params); err != nil {
			return nil, err
		}
	}
	return q.stream.SubmitTimed(func() error {
		return q.dispatch(k, p, uint32(dim0), uint32(dim1), uint32(dim2))
	})
}

func (q *taskQueue) dispatch(k *kernel, params *memoryView, dim0, dim1, dim2 uint32) error {
	var bindGroup *wgpu.BindGroup
	if params != nil {
		layout := k.pipeline.GetBindGroupLayout(0)
		defer layout.Release()
		bg, err := q.dev.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  "accelrt-params",
			Layout: layout,
			Entries: []wgpu.BindGroupEntry{{
				Binding: 0,
				Buffer:  params.buffer,
				Offset:  0,
				Size:    wgpu.WholeSize,
			}},
		})
		if err != nil {
			return errors.WithMessage(err, "gpu: creating bind group")
		}
		defer bg.Release()
		bindGroup = bg
	}

	enc, err := q.dev.device.CreateCommandEncoder(nil)
	if err != nil {
		return errors.WithMessage(err, "gpu: creating command encoder")
	}
	defer enc.Release()
	pass := enc.BeginComputePass(nil)
	pass.SetPipeline(k.pipeline)
	if bindGroup != nil {
		pass.SetBindGroup(0, bindGroup, nil)
	}
	pass.DispatchWorkgroups(dim0, dim1, dim2)
	pass.End()
	pass.Release()

	cmd, err := enc.Finish(nil)
	if err != nil {
		return errors.WithMessagef(err, "gpu: encoding launch of %q", k.name)
	}
	q.dev.queue.Submit(cmd)
	cmd.Release()
	q.dev.waitDone()
	return nil
}

// Sync implements base.TaskQueue.
func (q *taskQueue) Sync() error { return q.stream.Sync() }

// NativeHandle implements base.TaskQueue, exposing the wgpu queue.
func (q *taskQueue) NativeHandle() uintptr { return uintptr(unsafe.Pointer(q.dev.queue)) }

// Destroy implements base.Object.
func (q *taskQueue) Destroy() error {
	if q.stream != nil {
		q.stream.Close()
		q.stream = nil
	}
	q.dev = nil
	return nil
}

// padBytes rounds a host slice up to the 4-byte copy granularity,
// copying only when padding is actually needed.
func padBytes(b []byte) []byte {
	if len(b)%4 == 0 {
		return b
	}
	padded := make([]byte, (len(b)+3)&^3)
	copy(padded, b)
	return padded
}
