package gpu

import (
	"unsafe"

	"github.com/accelrt/accelrt/base"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/pkg/errors"
)

// memoryView pairs an optional host mirror with a storage buffer on the
// device. Views created from a Context start unbound and acquire their
// buffer the first time a task queue touches them.
type memoryView struct {
	base.RefCounted
	alloc     *base.HostAllocator
	host      unsafe.Pointer // app memory or allocator-owned mirror, nil for bare device views
	ownedHost bool
	numBytes  uint64
	allocType base.AllocType

	dev    *Device
	buffer *wgpu.Buffer
}

var _ base.MemoryView = (*memoryView)(nil)

// NewMemoryView implements base.Device. Shared views get a host mirror
// kept in sync by the copy operations; device views live only on the
// GPU unless the application supplied its own memory.
func (d *Device) NewMemoryView(appMemory unsafe.Pointer, numBytes uint64, flags base.MemoryViewFlags) (base.MemoryView, error) {
	var m *memoryView
	var err error
	switch flags.AllocType {
	case base.AllocTypeShared:
		m, err = newSharedView(d.alloc, appMemory, numBytes)
	case base.AllocTypeDevice:
		m = newView(appMemory, numBytes, base.AllocTypeDevice)
	default:
		return nil, base.Errorf(base.InvalidArgument, "gpu: unsupported allocation type %s", flags.AllocType)
	}
	if err != nil {
		return nil, err
	}
	if err = m.ensureBuffer(d); err != nil {
		_ = m.Destroy()
		return nil, err
	}
	return m, nil
}

func newView(appMemory unsafe.Pointer, numBytes uint64, allocType base.AllocType) *memoryView {
	m := &memoryView{host: appMemory, numBytes: numBytes, allocType: allocType}
	m.InitRef()
	return m
}

func newSharedView(alloc *base.HostAllocator, appMemory unsafe.Pointer, numBytes uint64) (*memoryView, error) {
	m := newView(appMemory, numBytes, base.AllocTypeShared)
	m.alloc = alloc
	if m.host == nil && numBytes > 0 {
		m.host = alloc.Alloc(numBytes, base.AllocTypeShared)
		m.ownedHost = true
	}
	return m, nil
}

// ensureBuffer binds the view to a device, creating the storage buffer on
// first use. Buffer sizes are padded to the 4-byte granularity WebGPU
// requires for copies.
func (m *memoryView) ensureBuffer(d *Device) error {
	if m.buffer != nil {
		if m.dev != d {
			return base.InvalidOperationf("gpu: memory view already bound to another device")
		}
		return nil
	}
	size := paddedSize(m.numBytes)
	if size == 0 {
		size = 4
	}
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "accelrt-view",
		Size:  size,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return errors.WithMessage(err, "gpu: creating storage buffer")
	}
	m.dev = d
	m.buffer = buf
	return nil
}

func paddedSize(n uint64) uint64 { return (n + 3) &^ 3 }

// HostPtr implements base.MemoryView. Nil for device views created
// without application memory.
func (m *memoryView) HostPtr() unsafe.Pointer { return m.host }

// DevicePtr implements base.MemoryView. The value is an opaque token
// identifying the storage buffer, not a dereferenceable address.
func (m *memoryView) DevicePtr() unsafe.Pointer { return unsafe.Pointer(m.buffer) }

// NumBytes implements base.MemoryView.
func (m *memoryView) NumBytes() uint64 { return m.numBytes }

// AllocType implements base.MemoryView.
func (m *memoryView) AllocType() base.AllocType { return m.allocType }

// hostBytes exposes the mirror as a byte slice for queue copies.
func (m *memoryView) hostBytes() []byte {
	if m.host == nil || m.numBytes == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(m.host), m.numBytes)
}

// Destroy implements base.Object.
func (m *memoryView) Destroy() error {
	if m.buffer != nil {
		m.buffer.Release()
		m.buffer = nil
	}
	if m.ownedHost && m.host != nil {
		m.alloc.Free(m.host)
		m.ownedHost = false
	}
	m.host = nil
	m.dev = nil
	return nil
}
