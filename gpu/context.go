package gpu

import (
	"unsafe"

	"github.com/accelrt/accelrt/base"
)

// Context is a lightweight allocation scope usable before a full GPU
// device is brought up. It can only hand out shared (host-visible)
// memory views; device storage requires a Device.
type Context struct {
	base.RefCounted
	alloc *base.HostAllocator
}

var _ base.Context = (*Context)(nil)

// NewContext returns a GPU allocation context.
func NewContext() (*Context, error) {
	c := &Context{alloc: base.NewHostAllocator()}
	c.InitRef()
	return c, nil
}

// DeviceType implements base.Context.
func (c *Context) DeviceType() base.DeviceType { return base.DeviceTypeGPU }

// NewMemoryView implements base.Context. Only shared views are possible
// without a device to own the storage buffer.
func (c *Context) NewMemoryView(appMemory unsafe.Pointer, numBytes uint64, flags base.MemoryViewFlags) (base.MemoryView, error) {
	if flags.AllocType != base.AllocTypeShared {
		return nil, base.InvalidOperationf("gpu: context memory views must be shared")
	}
	m, err := newSharedView(c.alloc, appMemory, numBytes)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ContextNativeHandle implements base.Context.
func (c *Context) ContextNativeHandle() uintptr { return uintptr(unsafe.Pointer(c)) }

// Destroy implements base.Object.
func (c *Context) Destroy() error {
	c.alloc = nil
	return nil
}
