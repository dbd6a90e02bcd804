// Package cpu implements the host-processor execution backend: memory
// views over aligned host storage, kernel modules loaded from shared
// objects (or registered in-process), and task queues that run launches
// across a worker pool.
package cpu

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/accelrt/accelrt/base"
)

// Device is the CPU backend device. The host has a single address space,
// so shared and device allocations both resolve to host pointers.
type Device struct {
	base.RefCounted
	alloc *base.HostAllocator
}

var _ base.Device = (*Device)(nil)

// NewDevice creates a CPU device.
func NewDevice() (*Device, error) {
	d := &Device{alloc: base.NewHostAllocator()}
	d.InitRef()
	return d, nil
}

// DeviceType implements base.Device.
func (d *Device) DeviceType() base.DeviceType { return base.DeviceTypeCPU }

// NewMemoryView implements base.Device. A non-nil appMemory wraps
// caller-owned storage; otherwise the device allocates aligned host
// storage of the flagged type.
func (d *Device) NewMemoryView(appMemory unsafe.Pointer, numBytes uint64, flags base.MemoryViewFlags) (base.MemoryView, error) {
	return newMemoryView(d.alloc, appMemory, numBytes, flags), nil
}

// NewTaskQueue implements base.Device.
func (d *Device) NewTaskQueue() (base.TaskQueue, error) {
	return newTaskQueue(), nil
}

// MemAllocType implements base.Device.
func (d *Device) MemAllocType(ptr unsafe.Pointer) base.AllocType {
	return d.alloc.Classify(ptr)
}

// PlatformNativeHandle returns an opaque token for the host platform.
func (d *Device) PlatformNativeHandle() uintptr { return uintptr(unsafe.Pointer(d)) }

// DeviceNativeHandle returns an opaque token for this device.
func (d *Device) DeviceNativeHandle() uintptr { return uintptr(unsafe.Pointer(d)) }

// ContextNativeHandle returns an opaque token for the device's session.
func (d *Device) ContextNativeHandle() uintptr { return uintptr(unsafe.Pointer(d)) }

// Destroy implements base.Object.
func (d *Device) Destroy() error { return nil }

// Context is a CPU backend session. It only produces host-shared views.
type Context struct {
	base.RefCounted
	alloc *base.HostAllocator
}

var _ base.Context = (*Context)(nil)

// NewContext creates a CPU context.
func NewContext() (*Context, error) {
	c := &Context{alloc: base.NewHostAllocator()}
	c.InitRef()
	return c, nil
}

// DeviceType implements base.Context.
func (c *Context) DeviceType() base.DeviceType { return base.DeviceTypeCPU }

// NewMemoryView implements base.Context.
func (c *Context) NewMemoryView(appMemory unsafe.Pointer, numBytes uint64, flags base.MemoryViewFlags) (base.MemoryView, error) {
	return newMemoryView(c.alloc, appMemory, numBytes, flags), nil
}

// ContextNativeHandle returns an opaque token for the session.
func (c *Context) ContextNativeHandle() uintptr { return uintptr(unsafe.Pointer(c)) }

// Destroy implements base.Object.
func (c *Context) Destroy() error { return nil }

// DeviceCount returns the number of CPU devices. The host is always one
// device.
func DeviceCount() (uint32, error) { return 1, nil }

// DeviceInfo describes the host processor.
func DeviceInfo(deviceIndex uint32) (base.DeviceInfo, error) {
	count, _ := DeviceCount()
	if deviceIndex >= count {
		return base.DeviceInfo{}, base.Errorf(base.InvalidArgument,
			"cpu: device index %d out of range (%d devices)", deviceIndex, count)
	}
	return base.DeviceInfo{
		VendorID: 0,
		DeviceID: deviceIndex,
		Name:     fmt.Sprintf("CPU (%d threads, %s/%s)", runtime.NumCPU(), runtime.GOOS, runtime.GOARCH),
	}, nil
}
