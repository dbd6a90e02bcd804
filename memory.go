package accelrt

import (
	"unsafe"

	"github.com/accelrt/accelrt/base"
)

// NewMemoryView creates a memory view on a device. appMemory, when
// non-nil, is caller-owned storage the view wraps; otherwise the backend
// allocates numBytes itself. Only shared and device allocation types are
// valid here. Returns NilHandle on failure.
func NewMemoryView(device Handle, appMemory unsafe.Pointer, numBytes uint64, flags MemoryViewFlags) Handle {
	dev, err := resolve[base.Device](device, "device")
	if err != nil {
		report(err)
		return NilHandle
	}
	if flags.AllocType != AllocTypeShared && flags.AllocType != AllocTypeDevice {
		report(base.InvalidOperationf("unsupported allocation type %s for a device memory view", flags.AllocType))
		return NilHandle
	}
	view, err := dev.NewMemoryView(appMemory, numBytes, flags)
	if err != nil {
		report(err)
		return NilHandle
	}
	return handleOf(view)
}

// NewMemoryViewForContext creates a memory view on a bare context. Only
// the shared allocation type is valid: there is no device behind the
// context to host device-resident storage. Returns NilHandle on failure.
func NewMemoryViewForContext(context Handle, appMemory unsafe.Pointer, numBytes uint64, flags MemoryViewFlags) Handle {
	ctx, err := resolve[base.Context](context, "context")
	if err != nil {
		report(err)
		return NilHandle
	}
	if flags.AllocType != AllocTypeShared {
		report(base.InvalidOperationf("context memory views must use the shared allocation type"))
		return NilHandle
	}
	view, err := ctx.NewMemoryView(appMemory, numBytes, flags)
	if err != nil {
		report(err)
		return NilHandle
	}
	return handleOf(view)
}

// HostPtr returns the view's host-visible address, or nil for
// device-resident storage without a host mapping (and on failure).
func HostPtr(view Handle) unsafe.Pointer {
	v, err := resolve[base.MemoryView](view, "memory view")
	if err != nil {
		report(err)
		return nil
	}
	return v.HostPtr()
}

// DevicePtr returns the view's device-visible address or opaque
// device-storage token, or nil on failure.
func DevicePtr(view Handle) unsafe.Pointer {
	v, err := resolve[base.MemoryView](view, "memory view")
	if err != nil {
		report(err)
		return nil
	}
	return v.DevicePtr()
}

// SharedPtr returns the device-side address of a shared view. On
// backends with one address space this is the same address the host
// uses. Calling it on a non-shared view is an invalid operation.
// Returns nil on failure.
func SharedPtr(view Handle) unsafe.Pointer {
	v, err := resolve[base.MemoryView](view, "memory view")
	if err != nil {
		report(err)
		return nil
	}
	if v.AllocType() != AllocTypeShared {
		report(base.InvalidOperationf("shared pointer requested from a %s memory view", v.AllocType()))
		return nil
	}
	return v.DevicePtr()
}

// Size returns the view's size in bytes, or 0 on failure.
func Size(view Handle) uint64 {
	v, err := resolve[base.MemoryView](view, "memory view")
	if err != nil {
		report(err)
		return 0
	}
	return v.NumBytes()
}

// GetMemoryViewAllocType returns the view's allocation type, or
// AllocTypeUnknown on failure.
func GetMemoryViewAllocType(view Handle) AllocType {
	v, err := resolve[base.MemoryView](view, "memory view")
	if err != nil {
		report(err)
		return AllocTypeUnknown
	}
	return v.AllocType()
}

// GetMemoryAllocType classifies a raw pointer previously handed out by
// the device's backend. Pointers the backend does not recognize (and any
// failure) yield AllocTypeUnknown.
func GetMemoryAllocType(device Handle, ptr unsafe.Pointer) AllocType {
	dev, err := resolve[base.Device](device, "device")
	if err != nil {
		report(err)
		return AllocTypeUnknown
	}
	return dev.MemAllocType(ptr)
}
