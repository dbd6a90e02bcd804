package accelrt

import (
	"github.com/accelrt/accelrt/base"
)

// Native interop handles are opaque uintptr tokens into the backend's
// underlying platform objects. They stay valid only while the handle
// they came from is alive, and their meaning is backend-specific.

// PlatformNativeHandle returns the device's platform-level native
// handle, or 0 on failure.
func PlatformNativeHandle(device Handle) uintptr {
	dev, err := resolve[base.Device](device, "device")
	if err != nil {
		report(err)
		return 0
	}
	return dev.PlatformNativeHandle()
}

// DeviceNativeHandle returns the device's own native handle, or 0 on
// failure.
func DeviceNativeHandle(device Handle) uintptr {
	dev, err := resolve[base.Device](device, "device")
	if err != nil {
		report(err)
		return 0
	}
	return dev.DeviceNativeHandle()
}

// DeviceContextNativeHandle returns the native handle of the session the
// device runs in, or 0 on failure.
func DeviceContextNativeHandle(device Handle) uintptr {
	dev, err := resolve[base.Device](device, "device")
	if err != nil {
		report(err)
		return 0
	}
	return dev.ContextNativeHandle()
}

// ContextNativeHandle returns the context's native session handle, or 0
// on failure.
func ContextNativeHandle(context Handle) uintptr {
	ctx, err := resolve[base.Context](context, "context")
	if err != nil {
		report(err)
		return 0
	}
	return ctx.ContextNativeHandle()
}

// TaskQueueNativeHandle returns the queue's backend-level native handle,
// or 0 on failure.
func TaskQueueNativeHandle(queue Handle) uintptr {
	q, err := resolveQueue(queue)
	if err != nil {
		report(err)
		return 0
	}
	return q.NativeHandle()
}
