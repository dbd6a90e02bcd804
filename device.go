package accelrt

import (
	"os"

	"github.com/accelrt/accelrt/base"
	"k8s.io/klog/v2"
)

// DeviceTypeEnvVar overrides AUTO device resolution when set to "cpu" or
// "gpu". Unknown values are ignored with a warning.
const DeviceTypeEnvVar = "ACCELRT_DEVICE"

func envDeviceType() (base.DeviceType, bool) {
	switch env := os.Getenv(DeviceTypeEnvVar); env {
	case "":
	case "cpu", "CPU":
		return base.DeviceTypeCPU, true
	case "gpu", "GPU":
		return base.DeviceTypeGPU, true
	default:
		klog.Warningf("accelrt: ignoring unknown %s value %q", DeviceTypeEnvVar, env)
	}
	return base.DeviceTypeAuto, false
}

// newDevice resolves the requested backend kind and constructs a device.
// AUTO prefers the GPU and silently falls back to the CPU when GPU
// construction fails for any reason; with a single backend compiled in,
// AUTO uses it unconditionally.
func newDevice(deviceType base.DeviceType, nativeContext, nativeDevice uintptr, deviceIndex uint32) (base.Device, error) {
	if deviceType == base.DeviceTypeAuto {
		if forced, ok := envDeviceType(); ok {
			deviceType = forced
		}
	}
	if deviceType != base.DeviceTypeAuto {
		backend, err := base.Lookup(deviceType)
		if err != nil {
			return nil, err
		}
		return backend.NewDevice(nativeContext, nativeDevice, deviceIndex)
	}

	if gpuBackend, err := base.Lookup(base.DeviceTypeGPU); err == nil {
		dev, gpuErr := gpuBackend.NewDevice(nativeContext, nativeDevice, deviceIndex)
		if gpuErr == nil {
			return dev, nil
		}
		if !base.Registered(base.DeviceTypeCPU) {
			return nil, gpuErr
		}
		klog.V(1).Infof("accelrt: gpu device construction failed, falling back to cpu: %v", gpuErr)
	}
	cpuBackend, err := base.Lookup(base.DeviceTypeCPU)
	if err != nil {
		return nil, base.Errorf(base.Unsupported, "no execution backend enabled")
	}
	return cpuBackend.NewDevice(nativeContext, nativeDevice, deviceIndex)
}

// GetDevice creates a device of the requested kind, bound to the given
// zero-based device index. Returns NilHandle on failure.
func GetDevice(deviceType DeviceType, deviceIndex uint32) Handle {
	dev, err := newDevice(deviceType, 0, 0, deviceIndex)
	if err != nil {
		report(err)
		return NilHandle
	}
	return handleOf(dev)
}

// GetDeviceFromContext creates a device sharing the context's backend
// kind and native session. The context's kind is already concrete, so no
// AUTO re-resolution happens here. Returns NilHandle on failure.
func GetDeviceFromContext(context Handle) Handle {
	ctx, err := resolve[base.Context](context, "context")
	if err != nil {
		report(err)
		return NilHandle
	}
	backend, err := base.Lookup(ctx.DeviceType())
	if err != nil {
		report(err)
		return NilHandle
	}
	dev, err := backend.NewDevice(ctx.ContextNativeHandle(), 0, 0)
	if err != nil {
		report(err)
		return NilHandle
	}
	return handleOf(dev)
}

// GetDeviceFromNativeHandle creates a device adopting an externally
// managed native context and device. The device type must be concrete.
// Returns NilHandle on failure.
func GetDeviceFromNativeHandle(deviceType DeviceType, nativeContext, nativeDevice uintptr) Handle {
	if deviceType == DeviceTypeAuto {
		report(base.InvalidOperationf("native handles require a concrete device type"))
		return NilHandle
	}
	dev, err := newDevice(deviceType, nativeContext, nativeDevice, 0)
	if err != nil {
		report(err)
		return NilHandle
	}
	return handleOf(dev)
}

// GetDeviceType returns the concrete backend kind of a device, which for
// devices created with DeviceTypeAuto is the kind AUTO resolved to.
// Returns DeviceTypeAuto on failure.
func GetDeviceType(device Handle) DeviceType {
	dev, err := resolve[base.Device](device, "device")
	if err != nil {
		report(err)
		return DeviceTypeAuto
	}
	return dev.DeviceType()
}

// GetDeviceCount returns the number of usable devices of the given kind,
// or 0 on failure. The device type must be concrete: enumeration under
// AUTO is an invalid operation.
func GetDeviceCount(deviceType DeviceType) uint32 {
	if deviceType == DeviceTypeAuto {
		report(base.InvalidOperationf("cannot enumerate devices of the auto device type"))
		return 0
	}
	backend, err := base.Lookup(deviceType)
	if err != nil {
		report(err)
		return 0
	}
	count, err := backend.DeviceCount()
	if err != nil {
		report(err)
		return 0
	}
	return count
}

// GetDeviceInfo describes the device at the given index. The second
// return is false on failure. The device type must be concrete.
func GetDeviceInfo(deviceType DeviceType, deviceIndex uint32) (DeviceInfo, bool) {
	if deviceType == DeviceTypeAuto {
		report(base.InvalidOperationf("cannot query device info for the auto device type"))
		return DeviceInfo{}, false
	}
	backend, err := base.Lookup(deviceType)
	if err != nil {
		report(err)
		return DeviceInfo{}, false
	}
	info, err := backend.DeviceInfo(deviceIndex)
	if err != nil {
		report(err)
		return DeviceInfo{}, false
	}
	return info, true
}
