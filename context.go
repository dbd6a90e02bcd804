package accelrt

import (
	"github.com/accelrt/accelrt/base"
	"k8s.io/klog/v2"
)

// newContext mirrors newDevice's AUTO resolution for contexts: GPU
// preferred, silent fallback to CPU on construction failure.
func newContext(deviceType base.DeviceType, nativeContext uintptr) (base.Context, error) {
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
		return backend.NewContext(nativeContext)
	}

	if gpuBackend, err := base.Lookup(base.DeviceTypeGPU); err == nil {
		ctx, gpuErr := gpuBackend.NewContext(nativeContext)
		if gpuErr == nil {
			return ctx, nil
		}
		if !base.Registered(base.DeviceTypeCPU) {
			return nil, gpuErr
		}
		klog.V(1).Infof("accelrt: gpu context construction failed, falling back to cpu: %v", gpuErr)
	}
	cpuBackend, err := base.Lookup(base.DeviceTypeCPU)
	if err != nil {
		return nil, base.Errorf(base.Unsupported, "no execution backend enabled")
	}
	return cpuBackend.NewContext(nativeContext)
}

// NewContext creates an allocation context of the requested kind. A
// context supports host-shared memory views without (or before) a full
// device. Returns NilHandle on failure.
func NewContext(deviceType DeviceType) Handle {
	ctx, err := newContext(deviceType, 0)
	if err != nil {
		report(err)
		return NilHandle
	}
	return handleOf(ctx)
}

// GetContextFromNativeHandle creates a context adopting an externally
// managed native session. The device type must be concrete. Returns
// NilHandle on failure.
func GetContextFromNativeHandle(deviceType DeviceType, nativeContext uintptr) Handle {
	if deviceType == DeviceTypeAuto {
		report(base.InvalidOperationf("native handles require a concrete device type"))
		return NilHandle
	}
	ctx, err := newContext(deviceType, nativeContext)
	if err != nil {
		report(err)
		return NilHandle
	}
	return handleOf(ctx)
}
