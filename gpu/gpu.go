// Package gpu implements the GPU execution backend on WebGPU, using the
// cogentcore wgpu bindings. Kernel modules are WGSL shader files, kernels
// are compute-pipeline entry points, and memory views pair a host mirror
// with a storage buffer on the device.
package gpu

import (
	"fmt"
	"unsafe"

	"github.com/accelrt/accelrt/base"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/pkg/errors"
)

// Device is the GPU backend device behind one wgpu adapter.
type Device struct {
	base.RefCounted
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	info     wgpu.AdapterInfo
	alloc    *base.HostAllocator // host mirrors of shared views
}

var _ base.Device = (*Device)(nil)

// NewDevice initializes the WebGPU instance, adapter, device and queue.
// Construction fails when no compatible adapter or native library is
// present, which is what lets AUTO selection fall back to the CPU.
func NewDevice(deviceIndex uint32) (dev *Device, err error) {
	// A missing wgpu native library surfaces as a panic inside the
	// bindings; turn it into a constructible failure.
	defer func() {
		if r := recover(); r != nil {
			dev = nil
			err = errors.Errorf("gpu: native webgpu library not available: %v", r)
		}
	}()
	if deviceIndex > 0 {
		// WebGPU exposes a single default adapter; there is no adapter
		// enumeration to index into.
		return nil, base.Errorf(base.InvalidArgument, "gpu: device index %d out of range", deviceIndex)
	}

	instance := wgpu.CreateInstance(nil)
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, errors.WithMessage(err, "gpu: requesting adapter")
	}
	info := adapter.GetInfo()

	wgpuDevice, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, errors.WithMessage(err, "gpu: requesting device")
	}
	queue := wgpuDevice.GetQueue()
	if queue == nil {
		wgpuDevice.Release()
		adapter.Release()
		instance.Release()
		return nil, errors.New("gpu: device has no queue")
	}

	d := &Device{
		instance: instance,
		adapter:  adapter,
		device:   wgpuDevice,
		queue:    queue,
		info:     info,
		alloc:    base.NewHostAllocator(),
	}
	d.InitRef()
	return d, nil
}

// IsAvailable reports whether a WebGPU adapter can be brought up on this
// system. Useful for graceful fallback before committing to the backend.
func IsAvailable() (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()
	instance := wgpu.CreateInstance(nil)
	defer instance.Release()
	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		return false
	}
	adapter.Release()
	return true
}

// DeviceType implements base.Device.
func (d *Device) DeviceType() base.DeviceType { return base.DeviceTypeGPU }

// NewTaskQueue implements base.Device.
func (d *Device) NewTaskQueue() (base.TaskQueue, error) {
	return newTaskQueue(d), nil
}

// MemAllocType implements base.Device. Only host mirrors the backend
// allocated itself can be classified; raw device storage has no stable
// address to compare against.
func (d *Device) MemAllocType(ptr unsafe.Pointer) base.AllocType {
	return d.alloc.Classify(ptr)
}

// PlatformNativeHandle returns an opaque token for the wgpu instance.
func (d *Device) PlatformNativeHandle() uintptr { return uintptr(unsafe.Pointer(d.instance)) }

// DeviceNativeHandle returns an opaque token for the wgpu device.
func (d *Device) DeviceNativeHandle() uintptr { return uintptr(unsafe.Pointer(d.device)) }

// ContextNativeHandle returns an opaque token for the adapter session.
func (d *Device) ContextNativeHandle() uintptr { return uintptr(unsafe.Pointer(d.adapter)) }

// waitDone blocks until the device worked through everything submitted so
// far.
func (d *Device) waitDone() {
	d.device.Poll(true, nil)
}

// Destroy implements base.Object, releasing wgpu objects in reverse
// creation order. Idempotent.
func (d *Device) Destroy() error {
	if d.queue != nil {
		d.queue.Release()
		d.queue = nil
	}
	if d.device != nil {
		d.device.Release()
		d.device = nil
	}
	if d.adapter != nil {
		d.adapter.Release()
		d.adapter = nil
	}
	if d.instance != nil {
		d.instance.Release()
		d.instance = nil
	}
	return nil
}

// DeviceCount returns the number of usable GPU devices. WebGPU only
// exposes the default adapter, so this is 1 when available.
func DeviceCount() (uint32, error) {
	if !IsAvailable() {
		return 0, nil
	}
	return 1, nil
}

// DeviceInfo describes the adapter at the given index.
func DeviceInfo(deviceIndex uint32) (base.DeviceInfo, error) {
	count, err := DeviceCount()
	if err != nil {
		return base.DeviceInfo{}, err
	}
	if deviceIndex >= count {
		return base.DeviceInfo{}, base.Errorf(base.InvalidArgument,
			"gpu: device index %d out of range (%d devices)", deviceIndex, count)
	}
	d, err := NewDevice(deviceIndex)
	if err != nil {
		return base.DeviceInfo{}, err
	}
	defer func() { _ = d.Destroy() }()
	return base.DeviceInfo{
		VendorID: d.info.VendorId,
		DeviceID: d.info.DeviceId,
		Name:     fmt.Sprintf("%s (%s)", d.info.Name, d.info.VendorName),
	}, nil
}
