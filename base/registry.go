package base

import (
	"sync"

	"k8s.io/klog/v2"
)

// Backend is the factory set one execution backend registers for its
// device type. The native handle parameters allow adopting an externally
// managed session; backends that cannot adopt foreign handles ignore them.
type Backend struct {
	Name string

	NewDevice   func(nativeContext, nativeDevice uintptr, deviceIndex uint32) (Device, error)
	NewContext  func(nativeContext uintptr) (Context, error)
	DeviceCount func() (uint32, error)
	DeviceInfo  func(deviceIndex uint32) (DeviceInfo, error)
}

var (
	registryMu sync.RWMutex
	registry   = map[DeviceType]*Backend{}
)

// Register installs (or replaces) the backend for the given device type.
// Backends call this from the accelrt root package's build-tag-gated
// registration files, which is how "compiled in" is expressed.
func Register(deviceType DeviceType, backend *Backend) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[deviceType] = backend
	klog.V(1).Infof("accelrt: registered %s backend %q", deviceType, backend.Name)
}

// Lookup returns the backend registered for the device type, or an
// Unsupported error when that backend is not compiled in.
func Lookup(deviceType DeviceType) (*Backend, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	backend := registry[deviceType]
	if backend == nil {
		return nil, Errorf(Unsupported, "%s support not enabled", deviceType)
	}
	return backend, nil
}

// Registered reports whether a backend is compiled in for the device type.
func Registered(deviceType DeviceType) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry[deviceType] != nil
}
