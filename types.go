package accelrt

import "github.com/accelrt/accelrt/base"

// DeviceType selects an execution backend kind.
type DeviceType = base.DeviceType

const (
	DeviceTypeAuto = base.DeviceTypeAuto
	DeviceTypeCPU  = base.DeviceTypeCPU
	DeviceTypeGPU  = base.DeviceTypeGPU
)

// DeviceInfo describes one enumerable device of a backend.
type DeviceInfo = base.DeviceInfo

// AllocType classifies memory view storage.
type AllocType = base.AllocType

const (
	AllocTypeDevice  = base.AllocTypeDevice
	AllocTypeShared  = base.AllocTypeShared
	AllocTypeUnknown = base.AllocTypeUnknown
)

// SharedMemoryHint tells the backend how shared storage will be accessed.
type SharedMemoryHint = base.SharedMemoryHint

const (
	SharedMemoryHostDeviceReadWrite = base.SharedMemoryHostDeviceReadWrite
	SharedMemoryHostWriteDeviceRead = base.SharedMemoryHostWriteDeviceRead
	SharedMemoryHostReadDeviceWrite = base.SharedMemoryHostReadDeviceWrite
)

// MemoryViewFlags parameterize memory view creation.
type MemoryViewFlags = base.MemoryViewFlags

// ModuleOptions carries backend-interpreted module load options.
type ModuleOptions = base.ModuleOptions
