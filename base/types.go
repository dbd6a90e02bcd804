package base

// DeviceType selects an execution backend kind. Auto defers the choice to
// runtime resolution (GPU preferred, silent fallback to CPU).
type DeviceType int32

const (
	DeviceTypeAuto DeviceType = iota
	DeviceTypeCPU
	DeviceTypeGPU
)

// String implements fmt.Stringer.
func (t DeviceType) String() string {
	switch t {
	case DeviceTypeAuto:
		return "auto"
	case DeviceTypeCPU:
		return "cpu"
	case DeviceTypeGPU:
		return "gpu"
	}
	return "invalid device type"
}

// AllocType classifies the storage of a memory view. Shared storage is
// visible to host and device through one address; Device storage is
// device-resident and not directly host-accessible.
type AllocType int32

const (
	AllocTypeDevice AllocType = iota
	AllocTypeShared
	AllocTypeUnknown
)

// String implements fmt.Stringer.
func (t AllocType) String() string {
	switch t {
	case AllocTypeDevice:
		return "device"
	case AllocTypeShared:
		return "shared"
	case AllocTypeUnknown:
		return "unknown"
	}
	return "invalid allocation type"
}

// SharedMemoryHint tells the backend how shared storage will be accessed,
// so it can pick a placement. Backends are free to ignore it.
type SharedMemoryHint int32

const (
	SharedMemoryHostDeviceReadWrite SharedMemoryHint = iota
	SharedMemoryHostWriteDeviceRead
	SharedMemoryHostReadDeviceWrite
)

// MemoryViewFlags parameterize memory view creation.
type MemoryViewFlags struct {
	AllocType AllocType
	SMHint    SharedMemoryHint
}

// ModuleOptions carries backend-interpreted load options for a module.
type ModuleOptions struct {
	// StackSize is a per-invocation stack hint for backends that size
	// kernel stacks at load time. Zero means backend default.
	StackSize uint32
	// LibraryCompilation marks the module as a library: its symbols are
	// meant to be linked into other modules rather than launched directly.
	LibraryCompilation bool
}

// DeviceInfo describes one enumerable device of a backend.
type DeviceInfo struct {
	VendorID uint32
	DeviceID uint32
	Name     string
}
