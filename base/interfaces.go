package base

import "unsafe"

// Device is one execution backend instance, possibly bound to a specific
// physical unit. It is the factory for every other object of its backend.
// Destroying a Device does not cascade to objects it created; they are
// released independently.
type Device interface {
	Object

	// DeviceType returns the concrete backend kind (never Auto).
	DeviceType() DeviceType

	// NewMemoryView creates a view of appMemory if non-nil, or asks the
	// backend to allocate numBytes of storage of the flagged type.
	NewMemoryView(appMemory unsafe.Pointer, numBytes uint64, flags MemoryViewFlags) (MemoryView, error)

	// NewModule loads and validates a compiled module from path.
	NewModule(path string, opts ModuleOptions) (Module, error)

	// DynamicLinkModules links the modules in place: their resolved-symbol
	// state is mutated and no new module is produced. A failed call leaves
	// no linked state behind.
	DynamicLinkModules(modules []Module) error

	// StaticLinkModules links the modules into one new module. The inputs
	// remain independently valid afterward.
	StaticLinkModules(modules []Module) (Module, error)

	// NewKernel binds the named entry point of module to this device,
	// validating the name at bind time.
	NewKernel(module Module, name string) (Kernel, error)

	// NewTaskQueue creates an ordered asynchronous command stream on this
	// device.
	NewTaskQueue() (TaskQueue, error)

	// MemAllocType classifies an arbitrary pointer previously handed out
	// by this backend; AllocTypeUnknown for anything it doesn't recognize.
	MemAllocType(ptr unsafe.Pointer) AllocType

	PlatformNativeHandle() uintptr
	DeviceNativeHandle() uintptr
	ContextNativeHandle() uintptr
}

// Context is a backend connection that can outlive or precede any Device,
// optionally wrapping an externally managed native session. It only
// supports host-shared allocations: there is no physical device behind a
// bare context to host device-resident memory.
type Context interface {
	Object

	// DeviceType returns the backend kind the context is bound to.
	DeviceType() DeviceType

	// NewMemoryView creates a host-shared view; flags requesting anything
	// but AllocTypeShared are rejected before reaching the backend.
	NewMemoryView(appMemory unsafe.Pointer, numBytes uint64, flags MemoryViewFlags) (MemoryView, error)

	ContextNativeHandle() uintptr
}

// MemoryView is a fixed-size region of memory visible from host and/or
// device. All queries are pure and valid for the view's entire lifetime.
type MemoryView interface {
	Object

	// HostPtr returns the host-visible address, or nil for device-resident
	// storage with no host mapping.
	HostPtr() unsafe.Pointer

	// DevicePtr returns the device-visible address. For backends without
	// raw device pointers this is an opaque token identifying the
	// device-side storage.
	DevicePtr() unsafe.Pointer

	NumBytes() uint64
	AllocType() AllocType
}

// Module is a unit of loadable compiled code bound to one device.
type Module interface {
	Object

	// FunctionPtr resolves a raw entry-point address for the named symbol.
	// Absence of the symbol is reported through the normal error channel,
	// indistinguishable from other internal failures except by message.
	FunctionPtr(name string) (uintptr, error)
}

// Kernel is a named entry point resolved from a module, bound to a device.
// It holds a back-reference to its module, not ownership: the module must
// stay alive for the kernel's lifetime.
type Kernel interface {
	Object
	Name() string
}

// TaskQueue is an ordered command stream bound to one device. Every
// submission is asynchronous; Sync is the only blocking operation. Size
// preconditions for copies are checked by the boundary before any command
// is enqueued.
type TaskQueue interface {
	Object

	// Every submission returns the completion token for that operation;
	// the token becomes valid once the backend reports completion.
	Barrier() (Future, error)
	CopyToDevice(view MemoryView) (Future, error)
	CopyToHost(view MemoryView) (Future, error)
	CopyMemoryView(dst, src MemoryView, numBytes uint64) (Future, error)

	// Launch enqueues a kernel over a dim0 x dim1 x dim2 grid. params may
	// be nil.
	Launch(kernel Kernel, params MemoryView, dim0, dim1, dim2 uint64) (Future, error)

	// Sync blocks until every command enqueued before the call completed.
	Sync() error

	NativeHandle() uintptr
}

// Future is the completion token of one submitted queue operation. It
// becomes valid asynchronously once the backend reports completion;
// querying the time before that yields the not-available sentinel (-1),
// never a fault.
type Future interface {
	Object
	Valid() bool
	TimeNs() int64
}
