package cpu

import (
	"sync"
	"unsafe"

	"github.com/accelrt/accelrt/base"
)

// KernelFunc is the in-process form of a kernel entry point. Entry points
// resolved from compiled shared objects are adapted to the same shape.
// The function is invoked once per grid point, with the point's indices
// and the full grid extents.
type KernelFunc func(params unsafe.Pointer, i0, i1, i2, d0, d1, d2 uint64)

var (
	builtinMu sync.RWMutex
	builtins  = map[string]map[string]KernelFunc{}
)

// RegisterBuiltinModule registers an in-process module under the given
// path, so Device.NewModule resolves it without a shared object on disk.
// This serves programs that pre-link their kernels into the binary, the
// same way a pre-loaded plugin sidesteps dlopen.
func RegisterBuiltinModule(path string, kernels map[string]KernelFunc) {
	builtinMu.Lock()
	defer builtinMu.Unlock()
	builtins[path] = kernels
}

func builtinModule(path string) (map[string]KernelFunc, bool) {
	builtinMu.RLock()
	defer builtinMu.RUnlock()
	kernels, ok := builtins[path]
	return kernels, ok
}

// linkGroup is the shared resolution scope created by a dynamic link:
// every member consults the group when its own lookup misses.
type linkGroup struct {
	members []*module
}

// module is a loaded unit of CPU kernel code: either an in-process
// builtin, a dlopen'd shared object, or a static-link composite of other
// modules.
type module struct {
	base.RefCounted
	path    string
	lib     uintptr // dlopen handle, 0 when not backed by a shared object
	kernels map[string]KernelFunc
	members []*module // static-link composite members

	mu    sync.Mutex
	group *linkGroup

	// callbacks caches C-callable trampolines for builtin kernels, so
	// FunctionPtr hands out a stable address per symbol.
	callbacks map[string]uintptr
}

var _ base.Module = (*module)(nil)

// NewModule implements base.Device. The options' stack-size hint has no
// effect on this backend: goroutine stacks grow on demand.
func (d *Device) NewModule(path string, opts base.ModuleOptions) (base.Module, error) {
	m := &module{path: path}
	m.InitRef()
	if kernels, ok := builtinModule(path); ok {
		m.kernels = kernels
		return m, nil
	}
	lib, err := dlopenModule(path)
	if err != nil {
		return nil, err
	}
	m.lib = lib
	return m, nil
}

// DynamicLinkModules implements base.Device. All inputs are placed in one
// link group; validation happens before any module is mutated, so a
// failed call leaves no linked state.
func (d *Device) DynamicLinkModules(modules []base.Module) error {
	members, err := cpuModules(modules)
	if err != nil {
		return err
	}
	group := &linkGroup{members: members}
	for _, m := range members {
		m.mu.Lock()
		m.group = group
		m.mu.Unlock()
	}
	return nil
}

// StaticLinkModules implements base.Device. The result is a new module
// resolving symbols across the members; the inputs stay independently
// valid.
func (d *Device) StaticLinkModules(modules []base.Module) (base.Module, error) {
	members, err := cpuModules(modules)
	if err != nil {
		return nil, err
	}
	linked := &module{path: "static-link", members: members}
	linked.InitRef()
	return linked, nil
}

func cpuModules(modules []base.Module) ([]*module, error) {
	if len(modules) == 0 {
		return nil, base.InvalidOperationf("cpu: no modules to link")
	}
	members := make([]*module, len(modules))
	for i, bm := range modules {
		m, ok := bm.(*module)
		if !ok {
			return nil, base.InvalidOperationf("cpu: module %d is a %T, not a cpu module", i, bm)
		}
		members[i] = m
	}
	return members, nil
}

// lookupLocal resolves a symbol within this module only: builtin table
// first, then the shared object, then static-link members.
func (m *module) lookupLocal(name string) (KernelFunc, error) {
	if fn, ok := m.kernels[name]; ok {
		return fn, nil
	}
	if m.lib != 0 {
		addr, err := dlsymModule(m.lib, name)
		if err == nil {
			return nativeKernel(addr), nil
		}
	}
	for _, member := range m.members {
		if fn, err := member.lookupLocal(name); err == nil {
			return fn, nil
		}
	}
	return nil, base.Errorf(base.InvalidArgument, "cpu: symbol %q not found in module %q", name, m.path)
}

// lookup resolves a symbol in this module, falling back to the module's
// dynamic link group.
func (m *module) lookup(name string) (KernelFunc, error) {
	fn, err := m.lookupLocal(name)
	if err == nil {
		return fn, nil
	}
	m.mu.Lock()
	group := m.group
	m.mu.Unlock()
	if group != nil {
		for _, member := range group.members {
			if member == m {
				continue
			}
			if fn, memberErr := member.lookupLocal(name); memberErr == nil {
				return fn, nil
			}
		}
	}
	return nil, err
}

// functionPtrLocal resolves an address within this module only: builtin
// trampolines first, then the shared object, then static-link members.
func (m *module) functionPtrLocal(name string) (uintptr, bool) {
	if fn, ok := m.kernels[name]; ok {
		return m.callbackFor(name, fn), true
	}
	if m.lib != 0 {
		if addr, err := dlsymModule(m.lib, name); err == nil {
			return addr, true
		}
	}
	for _, member := range m.members {
		if addr, ok := member.functionPtrLocal(name); ok {
			return addr, true
		}
	}
	return 0, false
}

// callbackFor returns the C-callable trampoline for a builtin kernel,
// cached so the address is stable per symbol.
func (m *module) callbackFor(name string, fn KernelFunc) uintptr {
	m.mu.Lock()
	defer m.mu.Unlock()
	if addr, ok := m.callbacks[name]; ok {
		return addr
	}
	addr := kernelCallback(fn)
	if m.callbacks == nil {
		m.callbacks = map[string]uintptr{}
	}
	m.callbacks[name] = addr
	return addr
}

// FunctionPtr implements base.Module. Resolution covers the same scopes
// as kernel lookup: this module, its static-link members, then the
// dynamic link group. Shared-object symbols resolve to their native
// address; builtin kernels resolve to a C-callable trampoline.
func (m *module) FunctionPtr(name string) (uintptr, error) {
	if addr, ok := m.functionPtrLocal(name); ok {
		return addr, nil
	}
	m.mu.Lock()
	group := m.group
	m.mu.Unlock()
	if group != nil {
		for _, member := range group.members {
			if member == m {
				continue
			}
			if addr, ok := member.functionPtrLocal(name); ok {
				return addr, nil
			}
		}
	}
	return 0, base.Errorf(base.InvalidArgument, "cpu: symbol %q not found in module %q", name, m.path)
}

// Destroy implements base.Object. Idempotent.
func (m *module) Destroy() error {
	if m.lib != 0 {
		lib := m.lib
		m.lib = 0
		return dlcloseModule(lib)
	}
	return nil
}
