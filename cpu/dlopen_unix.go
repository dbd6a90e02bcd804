//go:build darwin || freebsd || linux

package cpu

// Compiled kernel modules are ordinary shared objects; purego gives us
// dlopen/dlsym without cgo. RTLD_GLOBAL matches the link model: symbols
// of every loaded module join one namespace, which dynamic linking then
// scopes per link group.

import (
	"unsafe"

	"github.com/accelrt/accelrt/base"
	"github.com/ebitengine/purego"
)

func dlopenModule(path string) (uintptr, error) {
	lib, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return 0, base.WrapError(base.InvalidArgument, err, "cpu: loading module")
	}
	return lib, nil
}

func dlsymModule(lib uintptr, name string) (uintptr, error) {
	addr, err := purego.Dlsym(lib, name)
	if err != nil {
		return 0, base.WrapError(base.InvalidArgument, err, "cpu: resolving symbol")
	}
	return addr, nil
}

func dlcloseModule(lib uintptr) error {
	if err := purego.Dlclose(lib); err != nil {
		return base.WrapError(base.UnknownError, err, "cpu: closing module")
	}
	return nil
}

// nativeKernel adapts a native entry point to the in-process kernel
// shape. The native ABI takes the parameter block plus the grid point and
// extents as 64-bit integers.
func nativeKernel(addr uintptr) KernelFunc {
	return func(params unsafe.Pointer, i0, i1, i2, d0, d1, d2 uint64) {
		purego.SyscallN(addr, uintptr(params),
			uintptr(i0), uintptr(i1), uintptr(i2),
			uintptr(d0), uintptr(d1), uintptr(d2))
	}
}

// kernelCallback produces a stable C-callable address for a builtin
// kernel, so FunctionPtr behaves the same whether the module came from a
// shared object or was registered in-process.
func kernelCallback(fn KernelFunc) uintptr {
	return purego.NewCallback(func(params, i0, i1, i2, d0, d1, d2 uintptr) uintptr {
		fn(unsafe.Pointer(params), uint64(i0), uint64(i1), uint64(i2), uint64(d0), uint64(d1), uint64(d2))
		return 0
	})
}
