//go:build !(darwin || freebsd || linux)

package cpu

import (
	"runtime"
	"unsafe"

	"github.com/accelrt/accelrt/base"
)

// Shared-object module loading needs dlopen; platforms without it can
// still use builtin modules registered in-process.

func dlopenModule(path string) (uintptr, error) {
	return 0, base.Unsupportedf("cpu: loading compiled modules is not supported on %s", runtime.GOOS)
}

func dlsymModule(lib uintptr, name string) (uintptr, error) {
	return 0, base.Unsupportedf("cpu: native symbols are not supported on %s", runtime.GOOS)
}

func dlcloseModule(lib uintptr) error { return nil }

func nativeKernel(addr uintptr) KernelFunc {
	return func(params unsafe.Pointer, i0, i1, i2, d0, d1, d2 uint64) {}
}

func kernelCallback(fn KernelFunc) uintptr { return 0 }
