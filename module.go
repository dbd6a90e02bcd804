package accelrt

import (
	"github.com/accelrt/accelrt/base"
)

// LoadModule loads and validates a compiled kernel module from path on
// the device's backend. Returns NilHandle on failure.
func LoadModule(device Handle, path string, opts ModuleOptions) Handle {
	dev, err := resolve[base.Device](device, "device")
	if err != nil {
		report(err)
		return NilHandle
	}
	mod, err := dev.NewModule(path, opts)
	if err != nil {
		report(err)
		return NilHandle
	}
	return handleOf(mod)
}

// resolveModules validates a module handle list for link operations.
func resolveModules(modules []Handle) ([]base.Module, error) {
	if len(modules) == 0 {
		return nil, base.InvalidOperationf("no modules to link")
	}
	out := make([]base.Module, len(modules))
	for i, h := range modules {
		m, err := resolve[base.Module](h, "module")
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

// DynamicLinkModules links the modules in place, mutating their
// resolved-symbol state. No new handle is produced; the inputs remain
// valid and are mutually link-resolved afterward. A failed call leaves
// no linked state behind.
func DynamicLinkModules(device Handle, modules ...Handle) {
	dev, err := resolve[base.Device](device, "device")
	if err != nil {
		report(err)
		return
	}
	ms, err := resolveModules(modules)
	if err != nil {
		report(err)
		return
	}
	if err := dev.DynamicLinkModules(ms); err != nil {
		report(err)
	}
}

// StaticLinkModules links the modules into one new, independently
// releasable module; the inputs remain independently valid afterward.
// Returns NilHandle on failure.
func StaticLinkModules(device Handle, modules ...Handle) Handle {
	dev, err := resolve[base.Device](device, "device")
	if err != nil {
		report(err)
		return NilHandle
	}
	ms, err := resolveModules(modules)
	if err != nil {
		report(err)
		return NilHandle
	}
	linked, err := dev.StaticLinkModules(ms)
	if err != nil {
		report(err)
		return NilHandle
	}
	return handleOf(linked)
}

// FunctionPtr resolves the raw entry-point address of the named symbol
// within the module. An absent symbol is reported through the error
// callback like any other failure. Returns 0 on failure.
func FunctionPtr(module Handle, name string) uintptr {
	mod, err := resolve[base.Module](module, "module")
	if err != nil {
		report(err)
		return 0
	}
	addr, err := mod.FunctionPtr(name)
	if err != nil {
		report(err)
		return 0
	}
	return addr
}

// NewKernel binds the named entry point of module to the device,
// validating the name at bind time. The kernel keeps a back-reference to
// the module; the caller must keep the module alive for the kernel's
// lifetime. Returns NilHandle on failure.
func NewKernel(device, module Handle, name string) Handle {
	dev, err := resolve[base.Device](device, "device")
	if err != nil {
		report(err)
		return NilHandle
	}
	mod, err := resolve[base.Module](module, "module")
	if err != nil {
		report(err)
		return NilHandle
	}
	kernel, err := dev.NewKernel(mod, name)
	if err != nil {
		report(err)
		return NilHandle
	}
	return handleOf(kernel)
}
