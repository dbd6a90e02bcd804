package cpu

import (
	"github.com/accelrt/accelrt/base"
)

// kernel is a named entry point bound to its module. The entry is
// resolved at bind time, so an unknown name fails here rather than at
// launch. The module reference is a back-reference, not ownership: the
// caller keeps the module alive for the kernel's lifetime.
type kernel struct {
	base.RefCounted
	name   string
	module *module
	fn     KernelFunc
}

var _ base.Kernel = (*kernel)(nil)

// NewKernel implements base.Device.
func (d *Device) NewKernel(bm base.Module, name string) (base.Kernel, error) {
	m, ok := bm.(*module)
	if !ok {
		return nil, base.InvalidOperationf("cpu: module is a %T, not a cpu module", bm)
	}
	fn, err := m.lookup(name)
	if err != nil {
		return nil, err
	}
	k := &kernel{name: name, module: m, fn: fn}
	k.InitRef()
	return k, nil
}

// Name implements base.Kernel.
func (k *kernel) Name() string { return k.name }

// Destroy implements base.Object.
func (k *kernel) Destroy() error { return nil }
