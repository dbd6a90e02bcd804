package gpu

import (
	"os"
	"strings"

	"github.com/accelrt/accelrt/base"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// module is a compiled WGSL shader. Linking is source-level: linked
// modules share their sources so a kernel entry point can reference
// functions defined in a sibling, and the combined source is recompiled
// per entry point at kernel creation.
type module struct {
	base.RefCounted
	dev    *Device
	path   string
	source string
	shader *wgpu.ShaderModule
	linked []*module
}

var _ base.Module = (*module)(nil)

// NewModule implements base.Device, loading a WGSL shader from disk.
// Paths without an extension get ".wgsl" appended, mirroring how CPU
// module paths omit the platform library suffix.
func (d *Device) NewModule(path string, opts base.ModuleOptions) (base.Module, error) {
	file := path
	if !strings.Contains(file, ".") {
		file += ".wgsl"
	}
	src, err := os.ReadFile(file)
	if err != nil {
		return nil, base.WrapError(base.InvalidArgument, err, "gpu: loading shader module")
	}
	if opts.StackSize != 0 {
		klog.V(1).Infof("gpu: stack size option (%d) has no effect on WebGPU modules", opts.StackSize)
	}
	m, err := d.newModuleFromSource(path, string(src))
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (d *Device) newModuleFromSource(path, source string) (*module, error) {
	shader, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          path,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: source},
	})
	if err != nil {
		return nil, errors.WithMessagef(err, "gpu: compiling shader module %q", path)
	}
	m := &module{dev: d, path: path, source: source, shader: shader}
	m.InitRef()
	return m, nil
}

// gpuModules validates the handles and converts to the concrete type.
func gpuModules(modules []base.Module) ([]*module, error) {
	out := make([]*module, len(modules))
	for i, bm := range modules {
		m, ok := bm.(*module)
		if !ok || m == nil {
			return nil, base.InvalidOperationf("gpu: module %d is not a GPU module", i)
		}
		out[i] = m
	}
	return out, nil
}

// DynamicLinkModules implements base.Device. The combined source of all
// modules is compiled once up front so that link errors surface here and
// a failed link leaves every module untouched.
func (d *Device) DynamicLinkModules(modules []base.Module) error {
	ms, err := gpuModules(modules)
	if err != nil {
		return err
	}
	combined := combineSources(ms)
	probe, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "accelrt-link-check",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: combined},
	})
	if err != nil {
		return base.WrapError(base.UnknownError, err, "gpu: linking modules")
	}
	probe.Release()
	for _, m := range ms {
		group := make([]*module, 0, len(ms)-1)
		for _, other := range ms {
			if other != m {
				group = append(group, other)
			}
		}
		m.linked = group
	}
	return nil
}

// StaticLinkModules implements base.Device, producing one module holding
// the concatenated sources.
func (d *Device) StaticLinkModules(modules []base.Module) (base.Module, error) {
	ms, err := gpuModules(modules)
	if err != nil {
		return nil, err
	}
	m, err := d.newModuleFromSource("static-link", combineSources(ms))
	if err != nil {
		return nil, err
	}
	return m, nil
}

func combineSources(ms []*module) string {
	var b strings.Builder
	for _, m := range ms {
		b.WriteString(m.source)
		b.WriteString("\n")
	}
	return b.String()
}

// entrySource returns the WGSL source a kernel from this module should be
// compiled against: the module's own source plus everything dynamically
// linked to it.
func (m *module) entrySource() string {
	if len(m.linked) == 0 {
		return m.source
	}
	return combineSources(append([]*module{m}, m.linked...))
}

// FunctionPtr implements base.Module. Shader code has no host-callable
// address on WebGPU.
func (m *module) FunctionPtr(name string) (uintptr, error) {
	return 0, base.Unsupportedf("gpu: function pointers are not available for shader modules")
}

// Destroy implements base.Object.
func (m *module) Destroy() error {
	if m.shader != nil {
		m.shader.Release()
		m.shader = nil
	}
	m.linked = nil
	m.dev = nil
	return nil
}
