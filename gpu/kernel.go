package gpu

import (
	"github.com/accelrt/accelrt/base"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/pkg/errors"
)

// kernel is one compute entry point, compiled into a pipeline at
// creation so that a bad entry name fails here rather than at launch.
//
// The entry point must follow the runtime's kernel convention: a single
// optional storage buffer at @group(0) @binding(0) carrying the kernel
// parameters, with the grid position supplied via built-ins.
type kernel struct {
	base.RefCounted
	name     string
	module   *module
	pipeline *wgpu.ComputePipeline
}

var _ base.Kernel = (*kernel)(nil)

// NewKernel implements base.Device.
func (d *Device) NewKernel(bm base.Module, name string) (base.Kernel, error) {
	m, ok := bm.(*module)
	if !ok || m == nil {
		return nil, base.InvalidOperationf("gpu: kernel module is not a GPU module")
	}
	shader, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          m.path + ":" + name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: m.entrySource()},
	})
	if err != nil {
		return nil, errors.WithMessagef(err, "gpu: compiling kernel %q", name)
	}
	defer shader.Release()
	pipeline, err := d.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: name,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     shader,
			EntryPoint: name,
		},
	})
	if err != nil {
		return nil, base.WrapError(base.InvalidArgument, err,
			"gpu: creating pipeline for kernel %q", name)
	}
	k := &kernel{name: name, module: m, pipeline: pipeline}
	k.InitRef()
	return k, nil
}

// Name implements base.Kernel.
func (k *kernel) Name() string { return k.name }

// Destroy implements base.Object.
func (k *kernel) Destroy() error {
	if k.pipeline != nil {
		k.pipeline.Release()
		k.pipeline = nil
	}
	k.module = nil
	return nil
}
