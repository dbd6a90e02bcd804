package cpu

import (
	"sync/atomic"
	"testing"
	"unsafe"

	"github.com/accelrt/accelrt/base"
	"github.com/stretchr/testify/require"
)

// registerIotaModule installs a builtin module whose "iota" kernel writes
// the flattened grid index into the params view (one float32 per point)
// and whose "scale2" kernel doubles every element in place.
func registerIotaModule(t *testing.T) string {
	t.Helper()
	path := "testdata/" + t.Name()
	RegisterBuiltinModule(path, map[string]KernelFunc{
		"iota": func(params unsafe.Pointer, i0, i1, i2, d0, d1, d2 uint64) {
			flat := i0 + d0*(i1+d1*i2)
			out := unsafe.Slice((*float32)(params), d0*d1*d2)
			out[flat] = float32(flat)
		},
		"scale2": func(params unsafe.Pointer, i0, i1, i2, d0, d1, d2 uint64) {
			flat := i0 + d0*(i1+d1*i2)
			out := unsafe.Slice((*float32)(params), d0*d1*d2)
			out[flat] *= 2
		},
	})
	return path
}

func TestDeviceInfo(t *testing.T) {
	count, err := DeviceCount()
	require.NoError(t, err)
	require.Equal(t, uint32(1), count)

	info, err := DeviceInfo(0)
	require.NoError(t, err)
	require.NotEmpty(t, info.Name)

	_, err = DeviceInfo(1)
	require.Error(t, err)
	require.Equal(t, base.InvalidArgument, base.CodeOf(err))
}

func TestMemoryViews(t *testing.T) {
	dev, err := NewDevice()
	require.NoError(t, err)
	defer func() { require.NoError(t, dev.Destroy()) }()

	shared, err := dev.NewMemoryView(nil, 256, base.MemoryViewFlags{AllocType: base.AllocTypeShared})
	require.NoError(t, err)
	require.Equal(t, uint64(256), shared.NumBytes())
	require.Equal(t, base.AllocTypeShared, shared.AllocType())
	// One address space: host and device pointers match.
	require.Equal(t, shared.HostPtr(), shared.DevicePtr())
	require.Equal(t, uintptr(0), uintptr(shared.HostPtr())%base.BufferAlignment)

	require.Equal(t, base.AllocTypeShared, dev.MemAllocType(shared.HostPtr()))
	// An interior pointer still classifies.
	interior := unsafe.Add(shared.HostPtr(), 100)
	require.Equal(t, base.AllocTypeShared, dev.MemAllocType(interior))

	devView, err := dev.NewMemoryView(nil, 64, base.MemoryViewFlags{AllocType: base.AllocTypeDevice})
	require.NoError(t, err)
	require.Equal(t, base.AllocTypeDevice, dev.MemAllocType(devView.DevicePtr()))

	var local [16]byte
	require.Equal(t, base.AllocTypeUnknown, dev.MemAllocType(unsafe.Pointer(&local[0])))

	// Views over app memory leave ownership with the caller.
	wrapped, err := dev.NewMemoryView(unsafe.Pointer(&local[0]), 16, base.MemoryViewFlags{AllocType: base.AllocTypeShared})
	require.NoError(t, err)
	require.Equal(t, unsafe.Pointer(&local[0]), wrapped.HostPtr())

	require.NoError(t, shared.Destroy())
	require.Equal(t, base.AllocTypeUnknown, dev.MemAllocType(shared.HostPtr()))
	require.NoError(t, devView.Destroy())
	require.NoError(t, wrapped.Destroy())
}

func TestBuiltinModuleLaunch(t *testing.T) {
	path := registerIotaModule(t)
	dev, err := NewDevice()
	require.NoError(t, err)

	mod, err := dev.NewModule(path, base.ModuleOptions{})
	require.NoError(t, err)
	kern, err := dev.NewKernel(mod, "iota")
	require.NoError(t, err)
	require.Equal(t, "iota", kern.Name())

	const d0, d1, d2 = 7, 5, 3
	view, err := dev.NewMemoryView(nil, d0*d1*d2*4, base.MemoryViewFlags{AllocType: base.AllocTypeShared})
	require.NoError(t, err)

	queue, err := dev.NewTaskQueue()
	require.NoError(t, err)

	future, err := queue.Launch(kern, view, d0, d1, d2)
	require.NoError(t, err)
	require.NoError(t, queue.Sync())
	require.True(t, future.Valid())
	require.GreaterOrEqual(t, future.TimeNs(), int64(0))

	out := unsafe.Slice((*float32)(view.HostPtr()), d0*d1*d2)
	for i, got := range out {
		require.Equal(t, float32(i), got)
	}
	require.NoError(t, queue.Destroy())
}

func TestUnknownKernelName(t *testing.T) {
	path := registerIotaModule(t)
	dev, err := NewDevice()
	require.NoError(t, err)
	mod, err := dev.NewModule(path, base.ModuleOptions{})
	require.NoError(t, err)

	_, err = dev.NewKernel(mod, "no_such_kernel")
	require.Error(t, err)
	require.Equal(t, base.InvalidArgument, base.CodeOf(err))
}

func TestMissingModulePath(t *testing.T) {
	dev, err := NewDevice()
	require.NoError(t, err)
	_, err = dev.NewModule("testdata/does-not-exist.so", base.ModuleOptions{})
	require.Error(t, err)
}

func TestStaticLink(t *testing.T) {
	pathA := "testdata/" + t.Name() + "/a"
	pathB := "testdata/" + t.Name() + "/b"
	var calls atomic.Int64
	RegisterBuiltinModule(pathA, map[string]KernelFunc{
		"from_a": func(params unsafe.Pointer, i0, i1, i2, d0, d1, d2 uint64) { calls.Add(1) },
	})
	RegisterBuiltinModule(pathB, map[string]KernelFunc{
		"from_b": func(params unsafe.Pointer, i0, i1, i2, d0, d1, d2 uint64) { calls.Add(1) },
	})

	dev, err := NewDevice()
	require.NoError(t, err)
	modA, err := dev.NewModule(pathA, base.ModuleOptions{})
	require.NoError(t, err)
	modB, err := dev.NewModule(pathB, base.ModuleOptions{})
	require.NoError(t, err)

	linked, err := dev.StaticLinkModules([]base.Module{modA, modB})
	require.NoError(t, err)

	// The composite resolves symbols from both members.
	for _, name := range []string{"from_a", "from_b"} {
		kern, err := dev.NewKernel(linked, name)
		require.NoError(t, err, "kernel %q", name)
		queue, err := dev.NewTaskQueue()
		require.NoError(t, err)
		_, err = queue.Launch(kern, nil, 1, 1, 1)
		require.NoError(t, err)
		require.NoError(t, queue.Sync())
		require.NoError(t, queue.Destroy())
	}
	require.Equal(t, int64(2), calls.Load())

	// The inputs stay independently usable.
	_, err = dev.NewKernel(modA, "from_a")
	require.NoError(t, err)
	require.NoError(t, linked.Destroy())
	_, err = dev.NewKernel(modB, "from_b")
	require.NoError(t, err)
}

func TestDynamicLink(t *testing.T) {
	pathA := "testdata/" + t.Name() + "/a"
	pathB := "testdata/" + t.Name() + "/b"
	RegisterBuiltinModule(pathA, map[string]KernelFunc{
		"only_in_a": func(params unsafe.Pointer, i0, i1, i2, d0, d1, d2 uint64) {},
	})
	RegisterBuiltinModule(pathB, map[string]KernelFunc{
		"only_in_b": func(params unsafe.Pointer, i0, i1, i2, d0, d1, d2 uint64) {},
	})

	dev, err := NewDevice()
	require.NoError(t, err)
	modA, err := dev.NewModule(pathA, base.ModuleOptions{})
	require.NoError(t, err)
	modB, err := dev.NewModule(pathB, base.ModuleOptions{})
	require.NoError(t, err)

	// Unlinked, each module only resolves its own symbols.
	_, err = dev.NewKernel(modA, "only_in_b")
	require.Error(t, err)

	require.NoError(t, dev.DynamicLinkModules([]base.Module{modA, modB}))

	// Linked, resolution crosses module boundaries both ways.
	_, err = dev.NewKernel(modA, "only_in_b")
	require.NoError(t, err)
	_, err = dev.NewKernel(modB, "only_in_a")
	require.NoError(t, err)
}

func TestDynamicLinkFailureLeavesNoState(t *testing.T) {
	path := registerIotaModule(t)
	dev, err := NewDevice()
	require.NoError(t, err)
	mod, err := dev.NewModule(path, base.ModuleOptions{})
	require.NoError(t, err)

	err = dev.DynamicLinkModules([]base.Module{mod, nil})
	require.Error(t, err)
	m := mod.(*module)
	m.mu.Lock()
	require.Nil(t, m.group)
	m.mu.Unlock()
}

func TestQueueCopyAndOrdering(t *testing.T) {
	path := registerIotaModule(t)
	dev, err := NewDevice()
	require.NoError(t, err)
	mod, err := dev.NewModule(path, base.ModuleOptions{})
	require.NoError(t, err)
	iota, err := dev.NewKernel(mod, "iota")
	require.NoError(t, err)
	scale2, err := dev.NewKernel(mod, "scale2")
	require.NoError(t, err)

	const n = 128
	view, err := dev.NewMemoryView(nil, n*4, base.MemoryViewFlags{AllocType: base.AllocTypeShared})
	require.NoError(t, err)
	dst, err := dev.NewMemoryView(nil, n*4, base.MemoryViewFlags{AllocType: base.AllocTypeShared})
	require.NoError(t, err)

	queue, err := dev.NewTaskQueue()
	require.NoError(t, err)

	upload, err := queue.CopyToDevice(view)
	require.NoError(t, err)
	_, err = queue.Launch(iota, view, n, 1, 1)
	require.NoError(t, err)
	barrier, err := queue.Barrier()
	require.NoError(t, err)
	_, err = queue.Launch(scale2, view, n, 1, 1)
	require.NoError(t, err)
	copied, err := queue.CopyMemoryView(dst, view, n*4)
	require.NoError(t, err)
	download, err := queue.CopyToHost(dst)
	require.NoError(t, err)

	require.NoError(t, queue.Sync())
	for _, f := range []base.Future{upload, barrier, copied, download} {
		require.True(t, f.Valid())
		require.GreaterOrEqual(t, f.TimeNs(), int64(0))
	}

	out := unsafe.Slice((*float32)(dst.HostPtr()), n)
	for i, got := range out {
		require.Equal(t, float32(2*i), got)
	}
	require.NoError(t, queue.Destroy())
}

func TestFunctionPtrBuiltin(t *testing.T) {
	path := registerIotaModule(t)
	dev, err := NewDevice()
	require.NoError(t, err)
	mod, err := dev.NewModule(path, base.ModuleOptions{})
	require.NoError(t, err)

	addr, err := mod.FunctionPtr("iota")
	require.NoError(t, err)
	require.NotZero(t, addr)

	// The trampoline address is stable per symbol.
	again, err := mod.FunctionPtr("iota")
	require.NoError(t, err)
	require.Equal(t, addr, again)

	_, err = mod.FunctionPtr("no_such_symbol")
	require.Error(t, err)
	require.Equal(t, base.InvalidArgument, base.CodeOf(err))
}

func TestFunctionPtrResolvesAcrossLinks(t *testing.T) {
	pathA := "testdata/" + t.Name() + "/a"
	pathB := "testdata/" + t.Name() + "/b"
	RegisterBuiltinModule(pathA, map[string]KernelFunc{
		"from_a": func(params unsafe.Pointer, i0, i1, i2, d0, d1, d2 uint64) {},
	})
	RegisterBuiltinModule(pathB, map[string]KernelFunc{
		"from_b": func(params unsafe.Pointer, i0, i1, i2, d0, d1, d2 uint64) {},
	})

	dev, err := NewDevice()
	require.NoError(t, err)
	modA, err := dev.NewModule(pathA, base.ModuleOptions{})
	require.NoError(t, err)
	modB, err := dev.NewModule(pathB, base.ModuleOptions{})
	require.NoError(t, err)

	// A static-link composite resolves addresses from every member, with
	// stable trampolines matching the member's own.
	linked, err := dev.StaticLinkModules([]base.Module{modA, modB})
	require.NoError(t, err)
	for mod, name := range map[base.Module]string{modA: "from_a", modB: "from_b"} {
		addr, err := linked.FunctionPtr(name)
		require.NoError(t, err, "symbol %q", name)
		require.NotZero(t, addr)
		own, err := mod.FunctionPtr(name)
		require.NoError(t, err)
		require.Equal(t, own, addr)
	}
	_, err = linked.FunctionPtr("no_such_symbol")
	require.Error(t, err)
	require.Equal(t, base.InvalidArgument, base.CodeOf(err))

	// A dynamic link extends resolution to the group.
	_, err = modA.FunctionPtr("from_b")
	require.Error(t, err)
	require.NoError(t, dev.DynamicLinkModules([]base.Module{modA, modB}))
	addr, err := modA.FunctionPtr("from_b")
	require.NoError(t, err)
	require.NotZero(t, addr)
}

func TestRunGridCoversAllPoints(t *testing.T) {
	// Large enough to force the parallel path.
	const d0, d1, d2 = 64, 8, 4
	var hits [d0 * d1 * d2]atomic.Int32
	runGrid(func(params unsafe.Pointer, i0, i1, i2, dim0, dim1, dim2 uint64) {
		hits[i0+d0*(i1+d1*i2)].Add(1)
	}, nil, d0, d1, d2)
	for i := range hits {
		require.Equal(t, int32(1), hits[i].Load(), "grid point %d", i)
	}
}

func TestRunGridEmpty(t *testing.T) {
	called := false
	runGrid(func(params unsafe.Pointer, i0, i1, i2, d0, d1, d2 uint64) { called = true }, nil, 0, 5, 5)
	require.False(t, called)
}
