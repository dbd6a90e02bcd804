package cpu

import (
	"unsafe"

	"github.com/accelrt/accelrt/base"
)

// memoryView is host storage described by a fixed size and allocation
// type. Shared and device views are both host-resident on this backend;
// the allocation type is carried for the caller's contract, and the host
// pointer of a device view is the same address (backend-defined).
type memoryView struct {
	base.RefCounted
	alloc     *base.HostAllocator // nil for views over caller-owned memory
	ptr       unsafe.Pointer
	numBytes  uint64
	allocType base.AllocType
}

var _ base.MemoryView = (*memoryView)(nil)

func newMemoryView(alloc *base.HostAllocator, appMemory unsafe.Pointer, numBytes uint64, flags base.MemoryViewFlags) *memoryView {
	mv := &memoryView{numBytes: numBytes, allocType: flags.AllocType}
	mv.InitRef()
	if appMemory != nil {
		mv.ptr = appMemory
		return mv
	}
	mv.alloc = alloc
	mv.ptr = alloc.Alloc(numBytes, flags.AllocType)
	return mv
}

func (mv *memoryView) HostPtr() unsafe.Pointer   { return mv.ptr }
func (mv *memoryView) DevicePtr() unsafe.Pointer { return mv.ptr }
func (mv *memoryView) NumBytes() uint64          { return mv.numBytes }
func (mv *memoryView) AllocType() base.AllocType { return mv.allocType }

// bytes exposes the view's storage for queue copies.
func (mv *memoryView) bytes() []byte {
	return unsafe.Slice((*byte)(mv.ptr), mv.numBytes)
}

// Destroy implements base.Object. Idempotent.
func (mv *memoryView) Destroy() error {
	if mv.alloc != nil {
		mv.alloc.Free(mv.ptr)
		mv.alloc = nil
	}
	return nil
}
