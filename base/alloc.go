package base

import (
	"sync"
	"unsafe"
)

// BufferAlignment is the alignment of host storage handed out for memory
// views, chosen to satisfy the widest vector unit either backend targets.
const BufferAlignment = 64

type hostAllocation struct {
	buf       []byte // keeps the backing array live
	size      uint64
	allocType AllocType
}

// HostAllocator hands out aligned, zeroed host storage for memory views
// and can classify a raw pointer back to the allocation it belongs to.
// Allocations stay live until freed, even if the owning view drops every
// other reference to the backing slice.
type HostAllocator struct {
	mu     sync.Mutex
	allocs map[uintptr]hostAllocation
}

// NewHostAllocator creates an empty allocator.
func NewHostAllocator() *HostAllocator {
	return &HostAllocator{allocs: map[uintptr]hostAllocation{}}
}

// Alloc returns BufferAlignment-aligned zeroed storage of the given size.
// It over-allocates and offsets into the slice, keeping the slice pinned
// in the allocation table until Free.
func (a *HostAllocator) Alloc(size uint64, allocType AllocType) unsafe.Pointer {
	buf := make([]byte, size+BufferAlignment)
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	offset := uintptr(0)
	if rem := addr % BufferAlignment; rem != 0 {
		offset = BufferAlignment - rem
	}
	ptr := unsafe.Add(unsafe.Pointer(unsafe.SliceData(buf)), offset)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.allocs[uintptr(ptr)] = hostAllocation{buf: buf, size: size, allocType: allocType}
	return ptr
}

// Free releases an allocation returned by Alloc. Unknown pointers are
// ignored.
func (a *HostAllocator) Free(ptr unsafe.Pointer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.allocs, uintptr(ptr))
}

// Classify returns the allocation type of any pointer that falls inside a
// live allocation, or AllocTypeUnknown.
func (a *HostAllocator) Classify(ptr unsafe.Pointer) AllocType {
	p := uintptr(ptr)
	a.mu.Lock()
	defer a.mu.Unlock()
	for start, alloc := range a.allocs {
		if p >= start && p < start+uintptr(alloc.size) {
			return alloc.allocType
		}
	}
	return AllocTypeUnknown
}
