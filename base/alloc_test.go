package base

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestHostAllocator(t *testing.T) {
	a := NewHostAllocator()

	ptr := a.Alloc(100, AllocTypeShared)
	require.NotNil(t, ptr)
	require.Equal(t, uintptr(0), uintptr(ptr)%BufferAlignment)

	// The storage is zeroed and writable across its whole extent.
	bytes := unsafe.Slice((*byte)(ptr), 100)
	for _, b := range bytes {
		require.Zero(t, b)
	}
	bytes[0] = 1
	bytes[99] = 2

	require.Equal(t, AllocTypeShared, a.Classify(ptr))
	require.Equal(t, AllocTypeShared, a.Classify(unsafe.Add(ptr, 99)))
	require.Equal(t, AllocTypeUnknown, a.Classify(unsafe.Add(ptr, 100)))

	other := a.Alloc(8, AllocTypeDevice)
	require.Equal(t, AllocTypeDevice, a.Classify(other))

	a.Free(ptr)
	require.Equal(t, AllocTypeUnknown, a.Classify(ptr))
	require.Equal(t, AllocTypeDevice, a.Classify(other))
	a.Free(other)

	var stack [4]byte
	require.Equal(t, AllocTypeUnknown, a.Classify(unsafe.Pointer(&stack[0])))
	// Unknown pointers are ignored.
	a.Free(unsafe.Pointer(&stack[0]))
}
