package base

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type testObject struct {
	RefCounted
	destroyed bool
}

func (o *testObject) Destroy() error {
	o.destroyed = true
	return nil
}

func TestRefCounted(t *testing.T) {
	obj := &testObject{}
	obj.InitRef()
	require.Equal(t, int64(1), obj.UseCount())

	obj.RefInc()
	require.Equal(t, int64(2), obj.UseCount())
	require.Equal(t, int64(1), obj.RefDec())
	require.Equal(t, int64(1), obj.UseCount())
	require.Equal(t, int64(0), obj.RefDec())
}

func TestRefCountedConcurrent(t *testing.T) {
	obj := &testObject{}
	obj.InitRef()

	const goroutines = 16
	const rounds = 1000
	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range rounds {
				obj.RefInc()
				obj.RefDec()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int64(1), obj.UseCount())
}
