package base

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestStreamOrdering(t *testing.T) {
	s := NewStream()
	defer func() { require.NoError(t, s.Close()) }()

	var order []int
	for i := range 100 {
		require.NoError(t, s.Submit(func() error {
			order = append(order, i)
			return nil
		}))
	}
	require.NoError(t, s.Sync())
	require.Len(t, order, 100)
	for i, got := range order {
		require.Equal(t, i, got)
	}
}

func TestStreamFutures(t *testing.T) {
	s := NewStream()
	defer func() { require.NoError(t, s.Close()) }()

	future, err := s.SubmitTimed(func() error { return nil })
	require.NoError(t, err)
	require.NoError(t, s.Sync())

	require.True(t, future.Valid())
	require.GreaterOrEqual(t, future.TimeNs(), int64(0))
}

func TestStreamFutureInvalidBeforeCompletion(t *testing.T) {
	s := NewStream()
	defer func() { require.NoError(t, s.Close()) }()

	release := make(chan struct{})
	blocked, err := s.SubmitTimed(func() error {
		<-release
		return nil
	})
	require.NoError(t, err)
	require.False(t, blocked.Valid())
	require.Equal(t, int64(-1), blocked.TimeNs())

	close(release)
	require.NoError(t, s.Sync())
	require.True(t, blocked.Valid())
}

func TestStreamErrorSurfacesOnce(t *testing.T) {
	s := NewStream()
	defer func() { _ = s.Close() }()

	boom := errors.New("boom")
	future, err := s.SubmitTimed(func() error { return boom })
	require.NoError(t, err)

	require.ErrorIs(t, s.Sync(), boom)
	// The failing command's future stays invalid.
	require.False(t, future.Valid())
	// Reported exactly once.
	require.NoError(t, s.Sync())
}

func TestStreamBarrierOrdering(t *testing.T) {
	s := NewStream()
	defer func() { require.NoError(t, s.Close()) }()

	var before atomic.Bool
	require.NoError(t, s.Submit(func() error {
		before.Store(true)
		return nil
	}))
	barrier, err := s.Barrier()
	require.NoError(t, err)
	var after atomic.Bool
	require.NoError(t, s.Submit(func() error {
		require.True(t, before.Load())
		after.Store(true)
		return nil
	}))
	require.NoError(t, s.Sync())
	require.True(t, after.Load())
	require.True(t, barrier.Valid())
}

func TestStreamSubmitNeverBlocks(t *testing.T) {
	s := NewStream()
	defer func() { require.NoError(t, s.Close()) }()

	// Park the executor on one command, then run far ahead of it: every
	// submission must still return immediately.
	release := make(chan struct{})
	_, err := s.SubmitTimed(func() error {
		<-release
		return nil
	})
	require.NoError(t, err)

	const ahead = 200
	var ran atomic.Int64
	done := make(chan error, 1)
	go func() {
		for range ahead {
			if _, err := s.SubmitTimed(func() error {
				ran.Add(1)
				return nil
			}); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("submissions blocked while a command was running")
	}

	require.Equal(t, int64(0), ran.Load())
	close(release)
	require.NoError(t, s.Sync())
	require.Equal(t, int64(ahead), ran.Load())
}

func TestStreamUseAfterClose(t *testing.T) {
	s := NewStream()
	require.NoError(t, s.Close())
	require.NoError(t, s.Close()) // idempotent

	require.Error(t, s.Submit(func() error { return nil }))
	_, err := s.SubmitTimed(func() error { return nil })
	require.Error(t, err)
	require.Error(t, s.Sync())
}
