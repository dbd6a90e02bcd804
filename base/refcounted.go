package base

import "sync/atomic"

// RefCounted is the intrusive use count embedded by every object that
// crosses the boundary. The count starts at 1 for whoever created the
// object; it is safe to retain and release from multiple goroutines.
//
// The zero value is not ready for use: constructors must call InitRef
// exactly once before handing the object out.
type RefCounted struct {
	refs atomic.Int64
}

// InitRef sets the use count to 1. Called once by object constructors.
func (rc *RefCounted) InitRef() {
	rc.refs.Store(1)
}

// RefInc increments the use count.
func (rc *RefCounted) RefInc() {
	rc.refs.Add(1)
}

// RefDec decrements the use count and returns the new value. When it
// returns 0 the caller owns destruction of the object; further use of the
// object is invalid.
func (rc *RefCounted) RefDec() int64 {
	return rc.refs.Add(-1)
}

// UseCount returns the current use count.
func (rc *RefCounted) UseCount() int64 {
	return rc.refs.Load()
}

// Object is implemented by every reference-counted object exposed through
// a handle. Destroy is called by the boundary when the use count reaches
// zero; it must be idempotent (teardown of an already destroyed object is
// a no-op).
type Object interface {
	RefInc()
	RefDec() int64
	UseCount() int64
	Destroy() error
}
