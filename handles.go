package accelrt

import (
	"github.com/accelrt/accelrt/base"
	"k8s.io/klog/v2"
)

// Handle is the opaque caller-held reference to a runtime object. The
// zero value (NilHandle) refers to nothing; passing it where an object
// is required is reported as an invalid operation.
type Handle struct {
	obj base.Object
}

// NilHandle is the empty handle, returned by every constructor on failure.
var NilHandle = Handle{}

// IsNil reports whether the handle refers to no object.
func (h Handle) IsNil() bool { return h.obj == nil }

func handleOf(obj base.Object) Handle { return Handle{obj: obj} }

// resolve checks the handle refers to a live object of the wanted kind.
func resolve[T any](h Handle, what string) (T, error) {
	var zero T
	if h.obj == nil {
		return zero, base.InvalidOperationf("null %s handle", what)
	}
	obj, ok := h.obj.(T)
	if !ok {
		return zero, base.InvalidOperationf("handle is a %T, not a %s", h.obj, what)
	}
	return obj, nil
}

// Retain increments the handle's use count.
func Retain(h Handle) {
	if h.obj == nil {
		report(base.InvalidOperationf("null handle"))
		return
	}
	h.obj.RefInc()
}

// Release decrements the handle's use count and destroys the object when
// the count reaches zero. The handle must not be used afterward.
func Release(h Handle) {
	if h.obj == nil {
		report(base.InvalidOperationf("null handle"))
		return
	}
	if h.obj.RefDec() > 0 {
		return
	}
	if err := h.obj.Destroy(); err != nil {
		// The object is gone either way; destruction failures are not
		// recoverable by the caller.
		klog.Errorf("accelrt: destroying %T: %+v", h.obj, err)
	}
}

// UseCount returns the handle's current use count, or 0 for a null handle.
func UseCount(h Handle) int64 {
	if h.obj == nil {
		report(base.InvalidOperationf("null handle"))
		return 0
	}
	return h.obj.UseCount()
}
