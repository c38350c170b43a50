// Package rtobject implements the object header every heap-allocated
// runtime value starts with: a type index, an atomic reference count,
// and a deleter invoked on the final decref.
package rtobject

import "sync/atomic"

// Header is embedded as the first field of every heap object's payload
// struct, mirroring the C ABI's "header precedes payload" layout.
type Header struct {
	typeIndex int32
	refCnt    int32
	deleter   func(*Header)
}

// NewHeader allocates a header for typeIndex with refCnt == 0. The first
// Ref/Any that points at the owning object is responsible for raising
// refCnt to 1 via IncRef.
func NewHeader(typeIndex int32, deleter func(*Header)) Header {
	return Header{typeIndex: typeIndex, deleter: deleter}
}

// TypeIndex returns the object's runtime type index. It never changes
// after construction.
func (h *Header) TypeIndex() int32 { return h.typeIndex }

// RefCount returns the current reference count.
func (h *Header) RefCount() int32 { return atomic.LoadInt32(&h.refCnt) }

// IncRef raises the reference count by one. Relaxed: callers only need
// this to be visible before a subsequent DecRef on another goroutine,
// which Go's atomic package already guarantees via sequential
// consistency (Go has no separate acquire/release atomic intrinsics;
// see DESIGN.md for this Open Question resolution).
func (h *Header) IncRef() int32 {
	return atomic.AddInt32(&h.refCnt, 1)
}

// DecRef lowers the reference count by one and invokes the deleter when
// the count reaches zero, i.e. when the pre-decrement value was 1.
func (h *Header) DecRef() int32 {
	n := atomic.AddInt32(&h.refCnt, -1)
	if n == 0 && h.deleter != nil {
		h.deleter(h)
	}
	return n
}

// Heaper is implemented by every heap object type (List, Dict, Str,
// Func, Error, Tensor, and any registered dynamic object type). Any and
// Ref use it to reach the embedded header without knowing the concrete
// payload type.
type Heaper interface {
	Header() *Header
}
