package rtcontainer

import (
	"purple_go/pkg/rtobject"
	"purple_go/pkg/rtvalue"
)

// List is a dense array of Any. Capacity grows the way Go's append
// grows a slice; it is not held to powers of two. Grounded on pkg/ast/value.go's cons-cell list helpers (ListLen,
// ListToSlice, SliceToList), generalized from a singly-linked cons
// representation to a flat growable slice, matching spec.md §4.4.2's
// "dense array of Any" shape.
type List struct {
	hdr   rtobject.Header
	items []rtvalue.Any
}

func listDeleter(h *rtobject.Header) {
	// The List struct is located via the embedding convention; the
	// caller that owns the concrete pointer releases item refs via
	// Clear before the Go GC reclaims the backing slice.
}

// NewList constructs an empty list.
func NewList() *List {
	l := &List{}
	l.hdr = rtobject.NewHeader(int32(rtvalue.TypeIndexList), listDeleter)
	return l
}

// NewListFrom constructs a list pre-populated with vs (each cloned).
func NewListFrom(vs ...rtvalue.Any) *List {
	l := NewList()
	for _, v := range vs {
		l.PushBack(v)
	}
	return l
}

// Header implements rtobject.Heaper.
func (l *List) Header() *rtobject.Header { return &l.hdr }

// Len returns the number of elements.
func (l *List) Len() int { return len(l.items) }

func normalizeIndex(i, n int) (int, error) {
	if i < 0 || i >= n {
		return 0, &Error{Kind: KindKeyError, Message: "list index out of range"}
	}
	return i, nil
}

// Get returns the element at index i. Negative indices are a
// KeyError, per spec.md §4.4.2 — unlike Python, this runtime does not
// address from the end.
func (l *List) Get(i int) (rtvalue.Any, error) {
	idx, err := normalizeIndex(i, len(l.items))
	if err != nil {
		return rtvalue.Any{}, err
	}
	return l.items[idx], nil
}

// Set overwrites the element at index i, releasing the prior value's
// reference and taking the new one's.
func (l *List) Set(i int, v rtvalue.Any) error {
	idx, err := normalizeIndex(i, len(l.items))
	if err != nil {
		return err
	}
	l.items[idx].Release()
	l.items[idx] = v.Clone()
	return nil
}

// PushBack appends v, taking a reference.
func (l *List) PushBack(v rtvalue.Any) {
	l.items = append(l.items, v.Clone())
}

// PopBack removes and returns the last element.
func (l *List) PopBack() (rtvalue.Any, error) {
	n := len(l.items)
	if n == 0 {
		return rtvalue.Any{}, &Error{Kind: KindIndexError, Message: "pop from empty list"}
	}
	v := l.items[n-1]
	l.items = l.items[:n-1]
	return v, nil
}

// Insert inserts v at position i, shifting later elements right.
func (l *List) Insert(i int, v rtvalue.Any) error {
	if i < 0 || i > len(l.items) {
		return &Error{Kind: KindKeyError, Message: "list index out of range"}
	}
	l.items = append(l.items, rtvalue.Any{})
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = v.Clone()
	return nil
}

// Erase removes the element at position i, releasing its reference.
func (l *List) Erase(i int) error {
	idx, err := normalizeIndex(i, len(l.items))
	if err != nil {
		return err
	}
	l.items[idx].Release()
	l.items = append(l.items[:idx], l.items[idx+1:]...)
	return nil
}

// Clear empties the list, releasing every element's reference.
func (l *List) Clear() {
	for _, v := range l.items {
		v.Release()
	}
	l.items = l.items[:0]
}

// Resize grows or shrinks the list to n elements, padding new slots
// with None and releasing any elements dropped by shrinking.
func (l *List) Resize(n int) {
	if n < 0 {
		n = 0
	}
	if n <= len(l.items) {
		for _, v := range l.items[n:] {
			v.Release()
		}
		l.items = l.items[:n]
		return
	}
	for len(l.items) < n {
		l.items = append(l.items, rtvalue.None)
	}
}

// Each calls fn for every element in order, stopping early if fn
// returns false.
func (l *List) Each(fn func(i int, v rtvalue.Any) bool) {
	for i, v := range l.items {
		if !fn(i, v) {
			return
		}
	}
}

// EachReverse calls fn for every element from last to first.
func (l *List) EachReverse(fn func(i int, v rtvalue.Any) bool) {
	for i := len(l.items) - 1; i >= 0; i-- {
		if !fn(i, l.items[i]) {
			return
		}
	}
}

// Slice returns a read-only view of the underlying elements.
func (l *List) Slice() []rtvalue.Any { return l.items }
