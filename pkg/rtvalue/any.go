package rtvalue

import (
	"fmt"
	"math"

	"purple_go/pkg/rtobject"
)

// Heaper re-exports rtobject.Heaper so callers that only import rtvalue
// do not also need to import rtobject to implement it.
type Heaper = rtobject.Heaper

// ConversionError reports a failed Into/As conversion, named precisely
// after the source and destination kinds as spec.md requires.
type ConversionError struct {
	From string
	To   string
	Note string
}

func (e *ConversionError) Error() string {
	if e.Note != "" {
		return fmt.Sprintf("cannot convert from %s to %s: %s", e.From, e.To, e.Note)
	}
	return fmt.Sprintf("cannot convert from %s to %s", e.From, e.To)
}

func convErr(from, to TypeIndex, note string) error {
	return &ConversionError{From: kindName(from), To: kindName(to), Note: note}
}

func kindName(idx TypeIndex) string {
	switch idx {
	case TypeIndexNone:
		return "None"
	case TypeIndexBool:
		return "bool"
	case TypeIndexInt:
		return "int"
	case TypeIndexFloat:
		return "float"
	case TypeIndexPtr:
		return "ptr"
	case TypeIndexDataType:
		return "dtype"
	case TypeIndexDevice:
		return "device"
	case TypeIndexRawStr:
		return "str"
	case TypeIndexObject:
		return "object"
	default:
		return fmt.Sprintf("type(%d)", idx)
	}
}

// Any is an owning tagged value: on copy it increments the refcount of
// any heap object it carries, on Release it decrements. AnyView is the
// non-owning counterpart with the identical field layout that never
// touches refcounts.
//
// Go cannot intercept struct copies or run code on scope exit, so the
// "on copy, increment" part of the owning contract is expressed as an
// explicit Clone method rather than automatic copy-constructor
// semantics; Release must be called explicitly when an Any's owned
// reference is no longer needed. AnyView has no such obligation.
type Any struct {
	tag    TypeIndex
	bval   bool
	ival   int64
	fval   float64
	ptr    any
	device Device
	dtype  DataType
	str    string
	obj    Heaper
}

// AnyView is the non-owning counterpart of Any.
type AnyView struct {
	v Any
}

// Tag returns the value's runtime type index.
func (a Any) Tag() TypeIndex { return a.tag }

// Tag returns the value's runtime type index.
func (v AnyView) Tag() TypeIndex { return v.v.tag }

// --- constructors ---

// None is the singleton absent value.
var None = Any{tag: TypeIndexNone}

func NewBool(b bool) Any   { return Any{tag: TypeIndexBool, bval: b} }
func NewInt(i int64) Any   { return Any{tag: TypeIndexInt, ival: i} }
func NewFloat(f float64) Any { return Any{tag: TypeIndexFloat, fval: f} }
func NewPtr(p any) Any     { return Any{tag: TypeIndexPtr, ptr: p} }
func NewDevice(d Device) Any { return Any{tag: TypeIndexDevice, device: d} }
func NewDataType(d DataType) Any { return Any{tag: TypeIndexDataType, dtype: d} }

// NewRawStr wraps a Go string as a non-owning raw-string value. Per the
// owning/non-owning invariant, converting this into an owning Any
// (ToOwned) immediately copies it into a heap string.
func NewRawStr(s string) AnyView {
	return AnyView{v: Any{tag: TypeIndexRawStr, str: s}}
}

// NewObject wraps a heap object, taking one reference.
func NewObject(obj Heaper) Any {
	if obj != nil {
		if h := obj.Header(); h != nil {
			h.IncRef()
		}
	}
	return Any{tag: TypeIndexObject, obj: obj}
}

// NewObjectView wraps a heap object without taking a reference.
func NewObjectView(obj Heaper) AnyView {
	return AnyView{v: Any{tag: TypeIndexObject, obj: obj}}
}

// View returns a non-owning view of a.
func (a Any) View() AnyView { return AnyView{v: Any{tag: a.tag, bval: a.bval, ival: a.ival, fval: a.fval, ptr: a.ptr, device: a.device, dtype: a.dtype, str: a.str, obj: a.obj}} }

// ToOwned converts a view into an owning Any. Per the data model, a
// raw-C-string (here: a non-owning Go string) view copies into a
// fresh owned string value rather than aliasing; object references
// take a new strong reference.
func (v AnyView) ToOwned() Any {
	inner := v.v
	if inner.tag == TypeIndexRawStr {
		// Invariant: an owned Any never carries the raw-C-string tag.
		// Copy into a heap Str object instead.
		return NewObject(NewStr(inner.str))
	}
	if inner.tag == TypeIndexObject && inner.obj != nil {
		if h := inner.obj.Header(); h != nil {
			h.IncRef()
		}
	}
	return inner
}

// Clone returns a new owning Any sharing the same payload, incrementing
// the refcount of any carried heap object.
func (a Any) Clone() Any {
	if a.tag == TypeIndexObject && a.obj != nil {
		if h := a.obj.Header(); h != nil {
			h.IncRef()
		}
	}
	return a
}

// Release decrements the refcount of any carried heap object. Must be
// called at most once per Clone/NewObject call that produced this Any.
func (a Any) Release() {
	if a.tag == TypeIndexObject && a.obj != nil {
		if h := a.obj.Header(); h != nil {
			h.DecRef()
		}
	}
}

// IsNone reports whether the value is the absent/null value.
func (a Any) IsNone() bool { return a.tag == TypeIndexNone }

// IsNone reports whether the viewed value is the absent/null value.
func (v AnyView) IsNone() bool { return v.v.tag == TypeIndexNone }

// --- typed accessors (Into/As) ---

func (a Any) AsBool() (bool, error) {
	if a.tag != TypeIndexBool {
		return false, convErr(a.tag, TypeIndexBool, "")
	}
	return a.bval, nil
}

// AsInt returns the value as int64. Per the widening rule, only Int is
// accepted; Float is not narrowed implicitly.
func (a Any) AsInt() (int64, error) {
	if a.tag != TypeIndexInt {
		return 0, convErr(a.tag, TypeIndexInt, "")
	}
	return a.ival, nil
}

// AsFloat returns the value as float64. Widening from Int to Float is
// allowed; other cross-kind numeric conversions are rejected.
func (a Any) AsFloat() (float64, error) {
	switch a.tag {
	case TypeIndexFloat:
		return a.fval, nil
	case TypeIndexInt:
		return float64(a.ival), nil
	default:
		return 0, convErr(a.tag, TypeIndexFloat, "")
	}
}

func (a Any) AsPtr() (any, error) {
	if a.tag != TypeIndexPtr {
		return nil, convErr(a.tag, TypeIndexPtr, "")
	}
	return a.ptr, nil
}

func (a Any) AsDevice() (Device, error) {
	if a.tag != TypeIndexDevice {
		return Device{}, convErr(a.tag, TypeIndexDevice, "")
	}
	return a.device, nil
}

func (a Any) AsDataType() (DataType, error) {
	if a.tag != TypeIndexDataType {
		return DataType{}, convErr(a.tag, TypeIndexDataType, "")
	}
	return a.dtype, nil
}

// AsStr accepts a non-owning RawStr view directly, or an owned Any
// carrying a heap Str object.
func (a Any) AsStr() (string, error) {
	switch a.tag {
	case TypeIndexRawStr:
		return a.str, nil
	case TypeIndexObject:
		if str, ok := a.obj.(*Str); ok {
			return str.String(), nil
		}
	}
	return "", convErr(a.tag, TypeIndexRawStr, "")
}

// AsObject extracts the carried heap object without transferring
// ownership; callers that want a strong reference must Clone first.
func (a Any) AsObject() (Heaper, error) {
	if a.tag != TypeIndexObject {
		return nil, convErr(a.tag, TypeIndexObject, "")
	}
	if a.obj == nil {
		return nil, convErr(TypeIndexNone, TypeIndexObject, "non-nullable object reference")
	}
	return a.obj, nil
}

// ObjectTypeIndex returns the carried object's own runtime type index,
// read through its header, or TypeIndexNone if the value carries no
// object.
func (a Any) ObjectTypeIndex() TypeIndex {
	if a.tag != TypeIndexObject || a.obj == nil {
		return TypeIndexNone
	}
	if h := a.obj.Header(); h != nil {
		return TypeIndex(h.TypeIndex())
	}
	return TypeIndexNone
}

// canonicalNaN folds every NaN bit pattern to a single quiet NaN so
// that Dict hashing/equality of float keys is well-defined (spec.md §9
// Open Question ii).
func canonicalNaN(f float64) float64 {
	if math.IsNaN(f) {
		return math.NaN()
	}
	return f
}
