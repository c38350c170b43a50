package rtstruct

import (
	"fmt"
	"math"
	"strconv"

	"purple_go/pkg/rtcontainer"
	"purple_go/pkg/rtregistry"
	"purple_go/pkg/rtvalue"
)

// floatEps64 is the float equality threshold, hard-coded per spec.md
// §4.5.1 and left unresolved-but-fixed per the Open Question in
// spec.md §9(i). Any widens every float to float64 (there is no
// float32 tag to distinguish), so there is no narrower-precision value
// that would ever warrant a separate, tighter float32 threshold here;
// Tensor float32 buffers compare as raw bytes (see equalObject's
// *rtcontainer.Tensor case), not as per-element Any floats.
const floatEps64 = 1e-8

// bindingTable tracks the two-way lhs<->rhs object identity mapping
// that Bind/Var structure kinds install on exit, per spec.md §4.5.1.
type bindingTable struct {
	lhsToRhs map[any]any
	rhsToLhs map[any]any
	seq      int
}

func newBindingTable() *bindingTable {
	return &bindingTable{lhsToRhs: map[any]any{}, rhsToLhs: map[any]any{}}
}

func (b *bindingTable) bind(lhs, rhs rtvalue.Heaper) int {
	b.seq++
	b.lhsToRhs[lhs] = rhs
	b.rhsToLhs[rhs] = lhs
	return b.seq
}

// Equal reports whether a and b are structurally equal. reg may be nil
// if no reflected object types are involved. When bindFreeVars is
// false, an unbound Var-kind object is an error rather than silently
// accepted.
func Equal(reg *rtregistry.Registry, a, b rtvalue.Any, bindFreeVars bool) (bool, error) {
	bt := newBindingTable()
	err := equalAny(reg, a, b, bindFreeVars, bt, ObjectPath{{Kind: SegRoot}})
	if err != nil {
		if _, ok := err.(*SEqualError); ok {
			return false, err
		}
		return false, err
	}
	return true, nil
}

// FailReason returns the ObjectPath-qualified message explaining why a
// and b are not structurally equal, or "" if they are equal.
func FailReason(reg *rtregistry.Registry, a, b rtvalue.Any, bindFreeVars bool) string {
	ok, err := Equal(reg, a, b, bindFreeVars)
	if ok {
		return ""
	}
	if err != nil {
		return err.Error()
	}
	return "not equal"
}

func fail(path ObjectPath, format string, args ...any) error {
	return &SEqualError{Path: path, Message: fmt.Sprintf(format, args...)}
}

func equalAny(reg *rtregistry.Registry, a, b rtvalue.Any, bindFreeVars bool, bt *bindingTable, path ObjectPath) error {
	if a.Tag() != b.Tag() {
		return fail(path, "type mismatch")
	}
	switch a.Tag() {
	case rtvalue.TypeIndexNone:
		return nil
	case rtvalue.TypeIndexBool:
		av, _ := a.AsBool()
		bv, _ := b.AsBool()
		if av != bv {
			return fail(path, "bool mismatch: %v != %v", av, bv)
		}
		return nil
	case rtvalue.TypeIndexInt:
		av, _ := a.AsInt()
		bv, _ := b.AsInt()
		if av != bv {
			return fail(path, "int mismatch: %v != %v", av, bv)
		}
		return nil
	case rtvalue.TypeIndexFloat:
		av, _ := a.AsFloat()
		bv, _ := b.AsFloat()
		if math.Abs(av-bv) > floatEps64 {
			return fail(path, "float mismatch: %v != %v", av, bv)
		}
		return nil
	case rtvalue.TypeIndexDevice:
		av, _ := a.AsDevice()
		bv, _ := b.AsDevice()
		if av != bv {
			return fail(path, "device mismatch")
		}
		return nil
	case rtvalue.TypeIndexDataType:
		av, _ := a.AsDataType()
		bv, _ := b.AsDataType()
		if av != bv {
			return fail(path, "dtype mismatch")
		}
		return nil
	case rtvalue.TypeIndexRawStr:
		av, _ := a.AsStr()
		bv, _ := b.AsStr()
		if av != bv {
			return fail(path, "string mismatch")
		}
		return nil
	case rtvalue.TypeIndexObject:
		return equalObject(reg, a, b, bindFreeVars, bt, path)
	}
	return fail(path, "unsupported tag")
}

func equalObject(reg *rtregistry.Registry, a, b rtvalue.Any, bindFreeVars bool, bt *bindingTable, path ObjectPath) error {
	ao, aerr := a.AsObject()
	bo, berr := b.AsObject()
	if aerr != nil || berr != nil {
		if aerr != nil && berr != nil {
			return nil // both null
		}
		return fail(path, "nullability mismatch")
	}

	switch av := ao.(type) {
	case *rtcontainer.Str:
		bv, ok := bo.(*rtcontainer.Str)
		if !ok || !av.Equal(bv) {
			return fail(path, "string mismatch")
		}
		return nil
	case *rtcontainer.List:
		bv, ok := bo.(*rtcontainer.List)
		if !ok {
			return fail(path, "expected list")
		}
		return equalList(reg, av, bv, bindFreeVars, bt, path)
	case *rtcontainer.Dict:
		bv, ok := bo.(*rtcontainer.Dict)
		if !ok {
			return fail(path, "expected dict")
		}
		return equalDict(reg, av, bv, bindFreeVars, bt, path)
	case *rtcontainer.Tensor:
		bv, ok := bo.(*rtcontainer.Tensor)
		if !ok || !av.Equal(bv) {
			return fail(path, "tensor mismatch")
		}
		return nil
	case *rtcontainer.Func:
		return fail(path, "comparing Func objects is unsupported")
	case *rtcontainer.Error:
		return fail(path, "comparing Error objects is unsupported")
	case Reflected:
		bv, ok := bo.(Reflected)
		if !ok {
			return fail(path, "type mismatch")
		}
		return equalReflected(reg, av, bv, bindFreeVars, bt, path)
	default:
		return fail(path, "comparing opaque values is unsupported")
	}
}

func equalList(reg *rtregistry.Registry, a, b *rtcontainer.List, bindFreeVars bool, bt *bindingTable, path ObjectPath) error {
	if a.Len() != b.Len() {
		return fail(path, "list length mismatch: %d != %d", a.Len(), b.Len())
	}
	for i := 0; i < a.Len(); i++ {
		av, _ := a.Get(i)
		bv, _ := b.Get(i)
		if err := equalAny(reg, av, bv, bindFreeVars, bt, path.withIndex(i)); err != nil {
			return err
		}
	}
	return nil
}

func equalDict(reg *rtregistry.Registry, a, b *rtcontainer.Dict, bindFreeVars bool, bt *bindingTable, path ObjectPath) error {
	if a.Len() != b.Len() {
		return fail(path, "dict size mismatch: %d != %d", a.Len(), b.Len())
	}
	var outerErr error
	a.Each(func(k, v rtvalue.Any) bool {
		bv, ok := b.Get(k)
		if !ok {
			outerErr = fail(path.withKey(keyRepr(k)), "key missing on right side")
			return false
		}
		if err := equalAny(reg, v, bv, bindFreeVars, bt, path.withKey(keyRepr(k))); err != nil {
			outerErr = err
			return false
		}
		return true
	})
	return outerErr
}

func keyRepr(k rtvalue.Any) string {
	if s, err := k.AsStr(); err == nil {
		return s
	}
	if i, err := k.AsInt(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	return "?"
}

func equalReflected(reg *rtregistry.Registry, a, b Reflected, bindFreeVars bool, bt *bindingTable, path ObjectPath) error {
	kind := structureKindFor(reg, a)

	if kind == rtregistry.StructureVar {
		if !bindFreeVars {
			return fail(path, "Unbound variable")
		}
		kind = rtregistry.StructureBind
	}

	// A node already present in the binding table is a revisit (e.g. a
	// second occurrence of the same bound variable): its mapping must
	// be consistent rather than re-derived from scratch.
	if existingRhs, lhsBound := bt.lhsToRhs[a]; lhsBound {
		if existingRhs != any(b) {
			return fail(path, "inconsistent binding: already bound to a different node")
		}
		return nil
	}
	if _, rhsBound := bt.rhsToLhs[b]; rhsBound {
		return fail(path, "inconsistent binding: right side already bound elsewhere")
	}

	ti, hasTI := typeInfoFor(reg, a)
	af, bf := a.FieldValues(), b.FieldValues()
	names := a.FieldNames()
	if len(af) != len(bf) {
		return fail(path, "field count mismatch")
	}
	for i := range af {
		subKind := subKindFor(ti, hasTI, i)
		childBind := bindFreeVars
		if subKind == rtregistry.StructureBind {
			childBind = true
		}
		fieldPath := path.withField(fieldName(names, i))
		if err := equalAny(reg, af[i], bf[i], childBind, bt, fieldPath); err != nil {
			return err
		}
	}

	if kind == rtregistry.StructureBind {
		bt.bind(a, b)
	}
	return nil
}

func fieldName(names []string, i int) string {
	if i < len(names) {
		return names[i]
	}
	return "?"
}
