package rtstruct

import (
	"fmt"

	"purple_go/pkg/rtcontainer"
	"purple_go/pkg/rtregistry"
	"purple_go/pkg/rtvalue"
)

// CopyShallow returns a value of the same shape as a whose top-level
// container/object is freshly allocated but whose children are shared
// (refcount bumped, not recursively copied), per spec.md §4.5.3.
func CopyShallow(reg *rtregistry.Registry, a rtvalue.Any) (rtvalue.Any, error) {
	if a.Tag() != rtvalue.TypeIndexObject {
		return a.Clone(), nil
	}
	obj, err := a.AsObject()
	if err != nil {
		return rtvalue.Any{}, err
	}
	switch v := obj.(type) {
	case *rtcontainer.Str:
		// Str is immutable; a shallow copy may share the same heap object.
		return a.Clone(), nil
	case *rtcontainer.List:
		out := rtcontainer.NewList()
		v.Each(func(_ int, elem rtvalue.Any) bool {
			out.PushBack(elem)
			return true
		})
		return rtvalue.NewObject(out), nil
	case *rtcontainer.Dict:
		out := rtcontainer.NewDict()
		v.Each(func(k, val rtvalue.Any) bool {
			_ = out.Insert(k, val)
			return true
		})
		return rtvalue.NewObject(out), nil
	case *rtcontainer.Tensor:
		// Tensors share their backing byte buffer on shallow copy.
		out := rtcontainer.NewTensor(append([]int64{}, v.Shape...), v.DType, v.Data)
		return rtvalue.NewObject(out), nil
	case Reflected:
		fresh, err := v.Init(v.FieldValues())
		if err != nil {
			return rtvalue.Any{}, err
		}
		return rtvalue.NewObject(fresh), nil
	default:
		return rtvalue.Any{}, fmt.Errorf("copy: opaque object of type %T cannot be copied", obj)
	}
}

// copyMemo maps an original heap object's identity to its already-built
// deep copy, preserving shared substructure and breaking cycles — the
// same orig->copy memo discipline spec.md §4.5.3 requires.
type copyMemo struct {
	seen map[rtvalue.Heaper]rtvalue.Any
}

func newCopyMemo() *copyMemo {
	return &copyMemo{seen: map[rtvalue.Heaper]rtvalue.Any{}}
}

// CopyDeep recursively copies every object reachable from a, sharing
// one copy per distinct original object (so DAGs and cycles in the
// source are preserved in the copy rather than unrolled).
func CopyDeep(reg *rtregistry.Registry, a rtvalue.Any) (rtvalue.Any, error) {
	return copyDeep(reg, a, newCopyMemo(), nil)
}

// replaceFn is consulted at every node during CopyReplace; returning
// ok=true substitutes replacement in place of a deep copy of that node
// (children of a replaced node are not visited).
type replaceFn func(path ObjectPath, v rtvalue.Any) (replacement rtvalue.Any, ok bool)

// CopyReplace deep-copies a, substituting replace's result wherever it
// matches, per spec.md §4.5.3's "copy with targeted substitution" op.
func CopyReplace(reg *rtregistry.Registry, a rtvalue.Any, replace replaceFn) (rtvalue.Any, error) {
	return copyDeepReplace(reg, a, newCopyMemo(), ObjectPath{{Kind: SegRoot}}, replace)
}

func copyDeep(reg *rtregistry.Registry, a rtvalue.Any, memo *copyMemo, path ObjectPath) (rtvalue.Any, error) {
	return copyDeepReplace(reg, a, memo, path, nil)
}

func copyDeepReplace(reg *rtregistry.Registry, a rtvalue.Any, memo *copyMemo, path ObjectPath, replace replaceFn) (rtvalue.Any, error) {
	if replace != nil {
		if repl, ok := replace(path, a); ok {
			return repl.Clone(), nil
		}
	}
	if a.Tag() != rtvalue.TypeIndexObject {
		return a.Clone(), nil
	}
	obj, err := a.AsObject()
	if err != nil {
		return rtvalue.Any{}, err
	}
	if cached, ok := memo.seen[obj]; ok {
		return cached.Clone(), nil
	}

	switch v := obj.(type) {
	case *rtcontainer.Str:
		out := a.Clone()
		memo.seen[obj] = out
		return out, nil
	case *rtcontainer.List:
		fresh := rtcontainer.NewList()
		out := rtvalue.NewObject(fresh)
		memo.seen[obj] = out
		i := 0
		var stepErr error
		v.Each(func(_ int, elem rtvalue.Any) bool {
			copied, err := copyDeepReplace(reg, elem, memo, path.withIndex(i), replace)
			if err != nil {
				stepErr = err
				return false
			}
			fresh.PushBack(copied)
			copied.Release()
			i++
			return true
		})
		if stepErr != nil {
			return rtvalue.Any{}, stepErr
		}
		return out, nil
	case *rtcontainer.Dict:
		fresh := rtcontainer.NewDict()
		out := rtvalue.NewObject(fresh)
		memo.seen[obj] = out
		var stepErr error
		v.Each(func(k, val rtvalue.Any) bool {
			copiedVal, err := copyDeepReplace(reg, val, memo, path.withKey(keyRepr(k)), replace)
			if err != nil {
				stepErr = err
				return false
			}
			_ = fresh.Insert(k, copiedVal)
			copiedVal.Release()
			return true
		})
		if stepErr != nil {
			return rtvalue.Any{}, stepErr
		}
		return out, nil
	case *rtcontainer.Tensor:
		// Tensor is a value-type aggregate whose backing buffer is
		// aliased, not duplicated, by a deep copy (spec.md §4.5.3).
		out := a.Clone()
		memo.seen[obj] = out
		return out, nil
	case *rtcontainer.Func, *rtcontainer.Error:
		// Func and Error are aliased by a deep copy, like Str and Tensor.
		out := a.Clone()
		memo.seen[obj] = out
		return out, nil
	case Reflected:
		fields := v.FieldValues()
		names := v.FieldNames()
		copiedFields := make([]rtvalue.Any, len(fields))
		for i, f := range fields {
			cf, err := copyDeepReplace(reg, f, memo, path.withField(fieldName(names, i)), replace)
			if err != nil {
				return rtvalue.Any{}, err
			}
			copiedFields[i] = cf
		}
		fresh, err := v.Init(copiedFields)
		for _, cf := range copiedFields {
			cf.Release()
		}
		if err != nil {
			return rtvalue.Any{}, err
		}
		out := rtvalue.NewObject(fresh)
		memo.seen[obj] = out
		return out, nil
	default:
		return rtvalue.Any{}, fmt.Errorf("copy: opaque object of type %T cannot be copied", obj)
	}
}
