package rtstruct

import (
	"math"
	"sort"

	"purple_go/pkg/rtcontainer"
	"purple_go/pkg/rtregistry"
	"purple_go/pkg/rtvalue"
)

const mixPrime uint64 = 1099511628211

func mix(h, v uint64) uint64 {
	return (h ^ v) * mixPrime
}

// hashState threads the per-node sequence counter used to tag
// Bind/Var nodes, matching spec.md §4.5.2.
type hashState struct {
	seq int
}

// Hash produces a 64-bit hash consistent with Equal under the same
// bindFreeVars flag (spec.md §4.5.2, testable property 4).
func Hash(reg *rtregistry.Registry, a rtvalue.Any, bindFreeVars bool) uint64 {
	st := &hashState{}
	return hashAny(reg, a, bindFreeVars, st)
}

func hashAny(reg *rtregistry.Registry, a rtvalue.Any, bindFreeVars bool, st *hashState) uint64 {
	switch a.Tag() {
	case rtvalue.TypeIndexNone:
		return mix(0, uint64(rtvalue.TypeIndexNone))
	case rtvalue.TypeIndexBool:
		v, _ := a.AsBool()
		b := uint64(0)
		if v {
			b = 1
		}
		return mix(b, uint64(rtvalue.TypeIndexBool))
	case rtvalue.TypeIndexInt:
		v, _ := a.AsInt()
		return mix(uint64(v), uint64(rtvalue.TypeIndexInt))
	case rtvalue.TypeIndexFloat:
		v, _ := a.AsFloat()
		if math.IsNaN(v) {
			v = math.NaN()
		}
		return mix(math.Float64bits(v), uint64(rtvalue.TypeIndexFloat))
	case rtvalue.TypeIndexDevice:
		v, _ := a.AsDevice()
		return mix(uint64(v.Type)<<32|uint64(uint32(v.ID)), uint64(rtvalue.TypeIndexDevice))
	case rtvalue.TypeIndexDataType:
		v, _ := a.AsDataType()
		packed := uint64(v.Code)<<24 | uint64(v.Bits)<<16 | uint64(v.Lanes)
		return mix(packed, uint64(rtvalue.TypeIndexDataType))
	case rtvalue.TypeIndexRawStr:
		v, _ := a.AsStr()
		return mix(rtvalue.NewStr(v).Hash(), uint64(rtvalue.TypeIndexRawStr))
	case rtvalue.TypeIndexObject:
		return hashObject(reg, a, bindFreeVars, st)
	}
	return 0
}

func hashObject(reg *rtregistry.Registry, a rtvalue.Any, bindFreeVars bool, st *hashState) uint64 {
	obj, err := a.AsObject()
	if err != nil {
		return mix(0, uint64(rtvalue.TypeIndexNone))
	}
	switch v := obj.(type) {
	case *rtcontainer.Str:
		return mix(v.Hash(), uint64(rtvalue.TypeIndexStr))
	case *rtcontainer.List:
		h := mix(uint64(v.Len()), uint64(rtvalue.TypeIndexList))
		v.EachReverse(func(_ int, elem rtvalue.Any) bool {
			h = mix(h, hashAny(reg, elem, bindFreeVars, st))
			return true
		})
		return h
	case *rtcontainer.Dict:
		return hashDict(reg, v, bindFreeVars, st)
	case *rtcontainer.Tensor:
		h := mix(uint64(len(v.Shape)), uint64(rtvalue.TypeIndexTensor))
		for _, s := range v.Shape {
			h = mix(h, uint64(s))
		}
		for _, b := range v.Data {
			h = mix(h, uint64(b))
		}
		return h
	case Reflected:
		return hashReflected(reg, v, bindFreeVars, st)
	default:
		return mix(0, uint64(rtvalue.TypeIndexOpaque))
	}
}

func hashDict(reg *rtregistry.Registry, d *rtcontainer.Dict, bindFreeVars bool, st *hashState) uint64 {
	entries := make([]uint64, 0, d.Len())
	d.Each(func(k, v rtvalue.Any) bool {
		eh := mix(hashAny(reg, k, bindFreeVars, st), hashAny(reg, v, bindFreeVars, st))
		entries = append(entries, eh)
		return true
	})
	sort.Slice(entries, func(i, j int) bool { return entries[i] < entries[j] })
	h := mix(uint64(d.Len()), uint64(rtvalue.TypeIndexDict))
	var prev uint64
	first := true
	for _, e := range entries {
		if !first && e == prev {
			continue // tolerate duplicate hashes, only mix unique ones
		}
		h = mix(h, e)
		prev = e
		first = false
	}
	return h
}

func hashReflected(reg *rtregistry.Registry, r Reflected, bindFreeVars bool, st *hashState) uint64 {
	ti, hasTI := typeInfoFor(reg, r)
	keyHash := uint64(0)
	if hasTI {
		keyHash = ti.TypeKeyHash
	}
	h := keyHash
	kind := structureKindFor(reg, r)

	for i, field := range r.FieldValues() {
		subKind := subKindFor(ti, hasTI, i)
		childBind := bindFreeVars
		if subKind == rtregistry.StructureBind {
			childBind = true
		}
		h = mix(h, hashAny(reg, field, childBind, st))
	}

	switch kind {
	case rtregistry.StructureBind:
		st.seq++
		h = mix(h, mix(uint64(st.seq), 0xB17D)) // "bound" tag
	case rtregistry.StructureVar:
		st.seq++
		tag := uint64(0x0FEE) // "unbound" tag
		if bindFreeVars {
			tag = 0xB17D
		}
		h = mix(h, mix(uint64(st.seq), tag))
	}
	return h
}
