package rtstruct

import (
	"purple_go/pkg/rtregistry"
	"purple_go/pkg/rtvalue"
)

// Reflected is implemented by user-registered object types that want
// to participate in structural equality, hashing, copy, and
// serialization. It replaces the C++ original's byte-offset field
// descriptors (unsafe and non-idiomatic in Go) with a self-describing
// interface generated once per type at registration time — the same
// "generate descriptors at type-registration time" discipline spec.md
// §9 calls out, expressed as a Go interface instead of an offset table.
type Reflected interface {
	rtvalue.Heaper
	// TypeKey returns the type's registered key, used to look up its
	// TypeInfo (structure kind, field sub-kinds) in the registry.
	TypeKey() string
	// FieldValues returns the object's reflected fields in declaration
	// order, matching the order FieldNames returns.
	FieldValues() []rtvalue.Any
	// FieldNames returns the reflected field names in declaration
	// order.
	FieldNames() []string
	// Init reconstructs a new instance of the same concrete type from
	// field values in declaration order, used by shallow copy,
	// copy-replace, and deserialize. It must not recurse into children.
	Init(fields []rtvalue.Any) (Reflected, error)
}

// typeInfoFor resolves the TypeInfo backing a Reflected value's field
// sub-kinds, or ok=false if the type was never registered (treated as
// StructureNone).
func typeInfoFor(reg *rtregistry.Registry, r Reflected) (*rtregistry.TypeInfo, bool) {
	if reg == nil {
		return nil, false
	}
	return reg.GetByKey(r.TypeKey())
}

func subKindFor(ti *rtregistry.TypeInfo, ok bool, idx int) rtregistry.StructureKind {
	if !ok || ti == nil || idx >= len(ti.Fields) {
		return rtregistry.StructureNone
	}
	return ti.Fields[idx].SubKind
}

func structureKindFor(reg *rtregistry.Registry, r Reflected) rtregistry.StructureKind {
	ti, ok := typeInfoFor(reg, r)
	if !ok {
		return rtregistry.StructureNone
	}
	return ti.Structure
}
