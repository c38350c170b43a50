// Package rtregistry implements the single global type registry:
// dynamic type registration with parent/ancestor chains, reflected
// fields, per-type method tables, and name-keyed vtables. Grounded on
// AtsushiSuzuki-go-di/container.go's reflect-based registry (a
// sync-guarded map from reflect.Type to registration info), generalized
// here to the spec's integer type-index/string type-key dual keying and
// ancestor-chain subtype tests.
package rtregistry

import (
	"fmt"
	"sort"
	"sync"

	"purple_go/pkg/rtlog"
	"purple_go/pkg/rtvalue"
)

// TypeIndex aliases rtvalue.TypeIndex so registry call sites do not
// need to import both packages just to spell the type.
type TypeIndex = rtvalue.TypeIndex

// StructureKind controls structural-equality binding behavior for a
// registered type (spec.md §4.5.1).
type StructureKind int

const (
	StructureNone StructureKind = iota
	StructureNoBind
	StructureBind
	StructureVar
)

// MethodKind distinguishes member methods from static (type-level)
// methods.
type MethodKind int

const (
	MethodMember MethodKind = iota
	MethodStatic
)

// FieldInfo describes one reflected field of a registered type.
type FieldInfo struct {
	Name        string
	Offset      uintptr
	Width       uintptr
	ReadOnly    bool
	FieldType   TypeIndex
	SubKind     StructureKind // per-field override, NoBind or Bind
}

// MethodInfo describes one reflected method of a registered type. Func
// is stored as an opaque rtvalue.Any (typically wrapping an
// rtcontainer.Func) so the registry — a layer below containers — never
// needs to import rtcontainer.
type MethodInfo struct {
	Name string
	Func rtvalue.Any
	Kind MethodKind
}

// TypeInfo is the registry's record for one registered type.
type TypeInfo struct {
	TypeIndex     TypeIndex
	TypeKey       string
	TypeKeyHash   uint64
	TypeDepth     int
	TypeAncestors []TypeIndex
	Fields        []FieldInfo
	Methods       []MethodInfo
	Structure     StructureKind
}

// IsInstance reports whether a value of this type is-a ancestor,
// implementing the O(1) subtype test of spec.md §3.
func (ti *TypeInfo) IsInstance(ancestor *TypeInfo) bool {
	if ti.TypeIndex == ancestor.TypeIndex {
		return true
	}
	if ti.TypeDepth <= ancestor.TypeDepth {
		return false
	}
	return ti.TypeAncestors[ancestor.TypeDepth] == ancestor.TypeIndex
}

// fnvKey is the stable FNV-style hash used for TypeKeyHash.
func fnvKey(s string) uint64 {
	const (
		offset64 uint64 = 14695981039346656037
		prime64  uint64 = 1099511628211
	)
	h := offset64
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime64
	}
	return h
}

// OverrideMode controls what happens when a vtable slot for a given
// type index is re-set.
type OverrideMode int

const (
	OverrideReject OverrideMode = iota
	OverrideOverwrite
	OverrideAppend
)

// vtable is a name -> (type_index -> history of Funcs) table. Get
// returns the latest entry; Append keeps prior entries for
// introspection/debugging, matching spec.md's "vtable lookup sees the
// latest" method-collision policy.
type vtable struct {
	entries map[TypeIndex][]rtvalue.Any
}

// Registry owns every dynamic TypeInfo record plus the named vtable
// and global-function maps. The zero value is not usable; use
// NewRegistry or the process-wide Global().
type Registry struct {
	mu          sync.RWMutex
	byIndex     map[TypeIndex]*TypeInfo
	byKey       map[string]*TypeInfo
	nextIndex   TypeIndex
	vtables     map[string]*vtable
	globalFuncs map[string]rtvalue.Any
}

// NewRegistry constructs an empty registry. Most callers want the
// process-wide Global() instead; NewRegistry exists for isolated tests.
func NewRegistry() *Registry {
	return &Registry{
		byIndex:     make(map[TypeIndex]*TypeInfo),
		byKey:       make(map[string]*TypeInfo),
		nextIndex:   rtvalue.TypeIndexDynamicStart,
		vtables:     make(map[string]*vtable),
		globalFuncs: make(map[string]rtvalue.Any),
	}
}

var (
	globalOnce sync.Once
	global     *Registry
)

// Global returns the process-wide registry, lazily initialized on
// first use per spec.md §5.
func Global() *Registry {
	globalOnce.Do(func() {
		global = NewRegistry()
	})
	return global
}

// RegisterType registers a new type with the given parent and type
// key. If explicitIndex is non-zero it is used as the new type's index
// (erroring on conflict); otherwise one is assigned. Re-registering an
// existing key is idempotent and returns the existing info, unless a
// conflicting explicit index was requested.
func (r *Registry) RegisterType(parentIndex TypeIndex, typeKey string, explicitIndex TypeIndex) (*TypeInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byKey[typeKey]; ok {
		if explicitIndex != 0 && explicitIndex != existing.TypeIndex {
			return nil, keyError("type %q already registered at index %d, conflicts with requested index %d", typeKey, existing.TypeIndex, explicitIndex)
		}
		return existing, nil
	}

	idx := explicitIndex
	if idx == 0 {
		idx = r.nextIndex
		r.nextIndex++
	} else if _, ok := r.byIndex[idx]; ok {
		return nil, keyError("type index %d already registered", idx)
	}

	var ancestors []TypeIndex
	depth := 0
	if parentIndex != rtvalue.TypeIndexNone {
		parent, ok := r.byIndex[parentIndex]
		if !ok {
			return nil, keyError("parent type index %d not registered", parentIndex)
		}
		ancestors = append(append([]TypeIndex{}, parent.TypeAncestors...), parent.TypeIndex)
		depth = parent.TypeDepth + 1
	}

	ti := &TypeInfo{
		TypeIndex:     idx,
		TypeKey:       typeKey,
		TypeKeyHash:   fnvKey(typeKey),
		TypeDepth:     depth,
		TypeAncestors: ancestors,
	}
	r.byIndex[idx] = ti
	r.byKey[typeKey] = ti
	rtlog.Debugf("registered type", "type_key", typeKey, "type_index", int32(idx), "parent_index", int32(parentIndex))
	return ti, nil
}

// GetByIndex looks up a TypeInfo by index.
func (r *Registry) GetByIndex(idx TypeIndex) (*TypeInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ti, ok := r.byIndex[idx]
	return ti, ok
}

// GetByKey looks up a TypeInfo by its stable string name.
func (r *Registry) GetByKey(key string) (*TypeInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ti, ok := r.byKey[key]
	return ti, ok
}

// SetFields attaches reflected field metadata, stored sorted by
// offset as spec.md §4.1 requires.
func (r *Registry) SetFields(idx TypeIndex, fields []FieldInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ti, ok := r.byIndex[idx]
	if !ok {
		return keyError("type index %d not registered", idx)
	}
	sorted := append([]FieldInfo{}, fields...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Offset < sorted[j].Offset })
	ti.Fields = sorted
	return nil
}

// SetStructure attaches the type's structure_kind.
func (r *Registry) SetStructure(idx TypeIndex, kind StructureKind) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ti, ok := r.byIndex[idx]
	if !ok {
		return keyError("type index %d not registered", idx)
	}
	ti.Structure = kind
	return nil
}

// AddMethod reflects a method onto a type and inserts it into the
// global vtable keyed on the method name. Name collisions within a
// type are accepted in insertion order; vtable lookup sees the latest.
func (r *Registry) AddMethod(idx TypeIndex, m MethodInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ti, ok := r.byIndex[idx]
	if !ok {
		return keyError("type index %d not registered", idx)
	}
	ti.Methods = append(ti.Methods, m)
	sort.SliceStable(ti.Methods, func(i, j int) bool { return ti.Methods[i].Name < ti.Methods[j].Name })

	vt := r.vtables[m.Name]
	if vt == nil {
		vt = &vtable{entries: make(map[TypeIndex][]rtvalue.Any)}
		r.vtables[m.Name] = vt
	}
	vt.entries[idx] = append(vt.entries[idx], m.Func)
	rtlog.Debugf("registered method", "type_index", int32(idx), "method", m.Name)
	return nil
}

// VTableHandle is a lightweight reference to a named vtable, returned
// by GetVTable.
type VTableHandle struct {
	name string
	reg  *Registry
}

// GetVTable returns a handle to the named vtable, creating it if
// necessary.
func (r *Registry) GetVTable(name string) VTableHandle {
	r.mu.Lock()
	if r.vtables[name] == nil {
		r.vtables[name] = &vtable{entries: make(map[TypeIndex][]rtvalue.Any)}
	}
	r.mu.Unlock()
	return VTableHandle{name: name, reg: r}
}

// VTableGetFunc looks up the function registered for typeIndex in this
// vtable. If allowAncestor is set and no exact entry exists, ancestors
// are walked from deepest to root.
func (h VTableHandle) VTableGetFunc(typeIndex TypeIndex, allowAncestor bool) (rtvalue.Any, error) {
	h.reg.mu.RLock()
	defer h.reg.mu.RUnlock()
	vt := h.reg.vtables[h.name]
	if vt == nil {
		return rtvalue.Any{}, typeError("vtable %q not found", h.name)
	}
	if entries := vt.entries[typeIndex]; len(entries) > 0 {
		return entries[len(entries)-1], nil
	}
	if allowAncestor {
		ti, ok := h.reg.byIndex[typeIndex]
		if ok {
			for d := ti.TypeDepth - 1; d >= 0; d-- {
				anc := ti.TypeAncestors[d]
				if entries := vt.entries[anc]; len(entries) > 0 {
					return entries[len(entries)-1], nil
				}
			}
		}
	}
	return rtvalue.Any{}, typeError("no function registered for type %d in vtable %q", typeIndex, h.name)
}

// VTableSetFunc installs fn for typeIndex under the given override
// policy.
func (h VTableHandle) VTableSetFunc(typeIndex TypeIndex, fn rtvalue.Any, mode OverrideMode) error {
	h.reg.mu.Lock()
	defer h.reg.mu.Unlock()
	vt := h.reg.vtables[h.name]
	if vt == nil {
		vt = &vtable{entries: make(map[TypeIndex][]rtvalue.Any)}
		h.reg.vtables[h.name] = vt
	}
	existing := vt.entries[typeIndex]
	switch mode {
	case OverrideReject:
		if len(existing) > 0 {
			return keyError("vtable %q already has an entry for type %d", h.name, typeIndex)
		}
		vt.entries[typeIndex] = []rtvalue.Any{fn}
	case OverrideOverwrite:
		vt.entries[typeIndex] = []rtvalue.Any{fn}
	case OverrideAppend:
		vt.entries[typeIndex] = append(existing, fn)
	default:
		return fmt.Errorf("unknown override mode %d", mode)
	}
	return nil
}

// SetGlobalFunc registers a process-wide named function, failing if one
// already exists and allowOverride is false.
func (r *Registry) SetGlobalFunc(name string, fn rtvalue.Any, allowOverride bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.globalFuncs[name]; exists && !allowOverride {
		return keyError("global function %q already registered", name)
	}
	r.globalFuncs[name] = fn
	return nil
}

// GetGlobalFunc looks up a process-wide named function.
func (r *Registry) GetGlobalFunc(name string) (rtvalue.Any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.globalFuncs[name]
	if !ok {
		return rtvalue.Any{}, keyError("global function %q not registered", name)
	}
	return fn, nil
}
