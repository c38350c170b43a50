package rtregistry

import (
	"testing"

	"purple_go/pkg/rtvalue"
)

func TestRegisterTypeAncestors(t *testing.T) {
	r := NewRegistry()
	base, err := r.RegisterType(rtvalue.TypeIndexNone, "test.Base", 0)
	if err != nil {
		t.Fatal(err)
	}
	mid, err := r.RegisterType(base.TypeIndex, "test.Mid", 0)
	if err != nil {
		t.Fatal(err)
	}
	leaf, err := r.RegisterType(mid.TypeIndex, "test.Leaf", 0)
	if err != nil {
		t.Fatal(err)
	}

	if leaf.TypeDepth != 2 {
		t.Fatalf("expected depth 2, got %d", leaf.TypeDepth)
	}
	if !leaf.IsInstance(base) || !leaf.IsInstance(mid) || !leaf.IsInstance(leaf) {
		t.Fatal("expected leaf is-a base, mid, leaf")
	}
	if base.IsInstance(leaf) {
		t.Fatal("base must not be-a leaf")
	}
}

func TestRegisterTypeIdempotent(t *testing.T) {
	r := NewRegistry()
	first, err := r.RegisterType(rtvalue.TypeIndexNone, "test.Dup", 0)
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.RegisterType(rtvalue.TypeIndexNone, "test.Dup", 0)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatal("re-registering an existing key must return the same TypeInfo")
	}
}

func TestRegisterTypeConflictingIndex(t *testing.T) {
	r := NewRegistry()
	ti, err := r.RegisterType(rtvalue.TypeIndexNone, "test.A", 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.RegisterType(rtvalue.TypeIndexNone, "test.A", ti.TypeIndex+1); err == nil {
		t.Fatal("expected KeyError on conflicting explicit index")
	}
}

func TestVTableAncestorLookup(t *testing.T) {
	r := NewRegistry()
	base, _ := r.RegisterType(rtvalue.TypeIndexNone, "test.VBase", 0)
	leaf, _ := r.RegisterType(base.TypeIndex, "test.VLeaf", 0)

	vt := r.GetVTable("__str__")
	fn := rtvalue.NewInt(1) // stand-in callable
	if err := vt.VTableSetFunc(base.TypeIndex, fn, OverrideReject); err != nil {
		t.Fatal(err)
	}
	if _, err := vt.VTableGetFunc(leaf.TypeIndex, false); err == nil {
		t.Fatal("expected lookup without ancestor fallback to fail")
	}
	got, err := vt.VTableGetFunc(leaf.TypeIndex, true)
	if err != nil {
		t.Fatalf("expected ancestor fallback to succeed: %v", err)
	}
	if v, _ := got.AsInt(); v != 1 {
		t.Fatalf("got wrong func")
	}
}

func TestVTableOverrideModes(t *testing.T) {
	r := NewRegistry()
	ti, _ := r.RegisterType(rtvalue.TypeIndexNone, "test.Override", 0)
	vt := r.GetVTable("op")
	if err := vt.VTableSetFunc(ti.TypeIndex, rtvalue.NewInt(1), OverrideReject); err != nil {
		t.Fatal(err)
	}
	if err := vt.VTableSetFunc(ti.TypeIndex, rtvalue.NewInt(2), OverrideReject); err == nil {
		t.Fatal("expected reject mode to fail on existing entry")
	}
	if err := vt.VTableSetFunc(ti.TypeIndex, rtvalue.NewInt(3), OverrideOverwrite); err != nil {
		t.Fatal(err)
	}
	got, _ := vt.VTableGetFunc(ti.TypeIndex, false)
	if v, _ := got.AsInt(); v != 3 {
		t.Fatalf("expected overwrite to win, got %v", v)
	}
}

func TestGlobalFunc(t *testing.T) {
	r := NewRegistry()
	if err := r.SetGlobalFunc("add", rtvalue.NewInt(42), false); err != nil {
		t.Fatal(err)
	}
	if err := r.SetGlobalFunc("add", rtvalue.NewInt(43), false); err == nil {
		t.Fatal("expected duplicate registration to fail without override")
	}
	if err := r.SetGlobalFunc("add", rtvalue.NewInt(43), true); err != nil {
		t.Fatal(err)
	}
	got, err := r.GetGlobalFunc("add")
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := got.AsInt(); v != 43 {
		t.Fatalf("got %v want 43", v)
	}
}
