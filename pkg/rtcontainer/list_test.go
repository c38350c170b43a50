package rtcontainer

import (
	"testing"

	"purple_go/pkg/rtvalue"
)

func TestListBasics(t *testing.T) {
	l := NewList()
	l.PushBack(rtvalue.NewInt(1))
	l.PushBack(rtvalue.NewFloat(2.0))
	l.PushBack(rtvalue.NewObject(NewStr("three")))

	if l.Len() != 3 {
		t.Fatalf("expected len 3, got %d", l.Len())
	}
	v0, _ := l.Get(0)
	i0, _ := v0.AsInt()
	if i0 != 1 {
		t.Fatalf("got %d want 1", i0)
	}
	v1, _ := l.Get(1)
	f1, _ := v1.AsFloat()
	if f1 != 2.0 {
		t.Fatalf("got %v want 2.0", f1)
	}
	v2, _ := l.Get(2)
	s2, _ := v2.AsStr()
	if s2 != "three" {
		t.Fatalf("got %q want three", s2)
	}

	if err := l.Insert(1, rtvalue.NewInt(99)); err != nil {
		t.Fatal(err)
	}
	v1b, _ := l.Get(1)
	i1b, _ := v1b.AsInt()
	if i1b != 99 {
		t.Fatalf("got %d want 99", i1b)
	}

	if err := l.Erase(0); err != nil {
		t.Fatal(err)
	}
	v0c, _ := l.Get(0)
	i0c, _ := v0c.AsInt()
	if i0c != 99 {
		t.Fatalf("got %d want 99 after erase", i0c)
	}
}

func TestListNegativeIndexIsKeyError(t *testing.T) {
	l := NewList()
	l.PushBack(rtvalue.NewInt(1))

	if _, err := l.Get(-5); err == nil {
		t.Fatal("expected KeyError for out-of-range negative index")
	}
	if _, err := l.Get(-1); err == nil {
		t.Fatal("expected KeyError for -1; this runtime does not address from the end")
	}
	if err := l.Set(-1, rtvalue.NewInt(2)); err == nil {
		t.Fatal("expected KeyError for Set(-1, ...)")
	}
}

func TestListClearReleasesRefs(t *testing.T) {
	l := NewList()
	s := NewStr("x")
	v := rtvalue.NewObject(s)
	l.PushBack(v)
	v.Release()
	l.Clear()
	if s.Header().RefCount() != 0 {
		t.Fatalf("expected refcount 0 after clear, got %d", s.Header().RefCount())
	}
}
