package rtcontainer

import (
	"testing"

	"purple_go/pkg/rtvalue"
)

func TestDictBasics(t *testing.T) {
	d := NewDict()
	for k := 0; k < 1000; k++ {
		if err := d.Insert(rtvalue.NewInt(int64(k)), rtvalue.NewInt(int64(2*k))); err != nil {
			t.Fatalf("insert %d: %v", k, err)
		}
	}
	if d.Len() != 1000 {
		t.Fatalf("expected len 1000, got %d", d.Len())
	}
	for k := 0; k < 1000; k++ {
		v, ok := d.Get(rtvalue.NewInt(int64(k)))
		if !ok {
			t.Fatalf("key %d missing", k)
		}
		got, _ := v.AsInt()
		if got != int64(2*k) {
			t.Fatalf("key %d: got %d want %d", k, got, 2*k)
		}
	}

	for k := 0; k < 1000; k += 2 {
		if !d.Erase(rtvalue.NewInt(int64(k))) {
			t.Fatalf("erase %d failed", k)
		}
	}
	for k := 0; k < 1000; k++ {
		_, ok := d.Get(rtvalue.NewInt(int64(k)))
		if k%2 == 0 && ok {
			t.Fatalf("even key %d should have been erased", k)
		}
		if k%2 == 1 && !ok {
			t.Fatalf("odd key %d should still be present", k)
		}
	}
}

func TestDictOverwrite(t *testing.T) {
	d := NewDict()
	d.Insert(rtvalue.NewInt(1), rtvalue.NewInt(100))
	d.Insert(rtvalue.NewInt(1), rtvalue.NewInt(200))
	if d.Len() != 1 {
		t.Fatalf("expected len 1 after overwrite, got %d", d.Len())
	}
	v, ok := d.Get(rtvalue.NewInt(1))
	if !ok {
		t.Fatal("expected key present")
	}
	got, _ := v.AsInt()
	if got != 200 {
		t.Fatalf("expected overwritten value 200, got %d", got)
	}
}

func TestDictStringKeys(t *testing.T) {
	d := NewDict()
	a := rtvalue.NewObject(NewStr("alpha"))
	b := rtvalue.NewObject(NewStr("beta"))
	d.Insert(a, rtvalue.NewInt(1))
	d.Insert(b, rtvalue.NewInt(2))

	lookup := rtvalue.NewObject(NewStr("alpha"))
	v, ok := d.Get(lookup)
	if !ok {
		t.Fatal("expected to find alpha by value equality, not identity")
	}
	got, _ := v.AsInt()
	if got != 1 {
		t.Fatalf("got %d want 1", got)
	}
}

func TestDictClearReleasesRefs(t *testing.T) {
	d := NewDict()
	s := NewStr("x")
	k := rtvalue.NewObject(s)
	d.Insert(k, rtvalue.NewInt(1))
	k.Release()
	d.Clear()
	if s.Header().RefCount() != 0 {
		t.Fatalf("expected refcount 0 after clear, got %d", s.Header().RefCount())
	}
}
