package rtvalue

import "testing"

func TestNumericWidening(t *testing.T) {
	cases := []struct {
		name    string
		any     Any
		wantF   float64
		wantErr bool
	}{
		{"int-to-float", NewInt(7), 7, false},
		{"float-to-float", NewFloat(3.5), 3.5, false},
		{"bool-to-float-rejected", NewBool(true), 0, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f, err := c.any.AsFloat()
			if c.wantErr {
				if err == nil {
					t.Fatalf("expected error converting %v to float", c.any.Tag())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if f != c.wantF {
				t.Fatalf("got %v want %v", f, c.wantF)
			}
		})
	}
}

func TestFloatToIntRejected(t *testing.T) {
	if _, err := NewFloat(1.0).AsInt(); err == nil {
		t.Fatal("expected float->int to be rejected")
	}
}

func TestRawStrOwningInvariant(t *testing.T) {
	view := NewRawStr("hello")
	owned := view.ToOwned()
	if owned.Tag() != TypeIndexObject {
		t.Fatalf("owned Any must not carry RawStr tag, got %v", owned.Tag())
	}
	s, err := owned.AsStr()
	if err != nil {
		t.Fatalf("AsStr: %v", err)
	}
	if s != "hello" {
		t.Fatalf("got %q want hello", s)
	}
	owned.Release()
}

func TestViewRoundTrip(t *testing.T) {
	v := NewInt(42)
	view := v.View()
	back := view.ToOwned()
	got, err := back.AsInt()
	if err != nil || got != 42 {
		t.Fatalf("round trip failed: %v %v", got, err)
	}
}

func TestObjectRefcounting(t *testing.T) {
	str := NewStr("owned")
	a := NewObject(str)
	if str.Header().RefCount() != 1 {
		t.Fatalf("expected refcount 1, got %d", str.Header().RefCount())
	}
	b := a.Clone()
	if str.Header().RefCount() != 2 {
		t.Fatalf("expected refcount 2, got %d", str.Header().RefCount())
	}
	a.Release()
	b.Release()
	if str.Header().RefCount() != 0 {
		t.Fatalf("expected refcount 0, got %d", str.Header().RefCount())
	}
}

func TestOptional(t *testing.T) {
	o := Some(5)
	if v, ok := o.Value(); !ok || v != 5 {
		t.Fatalf("unexpected optional contents")
	}
	n := NoneOf[int]()
	if n.HasValue() {
		t.Fatal("expected absent optional")
	}
	if n.ValueOr(9) != 9 {
		t.Fatal("expected fallback value")
	}
}
