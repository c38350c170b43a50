package rtcontainer

import (
	"strings"
	"testing"

	"purple_go/pkg/rtvalue"
)

func TestTypedFuncArgumentMismatch(t *testing.T) {
	f, err := NewTypedFunc(func(a int64, b float64, c string, d float64) float64 {
		return float64(a) + b + d
	})
	if err != nil {
		t.Fatal(err)
	}

	// f(1.0, 2, "x", 4) — argument #0 should be int but is float.
	_, err = f.Call(rtvalue.NewFloat(1.0), rtvalue.NewInt(2), rtvalue.NewRawStr("x").ToOwned(), rtvalue.NewInt(4))
	if err == nil {
		t.Fatal("expected TypeError on mismatched argument kind")
	}
	rtErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if rtErr.Kind != KindTypeError {
		t.Fatalf("expected TypeError, got %s", rtErr.Kind)
	}
	if !strings.Contains(rtErr.Message, "argument #0") {
		t.Fatalf("expected message to name argument #0, got %q", rtErr.Message)
	}
}

func TestTypedFuncArgumentCountMismatch(t *testing.T) {
	f, err := NewTypedFunc(func(a int64, b float64, c string, d float64) float64 { return 0 })
	if err != nil {
		t.Fatal(err)
	}
	_, err = f.Call(rtvalue.NewInt(1), rtvalue.NewFloat(2), rtvalue.NewRawStr("x").ToOwned())
	if err == nil {
		t.Fatal("expected error on argument count mismatch")
	}
	if !strings.Contains(err.Error(), "Expected 4 but got 3") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestTypedFuncHappyPath(t *testing.T) {
	f, err := NewTypedFunc(func(a int64, b float64) float64 { return float64(a) + b })
	if err != nil {
		t.Fatal(err)
	}
	ret, err := f.Call(rtvalue.NewInt(1), rtvalue.NewFloat(2.5))
	if err != nil {
		t.Fatal(err)
	}
	got, _ := ret.AsFloat()
	if got != 3.5 {
		t.Fatalf("got %v want 3.5", got)
	}
}

func TestSafeCallCapturesPanic(t *testing.T) {
	f := NewFunc(func(args []rtvalue.Any) (rtvalue.Any, error) {
		panic("boom")
	})
	_, errOut, code := f.SafeCall()
	if code != -1 {
		t.Fatalf("expected code -1, got %d", code)
	}
	if errOut == nil {
		t.Fatal("expected captured error")
	}
}
