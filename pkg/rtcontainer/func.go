package rtcontainer

import (
	"fmt"
	"reflect"

	"purple_go/pkg/rtobject"
	"purple_go/pkg/rtvalue"
)

// Func carries a call thunk and a safe-call thunk over a host closure,
// matching spec.md §4.4.4. call panics propagate as Go panics (callers
// crossing a language boundary should use SafeCall instead, which
// recovers them into an Error + nonzero return code).
type Func struct {
	hdr  rtobject.Header
	impl func(args []rtvalue.Any) (rtvalue.Any, error)
	sig  []string // parameter type_key strings, used to build error messages
}

func funcDeleter(*rtobject.Header) {}

// NewFunc wraps a raw (args -> result, error) closure.
func NewFunc(impl func(args []rtvalue.Any) (rtvalue.Any, error)) *Func {
	f := &Func{impl: impl}
	f.hdr = rtobject.NewHeader(int32(rtvalue.TypeIndexFunc), funcDeleter)
	return f
}

// Header implements rtobject.Heaper.
func (f *Func) Header() *rtobject.Header { return &f.hdr }

// Call invokes the function's fast thunk, letting any panic propagate
// to the caller as a host-native panic.
func (f *Func) Call(args ...rtvalue.Any) (rtvalue.Any, error) {
	return f.impl(args)
}

// SafeCall invokes the function, capturing any panic into an Error
// return instead of propagating it, for use at language/ABI boundaries.
// Returns errCode 0 on success, -1 on a recovered panic or an error that
// is not an *Error (both wrapped into a RuntimeError), -2 on a typed
// (*rtcontainer.Error) failure, matching spec.md §6's return-code
// convention.
func (f *Func) SafeCall(args ...rtvalue.Any) (ret rtvalue.Any, errOut *Error, errCode int32) {
	defer func() {
		if r := recover(); r != nil {
			errCode = -1
			errOut = NewError(KindRuntimeError, fmt.Sprintf("panic during call: %v", r))
		}
	}()
	v, err := f.impl(args)
	if err != nil {
		if e, ok := err.(*Error); ok {
			return rtvalue.Any{}, e, -2
		}
		return rtvalue.Any{}, NewError(KindRuntimeError, err.Error()), -1
	}
	return v, nil, 0
}

// goKind names the supported native parameter/return kinds for
// NewTypedFunc's reflect-based marshaling.
type goKind int

const (
	kindBool goKind = iota
	kindInt64
	kindFloat64
	kindString
)

func typeKeyOf(k goKind) string {
	switch k {
	case kindBool:
		return "bool"
	case kindInt64:
		return "int"
	case kindFloat64:
		return "float"
	case kindString:
		return "str"
	}
	return "?"
}

func goKindOf(t reflect.Type) (goKind, bool) {
	switch t.Kind() {
	case reflect.Bool:
		return kindBool, true
	case reflect.Int64, reflect.Int:
		return kindInt64, true
	case reflect.Float64:
		return kindFloat64, true
	case reflect.String:
		return kindString, true
	}
	return 0, false
}

// NewTypedFunc builds a Func around a concrete Go function whose
// parameters and (single, or value+error) return are each bool, int64,
// float64, or string. Each call marshals the supplied Any arguments
// through the matching Any.As* conversion, synthesizing a TypeError
// naming the parameter index and expected/actual kinds on mismatch, per
// spec.md §4.4.4's argument-conversion contract.
func NewTypedFunc(fn any) (*Func, error) {
	rv := reflect.ValueOf(fn)
	rt := rv.Type()
	if rt.Kind() != reflect.Func {
		return nil, fmt.Errorf("NewTypedFunc: not a function")
	}
	kinds := make([]goKind, rt.NumIn())
	sig := make([]string, rt.NumIn())
	for i := 0; i < rt.NumIn(); i++ {
		k, ok := goKindOf(rt.In(i))
		if !ok {
			return nil, fmt.Errorf("NewTypedFunc: unsupported parameter type %s", rt.In(i))
		}
		kinds[i] = k
		sig[i] = typeKeyOf(k)
	}

	impl := func(args []rtvalue.Any) (rtvalue.Any, error) {
		if len(args) != len(kinds) {
			return rtvalue.Any{}, NewError(KindTypeError, fmt.Sprintf(
				"Mismatched number of arguments. Expected %d but got %d", len(kinds), len(args)))
		}
		in := make([]reflect.Value, len(args))
		for i, a := range args {
			v, err := convertArg(a, kinds[i])
			if err != nil {
				return rtvalue.Any{}, NewError(KindTypeError, fmt.Sprintf(
					"Mismatched type on argument #%d when calling `%s`. Expected `%s` but got `%s`",
					i, signatureString(sig), typeKeyOf(kinds[i]), actualKindName(a)))
			}
			in[i] = v
		}
		out := rv.Call(in)
		return marshalReturn(out)
	}
	f := NewFunc(impl)
	f.sig = sig
	return f, nil
}

func signatureString(sig []string) string {
	s := "("
	for i, p := range sig {
		if i > 0 {
			s += ", "
		}
		s += p
	}
	return s + ")"
}

func actualKindName(a rtvalue.Any) string {
	switch a.Tag() {
	case rtvalue.TypeIndexBool:
		return "bool"
	case rtvalue.TypeIndexInt:
		return "int"
	case rtvalue.TypeIndexFloat:
		return "float"
	case rtvalue.TypeIndexRawStr:
		return "str"
	case rtvalue.TypeIndexObject:
		if _, err := a.AsStr(); err == nil {
			return "str"
		}
		return "object"
	default:
		return "None"
	}
}

func convertArg(a rtvalue.Any, k goKind) (reflect.Value, error) {
	switch k {
	case kindBool:
		v, err := a.AsBool()
		return reflect.ValueOf(v), err
	case kindInt64:
		v, err := a.AsInt()
		return reflect.ValueOf(v), err
	case kindFloat64:
		v, err := a.AsFloat()
		return reflect.ValueOf(v), err
	case kindString:
		v, err := a.AsStr()
		return reflect.ValueOf(v), err
	}
	return reflect.Value{}, fmt.Errorf("unknown kind")
}

func marshalReturn(out []reflect.Value) (rtvalue.Any, error) {
	if len(out) == 0 {
		return rtvalue.None, nil
	}
	var callErr error
	if len(out) == 2 {
		if e, ok := out[1].Interface().(error); ok {
			callErr = e
		}
	}
	v := out[0]
	switch v.Kind() {
	case reflect.Bool:
		return rtvalue.NewBool(v.Bool()), callErr
	case reflect.Int64, reflect.Int:
		return rtvalue.NewInt(v.Int()), callErr
	case reflect.Float64:
		return rtvalue.NewFloat(v.Float()), callErr
	case reflect.String:
		return rtvalue.NewObject(NewStr(v.String())), callErr
	default:
		return rtvalue.None, callErr
	}
}
