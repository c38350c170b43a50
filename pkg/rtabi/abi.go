// Package rtabi exposes the runtime's C ABI surface: every //export'd
// entry point a host process embedding this runtime calls across the
// cgo boundary. Grounded on pkg/eval/green.go's per-logical-thread
// state pattern, adapted here from green-thread continuation state to
// a goroutine-local "last error" slot — Go has no OS thread-local
// storage, so a sync.Map keyed by the calling goroutine's own runtime
// ID approximates it, matching spec.md §6's "last error is
// thread-local" requirement: a cgo export call always runs on the same
// goroutine for the lifetime of that call, and a host embedding this
// runtime serially from one OS thread repeatedly re-enters the same
// goroutine, so the ID read back out on the next call matches the one
// the failing call stored.
//
// Handles crossing the boundary are runtime/cgo.Handle values (opaque
// 64-bit integers) rather than raw pointers, since Go values must not
// be stored directly in C memory.
package rtabi

/*
#include <stdint.h>

typedef int64_t MLCRTAnyHandle;
typedef int64_t MLCRTObjectHandle;
*/
import "C"

import (
	"bytes"
	"runtime"
	"runtime/cgo"
	"strconv"
	"sync"
	"unsafe"

	"purple_go/pkg/rtcontainer"
	"purple_go/pkg/rtregistry"
	"purple_go/pkg/rtvalue"
)

var lastErr sync.Map // goroutine ID -> *rtcontainer.Error

// goroutineID extracts the calling goroutine's runtime-assigned ID by
// parsing the header line of its own stack trace ("goroutine 123
// [running]:"). Go exposes no public API for this; it is the standard
// workaround, and is stable across calls on the same goroutine, unlike
// the address of a stack-local variable (which moves every call).
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return 0
	}
	id, _ := strconv.ParseUint(string(fields[1]), 10, 64)
	return id
}

func setLastError(err *rtcontainer.Error) {
	lastErr.Store(goroutineID(), err)
}

func clearLastError() {
	lastErr.Delete(goroutineID())
}

//export MLCRTGetLastError
func MLCRTGetLastError() *C.char {
	v, ok := lastErr.Load(goroutineID())
	if !ok {
		return nil
	}
	err := v.(*rtcontainer.Error)
	return C.CString(err.Error())
}

//export MLCRTClearLastError
func MLCRTClearLastError() {
	clearLastError()
}

// --- type registry ---

//export MLCRTTypeRegister
func MLCRTTypeRegister(parentIndex C.int32_t, typeKeyC *C.char) C.int32_t {
	typeKey := C.GoString(typeKeyC)
	ti, err := rtregistry.Global().RegisterType(rtvalue.TypeIndex(parentIndex), typeKey, 0)
	if err != nil {
		setLastError(rtcontainer.NewError(rtcontainer.KindKeyError, err.Error()))
		return -1
	}
	return C.int32_t(ti.TypeIndex)
}

//export MLCRTTypeGetByKey
func MLCRTTypeGetByKey(typeKeyC *C.char) C.int32_t {
	typeKey := C.GoString(typeKeyC)
	ti, ok := rtregistry.Global().GetByKey(typeKey)
	if !ok {
		setLastError(rtcontainer.NewError(rtcontainer.KindKeyError, "type key not registered: "+typeKey))
		return -1
	}
	return C.int32_t(ti.TypeIndex)
}

//export MLCRTTypeIsInstance
func MLCRTTypeIsInstance(typeIndex, ancestorIndex C.int32_t) C.int32_t {
	reg := rtregistry.Global()
	ti, ok1 := reg.GetByIndex(rtvalue.TypeIndex(typeIndex))
	anc, ok2 := reg.GetByIndex(rtvalue.TypeIndex(ancestorIndex))
	if !ok1 || !ok2 {
		return 0
	}
	if ti.IsInstance(anc) {
		return 1
	}
	return 0
}

// --- vtable ---

//export MLCRTVTableSetFunc
func MLCRTVTableSetFunc(nameC *C.char, typeIndex C.int32_t, fn C.MLCRTAnyHandle, mode C.int32_t) C.int32_t {
	h := cgo.Handle(fn)
	a, ok := h.Value().(rtvalue.Any)
	if !ok {
		return -1
	}
	vt := rtregistry.Global().GetVTable(C.GoString(nameC))
	if err := vt.VTableSetFunc(rtvalue.TypeIndex(typeIndex), a, rtregistry.OverrideMode(mode)); err != nil {
		setLastError(rtcontainer.NewError(rtcontainer.KindKeyError, err.Error()))
		return -1
	}
	return 0
}

//export MLCRTVTableGetFunc
func MLCRTVTableGetFunc(nameC *C.char, typeIndex C.int32_t, allowAncestor C.int32_t) C.MLCRTAnyHandle {
	vt := rtregistry.Global().GetVTable(C.GoString(nameC))
	fn, err := vt.VTableGetFunc(rtvalue.TypeIndex(typeIndex), allowAncestor != 0)
	if err != nil {
		setLastError(rtcontainer.NewError(rtcontainer.KindKeyError, err.Error()))
		return 0
	}
	return C.MLCRTAnyHandle(cgo.NewHandle(fn))
}

// --- Any / refcounting ---

//export MLCRTAnyIncRef
func MLCRTAnyIncRef(handle C.MLCRTAnyHandle) {
	h := cgo.Handle(handle)
	if a, ok := h.Value().(rtvalue.Any); ok {
		a.Clone()
	}
}

//export MLCRTAnyDecRef
func MLCRTAnyDecRef(handle C.MLCRTAnyHandle) {
	h := cgo.Handle(handle)
	if a, ok := h.Value().(rtvalue.Any); ok {
		a.Release()
	}
	h.Delete()
}

//export MLCRTAnyViewToOwned
func MLCRTAnyViewToOwned(viewHandle C.MLCRTAnyHandle) C.MLCRTAnyHandle {
	h := cgo.Handle(viewHandle)
	v, ok := h.Value().(rtvalue.AnyView)
	if !ok {
		return 0
	}
	owned := v.ToOwned()
	return C.MLCRTAnyHandle(cgo.NewHandle(owned))
}

// --- Func ---

//export MLCRTFuncSafeCall
func MLCRTFuncSafeCall(funcHandle C.MLCRTAnyHandle, argHandles *C.MLCRTAnyHandle, numArgs C.int32_t) C.MLCRTAnyHandle {
	h := cgo.Handle(funcHandle)
	a, ok := h.Value().(rtvalue.Any)
	if !ok {
		return 0
	}
	obj, err := a.AsObject()
	if err != nil {
		setLastError(rtcontainer.NewError(rtcontainer.KindTypeError, "handle is not a Func"))
		return 0
	}
	fn, ok := obj.(*rtcontainer.Func)
	if !ok {
		setLastError(rtcontainer.NewError(rtcontainer.KindTypeError, "handle is not a Func"))
		return 0
	}

	n := int(numArgs)
	args := make([]rtvalue.Any, n)
	slice := unsafe.Slice(argHandles, n)
	for i := 0; i < n; i++ {
		if av, ok := cgo.Handle(slice[i]).Value().(rtvalue.Any); ok {
			args[i] = av
		}
	}

	ret, errOut, code := fn.SafeCall(args...)
	if code != 0 {
		setLastError(errOut)
		return 0
	}
	clearLastError()
	return C.MLCRTAnyHandle(cgo.NewHandle(ret))
}

// --- Error ---

//export MLCRTErrorCreate
func MLCRTErrorCreate(kindC, messageC *C.char) C.MLCRTObjectHandle {
	e := rtcontainer.NewError(C.GoString(kindC), C.GoString(messageC))
	return C.MLCRTObjectHandle(cgo.NewHandle(e))
}

//export MLCRTErrorMessage
func MLCRTErrorMessage(handle C.MLCRTObjectHandle) *C.char {
	h := cgo.Handle(handle)
	e, ok := h.Value().(*rtcontainer.Error)
	if !ok {
		return nil
	}
	return C.CString(e.Message)
}

// --- external objects ---

//export MLCRTObjectDelete
func MLCRTObjectDelete(handle C.MLCRTObjectHandle) {
	cgo.Handle(handle).Delete()
}
