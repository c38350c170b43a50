// Package rtcontainer implements the heterogeneous generic containers
// and value types of spec.md §4.4: Str (aliased from rtvalue), List,
// Dict, Func, Error, and Tensor.
package rtcontainer

import (
	"fmt"
	"strings"

	"purple_go/pkg/rtobject"
	"purple_go/pkg/rtvalue"
)

// Str is the immutable UTF-8 heap string object; see rtvalue.Str for
// why it is defined one layer down.
type Str = rtvalue.Str

// NewStr constructs a new heap string.
func NewStr(s string) *Str { return rtvalue.NewStr(s) }

// Frame is one (file, line, function) traceback entry.
type Frame struct {
	File     string
	Line     int
	Function string
}

func (f Frame) String() string {
	return fmt.Sprintf("%s:%d in %s", f.File, f.Line, f.Function)
}

// Error carries a kind string, a message, and a traceback, grounded on
// ast.NewError/IsError generalized from a single message string to the
// (kind, message, traceback) triple spec.md §4.4.5 requires.
type Error struct {
	hdr       rtobject.Header
	Kind      string
	Message   string
	Traceback []Frame
}

// Recognized error kinds, per spec.md §7.
const (
	KindTypeError     = "TypeError"
	KindValueError    = "ValueError"
	KindKeyError      = "KeyError"
	KindIndexError    = "IndexError"
	KindRuntimeError  = "RuntimeError"
	KindInternalError = "InternalError"
)

func errDeleter(*rtobject.Header) {}

// NewError allocates a new Error object with refcount 0.
func NewError(kind, message string) *Error {
	e := &Error{Kind: kind, Message: message}
	e.hdr = rtobject.NewHeader(int32(rtvalue.TypeIndexError), errDeleter)
	return e
}

// Header implements rtobject.Heaper.
func (e *Error) Header() *rtobject.Header { return &e.hdr }

// Error implements the standard error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind)
	b.WriteString(": ")
	b.WriteString(e.Message)
	for _, f := range e.Traceback {
		b.WriteString("\n  ")
		b.WriteString(f.String())
	}
	return b.String()
}

// WithTraceback returns e with frames appended, for building up a
// traceback as an error propagates across call frames.
func (e *Error) WithTraceback(frames ...Frame) *Error {
	e.Traceback = append(e.Traceback, frames...)
	return e
}
