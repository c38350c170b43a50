// Package traceback captures the current goroutine's call stack as a
// bounded list of (file, line, function) frames, for attaching to
// rtcontainer.Error values as they propagate across ABI boundaries.
// Grounded on original_source/cpp/traceback.cc/traceback.h's frame
// capture and its MLC_TRACEBACK_LIMIT environment override, adapted
// from libunwind/backtrace-style native frame walking to Go's own
// runtime.Callers.
package traceback

import (
	"os"
	"runtime"
	"strconv"

	"purple_go/pkg/rtcontainer"
)

const (
	defaultLimit = 512
	envLimitVar  = "MLCRT_TRACEBACK_LIMIT"
)

// Limit returns the configured maximum frame count, read from
// MLCRT_TRACEBACK_LIMIT (falling back to 512), mirroring
// GetTracebackLimit's MLC_TRACEBACK_LIMIT.
func Limit() int {
	if raw := os.Getenv(envLimitVar); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return defaultLimit
}

// Capture walks the calling goroutine's stack, skipping `skip`
// additional frames beyond Capture itself, and returns up to Limit()
// frames as rtcontainer.Frame values.
func Capture(skip int) []rtcontainer.Frame {
	limit := Limit()
	pcs := make([]uintptr, limit)
	n := runtime.Callers(2+skip, pcs)
	if n == 0 {
		return nil
	}
	frames := runtime.CallersFrames(pcs[:n])
	out := make([]rtcontainer.Frame, 0, n)
	for {
		f, more := frames.Next()
		out = append(out, rtcontainer.Frame{File: f.File, Line: f.Line, Function: f.Function})
		if !more || len(out) >= limit {
			break
		}
	}
	return out
}

// Attach appends a freshly captured traceback to err and returns it,
// for use at the point an Error first crosses a call-frame boundary.
func Attach(err *rtcontainer.Error, skip int) *rtcontainer.Error {
	return err.WithTraceback(Capture(skip + 1)...)
}
