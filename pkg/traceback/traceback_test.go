package traceback

import (
	"testing"

	"github.com/stretchr/testify/require"

	"purple_go/pkg/rtcontainer"
)

func TestCaptureIncludesCaller(t *testing.T) {
	frames := Capture(0)
	require.NotEmpty(t, frames)
	require.Contains(t, frames[0].Function, "TestCaptureIncludesCaller")
}

func TestAttachAppendsFrames(t *testing.T) {
	err := rtcontainer.NewError(rtcontainer.KindRuntimeError, "boom")
	err = Attach(err, 0)
	require.NotEmpty(t, err.Traceback)
}

func TestLimitDefaultsTo512(t *testing.T) {
	t.Setenv("MLCRT_TRACEBACK_LIMIT", "")
	require.Equal(t, 512, Limit())
}

func TestLimitHonorsEnvOverride(t *testing.T) {
	t.Setenv("MLCRT_TRACEBACK_LIMIT", "4")
	require.Equal(t, 4, Limit())
}
