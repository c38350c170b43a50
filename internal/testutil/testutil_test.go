package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"purple_go/pkg/rtcontainer"
)

func TestIntsBuildsList(t *testing.T) {
	a := Ints(1, 2, 3)
	defer a.Release()
	obj, err := a.AsObject()
	require.NoError(t, err)
	list, ok := obj.(*rtcontainer.List)
	require.True(t, ok)
	require.Equal(t, 3, list.Len())
}

func TestStrDictBuildsDict(t *testing.T) {
	d, err := StrDict("a", "1", "b", "2")
	require.NoError(t, err)
	defer d.Release()
}

func TestSmallTensorBuildsFloat32Buffer(t *testing.T) {
	tensor := SmallTensor(1, 2, 3)
	defer tensor.Close()
	require.Equal(t, []int64{3}, tensor.Shape)
	require.Equal(t, 12, len(tensor.Data))
}
