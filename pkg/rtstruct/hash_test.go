package rtstruct

import (
	"testing"

	"github.com/stretchr/testify/require"

	"purple_go/pkg/rtcontainer"
	"purple_go/pkg/rtvalue"
)

func anyList(vs ...rtvalue.Any) rtvalue.Any {
	return rtvalue.NewObject(rtcontainer.NewListFrom(vs...))
}

func TestHashEqualValuesMatch(t *testing.T) {
	a := anyList(rtvalue.NewInt(1), rtvalue.NewInt(2), rtvalue.NewInt(3))
	b := anyList(rtvalue.NewInt(1), rtvalue.NewInt(2), rtvalue.NewInt(3))

	require.Equal(t, Hash(nil, a, false), Hash(nil, b, false), "structurally equal lists must hash identically")
}

func TestHashDiffersOnContent(t *testing.T) {
	a := anyList(rtvalue.NewInt(1), rtvalue.NewInt(2))
	b := anyList(rtvalue.NewInt(1), rtvalue.NewInt(3))

	require.NotEqual(t, Hash(nil, a, false), Hash(nil, b, false), "different lists should not hash identically")
}

func TestHashDictOrderIndependent(t *testing.T) {
	d1 := rtcontainer.NewDict()
	require.NoError(t, d1.Insert(rtvalue.NewRawStr("a").ToOwned(), rtvalue.NewInt(1)))
	require.NoError(t, d1.Insert(rtvalue.NewRawStr("b").ToOwned(), rtvalue.NewInt(2)))

	d2 := rtcontainer.NewDict()
	require.NoError(t, d2.Insert(rtvalue.NewRawStr("b").ToOwned(), rtvalue.NewInt(2)))
	require.NoError(t, d2.Insert(rtvalue.NewRawStr("a").ToOwned(), rtvalue.NewInt(1)))

	a := rtvalue.NewObject(d1)
	b := rtvalue.NewObject(d2)
	require.Equal(t, Hash(nil, a, false), Hash(nil, b, false), "dict hash must not depend on insertion order")
}

func TestHashPrimitiveScalars(t *testing.T) {
	require.NotEqual(t, Hash(nil, rtvalue.NewInt(1), false), Hash(nil, rtvalue.NewBool(true), false))
	require.Equal(t, Hash(nil, rtvalue.None, false), Hash(nil, rtvalue.None, false))
}
