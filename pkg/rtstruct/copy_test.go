package rtstruct

import (
	"testing"

	"github.com/stretchr/testify/require"

	"purple_go/internal/testutil"
	"purple_go/pkg/rtcontainer"
	"purple_go/pkg/rtobject"
	"purple_go/pkg/rtvalue"
)

func TestCopyShallowSharesNestedList(t *testing.T) {
	inner := rtcontainer.NewListFrom(rtvalue.NewInt(1))
	innerAny := rtvalue.NewObject(inner)
	outer := rtcontainer.NewListFrom(innerAny)
	outerAny := rtvalue.NewObject(outer)

	copied, err := CopyShallow(nil, outerAny)
	require.NoError(t, err)

	copiedList, err := copied.AsObject()
	require.NoError(t, err)
	cl := copiedList.(*rtcontainer.List)
	require.NotSame(t, outer, cl, "shallow copy must allocate a new top-level list")

	elem, err := cl.Get(0)
	require.NoError(t, err)
	elemObj, err := elem.AsObject()
	require.NoError(t, err)
	require.Same(t, inner, elemObj, "shallow copy must share nested objects, not recopy them")
}

func TestCopyDeepDuplicatesNestedList(t *testing.T) {
	inner := rtcontainer.NewListFrom(rtvalue.NewInt(1))
	innerAny := rtvalue.NewObject(inner)
	outer := rtcontainer.NewListFrom(innerAny)
	outerAny := rtvalue.NewObject(outer)

	copied, err := CopyDeep(nil, outerAny)
	require.NoError(t, err)

	ok, reason := Equal(nil, outerAny, copied, false)
	require.True(t, ok, "deep copy must be structurally equal to the original: %v", reason)

	copiedList, err := copied.AsObject()
	require.NoError(t, err)
	cl := copiedList.(*rtcontainer.List)
	elem, err := cl.Get(0)
	require.NoError(t, err)
	elemObj, err := elem.AsObject()
	require.NoError(t, err)
	require.NotSame(t, inner, elemObj, "deep copy must not share nested objects")
}

func TestCopyDeepPreservesSharedSubstructure(t *testing.T) {
	shared := rtcontainer.NewListFrom(rtvalue.NewInt(42))
	sharedAny := rtvalue.NewObject(shared)
	outer := rtcontainer.NewListFrom(sharedAny, sharedAny)
	outerAny := rtvalue.NewObject(outer)

	copied, err := CopyDeep(nil, outerAny)
	require.NoError(t, err)

	cl, err := copied.AsObject()
	require.NoError(t, err)
	l := cl.(*rtcontainer.List)
	a0, _ := l.Get(0)
	a1, _ := l.Get(1)
	o0, _ := a0.AsObject()
	o1, _ := a1.AsObject()
	require.Same(t, o0, o1, "deep copy must preserve shared-substructure identity across two references to the same original object")
}

func TestCopyReplaceSubstitutesMatchedNode(t *testing.T) {
	inner := rtvalue.NewInt(1)
	outer := rtcontainer.NewListFrom(inner)
	outerAny := rtvalue.NewObject(outer)

	replacement := rtvalue.NewInt(99)
	copied, err := CopyReplace(nil, outerAny, func(path ObjectPath, v rtvalue.Any) (rtvalue.Any, bool) {
		if v.Tag() == rtvalue.TypeIndexInt {
			if n, _ := v.AsInt(); n == 1 {
				return replacement, true
			}
		}
		return rtvalue.Any{}, false
	})
	require.NoError(t, err)

	l, err := copied.AsObject()
	require.NoError(t, err)
	cl := l.(*rtcontainer.List)
	got, err := cl.Get(0)
	require.NoError(t, err)
	n, err := got.AsInt()
	require.NoError(t, err)
	require.Equal(t, int64(99), n)
}

func TestCopyDeepAliasesTensorBuffer(t *testing.T) {
	tensor := testutil.SmallTensor(1, 2, 3)
	defer tensor.Close()
	tensorAny := rtvalue.NewObject(tensor)

	copied, err := CopyDeep(nil, tensorAny)
	require.NoError(t, err)

	ok, reason := Equal(nil, tensorAny, copied, false)
	require.True(t, ok, "deep-copied tensor must be structurally equal to the original: %v", reason)

	obj, err := copied.AsObject()
	require.NoError(t, err)
	ct := obj.(*rtcontainer.Tensor)
	require.Same(t, tensor, ct, "Tensor is a value-type aggregate and must be aliased, not duplicated, by a deep copy")
}

// opaqueObj is a heap object that is neither a built-in container nor
// Reflected.
type opaqueObj struct{ hdr rtobject.Header }

func (o *opaqueObj) Header() *rtobject.Header { return &o.hdr }

func TestCopyDeepRejectsOpaqueObject(t *testing.T) {
	a := rtvalue.NewObject(&opaqueObj{})

	_, err := CopyDeep(nil, a)
	require.Error(t, err)
}
