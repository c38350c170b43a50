// Package testutil holds fixture builders shared across pkg/*_test.go
// files, so each package's tests construct the same handful of sample
// values the same way instead of re-deriving them inline. Grounded on
// joshuapare-hivekit/tests' require-based assertion style; the fixtures
// themselves are just thin wrappers over this runtime's own container
// constructors.
package testutil

import (
	"math"

	"purple_go/pkg/rtcontainer"
	"purple_go/pkg/rtvalue"
)

// Ints builds an Any-wrapped List of int64 values.
func Ints(vs ...int64) rtvalue.Any {
	anys := make([]rtvalue.Any, len(vs))
	for i, v := range vs {
		anys[i] = rtvalue.NewInt(v)
	}
	return rtvalue.NewObject(rtcontainer.NewListFrom(anys...))
}

// StrDict builds an Any-wrapped Dict from alternating key/value string
// pairs, failing the calling test via the returned error rather than
// panicking.
func StrDict(pairs ...string) (rtvalue.Any, error) {
	d := rtcontainer.NewDict()
	for i := 0; i+1 < len(pairs); i += 2 {
		if err := d.Insert(rtvalue.NewRawStr(pairs[i]).ToOwned(), rtvalue.NewRawStr(pairs[i+1]).ToOwned()); err != nil {
			return rtvalue.Any{}, err
		}
	}
	return rtvalue.NewObject(d), nil
}

// SmallTensor builds a 1-D float32 tensor of the given values, owned
// internally (no DLPack manager context).
func SmallTensor(vs ...float32) *rtcontainer.Tensor {
	data := make([]byte, len(vs)*4)
	for i, v := range vs {
		bits := math.Float32bits(v)
		data[i*4+0] = byte(bits)
		data[i*4+1] = byte(bits >> 8)
		data[i*4+2] = byte(bits >> 16)
		data[i*4+3] = byte(bits >> 24)
	}
	dtype := rtvalue.DataType{Code: rtvalue.DTypeCodeFloat, Bits: 32, Lanes: 1}
	return rtcontainer.NewTensor([]int64{int64(len(vs))}, dtype, data)
}
