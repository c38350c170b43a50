package rtstruct

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"purple_go/pkg/rtcontainer"
	"purple_go/pkg/rtvalue"
)

func TestSerializeMatchesWorkedExample(t *testing.T) {
	l := rtcontainer.NewListFrom(
		rtvalue.NewInt(1),
		rtvalue.NewRawStr("hello").ToOwned(),
		rtvalue.NewFloat(2.5),
	)
	a := rtvalue.NewObject(l)

	env, err := Serialize(nil, a)
	require.NoError(t, err)

	var e Envelope
	require.NoError(t, json.Unmarshal([]byte(env), &e))
	require.Len(t, e.Values, 1)

	var root []json.RawMessage
	require.NoError(t, json.Unmarshal(e.Values[len(e.Values)-1], &root))
	require.JSONEq(t, `0`, string(root[0]))
	require.JSONEq(t, `[1, 1]`, string(root[1]))
	require.JSONEq(t, `"hello"`, string(root[2]))
	require.JSONEq(t, `2.5`, string(root[3]))
}

func TestSerializeDeserializeRoundTripsPrimitives(t *testing.T) {
	l := rtcontainer.NewListFrom(
		rtvalue.NewInt(1),
		rtvalue.NewFloat(2.5),
		rtvalue.NewBool(true),
		rtvalue.NewRawStr("hi").ToOwned(),
		rtvalue.None,
	)
	a := rtvalue.NewObject(l)

	env, err := Serialize(nil, a)
	require.NoError(t, err)

	back, err := Deserialize(env, nil)
	require.NoError(t, err)

	ok, reason := Equal(nil, a, back, false)
	require.True(t, ok, "round trip changed value: %v", reason)
}

func TestSerializeSharesSubstructureByIndex(t *testing.T) {
	shared := rtcontainer.NewListFrom(rtvalue.NewInt(7))
	sharedAny := rtvalue.NewObject(shared)
	outer := rtcontainer.NewListFrom(sharedAny, sharedAny)
	outerAny := rtvalue.NewObject(outer)

	env, err := Serialize(nil, outerAny)
	require.NoError(t, err)

	var e Envelope
	require.NoError(t, json.Unmarshal([]byte(env), &e))

	var root []json.RawMessage
	require.NoError(t, json.Unmarshal(e.Values[len(e.Values)-1], &root))
	require.Len(t, root, 3) // type_key index + two field slots
	require.JSONEq(t, string(root[1]), string(root[2]), "expected both list slots to reference the same backward index")

	back, err := Deserialize(env, nil)
	require.NoError(t, err)
	ok, reason := Equal(nil, outerAny, back, false)
	require.True(t, ok, "round trip changed value: %v", reason)
}

func TestSerializeInlinesStringsWithoutBackReference(t *testing.T) {
	a := rtvalue.NewRawStr("hello").ToOwned()

	env, err := Serialize(nil, a)
	require.NoError(t, err)

	var e Envelope
	require.NoError(t, json.Unmarshal([]byte(env), &e))
	require.Len(t, e.Values, 1)
	require.JSONEq(t, `"hello"`, string(e.Values[0]))
}

func TestSerializeTensorRoundTrip(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	dt := rtvalue.DataType{Code: rtvalue.DTypeCodeUInt, Bits: 8, Lanes: 1}
	tensor := rtcontainer.NewTensor([]int64{4}, dt, data)
	a := rtvalue.NewObject(tensor)

	env, err := Serialize(nil, a)
	require.NoError(t, err)
	back, err := Deserialize(env, nil)
	require.NoError(t, err)

	ok, reason := Equal(nil, a, back, false)
	require.True(t, ok, "tensor round trip mismatch: %v", reason)
}

func TestSerializeDeviceAndDataTypeRoundTrip(t *testing.T) {
	l := rtcontainer.NewListFrom(
		rtvalue.NewDevice(rtvalue.Device{Type: rtvalue.DeviceGPU, ID: 3}),
		rtvalue.NewDataType(rtvalue.DataType{Code: rtvalue.DTypeCodeFloat, Bits: 32, Lanes: 1}),
	)
	a := rtvalue.NewObject(l)

	env, err := Serialize(nil, a)
	require.NoError(t, err)
	back, err := Deserialize(env, nil)
	require.NoError(t, err)

	ok, reason := Equal(nil, a, back, false)
	require.True(t, ok, "device/dtype round trip mismatch: %v", reason)
}

func TestDeserializeRejectsForwardReference(t *testing.T) {
	env := `{"values": [[0, 1]], "type_keys": ["object.List"]}`
	_, err := Deserialize(env, nil)
	require.Error(t, err)
}

func TestSerializeRejectsErrorObject(t *testing.T) {
	e := rtcontainer.NewError(rtcontainer.KindValueError, "boom")
	a := rtvalue.NewObject(e)

	_, err := Serialize(nil, a)
	require.Error(t, err)
}
