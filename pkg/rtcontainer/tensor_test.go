package rtcontainer

import (
	"encoding/binary"
	"math"
	"testing"

	"purple_go/pkg/rtvalue"
)

func float32Tensor(vals []float32, shape []int64) *Tensor {
	data := make([]byte, len(vals)*4)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}
	dt := rtvalue.DataType{Code: rtvalue.DTypeCodeFloat, Bits: 32, Lanes: 1}
	return NewTensor(shape, dt, data)
}

func TestTensorCodecRoundTrip(t *testing.T) {
	tensor := float32Tensor([]float32{1, 2, 3, 4, 5, 6}, []int64{2, 3})

	buf, err := tensor.ToBytes()
	if err != nil {
		t.Fatal(err)
	}
	if len(buf) != 56 {
		t.Fatalf("expected 56 bytes (8+4+4+16+24), got %d", len(buf))
	}
	magic := binary.LittleEndian.Uint64(buf[0:8])
	if magic != tensorMagic {
		t.Fatalf("bad magic: %x", magic)
	}

	decoded, err := FromBytes(buf)
	if err != nil {
		t.Fatal(err)
	}
	if !tensor.Equal(decoded) {
		t.Fatal("round-tripped tensor not equal to original")
	}
}

func TestTensorBase64RoundTrip(t *testing.T) {
	tensor := float32Tensor([]float32{1, 2, 3}, []int64{3})
	s, err := tensor.ToBase64()
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := FromBase64(s)
	if err != nil {
		t.Fatal(err)
	}
	if !tensor.Equal(decoded) {
		t.Fatal("base64 round trip mismatch")
	}
}
