package rtcontainer

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"purple_go/pkg/rtobject"
	"purple_go/pkg/rtvalue"
)

// tensorMagic is the little-endian magic number prefixing every
// encoded tensor, per spec.md §6.
const tensorMagic uint64 = 0xDD5E40F096B4A13F

// Tensor wraps a DLPack-shaped tensor: shape/strides plus a data
// buffer. Only CPU tensors with no explicit strides are supported by
// the byte codec, matching spec.md §4.4.6.
type Tensor struct {
	hdr    rtobject.Header
	Device rtvalue.Device
	DType  rtvalue.DataType
	Shape  []int64
	Data   []byte

	// managerCtx/deleter represent externally-owned storage adopted via
	// DLPack; release is guaranteed on Close.
	managerCtx any
	release    func(any)
}

func tensorDeleter(*rtobject.Header) {}

// NewTensor allocates an internally-owned tensor; shape and data are
// taken by reference (not copied).
func NewTensor(shape []int64, dtype rtvalue.DataType, data []byte) *Tensor {
	t := &Tensor{DType: dtype, Shape: shape, Data: data, Device: rtvalue.Device{Type: rtvalue.DeviceCPU}}
	t.hdr = rtobject.NewHeader(int32(rtvalue.TypeIndexTensor), tensorDeleter)
	return t
}

// AdoptExternal wraps externally managed memory, recording the
// manager context and release callback so Close guarantees it runs.
func AdoptExternal(shape []int64, dtype rtvalue.DataType, data []byte, managerCtx any, release func(any)) *Tensor {
	t := NewTensor(shape, dtype, data)
	t.managerCtx = managerCtx
	t.release = release
	return t
}

// Close invokes the manager-context release callback, if any. Safe to
// call on internally-owned tensors (no-op).
func (t *Tensor) Close() {
	if t.release != nil {
		t.release(t.managerCtx)
		t.release = nil
	}
}

// Header implements rtobject.Heaper.
func (t *Tensor) Header() *rtobject.Header { return &t.hdr }

func (t *Tensor) numel() int64 {
	n := int64(1)
	for _, s := range t.Shape {
		n *= s
	}
	return n
}

func elemSize(dt rtvalue.DataType) int {
	return int(dt.Bits) / 8 * int(dt.Lanes)
}

// ToBytes encodes the tensor per spec.md §6's little-endian layout:
// magic(8) | ndim(4) | dtype(4) | shape(8*ndim) | raw data.
func (t *Tensor) ToBytes() ([]byte, error) {
	if t.Device.Type != rtvalue.DeviceCPU {
		return nil, NewError(KindValueError, "tensor byte codec supports CPU tensors only")
	}
	ndim := len(t.Shape)
	size := elemSize(t.DType)
	want := int(t.numel()) * size
	if len(t.Data) != want {
		return nil, NewError(KindValueError, fmt.Sprintf("tensor data length %d does not match shape*dtype %d", len(t.Data), want))
	}

	buf := make([]byte, 8+4+4+8*ndim+len(t.Data))
	binary.LittleEndian.PutUint64(buf[0:8], tensorMagic)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(ndim))
	buf[12] = t.DType.Code
	buf[13] = t.DType.Bits
	binary.LittleEndian.PutUint16(buf[14:16], t.DType.Lanes)
	off := 16
	for _, s := range t.Shape {
		binary.LittleEndian.PutUint64(buf[off:off+8], uint64(s))
		off += 8
	}
	copy(buf[off:], t.Data)
	if isBigEndianHost() {
		swapElements(buf[off:], size)
	}
	return buf, nil
}

// FromBytes decodes a tensor previously produced by ToBytes. On a
// big-endian host every numeric element is byte-swapped, per spec.md
// §6 ("Big-endian hosts byte-swap each numeric element").
func FromBytes(buf []byte) (*Tensor, error) {
	if len(buf) < 16 {
		return nil, NewError(KindValueError, "tensor byte buffer too short")
	}
	magic := binary.LittleEndian.Uint64(buf[0:8])
	if magic != tensorMagic {
		return nil, NewError(KindValueError, fmt.Sprintf("bad tensor magic %x", magic))
	}
	ndim := int(binary.LittleEndian.Uint32(buf[8:12]))
	dt := rtvalue.DataType{Code: buf[12], Bits: buf[13], Lanes: binary.LittleEndian.Uint16(buf[14:16])}
	off := 16
	if len(buf) < off+8*ndim {
		return nil, NewError(KindValueError, "tensor byte buffer truncated (shape)")
	}
	shape := make([]int64, ndim)
	for i := 0; i < ndim; i++ {
		shape[i] = int64(binary.LittleEndian.Uint64(buf[off : off+8]))
		off += 8
	}
	data := append([]byte{}, buf[off:]...)
	if isBigEndianHost() {
		swapElements(data, elemSize(dt))
	}
	return NewTensor(shape, dt, data), nil
}

// ToBase64 layers standard base64 over the byte form.
func (t *Tensor) ToBase64() (string, error) {
	b, err := t.ToBytes()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// FromBase64 decodes a base64 string produced by ToBase64.
func FromBase64(s string) (*Tensor, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, NewError(KindValueError, fmt.Sprintf("invalid base64 tensor payload: %v", err))
	}
	return FromBytes(b)
}

// Equal compares shape, dtype, device, and raw bytes, per spec.md
// §4.5.1's tensor structural-equality rule.
func (t *Tensor) Equal(other *Tensor) bool {
	if other == nil {
		return false
	}
	if t.Device != other.Device || t.DType != other.DType {
		return false
	}
	if len(t.Shape) != len(other.Shape) {
		return false
	}
	for i := range t.Shape {
		if t.Shape[i] != other.Shape[i] {
			return false
		}
	}
	if len(t.Data) != len(other.Data) {
		return false
	}
	for i := range t.Data {
		if t.Data[i] != other.Data[i] {
			return false
		}
	}
	return true
}

// isBigEndianHost detects host byte order with encoding/binary's
// NativeEndian rather than golang.org/x/sys/cpu, which exposes CPU
// feature flags but no endianness or byte-swap helper.
func isBigEndianHost() bool {
	var x uint16 = 1
	b := make([]byte, 2)
	binary.NativeEndian.PutUint16(b, x)
	return b[0] != 1
}

func swapElements(data []byte, size int) {
	if size <= 1 {
		return
	}
	for off := 0; off+size <= len(data); off += size {
		reverseBytes(data[off : off+size])
	}
}

func reverseBytes(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
