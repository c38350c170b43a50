// Package rtvalue implements Any and AnyView, the tagged value types
// that carry any supported runtime value — primitive scalars, opaque
// pointers, strings, device/dtype descriptors, and reference-counted
// heap objects — across API and ABI boundaries.
package rtvalue

// TypeIndex identifies a runtime type. Indices below 1000 are reserved
// POD kinds; 1000-1099 are core dynamic container types; 1100-1199 are
// type-descriptor objects; 100000 and above are user-registered
// dynamic types.
type TypeIndex int32

const (
	TypeIndexNone     TypeIndex = 0
	TypeIndexBool     TypeIndex = 1
	TypeIndexInt      TypeIndex = 2
	TypeIndexFloat    TypeIndex = 3
	TypeIndexPtr      TypeIndex = 4
	TypeIndexDataType TypeIndex = 5
	TypeIndexDevice   TypeIndex = 6
	TypeIndexRawStr   TypeIndex = 7
)

// Core dynamic type indices, 1000-1099.
const (
	TypeIndexObject TypeIndex = 1000 + iota
	TypeIndexList
	TypeIndexDict
	TypeIndexError
	TypeIndexFunc
	TypeIndexStr
	TypeIndexTensor
	TypeIndexOpaque
)

// TypeIndexDynamicStart is the first index available to user-registered
// dynamic types.
const TypeIndexDynamicStart TypeIndex = 100000

// IsPOD reports whether idx names one of the built-in scalar kinds
// (type indices below TypeIndexObject, excluding None).
func (idx TypeIndex) IsPOD() bool {
	return idx > TypeIndexNone && idx < TypeIndexObject
}

// IsDynamic reports whether idx names a heap-allocated object type,
// either a core container type or a user-registered type.
func (idx TypeIndex) IsDynamic() bool {
	return idx >= TypeIndexObject
}

// Device identifies a (device_type, device_id) pair.
type Device struct {
	Type DeviceType
	ID   int32
}

// DeviceType enumerates the device kinds a Tensor may be allocated on.
type DeviceType int32

const (
	DeviceCPU DeviceType = 1
	DeviceGPU DeviceType = 2
)

// DataType describes a tensor element type as (code, bits, lanes),
// matching DLPack's dtype layout.
type DataType struct {
	Code  uint8
	Bits  uint8
	Lanes uint16
}

const (
	DTypeCodeInt   uint8 = 0
	DTypeCodeUInt  uint8 = 1
	DTypeCodeFloat uint8 = 2
	DTypeCodeBool  uint8 = 6
)
