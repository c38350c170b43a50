package rtstruct

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"purple_go/pkg/rtcontainer"
	"purple_go/pkg/rtregistry"
	"purple_go/pkg/rtvalue"
)

// Built-in type_keys entries. int/Device/dtype name the pseudo-types
// the original runtime's TypeTraits<T>::type_str constants use for
// these scalar kinds; List/Dict/Tensor name this runtime's three
// built-in container object kinds.
const (
	typeKeyInt    = "int"
	typeKeyDevice = "Device"
	typeKeyDType  = "dtype"
	typeKeyList   = "object.List"
	typeKeyDict   = "object.Dict"
	typeKeyTensor = "object.Tensor"
)

// Envelope is the top-level serialized form: values holds one entry
// per emitted object plus the root, in dependency order, so every
// reference into it is a backward integer index and the root is
// always values[len(values)-1]; type_keys and tensors are the side
// tables values entries may index into. Matches spec.md §4.5.4/§6 and
// original_source/cpp/structure.cc's Emitter/on_visit output exactly:
// an object entry is a JSON array whose first element is an index
// into type_keys, an int/Device/dtype scalar is a two-element typed
// wrapper array, and every other scalar (bool/float/null) and every
// string appears as a literal JSON value.
type Envelope struct {
	Values   []json.RawMessage `json:"values"`
	TypeKeys []string          `json:"type_keys"`
	Tensors  []string          `json:"tensors,omitempty"`
}

type serializer struct {
	reg        *rtregistry.Registry
	values     []json.RawMessage
	typeKeys   []string
	typeKeyIdx map[string]int
	tensors    []string
	tensorIdx  map[string]int
	seen       map[rtvalue.Heaper]int
}

func newSerializer(reg *rtregistry.Registry) *serializer {
	return &serializer{
		reg:        reg,
		typeKeyIdx: map[string]int{},
		tensorIdx:  map[string]int{},
		seen:       map[rtvalue.Heaper]int{},
	}
}

// Serialize encodes a as a JSON envelope of the form
// {values, type_keys, tensors}. Shared substructure is emitted once
// and every later occurrence references it by backward index.
func Serialize(reg *rtregistry.Registry, a rtvalue.Any) (string, error) {
	s := newSerializer(reg)
	if err := s.emitTop(a); err != nil {
		return "", err
	}
	env := Envelope{Values: s.values, TypeKeys: s.typeKeys, Tensors: s.tensors}
	buf, err := json.Marshal(env)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

func mustRaw(v any) json.RawMessage {
	buf, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("rtstruct: marshal of internal literal failed: %v", err))
	}
	return json.RawMessage(buf)
}

// floatLiteral renders f guaranteed to contain a '.' or exponent
// marker, so a decoder can tell a bare float literal apart from a bare
// integer back-reference index by inspection alone.
func floatLiteral(f float64) json.RawMessage {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return json.RawMessage(s)
}

func deviceLiteral(d rtvalue.Device) string {
	return fmt.Sprintf("%d:%d", int32(d.Type), d.ID)
}

func parseDeviceLiteral(s string) (rtvalue.Device, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return rtvalue.Device{}, fmt.Errorf("deserialize: malformed device literal %q", s)
	}
	typ, err := strconv.ParseInt(parts[0], 10, 32)
	if err != nil {
		return rtvalue.Device{}, fmt.Errorf("deserialize: malformed device literal %q: %w", s, err)
	}
	id, err := strconv.ParseInt(parts[1], 10, 32)
	if err != nil {
		return rtvalue.Device{}, fmt.Errorf("deserialize: malformed device literal %q: %w", s, err)
	}
	return rtvalue.Device{Type: rtvalue.DeviceType(typ), ID: int32(id)}, nil
}

func dtypeLiteral(d rtvalue.DataType) string {
	return fmt.Sprintf("%d:%d:%d", d.Code, d.Bits, d.Lanes)
}

func parseDTypeLiteral(s string) (rtvalue.DataType, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return rtvalue.DataType{}, fmt.Errorf("deserialize: malformed dtype literal %q", s)
	}
	code, err1 := strconv.ParseUint(parts[0], 10, 8)
	bits, err2 := strconv.ParseUint(parts[1], 10, 8)
	lanes, err3 := strconv.ParseUint(parts[2], 10, 16)
	if err1 != nil || err2 != nil || err3 != nil {
		return rtvalue.DataType{}, fmt.Errorf("deserialize: malformed dtype literal %q", s)
	}
	return rtvalue.DataType{Code: uint8(code), Bits: uint8(bits), Lanes: uint16(lanes)}, nil
}

func (s *serializer) push(raw json.RawMessage) int {
	s.values = append(s.values, raw)
	return len(s.values) - 1
}

func (s *serializer) typeKeyIndex(key string) int {
	if i, ok := s.typeKeyIdx[key]; ok {
		return i
	}
	i := len(s.typeKeys)
	s.typeKeys = append(s.typeKeys, key)
	s.typeKeyIdx[key] = i
	return i
}

func (s *serializer) tensorIndex(b64 string) int {
	if i, ok := s.tensorIdx[b64]; ok {
		return i
	}
	i := len(s.tensors)
	s.tensors = append(s.tensors, b64)
	s.tensorIdx[b64] = i
	return i
}

// scalarLiteral renders a non-object, non-string value as a field/
// values literal: None->null, Bool->true/false, Float->a bare decimal
// number, Int/Device/DataType -> a [type_key_index, literal] wrapper.
func (s *serializer) scalarLiteral(a rtvalue.Any) (json.RawMessage, error) {
	switch a.Tag() {
	case rtvalue.TypeIndexNone:
		return mustRaw(nil), nil
	case rtvalue.TypeIndexBool:
		v, _ := a.AsBool()
		return mustRaw(v), nil
	case rtvalue.TypeIndexFloat:
		v, _ := a.AsFloat()
		return floatLiteral(v), nil
	case rtvalue.TypeIndexInt:
		v, _ := a.AsInt()
		return mustRaw([]any{s.typeKeyIndex(typeKeyInt), v}), nil
	case rtvalue.TypeIndexDevice:
		v, _ := a.AsDevice()
		return mustRaw([]any{s.typeKeyIndex(typeKeyDevice), deviceLiteral(v)}), nil
	case rtvalue.TypeIndexDataType:
		v, _ := a.AsDataType()
		return mustRaw([]any{s.typeKeyIndex(typeKeyDType), dtypeLiteral(v)}), nil
	case rtvalue.TypeIndexRawStr:
		v, _ := a.AsStr()
		return mustRaw(v), nil
	}
	return nil, fmt.Errorf("serialize: unsupported tag %d", a.Tag())
}

// emitTop serializes the root value. A root Str is pushed as its own
// values entry (so values.last still names the root); every other
// root kind delegates to emitObject or is pushed as a bare literal.
func (s *serializer) emitTop(a rtvalue.Any) error {
	if a.Tag() == rtvalue.TypeIndexObject {
		obj, err := a.AsObject()
		if err == nil {
			if str, ok := obj.(*rtcontainer.Str); ok {
				s.push(mustRaw(str.String()))
				return nil
			}
		}
		_, err = s.emitObject(a)
		return err
	}
	lit, err := s.scalarLiteral(a)
	if err != nil {
		return err
	}
	s.push(lit)
	return nil
}

// emitField serializes a value occurring inside a container/reflected
// object's field list. Strings are always inlined as literal JSON
// strings (never deduplicated through a values slot, per spec.md's
// own worked example); objects are pushed once and referenced by a
// bare backward integer index thereafter.
func (s *serializer) emitField(a rtvalue.Any) (json.RawMessage, error) {
	if a.Tag() == rtvalue.TypeIndexObject {
		obj, err := a.AsObject()
		if err == nil {
			if str, ok := obj.(*rtcontainer.Str); ok {
				return mustRaw(str.String()), nil
			}
		}
		idx, err := s.emitObject(a)
		if err != nil {
			return nil, err
		}
		return mustRaw(idx), nil
	}
	return s.scalarLiteral(a)
}

func (s *serializer) emitObject(a rtvalue.Any) (int, error) {
	obj, err := a.AsObject()
	if err != nil {
		return 0, err
	}
	if idx, ok := s.seen[obj]; ok {
		return idx, nil
	}

	switch v := obj.(type) {
	case *rtcontainer.List:
		parts := make([]json.RawMessage, 0, v.Len()+1)
		parts = append(parts, mustRaw(s.typeKeyIndex(typeKeyList)))
		var stepErr error
		v.Each(func(_ int, elem rtvalue.Any) bool {
			f, err := s.emitField(elem)
			if err != nil {
				stepErr = err
				return false
			}
			parts = append(parts, f)
			return true
		})
		if stepErr != nil {
			return 0, stepErr
		}
		idx := s.push(mustRaw(parts))
		s.seen[obj] = idx
		return idx, nil
	case *rtcontainer.Dict:
		parts := make([]json.RawMessage, 0, 2*v.Len()+1)
		parts = append(parts, mustRaw(s.typeKeyIndex(typeKeyDict)))
		var stepErr error
		v.Each(func(k, val rtvalue.Any) bool {
			kf, err := s.emitField(k)
			if err != nil {
				stepErr = err
				return false
			}
			vf, err := s.emitField(val)
			if err != nil {
				stepErr = err
				return false
			}
			parts = append(parts, kf, vf)
			return true
		})
		if stepErr != nil {
			return 0, stepErr
		}
		idx := s.push(mustRaw(parts))
		s.seen[obj] = idx
		return idx, nil
	case *rtcontainer.Tensor:
		buf, err := v.ToBytes()
		if err != nil {
			return 0, err
		}
		ti := s.tensorIndex(base64.StdEncoding.EncodeToString(buf))
		idx := s.push(mustRaw([]any{s.typeKeyIndex(typeKeyTensor), ti}))
		s.seen[obj] = idx
		return idx, nil
	case Reflected:
		tki := s.typeKeyIndex(v.TypeKey())
		parts := make([]json.RawMessage, 0, len(v.FieldValues())+1)
		parts = append(parts, mustRaw(tki))
		for _, f := range v.FieldValues() {
			ff, err := s.emitField(f)
			if err != nil {
				return 0, err
			}
			parts = append(parts, ff)
		}
		idx := s.push(mustRaw(parts))
		s.seen[obj] = idx
		return idx, nil
	case *rtcontainer.Func, *rtcontainer.Error:
		return 0, fmt.Errorf("serialize: unserializable type %T", obj)
	default:
		return 0, fmt.Errorf("serialize: cannot serialize opaque object of type %T", obj)
	}
}

// ReflectedFactory constructs a zero-value Reflected instance for a
// registered type key, used by Deserialize to reconstruct object nodes
// via Init. Callers register one factory per serializable type.
type ReflectedFactory func() Reflected

type deserializer struct {
	env       *Envelope
	factories map[string]ReflectedFactory
	built     map[int]rtvalue.Any
}

// Deserialize reconstructs an Any from a JSON envelope previously
// produced by Serialize. factories maps each type_key that may appear
// in the envelope to a constructor for that Reflected type.
func Deserialize(env string, factories map[string]ReflectedFactory) (rtvalue.Any, error) {
	var e Envelope
	if err := json.Unmarshal([]byte(env), &e); err != nil {
		return rtvalue.Any{}, err
	}
	if len(e.Values) == 0 {
		return rtvalue.Any{}, fmt.Errorf("deserialize: empty values array")
	}
	d := &deserializer{env: &e, factories: factories, built: map[int]rtvalue.Any{}}
	return d.build(len(e.Values) - 1)
}

func (d *deserializer) typeKey(idx int) (string, error) {
	if idx < 0 || idx >= len(d.env.TypeKeys) {
		return "", fmt.Errorf("deserialize: type_key index %d out of range", idx)
	}
	return d.env.TypeKeys[idx], nil
}

func looksLikeFloatLiteral(raw []byte) bool {
	return bytes.ContainsAny(raw, ".eE")
}

// build resolves values[idx], memoizing so that two backward
// references to the same index share the one materialized object.
func (d *deserializer) build(idx int) (rtvalue.Any, error) {
	if v, ok := d.built[idx]; ok {
		return v.Clone(), nil
	}
	if idx < 0 || idx >= len(d.env.Values) {
		return rtvalue.Any{}, fmt.Errorf("deserialize: value index %d out of range", idx)
	}
	raw := bytes.TrimSpace(d.env.Values[idx])

	var out rtvalue.Any
	var err error
	switch {
	case len(raw) > 0 && raw[0] == '"':
		var str string
		if err = json.Unmarshal(raw, &str); err != nil {
			return rtvalue.Any{}, err
		}
		out = rtvalue.NewRawStr(str).ToOwned()
	case len(raw) > 0 && raw[0] == '[':
		var parts []json.RawMessage
		if err = json.Unmarshal(raw, &parts); err != nil {
			return rtvalue.Any{}, err
		}
		if len(parts) == 0 {
			return rtvalue.Any{}, fmt.Errorf("deserialize: empty object array at index %d", idx)
		}
		var typeIdx int
		if err = json.Unmarshal(parts[0], &typeIdx); err != nil {
			return rtvalue.Any{}, err
		}
		key, kerr := d.typeKey(typeIdx)
		if kerr != nil {
			return rtvalue.Any{}, kerr
		}
		out, err = d.buildObject(key, parts[1:], idx)
		if err != nil {
			return rtvalue.Any{}, err
		}
	case bytes.Equal(raw, []byte("null")):
		out = rtvalue.None
	case bytes.Equal(raw, []byte("true")):
		out = rtvalue.NewBool(true)
	case bytes.Equal(raw, []byte("false")):
		out = rtvalue.NewBool(false)
	default:
		var f float64
		if err = json.Unmarshal(raw, &f); err != nil {
			return rtvalue.Any{}, fmt.Errorf("deserialize: malformed values entry at index %d: %w", idx, err)
		}
		out = rtvalue.NewFloat(f)
	}

	d.built[idx] = out
	return out.Clone(), nil
}

// buildObject interprets a values-table array entry (type_key plus
// trailing fields) as either a typed scalar wrapper (int/Device/dtype)
// or a container/reflected object.
func (d *deserializer) buildObject(key string, fields []json.RawMessage, currentIdx int) (rtvalue.Any, error) {
	switch key {
	case typeKeyInt:
		if len(fields) != 1 {
			return rtvalue.Any{}, fmt.Errorf("deserialize: int wrapper expects 1 field, got %d", len(fields))
		}
		var v int64
		if err := json.Unmarshal(fields[0], &v); err != nil {
			return rtvalue.Any{}, err
		}
		return rtvalue.NewInt(v), nil
	case typeKeyDevice:
		if len(fields) != 1 {
			return rtvalue.Any{}, fmt.Errorf("deserialize: device wrapper expects 1 field, got %d", len(fields))
		}
		var s string
		if err := json.Unmarshal(fields[0], &s); err != nil {
			return rtvalue.Any{}, err
		}
		dev, err := parseDeviceLiteral(s)
		if err != nil {
			return rtvalue.Any{}, err
		}
		return rtvalue.NewDevice(dev), nil
	case typeKeyDType:
		if len(fields) != 1 {
			return rtvalue.Any{}, fmt.Errorf("deserialize: dtype wrapper expects 1 field, got %d", len(fields))
		}
		var s string
		if err := json.Unmarshal(fields[0], &s); err != nil {
			return rtvalue.Any{}, err
		}
		dt, err := parseDTypeLiteral(s)
		if err != nil {
			return rtvalue.Any{}, err
		}
		return rtvalue.NewDataType(dt), nil
	case typeKeyList:
		l := rtcontainer.NewList()
		for _, f := range fields {
			elem, err := d.buildFieldValue(f, currentIdx)
			if err != nil {
				return rtvalue.Any{}, err
			}
			l.PushBack(elem)
			elem.Release()
		}
		return rtvalue.NewObject(l), nil
	case typeKeyDict:
		if len(fields)%2 != 0 {
			return rtvalue.Any{}, fmt.Errorf("deserialize: dict field list has odd length %d", len(fields))
		}
		dict := rtcontainer.NewDict()
		for i := 0; i+1 < len(fields); i += 2 {
			k, err := d.buildFieldValue(fields[i], currentIdx)
			if err != nil {
				return rtvalue.Any{}, err
			}
			v, err := d.buildFieldValue(fields[i+1], currentIdx)
			if err != nil {
				return rtvalue.Any{}, err
			}
			_ = dict.Insert(k, v)
			k.Release()
			v.Release()
		}
		return rtvalue.NewObject(dict), nil
	case typeKeyTensor:
		if len(fields) != 1 {
			return rtvalue.Any{}, fmt.Errorf("deserialize: tensor wrapper expects 1 field, got %d", len(fields))
		}
		var ti int
		if err := json.Unmarshal(fields[0], &ti); err != nil {
			return rtvalue.Any{}, err
		}
		if ti < 0 || ti >= len(d.env.Tensors) {
			return rtvalue.Any{}, fmt.Errorf("deserialize: tensor index %d out of range", ti)
		}
		buf, err := base64.StdEncoding.DecodeString(d.env.Tensors[ti])
		if err != nil {
			return rtvalue.Any{}, err
		}
		t, err := rtcontainer.FromBytes(buf)
		if err != nil {
			return rtvalue.Any{}, err
		}
		return rtvalue.NewObject(t), nil
	default:
		factory, ok := d.factories[key]
		if !ok {
			return rtvalue.Any{}, fmt.Errorf("deserialize: no factory registered for type key %q", key)
		}
		vals := make([]rtvalue.Any, len(fields))
		for i, f := range fields {
			v, err := d.buildFieldValue(f, currentIdx)
			if err != nil {
				return rtvalue.Any{}, err
			}
			vals[i] = v
		}
		zero := factory()
		obj, err := zero.Init(vals)
		for _, v := range vals {
			v.Release()
		}
		if err != nil {
			return rtvalue.Any{}, err
		}
		return rtvalue.NewObject(obj), nil
	}
}

// buildFieldValue interprets one element of a container/reflected
// object's field list: an inline string or typed-literal wrapper
// materializes directly; a bare integer is a backward reference that
// must resolve to an already-emitted (lower) values index.
func (d *deserializer) buildFieldValue(raw json.RawMessage, currentIdx int) (rtvalue.Any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return rtvalue.Any{}, fmt.Errorf("deserialize: empty field value")
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return rtvalue.Any{}, err
		}
		return rtvalue.NewRawStr(s).ToOwned(), nil
	case '[':
		var parts []json.RawMessage
		if err := json.Unmarshal(trimmed, &parts); err != nil {
			return rtvalue.Any{}, err
		}
		if len(parts) == 0 {
			return rtvalue.Any{}, fmt.Errorf("deserialize: empty typed-literal wrapper")
		}
		var typeIdx int
		if err := json.Unmarshal(parts[0], &typeIdx); err != nil {
			return rtvalue.Any{}, err
		}
		key, err := d.typeKey(typeIdx)
		if err != nil {
			return rtvalue.Any{}, err
		}
		switch key {
		case typeKeyInt, typeKeyDevice, typeKeyDType:
			return d.buildObject(key, parts[1:], currentIdx)
		default:
			return rtvalue.Any{}, fmt.Errorf("deserialize: %q cannot appear as an inline field literal", key)
		}
	default:
		switch {
		case bytes.Equal(trimmed, []byte("null")):
			return rtvalue.None, nil
		case bytes.Equal(trimmed, []byte("true")):
			return rtvalue.NewBool(true), nil
		case bytes.Equal(trimmed, []byte("false")):
			return rtvalue.NewBool(false), nil
		case looksLikeFloatLiteral(trimmed):
			var f float64
			if err := json.Unmarshal(trimmed, &f); err != nil {
				return rtvalue.Any{}, err
			}
			return rtvalue.NewFloat(f), nil
		default:
			var refIdx int
			if err := json.Unmarshal(trimmed, &refIdx); err != nil {
				return rtvalue.Any{}, err
			}
			if refIdx >= currentIdx {
				return rtvalue.Any{}, fmt.Errorf("deserialize: forward reference to index %d from index %d", refIdx, currentIdx)
			}
			return d.build(refIdx)
		}
	}
}
