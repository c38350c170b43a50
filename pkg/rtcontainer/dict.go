package rtcontainer

import (
	"math"

	"purple_go/pkg/rtobject"
	"purple_go/pkg/rtvalue"
)

// Dict is an open-addressed, coalesced-chaining hash table: each
// bucket's collisions are stored in-place in the same backing array,
// threaded by an explicit "next" index rather than re-derived from a
// probe-offset table, which is the one deliberate simplification from
// spec.md §4.4.3's one-metadata-byte-per-slot design (see DESIGN.md).
// Quadratic (triangular-number) probing is still used to find the free
// slot a new chain link moves into, which is what guarantees every slot
// in a power-of-two-sized table is reachable.
type Dict struct {
	hdr      rtobject.Header
	meta     []dictMeta
	keys     []rtvalue.Any
	values   []rtvalue.Any
	next     []int32 // -1 terminates a chain
	size     int
	capacity int
}

type dictMeta uint8

const (
	metaEmpty dictMeta = iota
	metaHead
	metaLinked
)

const dictLoadFactorLimit = 0.99
const dictMinCapacity = 16

func dictDeleter(*rtobject.Header) {}

// NewDict constructs an empty dict with the minimum capacity.
func NewDict() *Dict {
	d := &Dict{}
	d.hdr = rtobject.NewHeader(int32(rtvalue.TypeIndexDict), dictDeleter)
	d.reset(dictMinCapacity)
	return d
}

// Header implements rtobject.Heaper.
func (d *Dict) Header() *rtobject.Header { return &d.hdr }

// Len returns the number of entries.
func (d *Dict) Len() int { return d.size }

func (d *Dict) reset(capacity int) {
	d.capacity = capacity
	d.meta = make([]dictMeta, capacity)
	d.keys = make([]rtvalue.Any, capacity)
	d.values = make([]rtvalue.Any, capacity)
	d.next = make([]int32, capacity)
	for i := range d.next {
		d.next[i] = -1
	}
	d.size = 0
}

// kHash dispatches on the key's runtime tag, matching spec.md §4.4.3.
func kHash(k rtvalue.Any) uint64 {
	switch k.Tag() {
	case rtvalue.TypeIndexBool:
		b, _ := k.AsBool()
		if b {
			return 1
		}
		return 0
	case rtvalue.TypeIndexInt:
		v, _ := k.AsInt()
		return uint64(v) * 1099511628211
	case rtvalue.TypeIndexFloat:
		f, _ := k.AsFloat()
		if math.IsNaN(f) {
			f = math.NaN()
		}
		return math.Float64bits(f) * 1099511628211
	case rtvalue.TypeIndexRawStr:
		s, _ := k.AsStr()
		return rtvalue.NewStr(s).Hash()
	case rtvalue.TypeIndexObject:
		if obj, err := k.AsObject(); err == nil {
			if str, ok := obj.(*Str); ok {
				return str.Hash()
			}
			if h := obj.Header(); h != nil {
				// No custom hash method registered: fall back to
				// object identity, matching "object keys hash via the
				// object's registered hash" with identity as the
				// default when none is registered.
				return uint64(h.TypeIndex())*31 + uint64(ptrOf(obj))
			}
		}
	}
	return 0
}

func kEqual(a, b rtvalue.Any) bool {
	if a.Tag() != b.Tag() {
		// Int/Float keys may still compare equal under widening rules
		// used elsewhere, but dict keys require exact tag+value match
		// per spec.md's "POD keys by structural equality" — structural
		// equality itself lives in rtstruct and is applied by callers
		// that need cross-kind key equality (e.g. deserialize).
		return false
	}
	switch a.Tag() {
	case rtvalue.TypeIndexBool:
		av, _ := a.AsBool()
		bv, _ := b.AsBool()
		return av == bv
	case rtvalue.TypeIndexInt:
		av, _ := a.AsInt()
		bv, _ := b.AsInt()
		return av == bv
	case rtvalue.TypeIndexFloat:
		av, _ := a.AsFloat()
		bv, _ := b.AsFloat()
		return av == bv || (math.IsNaN(av) && math.IsNaN(bv))
	case rtvalue.TypeIndexRawStr:
		av, _ := a.AsStr()
		bv, _ := b.AsStr()
		return av == bv
	case rtvalue.TypeIndexObject:
		ao, aerr := a.AsObject()
		bo, berr := b.AsObject()
		if aerr != nil || berr != nil {
			return aerr != nil && berr != nil
		}
		if as, ok := ao.(*Str); ok {
			if bs, ok := bo.(*Str); ok {
				return as.Equal(bs)
			}
			return false
		}
		return ptrOf(ao) == ptrOf(bo)
	}
	return false
}

// triangularProbe returns the i-th triangular-number probe offset,
// which visits every slot of a power-of-two-sized table exactly once
// as i ranges over [0, capacity).
func triangularProbe(i int) int { return (i*i + i) / 2 }

func (d *Dict) findFreeSlot(from int) int {
	for i := 1; i < d.capacity; i++ {
		idx := (from + triangularProbe(i)) & (d.capacity - 1)
		if d.meta[idx] == metaEmpty {
			return idx
		}
	}
	return -1
}

// Insert implements spec.md §4.4.3's three-case algorithm: Available,
// Hit, Relocate.
func (d *Dict) Insert(key, value rtvalue.Any) error {
	if float64(d.size+1) > dictLoadFactorLimit*float64(d.capacity) {
		d.grow()
	}
	return d.insertNoGrow(key, value)
}

func (d *Dict) insertNoGrow(key, value rtvalue.Any) error {
	head := int(kHash(key) & uint64(d.capacity-1))

	switch d.meta[head] {
	case metaEmpty:
		// Case 1: Available.
		d.keys[head] = key.Clone()
		d.values[head] = value.Clone()
		d.meta[head] = metaHead
		d.next[head] = -1
		d.size++
		return nil
	case metaHead:
		// Case 2: Hit — walk the existing chain.
		cur := head
		for {
			if kEqual(d.keys[cur], key) {
				d.values[cur].Release()
				d.values[cur] = value.Clone()
				return nil
			}
			if d.next[cur] == -1 {
				break
			}
			cur = int(d.next[cur])
		}
		free := d.findFreeSlot(head)
		if free == -1 {
			d.grow()
			return d.insertNoGrow(key, value)
		}
		d.keys[free] = key.Clone()
		d.values[free] = value.Clone()
		d.meta[free] = metaLinked
		d.next[free] = -1
		d.next[cur] = int32(free)
		d.size++
		return nil
	default:
		// Case 3: Relocate — head slot belongs to a different chain's
		// body. Find that chain's true head and predecessor, move the
		// foreign entry to a fresh free slot, and free up `head`.
		ownerHead, pred := d.findChainOwner(head)
		free := d.findFreeSlot(ownerHead)
		if free == -1 {
			d.grow()
			return d.insertNoGrow(key, value)
		}
		d.keys[free] = d.keys[head]
		d.values[free] = d.values[head]
		d.next[free] = d.next[head]
		d.meta[free] = metaLinked
		if pred == -1 {
			// ownerHead == head is impossible here since head is Normal
			// but not metaHead; pred always exists.
		} else {
			d.next[pred] = int32(free)
		}
		d.keys[head] = key.Clone()
		d.values[head] = value.Clone()
		d.meta[head] = metaHead
		d.next[head] = -1
		d.size++
		return nil
	}
}

// findChainOwner walks every head bucket to find which chain currently
// occupies slot; returns that chain's head index and the predecessor
// slot within the chain (-1 if slot is itself a head, which cannot
// happen for callers of this function).
func (d *Dict) findChainOwner(slot int) (ownerHead int, pred int) {
	for h := 0; h < d.capacity; h++ {
		if d.meta[h] != metaHead {
			continue
		}
		cur := h
		p := -1
		for cur != -1 {
			if cur == slot {
				return h, p
			}
			p = cur
			cur = int(d.next[cur])
		}
	}
	return -1, -1
}

func (d *Dict) grow() {
	oldKeys, oldValues, oldMeta := d.keys, d.values, d.meta
	oldCap := d.capacity
	d.reset(oldCap * 2)
	for i := 0; i < oldCap; i++ {
		if oldMeta[i] == metaEmpty {
			continue
		}
		_ = d.insertNoGrow(oldKeys[i], oldValues[i])
		oldKeys[i].Release()
		oldValues[i].Release()
	}
}

// Get looks up key, reporting whether it was found.
func (d *Dict) Get(key rtvalue.Any) (rtvalue.Any, bool) {
	head := int(kHash(key) & uint64(d.capacity-1))
	if d.meta[head] != metaHead {
		return rtvalue.Any{}, false
	}
	cur := head
	for cur != -1 {
		if kEqual(d.keys[cur], key) {
			return d.values[cur], true
		}
		cur = int(d.next[cur])
	}
	return rtvalue.Any{}, false
}

// Erase removes key if present, preserving the chain of any remaining
// entries in the same bucket: erasing a chain head moves the next chain
// member into the head slot; erasing any other member unlinks its slot.
func (d *Dict) Erase(key rtvalue.Any) bool {
	head := int(kHash(key) & uint64(d.capacity-1))
	if d.meta[head] != metaHead {
		return false
	}
	pred := -1
	cur := head
	for cur != -1 && !kEqual(d.keys[cur], key) {
		pred = cur
		cur = int(d.next[cur])
	}
	if cur == -1 {
		return false
	}
	d.keys[cur].Release()
	d.values[cur].Release()

	if cur == head {
		if nxt := d.next[head]; nxt != -1 {
			// Promote the next chain member into the head slot.
			d.keys[head] = d.keys[nxt]
			d.values[head] = d.values[nxt]
			d.next[head] = d.next[nxt]
			d.meta[nxt] = metaEmpty
			d.next[nxt] = -1
		} else {
			d.meta[head] = metaEmpty
		}
	} else {
		if pred != -1 {
			d.next[pred] = d.next[cur]
		}
		d.meta[cur] = metaEmpty
		d.next[cur] = -1
	}
	d.size--
	return true
}

// Each calls fn for every (key, value) pair in table order.
func (d *Dict) Each(fn func(k, v rtvalue.Any) bool) {
	for i := 0; i < d.capacity; i++ {
		if d.meta[i] == metaEmpty {
			continue
		}
		if !fn(d.keys[i], d.values[i]) {
			return
		}
	}
}

// Clear empties the dict, releasing every key/value reference.
func (d *Dict) Clear() {
	for i := 0; i < d.capacity; i++ {
		if d.meta[i] != metaEmpty {
			d.keys[i].Release()
			d.values[i].Release()
		}
	}
	d.reset(dictMinCapacity)
}
