// Package rtstruct implements the structural algorithms that visit
// registered-type object graphs: equality with binding-variable
// semantics, structural hashing, shallow/deep copy, and JSON-style
// serialization. Grounded on pkg/analysis/purity.go and
// pkg/analysis/shape.go's recursive-descent visitors over ast.Value,
// generalized from a fixed Lisp tag switch to the registry's
// reflected-field protocol.
package rtstruct

import "fmt"

// PathSegment is one breadcrumb of an ObjectPath, the diagnostic trail
// structural_equal attaches to failures (spec.md §4.5.1).
type PathSegment struct {
	Kind  SegmentKind
	Field string
	Index int
	Key   string
}

// SegmentKind distinguishes the four path segment shapes.
type SegmentKind int

const (
	SegRoot SegmentKind = iota
	SegField
	SegIndex
	SegKey
)

func (s PathSegment) String() string {
	switch s.Kind {
	case SegRoot:
		return "root"
	case SegField:
		return "." + s.Field
	case SegIndex:
		return fmt.Sprintf("[%d]", s.Index)
	case SegKey:
		return fmt.Sprintf("[%s]", s.Key)
	default:
		return "?"
	}
}

// ObjectPath is the full breadcrumb trail from the traversal's root to
// the point of failure.
type ObjectPath []PathSegment

func (p ObjectPath) String() string {
	s := "root"
	for _, seg := range p {
		if seg.Kind == SegRoot {
			continue
		}
		s += seg.String()
	}
	return s
}

func (p ObjectPath) withField(name string) ObjectPath {
	return append(append(ObjectPath{}, p...), PathSegment{Kind: SegField, Field: name})
}

func (p ObjectPath) withIndex(i int) ObjectPath {
	return append(append(ObjectPath{}, p...), PathSegment{Kind: SegIndex, Index: i})
}

func (p ObjectPath) withKey(k string) ObjectPath {
	return append(append(ObjectPath{}, p...), PathSegment{Kind: SegKey, Key: k})
}

// SEqualError is the recoverable error structural_equal raises
// internally, caught only at the top-level Equal/FailReason entry
// points, carrying the ObjectPath breadcrumb for diagnostics.
type SEqualError struct {
	Path    ObjectPath
	Message string
}

func (e *SEqualError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path.String(), e.Message)
}
