// Package oscquery reads OSCQuery parameter trees: it fetches a snapshot over
// HTTP, validates it into an immutable Node tree, locates nodes by path and
// coerces their values to numbers.
package oscquery

import "strings"

// Node is one node of a tree snapshot. Nodes are built by Parse and never
// modified afterwards.
type Node struct {
	Path     string
	Value    Value
	Children []Child
}

// Child is a keyed child node. Children keep the order of the document.
type Child struct {
	Key  string
	Node *Node
}

// Child returns the child stored under key, or nil.
func (n *Node) Child(key string) *Node {
	for _, c := range n.Children {
		if c.Key == key {
			return c.Node
		}
	}

	return nil
}

// Kind tells whether a node carries a value and in which shape.
type Kind uint8

const (
	KindAbsent Kind = iota
	KindScalar
	KindSequence
)

// ScalarType is the JSON type of a single scalar.
type ScalarType uint8

const (
	ScalarNull ScalarType = iota
	ScalarNumber
	ScalarString
	ScalarBool
	// ScalarOther covers nested objects and arrays inside a sequence.
	ScalarOther
)

// Scalar is a single JSON value. Text holds the decoded string for
// ScalarString and the raw JSON text otherwise.
type Scalar struct {
	Type ScalarType
	Text string
}

// Value is the optional VALUE field of a node: absent, one scalar, or an
// ordered sequence of which only the first element matters.
type Value struct {
	kind  Kind
	items []Scalar
	raw   string
}

// ScalarValue builds a single scalar value.
func ScalarValue(s Scalar) Value {
	return Value{kind: KindScalar, items: []Scalar{s}, raw: s.raw()}
}

// SequenceValue builds a sequence value.
func SequenceValue(items ...Scalar) Value {
	parts := make([]string, len(items))
	for i, s := range items {
		parts[i] = s.raw()
	}

	return Value{kind: KindSequence, items: items, raw: "[" + strings.Join(parts, ",") + "]"}
}

// NumberScalar is shorthand for a numeric scalar given as JSON text.
func NumberScalar(text string) Scalar { return Scalar{Type: ScalarNumber, Text: text} }

// StringScalar is shorthand for a string scalar.
func StringScalar(text string) Scalar { return Scalar{Type: ScalarString, Text: text} }

// NullScalar is shorthand for a JSON null.
func NullScalar() Scalar { return Scalar{Type: ScalarNull, Text: "null"} }

func (s Scalar) raw() string {
	if s.Type == ScalarString {
		return `"` + s.Text + `"`
	}

	return s.Text
}

// Kind returns the shape of the value.
func (v Value) Kind() Kind { return v.kind }

// Items returns a copy of the scalars held by the value.
func (v Value) Items() []Scalar {
	out := make([]Scalar, len(v.items))
	copy(out, v.items)

	return out
}

// First returns the semantically relevant scalar: the scalar itself or the
// first element of a sequence.
func (v Value) First() (Scalar, bool) {
	if v.kind == KindAbsent || len(v.items) == 0 {
		return Scalar{}, false
	}

	return v.items[0], true
}

// Present reports whether the value carries something other than null or
// an empty sequence.
func (v Value) Present() bool {
	s, ok := v.First()

	return ok && s.Type != ScalarNull
}

// String returns the value as it appeared in the document, for logging.
func (v Value) String() string {
	if v.kind == KindAbsent {
		return "<absent>"
	}

	return v.raw
}
