// Package graph implements the identifier-addressed directed graph that
// carries a model's values and operators.
//
// Nodes are addressed by NodeID and never hold pointers to each other.
// Edges are mutual: whenever A lists B as an output, B lists A as an input
// the same number of times. Only Graph methods mutate edges, which keeps the
// invariant intact.
package graph

import (
	"fmt"
	"slices"

	"github.com/born-ml/graphdiff/internal/errs"
)

// NodeID addresses a node within one Graph.
type NodeID uint64

// ValueID addresses a value within one value arena.
type ValueID uint64

// OperatorID addresses an operator within one operator arena.
type OperatorID uint64

// PayloadKind tags the variant held by a Payload.
type PayloadKind int

// Payload variants.
const (
	PayloadNone PayloadKind = iota
	PayloadValue
	PayloadOperator
)

// String returns the variant name.
func (k PayloadKind) String() string {
	switch k {
	case PayloadValue:
		return "value"
	case PayloadOperator:
		return "operator"
	default:
		return "none"
	}
}

// Payload is the tagged content of a node: nothing, a value id or an
// operator id.
type Payload struct {
	kind PayloadKind
	id   uint64
}

// None returns the empty payload.
func None() Payload {
	return Payload{}
}

// ValuePayload returns a payload pointing at a value.
func ValuePayload(id ValueID) Payload {
	return Payload{kind: PayloadValue, id: uint64(id)}
}

// OperatorPayload returns a payload pointing at an operator.
func OperatorPayload(id OperatorID) Payload {
	return Payload{kind: PayloadOperator, id: uint64(id)}
}

// Kind returns the variant tag.
func (p Payload) Kind() PayloadKind {
	return p.kind
}

// IsValue reports whether p points at a value.
func (p Payload) IsValue() bool {
	return p.kind == PayloadValue
}

// IsOperator reports whether p points at an operator.
func (p Payload) IsOperator() bool {
	return p.kind == PayloadOperator
}

// ValueID returns the value id, or ErrTypeMismatch for other variants.
func (p Payload) ValueID() (ValueID, error) {
	if p.kind != PayloadValue {
		return 0, fmt.Errorf("payload is %s, not value: %w", p.kind, errs.ErrTypeMismatch)
	}
	return ValueID(p.id), nil
}

// OperatorID returns the operator id, or ErrTypeMismatch for other variants.
func (p Payload) OperatorID() (OperatorID, error) {
	if p.kind != PayloadOperator {
		return 0, fmt.Errorf("payload is %s, not operator: %w", p.kind, errs.ErrTypeMismatch)
	}
	return OperatorID(p.id), nil
}

// String renders the payload as kind(id).
func (p Payload) String() string {
	if p.kind == PayloadNone {
		return "none"
	}
	return fmt.Sprintf("%s(%d)", p.kind, p.id)
}

// Node is a graph vertex.
type Node struct {
	id      NodeID
	name    string
	payload Payload
	inputs  []NodeID
	outputs []NodeID
}

// NewNode creates a detached node. Insert it with Graph.Insert.
func NewNode(id NodeID, name string, payload Payload) *Node {
	return &Node{id: id, name: name, payload: payload}
}

// ID returns the node id.
func (n *Node) ID() NodeID {
	return n.id
}

// Name returns the display name.
func (n *Node) Name() string {
	return n.name
}

// Payload returns the tagged payload.
func (n *Node) Payload() Payload {
	return n.payload
}

// Inputs returns a copy of the ordered input edge list.
func (n *Node) Inputs() []NodeID {
	return slices.Clone(n.inputs)
}

// Outputs returns a copy of the ordered output edge list.
func (n *Node) Outputs() []NodeID {
	return slices.Clone(n.outputs)
}

// replaceAll rewrites every occurrence of from in ids to to and returns the count.
func replaceAll(ids []NodeID, from, to NodeID) int {
	count := 0
	for i, id := range ids {
		if id == from {
			ids[i] = to
			count++
		}
	}
	return count
}

// removeN deletes up to n occurrences of id from ids.
func removeN(ids []NodeID, id NodeID, n int) []NodeID {
	out := ids[:0]
	for _, v := range ids {
		if v == id && n > 0 {
			n--
			continue
		}
		out = append(out, v)
	}
	return out
}
