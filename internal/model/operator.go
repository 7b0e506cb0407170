package model

import (
	"fmt"

	"github.com/born-ml/graphdiff/internal/arena"
	"github.com/born-ml/graphdiff/internal/graph"
)

// Rule is a differentiation rule: the forward computation of one operator
// kind plus the backward step that splices its local derivative into the
// gradient model.
//
// Forward reads the values wired into node, writes the values node feeds
// and returns their ids. Backward reads the gradient of node's output,
// builds a template model for the local derivative, splices it with
// InsertStructure and set-or-adds the results into each input's gradient.
// It returns the ids of the inputs it contributed to.
type Rule interface {
	Name() string
	Forward(node graph.NodeID, m *Model) ([]graph.ValueID, error)
	Backward(node graph.NodeID, m *Model) ([]graph.ValueID, error)
}

// Operator is an instance of a Rule placed in a model.
type Operator struct {
	node     graph.NodeID
	attached bool
	rule     Rule
}

// NewOperator creates a detached operator.
func NewOperator(rule Rule) *Operator {
	return &Operator{rule: rule}
}

// Node returns the owning node id, if the operator is attached to one.
func (o *Operator) Node() (graph.NodeID, bool) {
	return o.node, o.attached
}

// Rule returns the rule implementation.
func (o *Operator) Rule() Rule {
	return o.rule
}

// OperatorArena stores the operators of one model.
type OperatorArena struct {
	items *arena.Arena[graph.OperatorID, *Operator]
}

func newOperatorArena() *OperatorArena {
	return &OperatorArena{items: arena.New[graph.OperatorID, *Operator]("operator")}
}

// Insert stores o under id. It fails with ErrAlreadyExists if id is taken.
func (a *OperatorArena) Insert(id graph.OperatorID, o *Operator) error {
	return a.items.Insert(id, o)
}

// Get returns the operator stored under id.
func (a *OperatorArena) Get(id graph.OperatorID) (*Operator, error) {
	return a.items.Get(id)
}

// IDs returns every operator id in ascending order.
func (a *OperatorArena) IDs() []graph.OperatorID {
	return a.items.IDs()
}

// Len returns the number of operators.
func (a *OperatorArena) Len() int {
	return a.items.Len()
}

// NextID returns the operator-id watermark.
func (a *OperatorArena) NextID() graph.OperatorID {
	return a.items.NextID()
}

// Reidentify moves operator from to id to, keeping the payload of its
// backing node in g pointed at the new id.
func (a *OperatorArena) Reidentify(from, to graph.OperatorID, g *graph.Graph) error {
	o, err := a.items.Get(from)
	if err != nil {
		return err
	}
	if err := a.items.Reidentify(from, to); err != nil {
		return err
	}
	if o.attached {
		if err := g.SetPayload(o.node, graph.OperatorPayload(to)); err != nil {
			return fmt.Errorf("operator %d backing node: %w", to, err)
		}
	}
	return nil
}

func (a *OperatorArena) attach(id graph.OperatorID, node graph.NodeID) error {
	o, err := a.items.Get(id)
	if err != nil {
		return err
	}
	o.node, o.attached = node, true
	return nil
}
