package model

import (
	"fmt"

	"github.com/born-ml/graphdiff/internal/errs"
	"github.com/born-ml/graphdiff/internal/graph"
	"github.com/born-ml/graphdiff/internal/tensor"
)

// Accumulate sums two gradient contributions of the same value. Both
// operands share a shape, so its own backward pass hands the incoming
// gradient to each of them unchanged.
type Accumulate struct{}

// Name returns "Accumulate".
func (Accumulate) Name() string { return "Accumulate" }

// Forward computes acc + delta.
func (Accumulate) Forward(node graph.NodeID, m *Model) ([]graph.ValueID, error) {
	ins, out, err := accumulateOperands(m, node)
	if err != nil {
		return nil, err
	}
	a, err := m.values.Payload(ins[0])
	if err != nil {
		return nil, err
	}
	b, err := m.values.Payload(ins[1])
	if err != nil {
		return nil, err
	}
	sum, err := tensor.Add(a, b)
	if err != nil {
		return nil, err
	}
	return []graph.ValueID{out}, m.values.SetPayload(out, sum)
}

// Backward set-or-adds the output gradient into both operands.
func (Accumulate) Backward(node graph.NodeID, m *Model) ([]graph.ValueID, error) {
	ins, out, err := accumulateOperands(m, node)
	if err != nil {
		return nil, err
	}
	gy, ok, err := m.OutputGradient(out)
	if err != nil || !ok {
		return nil, err
	}
	for _, in := range ins {
		if err := SetOrAdd(m, in, gy); err != nil {
			return nil, err
		}
	}
	return ins, nil
}

func accumulateOperands(m *Model, node graph.NodeID) ([]graph.ValueID, graph.ValueID, error) {
	ins, outs, err := m.OperatorIO(node)
	if err != nil {
		return nil, 0, err
	}
	if len(ins) < 2 {
		return nil, 0, fmt.Errorf("Accumulate: got %d inputs, want 2: %w", len(ins), errs.ErrSizeTooSmall)
	}
	if len(ins) != 2 || len(outs) != 1 {
		return nil, 0, fmt.Errorf("Accumulate: got %d inputs and %d outputs, want 2 and 1: %w",
			len(ins), len(outs), errs.ErrSizeMismatch)
	}
	return ins, outs[0], nil
}

// SetOrAdd records contribution, a node of m's gradient model, as the
// gradient of primal value x. If x already has a gradient, an Accumulate
// template is spliced and x's gradient becomes the sum.
func SetOrAdd(m *Model, x graph.ValueID, contribution graph.NodeID) error {
	gm := m.gradient
	if gm == nil {
		return fmt.Errorf("set or add: no gradient model: %w", errs.ErrNotFound)
	}
	cv, err := gm.ValueOf(contribution)
	if err != nil {
		return fmt.Errorf("set or add: %w", err)
	}
	existing, ok, err := m.values.Gradient(x)
	if err != nil {
		return fmt.Errorf("set or add: %w", err)
	}
	if !ok {
		return m.values.SetGradient(x, cv)
	}
	current, err := gm.NodeOf(existing)
	if err != nil {
		return fmt.Errorf("set or add: %w", err)
	}
	sum, err := accumulate(gm, current, contribution)
	if err != nil {
		return fmt.Errorf("set or add: %w", err)
	}
	return m.values.SetGradient(x, sum)
}

// accumulate splices acc + delta into gm and returns the sum's value id.
func accumulate(gm *Model, acc, delta graph.NodeID) (graph.ValueID, error) {
	const op, out = "Accumulate#1", "Accumulate#1.out"
	tmpl, err := New(
		[]ValueSpec{{Name: "acc"}, {Name: "delta"}},
		[]ValueSpec{{Name: out}},
		[]OperatorSpec{{Name: op, Inputs: []string{"acc", "delta"}, Outputs: []string{out}, Rule: Accumulate{}}},
		nil,
	)
	if err != nil {
		return 0, err
	}
	nodes, err := InsertStructure(gm, tmpl, []graph.NodeID{acc, delta})
	if err != nil {
		return 0, err
	}
	return gm.ValueOf(nodes[0])
}
