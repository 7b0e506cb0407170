package ops

import (
	"github.com/born-ml/graphdiff/internal/graph"
	"github.com/born-ml/graphdiff/internal/model"
	"github.com/born-ml/graphdiff/internal/tensor"
)

// Mul is element-wise multiplication: output = a * b.
//
// Backward pass:
//   - d(a*b)/da = b, so grad_a = outputGrad * b
//   - d(a*b)/db = a, so grad_b = outputGrad * a
type Mul struct{}

// Name returns "Mul".
func (Mul) Name() string { return "Mul" }

// Forward computes a * b.
func (Mul) Forward(node graph.NodeID, m *model.Model) ([]graph.ValueID, error) {
	return forwardBinary(m, node, "Mul", tensor.Mul)
}

// Backward computes input gradients for multiplication.
func (Mul) Backward(node graph.NodeID, m *model.Model) ([]graph.ValueID, error) {
	s, ok, err := prepareBackward(m, node, "Mul", 2)
	if err != nil || !ok {
		return nil, err
	}
	sh, err := s.shapes(m)
	if err != nil {
		return nil, err
	}
	bindings, err := s.bindings(m)
	if err != nil {
		return nil, err
	}
	t := newTemplate("gy", "a", "b")
	ga := t.reduce(t.apply(Mul{}, "gy", "b"), sh[2], sh[0])
	gb := t.reduce(t.apply(Mul{}, "gy", "a"), sh[2], sh[1])
	grads, err := t.splice(m, bindings, ga, gb)
	if err != nil {
		return nil, err
	}
	return accumulate(m, s.ins, grads)
}
