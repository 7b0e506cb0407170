package ops

import (
	"github.com/born-ml/graphdiff/internal/graph"
	"github.com/born-ml/graphdiff/internal/model"
	"github.com/born-ml/graphdiff/internal/tensor"
)

// Div is element-wise division: output = a / b.
//
// Backward pass:
//   - d(a/b)/da = 1/b, so grad_a = outputGrad / b
//   - d(a/b)/db = -a/b², so grad_b = outputGrad * -(a / (b*b))
type Div struct{}

// Name returns "Div".
func (Div) Name() string { return "Div" }

// Forward computes a / b.
func (Div) Forward(node graph.NodeID, m *model.Model) ([]graph.ValueID, error) {
	return forwardBinary(m, node, "Div", tensor.Div)
}

// Backward computes input gradients for division.
func (Div) Backward(node graph.NodeID, m *model.Model) ([]graph.ValueID, error) {
	s, ok, err := prepareBackward(m, node, "Div", 2)
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
	ga := t.reduce(t.apply(Div{}, "gy", "b"), sh[2], sh[0])
	bb := t.apply(Mul{}, "b", "b")
	negRatio := t.apply(Neg{}, t.apply(Div{}, "a", bb))
	gb := t.reduce(t.apply(Mul{}, "gy", negRatio), sh[2], sh[1])
	grads, err := t.splice(m, bindings, ga, gb)
	if err != nil {
		return nil, err
	}
	return accumulate(m, s.ins, grads)
}
