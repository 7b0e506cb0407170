package ops

import (
	"github.com/born-ml/graphdiff/internal/graph"
	"github.com/born-ml/graphdiff/internal/model"
	"github.com/born-ml/graphdiff/internal/tensor"
)

// Exp is the element-wise exp(x). Float tensors only.
//
// Backward pass: d(exp(x))/dx = exp(x), so grad_x = outputGrad * exp(x).
type Exp struct{}

// Name returns "Exp".
func (Exp) Name() string { return "Exp" }

// Forward computes exp of the input.
func (Exp) Forward(node graph.NodeID, m *model.Model) ([]graph.ValueID, error) {
	return forwardUnary(m, node, "Exp", tensor.Exp)
}

// Backward computes the input gradient.
func (Exp) Backward(node graph.NodeID, m *model.Model) ([]graph.ValueID, error) {
	return backwardUnary(m, node, "Exp", true, func(t *template, _, _ tensor.Shape) (string, error) {
		return t.apply(Mul{}, "gy", t.apply(Exp{}, "x")), nil
	})
}
