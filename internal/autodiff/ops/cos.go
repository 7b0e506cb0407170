package ops

import (
	"github.com/born-ml/graphdiff/internal/graph"
	"github.com/born-ml/graphdiff/internal/model"
	"github.com/born-ml/graphdiff/internal/tensor"
)

// Cos is the element-wise cos(x). Float tensors only.
//
// Backward pass: d(cos(x))/dx = -sin(x), so grad_x = outputGrad * -sin(x).
type Cos struct{}

// Name returns "Cos".
func (Cos) Name() string { return "Cos" }

// Forward computes cos of the input.
func (Cos) Forward(node graph.NodeID, m *model.Model) ([]graph.ValueID, error) {
	return forwardUnary(m, node, "Cos", tensor.Cos)
}

// Backward computes the input gradient.
func (Cos) Backward(node graph.NodeID, m *model.Model) ([]graph.ValueID, error) {
	return backwardUnary(m, node, "Cos", true, func(t *template, _, _ tensor.Shape) (string, error) {
		return t.apply(Mul{}, "gy", t.apply(Neg{}, t.apply(Sin{}, "x"))), nil
	})
}
