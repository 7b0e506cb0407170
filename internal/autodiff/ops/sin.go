package ops

import (
	"github.com/born-ml/graphdiff/internal/graph"
	"github.com/born-ml/graphdiff/internal/model"
	"github.com/born-ml/graphdiff/internal/tensor"
)

// Sin is the element-wise sin(x). Float tensors only.
//
// Backward pass: d(sin(x))/dx = cos(x), so grad_x = outputGrad * cos(x).
type Sin struct{}

// Name returns "Sin".
func (Sin) Name() string { return "Sin" }

// Forward computes sin of the input.
func (Sin) Forward(node graph.NodeID, m *model.Model) ([]graph.ValueID, error) {
	return forwardUnary(m, node, "Sin", tensor.Sin)
}

// Backward computes the input gradient.
func (Sin) Backward(node graph.NodeID, m *model.Model) ([]graph.ValueID, error) {
	return backwardUnary(m, node, "Sin", true, func(t *template, _, _ tensor.Shape) (string, error) {
		return t.apply(Mul{}, "gy", t.apply(Cos{}, "x")), nil
	})
}
