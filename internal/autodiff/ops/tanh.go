package ops

import (
	"github.com/born-ml/graphdiff/internal/graph"
	"github.com/born-ml/graphdiff/internal/model"
	"github.com/born-ml/graphdiff/internal/tensor"
)

// Tanh is the element-wise hyperbolic tangent. Float tensors only.
//
// Backward pass:
//   - d(tanh(x))/dx = 1 - tanh²(x)
//   - grad_x = outputGrad * (1 - tanh(x)*tanh(x))
//
// tanh(x) is recomputed from the input mirror rather than read from the
// output so the derivative stays differentiable with respect to x.
type Tanh struct{}

// Name returns "Tanh".
func (Tanh) Name() string { return "Tanh" }

// Forward computes tanh of the input.
func (Tanh) Forward(node graph.NodeID, m *model.Model) ([]graph.ValueID, error) {
	return forwardUnary(m, node, "Tanh", tensor.Tanh)
}

// Backward computes the input gradient.
func (Tanh) Backward(node graph.NodeID, m *model.Model) ([]graph.ValueID, error) {
	return backwardUnary(m, node, "Tanh", true, func(t *template, _, _ tensor.Shape) (string, error) {
		y := t.apply(Tanh{}, "x")
		oneMinus := t.apply(AddScalar{Scalar: 1}, t.apply(Neg{}, t.apply(Mul{}, y, y)))
		return t.apply(Mul{}, "gy", oneMinus), nil
	})
}
