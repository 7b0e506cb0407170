package ops

import (
	"github.com/born-ml/graphdiff/internal/graph"
	"github.com/born-ml/graphdiff/internal/model"
	"github.com/born-ml/graphdiff/internal/tensor"
)

// Log is the element-wise log(x), the natural logarithm. Float tensors only.
//
// Backward pass: d(log(x))/dx = 1/x, so grad_x = outputGrad / x.
type Log struct{}

// Name returns "Log".
func (Log) Name() string { return "Log" }

// Forward computes log of the input.
func (Log) Forward(node graph.NodeID, m *model.Model) ([]graph.ValueID, error) {
	return forwardUnary(m, node, "Log", tensor.Log)
}

// Backward computes the input gradient.
func (Log) Backward(node graph.NodeID, m *model.Model) ([]graph.ValueID, error) {
	return backwardUnary(m, node, "Log", true, func(t *template, _, _ tensor.Shape) (string, error) {
		return t.apply(Div{}, "gy", "x"), nil
	})
}
