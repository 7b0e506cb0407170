package ops

import (
	"github.com/born-ml/graphdiff/internal/graph"
	"github.com/born-ml/graphdiff/internal/model"
	"github.com/born-ml/graphdiff/internal/tensor"
)

// Neg is element-wise negation: output = -x. Backward: grad_x = -outputGrad.
type Neg struct{}

// Name returns "Neg".
func (Neg) Name() string { return "Neg" }

// Forward computes -x.
func (Neg) Forward(node graph.NodeID, m *model.Model) ([]graph.ValueID, error) {
	return forwardUnary(m, node, "Neg", tensor.Neg)
}

// Backward negates the output gradient.
func (Neg) Backward(node graph.NodeID, m *model.Model) ([]graph.ValueID, error) {
	return backwardUnary(m, node, "Neg", false, func(t *template, _, _ tensor.Shape) (string, error) {
		return t.apply(Neg{}, "gy"), nil
	})
}
