package ops

import (
	"github.com/born-ml/graphdiff/internal/graph"
	"github.com/born-ml/graphdiff/internal/model"
	"github.com/born-ml/graphdiff/internal/tensor"
)

// AddScalar adds a constant: output = x + Scalar. Backward: grad_x = outputGrad.
type AddScalar struct {
	Scalar float64
}

// Name returns "AddScalar".
func (AddScalar) Name() string { return "AddScalar" }

// Forward computes x + Scalar.
func (s AddScalar) Forward(node graph.NodeID, m *model.Model) ([]graph.ValueID, error) {
	return forwardUnary(m, node, "AddScalar", func(x *tensor.RawTensor) (*tensor.RawTensor, error) {
		return tensor.AddScalar(x, s.Scalar)
	})
}

// Backward passes the output gradient through.
func (AddScalar) Backward(node graph.NodeID, m *model.Model) ([]graph.ValueID, error) {
	return backwardUnary(m, node, "AddScalar", false, func(_ *template, _, _ tensor.Shape) (string, error) {
		return "gy", nil
	})
}

// MulScalar multiplies by a constant: output = x * Scalar.
// Backward: grad_x = outputGrad * Scalar.
type MulScalar struct {
	Scalar float64
}

// Name returns "MulScalar".
func (MulScalar) Name() string { return "MulScalar" }

// Forward computes x * Scalar.
func (s MulScalar) Forward(node graph.NodeID, m *model.Model) ([]graph.ValueID, error) {
	return forwardUnary(m, node, "MulScalar", func(x *tensor.RawTensor) (*tensor.RawTensor, error) {
		return tensor.MulScalar(x, s.Scalar)
	})
}

// Backward scales the output gradient.
func (s MulScalar) Backward(node graph.NodeID, m *model.Model) ([]graph.ValueID, error) {
	return backwardUnary(m, node, "MulScalar", false, func(t *template, _, _ tensor.Shape) (string, error) {
		return t.apply(MulScalar{Scalar: s.Scalar}, "gy"), nil
	})
}
