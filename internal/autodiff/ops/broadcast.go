package ops

import (
	"github.com/born-ml/graphdiff/internal/graph"
	"github.com/born-ml/graphdiff/internal/model"
	"github.com/born-ml/graphdiff/internal/tensor"
)

// BroadcastTo expands a tensor to Shape following broadcasting rules.
//
// Backward pass: the output gradient is summed back to the input shape.
type BroadcastTo struct {
	Shape tensor.Shape
}

// Name returns "BroadcastTo".
func (BroadcastTo) Name() string { return "BroadcastTo" }

// Forward broadcasts the input to Shape.
func (b BroadcastTo) Forward(node graph.NodeID, m *model.Model) ([]graph.ValueID, error) {
	return forwardUnary(m, node, "BroadcastTo", func(x *tensor.RawTensor) (*tensor.RawTensor, error) {
		return tensor.BroadcastTo(x, b.Shape)
	})
}

// Backward sums the output gradient to the input shape.
func (BroadcastTo) Backward(node graph.NodeID, m *model.Model) ([]graph.ValueID, error) {
	return backwardUnary(m, node, "BroadcastTo", false, func(t *template, in, out tensor.Shape) (string, error) {
		return t.reduce("gy", out, in), nil
	})
}

// SumTo sums a tensor down to Shape, the adjoint of BroadcastTo.
//
// Backward pass: the output gradient is broadcast back to the input shape.
type SumTo struct {
	Shape tensor.Shape
}

// Name returns "SumTo".
func (SumTo) Name() string { return "SumTo" }

// Forward sums the input to Shape.
func (s SumTo) Forward(node graph.NodeID, m *model.Model) ([]graph.ValueID, error) {
	return forwardUnary(m, node, "SumTo", func(x *tensor.RawTensor) (*tensor.RawTensor, error) {
		return tensor.SumTo(x, s.Shape)
	})
}

// Backward broadcasts the output gradient to the input shape.
func (SumTo) Backward(node graph.NodeID, m *model.Model) ([]graph.ValueID, error) {
	return backwardUnary(m, node, "SumTo", false, func(t *template, in, out tensor.Shape) (string, error) {
		if in.Equal(out) {
			return "gy", nil
		}
		return t.apply(BroadcastTo{Shape: in.Clone()}, "gy"), nil
	})
}
