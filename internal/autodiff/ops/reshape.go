package ops

import (
	"github.com/born-ml/graphdiff/internal/graph"
	"github.com/born-ml/graphdiff/internal/model"
	"github.com/born-ml/graphdiff/internal/tensor"
)

// Reshape changes the shape of a tensor while preserving its data.
//
// Backward pass: the output gradient is reshaped back to the input shape.
type Reshape struct {
	Shape tensor.Shape
}

// Name returns "Reshape".
func (Reshape) Name() string { return "Reshape" }

// Forward reshapes the input to Shape.
func (r Reshape) Forward(node graph.NodeID, m *model.Model) ([]graph.ValueID, error) {
	return forwardUnary(m, node, "Reshape", func(x *tensor.RawTensor) (*tensor.RawTensor, error) {
		return tensor.Reshape(x, r.Shape)
	})
}

// Backward reshapes the output gradient to the input shape.
func (Reshape) Backward(node graph.NodeID, m *model.Model) ([]graph.ValueID, error) {
	return backwardUnary(m, node, "Reshape", false, func(t *template, in, out tensor.Shape) (string, error) {
		if in.Equal(out) {
			return "gy", nil
		}
		return t.apply(Reshape{Shape: in.Clone()}, "gy"), nil
	})
}
