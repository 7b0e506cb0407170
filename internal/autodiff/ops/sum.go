package ops

import (
	"github.com/born-ml/graphdiff/internal/graph"
	"github.com/born-ml/graphdiff/internal/model"
	"github.com/born-ml/graphdiff/internal/tensor"
)

// Sum reduces a tensor along Axes; no Axes sums every element. KeepDims
// keeps reduced dimensions with size 1.
//
// Backward pass: the output gradient is reshaped to the keep-dims shape
// and broadcast back to the input shape.
type Sum struct {
	Axes     []int
	KeepDims bool
}

// Name returns "Sum".
func (Sum) Name() string { return "Sum" }

// Forward sums the input along Axes.
func (s Sum) Forward(node graph.NodeID, m *model.Model) ([]graph.ValueID, error) {
	return forwardUnary(m, node, "Sum", func(x *tensor.RawTensor) (*tensor.RawTensor, error) {
		return tensor.Sum(x, s.Axes, s.KeepDims)
	})
}

// Backward spreads the output gradient over the summed axes.
func (s Sum) Backward(node graph.NodeID, m *model.Model) ([]graph.ValueID, error) {
	return backwardUnary(m, node, "Sum", false, func(t *template, in, out tensor.Shape) (string, error) {
		kept, err := tensor.KeepDimsShape(in, s.Axes)
		if err != nil {
			return "", err
		}
		g := "gy"
		if !out.Equal(kept) {
			g = t.apply(Reshape{Shape: kept}, g)
		}
		if kept.Equal(in) {
			return g, nil
		}
		return t.apply(BroadcastTo{Shape: in.Clone()}, g), nil
	})
}
