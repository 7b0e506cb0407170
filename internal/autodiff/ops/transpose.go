package ops

import (
	"github.com/born-ml/graphdiff/internal/graph"
	"github.com/born-ml/graphdiff/internal/model"
	"github.com/born-ml/graphdiff/internal/tensor"
)

// Transpose permutes the axes of a tensor. With no Axes the axis order is
// reversed, which for a matrix is the ordinary transpose.
//
// Backward pass: the output gradient is permuted by the inverse permutation.
type Transpose struct {
	Axes []int
}

// Name returns "Transpose".
func (Transpose) Name() string { return "Transpose" }

// Forward permutes the input axes.
func (tr Transpose) Forward(node graph.NodeID, m *model.Model) ([]graph.ValueID, error) {
	return forwardUnary(m, node, "Transpose", func(x *tensor.RawTensor) (*tensor.RawTensor, error) {
		return tensor.Transpose(x, tr.Axes...)
	})
}

// Backward applies the inverse permutation to the output gradient.
func (tr Transpose) Backward(node graph.NodeID, m *model.Model) ([]graph.ValueID, error) {
	return backwardUnary(m, node, "Transpose", false, func(t *template, in, _ tensor.Shape) (string, error) {
		perm, err := tensor.Permutation(len(in), tr.Axes)
		if err != nil {
			return "", err
		}
		return t.apply(Transpose{Axes: tensor.InversePermutation(perm)}, "gy"), nil
	})
}
