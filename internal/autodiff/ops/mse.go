package ops

import (
	"fmt"

	"github.com/born-ml/graphdiff/internal/errs"
	"github.com/born-ml/graphdiff/internal/graph"
	"github.com/born-ml/graphdiff/internal/model"
	"github.com/born-ml/graphdiff/internal/tensor"
)

// MeanSquaredError computes mean((a - b)²) as a scalar. Float tensors only.
//
// Backward pass, with N the number of elements of a - b:
//   - grad_a = outputGrad * 2(a - b)/N
//   - grad_b = -grad_a
type MeanSquaredError struct{}

// Name returns "MeanSquaredError".
func (MeanSquaredError) Name() string { return "MeanSquaredError" }

// Forward computes the mean of the squared differences.
func (MeanSquaredError) Forward(node graph.NodeID, m *model.Model) ([]graph.ValueID, error) {
	return forwardBinary(m, node, "MeanSquaredError", func(a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
		if !a.DType().IsFloat() {
			return nil, fmt.Errorf("MeanSquaredError: unsupported dtype %s: %w", a.DType(), errs.ErrTypeMismatch)
		}
		diff, err := tensor.Sub(a, b)
		if err != nil {
			return nil, err
		}
		sq, err := tensor.Mul(diff, diff)
		if err != nil {
			return nil, err
		}
		total, err := tensor.Sum(sq, nil, false)
		if err != nil {
			return nil, err
		}
		return tensor.MulScalar(total, 1/float64(diff.NumElements()))
	})
}

// Backward computes input gradients for the mean squared error.
func (MeanSquaredError) Backward(node graph.NodeID, m *model.Model) ([]graph.ValueID, error) {
	s, ok, err := prepareBackward(m, node, "MeanSquaredError", 2)
	if err != nil || !ok {
		return nil, err
	}
	sh, err := s.shapes(m)
	if err != nil {
		return nil, err
	}
	diffShape, _, err := tensor.BroadcastShapes(sh[0], sh[1])
	if err != nil {
		return nil, err
	}
	bindings, err := s.bindings(m)
	if err != nil {
		return nil, err
	}

	t := newTemplate("gy", "a", "b")
	scale := 2 / float64(diffShape.NumElements())
	diff := t.apply(MulScalar{Scalar: scale}, t.apply(Sub{}, "a", "b"))
	g := t.apply(Mul{}, t.apply(BroadcastTo{Shape: diffShape}, "gy"), diff)
	ga := t.reduce(g, diffShape, sh[0])
	gb := t.reduce(t.apply(Neg{}, g), diffShape, sh[1])
	grads, err := t.splice(m, bindings, ga, gb)
	if err != nil {
		return nil, err
	}
	return accumulate(m, s.ins, grads)
}
