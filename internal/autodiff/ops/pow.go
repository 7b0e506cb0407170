package ops

import (
	"fmt"
	"math"

	"github.com/born-ml/graphdiff/internal/errs"
	"github.com/born-ml/graphdiff/internal/graph"
	"github.com/born-ml/graphdiff/internal/model"
	"github.com/born-ml/graphdiff/internal/tensor"
)

// Pow raises every element to a constant integer power: output = x^Exponent.
//
// Backward pass:
//   - d(x^n)/dx = n * x^(n-1)
//   - grad_x = outputGrad * (n * x^(n-1))
//
// For n = 0 the gradient is zero. Backward fails with ErrOverflow when n-1
// is not representable.
type Pow struct {
	Exponent int
}

// Name returns "Pow".
func (Pow) Name() string { return "Pow" }

// Forward computes x^Exponent.
func (p Pow) Forward(node graph.NodeID, m *model.Model) ([]graph.ValueID, error) {
	return forwardUnary(m, node, "Pow", func(x *tensor.RawTensor) (*tensor.RawTensor, error) {
		return tensor.Pow(x, p.Exponent)
	})
}

// Backward computes the input gradient.
func (p Pow) Backward(node graph.NodeID, m *model.Model) ([]graph.ValueID, error) {
	if p.Exponent == math.MinInt {
		return nil, fmt.Errorf("Pow: exponent %d - 1: %w", p.Exponent, errs.ErrOverflow)
	}
	if p.Exponent == 0 {
		return backwardUnary(m, node, "Pow", false, func(t *template, _, _ tensor.Shape) (string, error) {
			return t.apply(MulScalar{Scalar: 0}, "gy"), nil
		})
	}
	return backwardUnary(m, node, "Pow", true, func(t *template, _, _ tensor.Shape) (string, error) {
		local := t.apply(MulScalar{Scalar: float64(p.Exponent)}, t.apply(Pow{Exponent: p.Exponent - 1}, "x"))
		return t.apply(Mul{}, "gy", local), nil
	})
}
