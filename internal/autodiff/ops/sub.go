package ops

import (
	"github.com/born-ml/graphdiff/internal/graph"
	"github.com/born-ml/graphdiff/internal/model"
	"github.com/born-ml/graphdiff/internal/tensor"
)

// Sub is element-wise subtraction: output = a - b.
//
// Backward pass:
//   - grad_a = outputGrad
//   - grad_b = -outputGrad
type Sub struct{}

// Name returns "Sub".
func (Sub) Name() string { return "Sub" }

// Forward computes a - b.
func (Sub) Forward(node graph.NodeID, m *model.Model) ([]graph.ValueID, error) {
	return forwardBinary(m, node, "Sub", tensor.Sub)
}

// Backward computes input gradients for subtraction.
func (Sub) Backward(node graph.NodeID, m *model.Model) ([]graph.ValueID, error) {
	s, ok, err := prepareBackward(m, node, "Sub", 2)
	if err != nil || !ok {
		return nil, err
	}
	sh, err := s.shapes(m)
	if err != nil {
		return nil, err
	}
	t := newTemplate("gy")
	ga := t.reduce("gy", sh[2], sh[0])
	gb := t.reduce(t.apply(Neg{}, "gy"), sh[2], sh[1])
	grads, err := t.splice(m, []graph.NodeID{s.gy}, ga, gb)
	if err != nil {
		return nil, err
	}
	return accumulate(m, s.ins, grads)
}
