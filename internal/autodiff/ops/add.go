package ops

import (
	"github.com/born-ml/graphdiff/internal/graph"
	"github.com/born-ml/graphdiff/internal/model"
	"github.com/born-ml/graphdiff/internal/tensor"
)

// Add is element-wise addition: output = a + b.
//
// Backward pass:
//   - d(a+b)/da = 1, so grad_a = outputGrad
//   - d(a+b)/db = 1, so grad_b = outputGrad
//
// If broadcasting was used in the forward pass, gradients are summed back
// to the input shapes.
type Add struct{}

// Name returns "Add".
func (Add) Name() string { return "Add" }

// Forward computes a + b.
func (Add) Forward(node graph.NodeID, m *model.Model) ([]graph.ValueID, error) {
	return forwardBinary(m, node, "Add", tensor.Add)
}

// Backward passes the output gradient to both inputs.
func (Add) Backward(node graph.NodeID, m *model.Model) ([]graph.ValueID, error) {
	s, ok, err := prepareBackward(m, node, "Add", 2)
	if err != nil || !ok {
		return nil, err
	}
	sh, err := s.shapes(m)
	if err != nil {
		return nil, err
	}
	t := newTemplate("gy")
	ga := t.reduce("gy", sh[2], sh[0])
	gb := t.reduce("gy", sh[2], sh[1])
	grads, err := t.splice(m, []graph.NodeID{s.gy}, ga, gb)
	if err != nil {
		return nil, err
	}
	return accumulate(m, s.ins, grads)
}
