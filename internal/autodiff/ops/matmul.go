package ops

import (
	"github.com/born-ml/graphdiff/internal/graph"
	"github.com/born-ml/graphdiff/internal/model"
	"github.com/born-ml/graphdiff/internal/tensor"
)

// MatMul is 2D matrix multiplication: output = a @ b.
//
// Backward pass:
//   - d(A@B)/dA = outputGrad @ B^T
//   - d(A@B)/dB = A^T @ outputGrad
//
// Where @ denotes matrix multiplication and ^T denotes transpose.
type MatMul struct{}

// Name returns "MatMul".
func (MatMul) Name() string { return "MatMul" }

// Forward computes a @ b.
func (MatMul) Forward(node graph.NodeID, m *model.Model) ([]graph.ValueID, error) {
	return forwardBinary(m, node, "MatMul", tensor.MatMul)
}

// Backward computes input gradients for matrix multiplication.
func (MatMul) Backward(node graph.NodeID, m *model.Model) ([]graph.ValueID, error) {
	s, ok, err := prepareBackward(m, node, "MatMul", 2)
	if err != nil || !ok {
		return nil, err
	}
	bindings, err := s.bindings(m)
	if err != nil {
		return nil, err
	}
	t := newTemplate("gy", "a", "b")
	ga := t.apply(MatMul{}, "gy", t.apply(Transpose{}, "b"))
	gb := t.apply(MatMul{}, t.apply(Transpose{}, "a"), "gy")
	grads, err := t.splice(m, bindings, ga, gb)
	if err != nil {
		return nil, err
	}
	return accumulate(m, s.ins, grads)
}
