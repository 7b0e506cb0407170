// Package ops implements the differentiation rules of the engine.
//
// Each rule implements model.Rule:
//   - Forward: computes the operator's output from the payloads of its inputs
//   - Backward: splices the local derivative, as a small template model,
//     into the gradient model and accumulates it into each input's gradient
//
// Local derivatives only ever read primal values through their mirrors, so
// the gradient model can itself be differentiated.
//
// Supported rules:
//   - Add, Sub, Mul, Div: broadcasting element-wise arithmetic
//   - Neg, Exp, Log, Sin, Cos, Tanh: element-wise functions
//   - Pow: integer power (d(x^n)/dx = n * x^(n-1))
//   - AddScalar, MulScalar: arithmetic with a constant
//   - MatMul: 2D matrix multiplication (d(A@B)/dA = grad@B^T, d(A@B)/dB = A^T@grad)
//   - Reshape, Transpose, BroadcastTo, SumTo, Sum: shape manipulation
//   - MeanSquaredError: mean of squared differences
package ops

import (
	"fmt"

	"github.com/born-ml/graphdiff/internal/errs"
	"github.com/born-ml/graphdiff/internal/graph"
	"github.com/born-ml/graphdiff/internal/model"
	"github.com/born-ml/graphdiff/internal/tensor"
)

// operands returns the input value ids and the single output value id of
// node. Fewer inputs than arity fail with ErrSizeTooSmall; any other wiring
// that does not match fails with ErrSizeMismatch.
func operands(m *model.Model, node graph.NodeID, rule string, arity int) ([]graph.ValueID, graph.ValueID, error) {
	ins, outs, err := m.OperatorIO(node)
	if err != nil {
		return nil, 0, err
	}
	if len(ins) < arity {
		return nil, 0, fmt.Errorf("%s: got %d inputs, want %d: %w", rule, len(ins), arity, errs.ErrSizeTooSmall)
	}
	if len(ins) != arity || len(outs) != 1 {
		return nil, 0, fmt.Errorf("%s: got %d inputs and %d outputs, want %d and 1: %w",
			rule, len(ins), len(outs), arity, errs.ErrSizeMismatch)
	}
	return ins, outs[0], nil
}

func payloads(m *model.Model, ids ...graph.ValueID) ([]*tensor.RawTensor, error) {
	ts := make([]*tensor.RawTensor, len(ids))
	for i, id := range ids {
		p, err := m.Values().Payload(id)
		if err != nil {
			return nil, err
		}
		ts[i] = p
	}
	return ts, nil
}

func shapes(m *model.Model, ids ...graph.ValueID) ([]tensor.Shape, error) {
	ts, err := payloads(m, ids...)
	if err != nil {
		return nil, err
	}
	out := make([]tensor.Shape, len(ts))
	for i, t := range ts {
		out[i] = t.Shape()
	}
	return out, nil
}

func forwardUnary(m *model.Model, node graph.NodeID, rule string,
	f func(*tensor.RawTensor) (*tensor.RawTensor, error)) ([]graph.ValueID, error) {
	ins, out, err := operands(m, node, rule, 1)
	if err != nil {
		return nil, err
	}
	xs, err := payloads(m, ins...)
	if err != nil {
		return nil, err
	}
	y, err := f(xs[0])
	if err != nil {
		return nil, err
	}
	return []graph.ValueID{out}, m.Values().SetPayload(out, y)
}

func forwardBinary(m *model.Model, node graph.NodeID, rule string,
	f func(a, b *tensor.RawTensor) (*tensor.RawTensor, error)) ([]graph.ValueID, error) {
	ins, out, err := operands(m, node, rule, 2)
	if err != nil {
		return nil, err
	}
	xs, err := payloads(m, ins...)
	if err != nil {
		return nil, err
	}
	y, err := f(xs[0], xs[1])
	if err != nil {
		return nil, err
	}
	return []graph.ValueID{out}, m.Values().SetPayload(out, y)
}

// backwardStep is what every Backward starts with: the operands of node
// and the gradient-model node holding the gradient of its output. ok is
// false when no gradient reaches the output.
type backwardStep struct {
	ins []graph.ValueID
	out graph.ValueID
	gy  graph.NodeID
}

func prepareBackward(m *model.Model, node graph.NodeID, rule string, arity int) (*backwardStep, bool, error) {
	ins, out, err := operands(m, node, rule, arity)
	if err != nil {
		return nil, false, err
	}
	gy, ok, err := m.OutputGradient(out)
	if err != nil || !ok {
		return nil, false, err
	}
	return &backwardStep{ins: ins, out: out, gy: gy}, true, nil
}

// mirrors returns the gradient-model mirrors of the step's inputs.
func (s *backwardStep) mirrors(m *model.Model) ([]graph.NodeID, error) {
	nodes := make([]graph.NodeID, len(s.ins))
	for i, id := range s.ins {
		n, err := m.Mirror(id)
		if err != nil {
			return nil, err
		}
		nodes[i] = n
	}
	return nodes, nil
}

// bindings returns gy followed by the mirrors of every input, matching
// templates declared as newTemplate("gy", <inputs>...).
func (s *backwardStep) bindings(m *model.Model) ([]graph.NodeID, error) {
	ms, err := s.mirrors(m)
	if err != nil {
		return nil, err
	}
	return append([]graph.NodeID{s.gy}, ms...), nil
}

// shapes returns the input shapes followed by the output shape.
func (s *backwardStep) shapes(m *model.Model) ([]tensor.Shape, error) {
	return shapes(m, append(append([]graph.ValueID{}, s.ins...), s.out)...)
}

// backwardUnary runs the backward step of a single-input rule. local
// receives a template whose inputs are "gy" and, when withInput is set,
// "x" (the input's mirror), plus the input and output shapes, and returns
// the name of grad_x.
func backwardUnary(m *model.Model, node graph.NodeID, rule string, withInput bool,
	local func(t *template, in, out tensor.Shape) (string, error)) ([]graph.ValueID, error) {
	s, ok, err := prepareBackward(m, node, rule, 1)
	if err != nil || !ok {
		return nil, err
	}
	sh, err := s.shapes(m)
	if err != nil {
		return nil, err
	}
	t := newTemplate("gy")
	bindings := []graph.NodeID{s.gy}
	if withInput {
		if bindings, err = s.bindings(m); err != nil {
			return nil, err
		}
		t = newTemplate("gy", "x")
	}
	gx, err := local(t, sh[0], sh[1])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rule, err)
	}
	grads, err := t.splice(m, bindings, gx)
	if err != nil {
		return nil, err
	}
	return accumulate(m, s.ins, grads)
}
