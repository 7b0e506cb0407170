package ops

import (
	"fmt"
	"slices"

	"github.com/born-ml/graphdiff/internal/errs"
	"github.com/born-ml/graphdiff/internal/graph"
	"github.com/born-ml/graphdiff/internal/model"
	"github.com/born-ml/graphdiff/internal/tensor"
)

// template accumulates a small model describing a local derivative. Its
// inputs are placeholders bound at splice time.
type template struct {
	inputs []string
	ops    []model.OperatorSpec
	count  int
}

func newTemplate(inputs ...string) *template {
	return &template{inputs: inputs}
}

// apply appends an operator running rule on in and returns the name of
// the value it produces.
func (t *template) apply(rule model.Rule, in ...string) string {
	t.count++
	name := fmt.Sprintf("%s#%d", rule.Name(), t.count)
	out := name + ".out"
	t.ops = append(t.ops, model.OperatorSpec{
		Name:    name,
		Inputs:  in,
		Outputs: []string{out},
		Rule:    rule,
	})
	return out
}

// reduce sums x, shaped from, down to shape to. It is the identity when the
// shapes already agree.
//
// Example:
//
//	Forward: a[3,1] + b[3,4] -> c[3,4]  (a was broadcast along dim 1)
//	Backward: grad_c[3,4] -> grad_a[3,1] (sum along dim 1)
func (t *template) reduce(x string, from, to tensor.Shape) string {
	if from.Equal(to) {
		return x
	}
	return t.apply(SumTo{Shape: to.Clone()}, x)
}

// splice builds the template, inserts it into m's gradient model with
// bindings for its inputs and returns the gradient-model node of each
// requested result. Results that are template inputs resolve to their
// binding without splicing anything.
func (t *template) splice(m *model.Model, bindings []graph.NodeID, results ...string) ([]graph.NodeID, error) {
	nodes := make([]graph.NodeID, len(results))
	var declared []string
	for i, r := range results {
		if j := slices.Index(t.inputs, r); j >= 0 {
			nodes[i] = bindings[j]
			continue
		}
		if !slices.Contains(declared, r) {
			declared = append(declared, r)
		}
	}
	if len(declared) == 0 {
		return nodes, nil
	}

	inputs := make([]model.ValueSpec, len(t.inputs))
	for i, name := range t.inputs {
		inputs[i] = model.ValueSpec{Name: name}
	}
	outputs := make([]model.ValueSpec, len(declared))
	for i, name := range declared {
		outputs[i] = model.ValueSpec{Name: name}
	}
	tmpl, err := model.New(inputs, outputs, t.ops, nil)
	if err != nil {
		return nil, fmt.Errorf("template: %w", err)
	}
	gm := m.Gradient()
	if gm == nil {
		return nil, fmt.Errorf("template: no gradient model: %w", errs.ErrNotFound)
	}
	spliced, err := model.InsertStructure(gm, tmpl, bindings)
	if err != nil {
		return nil, err
	}
	for i, r := range results {
		if j := slices.Index(declared, r); j >= 0 {
			nodes[i] = spliced[j]
		}
	}
	return nodes, nil
}

// SetOrAdd records contribution, a node of m's gradient model, as the
// gradient of primal value x, summing it with any gradient x already has.
func SetOrAdd(m *model.Model, x graph.ValueID, contribution graph.NodeID) error {
	return model.SetOrAdd(m, x, contribution)
}

// accumulate set-or-adds grads[i] into the gradient of ins[i] and returns ins.
func accumulate(m *model.Model, ins []graph.ValueID, grads []graph.NodeID) ([]graph.ValueID, error) {
	for i, in := range ins {
		if err := SetOrAdd(m, in, grads[i]); err != nil {
			return nil, err
		}
	}
	return ins, nil
}
