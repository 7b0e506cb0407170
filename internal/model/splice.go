package model

import (
	"fmt"
	"slices"

	"github.com/born-ml/graphdiff/internal/errs"
	"github.com/born-ml/graphdiff/internal/graph"
)

// InsertStructure moves the contents of template into target and returns,
// for each template output, the id of the corresponding node in target.
//
// Template inputs are placeholders: bindings[i] names the target node that
// takes the place of the i-th template input. Placeholders are dropped and
// every template node that read one reads the binding instead. All moved
// nodes, values and operators are renumbered above both watermarks so no
// pre-existing target id changes meaning. A template output that is itself a
// placeholder maps to its binding.
//
// The template is consumed: it is left empty, keeping only its watermarks.
// On an arity mismatch or an unknown binding nothing is modified.
func InsertStructure(target, template *Model, bindings []graph.NodeID) ([]graph.NodeID, error) {
	if len(bindings) != len(template.inputs) {
		return nil, fmt.Errorf("insert structure: %d bindings for %d template inputs: %w",
			len(bindings), len(template.inputs), errs.ErrSizeMismatch)
	}
	for _, b := range bindings {
		if !target.graph.Has(b) {
			return nil, fmt.Errorf("insert structure: binding %d: %w", b, errs.ErrNotFound)
		}
		if _, err := target.ValueOf(b); err != nil {
			return nil, fmt.Errorf("insert structure: binding %d: %w", b, err)
		}
	}

	if err := template.renumber(
		max(target.graph.NextID(), template.graph.NextID()),
		max(target.values.NextID(), template.values.NextID()),
		max(target.operators.NextID(), template.operators.NextID()),
	); err != nil {
		return nil, fmt.Errorf("insert structure: %w", err)
	}

	placeholders := template.inputs
	consumers := make([][]graph.NodeID, len(placeholders))
	for i, ph := range placeholders {
		n, err := template.graph.Node(ph)
		if err != nil {
			return nil, fmt.Errorf("insert structure: placeholder: %w", err)
		}
		consumers[i] = uniq(n.Outputs())
		if vid, err := n.Payload().ValueID(); err == nil {
			if err := template.values.items.Delete(vid); err != nil {
				return nil, fmt.Errorf("insert structure: placeholder: %w", err)
			}
		}
	}

	for _, n := range template.graph.Detach() {
		if slices.Contains(placeholders, n.ID()) {
			continue
		}
		if err := target.graph.Insert(n); err != nil {
			return nil, fmt.Errorf("insert structure: %w", err)
		}
	}
	for _, e := range template.values.items.Detach() {
		if err := target.values.Insert(e.ID, e.Value); err != nil {
			return nil, fmt.Errorf("insert structure: %w", err)
		}
	}
	for _, e := range template.operators.items.Detach() {
		if err := target.operators.Insert(e.ID, e.Value); err != nil {
			return nil, fmt.Errorf("insert structure: %w", err)
		}
	}

	for i, ph := range placeholders {
		for _, c := range consumers[i] {
			if slices.Contains(placeholders, c) {
				continue
			}
			if err := target.graph.RedirectInput(c, ph, bindings[i]); err != nil {
				return nil, fmt.Errorf("insert structure: rewire placeholder %d: %w", i, err)
			}
		}
	}

	outputs := make([]graph.NodeID, len(template.outputs))
	for i, out := range template.outputs {
		outputs[i] = out
		if j := slices.Index(placeholders, out); j >= 0 {
			outputs[i] = bindings[j]
		}
	}

	template.inputs, template.outputs = nil, nil
	template.invalidate()
	target.invalidate()
	target.logger.Debug("structure inserted",
		"model", target.id,
		"depth", target.depth,
		"template", template.id,
		"bindings", len(bindings),
		"nodes", target.graph.Len())
	return outputs, nil
}

// renumber moves every node, value and operator of m to consecutive ids
// starting at the given floors. The floors must be at or above m's
// watermarks.
func (m *Model) renumber(nodeFloor graph.NodeID, valueFloor graph.ValueID, opFloor graph.OperatorID) error {
	next := valueFloor
	for _, id := range m.values.IDs() {
		if err := m.values.Reidentify(id, next, m.graph); err != nil {
			return err
		}
		next++
	}
	nextOp := opFloor
	for _, id := range m.operators.IDs() {
		if err := m.operators.Reidentify(id, nextOp, m.graph); err != nil {
			return err
		}
		nextOp++
	}
	nextNode := nodeFloor
	for _, id := range m.graph.IDs() {
		if err := m.reidentifyNode(id, nextNode); err != nil {
			return err
		}
		nextNode++
	}
	return nil
}

// reidentifyNode moves node from to id to, keeping the back-link of its
// value or operator and the input/output lists in sync.
func (m *Model) reidentifyNode(from, to graph.NodeID) error {
	n, err := m.graph.Node(from)
	if err != nil {
		return err
	}
	if err := m.graph.Reidentify(from, to); err != nil {
		return err
	}
	switch p := n.Payload(); p.Kind() {
	case graph.PayloadValue:
		vid, _ := p.ValueID()
		if err := m.values.attach(vid, to); err != nil {
			return err
		}
	case graph.PayloadOperator:
		oid, _ := p.OperatorID()
		if err := m.operators.attach(oid, to); err != nil {
			return err
		}
	}
	for i := range m.inputs {
		if m.inputs[i] == from {
			m.inputs[i] = to
		}
	}
	for i := range m.outputs {
		if m.outputs[i] == from {
			m.outputs[i] = to
		}
	}
	for v, node := range m.mirrors {
		if node == from {
			m.mirrors[v] = to
		}
	}
	m.invalidate()
	return nil
}

func uniq(ids []graph.NodeID) []graph.NodeID {
	out := make([]graph.NodeID, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
