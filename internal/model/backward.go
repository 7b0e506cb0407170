package model

import (
	"fmt"
	"slices"
	"time"

	"github.com/born-ml/graphdiff/internal/errs"
	"github.com/born-ml/graphdiff/internal/graph"
	"github.com/born-ml/graphdiff/internal/tensor"
)

// Backward differentiates the value node called name. See BackwardNode.
func (m *Model) Backward(name string) error {
	node, err := m.graph.FindByName(name)
	if err != nil {
		return fmt.Errorf("backward: %w", err)
	}
	return m.BackwardNode(node)
}

// BackwardNode builds, inside the gradient model, the computation of the
// derivative of target with respect to every value it depends on.
//
// The target must hold a payload, normally from a prior Forward. Each pass
// seeds the target with a value of ones named grad(<name>) and visits the
// operators in reverse topological order; each rule splices its local
// derivative into the gradient model. A pass propagates only its own
// contributions: gradients left by earlier passes are set aside first and
// summed with the new ones at the end, so calling BackwardNode again
// accumulates. Use ClearGradients to start over.
//
// Only the structure is built. Run Forward on Gradient() to obtain numbers.
func (m *Model) BackwardNode(target graph.NodeID) error {
	name := m.nodeName(target)
	vid, err := m.ValueOf(target)
	if err != nil {
		return fmt.Errorf("backward: %w", err)
	}
	payload, err := m.values.Payload(vid)
	if err != nil {
		return fmt.Errorf("backward %q: %w", name, err)
	}
	order, err := m.order(graph.Reverse)
	if err != nil {
		return fmt.Errorf("backward: %w", err)
	}

	start := time.Now()
	gm := m.ensureGradient()
	if err := m.refreshMirrors(); err != nil {
		return fmt.Errorf("backward %q: %w", name, err)
	}
	prior := m.values.takeGradients()
	visited, err := m.propagate(vid, name, payload, order)
	if err != nil {
		m.values.ClearGradients()
		for id, grad := range prior {
			_ = m.values.SetGradient(id, grad)
		}
		return err
	}
	if err := m.mergeGradients(prior); err != nil {
		return fmt.Errorf("backward %q: %w", name, err)
	}

	m.logger.Debug("backward complete",
		"model", m.id,
		"depth", m.depth,
		"target", name,
		"operators", visited,
		"gradient_nodes", gm.graph.Len(),
		"elapsed", time.Since(start))
	return nil
}

// propagate seeds target and runs every operator's backward rule in order.
// It returns the number of operators visited.
func (m *Model) propagate(vid graph.ValueID, name string, payload *tensor.RawTensor, order []graph.NodeID) (int, error) {
	_, seed, err := m.gradient.AddValue("grad("+name+")", tensor.OnesLike(payload))
	if err != nil {
		return 0, fmt.Errorf("backward %q: seed: %w", name, err)
	}
	if err := m.values.SetGradient(vid, seed); err != nil {
		return 0, fmt.Errorf("backward %q: seed: %w", name, err)
	}

	visited := 0
	for _, id := range order {
		n, err := m.graph.Node(id)
		if err != nil {
			return visited, fmt.Errorf("backward: %w", err)
		}
		if !n.Payload().IsOperator() {
			continue
		}
		op, err := m.OperatorOf(id)
		if err != nil {
			return visited, fmt.Errorf("backward: %w", err)
		}
		if _, err := op.rule.Backward(id, m); err != nil {
			return visited, fmt.Errorf("backward %s %q: %w", op.rule.Name(), n.Name(), err)
		}
		visited++
	}
	return visited, nil
}

// mergeGradients folds the gradients of earlier passes back in, summing
// them with this pass's contribution where both exist.
func (m *Model) mergeGradients(prior map[graph.ValueID]graph.ValueID) error {
	ids := make([]graph.ValueID, 0, len(prior))
	for id := range prior {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		old := prior[id]
		fresh, ok, err := m.values.Gradient(id)
		if err != nil {
			return err
		}
		if !ok {
			if err := m.values.SetGradient(id, old); err != nil {
				return err
			}
			continue
		}
		freshNode, err := m.gradient.NodeOf(fresh)
		if err != nil {
			return err
		}
		if err := m.values.SetGradient(id, old); err != nil {
			return err
		}
		if err := SetOrAdd(m, id, freshNode); err != nil {
			return err
		}
	}
	return nil
}

// ensureGradient returns the gradient model, creating it on first use. Its
// watermarks start at the primal's so ids never coincide across the two.
func (m *Model) ensureGradient() *Model {
	if m.gradient != nil {
		return m.gradient
	}
	gm := newEmpty(m.depth+1, WithLogger(m.logger))
	gm.graph.Reserve(m.graph.NextID())
	gm.values.items.Reserve(m.values.NextID())
	gm.operators.items.Reserve(m.operators.NextID())
	m.gradient = gm
	m.mirrors = make(map[graph.ValueID]graph.NodeID)
	m.logger.Debug("gradient model created", "model", m.id, "gradient", gm.id, "depth", gm.depth)
	return gm
}

// Mirror returns the gradient-model node holding a copy of the payload of
// primal value id, creating it on first use. Rules bind primal operands
// through mirrors so the derivative structure can itself be differentiated.
// Mirrors are refreshed from the primal at the start of every backward pass.
func (m *Model) Mirror(id graph.ValueID) (graph.NodeID, error) {
	gm := m.ensureGradient()
	if node, ok := m.mirrors[id]; ok && gm.graph.Has(node) {
		return node, nil
	}
	p, err := m.values.Payload(id)
	if err != nil {
		return 0, err
	}
	owner, err := m.NodeOf(id)
	if err != nil {
		return 0, err
	}
	node, _, err := gm.AddValue(m.nodeName(owner), p.Clone())
	if err != nil {
		return 0, err
	}
	m.mirrors[id] = node
	return node, nil
}

func (m *Model) refreshMirrors() error {
	for id, node := range m.mirrors {
		p, err := m.values.Payload(id)
		if err != nil {
			return err
		}
		gv, err := m.gradient.ValueOf(node)
		if err != nil {
			return err
		}
		if err := m.gradient.values.SetPayload(gv, p.Clone()); err != nil {
			return err
		}
	}
	return nil
}

// OutputGradient returns the gradient-model node holding the gradient of
// primal value id. ok is false when no gradient flows into id.
func (m *Model) OutputGradient(id graph.ValueID) (node graph.NodeID, ok bool, err error) {
	grad, ok, err := m.values.Gradient(id)
	if err != nil || !ok {
		return 0, false, err
	}
	if m.gradient == nil {
		return 0, false, fmt.Errorf("value %d has a gradient but no gradient model: %w", id, errs.ErrNotFound)
	}
	node, err = m.gradient.NodeOf(grad)
	if err != nil {
		return 0, false, err
	}
	return node, true, nil
}

// GradientNode returns the gradient-model node holding the gradient of the
// value node called name.
func (m *Model) GradientNode(name string) (graph.NodeID, error) {
	id, err := m.ValueByName(name)
	if err != nil {
		return 0, err
	}
	node, ok, err := m.OutputGradient(id)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("gradient of %q: %w", name, errs.ErrNotFound)
	}
	return node, nil
}

// Grad returns the evaluated gradient of the value node called name. The
// gradient model must have been run with Forward.
func (m *Model) Grad(name string) (*tensor.RawTensor, error) {
	node, err := m.GradientNode(name)
	if err != nil {
		return nil, err
	}
	gv, err := m.gradient.ValueOf(node)
	if err != nil {
		return nil, err
	}
	p, err := m.gradient.values.Payload(gv)
	if err != nil {
		return nil, fmt.Errorf("gradient of %q: %w", name, err)
	}
	return p, nil
}

// ClearGradients discards the gradient model and every gradient id.
func (m *Model) ClearGradients() {
	m.values.ClearGradients()
	m.gradient = nil
	m.mirrors = nil
}
