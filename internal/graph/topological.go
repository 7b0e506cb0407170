package graph

import (
	"fmt"

	"github.com/born-ml/graphdiff/internal/errs"
)

// Direction selects which edge list a topological sort follows.
type Direction int

const (
	// Forward orders every node after all of its inputs.
	Forward Direction = iota
	// Reverse orders every node after all of its outputs.
	Reverse
)

// String returns the direction name.
func (d Direction) String() string {
	if d == Reverse {
		return "reverse"
	}
	return "forward"
}

// TopologicalSort orders every node of the graph along direction.
//
// Algorithm:
//  1. Seed a FIFO queue with every node (ascending id) whose prerequisite
//     list is empty: inputs for Forward, outputs for Reverse.
//  2. Pop a node. Skip it if already emitted. Emit it if all of its
//     prerequisites were emitted and enqueue its dependents; otherwise
//     requeue it at the back.
//  3. Stop when every node is emitted.
//
// If a full pass over the queue requeues every entry without emitting
// anything, or the queue drains before every node is emitted, the graph has
// a cycle and ErrNotAcyclic is returned.
func (g *Graph) TopologicalSort(dir Direction) ([]NodeID, error) {
	total := g.nodes.Len()
	order := make([]NodeID, 0, total)
	emitted := make(map[NodeID]bool, total)

	prereqs := func(n *Node) []NodeID {
		if dir == Reverse {
			return n.outputs
		}
		return n.inputs
	}
	dependents := func(n *Node) []NodeID {
		if dir == Reverse {
			return n.inputs
		}
		return n.outputs
	}

	queue := make([]NodeID, 0, total)
	for _, id := range g.nodes.IDs() {
		n, _ := g.nodes.Get(id)
		if len(prereqs(n)) == 0 {
			queue = append(queue, id)
		}
	}

	stalls := 0
	for len(queue) > 0 && len(order) < total {
		id := queue[0]
		queue = queue[1:]
		if emitted[id] {
			stalls = 0
			continue
		}
		n, err := g.nodes.Get(id)
		if err != nil {
			return nil, fmt.Errorf("topological sort: %w", err)
		}

		if g.ready(prereqs(n), emitted) {
			emitted[id] = true
			order = append(order, id)
			queue = append(queue, dependents(n)...)
			stalls = 0
			continue
		}

		queue = append(queue, id)
		stalls++
		if stalls >= len(queue) {
			return nil, fmt.Errorf("topological sort (%s): no progress with %d of %d nodes ordered: %w",
				dir, len(order), total, errs.ErrNotAcyclic)
		}
	}

	if len(order) < total {
		return nil, fmt.Errorf("topological sort (%s): %d of %d nodes reachable: %w",
			dir, len(order), total, errs.ErrNotAcyclic)
	}
	return order, nil
}

func (g *Graph) ready(prereqs []NodeID, emitted map[NodeID]bool) bool {
	for _, p := range prereqs {
		if !emitted[p] {
			return false
		}
	}
	return true
}
