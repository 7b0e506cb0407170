package graph

import (
	"fmt"
	"slices"

	"github.com/born-ml/graphdiff/internal/arena"
	"github.com/born-ml/graphdiff/internal/errs"
)

// Graph owns a set of nodes addressed by id plus the next-id watermark.
//
// A Graph is not safe for concurrent use.
type Graph struct {
	nodes *arena.Arena[NodeID, *Node]
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{nodes: arena.New[NodeID, *Node]("node")}
}

// Insert adds n under its own id. It fails with ErrAlreadyExists if the id is taken.
// Edges already listed on n are kept as-is; callers inserting a batch of
// nodes are responsible for the batch being mutually consistent.
func (g *Graph) Insert(n *Node) error {
	return g.nodes.Insert(n.id, n)
}

// Node returns the node stored under id.
func (g *Graph) Node(id NodeID) (*Node, error) {
	return g.nodes.Get(id)
}

// Has reports whether id is present.
func (g *Graph) Has(id NodeID) bool {
	return g.nodes.Has(id)
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return g.nodes.Len()
}

// IDs returns every node id in ascending order.
func (g *Graph) IDs() []NodeID {
	return g.nodes.IDs()
}

// NextID returns the node-id watermark.
func (g *Graph) NextID() NodeID {
	return g.nodes.NextID()
}

// Reserve raises the node-id watermark to at least floor.
func (g *Graph) Reserve(floor NodeID) {
	g.nodes.Reserve(floor)
}

// Connect adds the edge from -> to on both endpoints.
func (g *Graph) Connect(from, to NodeID) error {
	src, err := g.nodes.Get(from)
	if err != nil {
		return fmt.Errorf("connect %d -> %d: %w", from, to, err)
	}
	dst, err := g.nodes.Get(to)
	if err != nil {
		return fmt.Errorf("connect %d -> %d: %w", from, to, err)
	}
	src.outputs = append(src.outputs, to)
	dst.inputs = append(dst.inputs, from)
	return nil
}

// RedirectInput makes consumer read from to wherever it read from from.
// Every occurrence is moved: to gains one output edge per occurrence and,
// when from is part of this graph, loses the matching output edges.
func (g *Graph) RedirectInput(consumer, from, to NodeID) error {
	c, err := g.nodes.Get(consumer)
	if err != nil {
		return fmt.Errorf("redirect input of %d: %w", consumer, err)
	}
	dst, err := g.nodes.Get(to)
	if err != nil {
		return fmt.Errorf("redirect input of %d to %d: %w", consumer, to, err)
	}
	if !slices.Contains(c.inputs, from) {
		return fmt.Errorf("node %d has no input %d: %w", consumer, from, errs.ErrNotFound)
	}

	count := replaceAll(c.inputs, from, to)
	for range count {
		dst.outputs = append(dst.outputs, consumer)
	}
	if src, err := g.nodes.Get(from); err == nil {
		src.outputs = removeN(src.outputs, consumer, count)
	}
	return nil
}

// SetPayload replaces the payload of node id.
func (g *Graph) SetPayload(id NodeID, p Payload) error {
	n, err := g.nodes.Get(id)
	if err != nil {
		return err
	}
	n.payload = p
	return nil
}

// Rename replaces the display name of node id.
func (g *Graph) Rename(id NodeID, name string) error {
	n, err := g.nodes.Get(id)
	if err != nil {
		return err
	}
	n.name = name
	return nil
}

// FindByName returns the lowest id whose node carries name.
func (g *Graph) FindByName(name string) (NodeID, error) {
	for _, id := range g.nodes.IDs() {
		n, _ := g.nodes.Get(id)
		if n.name == name {
			return id, nil
		}
	}
	return 0, fmt.Errorf("node %q: %w", name, errs.ErrNotFound)
}

// Reidentify moves node from to id to and rewrites every edge that referenced from.
func (g *Graph) Reidentify(from, to NodeID) error {
	n, err := g.nodes.Get(from)
	if err != nil {
		return fmt.Errorf("reidentify: %w", err)
	}
	if from == to {
		return nil
	}
	if err := g.nodes.Reidentify(from, to); err != nil {
		return err
	}
	n.id = to

	neighbours := make(map[NodeID]struct{}, len(n.inputs)+len(n.outputs))
	for _, id := range n.inputs {
		neighbours[id] = struct{}{}
	}
	for _, id := range n.outputs {
		neighbours[id] = struct{}{}
	}
	for id := range neighbours {
		if id == from {
			continue
		}
		nb, err := g.nodes.Get(id)
		if err != nil {
			// Edges may point outside this graph while a template is being spliced.
			continue
		}
		replaceAll(nb.inputs, from, to)
		replaceAll(nb.outputs, from, to)
	}
	replaceAll(n.inputs, from, to)
	replaceAll(n.outputs, from, to)
	return nil
}

// Detach hands every node over in ascending id order and leaves the graph
// empty. The watermark is kept.
func (g *Graph) Detach() []*Node {
	entries := g.nodes.Detach()
	nodes := make([]*Node, len(entries))
	for i, e := range entries {
		nodes[i] = e.Value
	}
	return nodes
}
