// Package model ties a graph to its value and operator arenas.
//
// A Model owns its graph, its arenas, the ordered input and output node
// lists and cached evaluation orders. Running Backward lazily creates a
// second Model, the gradient model, whose graph is built by splicing the
// local-derivative templates of every operator. Because the gradient model
// is itself a Model, it can be differentiated again.
package model

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/born-ml/graphdiff/internal/errs"
	"github.com/born-ml/graphdiff/internal/graph"
	"github.com/born-ml/graphdiff/internal/tensor"
	"github.com/google/uuid"
)

// ValueSpec declares a named value for New. Value may be nil for inputs
// and outputs that are populated later.
type ValueSpec struct {
	Name  string
	Value *tensor.RawTensor
}

// OperatorSpec declares a named operator for New, reading the values named
// in Inputs and writing the values named in Outputs.
type OperatorSpec struct {
	Name    string
	Inputs  []string
	Outputs []string
	Rule    Rule
}

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the logger used for forward/backward/splice events.
// Gradient models inherit it.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// Model is a computation graph together with the arenas its nodes point into.
//
// A Model is not safe for concurrent use.
type Model struct {
	id        uuid.UUID
	depth     int
	graph     *graph.Graph
	values    *ValueArena
	operators *OperatorArena

	inputs  []graph.NodeID
	outputs []graph.NodeID

	forwardOrder  []graph.NodeID
	backwardOrder []graph.NodeID

	gradient *Model
	// mirrors maps primal value ids to gradient-model value nodes holding a
	// copy of their payload.
	mirrors map[graph.ValueID]graph.NodeID

	logger *slog.Logger
}

func newEmpty(depth int, opts ...Option) *Model {
	m := &Model{
		id:        uuid.New(),
		depth:     depth,
		graph:     graph.New(),
		values:    newValueArena(),
		operators: newOperatorArena(),
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// New builds a Model from named declarations.
//
// Every input, output and initializer gets a value node. Every operator gets
// an operator node wired from the value nodes named in its inputs to the
// value nodes named in its outputs. An operator output that names a
// declared output is wired to it; any other unseen name becomes an internal
// value. Names must be unique; unknown input names fail with ErrNotFound.
func New(inputs, outputs []ValueSpec, operators []OperatorSpec, initializers []ValueSpec, opts ...Option) (*Model, error) {
	m := newEmpty(0, opts...)
	b := builder{
		m:         m,
		byName:    make(map[string]graph.NodeID),
		operators: make(map[string]bool),
		produced:  make(map[graph.NodeID]bool),
	}

	for _, spec := range inputs {
		id, err := b.declareValue(spec)
		if err != nil {
			return nil, fmt.Errorf("input: %w", err)
		}
		m.inputs = append(m.inputs, id)
	}
	declaredOutputs := make(map[graph.NodeID]bool, len(outputs))
	for _, spec := range outputs {
		id, err := b.declareValue(spec)
		if err != nil {
			return nil, fmt.Errorf("output: %w", err)
		}
		m.outputs = append(m.outputs, id)
		declaredOutputs[id] = true
	}
	for _, spec := range initializers {
		if spec.Value == nil {
			return nil, fmt.Errorf("initializer %q: %w", spec.Name, errs.ErrUnset)
		}
		if _, err := b.declareValue(spec); err != nil {
			return nil, fmt.Errorf("initializer: %w", err)
		}
	}
	for _, spec := range operators {
		if err := b.declareOperator(spec, declaredOutputs); err != nil {
			return nil, fmt.Errorf("operator %q: %w", spec.Name, err)
		}
	}
	return m, nil
}

type builder struct {
	m        *Model
	byName    map[string]graph.NodeID
	operators map[string]bool
	produced  map[graph.NodeID]bool
}

func (b *builder) claim(name string) error {
	if name == "" {
		return fmt.Errorf("empty name: %w", errs.ErrInvalidParameter)
	}
	if _, ok := b.byName[name]; ok {
		return fmt.Errorf("name %q: %w", name, errs.ErrDuplicate)
	}
	return nil
}

func (b *builder) declareValue(spec ValueSpec) (graph.NodeID, error) {
	if err := b.claim(spec.Name); err != nil {
		return 0, err
	}
	id, _, err := b.m.AddValue(spec.Name, spec.Value)
	if err != nil {
		return 0, err
	}
	b.byName[spec.Name] = id
	return id, nil
}

func (b *builder) declareOperator(spec OperatorSpec, declaredOutputs map[graph.NodeID]bool) error {
	if spec.Rule == nil {
		return fmt.Errorf("missing rule: %w", errs.ErrInvalidParameter)
	}
	if err := b.claim(spec.Name); err != nil {
		return err
	}
	ins := make([]graph.NodeID, len(spec.Inputs))
	for i, name := range spec.Inputs {
		id, ok := b.byName[name]
		if !ok || b.operators[name] {
			return fmt.Errorf("input %q: no such value: %w", name, errs.ErrNotFound)
		}
		ins[i] = id
	}
	outs := make([]graph.NodeID, len(spec.Outputs))
	fresh := make([]string, 0, len(spec.Outputs))
	for i, name := range spec.Outputs {
		id, ok := b.byName[name]
		switch {
		case ok && declaredOutputs[id] && !b.produced[id]:
			outs[i] = id
		case ok:
			return fmt.Errorf("output %q already defined: %w", name, errs.ErrDuplicate)
		case slices.Contains(fresh, name):
			return fmt.Errorf("output %q listed twice: %w", name, errs.ErrDuplicate)
		default:
			fresh = append(fresh, name)
		}
	}

	opNode, _, err := b.m.AddOperator(spec.Name, spec.Rule)
	if err != nil {
		return err
	}
	b.byName[spec.Name] = opNode
	b.operators[spec.Name] = true
	for i, name := range spec.Outputs {
		if _, ok := b.byName[name]; !ok {
			id, _, err := b.m.AddValue(name, nil)
			if err != nil {
				return err
			}
			b.byName[name] = id
			outs[i] = id
		}
		b.produced[outs[i]] = true
	}
	for _, in := range ins {
		if err := b.m.graph.Connect(in, opNode); err != nil {
			return err
		}
	}
	for _, out := range outs {
		if err := b.m.graph.Connect(opNode, out); err != nil {
			return err
		}
	}
	return nil
}

// AddValue creates a value node named name holding t (nil means unset) and
// returns the new node and value ids.
func (m *Model) AddValue(name string, t *tensor.RawTensor) (graph.NodeID, graph.ValueID, error) {
	vid := m.values.NextID()
	nid := m.graph.NextID()
	if err := m.values.Insert(vid, NewValue(t)); err != nil {
		return 0, 0, err
	}
	if err := m.graph.Insert(graph.NewNode(nid, name, graph.ValuePayload(vid))); err != nil {
		return 0, 0, err
	}
	if err := m.values.attach(vid, nid); err != nil {
		return 0, 0, err
	}
	m.invalidate()
	return nid, vid, nil
}

// AddOperator creates an unconnected operator node running rule.
func (m *Model) AddOperator(name string, rule Rule) (graph.NodeID, graph.OperatorID, error) {
	oid := m.operators.NextID()
	nid := m.graph.NextID()
	if err := m.operators.Insert(oid, NewOperator(rule)); err != nil {
		return 0, 0, err
	}
	if err := m.graph.Insert(graph.NewNode(nid, name, graph.OperatorPayload(oid))); err != nil {
		return 0, 0, err
	}
	if err := m.operators.attach(oid, nid); err != nil {
		return 0, 0, err
	}
	m.invalidate()
	return nid, oid, nil
}

// ID returns the model's unique identifier, used to correlate log records.
func (m *Model) ID() uuid.UUID { return m.id }

// Depth returns 0 for a model built with New, 1 for its gradient model and so on.
func (m *Model) Depth() int { return m.depth }

// Graph returns the underlying graph.
func (m *Model) Graph() *graph.Graph { return m.graph }

// Values returns the value arena.
func (m *Model) Values() *ValueArena { return m.values }

// Operators returns the operator arena.
func (m *Model) Operators() *OperatorArena { return m.operators }

// Inputs returns the ordered input node ids.
func (m *Model) Inputs() []graph.NodeID { return slices.Clone(m.inputs) }

// Outputs returns the ordered output node ids.
func (m *Model) Outputs() []graph.NodeID { return slices.Clone(m.outputs) }

// Gradient returns the gradient model, or nil before the first Backward.
func (m *Model) Gradient() *Model { return m.gradient }

// Logger returns the model's logger.
func (m *Model) Logger() *slog.Logger { return m.logger }

// ValueOf returns the value id carried by node.
func (m *Model) ValueOf(node graph.NodeID) (graph.ValueID, error) {
	n, err := m.graph.Node(node)
	if err != nil {
		return 0, err
	}
	id, err := n.Payload().ValueID()
	if err != nil {
		return 0, fmt.Errorf("node %q: %w", n.Name(), err)
	}
	return id, nil
}

// OperatorOf returns the operator carried by node.
func (m *Model) OperatorOf(node graph.NodeID) (*Operator, error) {
	n, err := m.graph.Node(node)
	if err != nil {
		return nil, err
	}
	id, err := n.Payload().OperatorID()
	if err != nil {
		return nil, fmt.Errorf("node %q: %w", n.Name(), err)
	}
	return m.operators.Get(id)
}

// NodeOf returns the node owning value id.
func (m *Model) NodeOf(id graph.ValueID) (graph.NodeID, error) {
	v, err := m.values.Get(id)
	if err != nil {
		return 0, err
	}
	node, ok := v.Node()
	if !ok {
		return 0, fmt.Errorf("value %d is detached: %w", id, errs.ErrNotFound)
	}
	return node, nil
}

// OperatorIO returns the value ids wired into and out of operator node.
func (m *Model) OperatorIO(node graph.NodeID) (inputs, outputs []graph.ValueID, err error) {
	n, err := m.graph.Node(node)
	if err != nil {
		return nil, nil, err
	}
	if !n.Payload().IsOperator() {
		return nil, nil, fmt.Errorf("node %q is %s: %w", n.Name(), n.Payload(), errs.ErrTypeMismatch)
	}
	inputs, err = m.valuesOf(n.Inputs())
	if err != nil {
		return nil, nil, err
	}
	outputs, err = m.valuesOf(n.Outputs())
	if err != nil {
		return nil, nil, err
	}
	return inputs, outputs, nil
}

func (m *Model) valuesOf(nodes []graph.NodeID) ([]graph.ValueID, error) {
	ids := make([]graph.ValueID, len(nodes))
	for i, node := range nodes {
		id, err := m.ValueOf(node)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

// ValueByName returns the value id of the value node called name.
func (m *Model) ValueByName(name string) (graph.ValueID, error) {
	node, err := m.graph.FindByName(name)
	if err != nil {
		return 0, err
	}
	return m.ValueOf(node)
}

// Value returns the payload of the value node called name.
func (m *Model) Value(name string) (*tensor.RawTensor, error) {
	id, err := m.ValueByName(name)
	if err != nil {
		return nil, err
	}
	p, err := m.values.Payload(id)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", name, err)
	}
	return p, nil
}

// SetInput replaces the payload of the value node called name.
func (m *Model) SetInput(name string, t *tensor.RawTensor) error {
	id, err := m.ValueByName(name)
	if err != nil {
		return err
	}
	return m.values.SetPayload(id, t)
}

func (m *Model) invalidate() {
	m.forwardOrder = nil
	m.backwardOrder = nil
}

func (m *Model) order(dir graph.Direction) ([]graph.NodeID, error) {
	cached := &m.forwardOrder
	if dir == graph.Reverse {
		cached = &m.backwardOrder
	}
	if *cached != nil {
		return *cached, nil
	}
	order, err := m.graph.TopologicalSort(dir)
	if err != nil {
		return nil, err
	}
	*cached = order
	return order, nil
}

func (m *Model) nodeName(id graph.NodeID) string {
	n, err := m.graph.Node(id)
	if err != nil {
		return fmt.Sprintf("#%d", id)
	}
	return n.Name()
}
