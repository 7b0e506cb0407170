package model

import (
	"fmt"

	"github.com/born-ml/graphdiff/internal/arena"
	"github.com/born-ml/graphdiff/internal/errs"
	"github.com/born-ml/graphdiff/internal/graph"
	"github.com/born-ml/graphdiff/internal/tensor"
)

// Value is a numeric payload owned by a value arena.
//
// The gradient id, when set, names a value in the gradient model's arena
// holding d(target)/d(this value).
type Value struct {
	node     graph.NodeID
	attached bool
	payload  *tensor.RawTensor
	grad     graph.ValueID
	hasGrad  bool
}

// NewValue creates a detached value. A nil payload means unset.
func NewValue(payload *tensor.RawTensor) *Value {
	return &Value{payload: payload}
}

// Node returns the owning node id, if the value is attached to one.
func (v *Value) Node() (graph.NodeID, bool) {
	return v.node, v.attached
}

// Payload returns the tensor, or nil while unset.
func (v *Value) Payload() *tensor.RawTensor {
	return v.payload
}

// Gradient returns the gradient value id, if one was assigned.
func (v *Value) Gradient() (graph.ValueID, bool) {
	return v.grad, v.hasGrad
}

// ValueArena stores the values of one model.
type ValueArena struct {
	items *arena.Arena[graph.ValueID, *Value]
}

func newValueArena() *ValueArena {
	return &ValueArena{items: arena.New[graph.ValueID, *Value]("value")}
}

// Insert stores v under id. It fails with ErrAlreadyExists if id is taken.
func (a *ValueArena) Insert(id graph.ValueID, v *Value) error {
	return a.items.Insert(id, v)
}

// Get returns the value stored under id.
func (a *ValueArena) Get(id graph.ValueID) (*Value, error) {
	return a.items.Get(id)
}

// Has reports whether id is present.
func (a *ValueArena) Has(id graph.ValueID) bool {
	return a.items.Has(id)
}

// IDs returns every value id in ascending order.
func (a *ValueArena) IDs() []graph.ValueID {
	return a.items.IDs()
}

// Len returns the number of values.
func (a *ValueArena) Len() int {
	return a.items.Len()
}

// NextID returns the value-id watermark.
func (a *ValueArena) NextID() graph.ValueID {
	return a.items.NextID()
}

// Reidentify moves value from to id to, keeping the payload of its backing
// node in g pointed at the new id.
func (a *ValueArena) Reidentify(from, to graph.ValueID, g *graph.Graph) error {
	v, err := a.items.Get(from)
	if err != nil {
		return err
	}
	if err := a.items.Reidentify(from, to); err != nil {
		return err
	}
	if v.attached {
		if err := g.SetPayload(v.node, graph.ValuePayload(to)); err != nil {
			return fmt.Errorf("value %d backing node: %w", to, err)
		}
	}
	return nil
}

// Payload returns the tensor of value id, or ErrUnset if it was never populated.
func (a *ValueArena) Payload(id graph.ValueID) (*tensor.RawTensor, error) {
	v, err := a.items.Get(id)
	if err != nil {
		return nil, err
	}
	if v.payload == nil {
		return nil, fmt.Errorf("value %d: %w", id, errs.ErrUnset)
	}
	return v.payload, nil
}

// SetPayload replaces the tensor of value id.
func (a *ValueArena) SetPayload(id graph.ValueID, t *tensor.RawTensor) error {
	v, err := a.items.Get(id)
	if err != nil {
		return err
	}
	v.payload = t
	return nil
}

// Gradient returns the gradient value id of value id, if assigned.
func (a *ValueArena) Gradient(id graph.ValueID) (graph.ValueID, bool, error) {
	v, err := a.items.Get(id)
	if err != nil {
		return 0, false, err
	}
	return v.grad, v.hasGrad, nil
}

// SetGradient points value id at gradient value grad.
func (a *ValueArena) SetGradient(id, grad graph.ValueID) error {
	v, err := a.items.Get(id)
	if err != nil {
		return err
	}
	v.grad = grad
	v.hasGrad = true
	return nil
}

// ClearGradients drops every gradient id.
func (a *ValueArena) ClearGradients() {
	for _, id := range a.items.IDs() {
		v, _ := a.items.Get(id)
		v.grad, v.hasGrad = 0, false
	}
}

// takeGradients drops every gradient id and returns the dropped ones.
func (a *ValueArena) takeGradients() map[graph.ValueID]graph.ValueID {
	taken := make(map[graph.ValueID]graph.ValueID)
	for _, id := range a.items.IDs() {
		v, _ := a.items.Get(id)
		if v.hasGrad {
			taken[id] = v.grad
		}
		v.grad, v.hasGrad = 0, false
	}
	return taken
}

// OnesLike returns a tensor of ones shaped like the payload of value id.
func (a *ValueArena) OnesLike(id graph.ValueID) (*tensor.RawTensor, error) {
	p, err := a.Payload(id)
	if err != nil {
		return nil, err
	}
	return tensor.OnesLike(p), nil
}

// ZerosLike returns a tensor of zeros shaped like the payload of value id.
func (a *ValueArena) ZerosLike(id graph.ValueID) (*tensor.RawTensor, error) {
	p, err := a.Payload(id)
	if err != nil {
		return nil, err
	}
	return tensor.ZerosLike(p), nil
}

func (a *ValueArena) attach(id graph.ValueID, node graph.NodeID) error {
	v, err := a.items.Get(id)
	if err != nil {
		return err
	}
	v.node, v.attached = node, true
	return nil
}
