// Package arena provides an identifier-addressed store of owned records.
//
// Records are inserted under caller-chosen ids so that two arenas can be
// merged deterministically. Each arena keeps a monotonic watermark of the
// next free id, updated on every insertion as next = max(next, id) + 1.
package arena

import (
	"fmt"
	"slices"

	"github.com/born-ml/graphdiff/internal/errs"
)

// ID is the constraint for arena keys.
type ID interface {
	~uint64
}

// Entry pairs a record with its id.
type Entry[K ID, V any] struct {
	ID    K
	Value V
}

// Arena stores records of type V keyed by ids of type K.
//
// An Arena is not safe for concurrent use.
type Arena[K ID, V any] struct {
	kind  string
	items map[K]V
	next  K
}

// New creates an empty arena. kind names the records in error messages.
func New[K ID, V any](kind string) *Arena[K, V] {
	return &Arena[K, V]{
		kind:  kind,
		items: make(map[K]V),
	}
}

// Insert stores v under id. It fails with ErrAlreadyExists if id is taken.
func (a *Arena[K, V]) Insert(id K, v V) error {
	if _, ok := a.items[id]; ok {
		return fmt.Errorf("%s %d: %w", a.kind, id, errs.ErrAlreadyExists)
	}
	a.items[id] = v
	a.bump(id)
	return nil
}

// Get returns the record stored under id.
func (a *Arena[K, V]) Get(id K) (V, error) {
	v, ok := a.items[id]
	if !ok {
		var zero V
		return zero, fmt.Errorf("%s %d: %w", a.kind, id, errs.ErrNotFound)
	}
	return v, nil
}

// Has reports whether id is present.
func (a *Arena[K, V]) Has(id K) bool {
	_, ok := a.items[id]
	return ok
}

// Reidentify moves the record stored under from to id to.
func (a *Arena[K, V]) Reidentify(from, to K) error {
	v, ok := a.items[from]
	if !ok {
		return fmt.Errorf("reidentify %s %d: %w", a.kind, from, errs.ErrNotFound)
	}
	if from == to {
		return nil
	}
	if _, taken := a.items[to]; taken {
		return fmt.Errorf("reidentify %s %d to %d: %w", a.kind, from, to, errs.ErrAlreadyExists)
	}
	delete(a.items, from)
	a.items[to] = v
	a.bump(to)
	return nil
}

// Delete removes the record stored under id.
func (a *Arena[K, V]) Delete(id K) error {
	if _, ok := a.items[id]; !ok {
		return fmt.Errorf("delete %s %d: %w", a.kind, id, errs.ErrNotFound)
	}
	delete(a.items, id)
	return nil
}

// Detach hands every record over to the caller in ascending id order and
// leaves the arena empty. The watermark is kept.
func (a *Arena[K, V]) Detach() []Entry[K, V] {
	entries := make([]Entry[K, V], 0, len(a.items))
	for _, id := range a.IDs() {
		entries = append(entries, Entry[K, V]{ID: id, Value: a.items[id]})
	}
	a.items = make(map[K]V)
	return entries
}

// IDs returns every id in ascending order.
func (a *Arena[K, V]) IDs() []K {
	ids := make([]K, 0, len(a.items))
	for id := range a.items {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Len returns the number of records.
func (a *Arena[K, V]) Len() int {
	return len(a.items)
}

// NextID returns the watermark: every id ever inserted is below it.
func (a *Arena[K, V]) NextID() K {
	return a.next
}

// Reserve raises the watermark to at least floor.
func (a *Arena[K, V]) Reserve(floor K) {
	a.next = max(a.next, floor)
}

func (a *Arena[K, V]) bump(id K) {
	a.next = max(a.next, id) + 1
}
