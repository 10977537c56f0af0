package scene

import "fmt"

// Handle is a generation-checked index into one of the scene's entity tables. The zero
// Handle is invalid. A handle taken before Release never resolves afterwards, even when
// its slot is reused.
type Handle[T any] struct {
	index      uint32
	generation uint32
}

// EffectHandle refers to an Effect in the scene registry.
type EffectHandle = Handle[Effect]

// ModelHandle refers to a Model in the scene registry.
type ModelHandle = Handle[Model]

// ActorHandle refers to an Actor in the scene registry.
type ActorHandle = Handle[Actor]

// RenderPassHandle refers to a RenderPass in the scene registry.
type RenderPassHandle = Handle[RenderPass]

// IsValid reports whether the handle was ever issued.
//
// Returns:
//   - bool: false for the zero Handle
func (h Handle[T]) IsValid() bool {
	return h.generation != 0
}

// String formats the handle as index:generation.
func (h Handle[T]) String() string {
	return fmt.Sprintf("%d:%d", h.index, h.generation)
}

type slot[T any] struct {
	value      *T
	generation uint32
}

// table is a named arena: slots addressed by Handle, a name index and the registration
// order used for every ordered walk.
type table[T any] struct {
	kind  Kind
	slots []slot[T]
	free  []uint32
	names map[string]Handle[T]
	order []Handle[T]
}

func newTable[T any](kind Kind) *table[T] {
	return &table[T]{
		kind:  kind,
		names: make(map[string]Handle[T]),
	}
}

func (t *table[T]) insert(name string, value *T) (Handle[T], error) {
	if _, ok := t.names[name]; ok {
		return Handle[T]{}, &DuplicateNameError{Kind: t.kind, Name: name}
	}

	var idx uint32
	if n := len(t.free); n > 0 {
		idx = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		idx = uint32(len(t.slots))
		t.slots = append(t.slots, slot[T]{})
	}

	s := &t.slots[idx]
	s.generation++
	s.value = value
	h := Handle[T]{index: idx, generation: s.generation}
	t.names[name] = h
	t.order = append(t.order, h)
	return h, nil
}

func (t *table[T]) get(h Handle[T]) (*T, bool) {
	if !h.IsValid() || int(h.index) >= len(t.slots) {
		return nil, false
	}
	s := t.slots[h.index]
	if s.generation != h.generation || s.value == nil {
		return nil, false
	}
	return s.value, true
}

func (t *table[T]) lookup(name string) (Handle[T], *T, bool) {
	h, ok := t.names[name]
	if !ok {
		return Handle[T]{}, nil, false
	}
	v, ok := t.get(h)
	return h, v, ok
}

func (t *table[T]) len() int {
	return len(t.order)
}

// each walks live entries in registration order until fn returns false.
func (t *table[T]) each(fn func(h Handle[T], v *T) bool) {
	for _, h := range t.order {
		v, ok := t.get(h)
		if !ok {
			continue
		}
		if !fn(h, v) {
			return
		}
	}
}

// eachReverse walks live entries in reverse registration order.
func (t *table[T]) eachReverse(fn func(h Handle[T], v *T)) {
	for i := len(t.order) - 1; i >= 0; i-- {
		if v, ok := t.get(t.order[i]); ok {
			fn(t.order[i], v)
		}
	}
}

func (t *table[T]) values() []*T {
	out := make([]*T, 0, len(t.order))
	t.each(func(_ Handle[T], v *T) bool {
		out = append(out, v)
		return true
	})
	return out
}

// clear empties the table. Every slot moves to the free list with its generation kept,
// so handles issued before the clear stop resolving.
func (t *table[T]) clear() {
	t.free = t.free[:0]
	for i := len(t.slots) - 1; i >= 0; i-- {
		t.slots[i].value = nil
		t.free = append(t.free, uint32(i))
	}
	clear(t.names)
	t.order = t.order[:0]
}
