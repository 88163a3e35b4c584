package history

import (
	"fmt"
	"iter"
)

// Buffer is a fixed-capacity ring buffer holding the most recent values pushed.
//
// The write cursor moves backwards on every push, so a forward scan starting
// one slot after the cursor visits values from newest to oldest without
// shifting any elements.
type Buffer[T any] struct {
	items  []T
	cursor int
}

// New creates a Buffer with the given capacity, every slot set to sentinel.
//
// Capacity is fixed for the lifetime of the Buffer. It panics if capacity
// is less than 1.
func New[T any](capacity int, sentinel T) *Buffer[T] {
	if capacity < 1 {
		panic(fmt.Sprintf("history: capacity must be at least 1, got %d", capacity))
	}

	items := make([]T, capacity)
	for i := range items {
		items[i] = sentinel
	}

	return &Buffer[T]{
		items:  items,
		cursor: capacity - 1,
	}
}

// Push stores value as the most recent entry, overwriting the oldest one.
func (b *Buffer[T]) Push(value T) {
	b.items[b.cursor] = value
	if b.cursor == 0 {
		b.cursor = len(b.items) - 1
	} else {
		b.cursor--
	}
}

// Get returns the value pushed i steps before the most recent push.
// Index 0 is the most recent value. The second return value is false when
// i is outside [0, Cap()).
func (b *Buffer[T]) Get(i int) (T, bool) {
	if i < 0 || i >= len(b.items) {
		var zero T
		return zero, false
	}
	return b.items[b.slot(i)], true
}

// At is the indexed form of Get. It panics when i is out of range.
func (b *Buffer[T]) At(i int) T {
	v, ok := b.Get(i)
	if !ok {
		panic(fmt.Sprintf("history: index %d out of range [0, %d)", i, len(b.items)))
	}
	return v
}

// All returns a sequence over every slot, most recent first.
//
// The sequence is lazy and may be ranged over any number of times; each
// iteration reflects the buffer contents at the time it runs.
func (b *Buffer[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for i := range b.items {
			if !yield(b.items[b.slot(i)]) {
				return
			}
		}
	}
}

// Values returns a copy of every slot, most recent first.
func (b *Buffer[T]) Values() []T {
	out := make([]T, 0, len(b.items))
	for v := range b.All() {
		out = append(out, v)
	}
	return out
}

// Cap returns the fixed number of slots.
func (b *Buffer[T]) Cap() int {
	return len(b.items)
}

// slot maps a most-recent-first index to a position in items.
func (b *Buffer[T]) slot(i int) int {
	return (b.cursor + 1 + i) % len(b.items)
}
