package session

import "sync"

// Cell is a write-once slot. The first Initialize wins; Acquire returns a
// copy so holders cannot change what later callers see.
type Cell[T any] struct {
	mu    sync.Mutex
	set   bool
	value T
	clone func(T) T
}

// NewCell creates an empty cell. clone deep-copies values with reference
// fields; nil means plain assignment is already a copy.
func NewCell[T any](clone func(T) T) *Cell[T] {
	return &Cell[T]{clone: clone}
}

// Initialize stores v and reports true, or reports false and leaves the
// existing value untouched if the cell was already set.
func (c *Cell[T]) Initialize(v T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.set {
		return false
	}
	c.value = c.copy(v)
	c.set = true
	return true
}

// Acquire returns a copy of the stored value, or false if the cell is empty.
func (c *Cell[T]) Acquire() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.set {
		var zero T
		return zero, false
	}
	return c.copy(c.value), true
}

func (c *Cell[T]) copy(v T) T {
	if c.clone == nil {
		return v
	}
	return c.clone(v)
}

// Registry holds the session of the current loader process.
var Registry = NewCell[Session](nil)
