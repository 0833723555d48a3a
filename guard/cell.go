package guard

import (
	"sync"

	"github.com/google/uuid"
)

// Destroyer is optionally implemented by resource values that need cleanup
// when the guard physically destroys them after a successful kill.
type Destroyer interface {
	Destroy()
}

// cell pairs a resource value with its status block. The owning registry or
// warden holds the only strong reference; handles reach the cell through the
// borrowing protocol and never retain it.
type cell[T any] struct {
	value  T
	status *status
	mu     sync.RWMutex
	id     string
}

func newCell[T any](value T) *cell[T] {
	return &cell[T]{
		value:  value,
		status: &status{},
		id:     uuid.New().String(),
	}
}

// destroy runs the value's destructor, if it has one. Called exactly once,
// on the kill path, after the zero-visitor judgment.
func (c *cell[T]) destroy() {
	if d, ok := any(c.value).(Destroyer); ok {
		d.Destroy()
	}
}
