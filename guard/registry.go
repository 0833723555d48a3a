package guard

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/victoralfred/sovereign/internal/slotmap"
)

// Registry holds exclusive custody of any number of resources, keyed by
// opaque generation-stamped handles. The structural lock is held only for
// O(1) slot operations, never across a borrow callback, so a long-running
// borrow on one resource cannot stall a kill on another.
type Registry[T any] struct {
	mu       sync.RWMutex
	cells    *slotmap.Map[*cell[T]]
	closed   bool
	settings settings
}

// NewRegistry creates an empty registry.
func NewRegistry[T any](opts ...Option) *Registry[T] {
	s := newSettings(opts)
	return &Registry[T]{
		cells:    slotmap.New[*cell[T]](s.capacity),
		settings: s,
	}
}

// Register takes ownership of resource and returns the handle that refers
// to it. The handle is cheap to copy and grants no direct access; it only
// entitles the holder to request scoped borrows.
func (r *Registry[T]) Register(resource T) (Handle[T], error) {
	c := newCell(resource)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return Handle[T]{}, NewClosedError("register")
	}
	key := r.cells.Insert(c)
	r.mu.Unlock()

	r.settings.logger.Debug("resource registered", zap.String("resource_id", c.id))
	r.settings.record(MetricRegistrations, nil)
	r.settings.notify(Event{Type: EventRegistered, ResourceID: c.id, At: time.Now()})

	return Handle[T]{registry: r, key: key}, nil
}

// ForceKill terminates the resource behind h. The slot is removed under the
// structural lock, invalidating every copy of the handle, then the kill
// latch is set and the visitor count judged: zero visitors means the value
// is destroyed and ForceKill returns true; lingering visitors are a fatal
// violation routed through the Discipline, which does not return.
//
// A stale or foreign handle is a no-op returning false, so a second kill of
// the same resource is harmless.
func (r *Registry[T]) ForceKill(h Handle[T]) bool {
	if h.registry != r {
		return false
	}

	r.mu.Lock()
	c, ok := r.cells.Remove(h.key)
	r.mu.Unlock()
	if !ok {
		return false
	}

	killCell(&r.settings, c, "force_kill")
	return true
}

// IsAlive reports whether h currently resolves to a live resource. The
// answer is best-effort: a true result may be stale by the time it returns.
func (r *Registry[T]) IsAlive(h Handle[T]) bool {
	if h.registry != r {
		return false
	}
	r.mu.RLock()
	c, ok := r.cells.Get(h.key)
	r.mu.RUnlock()
	return ok && !c.status.killed.Load()
}

// Len returns the number of live resources.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cells.Len()
}

// Close force-kills every remaining resource through the normal kill path,
// including the lingering-visitor judgment, then rejects further
// registrations. Closing twice is a no-op.
func (r *Registry[T]) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true

	var keys []slotmap.Key
	r.cells.Each(func(k slotmap.Key, _ *cell[T]) bool {
		keys = append(keys, k)
		return true
	})

	cells := make([]*cell[T], 0, len(keys))
	for _, k := range keys {
		if c, ok := r.cells.Remove(k); ok {
			cells = append(cells, c)
		}
	}
	r.mu.Unlock()

	for _, c := range cells {
		killCell(&r.settings, c, "registry_close")
	}
	return nil
}

// Handle is an opaque, copyable, non-owning reference to one registry
// entry. Holding a handle never keeps the resource alive and never blocks
// its termination. The zero Handle resolves to nothing.
type Handle[T any] struct {
	registry *Registry[T]
	key      slotmap.Key
}

// IsAlive reports whether the handle still resolves to a live resource.
func (h Handle[T]) IsAlive() bool {
	return h.registry != nil && h.registry.IsAlive(h)
}

// resolve finds the live cell for h under a brief structural read lock.
func (h Handle[T]) resolve(op, action string) (*cell[T], error) {
	r := h.registry
	if r == nil {
		return nil, NewNotFoundError(op, action)
	}

	r.mu.RLock()
	c, ok := r.cells.Get(h.key)
	r.mu.RUnlock()
	if !ok {
		r.settings.denied(action)
		return nil, NewNotFoundError(op, action)
	}
	return c, nil
}
