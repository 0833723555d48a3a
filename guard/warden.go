package guard

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Warden is the single-resource form of the guard: one owner, one resource,
// any number of leases. It exists because the common case does not need
// keyed multiplexing. Destroying the warden with Close goes through the
// same kill path as an explicit Kill, lingering-visitor judgment included.
type Warden[T any] struct {
	mu       sync.RWMutex
	cell     *cell[T]
	settings settings
}

// NewWarden takes ownership of resource and returns the warden together
// with a first lease.
func NewWarden[T any](resource T, opts ...Option) (*Warden[T], Lease[T]) {
	w := &Warden[T]{
		cell:     newCell(resource),
		settings: newSettings(opts),
	}

	w.settings.logger.Debug("resource registered", zap.String("resource_id", w.cell.id))
	w.settings.record(MetricRegistrations, nil)
	w.settings.notify(Event{Type: EventRegistered, ResourceID: w.cell.id, At: time.Now()})

	return w, Lease[T]{warden: w}
}

// Lease issues another non-owning lease on the resource. Leases stay valid
// objects after a kill; their accesses then fail with ErrResourceKilled.
func (w *Warden[T]) Lease() Lease[T] {
	return Lease[T]{warden: w}
}

// Kill terminates the resource. Returns true on the first, successful call
// and false once the resource is already gone. Lingering visitors make the
// call a fatal violation, exactly as with Registry.ForceKill.
func (w *Warden[T]) Kill() bool {
	w.mu.Lock()
	c := w.cell
	w.cell = nil
	w.mu.Unlock()
	if c == nil {
		return false
	}

	killCell(&w.settings, c, "kill")
	return true
}

// Close terminates the resource if it is still alive. It implements
// io.Closer so a warden can sit at the end of a defer chain.
func (w *Warden[T]) Close() error {
	w.Kill()
	return nil
}

// IsAlive reports whether the resource has not been killed. Best-effort.
func (w *Warden[T]) IsAlive() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cell != nil
}

// Lease is an opaque, copyable, non-owning reference to a warden's
// resource. The zero Lease resolves to nothing.
type Lease[T any] struct {
	warden *Warden[T]
}

// IsAlive reports whether the lease still resolves to a live resource.
func (l Lease[T]) IsAlive() bool {
	return l.warden != nil && l.warden.IsAlive()
}

// resolve finds the live cell under a brief read lock on the warden.
func (l Lease[T]) resolve(op, action string) (*cell[T], error) {
	w := l.warden
	if w == nil {
		return nil, NewKilledError(op, action)
	}

	w.mu.RLock()
	c := w.cell
	w.mu.RUnlock()
	if c == nil {
		w.settings.denied(action)
		return nil, NewKilledError(op, action)
	}
	return c, nil
}

// ViewLease borrows the warden's resource for reading and returns fn's
// result. The counterpart of the registry-keyed View.
func ViewLease[T, R any](l Lease[T], action string, fn func(*T) R) (R, error) {
	var out R
	c, err := l.resolve("view", action)
	if err != nil {
		return out, err
	}
	borrow(&l.warden.settings, c, action, false, func(v *T) {
		out = fn(v)
	})
	return out, nil
}

// UpdateLease borrows the warden's resource exclusively and returns fn's
// result.
func UpdateLease[T, R any](l Lease[T], action string, fn func(*T) R) (R, error) {
	var out R
	c, err := l.resolve("update", action)
	if err != nil {
		return out, err
	}
	borrow(&l.warden.settings, c, action, true, func(v *T) {
		out = fn(v)
	})
	return out, nil
}

// View is the error-only form of ViewLease.
func (l Lease[T]) View(action string, fn func(*T) error) error {
	cbErr, err := ViewLease(l, action, fn)
	if err != nil {
		return err
	}
	return cbErr
}

// Update is the error-only form of UpdateLease.
func (l Lease[T]) Update(action string, fn func(*T) error) error {
	cbErr, err := UpdateLease(l, action, fn)
	if err != nil {
		return err
	}
	return cbErr
}
