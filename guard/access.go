package guard

// The borrowing protocol. Go has no lifetime polymorphism, so the
// escape-prevention contract is procedural: the callback's pointer is valid
// only for the duration of the call, and results must be owned values. The
// result-carrying forms below make the owned-value shape the natural one.

// View borrows the resource behind h for reading and returns fn's result.
// Concurrent View calls on the same resource may interleave; View never
// runs concurrently with Update on the same resource.
func View[T, R any](h Handle[T], action string, fn func(*T) R) (R, error) {
	var out R
	c, err := h.resolve("view", action)
	if err != nil {
		return out, err
	}
	borrow(&h.registry.settings, c, action, false, func(v *T) {
		out = fn(v)
	})
	return out, nil
}

// Update borrows the resource behind h exclusively and returns fn's result.
// Updates on the same resource are serialized.
func Update[T, R any](h Handle[T], action string, fn func(*T) R) (R, error) {
	var out R
	c, err := h.resolve("update", action)
	if err != nil {
		return out, err
	}
	borrow(&h.registry.settings, c, action, true, func(v *T) {
		out = fn(v)
	})
	return out, nil
}

// View is the error-only form of the package-level View.
func (h Handle[T]) View(action string, fn func(*T) error) error {
	cbErr, err := View(h, action, fn)
	if err != nil {
		return err
	}
	return cbErr
}

// Update is the error-only form of the package-level Update.
func (h Handle[T]) Update(action string, fn func(*T) error) error {
	cbErr, err := Update(h, action, fn)
	if err != nil {
		return err
	}
	return cbErr
}
