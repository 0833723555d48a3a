// Package hooks provides extension points for the guard lifecycle.
package hooks

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/victoralfred/sovereign/guard"
)

// Hook defines extension points for guard lifecycle events.
type Hook interface {
	// Name returns a unique identifier for the hook.
	Name() string

	// Priority determines execution order (lower = earlier).
	Priority() int
}

// RegisterHook is called when a resource is placed under guard.
type RegisterHook interface {
	Hook
	OnRegister(e guard.Event) error
}

// KillHook is called when a resource is terminated cleanly.
type KillHook interface {
	Hook
	OnKill(e guard.Event) error
}

// ViolationHook is called when a sovereignty violation is detected,
// before the discipline fires. It is the last chance to flush state.
type ViolationHook interface {
	Hook
	OnViolation(e guard.Event) error
}

// AccessDeniedHook is called when a stale or dead handle is refused.
type AccessDeniedHook interface {
	Hook
	OnAccessDenied(e guard.Event) error
}

// Registry manages hook registration and invocation.
type Registry struct {
	register     []RegisterHook
	kill         []KillHook
	violation    []ViolationHook
	accessDenied []AccessDeniedHook
	mu           sync.RWMutex
}

// NewRegistry creates a new hook registry.
func NewRegistry() *Registry {
	return &Registry{
		register:     make([]RegisterHook, 0),
		kill:         make([]KillHook, 0),
		violation:    make([]ViolationHook, 0),
		accessDenied: make([]AccessDeniedHook, 0),
	}
}

// Register adds a hook to the registry.
func (r *Registry) Register(hook Hook) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Register based on hook type (can implement multiple)
	if h, ok := hook.(RegisterHook); ok {
		r.register = append(r.register, h)
		sort.Slice(r.register, func(i, j int) bool {
			return r.register[i].Priority() < r.register[j].Priority()
		})
	}

	if h, ok := hook.(KillHook); ok {
		r.kill = append(r.kill, h)
		sort.Slice(r.kill, func(i, j int) bool {
			return r.kill[i].Priority() < r.kill[j].Priority()
		})
	}

	if h, ok := hook.(ViolationHook); ok {
		r.violation = append(r.violation, h)
		sort.Slice(r.violation, func(i, j int) bool {
			return r.violation[i].Priority() < r.violation[j].Priority()
		})
	}

	if h, ok := hook.(AccessDeniedHook); ok {
		r.accessDenied = append(r.accessDenied, h)
		sort.Slice(r.accessDenied, func(i, j int) bool {
			return r.accessDenied[i].Priority() < r.accessDenied[j].Priority()
		})
	}

	return nil
}

// Unregister removes a hook by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.register = removeRegister(r.register, name)
	r.kill = removeKill(r.kill, name)
	r.violation = removeViolation(r.violation, name)
	r.accessDenied = removeAccessDenied(r.accessDenied, name)
}

// RunRegister runs all register hooks.
func (r *Registry) RunRegister(e guard.Event) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, hook := range r.register {
		if err := hook.OnRegister(e); err != nil {
			return fmt.Errorf("hook %s: %w", hook.Name(), err)
		}
	}
	return nil
}

// RunKill runs all kill hooks.
func (r *Registry) RunKill(e guard.Event) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, hook := range r.kill {
		if err := hook.OnKill(e); err != nil {
			return fmt.Errorf("hook %s: %w", hook.Name(), err)
		}
	}
	return nil
}

// RunViolation runs all violation hooks.
func (r *Registry) RunViolation(e guard.Event) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, hook := range r.violation {
		if err := hook.OnViolation(e); err != nil {
			return fmt.Errorf("hook %s: %w", hook.Name(), err)
		}
	}
	return nil
}

// RunAccessDenied runs all access-denied hooks.
func (r *Registry) RunAccessDenied(e guard.Event) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, hook := range r.accessDenied {
		if err := hook.OnAccessDenied(e); err != nil {
			return fmt.Errorf("hook %s: %w", hook.Name(), err)
		}
	}
	return nil
}

// NewObserver adapts the registry to guard.Observer so it can be
// attached with guard.WithObserver. Hook errors are reported through
// onErr when provided; guard operations are never failed by their
// hooks.
func NewObserver(reg *Registry, onErr func(error)) guard.Observer {
	return &registryObserver{reg: reg, onErr: onErr}
}

// Observer is the method form of NewObserver.
func (r *Registry) Observer(onErr func(error)) guard.Observer {
	return NewObserver(r, onErr)
}

type registryObserver struct {
	reg   *Registry
	onErr func(error)
}

func (o *registryObserver) OnGuardEvent(e guard.Event) {
	var err error
	switch e.Type {
	case guard.EventRegistered:
		err = o.reg.RunRegister(e)
	case guard.EventKilled:
		err = o.reg.RunKill(e)
	case guard.EventViolation:
		err = o.reg.RunViolation(e)
	case guard.EventAccessDenied:
		err = o.reg.RunAccessDenied(e)
	}
	if err != nil && o.onErr != nil {
		o.onErr(err)
	}
}

// Helper functions for removing hooks by name
func removeRegister(hooks []RegisterHook, name string) []RegisterHook {
	result := make([]RegisterHook, 0, len(hooks))
	for _, h := range hooks {
		if h.Name() != name {
			result = append(result, h)
		}
	}
	return result
}

func removeKill(hooks []KillHook, name string) []KillHook {
	result := make([]KillHook, 0, len(hooks))
	for _, h := range hooks {
		if h.Name() != name {
			result = append(result, h)
		}
	}
	return result
}

func removeViolation(hooks []ViolationHook, name string) []ViolationHook {
	result := make([]ViolationHook, 0, len(hooks))
	for _, h := range hooks {
		if h.Name() != name {
			result = append(result, h)
		}
	}
	return result
}

func removeAccessDenied(hooks []AccessDeniedHook, name string) []AccessDeniedHook {
	result := make([]AccessDeniedHook, 0, len(hooks))
	for _, h := range hooks {
		if h.Name() != name {
			result = append(result, h)
		}
	}
	return result
}

// LoggingHook is a built-in hook that logs lifecycle events.
type LoggingHook struct {
	logger *zap.Logger
}

// NewLoggingHook creates a new logging hook.
func NewLoggingHook(logger *zap.Logger) *LoggingHook {
	return &LoggingHook{logger: logger}
}

func (h *LoggingHook) Name() string  { return "logging" }
func (h *LoggingHook) Priority() int { return 1000 }

func (h *LoggingHook) OnRegister(e guard.Event) error {
	h.logger.Info("resource registered",
		zap.String("resource_id", e.ResourceID),
	)
	return nil
}

func (h *LoggingHook) OnKill(e guard.Event) error {
	h.logger.Info("resource killed",
		zap.String("resource_id", e.ResourceID),
		zap.String("action", e.Action),
	)
	return nil
}

func (h *LoggingHook) OnViolation(e guard.Event) error {
	h.logger.Error("sovereignty violation",
		zap.String("resource_id", e.ResourceID),
		zap.String("action", e.Action),
		zap.Int64("visitors", e.Visitors),
	)
	return nil
}

func (h *LoggingHook) OnAccessDenied(e guard.Event) error {
	h.logger.Warn("access denied",
		zap.String("resource_id", e.ResourceID),
		zap.String("action", e.Action),
	)
	return nil
}
