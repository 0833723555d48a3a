package sovereign

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/victoralfred/sovereign/config"
	"github.com/victoralfred/sovereign/discipline"
	"github.com/victoralfred/sovereign/guard"
	"github.com/victoralfred/sovereign/observability"
)

// =============================================================================
// Core Types
// =============================================================================

// Event is a guard lifecycle event delivered to observers.
type Event = guard.Event

// EventType identifies the kind of lifecycle event.
type EventType = guard.EventType

// Lifecycle event types.
const (
	EventRegistered   = guard.EventRegistered
	EventKilled       = guard.EventKilled
	EventViolation    = guard.EventViolation
	EventAccessDenied = guard.EventAccessDenied
)

// Observer receives guard lifecycle events.
type Observer = guard.Observer

// Discipline decides the fate of a process caught violating resource
// sovereignty. Punish must not return.
type Discipline = guard.Discipline

// ViolationInfo describes a detected sovereignty violation.
type ViolationInfo = guard.ViolationInfo

// Destroyer is implemented by resources that need teardown on kill.
type Destroyer = guard.Destroyer

// GuardError is the structured error type returned by guard operations.
type GuardError = guard.GuardError

// ErrorCode classifies guard errors for programmatic handling.
type ErrorCode = guard.ErrorCode

// Option configures a Registry or Warden.
type Option = guard.Option

// =============================================================================
// Error Variables
// =============================================================================

// Common errors returned by the library.
var (
	// ErrResourceNotFound indicates a stale or foreign handle.
	ErrResourceNotFound = guard.ErrResourceNotFound

	// ErrResourceKilled indicates the resource was terminated.
	ErrResourceKilled = guard.ErrResourceKilled

	// ErrRegistryClosed indicates the registry has been closed.
	ErrRegistryClosed = guard.ErrRegistryClosed
)

// =============================================================================
// Guard Options
// =============================================================================

// WithDiscipline sets the discipline that handles violations.
func WithDiscipline(d Discipline) Option { return guard.WithDiscipline(d) }

// WithTelemetry attaches a telemetry sink for guard metrics.
func WithTelemetry(t guard.Telemetry) Option { return guard.WithTelemetry(t) }

// WithObserver attaches a lifecycle event observer.
func WithObserver(o Observer) Option { return guard.WithObserver(o) }

// WithLogger sets the structured logger.
func WithLogger(l *zap.Logger) Option { return guard.WithLogger(l) }

// WithCapacity sizes the slot arena before the first growth.
func WithCapacity(n int) Option { return guard.WithCapacity(n) }

// =============================================================================
// Factory Functions
// =============================================================================

// NewRegistry creates a registry holding exclusive custody of resources
// of type T. This is the simplest way to get started with sovereign.
//
// Example:
//
//	reg := sovereign.NewRegistry[Session]()
//	defer reg.Close()
//
//	h, err := reg.Register(Session{User: "alice"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = h.View("read_user", func(s *Session) error {
//	    fmt.Println(s.User)
//	    return nil
//	})
func NewRegistry[T any](opts ...Option) *guard.Registry[T] {
	return guard.NewRegistry[T](opts...)
}

// NewWarden creates a warden guarding a single resource, returning the
// warden and its first lease.
//
// Example:
//
//	w, lease := sovereign.NewWarden(Conn{Addr: addr})
//	defer w.Close()
func NewWarden[T any](resource T, opts ...Option) (*guard.Warden[T], guard.Lease[T]) {
	return guard.NewWarden[T](resource, opts...)
}

// View borrows the resource behind h for shared read access.
func View[T, R any](h guard.Handle[T], action string, fn func(*T) R) (R, error) {
	return guard.View(h, action, fn)
}

// Update borrows the resource behind h for exclusive write access.
func Update[T, R any](h guard.Handle[T], action string, fn func(*T) R) (R, error) {
	return guard.Update(h, action, fn)
}

// ViewLease borrows the resource behind l for shared read access.
func ViewLease[T, R any](l guard.Lease[T], action string, fn func(*T) R) (R, error) {
	return guard.ViewLease(l, action, fn)
}

// UpdateLease borrows the resource behind l for exclusive write access.
func UpdateLease[T, R any](l guard.Lease[T], action string, fn func(*T) R) (R, error) {
	return guard.UpdateLease(l, action, fn)
}

// =============================================================================
// Configuration
// =============================================================================

// DefaultConfig returns the default configuration. Use this as a
// starting point before overriding individual fields.
func DefaultConfig() config.Config {
	return config.DefaultConfig()
}

// LoadConfig loads configuration from a full file path. This is a
// convenience function that splits the path into directory and filename.
//
// Example:
//
//	cfg, err := sovereign.LoadConfig("/etc/sovereign/sovereign.yaml")
func LoadConfig(path string) (*config.Config, error) {
	dir := filepath.Dir(path)
	file := filepath.Base(path)

	loader, err := config.NewLoader(dir, file)
	if err != nil {
		return nil, err
	}
	return loader.Load(context.Background())
}

// OptionsFromConfig assembles guard options from a configuration: the
// discipline, OpenTelemetry sink, and audit observer it describes. The
// returned cleanup function closes the audit logger and must be called
// after the registry or warden is done.
//
// Example:
//
//	cfg, _ := sovereign.LoadConfig("/etc/sovereign/sovereign.yaml")
//	opts, cleanup, err := sovereign.OptionsFromConfig(cfg, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cleanup()
//
//	reg := sovereign.NewRegistry[Session](opts...)
func OptionsFromConfig(cfg *config.Config, logger *zap.Logger) ([]Option, func() error, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	opts := []Option{
		WithCapacity(cfg.Guard.InitialCapacity),
	}
	if logger != nil {
		opts = append(opts, WithLogger(logger))
	}

	d, err := discipline.FromMode(cfg.Discipline.Mode)
	if err != nil {
		return nil, nil, fmt.Errorf("configuring discipline: %w", err)
	}
	if cfg.Discipline.LogViolations && logger != nil {
		d = discipline.WithLogging(logger, d)
	}
	opts = append(opts, WithDiscipline(d))

	if cfg.Telemetry.EnableMetrics || cfg.Telemetry.EnableTracing {
		tel, err := observability.NewTelemetry(cfg.Telemetry)
		if err != nil {
			return nil, nil, fmt.Errorf("configuring telemetry: %w", err)
		}
		opts = append(opts, WithTelemetry(tel))
	}

	cleanup := func() error { return nil }
	if cfg.Audit.Enabled {
		audit, err := observability.NewFileAuditLogger(cfg.Audit)
		if err != nil {
			return nil, nil, fmt.Errorf("configuring audit: %w", err)
		}

		var onErr func(error)
		if logger != nil {
			onErr = func(err error) {
				logger.Warn("audit log write failed", zap.Error(err))
			}
		}
		opts = append(opts, WithObserver(observability.NewAuditObserver(audit, onErr)))
		cleanup = audit.Close
	}

	return opts, cleanup, nil
}

// =============================================================================
// Version Information
// =============================================================================

// Version returns the library version.
func Version() string {
	return "1.0.0"
}
