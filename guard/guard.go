// Package guard implements exclusive, revocable custody of resources.
//
// A Registry owns any number of resources behind opaque, generation-stamped
// handles; a Warden owns exactly one behind leases. Callers never hold a
// direct reference: every read or mutation happens inside a scoped callback
// that checks in as a visitor, verifies the resource has not been killed,
// and checks out on every exit path.
//
// Termination is non-negotiated. ForceKill either completes cleanly because
// no visitor is inside, or is a fatal contract violation routed through the
// Discipline, which never returns control to the caller. Stale handles are
// the routine failure mode and surface as ErrResourceNotFound values.
package guard

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Canonical metric names recorded through the Telemetry collaborator.
// Implementations may apply their own prefix.
const (
	MetricRegistrations  = "registrations_total"
	MetricKills          = "kills_total"
	MetricViolations     = "violations_total"
	MetricDeniedAccess   = "denied_access_total"
	MetricActiveVisitors = "active_visitors"
)

// ViolationInfo describes a detected sovereignty violation.
type ViolationInfo struct {
	// Op is the operation that detected the violation: "access" or
	// "force_kill".
	Op string

	// ResourceID identifies the resource involved.
	ResourceID string

	// Visitors is the lingering borrow count observed by force_kill, or the
	// count including the offender for an access past the kill latch.
	Visitors int64
}

// Discipline decides how a detected violation is punished.
//
// Punish must not return: implementations panic, abort the process, or exit
// the goroutine. A violation means an invariant was already broken upstream;
// returning an error here would let the bug persist undetected. The guard
// panics if an implementation returns anyway.
type Discipline interface {
	Punish(action string, info *ViolationInfo)
}

// panicDiscipline is the built-in default when no Discipline is configured.
type panicDiscipline struct{}

func (panicDiscipline) Punish(action string, info *ViolationInfo) {
	if info != nil && info.Op == "force_kill" {
		panic(fmt.Sprintf("sovereignty violation: %s: %d lingering visitor(s) inside resource %s",
			action, info.Visitors, info.ResourceID))
	}
	id := ""
	if info != nil {
		id = info.ResourceID
	}
	panic(fmt.Sprintf("sovereignty violation: %s: access after kill on resource %s", action, id))
}

// Telemetry is the minimal metrics surface the guard records against.
// The observability package provides an OpenTelemetry implementation.
type Telemetry interface {
	// RecordCounter increments the named counter.
	RecordCounter(name string, labels map[string]string)

	// SetGauge adds delta to the named up-down gauge.
	SetGauge(name string, delta float64, labels map[string]string)
}

// Option configures a Registry or Warden.
type Option func(*settings)

type settings struct {
	discipline Discipline
	telemetry  Telemetry
	observers  []Observer
	logger     *zap.Logger
	capacity   int
}

func newSettings(opts []Option) settings {
	s := settings{
		discipline: panicDiscipline{},
		logger:     zap.NewNop(),
		capacity:   16,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithDiscipline sets the punishment strategy for violations.
func WithDiscipline(d Discipline) Option {
	return func(s *settings) {
		if d != nil {
			s.discipline = d
		}
	}
}

// WithTelemetry sets the metrics collaborator.
func WithTelemetry(t Telemetry) Option {
	return func(s *settings) {
		s.telemetry = t
	}
}

// WithObserver adds a lifecycle event observer.
func WithObserver(o Observer) Option {
	return func(s *settings) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCapacity sets the initial slot capacity of a Registry.
func WithCapacity(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// Collaborator plumbing shared by Registry and Warden. Settings are
// immutable after construction, so none of these take locks.

func (s *settings) notify(e Event) {
	for _, o := range s.observers {
		o.OnGuardEvent(e)
	}
}

func (s *settings) record(name string, labels map[string]string) {
	if s.telemetry != nil {
		s.telemetry.RecordCounter(name, labels)
	}
}

func (s *settings) gauge(name string, delta float64) {
	if s.telemetry != nil {
		s.telemetry.SetGauge(name, delta, nil)
	}
}

// punish routes a violation to the Discipline. It never returns.
func (s *settings) punish(action string, info *ViolationInfo) {
	s.logger.Error("sovereignty violation",
		zap.String("action", action),
		zap.String("op", info.Op),
		zap.String("resource_id", info.ResourceID),
		zap.Int64("visitors", info.Visitors),
	)
	s.record(MetricViolations, map[string]string{"action": action, "op": info.Op})
	s.notify(Event{
		Type:       EventViolation,
		ResourceID: info.ResourceID,
		Action:     action,
		Visitors:   info.Visitors,
		At:         time.Now(),
	})
	s.discipline.Punish(action, info)
	panic("guard: discipline returned from Punish: " + action)
}

// denied reports a routine resolution failure.
func (s *settings) denied(action string) {
	s.record(MetricDeniedAccess, map[string]string{"action": action})
	s.notify(Event{Type: EventAccessDenied, Action: action, At: time.Now()})
}

// killCell latches the kill, judges lingering visitors and destroys the
// value. The caller must already have unlinked the cell from its slot, so
// no new access can resolve it; a visitor that checked in before the latch
// was set is a fatal violation, not a race to wait out.
func killCell[T any](s *settings, c *cell[T], action string) {
	c.status.killed.Store(true)

	if n := c.status.visitors.Load(); n > 0 {
		s.punish(action, &ViolationInfo{
			Op:         "force_kill",
			ResourceID: c.id,
			Visitors:   n,
		})
	}

	c.destroy()
	s.logger.Debug("resource killed", zap.String("resource_id", c.id))
	s.record(MetricKills, nil)
	s.notify(Event{Type: EventKilled, ResourceID: c.id, At: time.Now()})
}

// borrow runs fn against the cell under the visitor protocol: check in,
// verify the kill latch, take the cell lock for the callback's duration,
// check out. The token release is deferred first so it also runs when the
// callback panics.
func borrow[T any](s *settings, c *cell[T], action string, exclusive bool, fn func(*T)) {
	token := c.status.checkIn()
	defer token.release()

	s.gauge(MetricActiveVisitors, 1)
	defer s.gauge(MetricActiveVisitors, -1)

	if c.status.killed.Load() {
		s.punish(action, &ViolationInfo{
			Op:         "access",
			ResourceID: c.id,
			Visitors:   c.status.visitors.Load(),
		})
	}

	if exclusive {
		c.mu.Lock()
		defer c.mu.Unlock()
	} else {
		c.mu.RLock()
		defer c.mu.RUnlock()
	}

	fn(&c.value)

	// Diagnostic only: a kill cannot legally begin while we are checked in,
	// so observing the latch here means the violation already fired on the
	// killer's side.
	if c.status.killed.Load() {
		s.logger.Warn("kill latch observed during live borrow",
			zap.String("action", action),
			zap.String("resource_id", c.id),
		)
	}
}
