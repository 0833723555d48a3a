package guard

import "time"

// EventType identifies a resource lifecycle event.
type EventType string

const (
	// EventRegistered is emitted when a resource enters custody.
	EventRegistered EventType = "registered"

	// EventKilled is emitted after a resource is terminated and destroyed.
	EventKilled EventType = "killed"

	// EventViolation is emitted immediately before the Discipline is
	// invoked. It is the last event the offending goroutine produces.
	EventViolation EventType = "violation"

	// EventAccessDenied is emitted when an access fails to resolve its
	// handle. This is the routine, recoverable failure mode.
	EventAccessDenied EventType = "access_denied"
)

// Event is a structured lifecycle notification delivered to observers.
type Event struct {
	// Type is the event kind.
	Type EventType

	// ResourceID is the resource's identity, empty when the event concerns
	// a handle that no longer resolves.
	ResourceID string

	// Action is the caller-supplied action label, when one applies.
	Action string

	// Visitors is the in-flight borrow count observed at the event, for
	// violation events.
	Visitors int64

	// At is the event time.
	At time.Time
}

// Observer receives lifecycle events. Implementations must be safe for
// concurrent use; events are delivered synchronously from guard operations.
type Observer interface {
	OnGuardEvent(Event)
}
