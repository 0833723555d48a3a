package observability

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/victoralfred/sovereign/guard"
)

// Metrics is an in-process collector of guard lifecycle counts. It
// implements guard.Observer, so it can be attached with
// guard.WithObserver when an OpenTelemetry pipeline is not available.
type Metrics struct {
	registrations int64
	kills         int64
	violations    int64
	deniedAccess  int64

	actionStats map[string]*ActionStats
	mu          sync.RWMutex
}

// ActionStats contains per-action violation and denial counts.
type ActionStats struct {
	Action       string
	Violations   int64
	DeniedAccess int64
	LastEventAt  time.Time
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		actionStats: make(map[string]*ActionStats),
	}
}

// OnGuardEvent implements guard.Observer.
func (m *Metrics) OnGuardEvent(e guard.Event) {
	switch e.Type {
	case guard.EventRegistered:
		atomic.AddInt64(&m.registrations, 1)
	case guard.EventKilled:
		atomic.AddInt64(&m.kills, 1)
	case guard.EventViolation:
		atomic.AddInt64(&m.violations, 1)
		m.recordAction(e, true)
	case guard.EventAccessDenied:
		atomic.AddInt64(&m.deniedAccess, 1)
		m.recordAction(e, false)
	}
}

func (m *Metrics) recordAction(e guard.Event, violation bool) {
	if e.Action == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stats, ok := m.actionStats[e.Action]
	if !ok {
		stats = &ActionStats{Action: e.Action}
		m.actionStats[e.Action] = stats
	}
	if violation {
		stats.Violations++
	} else {
		stats.DeniedAccess++
	}
	stats.LastEventAt = e.At
}

// Snapshot contains a point-in-time view of the collected counts.
type Snapshot struct {
	Registrations int64
	Kills         int64
	Alive         int64
	Violations    int64
	DeniedAccess  int64
	ActionStats   map[string]ActionStats
}

// Snapshot returns the current counts. Alive is derived as registrations
// minus clean kills; violations never decrement it because the violated
// resource is never destroyed.
func (m *Metrics) Snapshot() Snapshot {
	s := Snapshot{
		Registrations: atomic.LoadInt64(&m.registrations),
		Kills:         atomic.LoadInt64(&m.kills),
		Violations:    atomic.LoadInt64(&m.violations),
		DeniedAccess:  atomic.LoadInt64(&m.deniedAccess),
		ActionStats:   make(map[string]ActionStats),
	}
	s.Alive = s.Registrations - s.Kills

	m.mu.RLock()
	defer m.mu.RUnlock()
	for action, stats := range m.actionStats {
		s.ActionStats[action] = *stats
	}
	return s
}

// Reset clears all counts.
func (m *Metrics) Reset() {
	atomic.StoreInt64(&m.registrations, 0)
	atomic.StoreInt64(&m.kills, 0)
	atomic.StoreInt64(&m.violations, 0)
	atomic.StoreInt64(&m.deniedAccess, 0)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.actionStats = make(map[string]*ActionStats)
}
