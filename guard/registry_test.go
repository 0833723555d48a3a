package guard

import (
	"errors"
	"sync"
	"testing"
)

// testObserver records events for assertions.
type testObserver struct {
	mu     sync.Mutex
	events []Event
}

func (o *testObserver) OnGuardEvent(e Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *testObserver) byType(t EventType) []Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []Event
	for _, e := range o.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// testTelemetry counts metric calls.
type testTelemetry struct {
	mu       sync.Mutex
	counters map[string]int
	gauge    float64
}

func newTestTelemetry() *testTelemetry {
	return &testTelemetry{counters: make(map[string]int)}
}

func (t *testTelemetry) RecordCounter(name string, labels map[string]string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counters[name]++
}

func (t *testTelemetry) SetGauge(name string, delta float64, labels map[string]string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gauge += delta
}

func (t *testTelemetry) count(name string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counters[name]
}

func TestRegisterAndAccess(t *testing.T) {
	r := NewRegistry[string]()

	h, err := r.Register("payload")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if !h.IsAlive() {
		t.Fatal("fresh handle not alive")
	}
	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1", r.Len())
	}

	got, err := View(h, "read_payload", func(v *string) string { return *v })
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
	if got != "payload" {
		t.Fatalf("View = %q, want payload", got)
	}
}

func TestForceKillCleanThenNotFound(t *testing.T) {
	obs := &testObserver{}
	r := NewRegistry[int](WithObserver(obs))

	h, err := r.Register(42)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if !r.ForceKill(h) {
		t.Fatal("ForceKill on live resource returned false")
	}
	if h.IsAlive() {
		t.Fatal("handle alive after kill")
	}
	if r.Len() != 0 {
		t.Fatalf("Len = %d after kill, want 0", r.Len())
	}

	err = h.View("read_after_kill", func(*int) error { return nil })
	if !errors.Is(err, ErrResourceNotFound) {
		t.Fatalf("View after kill = %v, want ErrResourceNotFound", err)
	}
	if GetErrorCode(err) != ErrCodeNotFound {
		t.Fatalf("code = %s, want %s", GetErrorCode(err), ErrCodeNotFound)
	}

	if n := len(obs.byType(EventKilled)); n != 1 {
		t.Fatalf("killed events = %d, want 1", n)
	}
	if n := len(obs.byType(EventAccessDenied)); n != 1 {
		t.Fatalf("access_denied events = %d, want 1", n)
	}
}

func TestForceKillIdempotent(t *testing.T) {
	r := NewRegistry[int]()
	h, _ := r.Register(1)

	if !r.ForceKill(h) {
		t.Fatal("first ForceKill returned false")
	}
	if r.ForceKill(h) {
		t.Fatal("second ForceKill returned true")
	}
}

func TestStaleHandleNeverResolvesToReusedSlot(t *testing.T) {
	r := NewRegistry[string](WithCapacity(1))

	hA, _ := r.Register("resource-a")
	if !r.ForceKill(hA) {
		t.Fatal("kill of A failed")
	}

	// B lands in A's freed slot; A's handle must not see it.
	hB, _ := r.Register("resource-b")

	if hA.IsAlive() {
		t.Fatal("stale handle reports alive")
	}
	err := hA.View("read_a", func(v *string) error {
		t.Errorf("stale handle resolved to %q", *v)
		return nil
	})
	if !errors.Is(err, ErrResourceNotFound) {
		t.Fatalf("stale View = %v, want ErrResourceNotFound", err)
	}

	got, err := View(hB, "read_b", func(v *string) string { return *v })
	if err != nil || got != "resource-b" {
		t.Fatalf("fresh View = (%q, %v), want (resource-b, nil)", got, err)
	}
}

func TestZeroHandle(t *testing.T) {
	var h Handle[int]
	if h.IsAlive() {
		t.Fatal("zero handle alive")
	}
	err := h.View("zero_read", func(*int) error { return nil })
	if !errors.Is(err, ErrResourceNotFound) {
		t.Fatalf("zero handle View = %v, want ErrResourceNotFound", err)
	}
}

func TestForeignHandle(t *testing.T) {
	a := NewRegistry[int]()
	b := NewRegistry[int]()
	h, _ := a.Register(1)

	if b.ForceKill(h) {
		t.Fatal("foreign ForceKill returned true")
	}
	if b.IsAlive(h) {
		t.Fatal("foreign IsAlive returned true")
	}
	if !a.IsAlive(h) {
		t.Fatal("owning registry lost the resource")
	}
}

type destroyCounter struct {
	mu    sync.Mutex
	count int
}

func (d *destroyCounter) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.count++
}

func (d *destroyCounter) destroyed() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count
}

func TestDestroyerCalledOnceOnKill(t *testing.T) {
	r := NewRegistry[*destroyCounter]()
	d := &destroyCounter{}
	h, _ := r.Register(d)

	r.ForceKill(h)
	r.ForceKill(h)

	if n := d.destroyed(); n != 1 {
		t.Fatalf("Destroy called %d times, want 1", n)
	}
}

func TestCloseKillsAllAndRejectsRegister(t *testing.T) {
	obs := &testObserver{}
	r := NewRegistry[*destroyCounter](WithObserver(obs))

	d1 := &destroyCounter{}
	d2 := &destroyCounter{}
	r.Register(d1)
	r.Register(d2)

	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if r.Len() != 0 {
		t.Fatalf("Len = %d after Close, want 0", r.Len())
	}
	if d1.destroyed() != 1 || d2.destroyed() != 1 {
		t.Fatal("Close did not destroy all resources")
	}
	if n := len(obs.byType(EventKilled)); n != 2 {
		t.Fatalf("killed events = %d, want 2", n)
	}

	_, err := r.Register(&destroyCounter{})
	if !errors.Is(err, ErrRegistryClosed) {
		t.Fatalf("Register after Close = %v, want ErrRegistryClosed", err)
	}

	// Second Close is a no-op.
	if err := r.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}

func TestTelemetryCounters(t *testing.T) {
	tel := newTestTelemetry()
	r := NewRegistry[int](WithTelemetry(tel))

	h, _ := r.Register(1)
	if err := h.Update("bump", func(v *int) error { *v++; return nil }); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	r.ForceKill(h)
	h.View("late", func(*int) error { return nil })

	if n := tel.count(MetricRegistrations); n != 1 {
		t.Fatalf("registrations = %d, want 1", n)
	}
	if n := tel.count(MetricKills); n != 1 {
		t.Fatalf("kills = %d, want 1", n)
	}
	if n := tel.count(MetricDeniedAccess); n != 1 {
		t.Fatalf("denied = %d, want 1", n)
	}
	if tel.gauge != 0 {
		t.Fatalf("active visitors gauge = %v after all borrows returned, want 0", tel.gauge)
	}
}
