package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/victoralfred/gowritter/safepath"
	"golang.org/x/time/rate"

	"github.com/victoralfred/sovereign/guard"
)

// AuditLogger provides immutable audit logging of guard lifecycle events.
type AuditLogger interface {
	// Log logs an audit event.
	Log(ctx context.Context, event *AuditEvent) error

	// Close closes the audit logger.
	Close() error
}

// AuditEvent represents an audit log entry.
type AuditEvent struct {
	ID         string            `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	Type       guard.EventType   `json:"type"`
	ResourceID string            `json:"resource_id,omitempty"`
	Action     string            `json:"action,omitempty"`
	Visitors   int64             `json:"visitors,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// AuditLogLevel determines what events to log.
type AuditLogLevel string

const (
	// AuditLogAll logs all events.
	AuditLogAll AuditLogLevel = "all"

	// AuditLogViolations logs only violations and denied accesses.
	AuditLogViolations AuditLogLevel = "violations"
)

// AuditConfig configures the audit logger.
type AuditConfig struct {
	Enabled bool `yaml:"enabled"`

	LogLevel AuditLogLevel `yaml:"log_level"`

	// BasePath is the directory the audit file is confined to.
	BasePath string `yaml:"base_path"`

	// FilePath is the audit file path relative to BasePath.
	FilePath string `yaml:"file_path"`

	// MaxEventsPerSecond throttles writes; excess events are counted and
	// dropped rather than blocking guard operations. Zero disables the
	// throttle.
	MaxEventsPerSecond float64 `yaml:"max_events_per_second"`

	// Burst is the throttle burst size.
	Burst int `yaml:"burst"`
}

// DefaultAuditConfig returns default audit configuration.
func DefaultAuditConfig() AuditConfig {
	return AuditConfig{
		Enabled:            true,
		LogLevel:           AuditLogAll,
		BasePath:           "/var/log",
		FilePath:           "sovereign/audit.log",
		MaxEventsPerSecond: 1000,
		Burst:              2000,
	}
}

// fileAuditLogger implements AuditLogger as a JSONL file using gowritter.
type fileAuditLogger struct {
	safePath *safepath.SafePath
	config   AuditConfig
	limiter  *rate.Limiter
	dropped  atomic.Int64
	mu       sync.Mutex
}

// NewFileAuditLogger creates a new file-based audit logger.
func NewFileAuditLogger(config AuditConfig) (AuditLogger, error) {
	sp, err := safepath.New(config.BasePath)
	if err != nil {
		return nil, fmt.Errorf("creating safe path: %w", err)
	}

	l := &fileAuditLogger{
		config:   config,
		safePath: sp,
	}
	if config.MaxEventsPerSecond > 0 {
		burst := config.Burst
		if burst <= 0 {
			burst = int(config.MaxEventsPerSecond)
		}
		l.limiter = rate.NewLimiter(rate.Limit(config.MaxEventsPerSecond), burst)
	}
	return l, nil
}

// Log implements AuditLogger.Log.
func (l *fileAuditLogger) Log(ctx context.Context, event *AuditEvent) error {
	if !l.config.Enabled {
		return nil
	}
	if !l.shouldLog(event) {
		return nil
	}
	if l.limiter != nil && !l.limiter.Allow() {
		l.dropped.Add(1)
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling audit event: %w", err)
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.safePath.AppendFile(l.config.FilePath, data, 0o644); err != nil {
		return fmt.Errorf("writing audit log: %w", err)
	}
	return nil
}

// Close implements AuditLogger.Close.
func (l *fileAuditLogger) Close() error {
	return nil
}

// Dropped returns the number of events the throttle discarded.
func (l *fileAuditLogger) Dropped() int64 {
	return l.dropped.Load()
}

func (l *fileAuditLogger) shouldLog(event *AuditEvent) bool {
	switch l.config.LogLevel {
	case AuditLogViolations:
		return event.Type == guard.EventViolation || event.Type == guard.EventAccessDenied
	default:
		return true
	}
}

// CreateAuditEvent builds an audit event from a guard lifecycle event.
func CreateAuditEvent(e guard.Event) *AuditEvent {
	at := e.At
	if at.IsZero() {
		at = time.Now()
	}
	return &AuditEvent{
		ID:         uuid.New().String(),
		Timestamp:  at,
		Type:       e.Type,
		ResourceID: e.ResourceID,
		Action:     e.Action,
		Visitors:   e.Visitors,
	}
}

// NewAuditObserver adapts an AuditLogger to guard.Observer so it can be
// attached with guard.WithObserver. Log failures are reported through
// onErr when provided; the guard operation itself is never failed by its
// audit trail.
func NewAuditObserver(logger AuditLogger, onErr func(error)) guard.Observer {
	return &auditObserver{logger: logger, onErr: onErr}
}

type auditObserver struct {
	logger AuditLogger
	onErr  func(error)
}

func (o *auditObserver) OnGuardEvent(e guard.Event) {
	if err := o.logger.Log(context.Background(), CreateAuditEvent(e)); err != nil && o.onErr != nil {
		o.onErr(err)
	}
}

// NoopAuditLogger returns a no-op audit logger.
func NoopAuditLogger() AuditLogger {
	return &noopAuditLogger{}
}

type noopAuditLogger struct{}

func (l *noopAuditLogger) Log(ctx context.Context, event *AuditEvent) error { return nil }
func (l *noopAuditLogger) Close() error                                     { return nil }
