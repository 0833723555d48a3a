// Package observability provides OpenTelemetry integration and audit
// logging for guard lifecycle events.
package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/victoralfred/sovereign/guard"
)

// Telemetry provides observability features. It is a superset of
// guard.Telemetry, so an instance can be passed to guard.WithTelemetry
// directly.
type Telemetry interface {
	// StartSpan starts a new trace span.
	StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, func())

	// RecordCounter increments the named counter.
	RecordCounter(name string, labels map[string]string)

	// SetGauge adds delta to the named up-down gauge.
	SetGauge(name string, delta float64, labels map[string]string)
}

// SpanOption configures span creation.
type SpanOption func(*spanConfig)

type spanConfig struct {
	attributes []attribute.KeyValue
	kind       trace.SpanKind
}

// WithAttribute adds an attribute to the span.
func WithAttribute(key string, value interface{}) SpanOption {
	return func(c *spanConfig) {
		switch v := value.(type) {
		case string:
			c.attributes = append(c.attributes, attribute.String(key, v))
		case int:
			c.attributes = append(c.attributes, attribute.Int(key, v))
		case int64:
			c.attributes = append(c.attributes, attribute.Int64(key, v))
		case float64:
			c.attributes = append(c.attributes, attribute.Float64(key, v))
		case bool:
			c.attributes = append(c.attributes, attribute.Bool(key, v))
		}
	}
}

// WithSpanKind sets the span kind.
func WithSpanKind(kind trace.SpanKind) SpanOption {
	return func(c *spanConfig) {
		c.kind = kind
	}
}

// TelemetryConfig configures telemetry.
type TelemetryConfig struct {
	// ServiceName is the service name for tracing.
	ServiceName string `yaml:"service_name"`

	// ServiceVersion is the service version.
	ServiceVersion string `yaml:"service_version"`

	// Environment is the deployment environment.
	Environment string `yaml:"environment"`

	// EnableTracing enables distributed tracing.
	EnableTracing bool `yaml:"enable_tracing"`

	// EnableMetrics enables metrics collection.
	EnableMetrics bool `yaml:"enable_metrics"`

	// MetricsPrefix is the prefix for all metrics.
	MetricsPrefix string `yaml:"metrics_prefix"`
}

// DefaultTelemetryConfig returns default configuration.
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		ServiceName:    "sovereign",
		ServiceVersion: "1.0.0",
		Environment:    "development",
		EnableTracing:  true,
		EnableMetrics:  true,
		MetricsPrefix:  "sovereign_",
	}
}

// telemetry implements Telemetry on the OpenTelemetry API.
type telemetry struct {
	config TelemetryConfig
	tracer trace.Tracer

	counters       map[string]metric.Int64Counter
	activeVisitors metric.Int64UpDownCounter
}

// NewTelemetry creates a new telemetry instance. Counters are created for
// every canonical guard metric name under the configured prefix.
func NewTelemetry(config TelemetryConfig) (Telemetry, error) {
	t := &telemetry{
		config:   config,
		tracer:   otel.Tracer(config.ServiceName),
		counters: make(map[string]metric.Int64Counter),
	}

	meter := otel.Meter(config.ServiceName)

	counterSpecs := []struct {
		name        string
		description string
	}{
		{guard.MetricRegistrations, "Total number of resources registered"},
		{guard.MetricKills, "Total number of resources terminated cleanly"},
		{guard.MetricViolations, "Total number of sovereignty violations detected"},
		{guard.MetricDeniedAccess, "Total number of accesses denied on stale handles"},
	}
	for _, spec := range counterSpecs {
		c, err := meter.Int64Counter(
			config.MetricsPrefix+spec.name,
			metric.WithDescription(spec.description),
		)
		if err != nil {
			return nil, err
		}
		t.counters[spec.name] = c
	}

	var err error
	t.activeVisitors, err = meter.Int64UpDownCounter(
		config.MetricsPrefix+guard.MetricActiveVisitors,
		metric.WithDescription("Number of borrows currently in flight"),
	)
	if err != nil {
		return nil, err
	}

	return t, nil
}

// StartSpan implements Telemetry.StartSpan.
func (t *telemetry) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, func()) {
	if !t.config.EnableTracing {
		return ctx, func() {}
	}

	cfg := &spanConfig{
		kind: trace.SpanKindInternal,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	ctx, span := t.tracer.Start(ctx, name,
		trace.WithAttributes(cfg.attributes...),
		trace.WithSpanKind(cfg.kind),
	)

	return ctx, func() {
		span.End()
	}
}

// RecordCounter implements Telemetry.RecordCounter.
func (t *telemetry) RecordCounter(name string, labels map[string]string) {
	if !t.config.EnableMetrics {
		return
	}
	c, ok := t.counters[name]
	if !ok {
		return
	}
	c.Add(context.Background(), 1, metric.WithAttributes(labelsToAttributes(labels)...))
}

// SetGauge implements Telemetry.SetGauge.
func (t *telemetry) SetGauge(name string, delta float64, labels map[string]string) {
	if !t.config.EnableMetrics || name != guard.MetricActiveVisitors {
		return
	}
	t.activeVisitors.Add(context.Background(), int64(delta), metric.WithAttributes(labelsToAttributes(labels)...))
}

// labelsToAttributes converts labels to OTEL attributes.
func labelsToAttributes(labels map[string]string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(labels))
	for k, v := range labels {
		attrs = append(attrs, attribute.String(k, v))
	}
	return attrs
}

// NoopTelemetry returns a no-op telemetry implementation.
func NoopTelemetry() Telemetry {
	return &noopTelemetry{}
}

type noopTelemetry struct{}

func (t *noopTelemetry) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, func()) {
	return ctx, func() {}
}

func (t *noopTelemetry) RecordCounter(name string, labels map[string]string) {}

func (t *noopTelemetry) SetGauge(name string, delta float64, labels map[string]string) {}
