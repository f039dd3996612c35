package ports

import "time"

// TelemetryPort is used only at adapter boundaries, never inside the
// executors, which stay pure functions of their inputs.
type TelemetryPort interface {
	EmitMetric(name string, value float64, tags map[string]string)
	EmitEvent(name string, fields map[string]any)
	StartSpan(name string) Span
}

// Span is closed by the caller once the traced operation completes.
type Span interface {
	End()
}

// NoopTelemetry discards everything. Useful as the default adapter in
// tests and for CLI invocations that don't configure a telemetry sink.
type NoopTelemetry struct{}

func (NoopTelemetry) EmitMetric(string, float64, map[string]string) {}
func (NoopTelemetry) EmitEvent(string, map[string]any)               {}
func (NoopTelemetry) StartSpan(string) Span                          { return noopSpan{} }

type noopSpan struct{}

func (noopSpan) End() {}

// LoggingTelemetry emits metrics and events through a provided sink
// function, timestamping spans with a caller-supplied clock so nothing in
// this package reads the ambient wall clock.
type LoggingTelemetry struct {
	Sink  func(event string, fields map[string]any)
	Clock func() time.Time
}

func (t LoggingTelemetry) EmitMetric(name string, value float64, tags map[string]string) {
	fields := map[string]any{"metric": name, "value": value}
	for k, v := range tags {
		fields[k] = v
	}
	t.Sink("metric", fields)
}

func (t LoggingTelemetry) EmitEvent(name string, fields map[string]any) {
	out := map[string]any{"event": name}
	for k, v := range fields {
		out[k] = v
	}
	t.Sink("event", out)
}

func (t LoggingTelemetry) StartSpan(name string) Span {
	start := t.Clock()
	return loggingSpan{name: name, start: start, sink: t.Sink, clock: t.Clock}
}

type loggingSpan struct {
	name  string
	start time.Time
	sink  func(event string, fields map[string]any)
	clock func() time.Time
}

func (s loggingSpan) End() {
	s.sink("span", map[string]any{
		"name":        s.name,
		"duration_ms": s.clock().Sub(s.start).Milliseconds(),
	})
}
