package dashboard

import (
	"context"
	"log/slog"
)

// Telemetry records dashboard events for observability.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}

// SlogTelemetry writes telemetry events as structured log records at debug level.
type SlogTelemetry struct {
	Logger *slog.Logger
}

// NewSlogTelemetry wraps logger (slog.Default when nil).
func NewSlogTelemetry(logger *slog.Logger) SlogTelemetry {
	if logger == nil {
		logger = slog.Default()
	}
	return SlogTelemetry{Logger: logger}
}

// Record logs the event with its payload as attributes.
func (t SlogTelemetry) Record(ctx context.Context, event string, payload map[string]any) {
	attrs := make([]any, 0, len(payload)*2+2)
	attrs = append(attrs, "event", event)
	for key, value := range payload {
		attrs = append(attrs, key, value)
	}
	t.Logger.DebugContext(ctx, "dashboard telemetry", attrs...)
}
