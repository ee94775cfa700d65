package commands

import "context"

// Telemetry receives structured events emitted after a command succeeds.
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

func requireSession(name, sessionID string) error {
	if sessionID == "" {
		return &SessionRequiredError{Command: name}
	}
	return nil
}

// SessionRequiredError is returned when a command message carries no session id.
type SessionRequiredError struct {
	Command string
}

func (e *SessionRequiredError) Error() string {
	return e.Command + " command requires session id"
}
