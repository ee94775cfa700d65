package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
)

// SweepSessionsInput drops idle sessions.
type SweepSessionsInput struct {
	// Removed receives the number of expired sessions when non-nil.
	Removed *int `json:"-"`
}

type sessionSweeper interface {
	Sweep(ctx context.Context) int
}

// SweepSessionsCommand expires sessions past their TTL.
type SweepSessionsCommand struct {
	service   sessionSweeper
	telemetry Telemetry
}

// NewSweepSessionsCommand creates the command.
func NewSweepSessionsCommand(service sessionSweeper, telemetry Telemetry) *SweepSessionsCommand {
	return &SweepSessionsCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SweepSessionsInput] = (*SweepSessionsCommand)(nil)

// Execute runs one sweep.
func (c *SweepSessionsCommand) Execute(ctx context.Context, msg SweepSessionsInput) error {
	if c.service == nil {
		return errors.New("sweep command requires service")
	}
	removed := c.service.Sweep(ctx)
	if msg.Removed != nil {
		*msg.Removed = removed
	}
	if removed > 0 {
		c.telemetry.Record(ctx, "dashboard.command.sweep", map[string]any{"removed": removed})
	}
	return nil
}
