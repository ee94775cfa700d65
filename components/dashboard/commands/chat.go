package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	dashboard "github.com/agrik/agrik-dashboard/components/dashboard"
)

// UpdatePromptInput replaces the stored prompt text of a session.
type UpdatePromptInput struct {
	SessionID string `json:"session_id"`
	Prompt    string `json:"prompt"`
}

// SubmitPromptInput sends the stored prompt to the assistant. When Prompt is set it
// replaces the stored text first.
type SubmitPromptInput struct {
	SessionID string  `json:"session_id"`
	Prompt    *string `json:"prompt,omitempty"`
	// Ticket receives the accepted submission when non-nil.
	Ticket *dashboard.ChatTicket `json:"-"`
}

type chatService interface {
	UpdateChatPrompt(ctx context.Context, sessionID, text string) error
	SubmitChatPrompt(ctx context.Context, sessionID string) (dashboard.ChatTicket, error)
}

// UpdatePromptCommand stores the prompt text verbatim.
type UpdatePromptCommand struct {
	service   chatService
	telemetry Telemetry
}

// NewUpdatePromptCommand creates the command.
func NewUpdatePromptCommand(service chatService, telemetry Telemetry) *UpdatePromptCommand {
	return &UpdatePromptCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[UpdatePromptInput] = (*UpdatePromptCommand)(nil)

// Execute stores the prompt.
func (c *UpdatePromptCommand) Execute(ctx context.Context, msg UpdatePromptInput) error {
	if c.service == nil {
		return errors.New("update prompt command requires service")
	}
	if err := requireSession("update prompt", msg.SessionID); err != nil {
		return err
	}
	if err := c.service.UpdateChatPrompt(ctx, msg.SessionID, msg.Prompt); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.update_prompt", map[string]any{
		"session": msg.SessionID,
		"length":  len([]rune(msg.Prompt)),
	})
	return nil
}

// SubmitPromptCommand starts an assistant request for the session.
type SubmitPromptCommand struct {
	service   chatService
	telemetry Telemetry
}

// NewSubmitPromptCommand creates the command.
func NewSubmitPromptCommand(service chatService, telemetry Telemetry) *SubmitPromptCommand {
	return &SubmitPromptCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SubmitPromptInput] = (*SubmitPromptCommand)(nil)

// Execute submits the prompt. Rejections surface as dashboard.ErrPromptEmpty or
// dashboard.ErrPromptTooLong.
func (c *SubmitPromptCommand) Execute(ctx context.Context, msg SubmitPromptInput) error {
	if c.service == nil {
		return errors.New("submit prompt command requires service")
	}
	if err := requireSession("submit prompt", msg.SessionID); err != nil {
		return err
	}
	if msg.Prompt != nil {
		if err := c.service.UpdateChatPrompt(ctx, msg.SessionID, *msg.Prompt); err != nil {
			return err
		}
	}
	ticket, err := c.service.SubmitChatPrompt(ctx, msg.SessionID)
	if err != nil {
		return err
	}
	if msg.Ticket != nil {
		*msg.Ticket = ticket
	}
	c.telemetry.Record(ctx, "dashboard.command.submit_prompt", map[string]any{
		"session": msg.SessionID,
		"seq":     ticket.Seq,
	})
	return nil
}
