package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	dashboard "github.com/agrik/agrik-dashboard/components/dashboard"
)

// ToggleThemeInput flips the theme of a session.
type ToggleThemeInput struct {
	SessionID string `json:"session_id"`
	// Result receives the updated preferences when non-nil.
	Result *dashboard.DisplayPreferences `json:"-"`
}

// ToggleLanguageInput flips the language of a session.
type ToggleLanguageInput struct {
	SessionID string                        `json:"session_id"`
	Result    *dashboard.DisplayPreferences `json:"-"`
}

type preferenceToggler interface {
	ToggleTheme(ctx context.Context, sessionID string) (dashboard.DisplayPreferences, error)
	ToggleLanguage(ctx context.Context, sessionID string) (dashboard.DisplayPreferences, error)
}

// ToggleThemeCommand switches a session between light and dark.
type ToggleThemeCommand struct {
	service   preferenceToggler
	telemetry Telemetry
}

// NewToggleThemeCommand creates the command.
func NewToggleThemeCommand(service preferenceToggler, telemetry Telemetry) *ToggleThemeCommand {
	return &ToggleThemeCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ToggleThemeInput] = (*ToggleThemeCommand)(nil)

// Execute toggles the theme.
func (c *ToggleThemeCommand) Execute(ctx context.Context, msg ToggleThemeInput) error {
	if c.service == nil {
		return errors.New("toggle theme command requires service")
	}
	if err := requireSession("toggle theme", msg.SessionID); err != nil {
		return err
	}
	prefs, err := c.service.ToggleTheme(ctx, msg.SessionID)
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = prefs
	}
	c.telemetry.Record(ctx, "dashboard.command.toggle_theme", map[string]any{
		"session": msg.SessionID,
		"theme":   string(prefs.Theme),
	})
	return nil
}

// ToggleLanguageCommand switches a session between FR and EN.
type ToggleLanguageCommand struct {
	service   preferenceToggler
	telemetry Telemetry
}

// NewToggleLanguageCommand creates the command.
func NewToggleLanguageCommand(service preferenceToggler, telemetry Telemetry) *ToggleLanguageCommand {
	return &ToggleLanguageCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ToggleLanguageInput] = (*ToggleLanguageCommand)(nil)

// Execute toggles the language.
func (c *ToggleLanguageCommand) Execute(ctx context.Context, msg ToggleLanguageInput) error {
	if c.service == nil {
		return errors.New("toggle language command requires service")
	}
	if err := requireSession("toggle language", msg.SessionID); err != nil {
		return err
	}
	prefs, err := c.service.ToggleLanguage(ctx, msg.SessionID)
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = prefs
	}
	c.telemetry.Record(ctx, "dashboard.command.toggle_language", map[string]any{
		"session":  msg.SessionID,
		"language": string(prefs.Language),
	})
	return nil
}
