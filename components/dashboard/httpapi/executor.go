package httpapi

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	"github.com/agrik/agrik-dashboard/components/dashboard/commands"
)

// Executor is the transport-neutral surface shared by the net/http handlers and go-router routes.
type Executor interface {
	ToggleTheme(ctx context.Context, input commands.ToggleThemeInput) error
	ToggleLanguage(ctx context.Context, input commands.ToggleLanguageInput) error
	UpdatePrompt(ctx context.Context, input commands.UpdatePromptInput) error
	SubmitPrompt(ctx context.Context, input commands.SubmitPromptInput) error
}

// CommandExecutor adapts go-command commanders to Executor.
type CommandExecutor struct {
	ThemeCommander    gocommand.Commander[commands.ToggleThemeInput]
	LanguageCommander gocommand.Commander[commands.ToggleLanguageInput]
	PromptCommander   gocommand.Commander[commands.UpdatePromptInput]
	SubmitCommander   gocommand.Commander[commands.SubmitPromptInput]
}

var _ Executor = (*CommandExecutor)(nil)

var errCommanderMissing = errors.New("httpapi: commander not configured")

func (e *CommandExecutor) ToggleTheme(ctx context.Context, input commands.ToggleThemeInput) error {
	if e.ThemeCommander == nil {
		return errCommanderMissing
	}
	return e.ThemeCommander.Execute(ctx, input)
}

func (e *CommandExecutor) ToggleLanguage(ctx context.Context, input commands.ToggleLanguageInput) error {
	if e.LanguageCommander == nil {
		return errCommanderMissing
	}
	return e.LanguageCommander.Execute(ctx, input)
}

func (e *CommandExecutor) UpdatePrompt(ctx context.Context, input commands.UpdatePromptInput) error {
	if e.PromptCommander == nil {
		return errCommanderMissing
	}
	return e.PromptCommander.Execute(ctx, input)
}

func (e *CommandExecutor) SubmitPrompt(ctx context.Context, input commands.SubmitPromptInput) error {
	if e.SubmitCommander == nil {
		return errCommanderMissing
	}
	return e.SubmitCommander.Execute(ctx, input)
}
