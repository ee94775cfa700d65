package commands

import (
	"context"
	"errors"
	"testing"

	dashboard "github.com/agrik/agrik-dashboard/components/dashboard"
)

func TestToggleThemeCommand(t *testing.T) {
	service := &stubService{prefs: dashboard.DefaultPreferences()}
	telemetry := &stubTelemetry{}
	cmd := NewToggleThemeCommand(service, telemetry)
	var result dashboard.DisplayPreferences
	if err := cmd.Execute(context.Background(), ToggleThemeInput{SessionID: "s1", Result: &result}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if service.themeCalls != 1 {
		t.Fatalf("expected toggle theme call")
	}
	if result.Theme != dashboard.ThemeLight {
		t.Fatalf("expected light theme after toggling dark default, got %s", result.Theme)
	}
	if telemetry.calls != 1 {
		t.Fatalf("expected telemetry event")
	}
}

func TestToggleLanguageCommand(t *testing.T) {
	service := &stubService{prefs: dashboard.DefaultPreferences()}
	cmd := NewToggleLanguageCommand(service, nil)
	var result dashboard.DisplayPreferences
	if err := cmd.Execute(context.Background(), ToggleLanguageInput{SessionID: "s1", Result: &result}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if result.Language != dashboard.LanguageEN {
		t.Fatalf("expected EN after toggling FR default, got %s", result.Language)
	}
}

func TestCommandsRequireSession(t *testing.T) {
	service := &stubService{}
	err := NewToggleThemeCommand(service, nil).Execute(context.Background(), ToggleThemeInput{})
	var missing *SessionRequiredError
	if !errors.As(err, &missing) {
		t.Fatalf("expected SessionRequiredError, got %v", err)
	}
	if service.themeCalls != 0 {
		t.Fatalf("service should not be called without session")
	}
}

func TestUpdatePromptCommand(t *testing.T) {
	service := &stubService{}
	cmd := NewUpdatePromptCommand(service, nil)
	if err := cmd.Execute(context.Background(), UpdatePromptInput{SessionID: "s1", Prompt: "  "}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if service.prompt != "  " {
		t.Fatalf("expected prompt stored verbatim, got %q", service.prompt)
	}
}

func TestSubmitPromptCommand(t *testing.T) {
	service := &stubService{ticket: dashboard.ChatTicket{Seq: 3}}
	cmd := NewSubmitPromptCommand(service, nil)
	prompt := "What is the soil humidity?"
	var ticket dashboard.ChatTicket
	if err := cmd.Execute(context.Background(), SubmitPromptInput{SessionID: "s1", Prompt: &prompt, Ticket: &ticket}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if service.prompt != prompt {
		t.Fatalf("expected prompt to be stored before submit")
	}
	if service.submitCalls != 1 || ticket.Seq != 3 {
		t.Fatalf("expected submit with seq 3, got calls=%d seq=%d", service.submitCalls, ticket.Seq)
	}
}

func TestSubmitPromptCommandPropagatesRejection(t *testing.T) {
	service := &stubService{submitErr: dashboard.ErrPromptEmpty}
	err := NewSubmitPromptCommand(service, nil).Execute(context.Background(), SubmitPromptInput{SessionID: "s1"})
	if !errors.Is(err, dashboard.ErrPromptEmpty) {
		t.Fatalf("expected ErrPromptEmpty, got %v", err)
	}
}

func TestSweepSessionsCommand(t *testing.T) {
	service := &stubService{swept: 2}
	telemetry := &stubTelemetry{}
	var removed int
	if err := NewSweepSessionsCommand(service, telemetry).Execute(context.Background(), SweepSessionsInput{Removed: &removed}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if removed != 2 || telemetry.calls != 1 {
		t.Fatalf("expected 2 removed and one event, got %d/%d", removed, telemetry.calls)
	}
}

type stubService struct {
	prefs       dashboard.DisplayPreferences
	prompt      string
	ticket      dashboard.ChatTicket
	submitErr   error
	swept       int
	themeCalls  int
	submitCalls int
}

func (s *stubService) ToggleTheme(context.Context, string) (dashboard.DisplayPreferences, error) {
	s.themeCalls++
	s.prefs.Theme = s.prefs.Theme.Toggled()
	return s.prefs, nil
}

func (s *stubService) ToggleLanguage(context.Context, string) (dashboard.DisplayPreferences, error) {
	s.prefs.Language = s.prefs.Language.Toggled()
	return s.prefs, nil
}

func (s *stubService) UpdateChatPrompt(_ context.Context, _ string, text string) error {
	s.prompt = text
	return nil
}

func (s *stubService) SubmitChatPrompt(context.Context, string) (dashboard.ChatTicket, error) {
	s.submitCalls++
	return s.ticket, s.submitErr
}

func (s *stubService) Sweep(context.Context) int { return s.swept }

type stubTelemetry struct {
	calls int
}

func (s *stubTelemetry) Record(context.Context, string, map[string]any) {
	s.calls++
}
