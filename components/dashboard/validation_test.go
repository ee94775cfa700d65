package dashboard

import (
	"errors"
	"strings"
	"testing"
)

func TestPromptValidatorRejectsBlankPrompts(t *testing.T) {
	validator, err := NewJSONSchemaPromptValidator(0)
	if err != nil {
		t.Fatalf("NewJSONSchemaPromptValidator returned error: %v", err)
	}
	for _, prompt := range []string{"", " ", "   ", "\n\t "} {
		if err := validator.ValidatePrompt(prompt); !errors.Is(err, ErrPromptEmpty) {
			t.Fatalf("expected ErrPromptEmpty for %q, got %v", prompt, err)
		}
	}
}

func TestPromptValidatorLengthLimit(t *testing.T) {
	validator, err := NewJSONSchemaPromptValidator(DefaultMaxPromptLength)
	if err != nil {
		t.Fatalf("NewJSONSchemaPromptValidator returned error: %v", err)
	}
	if err := validator.ValidatePrompt(strings.Repeat("é", DefaultMaxPromptLength)); err != nil {
		t.Fatalf("expected %d code points to be accepted, got %v", DefaultMaxPromptLength, err)
	}
	err = validator.ValidatePrompt(strings.Repeat("a", DefaultMaxPromptLength+1))
	if !errors.Is(err, ErrPromptTooLong) {
		t.Fatalf("expected ErrPromptTooLong, got %v", err)
	}
	if rejectionLabel(err) != LabelChatRejectLength {
		t.Fatalf("expected too-long rejection label")
	}
}

func TestPromptValidatorAcceptsQuestions(t *testing.T) {
	validator, err := NewJSONSchemaPromptValidator(20)
	if err != nil {
		t.Fatalf("NewJSONSchemaPromptValidator returned error: %v", err)
	}
	for _, prompt := range []string{"Humidité ?", "  soil  "} {
		if err := validator.ValidatePrompt(prompt); err != nil {
			t.Fatalf("expected %q to be accepted, got %v", prompt, err)
		}
	}
	if err := validator.ValidatePrompt(strings.Repeat("x", 21)); !errors.Is(err, ErrPromptTooLong) {
		t.Fatalf("expected custom limit to apply, got %v", err)
	}
	if rejectionLabel(ErrPromptEmpty) != LabelChatRejectEmpty {
		t.Fatalf("expected empty rejection label")
	}
}
