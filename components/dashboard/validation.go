package dashboard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// DefaultMaxPromptLength bounds prompts in characters (code points).
const DefaultMaxPromptLength = 2000

var (
	// ErrPromptEmpty rejects blank submissions.
	ErrPromptEmpty = errors.New("dashboard: prompt is empty")
	// ErrPromptTooLong rejects prompts above the configured length.
	ErrPromptTooLong = errors.New("dashboard: prompt is too long")
)

// PromptValidator checks a prompt before it is forwarded to the assistant.
type PromptValidator interface {
	ValidatePrompt(prompt string) error
}

// JSONSchemaPromptValidator validates the `{prompt}` payload against a compiled JSON schema.
type JSONSchemaPromptValidator struct {
	schema *jsonschema.Schema
}

// NewJSONSchemaPromptValidator compiles the prompt schema for the given maximum length.
func NewJSONSchemaPromptValidator(maxLength int) (*JSONSchemaPromptValidator, error) {
	if maxLength <= 0 {
		maxLength = DefaultMaxPromptLength
	}
	source := fmt.Sprintf(`{
		"type": "object",
		"required": ["prompt"],
		"properties": {
			"prompt": {"type": "string", "minLength": 1, "maxLength": %d, "pattern": "\\S"}
		}
	}`, maxLength)
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("prompt.json", strings.NewReader(source)); err != nil {
		return nil, fmt.Errorf("dashboard: load prompt schema: %w", err)
	}
	schema, err := compiler.Compile("prompt.json")
	if err != nil {
		return nil, fmt.Errorf("dashboard: compile prompt schema: %w", err)
	}
	return &JSONSchemaPromptValidator{schema: schema}, nil
}

// ValidatePrompt returns ErrPromptEmpty or ErrPromptTooLong (wrapping the schema error) on failure.
func (v *JSONSchemaPromptValidator) ValidatePrompt(prompt string) error {
	err := v.schema.Validate(map[string]any{"prompt": prompt})
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if errors.As(err, &verr) && hasKeyword(verr, "maxLength") {
		return fmt.Errorf("%w: %v", ErrPromptTooLong, err)
	}
	return fmt.Errorf("%w: %v", ErrPromptEmpty, err)
}

func hasKeyword(verr *jsonschema.ValidationError, keyword string) bool {
	if strings.HasSuffix(verr.KeywordLocation, "/"+keyword) {
		return true
	}
	for _, cause := range verr.Causes {
		if hasKeyword(cause, keyword) {
			return true
		}
	}
	return false
}

func rejectionLabel(err error) string {
	if errors.Is(err, ErrPromptTooLong) {
		return LabelChatRejectLength
	}
	return LabelChatRejectEmpty
}
