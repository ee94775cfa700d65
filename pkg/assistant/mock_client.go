package assistant

import (
	"context"
	"strings"
	"sync"

	dashboard "github.com/agrik/agrik-dashboard/components/dashboard"
)

// MockClient answers prompts from a fixed table, for demos and tests.
type MockClient struct {
	mu       sync.RWMutex
	answers  map[string]string
	fallback string
	prompts  []string
}

var _ dashboard.Assistant = (*MockClient)(nil)

// NewMockClient builds a mock assistant. Lookups are case-insensitive on the trimmed prompt.
func NewMockClient(answers map[string]string, fallback string) *MockClient {
	normalized := make(map[string]string, len(answers))
	for prompt, answer := range answers {
		normalized[normalizePrompt(prompt)] = answer
	}
	return &MockClient{answers: normalized, fallback: fallback}
}

// DefaultMockClient knows the demo field questions.
func DefaultMockClient() *MockClient {
	return NewMockClient(map[string]string{
		"What is the soil humidity?":     "55%",
		"Quelle est l'humidité du sol ?": "55%",
		"What is the temperature?":       "29°C",
		"Quelle est la température ?":    "29°C",
		"Are there any alerts?":          "No active alerts.",
		"Y a-t-il des alertes ?":         "Aucune alerte active.",
	}, "I can answer questions about temperature, soil humidity and alerts.")
}

// Ask returns the stored answer or the fallback.
func (m *MockClient) Ask(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	if answer, ok := m.answers[normalizePrompt(prompt)]; ok {
		return answer, nil
	}
	return m.fallback, nil
}

// Prompts returns the prompts received so far.
func (m *MockClient) Prompts() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.prompts...)
}

func normalizePrompt(prompt string) string {
	return strings.ToLower(strings.TrimSpace(prompt))
}
