package dashboard

import (
	"context"
	"fmt"
	"sync"
)

// PreferenceStore keeps display preferences per session.
type PreferenceStore interface {
	Preferences(ctx context.Context, sessionID string) (DisplayPreferences, error)
	SavePreferences(ctx context.Context, sessionID string, prefs DisplayPreferences) error
	Forget(ctx context.Context, sessionID string) error
}

// InMemoryPreferenceStore is the default store. Preferences live only as long as the session.
type InMemoryPreferenceStore struct {
	mu   sync.RWMutex
	data map[string]DisplayPreferences
}

// NewInMemoryPreferenceStore creates an empty preference store.
func NewInMemoryPreferenceStore() *InMemoryPreferenceStore {
	return &InMemoryPreferenceStore{
		data: make(map[string]DisplayPreferences),
	}
}

// Preferences returns stored preferences or defaults.
func (s *InMemoryPreferenceStore) Preferences(_ context.Context, sessionID string) (DisplayPreferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if prefs, ok := s.data[sessionID]; ok {
		return normalizePreferences(prefs), nil
	}
	return DefaultPreferences(), nil
}

// SavePreferences persists preferences for a session.
func (s *InMemoryPreferenceStore) SavePreferences(_ context.Context, sessionID string, prefs DisplayPreferences) error {
	if sessionID == "" {
		return fmt.Errorf("preference store requires session id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = normalizePreferences(prefs)
	return nil
}

// Forget drops the preferences of a session.
func (s *InMemoryPreferenceStore) Forget(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

func normalizePreferences(prefs DisplayPreferences) DisplayPreferences {
	if prefs.Theme != ThemeLight && prefs.Theme != ThemeDark {
		prefs.Theme = DefaultTheme
	}
	if prefs.Language != LanguageFR && prefs.Language != LanguageEN {
		prefs.Language = DefaultLanguage
	}
	return prefs
}
