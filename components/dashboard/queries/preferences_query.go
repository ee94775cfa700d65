package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"

	dashboard "github.com/agrik/agrik-dashboard/components/dashboard"
)

type preferencesService interface {
	Preferences(ctx context.Context, sessionID string) (dashboard.DisplayPreferences, error)
}

// PreferencesQuery returns the display preferences of a session.
type PreferencesQuery struct {
	service preferencesService
}

// NewPreferencesQuery builds the query.
func NewPreferencesQuery(service preferencesService) *PreferencesQuery {
	return &PreferencesQuery{service: service}
}

var _ gocommand.Querier[string, dashboard.DisplayPreferences] = (*PreferencesQuery)(nil)

// Query resolves preferences for the session id.
func (q *PreferencesQuery) Query(ctx context.Context, sessionID string) (dashboard.DisplayPreferences, error) {
	return q.service.Preferences(ctx, sessionID)
}
