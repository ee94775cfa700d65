package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"

	dashboard "github.com/agrik/agrik-dashboard/components/dashboard"
)

// ChatStateInput identifies the session whose chat state is requested.
type ChatStateInput struct {
	SessionID string
}

type chatStateService interface {
	ChatState(ctx context.Context, sessionID string) (dashboard.ChatState, error)
}

// ChatStateQuery reads the current chat request state without mutating it.
type ChatStateQuery struct {
	service chatStateService
}

// NewChatStateQuery builds the query.
func NewChatStateQuery(service chatStateService) *ChatStateQuery {
	return &ChatStateQuery{service: service}
}

var _ gocommand.Querier[ChatStateInput, dashboard.ChatState] = (*ChatStateQuery)(nil)

// Query returns the chat state for the session.
func (q *ChatStateQuery) Query(ctx context.Context, input ChatStateInput) (dashboard.ChatState, error) {
	return q.service.ChatState(ctx, input.SessionID)
}
