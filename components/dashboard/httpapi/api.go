package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	gocommand "github.com/goliatone/go-command"

	"github.com/agrik/agrik-dashboard/components/dashboard"
	"github.com/agrik/agrik-dashboard/components/dashboard/commands"
	"github.com/agrik/agrik-dashboard/components/dashboard/queries"
)

// SessionHeader carries the session id when the query parameter is absent.
const SessionHeader = dashboard.SessionHeader

// ViewSource resolves or creates the viewer session and renders its view. *dashboard.Controller
// satisfies it.
type ViewSource interface {
	View(ctx context.Context, viewer dashboard.ViewerContext) (dashboard.View, error)
}

// Handlers exposes HTTP endpoints backed by shared commands and queries.
type Handlers struct {
	Theme       gocommand.Commander[commands.ToggleThemeInput]
	Language    gocommand.Commander[commands.ToggleLanguageInput]
	Prompt      gocommand.Commander[commands.UpdatePromptInput]
	Submit      gocommand.Commander[commands.SubmitPromptInput]
	Views       ViewSource
	ChatState   gocommand.Querier[queries.ChatStateInput, dashboard.ChatState]
	Preferences gocommand.Querier[string, dashboard.DisplayPreferences]
}

// SessionFromRequest reads the session id from the `session` query parameter or SessionHeader.
func SessionFromRequest(r *http.Request) string {
	if id := r.URL.Query().Get("session"); id != "" {
		return id
	}
	return r.Header.Get(SessionHeader)
}

func (h *Handlers) HandleToggleTheme(w http.ResponseWriter, r *http.Request) {
	var prefs dashboard.DisplayPreferences
	input := commands.ToggleThemeInput{SessionID: SessionFromRequest(r), Result: &prefs}
	if err := h.Theme.Execute(r.Context(), input); err != nil {
		writeError(w, StatusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (h *Handlers) HandleToggleLanguage(w http.ResponseWriter, r *http.Request) {
	var prefs dashboard.DisplayPreferences
	input := commands.ToggleLanguageInput{SessionID: SessionFromRequest(r), Result: &prefs}
	if err := h.Language.Execute(r.Context(), input); err != nil {
		writeError(w, StatusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (h *Handlers) HandleUpdatePrompt(w http.ResponseWriter, r *http.Request) {
	var payload commands.UpdatePromptInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	payload.SessionID = SessionFromRequest(r)
	if err := h.Prompt.Execute(r.Context(), payload); err != nil {
		writeError(w, StatusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleSubmitPrompt(w http.ResponseWriter, r *http.Request) {
	var payload commands.SubmitPromptInput
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	var ticket dashboard.ChatTicket
	payload.SessionID = SessionFromRequest(r)
	payload.Ticket = &ticket
	if err := h.Submit.Execute(r.Context(), payload); err != nil {
		writeError(w, StatusFor(err), err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"seq": ticket.Seq})
}

// HandleView returns the JSON view of the request session, creating a session when the id is
// missing or unknown. The session id in use is echoed in SessionHeader.
func (h *Handlers) HandleView(w http.ResponseWriter, r *http.Request) {
	if h.Views == nil {
		writeError(w, http.StatusNotImplemented, errViewsMissing)
		return
	}
	viewer := dashboard.ViewerContext{
		SessionID: SessionFromRequest(r),
		Locale:    strings.ToLower(strings.TrimSpace(r.URL.Query().Get("locale"))),
	}
	view, err := h.Views.View(r.Context(), viewer)
	if err != nil {
		writeError(w, StatusFor(err), err)
		return
	}
	w.Header().Set(SessionHeader, view.SessionID)
	writeJSON(w, http.StatusOK, view)
}

func (h *Handlers) HandleChatState(w http.ResponseWriter, r *http.Request) {
	if h.ChatState == nil {
		writeError(w, http.StatusNotImplemented, errQueryMissing)
		return
	}
	state, err := h.ChatState.Query(r.Context(), queries.ChatStateInput{SessionID: SessionFromRequest(r)})
	if err != nil {
		writeError(w, StatusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handlers) HandlePreferences(w http.ResponseWriter, r *http.Request) {
	if h.Preferences == nil {
		writeError(w, http.StatusNotImplemented, errQueryMissing)
		return
	}
	prefs, err := h.Preferences.Query(r.Context(), SessionFromRequest(r))
	if err != nil {
		writeError(w, StatusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

var (
	errViewsMissing = errors.New("httpapi: view source not configured")
	errQueryMissing = errors.New("httpapi: query not configured")
)

// StatusFor maps dashboard and command errors to HTTP status codes.
func StatusFor(err error) int {
	var missing *commands.SessionRequiredError
	switch {
	case errors.Is(err, dashboard.ErrPromptEmpty), errors.Is(err, dashboard.ErrPromptTooLong):
		return http.StatusUnprocessableEntity
	case errors.Is(err, dashboard.ErrUnknownSession):
		return http.StatusNotFound
	case errors.As(err, &missing), errors.Is(err, dashboard.ErrMissingSession):
		return http.StatusBadRequest
	case errors.Is(err, dashboard.ErrAssistantNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
