package dashboard

import (
	"net/http"

	core "github.com/agrik/agrik-dashboard/components/dashboard"
	"github.com/agrik/agrik-dashboard/components/dashboard/commands"
	"github.com/agrik/agrik-dashboard/components/dashboard/httpapi"
	"github.com/agrik/agrik-dashboard/components/dashboard/queries"
)

// NewHTTPHandler mounts the dashboard JSON API and event streams on a net/http mux for
// applications that do not use go-router. Paths are relative to the returned handler:
//
//	GET  /_view (creates a session when none is given), /chat/state, /preferences
//	POST /theme, /language, /chat/prompt, /chat
//	GET  /ws (WebSocket), /events (SSE)
func NewHTTPHandler(service *Service, hook *core.BroadcastHook, telemetry core.Telemetry) http.Handler {
	api := &httpapi.Handlers{
		Theme:       commands.NewToggleThemeCommand(service, telemetry),
		Language:    commands.NewToggleLanguageCommand(service, telemetry),
		Prompt:      commands.NewUpdatePromptCommand(service, telemetry),
		Submit:      commands.NewSubmitPromptCommand(service, telemetry),
		Views:       core.NewController(core.ControllerOptions{Service: service}),
		ChatState:   queries.NewChatStateQuery(service),
		Preferences: queries.NewPreferencesQuery(service),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /_view", api.HandleView)
	mux.HandleFunc("GET /chat/state", api.HandleChatState)
	mux.HandleFunc("GET /preferences", api.HandlePreferences)
	mux.HandleFunc("POST /theme", api.HandleToggleTheme)
	mux.HandleFunc("POST /language", api.HandleToggleLanguage)
	mux.HandleFunc("POST /chat/prompt", api.HandleUpdatePrompt)
	mux.HandleFunc("POST /chat", api.HandleSubmitPrompt)
	if hook != nil {
		mux.HandleFunc("GET /ws", hook.ServeWebSocket)
		mux.HandleFunc("GET /events", hook.ServeSSE)
	}
	return mux
}
