package gorouter

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	gocommand "github.com/goliatone/go-command"
	router "github.com/goliatone/go-router"

	"github.com/agrik/agrik-dashboard/components/dashboard"
	"github.com/agrik/agrik-dashboard/components/dashboard/commands"
	"github.com/agrik/agrik-dashboard/components/dashboard/httpapi"
	"github.com/agrik/agrik-dashboard/components/dashboard/queries"
)

// DefaultBasePath prefixes every dashboard route.
const DefaultBasePath = "/agrik"

// ViewerResolver converts a router.Context into a dashboard.ViewerContext.
type ViewerResolver func(router.Context) dashboard.ViewerContext

// Config wires go-router with the dashboard controller, command API, and broadcast hook.
type Config[T any] struct {
	Router         router.Router[T]
	Controller     *dashboard.Controller
	API            httpapi.Executor
	Broadcast      *dashboard.BroadcastHook
	ChatState      gocommand.Querier[queries.ChatStateInput, dashboard.ChatState]
	Preferences    gocommand.Querier[string, dashboard.DisplayPreferences]
	ViewerResolver ViewerResolver
	BasePath       string
	Routes         RouteConfig
}

// RouteConfig customizes the relative paths used for dashboard endpoints.
type RouteConfig struct {
	HTML      string
	View      string
	Theme     string
	Language  string
	Prefs     string
	Prompt    string
	Chat      string
	ChatState string
	WebSocket string
}

// Register mounts the dashboard routes on a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.Controller == nil {
		return errors.New("gorouter: controller is required")
	}
	routes := defaultRouteConfig(cfg.Routes)
	base := cfg.BasePath
	if base == "" {
		base = DefaultBasePath
	}
	resolver := cfg.ViewerResolver
	if resolver == nil {
		resolver = DefaultViewerResolver
	}

	group := cfg.Router.Group(base)

	group.Get(routes.HTML, router.WrapHandler(func(ctx router.Context) error {
		viewer := resolver(ctx)
		var buf bytes.Buffer
		if _, err := cfg.Controller.RenderTemplate(ctx.Context(), viewer, &buf); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
		return ctx.Send(buf.Bytes())
	}))

	group.Get(routes.View, router.WrapHandler(func(ctx router.Context) error {
		view, err := cfg.Controller.View(ctx.Context(), resolver(ctx))
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		ctx.SetHeader(httpapi.SessionHeader, view.SessionID)
		return ctx.JSON(http.StatusOK, view)
	}))

	if cfg.API != nil {
		registerAPI(group, cfg.API, resolver, routes)
	}

	if cfg.ChatState != nil {
		group.Get(routes.ChatState, router.WrapHandler(func(ctx router.Context) error {
			state, err := cfg.ChatState.Query(ctx.Context(), queries.ChatStateInput{SessionID: resolver(ctx).SessionID})
			if err != nil {
				return respondError(ctx, httpapi.StatusFor(err), err)
			}
			return ctx.JSON(http.StatusOK, state)
		}))
	}

	if cfg.Preferences != nil {
		group.Get(routes.Prefs, router.WrapHandler(func(ctx router.Context) error {
			prefs, err := cfg.Preferences.Query(ctx.Context(), resolver(ctx).SessionID)
			if err != nil {
				return respondError(ctx, httpapi.StatusFor(err), err)
			}
			return ctx.JSON(http.StatusOK, prefs)
		}))
	}

	if cfg.Broadcast != nil {
		registerWebSocket(group, cfg.Broadcast, resolver, routes.WebSocket)
	}

	return nil
}

func registerAPI[T any](r router.Router[T], api httpapi.Executor, resolver ViewerResolver, routes RouteConfig) {
	r.Post(routes.Theme, router.WrapHandler(func(ctx router.Context) error {
		var prefs dashboard.DisplayPreferences
		input := commands.ToggleThemeInput{SessionID: resolver(ctx).SessionID, Result: &prefs}
		if err := api.ToggleTheme(ctx.Context(), input); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, prefs)
	}))

	r.Post(routes.Language, router.WrapHandler(func(ctx router.Context) error {
		var prefs dashboard.DisplayPreferences
		input := commands.ToggleLanguageInput{SessionID: resolver(ctx).SessionID, Result: &prefs}
		if err := api.ToggleLanguage(ctx.Context(), input); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, prefs)
	}))

	r.Post(routes.Prompt, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.UpdatePromptInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		payload.SessionID = resolver(ctx).SessionID
		if err := api.UpdatePrompt(ctx.Context(), payload); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "stored"})
	}))

	r.Post(routes.Chat, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.SubmitPromptInput
		if body := ctx.Body(); len(bytes.TrimSpace(body)) > 0 {
			if err := json.Unmarshal(body, &payload); err != nil {
				return respondError(ctx, http.StatusBadRequest, err)
			}
		}
		var ticket dashboard.ChatTicket
		payload.SessionID = resolver(ctx).SessionID
		payload.Ticket = &ticket
		if err := api.SubmitPrompt(ctx.Context(), payload); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusAccepted, map[string]any{"seq": ticket.Seq})
	}))
}

func registerWebSocket[T any](r router.Router[T], hook *dashboard.BroadcastHook, resolver ViewerResolver, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		session := ""
		if rc, ok := ws.(router.Context); ok {
			session = resolver(rc).SessionID
		}
		if session == "" {
			return ws.Close()
		}
		events, cancel := hook.Subscribe(session)
		defer cancel()
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := ws.WriteJSON(event); err != nil {
					return err
				}
			case <-ws.Context().Done():
				return ws.Close()
			}
		}
	})
}

// DefaultViewerResolver reads the session id from Locals, the `session` query parameter, or the
// session header, and the locale hint from Locals or the `locale` query parameter.
func DefaultViewerResolver(ctx router.Context) dashboard.ViewerContext {
	var viewer dashboard.ViewerContext
	if v, ok := ctx.Locals("session").(string); ok && v != "" {
		viewer.SessionID = v
	} else if v := strings.TrimSpace(ctx.Query("session")); v != "" {
		viewer.SessionID = v
	} else {
		viewer.SessionID = strings.TrimSpace(ctx.Header(httpapi.SessionHeader))
	}
	viewer.Locale = inferLocale(ctx)
	return viewer
}

func inferLocale(ctx router.Context) string {
	if locale, ok := ctx.Locals("locale").(string); ok && locale != "" {
		return locale
	}
	if locale := strings.TrimSpace(ctx.Query("locale")); locale != "" {
		return strings.ToLower(locale)
	}
	return ""
}

func respondError(ctx router.Context, status int, err error) error {
	return ctx.JSON(status, map[string]string{"error": err.Error()})
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.HTML == "" {
		routes.HTML = "/dashboard"
	}
	if routes.View == "" {
		routes.View = "/dashboard/_view"
	}
	if routes.Theme == "" {
		routes.Theme = "/dashboard/theme"
	}
	if routes.Language == "" {
		routes.Language = "/dashboard/language"
	}
	if routes.Prefs == "" {
		routes.Prefs = "/dashboard/preferences"
	}
	if routes.ChatState == "" {
		routes.ChatState = "/dashboard/chat/state"
	}
	if routes.Prompt == "" {
		routes.Prompt = "/dashboard/chat/prompt"
	}
	if routes.Chat == "" {
		routes.Chat = "/dashboard/chat"
	}
	if routes.WebSocket == "" {
		routes.WebSocket = "/dashboard/ws"
	}
	return routes
}
