package gorouter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	router "github.com/goliatone/go-router"

	"github.com/agrik/agrik-dashboard/components/dashboard"
	"github.com/agrik/agrik-dashboard/components/dashboard/commands"
	"github.com/agrik/agrik-dashboard/components/dashboard/queries"
)

func TestRegisterValidatesConfig(t *testing.T) {
	err := Register(Config[struct{}]{})
	if err == nil {
		t.Fatalf("expected error when router/controller missing")
	}
}

func TestRegisterMountsRoutes(t *testing.T) {
	mock := newMockRouter()
	service := newDemoService()
	if err := Register(Config[struct{}]{
		Router:         mock,
		Controller:     newController(&stubRenderer{}),
		API:            &stubExecutor{},
		Broadcast:      dashboard.NewBroadcastHook(),
		ChatState:      queries.NewChatStateQuery(service),
		Preferences:    queries.NewPreferencesQuery(service),
		ViewerResolver: localsResolver,
	}); err != nil {
		t.Fatalf("register returned error: %v", err)
	}
	for _, key := range []string{
		"GET:/agrik/dashboard",
		"GET:/agrik/dashboard/_view",
		"POST:/agrik/dashboard/theme",
		"POST:/agrik/dashboard/language",
		"POST:/agrik/dashboard/chat/prompt",
		"POST:/agrik/dashboard/chat",
		"GET:/agrik/dashboard/chat/state",
		"GET:/agrik/dashboard/preferences",
	} {
		if _, ok := mock.routes[key]; !ok {
			t.Fatalf("expected route %s", key)
		}
	}
	if _, ok := mock.ws["/agrik/dashboard/ws"]; !ok {
		t.Fatalf("expected websocket route")
	}
}

func TestRegisterHTMLRoute(t *testing.T) {
	mock := newMockRouter()
	renderer := &stubRenderer{}
	if err := Register(Config[struct{}]{
		Router:         mock,
		Controller:     newController(renderer),
		ViewerResolver: localsResolver,
	}); err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	ctx := newMockContext()
	if err := mock.routes["GET:/agrik/dashboard"](ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if len(ctx.body) == 0 {
		t.Fatalf("expected response body")
	}
	if renderer.calls == 0 {
		t.Fatalf("renderer not invoked")
	}
	if ctx.headers["Content-Type"] != "text/html; charset=utf-8" {
		t.Fatalf("expected html content type, got %q", ctx.headers["Content-Type"])
	}
}

func TestViewRouteHonorsLocaleHint(t *testing.T) {
	mock := newMockRouter()
	if err := Register(Config[struct{}]{
		Router:         mock,
		Controller:     newController(&stubRenderer{}),
		ViewerResolver: localsResolver,
	}); err != nil {
		t.Fatalf("register returned error: %v", err)
	}
	ctx := newMockContext()
	ctx.locals["locale"] = "en-US"
	if err := mock.routes["GET:/agrik/dashboard/_view"](ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if ctx.status != http.StatusOK {
		t.Fatalf("expected 200, got %d", ctx.status)
	}
	var view dashboard.View
	if err := json.Unmarshal(ctx.body, &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if view.Header.Title != "AgriK Dashboard" {
		t.Fatalf("expected EN title, got %q", view.Header.Title)
	}
	if view.SessionID == "" || ctx.headers["X-Agrik-Session"] != view.SessionID {
		t.Fatalf("expected session id in body and header")
	}
}

func TestChatRouteReturnsSeq(t *testing.T) {
	mock := newMockRouter()
	exec := &stubExecutor{seq: 7}
	if err := Register(Config[struct{}]{
		Router:         mock,
		Controller:     newController(&stubRenderer{}),
		API:            exec,
		ViewerResolver: localsResolver,
	}); err != nil {
		t.Fatalf("register returned error: %v", err)
	}
	ctx := newMockContext()
	ctx.locals["session"] = "s1"
	ctx.body = []byte(`{"prompt":"What is the soil humidity?"}`)
	if err := mock.routes["POST:/agrik/dashboard/chat"](ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if ctx.status != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", ctx.status)
	}
	if exec.submitted.SessionID != "s1" || exec.submitted.Prompt == nil {
		t.Fatalf("unexpected submit input %+v", exec.submitted)
	}
	var body map[string]uint64
	if err := json.Unmarshal(ctx.body, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["seq"] != 7 {
		t.Fatalf("expected seq 7, got %v", body)
	}
}

func TestChatRouteRejectsBlankPrompt(t *testing.T) {
	mock := newMockRouter()
	exec := &stubExecutor{submitErr: dashboard.ErrPromptEmpty}
	if err := Register(Config[struct{}]{
		Router:         mock,
		Controller:     newController(&stubRenderer{}),
		API:            exec,
		ViewerResolver: localsResolver,
	}); err != nil {
		t.Fatalf("register returned error: %v", err)
	}
	ctx := newMockContext()
	ctx.locals["session"] = "s1"
	if err := mock.routes["POST:/agrik/dashboard/chat"](ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if ctx.status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", ctx.status)
	}
}

func TestThemeRoute(t *testing.T) {
	mock := newMockRouter()
	exec := &stubExecutor{}
	if err := Register(Config[struct{}]{
		Router:         mock,
		Controller:     newController(&stubRenderer{}),
		API:            exec,
		ViewerResolver: localsResolver,
	}); err != nil {
		t.Fatalf("register returned error: %v", err)
	}
	ctx := newMockContext()
	ctx.locals["session"] = "s1"
	if err := mock.routes["POST:/agrik/dashboard/theme"](ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if ctx.status != http.StatusOK || exec.themeCalls != 1 {
		t.Fatalf("expected theme toggle, status=%d calls=%d", ctx.status, exec.themeCalls)
	}
}

func TestChatStateRoute(t *testing.T) {
	mock := newMockRouter()
	service := newDemoService()
	session, err := service.EnsureSession(context.Background(), dashboard.ViewerContext{})
	if err != nil {
		t.Fatalf("EnsureSession: %v", err)
	}
	if err := Register(Config[struct{}]{
		Router:         mock,
		Controller:     newController(&stubRenderer{}),
		ChatState:      queries.NewChatStateQuery(service),
		ViewerResolver: localsResolver,
	}); err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	ctx := newMockContext()
	ctx.locals["session"] = session
	if err := mock.routes["GET:/agrik/dashboard/chat/state"](ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	var state dashboard.ChatState
	if err := json.Unmarshal(ctx.body, &state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ctx.status != http.StatusOK || state.Status != dashboard.ChatIdle {
		t.Fatalf("expected idle state, status=%d state=%+v", ctx.status, state)
	}

	missing := newMockContext()
	missing.locals["session"] = "unknown"
	if err := mock.routes["GET:/agrik/dashboard/chat/state"](missing); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if missing.status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown session, got %d", missing.status)
	}
}

// --- Test helpers ---

func newDemoService() *dashboard.Service {
	return dashboard.NewService(dashboard.Options{
		Assistant: dashboard.AssistantFunc(func(context.Context, string) (string, error) { return "55%", nil }),
	})
}

func newController(renderer dashboard.Renderer) *dashboard.Controller {
	service := newDemoService()
	return dashboard.NewController(dashboard.ControllerOptions{
		Service:  service,
		Renderer: renderer,
		Endpoint: "/agrik/dashboard",
	})
}

func localsResolver(ctx router.Context) dashboard.ViewerContext {
	var viewer dashboard.ViewerContext
	if v, ok := ctx.Locals("session").(string); ok {
		viewer.SessionID = v
	}
	if v, ok := ctx.Locals("locale").(string); ok {
		viewer.Locale = v
	}
	return viewer
}

type mockRouter struct {
	router.Router[struct{}]
	prefix string
	routes map[string]router.HandlerFunc
	ws     map[string]func(router.WebSocketContext) error
}

func newMockRouter() *mockRouter {
	return &mockRouter{
		routes: map[string]router.HandlerFunc{},
		ws:     map[string]func(router.WebSocketContext) error{},
	}
}

func (m *mockRouter) Group(prefix string) router.Router[struct{}] {
	return &mockRouter{
		prefix: m.prefix + prefix,
		routes: m.routes,
		ws:     m.ws,
	}
}

func (m *mockRouter) record(method, path string, handler router.HandlerFunc) {
	m.routes[method+":"+m.prefix+path] = handler
}

func (m *mockRouter) Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo {
	m.record(string(router.GET), path, handler)
	return mockRouteInfo{}
}

func (m *mockRouter) Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo {
	m.record(string(router.POST), path, handler)
	return mockRouteInfo{}
}

func (m *mockRouter) WebSocket(path string, cfg router.WebSocketConfig, handler func(router.WebSocketContext) error) router.RouteInfo {
	m.ws[m.prefix+path] = handler
	return mockRouteInfo{}
}

type mockRouteInfo struct {
	router.RouteInfo
}

// baseContext fills in the router.Context methods the routes do not call.
type baseContext interface {
	router.Context
}

type mockContext struct {
	baseContext
	ctx     context.Context
	headers map[string]string
	body    []byte
	locals  map[any]any
	status  int
}

func newMockContext() *mockContext {
	return &mockContext{
		ctx:     context.Background(),
		headers: map[string]string{},
		locals:  map[any]any{},
	}
}

func (m *mockContext) Context() context.Context {
	return m.ctx
}

func (m *mockContext) SetHeader(k, v string) router.Context {
	m.headers[k] = v
	return m
}

func (m *mockContext) Send(b []byte) error {
	m.body = append([]byte{}, b...)
	return nil
}

func (m *mockContext) JSON(code int, v any) error {
	m.status = code
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.body = data
	return nil
}

func (m *mockContext) Body() []byte { return m.body }

func (m *mockContext) Locals(key any, value ...any) any {
	if len(value) == 0 {
		return m.locals[key]
	}
	m.locals[key] = value[0]
	return value[0]
}

type stubExecutor struct {
	seq        uint64
	submitErr  error
	submitted  commands.SubmitPromptInput
	themeCalls int
}

func (s *stubExecutor) ToggleTheme(_ context.Context, in commands.ToggleThemeInput) error {
	s.themeCalls++
	if in.Result != nil {
		*in.Result = dashboard.DisplayPreferences{Theme: dashboard.ThemeLight, Language: dashboard.LanguageFR}
	}
	return nil
}

func (s *stubExecutor) ToggleLanguage(context.Context, commands.ToggleLanguageInput) error {
	return nil
}

func (s *stubExecutor) UpdatePrompt(context.Context, commands.UpdatePromptInput) error { return nil }

func (s *stubExecutor) SubmitPrompt(_ context.Context, in commands.SubmitPromptInput) error {
	s.submitted = in
	if s.submitErr != nil {
		return s.submitErr
	}
	if in.Ticket != nil {
		in.Ticket.Seq = s.seq
	}
	return nil
}

type stubRenderer struct {
	calls int
}

func (s *stubRenderer) Render(name string, data any, out ...io.Writer) (string, error) {
	s.calls++
	if len(out) > 0 && out[0] != nil {
		out[0].Write([]byte("ok"))
	}
	return "ok", nil
}
