package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	defaultChatTimeout = 15 * time.Second
	defaultSessionTTL  = 2 * time.Hour
)

var (
	// ErrUnknownSession is returned for session ids the service does not hold.
	ErrUnknownSession = errors.New("dashboard: unknown session")
	// ErrMissingSession is returned when an operation receives an empty session id.
	ErrMissingSession = errors.New("dashboard: session id is required")
	// ErrAssistantNotConfigured is returned by SubmitChatPrompt when no Assistant was provided.
	ErrAssistantNotConfigured = errors.New("dashboard: assistant not configured")
)

// Options configures the dashboard Service. Every collaborator is provided via
// interface so applications can swap implementations (fixtures, MQTT feed, mock assistant).
type Options struct {
	Sensors     SensorProvider
	Assistant   Assistant
	Preferences PreferenceStore
	Translator  TranslationService
	Themes      ThemeProvider
	Charts      *EChartsProvider
	Validator   PromptValidator
	RefreshHook RefreshHook
	Recorder    ExchangeRecorder
	Telemetry   Telemetry
	Logger      *slog.Logger
	MapOptions  MapOptions
	ChatTimeout time.Duration
	SessionTTL  time.Duration
	Now         func() time.Time
}

// Service owns the per-session dashboard state and mediates the assistant call.
type Service struct {
	opts Options

	mu       sync.RWMutex
	sessions map[string]*session
}

type session struct {
	id       string
	prefsMu  sync.Mutex
	chat     *chatSession
	lastSeen time.Time
}

// ChatTicket identifies an accepted submission. Done receives the session's chat state once
// the request settles (the latest state when the response was stale) and is then closed.
type ChatTicket struct {
	Seq  uint64
	Done <-chan ChatState
}

// NewService builds a Service instance with safe defaults.
func NewService(opts Options) *Service {
	if opts.Sensors == nil {
		opts.Sensors = NewStaticSensorProvider(FixtureSnapshot())
	}
	if opts.Preferences == nil {
		opts.Preferences = NewInMemoryPreferenceStore()
	}
	if opts.Charts == nil {
		opts.Charts = NewEChartsProvider()
	}
	if opts.Validator == nil {
		validator, err := NewJSONSchemaPromptValidator(DefaultMaxPromptLength)
		if err != nil {
			panic(fmt.Errorf("dashboard: default prompt validator: %w", err))
		}
		opts.Validator = validator
	}
	if opts.RefreshHook == nil {
		opts.RefreshHook = noopRefreshHook{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ChatTimeout <= 0 {
		opts.ChatTimeout = defaultChatTimeout
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = defaultSessionTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	return &Service{
		opts:     opts,
		sessions: make(map[string]*session),
	}
}

// EnsureSession returns the viewer's session id, creating a session with default preferences
// when the id is empty or unknown. The viewer locale, when it names a supported language,
// replaces the default language of a new session.
func (s *Service) EnsureSession(ctx context.Context, viewer ViewerContext) (string, error) {
	if viewer.SessionID != "" {
		if sess, ok := s.lookup(viewer.SessionID); ok {
			return sess.id, nil
		}
	}
	prefs := DefaultPreferences()
	if lang, ok := ParseLanguage(viewer.Locale); ok {
		prefs.Language = lang
	}
	id := uuid.NewString()
	if err := s.opts.Preferences.SavePreferences(ctx, id, prefs); err != nil {
		return "", err
	}
	s.mu.Lock()
	s.sessions[id] = &session{id: id, chat: newChatSession(), lastSeen: s.opts.Now()}
	s.mu.Unlock()
	s.recordTelemetry(ctx, "dashboard.session.create", map[string]any{
		"session":  id,
		"language": string(prefs.Language),
	})
	return id, nil
}

// Preferences returns the display preferences of a session.
func (s *Service) Preferences(ctx context.Context, sessionID string) (DisplayPreferences, error) {
	if _, err := s.session(sessionID); err != nil {
		return DisplayPreferences{}, err
	}
	return s.opts.Preferences.Preferences(ctx, sessionID)
}

// ToggleTheme flips the session theme between light and dark.
func (s *Service) ToggleTheme(ctx context.Context, sessionID string) (DisplayPreferences, error) {
	return s.updatePreferences(ctx, sessionID, "dashboard.theme.toggle", func(p *DisplayPreferences) {
		p.Theme = p.Theme.Toggled()
	})
}

// ToggleLanguage flips the session language between FR and EN.
func (s *Service) ToggleLanguage(ctx context.Context, sessionID string) (DisplayPreferences, error) {
	return s.updatePreferences(ctx, sessionID, "dashboard.language.toggle", func(p *DisplayPreferences) {
		p.Language = p.Language.Toggled()
	})
}

func (s *Service) updatePreferences(ctx context.Context, sessionID, event string, mutate func(*DisplayPreferences)) (DisplayPreferences, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return DisplayPreferences{}, err
	}
	sess.prefsMu.Lock()
	defer sess.prefsMu.Unlock()
	prefs, err := s.opts.Preferences.Preferences(ctx, sessionID)
	if err != nil {
		return DisplayPreferences{}, err
	}
	mutate(&prefs)
	if err := s.opts.Preferences.SavePreferences(ctx, sessionID, prefs); err != nil {
		return DisplayPreferences{}, err
	}
	s.recordTelemetry(ctx, event, map[string]any{
		"session":  sessionID,
		"theme":    string(prefs.Theme),
		"language": string(prefs.Language),
	})
	return prefs, nil
}

// UpdateChatPrompt stores the prompt text verbatim. Any string, including empty, is accepted.
func (s *Service) UpdateChatPrompt(ctx context.Context, sessionID, text string) error {
	sess, err := s.session(sessionID)
	if err != nil {
		return err
	}
	sess.chat.setPrompt(text)
	return nil
}

// SubmitChatPrompt validates the stored prompt and sends it to the assistant asynchronously.
// Rejected prompts leave the chat state unchanged and return ErrPromptEmpty or ErrPromptTooLong.
func (s *Service) SubmitChatPrompt(ctx context.Context, sessionID string) (ChatTicket, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return ChatTicket{}, err
	}
	if s.opts.Assistant == nil {
		return ChatTicket{}, ErrAssistantNotConfigured
	}
	prompt := sess.chat.currentPrompt()
	if err := s.opts.Validator.ValidatePrompt(prompt); err != nil {
		sess.chat.reject(rejectionLabel(err))
		s.recordTelemetry(ctx, "dashboard.chat.reject", map[string]any{
			"session": sessionID,
			"error":   err.Error(),
		})
		return ChatTicket{}, err
	}

	pending := sess.chat.begin(prompt)
	s.publish(ctx, sessionID, pending)
	s.recordTelemetry(ctx, "dashboard.chat.submit", map[string]any{
		"session": sessionID,
		"seq":     pending.Seq,
	})

	done := make(chan ChatState, 1)
	go s.resolveChat(context.WithoutCancel(ctx), sess, pending, done)
	return ChatTicket{Seq: pending.Seq, Done: done}, nil
}

func (s *Service) resolveChat(ctx context.Context, sess *session, pending ChatState, done chan<- ChatState) {
	defer close(done)
	callCtx, cancel := context.WithTimeout(ctx, s.opts.ChatTimeout)
	defer cancel()

	reply, askErr := s.opts.Assistant.Ask(callCtx, pending.Prompt)
	state, err := sess.chat.complete(pending.Seq, reply, askErr)
	stale := errors.Is(err, ErrStaleResponse)

	logger := s.opts.Logger.With("session", sess.id, "seq", pending.Seq)
	switch {
	case stale:
		logger.Debug("discarded stale assistant response", "latest_seq", state.Seq)
	case askErr != nil:
		logger.Warn("assistant request failed", "reason", string(state.Reason), "error", askErr)
	default:
		logger.Debug("assistant request completed")
	}

	s.recordExchange(ctx, sess.id, pending, reply, askErr, stale)
	if !stale {
		s.publish(ctx, sess.id, state)
	}
	s.recordTelemetry(ctx, "dashboard.chat.complete", map[string]any{
		"session": sess.id,
		"seq":     pending.Seq,
		"status":  string(state.Status),
		"stale":   stale,
	})
	done <- state
}

// ChatState returns the current chat state of a session.
func (s *Service) ChatState(_ context.Context, sessionID string) (ChatState, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return ChatState{}, err
	}
	_, state, _ := sess.chat.snapshot()
	return state, nil
}

// Render builds the view of a session: labels, theme, field data and chat state.
func (s *Service) Render(ctx context.Context, sessionID string) (View, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return View{}, err
	}
	prefs, err := s.opts.Preferences.Preferences(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	snapshot, err := s.opts.Sensors.Snapshot(ctx)
	if err != nil {
		return View{}, fmt.Errorf("dashboard: sensor snapshot: %w", err)
	}
	prompt, chat, rejection := sess.chat.snapshot()
	view := BuildView(ViewInput{
		SessionID:   sessionID,
		Preferences: prefs,
		Labels:      ResolveLabels(ctx, s.opts.Translator, prefs.Language),
		Theme:       SelectTheme(ctx, s.opts.Themes, prefs.Theme),
		Snapshot:    snapshot,
		Prompt:      prompt,
		Chat:        chat,
		Rejection:   rejection,
		MapOptions:  s.opts.MapOptions,
	})
	chart, err := s.opts.Charts.Render(view.Chart)
	if err != nil {
		s.opts.Logger.Warn("trend chart render failed", "session", sessionID, "error", err)
	} else {
		view.Chart = chart
	}
	s.recordTelemetry(ctx, "dashboard.render", map[string]any{
		"session":  sessionID,
		"language": string(prefs.Language),
		"theme":    string(prefs.Theme),
	})
	return view, nil
}

// Sweep drops sessions idle for longer than the session TTL and returns how many were removed.
func (s *Service) Sweep(ctx context.Context) int {
	cutoff := s.opts.Now().Add(-s.opts.SessionTTL)
	var expired []string
	s.mu.Lock()
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			expired = append(expired, id)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()
	for _, id := range expired {
		if err := s.opts.Preferences.Forget(ctx, id); err != nil {
			s.opts.Logger.Warn("forget session preferences", "session", id, "error", err)
		}
	}
	if len(expired) > 0 {
		s.recordTelemetry(ctx, "dashboard.session.sweep", map[string]any{"count": len(expired)})
	}
	return len(expired)
}

// SessionCount reports the number of live sessions.
func (s *Service) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Service) session(id string) (*session, error) {
	if id == "" {
		return nil, ErrMissingSession
	}
	sess, ok := s.lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	return sess, nil
}

func (s *Service) lookup(id string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if ok {
		sess.lastSeen = s.opts.Now()
	}
	return sess, ok
}

func (s *Service) publish(ctx context.Context, sessionID string, state ChatState) {
	event := ChatEvent{SessionID: sessionID, State: state, At: s.opts.Now()}
	if err := s.opts.RefreshHook.ChatUpdated(ctx, event); err != nil {
		s.opts.Logger.Warn("chat refresh hook failed", "session", sessionID, "error", err)
	}
}

func (s *Service) recordExchange(ctx context.Context, sessionID string, pending ChatState, reply string, askErr error, stale bool) {
	if s.opts.Recorder == nil {
		return
	}
	record := ExchangeRecord{
		SessionID: sessionID,
		Seq:       pending.Seq,
		Prompt:    pending.Prompt,
		Status:    ChatSucceeded,
		Response:  reply,
		Stale:     stale,
		At:        s.opts.Now(),
	}
	if askErr != nil {
		record.Status = ChatFailed
		record.Reason = ClassifyFailure(askErr)
		record.Response = ""
	}
	if err := s.opts.Recorder.RecordExchange(ctx, record); err != nil {
		s.opts.Logger.Warn("record chat exchange", "session", sessionID, "seq", pending.Seq, "error", err)
	}
}

func (s *Service) recordTelemetry(ctx context.Context, event string, payload map[string]any) {
	s.opts.Telemetry.Record(ctx, event, payload)
}

type noopRefreshHook struct{}

func (noopRefreshHook) ChatUpdated(context.Context, ChatEvent) error {
	return nil
}
