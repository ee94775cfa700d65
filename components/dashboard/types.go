package dashboard

import (
	"context"
	"errors"
	"time"
)

// Theme is the light/dark visual mode of the dashboard.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Toggled returns the opposite theme. Unknown values fall back to the default.
func (t Theme) Toggled() Theme {
	switch t {
	case ThemeDark:
		return ThemeLight
	case ThemeLight:
		return ThemeDark
	default:
		return DefaultTheme
	}
}

// Language selects the catalog used for every user-facing label.
type Language string

const (
	LanguageFR Language = "fr"
	LanguageEN Language = "en"
)

// Toggled returns the other supported language.
func (l Language) Toggled() Language {
	switch l {
	case LanguageFR:
		return LanguageEN
	case LanguageEN:
		return LanguageFR
	default:
		return DefaultLanguage
	}
}

// ParseLanguage normalizes a locale hint (`en-US`, `FR`) into a supported language.
func ParseLanguage(locale string) (Language, bool) {
	for _, candidate := range localeCandidates(locale) {
		switch Language(candidate) {
		case LanguageFR:
			return LanguageFR, true
		case LanguageEN:
			return LanguageEN, true
		}
	}
	return DefaultLanguage, false
}

const (
	DefaultTheme    = ThemeDark
	DefaultLanguage = LanguageFR
)

// DisplayPreferences holds the two session-scoped display flags.
type DisplayPreferences struct {
	Theme    Theme    `json:"theme"`
	Language Language `json:"language"`
}

// DefaultPreferences mirrors the initial state of a freshly loaded page.
func DefaultPreferences() DisplayPreferences {
	return DisplayPreferences{Theme: DefaultTheme, Language: DefaultLanguage}
}

// SensorReading is a geo-located sensor shown as a map marker.
type SensorReading struct {
	ID                    string            `json:"id" yaml:"id"`
	Label                 string            `json:"label" yaml:"label"`
	Latitude              float64           `json:"latitude" yaml:"latitude"`
	Longitude             float64           `json:"longitude" yaml:"longitude"`
	DisplayValue          string            `json:"display_value" yaml:"display_value"`
	LabelLocalized        map[string]string `json:"label_localized,omitempty" yaml:"label_localized,omitempty"`
	DisplayValueLocalized map[string]string `json:"display_value_localized,omitempty" yaml:"display_value_localized,omitempty"`
}

// LabelFor resolves the sensor label for the language.
func (r SensorReading) LabelFor(lang Language) string {
	return ResolveLocalizedValue(r.LabelLocalized, string(lang), r.Label)
}

// DisplayValueFor resolves the sensor reading text for the language.
func (r SensorReading) DisplayValueFor(lang Language) string {
	return ResolveLocalizedValue(r.DisplayValueLocalized, string(lang), r.DisplayValue)
}

// SensorTimeSeriesPoint is one sample of the trend chart.
type SensorTimeSeriesPoint struct {
	Timestamp   string  `json:"timestamp" yaml:"timestamp"`
	Temperature float64 `json:"temperature" yaml:"temperature"`
	Humidity    float64 `json:"humidity" yaml:"humidity"`
}

// FieldSummary feeds the summary tiles.
type FieldSummary struct {
	Temperature string `json:"temperature" yaml:"temperature"`
	Humidity    string `json:"humidity" yaml:"humidity"`
	Alerts      int    `json:"alerts" yaml:"alerts"`
}

// FieldSnapshot is everything a SensorProvider serves for one render.
type FieldSnapshot struct {
	Sensors []SensorReading         `json:"sensors" yaml:"sensors"`
	Series  []SensorTimeSeriesPoint `json:"series" yaml:"series"`
	Summary FieldSummary            `json:"summary" yaml:"summary"`
}

// SensorProvider supplies sensor and time-series data to the view.
type SensorProvider interface {
	Snapshot(ctx context.Context) (FieldSnapshot, error)
}

// SensorProviderFunc adapts a function into a SensorProvider.
type SensorProviderFunc func(ctx context.Context) (FieldSnapshot, error)

// Snapshot calls f(ctx).
func (f SensorProviderFunc) Snapshot(ctx context.Context) (FieldSnapshot, error) {
	return f(ctx)
}

// ChatExchange is the current prompt/response pair.
type ChatExchange struct {
	PromptText   string `json:"prompt"`
	ResponseText string `json:"response"`
}

// ChatStatus enumerates the chat request states.
type ChatStatus string

const (
	ChatIdle      ChatStatus = "idle"
	ChatPending   ChatStatus = "pending"
	ChatSucceeded ChatStatus = "succeeded"
	ChatFailed    ChatStatus = "failed"
)

// FailureReason classifies a failed chat request.
type FailureReason string

const (
	FailureTransport FailureReason = "transport"
	FailureStatus    FailureReason = "status"
	FailureMalformed FailureReason = "malformed"
	FailureUnknown   FailureReason = "unknown"
)

// ChatState is a snapshot of the chat request state machine.
type ChatState struct {
	Status   ChatStatus    `json:"status"`
	Seq      uint64        `json:"seq"`
	Prompt   string        `json:"prompt"`
	Response string        `json:"response,omitempty"`
	Reason   FailureReason `json:"reason,omitempty"`
}

// Exchange returns the prompt/response pair represented by the state.
func (s ChatState) Exchange() ChatExchange {
	return ChatExchange{PromptText: s.Prompt, ResponseText: s.Response}
}

// Assistant answers free-text prompts.
type Assistant interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

// AssistantFunc adapts a function into an Assistant.
type AssistantFunc func(ctx context.Context, prompt string) (string, error)

// Ask calls f(ctx, prompt).
func (f AssistantFunc) Ask(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Assistant error classes. Clients wrap these so the view can pick a reason.
var (
	ErrAssistantTransport = errors.New("dashboard: assistant unreachable")
	ErrAssistantStatus    = errors.New("dashboard: assistant returned an error status")
	ErrAssistantMalformed = errors.New("dashboard: assistant returned a malformed payload")
)

// ClassifyFailure maps an assistant error to a FailureReason.
func ClassifyFailure(err error) FailureReason {
	switch {
	case errors.Is(err, ErrAssistantStatus):
		return FailureStatus
	case errors.Is(err, ErrAssistantMalformed):
		return FailureMalformed
	case errors.Is(err, ErrAssistantTransport),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return FailureTransport
	default:
		return FailureUnknown
	}
}

// ViewerContext identifies the session a request belongs to.
type ViewerContext struct {
	SessionID string
	Locale    string
}

// ChatEvent is published whenever a session's chat state changes.
type ChatEvent struct {
	SessionID string    `json:"session_id"`
	State     ChatState `json:"state"`
	At        time.Time `json:"at"`
}

// ExchangeRecord is a completed exchange handed to an ExchangeRecorder.
type ExchangeRecord struct {
	SessionID string
	Seq       uint64
	Prompt    string
	Response  string
	Status    ChatStatus
	Reason    FailureReason
	Stale     bool
	At        time.Time
}

// ExchangeRecorder persists completed exchanges for auditing.
type ExchangeRecorder interface {
	RecordExchange(ctx context.Context, record ExchangeRecord) error
}

// RefreshHook notifies transports (WebSocket/SSE) about chat changes.
type RefreshHook interface {
	ChatUpdated(ctx context.Context, event ChatEvent) error
}
