package dashboard

import (
	"context"
	"strconv"
)

// View is the render model of the dashboard page. It is a pure function of the session
// state and the field snapshot (see BuildView); only the chart HTML is filled in afterwards.
type View struct {
	SessionID   string             `json:"session_id"`
	Preferences DisplayPreferences `json:"preferences"`
	ThemeStyle  string             `json:"theme_style"`
	Sidebar     []SidebarItem      `json:"sidebar"`
	Header      Header             `json:"header"`
	Tiles       []Tile             `json:"tiles"`
	Map         MapPanel           `json:"map"`
	Chart       TrendChart         `json:"chart"`
	Chat        ChatPanel          `json:"chat"`
}

// SidebarItem is one icon of the fixed sidebar.
type SidebarItem struct {
	Icon  string `json:"icon"`
	Label string `json:"label"`
}

// Header carries the localized title and both toggles.
type Header struct {
	Title          string `json:"title"`
	LanguageToggle Toggle `json:"language_toggle"`
	ThemeToggle    Toggle `json:"theme_toggle"`
}

// Toggle is a header control.
type Toggle struct {
	Label string `json:"label"`
	Icon  string `json:"icon,omitempty"`
}

// Tile is one of the four summary tiles.
type Tile struct {
	Key   string `json:"key"`
	Icon  string `json:"icon"`
	Tone  string `json:"tone"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// ChatPanel is the assistant panel model.
type ChatPanel struct {
	Title       string     `json:"title"`
	Placeholder string     `json:"placeholder"`
	SubmitLabel string     `json:"submit_label"`
	Prompt      string     `json:"prompt"`
	Status      ChatStatus `json:"status"`
	StatusText  string     `json:"status_text"`
	Seq         uint64     `json:"seq"`
	Pending     bool       `json:"pending"`
	Failed      bool       `json:"failed"`
	Rejection   string     `json:"rejection,omitempty"`
}

// ViewInput gathers everything BuildView needs.
type ViewInput struct {
	SessionID   string
	Preferences DisplayPreferences
	Labels      Labels
	Theme       *ThemeSelection
	Snapshot    FieldSnapshot
	Prompt      string
	Chat        ChatState
	// Rejection is the label key of the last rejected submission, if any.
	Rejection  string
	MapOptions MapOptions
}

// BuildView composes the page model.
func BuildView(in ViewInput) View {
	labels := in.Labels
	if labels == nil {
		labels = CatalogLabels(in.Preferences.Language)
	}
	theme := in.Theme
	if theme == nil {
		theme = SelectTheme(context.Background(), nil, in.Preferences.Theme)
	}
	themeToggle := Toggle{Icon: theme.ToggleIcon, Label: labels.Get(LabelToggleThemeLight)}
	if in.Preferences.Theme == ThemeLight {
		themeToggle.Label = labels.Get(LabelToggleThemeDark)
	}
	statusText := chatStatusText(in.Chat, labels)
	chat := ChatPanel{
		Title:       labels.Get(LabelChatTitle),
		Placeholder: labels.Get(LabelChatPlaceholder),
		SubmitLabel: labels.Get(LabelChatSubmit),
		Prompt:      in.Prompt,
		Status:      in.Chat.Status,
		StatusText:  statusText,
		Seq:         in.Chat.Seq,
		Pending:     in.Chat.Status == ChatPending,
		Failed:      in.Chat.Status == ChatFailed,
	}
	if in.Rejection != "" {
		chat.Rejection = labels.Get(in.Rejection)
	}
	return View{
		SessionID:   in.SessionID,
		Preferences: in.Preferences,
		ThemeStyle:  theme.CSSVariablesInline(),
		Sidebar: []SidebarItem{
			{Icon: "thermometer", Label: labels.Get(LabelSidebarTemp)},
			{Icon: "droplet", Label: labels.Get(LabelSidebarHumidity)},
			{Icon: "alert-triangle", Label: labels.Get(LabelSidebarAlerts)},
			{Icon: "message-square", Label: labels.Get(LabelSidebarChat)},
		},
		Header: Header{
			Title:          labels.Get(LabelTitle),
			LanguageToggle: Toggle{Label: labels.Get(LabelToggleLanguage)},
			ThemeToggle:    themeToggle,
		},
		Tiles: []Tile{
			{Key: "temperature", Icon: "thermometer", Tone: "red", Label: labels.Get(LabelTileTemperature), Value: in.Snapshot.Summary.Temperature},
			{Key: "humidity", Icon: "droplet", Tone: "blue", Label: labels.Get(LabelTileHumidity), Value: in.Snapshot.Summary.Humidity},
			{Key: "alerts", Icon: "alert-triangle", Tone: "yellow", Label: labels.Get(LabelTileAlerts), Value: alertsValue(in.Snapshot.Summary.Alerts, labels)},
			{Key: "chat", Icon: "message-square", Tone: "green", Label: labels.Get(LabelTileChat), Value: statusText},
		},
		Map:   BuildMapPanel(in.Snapshot.Sensors, in.Preferences.Language, labels, in.MapOptions),
		Chart: BuildTrendChart(in.Snapshot.Series, labels, theme),
		Chat:  chat,
	}
}

func alertsValue(count int, labels Labels) string {
	if count <= 0 {
		return labels.Get(LabelAlertsNone)
	}
	return strconv.Itoa(count)
}
