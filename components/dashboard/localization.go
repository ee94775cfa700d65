package dashboard

import (
	"context"
	"sort"
	"strings"
)

// TranslationService exposes locale-aware translation helpers. When configured it takes precedence over
// the built-in catalog; missing keys fall back to the catalog.
type TranslationService interface {
	Translate(ctx context.Context, key, locale string, args map[string]any) (string, error)
}

// Label keys used by the view.
const (
	LabelTitle             = "dashboard.title"
	LabelToggleLanguage    = "dashboard.toggle.language"
	LabelToggleThemeLight  = "dashboard.toggle.theme_light"
	LabelToggleThemeDark   = "dashboard.toggle.theme_dark"
	LabelSidebarTemp       = "dashboard.sidebar.temperature"
	LabelSidebarHumidity   = "dashboard.sidebar.humidity"
	LabelSidebarAlerts     = "dashboard.sidebar.alerts"
	LabelSidebarChat       = "dashboard.sidebar.chat"
	LabelTileTemperature   = "dashboard.tile.temperature"
	LabelTileHumidity      = "dashboard.tile.humidity"
	LabelTileAlerts        = "dashboard.tile.alerts"
	LabelTileChat          = "dashboard.tile.chat"
	LabelAlertsNone        = "dashboard.alerts.none"
	LabelMapTitle          = "dashboard.map.title"
	LabelChartTitle        = "dashboard.chart.title"
	LabelSeriesTemperature = "dashboard.chart.series.temperature"
	LabelSeriesHumidity    = "dashboard.chart.series.humidity"
	LabelChatTitle         = "dashboard.chat.title"
	LabelChatPlaceholder   = "dashboard.chat.placeholder"
	LabelChatSubmit        = "dashboard.chat.submit"
	LabelChatIdle          = "dashboard.chat.idle"
	LabelChatPending       = "dashboard.chat.pending"
	LabelChatErrTransport  = "dashboard.chat.error.transport"
	LabelChatErrStatus     = "dashboard.chat.error.status"
	LabelChatErrMalformed  = "dashboard.chat.error.malformed"
	LabelChatErrUnknown    = "dashboard.chat.error.unknown"
	LabelChatRejectEmpty   = "dashboard.chat.reject.empty"
	LabelChatRejectLength  = "dashboard.chat.reject.too_long"
)

var catalog = map[Language]map[string]string{
	LanguageFR: {
		LabelTitle:             "Tableau de bord AgriK",
		LabelToggleLanguage:    "FR",
		LabelToggleThemeLight:  "Mode clair",
		LabelToggleThemeDark:   "Mode sombre",
		LabelSidebarTemp:       "Température",
		LabelSidebarHumidity:   "Humidité",
		LabelSidebarAlerts:     "Alertes",
		LabelSidebarChat:       "Discussion",
		LabelTileTemperature:   "Température",
		LabelTileHumidity:      "Humidité",
		LabelTileAlerts:        "Alertes",
		LabelTileChat:          "Chat IA",
		LabelAlertsNone:        "Aucune",
		LabelMapTitle:          "Carte des capteurs",
		LabelChartTitle:        "Évolution des capteurs",
		LabelSeriesTemperature: "Température (°C)",
		LabelSeriesHumidity:    "Humidité (%)",
		LabelChatTitle:         "Assistant IA",
		LabelChatPlaceholder:   "Posez une question...",
		LabelChatSubmit:        "Demander",
		LabelChatIdle:          "...",
		LabelChatPending:       "Réflexion en cours…",
		LabelChatErrTransport:  "Assistant injoignable, réessayez.",
		LabelChatErrStatus:     "L'assistant a renvoyé une erreur, réessayez.",
		LabelChatErrMalformed:  "Réponse de l'assistant illisible, réessayez.",
		LabelChatErrUnknown:    "Échec de la demande, réessayez.",
		LabelChatRejectEmpty:   "Saisissez une question avant d'envoyer.",
		LabelChatRejectLength:  "Question trop longue.",
	},
	LanguageEN: {
		LabelTitle:             "AgriK Dashboard",
		LabelToggleLanguage:    "EN",
		LabelToggleThemeLight:  "Light mode",
		LabelToggleThemeDark:   "Dark mode",
		LabelSidebarTemp:       "Temperature",
		LabelSidebarHumidity:   "Humidity",
		LabelSidebarAlerts:     "Alerts",
		LabelSidebarChat:       "Chat",
		LabelTileTemperature:   "Temperature",
		LabelTileHumidity:      "Humidity",
		LabelTileAlerts:        "Alerts",
		LabelTileChat:          "AI Chat",
		LabelAlertsNone:        "None",
		LabelMapTitle:          "Sensor map",
		LabelChartTitle:        "Sensor Trends",
		LabelSeriesTemperature: "Temperature (°C)",
		LabelSeriesHumidity:    "Humidity (%)",
		LabelChatTitle:         "AI Assistant",
		LabelChatPlaceholder:   "Ask something...",
		LabelChatSubmit:        "Ask",
		LabelChatIdle:          "...",
		LabelChatPending:       "Thinking…",
		LabelChatErrTransport:  "Assistant unreachable, please retry.",
		LabelChatErrStatus:     "The assistant returned an error, please retry.",
		LabelChatErrMalformed:  "Unreadable assistant reply, please retry.",
		LabelChatErrUnknown:    "Request failed, please retry.",
		LabelChatRejectEmpty:   "Type a question before sending.",
		LabelChatRejectLength:  "Question is too long.",
	},
}

// Labels is a resolved label set keyed by label key.
type Labels map[string]string

// Get returns the label or the key itself when missing.
func (l Labels) Get(key string) string {
	if v, ok := l[key]; ok && v != "" {
		return v
	}
	return key
}

// CatalogKeys lists the label keys known to the built-in catalog.
func CatalogKeys() []string {
	keys := make([]string, 0, len(catalog[DefaultLanguage]))
	for key := range catalog[DefaultLanguage] {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// CatalogLabels returns a copy of the built-in labels for a language.
func CatalogLabels(lang Language) Labels {
	src := catalog[lang]
	if src == nil {
		src = catalog[DefaultLanguage]
	}
	out := make(Labels, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// ResolveLabels builds the label set for lang, letting svc override catalog entries.
func ResolveLabels(ctx context.Context, svc TranslationService, lang Language) Labels {
	labels := CatalogLabels(lang)
	if svc == nil {
		return labels
	}
	for key, fallback := range labels {
		labels[key] = translateOrFallback(ctx, svc, key, string(lang), fallback, nil)
	}
	return labels
}

// ResolveLocalizedValue selects the best translation for the provided locale and falls back to the supplied value.
// Keys are matched case-insensitively, and language-region pairs (`fr-cm`) fall back to their
// base language (`fr`) when present.
func ResolveLocalizedValue(values map[string]string, locale, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	for _, candidate := range localeCandidates(locale) {
		if candidate == "" {
			continue
		}
		for key, value := range values {
			if strings.EqualFold(key, candidate) && value != "" {
				return value
			}
		}
	}
	if value, ok := values["default"]; ok && value != "" {
		return value
	}
	return fallback
}

func localeCandidates(locale string) []string {
	locale = normalizeLocale(locale)
	if locale == "" {
		return []string{"default"}
	}
	candidates := []string{locale}
	if idx := strings.IndexAny(locale, "-_"); idx > 0 {
		candidates = append(candidates, locale[:idx])
	}
	candidates = append(candidates, "default")
	return candidates
}

func normalizeLocale(locale string) string {
	return strings.TrimSpace(strings.ToLower(locale))
}

func translateOrFallback(ctx context.Context, svc TranslationService, key, locale, fallback string, params map[string]any) string {
	if svc != nil {
		if translated, err := svc.Translate(ctx, key, locale, params); err == nil && translated != "" {
			return translated
		}
	}
	if fallback != "" {
		return fallback
	}
	return key
}
