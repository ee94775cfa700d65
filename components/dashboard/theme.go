package dashboard

import (
	"context"
	"sort"
	"strings"

	"github.com/go-echarts/go-echarts/v2/types"
)

// ThemeProvider lets applications supply their own token sets. It is optional; when absent the
// built-in light and dark selections are used.
type ThemeProvider interface {
	SelectTheme(ctx context.Context, theme Theme) (*ThemeSelection, error)
}

// ThemeSelection carries resolved theme details.
type ThemeSelection struct {
	Name       Theme
	Tokens     map[string]string
	ChartTheme string
	// ToggleIcon is the icon shown on the theme toggle (the mode it switches to).
	ToggleIcon string
}

var builtinThemes = map[Theme]ThemeSelection{
	ThemeLight: {
		Name: ThemeLight,
		Tokens: map[string]string{
			"page-bg":    "#f3f4f6",
			"panel-bg":   "#ffffff",
			"text":       "#111827",
			"muted":      "#6b7280",
			"title":      "#15803d",
			"sidebar-bg": "#14532d",
			"accent":     "#16a34a",
			"error":      "#b91c1c",
		},
		ChartTheme: types.ThemeWesteros,
		ToggleIcon: "moon",
	},
	ThemeDark: {
		Name: ThemeDark,
		Tokens: map[string]string{
			"page-bg":    "#111827",
			"panel-bg":   "#1f2937",
			"text":       "#f9fafb",
			"muted":      "#9ca3af",
			"title":      "#86efac",
			"sidebar-bg": "#14532d",
			"accent":     "#16a34a",
			"error":      "#fca5a5",
		},
		ChartTheme: types.ThemeChalk,
		ToggleIcon: "sun",
	},
}

// SelectTheme resolves a theme through provider when set, else the built-in selection.
func SelectTheme(ctx context.Context, provider ThemeProvider, theme Theme) *ThemeSelection {
	if provider != nil {
		if selection, err := provider.SelectTheme(ctx, theme); err == nil && selection != nil {
			return cloneThemeSelection(selection)
		}
	}
	selection, ok := builtinThemes[theme]
	if !ok {
		selection = builtinThemes[DefaultTheme]
	}
	return cloneThemeSelection(&selection)
}

// CSSVariables normalizes token keys into CSS variable names.
func (theme *ThemeSelection) CSSVariables() map[string]string {
	if theme == nil || len(theme.Tokens) == 0 {
		return nil
	}
	vars := make(map[string]string, len(theme.Tokens))
	for key, value := range theme.Tokens {
		name := normalizeCSSVariable(key)
		if name == "" {
			continue
		}
		vars[name] = value
	}
	return vars
}

// CSSVariablesInline renders the CSS variable map as a style string, sorted by name.
func (theme *ThemeSelection) CSSVariablesInline() string {
	vars := theme.CSSVariables()
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var builder strings.Builder
	for _, key := range keys {
		value := vars[key]
		if value == "" {
			continue
		}
		builder.WriteString(key)
		builder.WriteString(": ")
		builder.WriteString(value)
		builder.WriteString("; ")
	}
	return strings.TrimSpace(builder.String())
}

func normalizeCSSVariable(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, "--") {
		return name
	}
	return "--" + name
}

func cloneThemeSelection(selection *ThemeSelection) *ThemeSelection {
	if selection == nil {
		return nil
	}
	cloned := *selection
	if len(selection.Tokens) > 0 {
		cloned.Tokens = make(map[string]string, len(selection.Tokens))
		for key, value := range selection.Tokens {
			cloned.Tokens[key] = value
		}
	}
	return &cloned
}
