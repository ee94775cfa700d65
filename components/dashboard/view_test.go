package dashboard

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildViewEnglishHasNoFrenchLabels(t *testing.T) {
	view := BuildView(ViewInput{
		SessionID:   "s1",
		Preferences: DisplayPreferences{Theme: ThemeDark, Language: LanguageEN},
		Snapshot:    FixtureSnapshot(),
		Chat:        ChatState{Status: ChatIdle},
	})
	data, err := json.Marshal(view)
	require.NoError(t, err)
	body := string(data)
	for _, french := range []string{"Tableau de bord", "Humidité", "Température", "Alertes", "Aucune", "Capteur", "Mode clair"} {
		assert.NotContains(t, body, french)
	}
	assert.Equal(t, "AgriK Dashboard", view.Header.Title)
	assert.Equal(t, "EN", view.Header.LanguageToggle.Label)
	assert.Equal(t, "Light mode", view.Header.ThemeToggle.Label)
	assert.Equal(t, "sun", view.Header.ThemeToggle.Icon)
}

func TestBuildViewTilesAndSidebar(t *testing.T) {
	snapshot := FixtureSnapshot()
	snapshot.Summary.Alerts = 2
	view := BuildView(ViewInput{
		Preferences: DisplayPreferences{Theme: ThemeLight, Language: LanguageFR},
		Snapshot:    snapshot,
		Chat:        ChatState{Status: ChatSucceeded, Seq: 1, Prompt: "Humidité ?", Response: "55%"},
	})
	require.Len(t, view.Sidebar, 4)
	require.Len(t, view.Tiles, 4)
	assert.Equal(t, "29°C", view.Tiles[0].Value)
	assert.Equal(t, "55%", view.Tiles[1].Value)
	assert.Equal(t, "2", view.Tiles[2].Value)
	assert.Equal(t, "55%", view.Tiles[3].Value)
	assert.Equal(t, "55%", view.Chat.StatusText)
	assert.Equal(t, "Mode sombre", view.Header.ThemeToggle.Label)
	assert.Equal(t, "moon", view.Header.ThemeToggle.Icon)
	assert.True(t, strings.Contains(view.ThemeStyle, "--page-bg: #f3f4f6;"))
}

func TestBuildViewChatStates(t *testing.T) {
	labels := CatalogLabels(LanguageEN)
	base := ViewInput{Preferences: DisplayPreferences{Language: LanguageEN, Theme: ThemeDark}, Labels: labels}

	pending := base
	pending.Chat = ChatState{Status: ChatPending, Seq: 2}
	view := BuildView(pending)
	assert.True(t, view.Chat.Pending)
	assert.Equal(t, labels.Get(LabelChatPending), view.Chat.StatusText)
	assert.Equal(t, "None", view.Tiles[2].Value)

	failed := base
	failed.Chat = ChatState{Status: ChatFailed, Seq: 3, Reason: FailureMalformed}
	failed.Rejection = LabelChatRejectEmpty
	view = BuildView(failed)
	assert.True(t, view.Chat.Failed)
	assert.Equal(t, labels.Get(LabelChatErrMalformed), view.Chat.StatusText)
	assert.Equal(t, labels.Get(LabelChatRejectEmpty), view.Chat.Rejection)
	assert.Equal(t, uint64(3), view.Chat.Seq)
}

func TestSelectThemeFallsBackToBuiltins(t *testing.T) {
	light := SelectTheme(context.Background(), nil, ThemeLight)
	light.Tokens["page-bg"] = "changed"
	again := SelectTheme(context.Background(), nil, ThemeLight)
	assert.Equal(t, "#f3f4f6", again.Tokens["page-bg"])

	unknown := SelectTheme(context.Background(), nil, Theme("sepia"))
	assert.Equal(t, DefaultTheme, unknown.Name)
	assert.Equal(t, "--page-bg", normalizeCSSVariable("page-bg"))
	assert.Equal(t, "--x", normalizeCSSVariable("--x"))
}
