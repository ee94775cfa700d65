package dashboard

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeManifest(t *testing.T) {
	const payload = `
version: 1
name: parcelle-nord
sensors:
  - id: temp-2
    label: Temp Capteur 2
    latitude: 3.86
    longitude: 11.51
    display_value: "31°C"
    label_localized:
      fr: Temp Capteur 2
      en: Temp Sensor 2
series:
  - {timestamp: "08:00", temperature: 27, humidity: 48}
summary:
  temperature: "31°C"
  humidity: "48%"
  alerts: 1
`
	doc, err := DecodeManifest(strings.NewReader(payload))
	require.NoError(t, err)
	require.Len(t, doc.Sensors, 1)

	snap := doc.Snapshot()
	assert.Equal(t, "Temp Sensor 2", snap.Sensors[0].LabelFor(LanguageEN))
	assert.Equal(t, 1, snap.Summary.Alerts)
	require.Len(t, snap.Series, 1)
	assert.InDelta(t, 48, snap.Series[0].Humidity, 0.001)
}

func TestDecodeManifestRejectsInvalidDocuments(t *testing.T) {
	cases := map[string]string{
		"empty":       ``,
		"version":     "version: 2\nsensors: [{id: a, label: A}]\n",
		"no sensors":  "version: 1\n",
		"missing id":  "sensors: [{label: A}]\n",
		"duplicate":   "sensors: [{id: a, label: A}, {id: a, label: B}]\n",
		"coordinates": "sensors: [{id: a, label: A, latitude: 120}]\n",
		"unknown key": "sensors: [{id: a, label: A}]\nwidgets: []\n",
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeManifest(strings.NewReader(payload))
			assert.Error(t, err)
		})
	}
}

func TestManifestRoundTripThroughFile(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeManifest(&buf, NewFieldManifest("demo", FixtureSnapshot())))

	path := filepath.Join(t.TempDir(), "field.yaml")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	doc, err := ReadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, path, doc.Source)
	assert.Equal(t, "demo", doc.Name)
	assert.Equal(t, FixtureSnapshot(), doc.Snapshot())
}
