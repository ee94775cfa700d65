package dashboard

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMapPanelOneMarkerPerSensor(t *testing.T) {
	sensors := FixtureSnapshot().Sensors
	panel := BuildMapPanel(sensors, LanguageEN, CatalogLabels(LanguageEN), MapOptions{})

	require.Len(t, panel.Markers, len(sensors))
	assert.Equal(t, "Sensor map", panel.Title)
	assert.Equal(t, DefaultTileURL, panel.TileURL)
	assert.Equal(t, DefaultMapZoom, panel.Zoom)
	assert.InDelta(t, 3.848, panel.CenterLat, 1e-9)

	soil := panel.Markers[1]
	assert.Equal(t, "marker-soil-1", soil.DOMID)
	assert.Equal(t, "Soil Sensor 1", soil.Label)
	assert.Equal(t, "Humidity 55%", soil.Value)
	assert.Equal(t, "Soil Sensor 1: Humidity 55%", soil.Popup)
	assert.InDelta(t, 11.50, soil.Longitude, 1e-9)
}

func TestBuildMapPanelFrenchPopups(t *testing.T) {
	panel := BuildMapPanel(FixtureSnapshot().Sensors, LanguageFR, CatalogLabels(LanguageFR), MapOptions{Zoom: 15, CenterLat: 4, CenterLng: 12})
	assert.Equal(t, "Temp Capteur 1: 29°C", panel.Markers[0].Popup)
	assert.Equal(t, "Sol Capteur 1: Humidité 55%", panel.Markers[1].Popup)
	assert.Equal(t, 15, panel.Zoom)
	assert.InDelta(t, 4, panel.CenterLat, 1e-9)
}

func TestMapPanelMarkersJSON(t *testing.T) {
	panel := BuildMapPanel(FixtureSnapshot().Sensors, LanguageEN, nil, MapOptions{})
	var markers []map[string]any
	require.NoError(t, json.Unmarshal([]byte(panel.MarkersJSON()), &markers))
	require.Len(t, markers, 2)
	assert.Equal(t, "Temp Sensor 1", markers[0]["label"])
	assert.Contains(t, markers[0], "lat")
	assert.Contains(t, markers[0], "popup")

	assert.Equal(t, "[]", MapPanel{Markers: []MapMarker{}}.MarkersJSON())
}
