package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrik/agrik-dashboard/components/dashboard"
)

func TestSensorAddCreatesManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fields", "north.yaml")
	var out bytes.Buffer
	cmd := &sensorAddCmd{
		Manifest: path,
		ID:       "Soil Probe 2",
		Label:    "Sol Capteur 2",
		LabelEN:  "Soil Sensor 2",
		Lat:      3.851,
		Lng:      11.503,
		Value:    "Humidité 47%",
		out:      &out,
	}
	require.NoError(t, cmd.Run())
	assert.Contains(t, out.String(), "soil-probe-2")

	doc, err := dashboard.ReadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "north", doc.Name)
	require.Len(t, doc.Sensors, 1)
	assert.Equal(t, "soil-probe-2", doc.Sensors[0].ID)
	assert.Equal(t, "Soil Sensor 2", doc.Sensors[0].LabelFor(dashboard.LanguageEN))
}

func TestSensorAddRequiresOverwriteForDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "field.yaml")
	add := func(label string, overwrite bool) error {
		cmd := &sensorAddCmd{Manifest: path, ID: "temp-1", Label: label, Lat: 3.8, Lng: 11.5, Overwrite: overwrite, out: &bytes.Buffer{}}
		return cmd.Run()
	}
	require.NoError(t, add("Temp A", false))
	assert.Error(t, add("Temp B", false))
	require.NoError(t, add("Temp B", true))

	doc, err := dashboard.ReadManifest(path)
	require.NoError(t, err)
	require.Len(t, doc.Sensors, 1)
	assert.Equal(t, "Temp B", doc.Sensors[0].Label)
}

func TestSensorAddRejectsBadCoordinates(t *testing.T) {
	cmd := &sensorAddCmd{
		Manifest: filepath.Join(t.TempDir(), "field.yaml"),
		ID:       "temp-9",
		Label:    "Temp",
		Lat:      95,
		out:      &bytes.Buffer{},
	}
	assert.Error(t, cmd.Run())
}

func TestSensorValidateListsSensors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "field.yaml")
	require.NoError(t, (&sensorAddCmd{Manifest: path, ID: "temp-1", Label: "Temp Capteur 1", Lat: 3.848, Lng: 11.502, out: &bytes.Buffer{}}).Run())

	var out bytes.Buffer
	require.NoError(t, (&sensorValidateCmd{Manifest: path, out: &out}).Run())
	assert.Contains(t, out.String(), "1 sensors")
	assert.Contains(t, out.String(), "temp-1")
}
