package dashboard

import "context"

// FixtureSnapshot returns the demonstration data the dashboard ships with.
func FixtureSnapshot() FieldSnapshot {
	return FieldSnapshot{
		Sensors: []SensorReading{
			{
				ID:           "temp-1",
				Label:        "Temp Capteur 1",
				Latitude:     3.848,
				Longitude:    11.502,
				DisplayValue: "29°C",
				LabelLocalized: map[string]string{
					"fr": "Temp Capteur 1",
					"en": "Temp Sensor 1",
				},
			},
			{
				ID:           "soil-1",
				Label:        "Sol Capteur 1",
				Latitude:     3.85,
				Longitude:    11.50,
				DisplayValue: "Humidité 55%",
				LabelLocalized: map[string]string{
					"fr": "Sol Capteur 1",
					"en": "Soil Sensor 1",
				},
				DisplayValueLocalized: map[string]string{
					"fr": "Humidité 55%",
					"en": "Humidity 55%",
				},
			},
		},
		Series: []SensorTimeSeriesPoint{
			{Timestamp: "08:00", Temperature: 25, Humidity: 60},
			{Timestamp: "09:00", Temperature: 26, Humidity: 58},
			{Timestamp: "10:00", Temperature: 27, Humidity: 55},
			{Timestamp: "11:00", Temperature: 28, Humidity: 53},
			{Timestamp: "12:00", Temperature: 29, Humidity: 50},
		},
		Summary: FieldSummary{
			Temperature: "29°C",
			Humidity:    "55%",
			Alerts:      0,
		},
	}
}

// NewStaticSensorProvider returns a provider that always serves a copy of snapshot.
func NewStaticSensorProvider(snapshot FieldSnapshot) SensorProvider {
	return staticSensorProvider{snapshot: snapshot}
}

type staticSensorProvider struct {
	snapshot FieldSnapshot
}

func (p staticSensorProvider) Snapshot(context.Context) (FieldSnapshot, error) {
	return CloneSnapshot(p.snapshot), nil
}

// CloneSnapshot deep-copies a snapshot so callers can mutate it freely.
func CloneSnapshot(in FieldSnapshot) FieldSnapshot {
	out := FieldSnapshot{
		Sensors: make([]SensorReading, len(in.Sensors)),
		Series:  make([]SensorTimeSeriesPoint, len(in.Series)),
		Summary: in.Summary,
	}
	for i, sensor := range in.Sensors {
		sensor.LabelLocalized = cloneStringMap(sensor.LabelLocalized)
		sensor.DisplayValueLocalized = cloneStringMap(sensor.DisplayValueLocalized)
		out.Sensors[i] = sensor
	}
	copy(out.Series, in.Series)
	return out
}

func cloneStringMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
