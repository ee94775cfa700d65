package dashboard

import (
	"encoding/json"

	"github.com/ettle/strcase"
)

// Default tile provider and viewport.
const (
	DefaultTileURL         = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	DefaultTileAttribution = "&copy; OpenStreetMap contributors"
	DefaultMapZoom         = 13
)

// MapOptions configures the map widget.
type MapOptions struct {
	TileURL         string
	TileAttribution string
	CenterLat       float64
	CenterLng       float64
	Zoom            int
}

// DefaultMapOptions centers the map on the first demonstration sensor.
func DefaultMapOptions() MapOptions {
	return MapOptions{
		TileURL:         DefaultTileURL,
		TileAttribution: DefaultTileAttribution,
		CenterLat:       3.848,
		CenterLng:       11.502,
		Zoom:            DefaultMapZoom,
	}
}

func (o MapOptions) withDefaults() MapOptions {
	def := DefaultMapOptions()
	if o.TileURL == "" {
		o.TileURL = def.TileURL
	}
	if o.TileAttribution == "" {
		o.TileAttribution = def.TileAttribution
	}
	if o.Zoom <= 0 {
		o.Zoom = def.Zoom
	}
	if o.CenterLat == 0 && o.CenterLng == 0 {
		o.CenterLat, o.CenterLng = def.CenterLat, def.CenterLng
	}
	return o
}

// MapMarker is one sensor marker with its popup text.
type MapMarker struct {
	DOMID     string  `json:"dom_id"`
	Label     string  `json:"label"`
	Value     string  `json:"value"`
	Popup     string  `json:"popup"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// MapPanel is the map widget model.
type MapPanel struct {
	Title           string      `json:"title"`
	TileURL         string      `json:"tile_url"`
	TileAttribution string      `json:"tile_attribution"`
	CenterLat       float64     `json:"center_lat"`
	CenterLng       float64     `json:"center_lng"`
	Zoom            int         `json:"zoom"`
	Markers         []MapMarker `json:"markers"`
}

// MarkersJSON serializes the markers for the Leaflet bootstrap script.
func (m MapPanel) MarkersJSON() string {
	data, err := json.Marshal(m.Markers)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// BuildMapPanel produces exactly one marker per sensor, labeled in the requested language.
func BuildMapPanel(sensors []SensorReading, lang Language, labels Labels, options MapOptions) MapPanel {
	options = options.withDefaults()
	markers := make([]MapMarker, 0, len(sensors))
	for _, sensor := range sensors {
		label := sensor.LabelFor(lang)
		value := sensor.DisplayValueFor(lang)
		id := sensor.ID
		if id == "" {
			id = sensor.Label
		}
		markers = append(markers, MapMarker{
			DOMID:     "marker-" + strcase.ToKebab(id),
			Label:     label,
			Value:     value,
			Popup:     label + ": " + value,
			Latitude:  sensor.Latitude,
			Longitude: sensor.Longitude,
		})
	}
	return MapPanel{
		Title:           labels.Get(LabelMapTitle),
		TileURL:         options.TileURL,
		TileAttribution: options.TileAttribution,
		CenterLat:       options.CenterLat,
		CenterLng:       options.CenterLng,
		Zoom:            options.Zoom,
		Markers:         markers,
	}
}
