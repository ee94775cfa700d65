package dashboard

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	manifestVersionV1 = "1"
	// ManifestVersion exposes the current field manifest format version for tooling.
	ManifestVersion = manifestVersionV1
)

// FieldManifest is a YAML/JSON document describing the sensors of a field and their
// initial readings. It replaces the built-in fixtures when configured.
type FieldManifest struct {
	Version string                  `json:"version" yaml:"version"`
	Name    string                  `json:"name,omitempty" yaml:"name,omitempty"`
	Sensors []SensorReading         `json:"sensors" yaml:"sensors"`
	Series  []SensorTimeSeriesPoint `json:"series,omitempty" yaml:"series,omitempty"`
	Summary FieldSummary            `json:"summary" yaml:"summary"`
	Source  string                  `json:"-" yaml:"-"`
}

// NewFieldManifest wraps a snapshot into a manifest document.
func NewFieldManifest(name string, snapshot FieldSnapshot) FieldManifest {
	snapshot = CloneSnapshot(snapshot)
	return FieldManifest{
		Version: ManifestVersion,
		Name:    name,
		Sensors: snapshot.Sensors,
		Series:  snapshot.Series,
		Summary: snapshot.Summary,
	}
}

// Snapshot returns the manifest contents as a FieldSnapshot.
func (doc *FieldManifest) Snapshot() FieldSnapshot {
	return CloneSnapshot(FieldSnapshot{
		Sensors: doc.Sensors,
		Series:  doc.Series,
		Summary: doc.Summary,
	})
}

// ReadManifest loads a field manifest file from disk.
func ReadManifest(path string) (*FieldManifest, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("dashboard: open manifest %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodeManifest(f)
	if err != nil {
		return nil, fmt.Errorf("dashboard: decode manifest %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// DecodeManifest reads a manifest from any reader. JSON input is accepted since it is valid YAML.
func DecodeManifest(r io.Reader) (*FieldManifest, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var doc FieldManifest
	if err := decoder.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("dashboard: manifest is empty")
		}
		return nil, fmt.Errorf("dashboard: parse manifest: %w", err)
	}
	doc.applyDefaults()
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// EncodeManifest writes the manifest as YAML.
func EncodeManifest(w io.Writer, doc FieldManifest) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("dashboard: encode manifest: %w", err)
	}
	return enc.Close()
}

// Validate ensures every sensor has an id, a label and plausible coordinates.
func (doc *FieldManifest) Validate() error {
	if doc.Version != manifestVersionV1 {
		return fmt.Errorf("dashboard: unsupported manifest version %q", doc.Version)
	}
	if len(doc.Sensors) == 0 {
		return fmt.Errorf("dashboard: manifest declares no sensors")
	}
	seen := make(map[string]struct{}, len(doc.Sensors))
	for idx, sensor := range doc.Sensors {
		if sensor.ID == "" {
			return fmt.Errorf("dashboard: manifest sensor at index %d is missing id", idx)
		}
		if sensor.Label == "" {
			return fmt.Errorf("dashboard: manifest sensor %s missing label", sensor.ID)
		}
		if sensor.Latitude < -90 || sensor.Latitude > 90 || sensor.Longitude < -180 || sensor.Longitude > 180 {
			return fmt.Errorf("dashboard: manifest sensor %s has out-of-range coordinates", sensor.ID)
		}
		if _, exists := seen[sensor.ID]; exists {
			return fmt.Errorf("dashboard: manifest duplicates sensor id %s", sensor.ID)
		}
		seen[sensor.ID] = struct{}{}
	}
	return nil
}

func (doc *FieldManifest) applyDefaults() {
	if doc.Version == "" {
		doc.Version = manifestVersionV1
	}
}
