package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ettle/strcase"

	"github.com/agrik/agrik-dashboard/components/dashboard"
)

type sensorCmd struct {
	Add      sensorAddCmd      `cmd:"" help:"Add or replace a sensor in a field manifest."`
	Validate sensorValidateCmd `cmd:"" help:"Check a field manifest and list its sensors."`
}

type sensorAddCmd struct {
	Manifest  string  `required:"" type:"path" help:"Field manifest YAML file to update (created when missing)."`
	ID        string  `required:"" help:"Sensor id (normalized to kebab-case)."`
	Label     string  `required:"" help:"French label shown on the map."`
	LabelEN   string  `name:"label-en" help:"English label."`
	Lat       float64 `required:"" help:"Latitude in decimal degrees."`
	Lng       float64 `required:"" help:"Longitude in decimal degrees."`
	Value     string  `help:"Initial display value (e.g. 29°C)."`
	Overwrite bool    `help:"Replace an existing sensor with the same id."`

	out io.Writer `kong:"-"`
}

func (cmd *sensorAddCmd) Run() error {
	id := strcase.ToKebab(strings.TrimSpace(cmd.ID))
	if id == "" {
		return errors.New("sensor: id must not be blank")
	}
	path, err := filepath.Abs(cmd.Manifest)
	if err != nil {
		return fmt.Errorf("sensor: resolve manifest path: %w", err)
	}
	doc, err := loadOrInitManifest(path)
	if err != nil {
		return err
	}

	entry := dashboard.SensorReading{
		ID:           id,
		Label:        cmd.Label,
		Latitude:     cmd.Lat,
		Longitude:    cmd.Lng,
		DisplayValue: cmd.Value,
	}
	if cmd.LabelEN != "" {
		entry.LabelLocalized = map[string]string{
			string(dashboard.LanguageFR): cmd.Label,
			string(dashboard.LanguageEN): cmd.LabelEN,
		}
	}

	replaced := false
	for idx := range doc.Sensors {
		if doc.Sensors[idx].ID != id {
			continue
		}
		if !cmd.Overwrite {
			return fmt.Errorf("sensor: manifest already defines %s (use --overwrite to replace)", id)
		}
		doc.Sensors[idx] = entry
		replaced = true
	}
	if !replaced {
		doc.Sensors = append(doc.Sensors, entry)
	}
	sort.Slice(doc.Sensors, func(i, j int) bool { return doc.Sensors[i].ID < doc.Sensors[j].ID })

	if err := doc.Validate(); err != nil {
		return err
	}
	if err := writeManifest(path, doc); err != nil {
		return err
	}
	fmt.Fprintf(cmd.writer(), "✓ Added %s to %s\n", id, path)
	return nil
}

func (cmd *sensorAddCmd) writer() io.Writer {
	if cmd.out != nil {
		return cmd.out
	}
	return os.Stdout
}

type sensorValidateCmd struct {
	Manifest string `arg:"" type:"existingfile" help:"Field manifest to check."`

	out io.Writer `kong:"-"`
}

func (cmd *sensorValidateCmd) Run() error {
	doc, err := dashboard.ReadManifest(cmd.Manifest)
	if err != nil {
		return err
	}
	out := cmd.out
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintf(out, "%s: %d sensors\n", doc.Source, len(doc.Sensors))
	for _, sensor := range doc.Sensors {
		fmt.Fprintf(out, "  %-12s %-20s %.4f,%.4f\n", sensor.ID, sensor.Label, sensor.Latitude, sensor.Longitude)
	}
	return nil
}

func loadOrInitManifest(path string) (*dashboard.FieldManifest, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &dashboard.FieldManifest{
				Version: dashboard.ManifestVersion,
				Name:    strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
				Source:  path,
			}, nil
		}
		return nil, fmt.Errorf("sensor: stat manifest: %w", err)
	}
	return dashboard.ReadManifest(path)
}

func writeManifest(path string, doc *dashboard.FieldManifest) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("sensor: mkdir %s: %w", filepath.Dir(path), err)
	}
	file, err := os.Create(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("sensor: create manifest %s: %w", path, err)
	}
	defer file.Close()
	return dashboard.EncodeManifest(file, *doc)
}
