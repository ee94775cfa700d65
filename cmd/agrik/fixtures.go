package main

import (
	"encoding/json"
	"os"

	"github.com/agrik/agrik-dashboard/components/dashboard"
)

type fixturesCmd struct {
	Format string `enum:"yaml,json" default:"yaml" help:"Output format (yaml, json)."`
	Name   string `default:"demo" help:"Field name written to the manifest."`
}

// Run prints the demo data as a field manifest usable as dashboard.field_file.
func (cmd *fixturesCmd) Run() error {
	doc := dashboard.NewFieldManifest(cmd.Name, dashboard.FixtureSnapshot())
	if cmd.Format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}
	return dashboard.EncodeManifest(os.Stdout, doc)
}
