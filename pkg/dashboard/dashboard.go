// Package dashboard is the public entry point for embedding the AgriK field dashboard.
package dashboard

import (
	core "github.com/agrik/agrik-dashboard/components/dashboard"
)

// Service exposes the underlying components/dashboard.Service type.
type Service = core.Service

// Options re-export for convenience.
type Options = core.Options

// View is the page model served by the JSON endpoint.
type View = core.View

// NewService proxies to the internal constructor.
func NewService(opts Options) *Service {
	return core.NewService(opts)
}

// NewDemoService builds a service backed by the fixture snapshot and the given assistant.
func NewDemoService(assistant core.Assistant) *Service {
	return core.NewService(Options{
		Sensors:   core.NewStaticSensorProvider(core.FixtureSnapshot()),
		Assistant: assistant,
	})
}
