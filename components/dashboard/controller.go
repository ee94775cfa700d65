package dashboard

import (
	"context"
	"errors"
	"io"
)

const defaultTemplate = "dashboard.html"

type viewService interface {
	EnsureSession(ctx context.Context, viewer ViewerContext) (string, error)
	Render(ctx context.Context, sessionID string) (View, error)
}

// ControllerOptions wires the controller collaborators.
type ControllerOptions struct {
	Service  viewService
	Renderer Renderer
	Template string
	// Endpoint is the absolute path of the dashboard page; the page script derives its API calls from it.
	Endpoint string
}

// Controller orchestrates HTML and JSON rendering for the dashboard page.
type Controller struct {
	service  viewService
	renderer Renderer
	template string
	endpoint string
}

// NewController wires the service into a controller.
func NewController(opts ControllerOptions) *Controller {
	tpl := opts.Template
	if tpl == "" {
		tpl = defaultTemplate
	}
	return &Controller{
		service:  opts.Service,
		renderer: opts.Renderer,
		template: tpl,
		endpoint: opts.Endpoint,
	}
}

// View resolves (or creates) the viewer session and returns its render model.
func (c *Controller) View(ctx context.Context, viewer ViewerContext) (View, error) {
	if c.service == nil {
		return View{}, errors.New("dashboard: controller requires service")
	}
	id, err := c.service.EnsureSession(ctx, viewer)
	if err != nil {
		return View{}, err
	}
	return c.service.Render(ctx, id)
}

// RenderTemplate renders the dashboard page for the viewer into out and returns the session id used.
func (c *Controller) RenderTemplate(ctx context.Context, viewer ViewerContext, out io.Writer) (string, error) {
	if c.renderer == nil {
		return "", errors.New("dashboard: controller requires renderer")
	}
	view, err := c.View(ctx, viewer)
	if err != nil {
		return "", err
	}
	payload := map[string]any{
		"view":         view,
		"chart_html":   view.Chart.HTML,
		"markers_json": view.Map.MarkersJSON(),
		"endpoint":     c.endpoint,
	}
	if _, err := c.renderer.Render(c.template, payload, out); err != nil {
		return "", err
	}
	return view.SessionID, nil
}
