package dashboard

import (
	"embed"
	"io"

	template "github.com/goliatone/go-template"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

// Renderer is the template engine used by the Controller.
type Renderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
}

// NewTemplateRenderer returns a go-template renderer for the dashboard page. With an empty dir
// the embedded templates are used; otherwise templates are read from dir on disk, which lets a
// deployment restyle the page without rebuilding.
func NewTemplateRenderer(dir string) (Renderer, error) {
	if dir != "" {
		return template.NewRenderer(
			template.WithBaseDir(dir),
			template.WithExtension(".html"),
		)
	}
	return template.NewRenderer(
		template.WithFS(embeddedTemplates),
		template.WithBaseDir("templates"),
		template.WithExtension(".html"),
	)
}
