package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/felixgeelhaar/triage/pkg/domain/response"
)

//go:embed templates/*
var templatesFS embed.FS

// HTMLRenderer produces the markup of the results region: an error-box, an
// explanation paragraph, and task-card elements with a priority-tag.
// All interpolated values are escaped.
type HTMLRenderer struct {
	tmpl *template.Template
}

func NewHTMLRenderer() (*HTMLRenderer, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/results.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &HTMLRenderer{tmpl: tmpl}, nil
}

func (r *HTMLRenderer) Render(w io.Writer, resp response.Response) error {
	return r.tmpl.ExecuteTemplate(w, "results", buildView(resp))
}
