// Package render produces the server-rendered HTML fragments inserted by the
// client after adding a comment or reply. Fragments carry the same
// viewer-annotated shape as full views.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

type Renderer struct {
	templates *template.Template
}

func New() (*Renderer, error) {
	tmpl, err := template.New("partials").Funcs(template.FuncMap{
		"formatDate": formatDate,
	}).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Renderer{templates: tmpl}, nil
}

// Render executes the named template and returns the fragment.
func (r *Renderer) Render(templateID string, data any) (string, error) {
	var sb strings.Builder
	if err := r.templates.ExecuteTemplate(&sb, templateID+".tmpl", data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", templateID, err)
	}
	return sb.String(), nil
}

type dated interface {
	Format(string) string
}

func formatDate(t dated) string {
	return t.Format("2006-01-02 15:04:05")
}
