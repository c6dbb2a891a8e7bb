// Package template renders named text templates loaded from a file system.
package template

import (
	"bytes"
	"io/fs"
	"text/template"

	"github.com/pkg/errors"
)

type RendererParams struct {
	// FS holds the template files, usually an embed.FS.
	FS fs.FS
	// Patterns select the files of FS to parse.
	Patterns []string
	Funcs    template.FuncMap
}

// Renderer executes templates; a missing key in the data is an error.
type Renderer struct {
	template *template.Template
}

func NewRenderer(params RendererParams) (*Renderer, error) {
	if params.FS == nil || len(params.Patterns) == 0 {
		return nil, errors.New("template renderer needs a file system and at least one pattern")
	}
	tmpl, err := template.New("").
		Option("missingkey=error").
		Funcs(params.Funcs).
		ParseFS(params.FS, params.Patterns...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse templates")
	}
	return &Renderer{template: tmpl}, nil
}

// Render executes the template called name.
func (r *Renderer) Render(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.template.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, errors.Wrapf(err, "failed to execute template %s", name)
	}
	return buf.Bytes(), nil
}

// Names lists the parsed templates.
func (r *Renderer) Names() []string {
	var names []string
	for _, t := range r.template.Templates() {
		if t.Name() != "" {
			names = append(names, t.Name())
		}
	}
	return names
}
