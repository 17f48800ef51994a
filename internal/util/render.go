package util

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"path/filepath"

	"github.com/pkg/errors"
)

// Context is the data handed to a page template.
type Context map[string]any

// Renderer turns a named page and its context into a response body.
type Renderer interface {
	Render(w io.Writer, name string, data Context) error
	ContentType() string
}

// TemplateRenderer executes dir/layout.html together with dir/<name>. Files
// are parsed on every call so template edits show up without a restart.
type TemplateRenderer struct {
	Dir string
}

var funcs = template.FuncMap{
	// posts and comments shorten themselves to the configured text limit
	"truncate": func(v fmt.Stringer) string { return v.String() },
}

func (r TemplateRenderer) Render(w io.Writer, name string, data Context) error {
	files := []string{
		filepath.Join(r.Dir, "layout.html"),
		filepath.Join(r.Dir, filepath.FromSlash(name)),
	}
	t, err := template.New("base").Funcs(funcs).ParseFiles(files...)
	if err != nil {
		return errors.Wrapf(err, "parse %s", name)
	}
	return t.ExecuteTemplate(w, "base", data)
}

func (TemplateRenderer) ContentType() string { return "text/html; charset=utf-8" }

// JSONRenderer writes the context as a JSON document. It is the default
// when no templates are configured and what the handler tests read.
type JSONRenderer struct{}

type jsonPage struct {
	Template string  `json:"template"`
	Context  Context `json:"context"`
}

func (JSONRenderer) Render(w io.Writer, name string, data Context) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonPage{Template: name, Context: data})
}

func (JSONRenderer) ContentType() string { return "application/json; charset=utf-8" }
