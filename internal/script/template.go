// Package script renders queue submission scripts from text/template sources.
package script

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// TemplateError reports a template that failed to parse or render.
type TemplateError struct {
	File string // Template source, a file path or a built-in name
	Line int    // 0 when the underlying error carries no position
	Msg  string
	Err  error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("File: %s - %s", e.File, e.Msg)
}

func (e *TemplateError) Unwrap() error {
	return e.Err
}

// text/template prefixes errors with "template: NAME:LINE: ".
var templateErrRe = regexp.MustCompile(`^template: [^:]*:(\d+):(?:\d+:)?\s*(.*)$`)

func newTemplateError(name string, err error) *TemplateError {
	te := &TemplateError{File: name, Msg: err.Error(), Err: err}
	if m := templateErrRe.FindStringSubmatch(err.Error()); m != nil {
		te.Line, _ = strconv.Atoi(m[1])
		te.Msg = m[2]
	}
	return te
}

// Template is a parsed submission script.
type Template struct {
	Name string
	tmpl *template.Template
}

// Parse compiles a template source. name identifies it in errors.
func Parse(name, text string) (*Template, error) {
	t, err := template.New(filepath.Base(name)).Funcs(sprig.TxtFuncMap()).Parse(text)
	if err != nil {
		return nil, newTemplateError(name, err)
	}
	return &Template{Name: name, tmpl: t}, nil
}

// MustParse is Parse for built-in templates; it panics on error.
func MustParse(name, text string) *Template {
	t, err := Parse(name, text)
	if err != nil {
		panic(err)
	}
	return t
}

// Load reads and parses dir/file.
func Load(dir, file string) (*Template, error) {
	path := filepath.Join(dir, file)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", path, err)
	}
	return Parse(path, string(data))
}

// Render executes t with the parameters of one job.
func Render(t *Template, p Params) (string, error) {
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, p.Data()); err != nil {
		return "", newTemplateError(t.Name, err)
	}
	return buf.String(), nil
}
