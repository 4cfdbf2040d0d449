package server

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"strings"

	"github.com/learnup/learnup/internal/ui/forms"
	"github.com/learnup/learnup/internal/ui/model"
)

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

//go:embed static/styles.css
var embeddedStyles []byte

// loadTemplates parses the page templates, from dir when set or from the
// embedded set otherwise. It returns a map keyed by page name.
func loadTemplates(dir string) (map[string]*template.Template, error) {
	var fsys fs.FS
	if strings.TrimSpace(dir) != "" {
		fsys = os.DirFS(dir)
	} else {
		sub, err := fs.Sub(embeddedTemplates, "templates")
		if err != nil {
			return nil, fmt.Errorf("open embedded templates: %w", err)
		}
		fsys = sub
	}

	funcs := template.FuncMap{
		"fieldID":    fieldID,
		"fieldValue": fieldValue,
	}

	homeTmpl, err := template.New("home").Funcs(funcs).ParseFS(fsys, "base.tmpl", "home.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse home templates: %w", err)
	}
	authTmpl, err := template.New("auth").Funcs(funcs).ParseFS(fsys, "base.tmpl", "auth.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse auth templates: %w", err)
	}

	return map[string]*template.Template{
		"home": homeTmpl,
		"auth": authTmpl,
	}, nil
}

func fieldID(field model.Field) string {
	return "field-" + string(field)
}

// fieldValue returns the value echoed back into an input. Passwords are never
// written into the page.
func fieldValue(view forms.FieldView) string {
	if view.InputType == "password" {
		return ""
	}
	return view.Value
}
