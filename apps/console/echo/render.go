package echoweb

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/apps/workspace"
	"github.com/trezcool/masomo-console/core/page"
	"github.com/trezcool/masomo-console/core/session"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

const baseTemplate = "_base.gohtml"

type (
	navItem struct {
		Name   string
		Title  string
		Active bool
	}

	// layout is the data every template receives; Content is the page specific part.
	layout struct {
		AppName string
		User    session.User
		Nav     []navItem
		Toasts  []page.Toast
		Title   string
		Content interface{}
	}
)

// renderer parses every page template along with the base layout, once.
type renderer struct {
	templates map[string]*template.Template
}

var _ echo.Renderer = (*renderer)(nil)

func newRenderer(strict bool) (*renderer, error) {
	r := &renderer{templates: make(map[string]*template.Template)}

	fps, err := fs.Glob(templateFS, "templates/*.gohtml")
	if err != nil {
		return nil, errors.Wrap(err, "listing templates")
	}
	for _, fp := range fps {
		fname := path.Base(fp)
		if strings.HasPrefix(fname, "_") {
			continue
		}
		tmpl, err := template.New(baseTemplate).Funcs(funcs).ParseFS(templateFS, "templates/"+baseTemplate, fp)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s", fname)
		}
		if strict {
			tmpl = tmpl.Option("missingkey=error")
		}
		r.templates[strings.TrimSuffix(fname, ".gohtml")] = tmpl
	}
	return r, nil
}

func (r *renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return errors.Errorf("template %q not found", name)
	}
	return tmpl.ExecuteTemplate(w, baseTemplate, data)
}

var funcs = template.FuncMap{
	"lower": strings.ToLower,
}

// newLayout returns the layout of a response. ws is nil for anonymous pages; otherwise its
// toasts are drained into the layout.
func newLayout(appName, title string, sess session.Session, ws *workspace.Workspace, active string, content interface{}) layout {
	l := layout{
		AppName: appName,
		User:    sess.User,
		Title:   title,
		Content: content,
	}
	if ws != nil {
		l.Toasts = ws.Toasts.Drain()
		for _, scr := range ws.Screens() {
			l.Nav = append(l.Nav, navItem{Name: scr.Name(), Title: scr.Title(), Active: scr.Name() == active})
		}
	}
	return l
}
