// render.go -- server-rendered HTML pages.
//
// Each page template under templates/ defines "title" and "content" and is parsed
// together with layout.html, which defines "layout".
package catalog

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"

	"github.com/MGallo-Code/bookshelf/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

// page is the data passed to every template.
type page struct {
	Visitor   *Visitor
	Flash     string
	CSRFToken string

	Categories []store.Category
	Category   *store.Category
	Books      []store.Book
	MyBooks    []store.Book
	Book       *store.Book
	CanEdit    bool // visitor owns Book

	// book_form.html
	Action string // form POST target
	Form   BookInput
	Errors []string

	// error.html
	Status  int
	Message string
}

var pageFuncs = template.FuncMap{
	"imageSrc": imageSrc,
}

// Pages holds the parsed page templates keyed by file name.
type Pages struct {
	byName map[string]*template.Template
}

// NewPages parses every embedded page with the shared layout.
func NewPages() (*Pages, error) {
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	p := &Pages{byName: make(map[string]*template.Template)}
	for _, n := range names {
		base := path.Base(n)
		if base == "layout.html" {
			continue
		}
		t, err := template.New(base).Funcs(pageFuncs).ParseFS(templateFS, "templates/layout.html", n)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", base, err)
		}
		p.byName[base] = t
	}
	return p, nil
}

// Render executes name into a buffer, then writes status and body.
// Nothing is written when execution fails.
func (p *Pages) Render(w http.ResponseWriter, status int, name string, data *page) error {
	t, ok := p.byName[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("rendering %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
	return nil
}

// render fills the per-session fields of pg, pops any pending flash, and renders name.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, pg *page) {
	pg.Visitor = VisitorFromContext(r.Context())
	if s := SessionFromContext(r.Context()); s != nil {
		pg.CSRFToken = s.Data.CSRFToken
		if s.Data.Flash != "" {
			pg.Flash = s.Data.Flash
			s.Data.Flash = ""
			if err := h.SM.Save(r.Context(), w, s); err != nil {
				logWarn(r, "failed to clear flash", "error", err)
			}
		}
	}
	if err := h.Pages.Render(w, status, name, pg); err != nil {
		logError(r, "template render failed", "error", err, "template", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
