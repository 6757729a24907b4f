// Package render turns catalog entries into HTML documents using the embedded
// catalog templates.
package render

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
	"net/url"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/gtin-catalog/internal/domain/catalog"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

const templateExt = ".html.tmpl"

// DefaultTemplate is used when a request names no template.
const DefaultTemplate = "spotlight"

var _ catalog.Renderer = (*Renderer)(nil)

// Renderer renders catalogs with named templates.
type Renderer struct {
	templates map[string]*template.Template
	names     []string
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	files, err := fs.Glob(templateFS, "templates/*"+templateExt)
	if err != nil {
		return nil, errors.Wrap(err, "list templates")
	}

	r := &Renderer{templates: make(map[string]*template.Template, len(files))}
	for _, f := range files {
		base := path.Base(f)
		t, err := template.New(base).ParseFS(templateFS, f)
		if err != nil {
			return nil, errors.Wrapf(err, "parse template %s", base)
		}
		name := strings.TrimSuffix(base, templateExt)
		r.templates[name] = t
		r.names = append(r.names, name)
	}
	slices.Sort(r.names)
	return r, nil
}

// Names lists the available templates in lexical order.
func (r *Renderer) Names() []string {
	return slices.Clone(r.names)
}

// Has reports whether a template with the given name exists.
func (r *Renderer) Has(name string) bool {
	_, ok := r.templates[name]
	return ok
}

// Render writes the entries as a standalone HTML document. Images are
// referenced by file URL.
func (r *Renderer) Render(w io.Writer, name string, entries []catalog.Entry) error {
	return r.execute(w, name, newView(entries, fileURL))
}

func (r *Renderer) execute(w io.Writer, name string, v view) error {
	t, ok := r.templates[name]
	if !ok {
		return &catalog.UnknownTemplateError{Name: name}
	}
	if err := t.Execute(w, v); err != nil {
		return errors.Wrapf(err, "execute %s", name)
	}
	return nil
}

type view struct {
	Title string
	Pages []page
}

type page struct {
	Number      string
	Reference   string
	SizeGrid    string
	Features    string
	Composition string
	Price       string
	Color       string
	Static      bool
	StaticImage template.URL
	MainImage   template.URL
	DetailImage template.URL
	Variants    []variant
}

type variant struct {
	Color string
	Image template.URL
}

// newView maps entries to template data. link turns an image path into the
// reference written to the document; an empty result omits the image.
func newView(entries []catalog.Entry, link func(string) string) view {
	v := view{Title: "Catálogo", Pages: make([]page, 0, len(entries))}
	for _, e := range entries {
		p := page{
			Number:      number(e.Page),
			Reference:   e.Reference,
			SizeGrid:    e.SizeGrid,
			Features:    e.Features,
			Composition: e.Composition,
			Price:       price(e.Price),
			Color:       e.Color,
			Static:      e.IsStaticImage,
			MainImage:   imageURL(link, e.MainImagePath),
			DetailImage: imageURL(link, e.DetailImagePath),
			StaticImage: imageURL(link, e.StaticImagePath),
		}
		for _, cv := range e.ColorVariants {
			p.Variants = append(p.Variants, variant{
				Color: cv.Color,
				Image: imageURL(link, cv.ImagePath),
			})
		}
		v.Pages = append(v.Pages, p)
	}
	return v
}

func imageURL(link func(string) string, p string) template.URL {
	if p == "" {
		return ""
	}
	// Links are built from local paths, never from document input.
	return template.URL(link(p))
}

// fileURL converts an absolute local path to a file URL.
func fileURL(p string) string {
	p = filepath.ToSlash(p)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}

func number(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

// price formats a price as Brazilian reais.
func price(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return "R$ " + strings.Replace(d.Decimal.StringFixed(2), ".", ",", 1)
}
