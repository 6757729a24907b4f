package catalog

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/gtin-catalog/internal/sheet"
)

// Output extensions.
const (
	HTMLExtension   = ".html"
	BundleExtension = ".tar.gz"
)

// ErrMissingInput is returned when no input spreadsheet was given.
var ErrMissingInput = errors.New("input spreadsheet required")

// UnknownTemplateError indicates the requested template is not registered.
type UnknownTemplateError struct {
	Name string
}

func (e *UnknownTemplateError) Error() string {
	return fmt.Sprintf("unknown catalog template %q", e.Name)
}

// Source reads an input spreadsheet.
type Source interface {
	Read(path string) (*sheet.Table, error)
}

// Renderer turns catalog entries into a document.
type Renderer interface {
	Has(template string) bool
	Render(w io.Writer, template string, entries []Entry) error
	Bundle(ctx context.Context, w io.Writer, template string, entries []Entry) error
}

// Request holds the input for generating a catalog.
type Request struct {
	InputPath  string
	ImagesPath string
	Template   string
	// OutputPath is the chosen save path. Empty means the save was cancelled.
	OutputPath string
	Bundle     bool
}

// Result describes a generated catalog.
type Result struct {
	Path    string
	Entries int
	Written bool
}

// Service generates catalog documents from spreadsheets.
type Service struct {
	source   Source
	renderer Renderer
}

// NewService creates a catalog Service.
func NewService(source Source, renderer Renderer) *Service {
	return &Service{
		source:   source,
		renderer: renderer,
	}
}

// Generate reads the input spreadsheet, normalizes its rows into entries and
// renders them to the output path. Images are resolved against ImagesPath,
// or the input's directory when it is empty.
func (s *Service) Generate(ctx context.Context, req Request) (*Result, error) {
	if req.InputPath == "" {
		return nil, ErrMissingInput
	}
	if !s.renderer.Has(req.Template) {
		return nil, &UnknownTemplateError{Name: req.Template}
	}

	table, err := s.source.Read(req.InputPath)
	if err != nil {
		return nil, errors.Wrap(err, "read catalog")
	}

	images := req.ImagesPath
	if images == "" {
		images = filepath.Dir(req.InputPath)
	}
	entries := Normalize(RowsFromTable(table), images)

	lg := zctx.From(ctx)
	lg.Debug("Catalog normalized",
		zap.Int("rows", len(table.Rows)),
		zap.Int("entries", len(entries)),
	)

	if req.OutputPath == "" {
		lg.Info("Catalog save cancelled, nothing written")
		return &Result{Entries: len(entries)}, nil
	}

	ext := HTMLExtension
	if req.Bundle {
		ext = BundleExtension
	}
	path := sheet.NormalizeExt(req.OutputPath, ext)

	if err := s.write(ctx, path, req, entries); err != nil {
		return nil, err
	}

	lg.Info("Catalog written",
		zap.String("path", path),
		zap.String("template", req.Template),
		zap.Int("entries", len(entries)),
	)
	return &Result{Path: path, Entries: len(entries), Written: true}, nil
}

func (s *Service) write(ctx context.Context, path string, req Request, entries []Entry) (rerr error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create output")
	}
	defer func() {
		if err := f.Close(); err != nil && rerr == nil {
			rerr = errors.Wrap(err, "close output")
		}
		// A failed render leaves no partial document behind.
		if rerr != nil {
			_ = os.Remove(path)
		}
	}()

	if req.Bundle {
		if err := s.renderer.Bundle(ctx, f, req.Template, entries); err != nil {
			return errors.Wrap(err, "bundle catalog")
		}
		return nil
	}
	if err := s.renderer.Render(f, req.Template, entries); err != nil {
		return errors.Wrap(err, "render catalog")
	}
	return nil
}
