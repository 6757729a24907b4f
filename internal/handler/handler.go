// Package handler exposes the catalog and barcode pipelines over HTTP for the
// local desktop front end.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/gtin-catalog/internal/domain/barcode"
	"github.com/xenking/gtin-catalog/internal/domain/catalog"
	"github.com/xenking/gtin-catalog/internal/host"
)

// CatalogGenerator generates catalog documents.
type CatalogGenerator interface {
	Generate(ctx context.Context, req catalog.Request) (*catalog.Result, error)
}

// BatchRunner runs barcode batches.
type BatchRunner interface {
	Process(ctx context.Context, req barcode.Request, onProgress barcode.ProgressFunc) (*barcode.Report, error)
	Runs(ctx context.Context, limit int) ([]barcode.RunSummary, error)
	Results(ctx context.Context, runID string) ([]barcode.ResultRow, error)
}

// TemplateLister lists the catalog templates.
type TemplateLister interface {
	Names() []string
}

// Config holds the Handler dependencies. DryRun and Revealer are optional.
type Config struct {
	Catalogs  CatalogGenerator
	Barcodes  BatchRunner
	DryRun    BatchRunner
	Templates TemplateLister
	Revealer  host.Revealer
}

// Handler serves the pipeline API.
type Handler struct {
	catalogs  CatalogGenerator
	barcodes  BatchRunner
	dryRun    BatchRunner
	templates TemplateLister
	revealer  host.Revealer
}

// New creates a Handler.
func New(cfg Config) *Handler {
	revealer := cfg.Revealer
	if revealer == nil {
		revealer = host.Nop{}
	}
	return &Handler{
		catalogs:  cfg.Catalogs,
		barcodes:  cfg.Barcodes,
		dryRun:    cfg.DryRun,
		templates: cfg.Templates,
		revealer:  revealer,
	}
}

// Routes returns the API router, to be mounted under /api.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/templates", h.ListTemplates)
	r.Get("/templates/{kind}", h.DownloadTemplate)
	r.Post("/catalogs", h.GenerateCatalog)
	r.Post("/barcodes", h.GenerateBarcodes)
	r.Get("/runs", h.ListRuns)
	r.Get("/runs/{id}/results", h.RunResults)
	r.Post("/reveal", h.Reveal)
	return r
}

// RoutePattern returns the chi route pattern that matched r.
func RoutePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return ""
	}
	return rctx.RoutePattern()
}

// Reveal opens the folder containing a generated file.
func (h *Handler) Reveal(w http.ResponseWriter, r *http.Request) {
	var req struct{ Path string }
	if err := decodeObject(w, r, func(d *jx.Decoder, key string) error {
		if key == "path" {
			return decodeStr(d, &req.Path)
		}
		return d.Skip()
	}); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusUnprocessableEntity, "path required")
		return
	}

	if err := h.revealer.Reveal(req.Path); err != nil {
		zctx.From(r.Context()).Warn("Reveal failed", zap.String("path", req.Path), zap.Error(err))
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// reveal shows path after a pipeline run. Failures are only logged.
func (h *Handler) reveal(ctx context.Context, path string) {
	if err := h.revealer.Reveal(path); err != nil {
		zctx.From(ctx).Warn("Reveal failed", zap.String("path", path), zap.Error(err))
	}
}
