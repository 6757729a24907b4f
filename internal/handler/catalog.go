package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/gtin-catalog/internal/domain/barcode"
	"github.com/xenking/gtin-catalog/internal/domain/catalog"
	"github.com/xenking/gtin-catalog/internal/sheet"
)

// Input template kinds served by DownloadTemplate.
const (
	TemplateBarcode = "barcode"
	TemplateCatalog = "catalog"
)

type catalogRequest struct {
	catalog.Request
	Reveal bool
}

// GenerateCatalog renders a catalog from a spreadsheet.
//
// Request: {"input","images","template","output","bundle","reveal"}.
// Response: {"error":false,"generated":bool,"path","entries"}, or
// {"error":true,"description"} with status 400 or 422.
func (h *Handler) GenerateCatalog(w http.ResponseWriter, r *http.Request) {
	var req catalogRequest
	err := decodeObject(w, r, func(d *jx.Decoder, key string) error {
		switch key {
		case "input":
			return decodeStr(d, &req.InputPath)
		case "images":
			return decodeStr(d, &req.ImagesPath)
		case "template":
			return decodeStr(d, &req.Template)
		case "output":
			return decodeStr(d, &req.OutputPath)
		case "bundle":
			return decodeBool(d, &req.Bundle)
		case "reveal":
			return decodeBool(d, &req.Reveal)
		default:
			return d.Skip()
		}
	})
	if err != nil {
		writeCatalogError(w, http.StatusBadRequest, err)
		return
	}

	res, err := h.catalogs.Generate(r.Context(), req.Request)
	if err != nil {
		zctx.From(r.Context()).Warn("Catalog generation failed", zap.Error(err))
		writeCatalogError(w, http.StatusUnprocessableEntity, err)
		return
	}
	if req.Reveal && res.Written {
		h.reveal(r.Context(), res.Path)
	}

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("error")
	e.Bool(false)
	e.FieldStart("generated")
	e.Bool(res.Written)
	e.FieldStart("path")
	e.Str(res.Path)
	e.FieldStart("entries")
	e.Int(res.Entries)
	e.ObjEnd()
	writeJSON(w, http.StatusOK, &e)
}

func writeCatalogError(w http.ResponseWriter, status int, err error) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("error")
	e.Bool(true)
	e.FieldStart("description")
	e.Str(err.Error())
	e.ObjEnd()
	writeJSON(w, status, &e)
}

// ListTemplates lists the catalog template names.
func (h *Handler) ListTemplates(w http.ResponseWriter, _ *http.Request) {
	var e jx.Encoder
	e.ArrStart()
	for _, name := range h.templates.Names() {
		e.Str(name)
	}
	e.ArrEnd()
	writeJSON(w, http.StatusOK, &e)
}

// DownloadTemplate serves an empty input spreadsheet for the barcode or
// catalog pipeline.
func (h *Handler) DownloadTemplate(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")

	var header []string
	switch kind {
	case TemplateBarcode:
		header = barcode.Columns
	case TemplateCatalog:
		header = catalog.Columns
	default:
		writeError(w, http.StatusNotFound, errors.Errorf("unknown template kind %q", kind).Error())
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+kind+sheet.Extension+`"`)
	if err := sheet.Template(w, barcode.ResultSheet, header); err != nil {
		zctx.From(r.Context()).Error("Template write failed", zap.String("kind", kind), zap.Error(err))
	}
}
