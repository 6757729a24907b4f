package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/gtin-catalog/internal/domain/barcode"
)

// ContentTypeNDJSON is the media type of progress streams.
const ContentTypeNDJSON = "application/x-ndjson"

type barcodeRequest struct {
	barcode.Request
	DryRun bool
	Reveal bool
}

// GenerateBarcodes registers every row of a spreadsheet and streams progress
// as newline-delimited JSON:
//
//	{"total":n,"progress":i,"finished":bool,"description":s}  per row
//	{"finished":true,"path":p,"written":bool}                   once done
//
// A batch that cannot start yields a single {"message":m,"error":true} with
// status 422.
func (h *Handler) GenerateBarcodes(w http.ResponseWriter, r *http.Request) {
	var req barcodeRequest
	err := decodeObject(w, r, func(d *jx.Decoder, key string) error {
		switch key {
		case "input":
			return decodeStr(d, &req.InputPath)
		case "output":
			return decodeStr(d, &req.OutputPath)
		case "dryRun":
			return decodeBool(d, &req.DryRun)
		case "reveal":
			return decodeBool(d, &req.Reveal)
		default:
			return d.Skip()
		}
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	runner := h.barcodes
	if req.DryRun {
		if h.dryRun == nil {
			writeError(w, http.StatusUnprocessableEntity, "dry run is not available")
			return
		}
		runner = h.dryRun
	}

	ctx := r.Context()
	lg := zctx.From(ctx)
	s := newStream(w)

	report, err := runner.Process(ctx, req.Request, func(p barcode.Progress) {
		if err := s.send(encodeProgress(p)); err != nil {
			lg.Debug("Progress not delivered", zap.Error(err))
		}
	})
	if err != nil {
		lg.Warn("Batch failed", zap.Error(err))
		failure := barcode.Describe(err)
		var e jx.Encoder
		encodeFailure(&e, failure.Message)
		if !s.started {
			w.Header().Set("Content-Type", ContentTypeNDJSON)
			w.WriteHeader(http.StatusUnprocessableEntity)
		}
		_ = s.send(&e)
		return
	}

	if req.Reveal && report.Written {
		h.reveal(ctx, report.OutputPath)
	}
}

func encodeProgress(p barcode.Progress) *jx.Encoder {
	e := &jx.Encoder{}
	e.ObjStart()
	if p.Final {
		e.FieldStart("finished")
		e.Bool(true)
		e.FieldStart("path")
		e.Str(p.OutputPath)
		e.FieldStart("written")
		e.Bool(p.Written)
		e.ObjEnd()
		return e
	}
	e.FieldStart("total")
	e.Int(p.Total)
	e.FieldStart("progress")
	e.Int(p.Completed)
	e.FieldStart("finished")
	e.Bool(p.IsFinished)
	e.FieldStart("description")
	e.Str(p.LastDescription)
	e.ObjEnd()
	return e
}

// stream writes one JSON value per line and flushes after each.
type stream struct {
	w       http.ResponseWriter
	rc      *http.ResponseController
	started bool
}

func newStream(w http.ResponseWriter) *stream {
	return &stream{w: w, rc: http.NewResponseController(w)}
}

func (s *stream) send(e *jx.Encoder) error {
	if !s.started {
		s.w.Header().Set("Content-Type", ContentTypeNDJSON)
		s.w.Header().Set("Cache-Control", "no-cache")
		s.started = true
	}
	// Each event gets a fresh write window; the batch may outlast the
	// server write timeout.
	_ = s.rc.SetWriteDeadline(time.Now().Add(streamWriteTimeout))

	buf := append(e.Bytes(), '\n')
	if _, err := s.w.Write(buf); err != nil {
		return errors.Wrap(err, "write event")
	}
	if err := s.rc.Flush(); err != nil {
		return errors.Wrap(err, "flush event")
	}
	return nil
}

const streamWriteTimeout = 2 * time.Minute

// ListRuns lists recent journaled batch runs. limit defaults to 20.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := h.barcodes.Runs(r.Context(), limit)
	if err != nil {
		zctx.From(r.Context()).Error("List runs failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list runs failed")
		return
	}

	var e jx.Encoder
	e.ArrStart()
	for _, run := range runs {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(run.ID)
		e.FieldStart("input")
		e.Str(run.InputPath)
		e.FieldStart("output")
		e.Str(run.OutputPath)
		e.FieldStart("startedAt")
		e.Str(run.StartedAt.Format(time.RFC3339))
		e.FieldStart("finishedAt")
		e.Str(run.FinishedAt.Format(time.RFC3339))
		e.FieldStart("total")
		e.Int(run.Total)
		e.FieldStart("failed")
		e.Int(run.Failed)
		e.ObjEnd()
	}
	e.ArrEnd()
	writeJSON(w, http.StatusOK, &e)
}

// RunResults lists the journaled rows of a single run in input order.
func (h *Handler) RunResults(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}

	rows, err := h.barcodes.Results(r.Context(), id)
	switch {
	case errors.Is(err, barcode.ErrRunNotFound):
		writeError(w, http.StatusNotFound, "run not found")
		return
	case err != nil:
		zctx.From(r.Context()).Error("Run results failed", zap.String("run_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "run results failed")
		return
	}

	var e jx.Encoder
	e.ArrStart()
	for _, row := range rows {
		e.ObjStart()
		e.FieldStart("reference")
		e.Str(row.Reference)
		e.FieldStart("description")
		e.Str(row.Description)
		e.FieldStart("imageLink")
		e.Str(row.ImageLink)
		e.FieldStart("brand")
		e.Str(row.Brand)
		e.FieldStart("netWeight")
		encodeDecimal(&e, row.NetWeight)
		e.FieldStart("grossWeight")
		encodeDecimal(&e, row.GrossWeight)
		e.FieldStart("ncm")
		e.Str(row.NCM)
		e.FieldStart("cest")
		e.Str(row.CEST)
		e.FieldStart("gpc")
		e.Str(row.GPC)
		e.FieldStart("ean")
		e.Str(row.EAN)
		e.FieldStart("status")
		e.Str(row.Status)
		e.FieldStart("note")
		e.Str(row.Note)
		e.ObjEnd()
	}
	e.ArrEnd()
	writeJSON(w, http.StatusOK, &e)
}

// encodeDecimal writes d as a string, or null when it is missing.
func encodeDecimal(e *jx.Encoder, d decimal.NullDecimal) {
	if !d.Valid {
		e.Null()
		return
	}
	e.Str(d.Decimal.String())
}
