package barcode

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/gtin-catalog/internal/sheet"
)

// Files reads input spreadsheets and writes result spreadsheets.
type Files interface {
	Read(path string) (*sheet.Table, error)
	Write(path, sheetName string, header []string, rows [][]string) error
}

// Request holds the input for a batch run.
type Request struct {
	InputPath string
	// OutputPath is the chosen save path. Empty means the save was cancelled
	// and the results are discarded.
	OutputPath string
}

// Report summarizes a completed batch run.
type Report struct {
	RunID      string
	Total      int
	Failed     int
	OutputPath string
	Written    bool
	Results    []ResultRow
}

// Service runs barcode batches end to end.
type Service struct {
	registry Registry
	files    Files
	journal  Journal
	creds    Credentials
	now      func() time.Time
}

// NewService creates a barcode Service. journal may be nil.
func NewService(registry Registry, files Files, journal Journal, creds Credentials) *Service {
	return &Service{
		registry: registry,
		files:    files,
		journal:  journal,
		creds:    creds,
		now:      time.Now,
	}
}

// Process authenticates once, registers every input row and writes the
// annotated rows to the output path. Authentication and input decode
// failures abort the batch before any row is registered; per-row failures
// are recorded in the results. A final Progress event with Final set is
// emitted after the output has been handled.
func (s *Service) Process(ctx context.Context, req Request, onProgress ProgressFunc) (*Report, error) {
	if req.InputPath == "" {
		return nil, ErrMissingInput
	}
	lg := zctx.From(ctx)

	session, err := s.registry.Authenticate(ctx, s.creds)
	if err != nil {
		var authErr *AuthenticationError
		if !errors.As(err, &authErr) {
			err = &AuthenticationError{Err: err}
		}
		return nil, err
	}

	table, err := s.files.Read(req.InputPath)
	if err != nil {
		return nil, errors.Wrap(err, "read barcode input")
	}
	rows := RowsFromTable(table)

	run := &Run{
		ID:        uuid.New().String(),
		InputPath: req.InputPath,
		StartedAt: s.now(),
	}
	ctx = zctx.With(ctx, zap.String("run_id", run.ID))
	lg = zctx.From(ctx)
	lg.Info("Batch started", zap.Int("rows", len(rows)))

	results := NewReconciler(s.registry).Run(ctx, rows, session, onProgress)

	run.FinishedAt = s.now()
	run.Total = len(results)
	run.Results = results
	for _, r := range results {
		if r.Failed() {
			run.Failed++
		}
	}
	if req.OutputPath != "" {
		run.OutputPath = sheet.NormalizeExt(req.OutputPath, sheet.Extension)
	}

	if s.journal != nil {
		if err := s.journal.Save(ctx, run); err != nil {
			lg.Warn("Journal save failed", zap.Error(err))
		}
	}

	report := &Report{
		RunID:   run.ID,
		Total:   run.Total,
		Failed:  run.Failed,
		Results: results,
	}

	if run.OutputPath == "" {
		lg.Info("Result save cancelled, results discarded")
	} else {
		cells := make([][]string, len(results))
		for i, r := range results {
			cells[i] = r.Cells()
		}
		if err := s.files.Write(run.OutputPath, ResultSheet, ResultHeader(table.Header), cells); err != nil {
			return nil, errors.Wrap(err, "write results")
		}
		report.OutputPath = run.OutputPath
		report.Written = true
	}

	lg.Info("Batch finished",
		zap.Int("total", report.Total),
		zap.Int("failed", report.Failed),
		zap.String("output", report.OutputPath),
	)

	if onProgress != nil {
		onProgress(Progress{
			Total:      report.Total,
			Completed:  report.Total,
			IsFinished: true,
			Final:      true,
			OutputPath: report.OutputPath,
			Written:    report.Written,
		})
	}

	return report, nil
}

// Runs lists the most recent journaled runs. Without a journal it returns an
// empty list.
func (s *Service) Runs(ctx context.Context, limit int) ([]RunSummary, error) {
	if s.journal == nil {
		return []RunSummary{}, nil
	}
	runs, err := s.journal.List(ctx, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list runs")
	}
	return runs, nil
}

// Results returns the stored rows of a journaled run. Without a journal no
// run can be found.
func (s *Service) Results(ctx context.Context, runID string) ([]ResultRow, error) {
	if s.journal == nil {
		return nil, ErrRunNotFound
	}
	results, err := s.journal.Results(ctx, runID)
	if err != nil {
		return nil, errors.Wrapf(err, "results of run %s", runID)
	}
	return results, nil
}
