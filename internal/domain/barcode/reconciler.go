package barcode

import (
	"context"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// Progress reports the state of a running batch.
type Progress struct {
	Total           int
	Completed       int
	IsFinished      bool
	LastDescription string

	// Final marks the closing event emitted once the result has been
	// handled. OutputPath and Written are only set on it.
	Final      bool
	OutputPath string
	Written    bool
}

// ProgressFunc receives progress events. It is called synchronously from the
// batch loop.
type ProgressFunc func(Progress)

// Reconciler drives the per-row registration loop.
type Reconciler struct {
	registry Registry
}

// NewReconciler creates a Reconciler registering rows with registry.
func NewReconciler(registry Registry) *Reconciler {
	return &Reconciler{registry: registry}
}

// Run registers rows one at a time, in order, and returns exactly one result
// per row in input order. A failed row never stops the loop. onProgress, if
// not nil, is called once after every row.
func (r *Reconciler) Run(ctx context.Context, rows []InputRow, session Session, onProgress ProgressFunc) []ResultRow {
	lg := zctx.From(ctx)
	results := make([]ResultRow, 0, len(rows))

	for i, row := range rows {
		outcome := r.registry.Register(ctx, row, session)
		result := resultOf(row, outcome)
		results = append(results, result)

		switch outcome.Kind {
		case OutcomeSuccess:
			lg.Debug("Row registered",
				zap.Int("row", i+1),
				zap.String("reference", row.Reference),
				zap.String("ean", outcome.EAN),
			)
		case OutcomeRejected:
			lg.Warn("Row rejected",
				zap.Int("row", i+1),
				zap.String("reference", row.Reference),
				zap.String("message", outcome.Message),
			)
		default:
			lg.Warn("Row registration failed",
				zap.Int("row", i+1),
				zap.String("reference", row.Reference),
				zap.Error(outcome.Err),
			)
		}

		if onProgress != nil {
			onProgress(Progress{
				Total:           len(rows),
				Completed:       i + 1,
				IsFinished:      i+1 == len(rows),
				LastDescription: row.Description,
			})
		}
	}

	return results
}

func resultOf(row InputRow, outcome Outcome) ResultRow {
	switch outcome.Kind {
	case OutcomeSuccess:
		return ResultRow{InputRow: row, EAN: outcome.EAN, Status: outcome.Status}
	case OutcomeRejected:
		return ResultRow{InputRow: row, Status: StatusError, Note: outcome.Message}
	default:
		return ResultRow{InputRow: row, Status: StatusError, Note: NoteTransportErr}
	}
}
