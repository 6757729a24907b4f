package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/gtin-catalog/internal/domain/barcode"
)

// DefaultListLimit bounds List when the caller gives no limit.
const DefaultListLimit = 20

var _ barcode.Journal = (*RunRepository)(nil)

var resultColumns = []string{
	"run_id", "position", "reference", "description", "image_link", "brand",
	"net_weight", "gross_weight", "ncm", "cest", "gpc",
	"ean", "status", "note",
}

// RunRepository implements barcode.Journal backed by PostgreSQL.
type RunRepository struct {
	pool *pgxpool.Pool
}

// NewRunRepository returns a RunRepository that uses the given pool.
func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

// Save stores the run and its result rows in a single transaction. Rows are
// loaded with COPY.
func (r *RunRepository) Save(ctx context.Context, run *barcode.Run) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO barcode_runs (id, input_path, output_path, started_at, finished_at, total, failed)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			run.ID, run.InputPath, run.OutputPath, run.StartedAt, run.FinishedAt, run.Total, run.Failed,
		)
		if err != nil {
			return fmt.Errorf("inserting run: %w", err)
		}

		if len(run.Results) == 0 {
			return nil
		}

		_, err = tx.CopyFrom(ctx, pgx.Identifier{"barcode_results"}, resultColumns,
			pgx.CopyFromSlice(len(run.Results), func(i int) ([]any, error) {
				res := run.Results[i]
				return []any{
					run.ID, i, res.Reference, res.Description, res.ImageLink, res.Brand,
					res.NetWeight, res.GrossWeight, res.NCM, res.CEST, res.GPC,
					res.EAN, res.Status, res.Note,
				}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("copying results: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving run %q: %w", run.ID, err)
	}
	return nil
}

// List returns the most recent runs, newest first.
func (r *RunRepository) List(ctx context.Context, limit int) ([]barcode.RunSummary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id::text, input_path, output_path, started_at, finished_at, total, failed
		FROM barcode_runs
		ORDER BY started_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	runs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (barcode.RunSummary, error) {
		var s barcode.RunSummary
		err := row.Scan(&s.ID, &s.InputPath, &s.OutputPath, &s.StartedAt, &s.FinishedAt, &s.Total, &s.Failed)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning runs: %w", err)
	}
	return runs, nil
}

// Results returns the stored result rows of a run in input order. A run that
// was never saved yields barcode.ErrRunNotFound.
func (r *RunRepository) Results(ctx context.Context, runID string) ([]barcode.ResultRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT reference, description, image_link, brand, net_weight, gross_weight, ncm, cest, gpc, ean, status, note
		FROM barcode_results
		WHERE run_id = $1
		ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("listing results of run %q: %w", runID, err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (barcode.ResultRow, error) {
		var res barcode.ResultRow
		err := row.Scan(
			&res.Reference, &res.Description, &res.ImageLink, &res.Brand, &res.NetWeight, &res.GrossWeight,
			&res.NCM, &res.CEST, &res.GPC, &res.EAN, &res.Status, &res.Note,
		)
		return res, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning results of run %q: %w", runID, err)
	}
	if len(results) > 0 {
		return results, nil
	}

	// A saved run may have no rows at all.
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM barcode_runs WHERE id = $1)`, runID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("checking run %q: %w", runID, err)
	}
	if !exists {
		return nil, fmt.Errorf("run %q: %w", runID, barcode.ErrRunNotFound)
	}
	return results, nil
}
