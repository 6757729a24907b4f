package app

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	"github.com/xenking/gtin-catalog/internal/domain/barcode"
	"github.com/xenking/gtin-catalog/internal/gs1"
	"github.com/xenking/gtin-catalog/internal/host"
	"github.com/xenking/gtin-catalog/internal/sheet"
)

// RunBatch runs a single barcode batch for barcode-batch.
func RunBatch(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *BatchConfig) error {
	var registry barcode.Registry = gs1.DryRun{}
	var journal barcode.Journal
	if !cfg.DryRun {
		pool, j, err := openJournal(ctx, lg, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		if pool != nil {
			defer pool.Close()
			journal = j
		}
		client, err := newRegistry(cfg.Registry, m)
		if err != nil {
			return err
		}
		registry = client
	}

	svc := barcode.NewService(registry, sheet.Files{}, journal, cfg.Registry.Credentials())
	return runBatch(ctx, lg, svc, host.NewDesktop(), cfg)
}

type batchProcessor interface {
	Process(ctx context.Context, req barcode.Request, onProgress barcode.ProgressFunc) (*barcode.Report, error)
}

func runBatch(ctx context.Context, lg *zap.Logger, svc batchProcessor, revealer host.Revealer, cfg *BatchConfig) error {
	lg.Info("Starting batch",
		zap.String("input", cfg.Input),
		zap.String("output", cfg.Output),
		zap.Bool("dry_run", cfg.DryRun),
	)

	report, err := svc.Process(ctx, barcode.Request{InputPath: cfg.Input, OutputPath: cfg.Output}, func(p barcode.Progress) {
		if p.Final {
			return
		}
		lg.Info("Progress",
			zap.Int("completed", p.Completed),
			zap.Int("total", p.Total),
			zap.String("description", p.LastDescription),
		)
	})
	if err != nil {
		lg.Error("Batch failed", zap.String("reason", barcode.Describe(err).Message))
		return errors.Wrap(err, "process batch")
	}

	lg.Info("Batch done",
		zap.String("run_id", report.RunID),
		zap.Int("total", report.Total),
		zap.Int("failed", report.Failed),
		zap.String("output", report.OutputPath),
		zap.Bool("written", report.Written),
	)
	if cfg.Reveal && report.Written {
		if err := revealer.Reveal(report.OutputPath); err != nil {
			lg.Warn("Reveal failed", zap.Error(err))
		}
	}
	return nil
}
