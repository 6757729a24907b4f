package app

import (
	"context"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/gtin-catalog/internal/domain/catalog"
	"github.com/xenking/gtin-catalog/internal/host"
)

// RunCatalog generates a single catalog for catalog-html.
func RunCatalog(ctx context.Context, lg *zap.Logger, cfg *CatalogConfig) error {
	svc, _, err := newCatalogService()
	if err != nil {
		return err
	}
	return runCatalog(ctx, lg, svc, host.NewDesktop(), cfg)
}

type catalogGenerator interface {
	Generate(ctx context.Context, req catalog.Request) (*catalog.Result, error)
}

func runCatalog(ctx context.Context, lg *zap.Logger, svc catalogGenerator, revealer host.Revealer, cfg *CatalogConfig) error {
	res, err := svc.Generate(ctx, catalog.Request{
		InputPath:  cfg.Input,
		ImagesPath: cfg.Images,
		Template:   cfg.Template,
		OutputPath: cfg.Output,
		Bundle:     cfg.Bundle,
	})
	if err != nil {
		return errors.Wrap(err, "generate catalog")
	}
	if !res.Written {
		lg.Info("No output path, catalog discarded", zap.Int("entries", res.Entries))
		return nil
	}

	lg.Info("Catalog generated",
		zap.String("path", res.Path),
		zap.Int("entries", res.Entries),
		zap.String("template", cfg.Template),
	)
	if cfg.Reveal {
		if err := revealer.Reveal(res.Path); err != nil {
			lg.Warn("Reveal failed", zap.Error(err))
		}
	}
	return nil
}
