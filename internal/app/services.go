package app

import (
	"context"
	"os"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/xenking/gtin-catalog/internal/domain/barcode"
	"github.com/xenking/gtin-catalog/internal/domain/catalog"
	"github.com/xenking/gtin-catalog/internal/gs1"
	"github.com/xenking/gtin-catalog/internal/render"
	"github.com/xenking/gtin-catalog/internal/sheet"
	"github.com/xenking/gtin-catalog/internal/storage/postgres"
)

// LoadEnv loads variables from .env in the working directory, if present.
// Variables already set in the environment win.
func LoadEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	if err := godotenv.Load(); err != nil {
		return errors.Wrap(err, "load .env")
	}
	return nil
}

// openJournal connects to the run journal and applies its schema. An empty
// URL yields a nil pool and journal.
func openJournal(ctx context.Context, lg *zap.Logger, databaseURL string) (*pgxpool.Pool, barcode.Journal, error) {
	if databaseURL == "" {
		lg.Info("Run journal disabled")
		return nil, nil, nil
	}
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return nil, nil, errors.Wrap(err, "create db pool")
	}
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, errors.Wrap(err, "run migrations")
	}
	return pool, postgres.NewRunRepository(pool), nil
}

func newRegistry(cfg RegistryConfig, m *app.Telemetry) (*gs1.Client, error) {
	client, err := gs1.New(cfg.client(),
		gs1.WithMeterProvider(m.MeterProvider()),
		gs1.WithTracerProvider(m.TracerProvider()),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create registry client")
	}
	return client, nil
}

// newCatalogService returns the catalog service together with its renderer,
// which also lists the available templates.
func newCatalogService() (*catalog.Service, *render.Renderer, error) {
	renderer, err := render.New()
	if err != nil {
		return nil, nil, errors.Wrap(err, "load templates")
	}
	return catalog.NewService(sheet.Files{}, renderer), renderer, nil
}
