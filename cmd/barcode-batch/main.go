package main

import (
	"context"

	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	appkg "github.com/xenking/gtin-catalog/internal/app"
)

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
		if err := appkg.LoadEnv(); err != nil {
			return err
		}
		cfg, err := appkg.LoadBatchConfig()
		if err != nil {
			return err
		}
		return appkg.RunBatch(ctx, lg, m, cfg)
	})
}
