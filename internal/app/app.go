// Package app wires configuration, storage, the registry client and the
// pipelines into the runnable binaries.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/gtin-catalog/internal/domain/barcode"
	"github.com/xenking/gtin-catalog/internal/gs1"
	"github.com/xenking/gtin-catalog/internal/handler"
	"github.com/xenking/gtin-catalog/internal/host"
	"github.com/xenking/gtin-catalog/internal/sheet"
	"github.com/xenking/gtin-catalog/pkg/health"
	"github.com/xenking/gtin-catalog/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for catalog-server.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	pool, journal, err := openJournal(ctx, lg, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}

	healthSvc := health.New()
	if pool != nil {
		healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
			return pool.Ping(ctx)
		})
	}
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	registry, err := newRegistry(cfg.Registry, m)
	if err != nil {
		return err
	}
	if cfg.Registry.CompanyPrefix == "" {
		lg.Warn("No GS1 company prefix configured, live registration will be rejected")
	}
	creds := cfg.Registry.Credentials()
	barcodes := barcode.NewService(registry, sheet.Files{}, journal, creds)
	dryRun := barcode.NewService(gs1.DryRun{}, sheet.Files{}, nil, creds)

	catalogs, renderer, err := newCatalogService()
	if err != nil {
		return err
	}

	h := handler.New(handler.Config{
		Catalogs:  catalogs,
		Barcodes:  barcodes,
		DryRun:    dryRun,
		Templates: renderer,
		Revealer:  host.NewDesktop(),
	})

	r := chi.NewRouter()
	r.Use(
		httpmiddleware.Recovery(),
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.LogRequests(handler.RoutePattern),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins: cfg.CORS.Origins,
			AllowHeaders: []string{"Content-Type", httpmiddleware.HeaderRequestID},
			MaxAge:       86400,
		}),
	)
	r.Get("/livez", healthSvc.LiveEndpoint)
	r.Get("/readyz", healthSvc.ReadyEndpoint)
	r.Mount("/api", h.Routes())

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(r,
			httpmiddleware.Instrument("catalog-server", m.MeterProvider(), m.TracerProvider()),
		),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		healthSvc.Run(gctx, 10*time.Second)
		return nil
	})
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	g.Go(func() error {
		// Graceful shutdown: wait for cancellation, drain, then stop.
		<-gctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})

	healthSvc.SetReady(true)
	return g.Wait()
}
