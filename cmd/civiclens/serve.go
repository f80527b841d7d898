package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/spektr-org/civiclens/server"
)

// ============================================================================
// SERVE — HTTP dashboard API
// ============================================================================

func newServeCmd(a *app) *cobra.Command {
	var (
		addr    string
		preload bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard API over HTTP",
		Long: `Start the HTTP API:

  POST /api/dashboard          filter spec → full result
  POST /api/dashboard/text     filter spec → plain-text briefing
  POST /api/dashboard/tables   filter spec → analytics tables
  GET  /api/options            distinct filter values
  GET  /api/schema             dataset catalogue
  POST /api/reload             reload datasets from the source
  GET  /healthz                loader state
  GET  /metrics                Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			logger := a.logger(cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			registry := prometheus.NewRegistry()
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			metrics := server.NewMetrics(registry)

			provider, cleanup, err := openProvider(ctx, cfg, logger, registry)
			defer cleanup()
			if err != nil {
				return err
			}

			loader := newLoader(cfg, provider, logger, metrics.ObserveLoad)
			if preload {
				if _, err := loader.Get(ctx); err != nil {
					logger.Warn("initial dataset load failed", "error", err)
				}
			}

			handler := server.New(loader,
				server.WithLogger(logger),
				server.WithMetrics(metrics, registry),
				server.WithEngineOptions(cfg.Engine.Options()...),
			)
			srv := server.NewHTTPServer(cfg.Server.Addr, handler.Router(), cfg.Server.ReadHeaderTimeout)

			errCh := make(chan error, 1)
			go func() {
				logger.Info("civiclens listening",
					"addr", cfg.Server.Addr,
					"source", cfg.Data.Source(),
				)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&preload, "preload", true, "Load datasets before accepting requests")
	return cmd
}
