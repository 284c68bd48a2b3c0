package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jholhewres/finbot/pkg/finbot/gateway"
	"github.com/jholhewres/finbot/pkg/finbot/jobs"
)

// newServeCmd creates the `finbot serve` command that starts the backend.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the backend HTTP gateway",
		Long: `Start the finbot backend: the WAHA webhook receiver, the Google
OAuth endpoints, the cron triggers, and (when enabled) the in-process
job scheduler.

Examples:
  finbot serve
  finbot serve --config ./config.yaml`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)

	app, err := buildBackend(cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := gateway.New(app.store, app.orchestrator, app.handshakes, app.runner,
		app.sender, cfg.Server.CronSecret, logger)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var scheduler *jobs.Scheduler
	if cfg.Scheduler.Enabled {
		scheduler, err = jobs.NewScheduler(app.runner, cfg.Scheduler, app.loc, logger)
		if err != nil {
			return fmt.Errorf("scheduler: %w", err)
		}
		scheduler.Start()
	}

	// Expired handshakes accumulate only if links are never tapped; sweep
	// them hourly.
	go purgeHandshakes(ctx, app)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("finbot backend listening",
			"addr", cfg.Server.Addr,
			"name", cfg.Name,
			"timezone", app.loc.String(),
			"scheduler", cfg.Scheduler.Enabled,
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-sigChan:
		logger.Info("shutdown signal received", "signal", sig.String())
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if scheduler != nil {
		scheduler.Stop()
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown incomplete", "err", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func purgeHandshakes(ctx context.Context, app *backend) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := app.store.PurgeExpiredHandshakes(time.Now())
			if err != nil {
				app.logger.Warn("handshake purge failed", "err", err)
			} else if n > 0 {
				app.logger.Info("expired handshakes purged", "count", n)
			}
		}
	}
}
