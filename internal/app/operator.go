package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"warden/pkg/logging"
)

// runOperator starts the reconcile manager, backup scheduler, and metrics
// endpoint, then blocks waiting for interrupt signals (SIGINT, SIGTERM).
// All three are stopped in reverse order on shutdown.
//
// Signal Handling:
//   - SIGINT (Ctrl+C): Triggers graceful shutdown
//   - SIGTERM: Triggers graceful shutdown (common in container environments)
func runOperator(ctx context.Context, cfg *Config, services *Services) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if services.MetricsServer != nil {
		go func() {
			if err := services.MetricsServer.Start(ctx); err != nil {
				logging.Error("Operator", err, "Metrics server failed")
			}
		}()
	}

	if err := services.Manager.Start(ctx); err != nil {
		logging.Error("Operator", err, "Failed to start reconcile manager")
		return err
	}
	services.Scheduler.Start()

	logging.Info("Operator", "warden is running. Press Ctrl+C to stop.")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
	case <-ctx.Done():
	}

	logging.Info("Operator", "Shutting down")
	services.Scheduler.Stop()
	services.Manager.Stop()
	cancel()

	return nil
}
