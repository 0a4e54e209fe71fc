package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/allisson/fileguard/internal/app"
	"github.com/allisson/fileguard/internal/config"
)

// workerShutdownTimeout bounds the graceful shutdown of the metrics server.
const workerShutdownTimeout = 30 * time.Second

// RunWorker starts the cleanup scheduler and the metrics server. Blocks until
// receiving SIGINT/SIGTERM or encountering a fatal error, then stops the
// scheduler, waiting for in-flight tasks, and shuts the metrics server down.
func RunWorker(ctx context.Context, version string) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	container := app.NewContainer(cfg)
	logger := container.Logger()
	logger.Info("starting worker", slog.String("version", version))

	defer closeContainer(container, logger)

	scheduler, err := container.CleanupUseCase(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize cleanup scheduler: %w", err)
	}
	if err := scheduler.Setup(); err != nil {
		return fmt.Errorf("failed to set up cleanup scheduler: %w", err)
	}

	metricsServer, err := container.MetricsServer()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics server: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	scheduler.Start()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := metricsServer.Start(groupCtx); err != nil {
			return fmt.Errorf("metrics server error: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()

		logger.Info("shutdown signal received")
		scheduler.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), workerShutdownTimeout)
		defer shutdownCancel()
		return metricsServer.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
