package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	cleanupUseCase "github.com/allisson/fileguard/internal/cleanup/usecase"
)

// RunCleanup dispatches a cleanup task by name. "all" runs every registered
// task in order and "emergency" runs the emergency cascade.
func RunCleanup(
	ctx context.Context,
	scheduler cleanupUseCase.UseCase,
	logger *slog.Logger,
	out io.Writer,
	task, format string,
) error {
	logger.Info("running cleanup task", slog.String("task", task))

	reports, err := scheduler.RunManual(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to run cleanup task: %w", err)
	}

	if format == "json" {
		return writeJSON(out, reports)
	}

	for _, report := range reports {
		fmt.Fprintf(out, "%s: cleaned %d, failed %d\n", report.Task, report.Cleaned, report.Failed)
		for _, item := range report.Errors {
			fmt.Fprintf(out, "  %s: %s\n", item.ID, item.Error)
		}
	}
	return nil
}
