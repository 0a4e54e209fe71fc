package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	quarantineUseCase "github.com/allisson/fileguard/internal/quarantine/usecase"
)

// RunQuarantineList lists quarantine records with pagination.
func RunQuarantineList(
	ctx context.Context,
	quarantine quarantineUseCase.UseCase,
	out io.Writer,
	offset, limit int,
	format string,
) error {
	records, err := quarantine.List(ctx, offset, limit)
	if err != nil {
		return fmt.Errorf("failed to list quarantine records: %w", err)
	}

	if format == "json" {
		return writeJSON(out, records)
	}

	if len(records) == 0 {
		fmt.Fprintln(out, "No quarantine records found")
		return nil
	}
	for _, record := range records {
		status := "unresolved"
		if record.IsResolved {
			status = "resolved"
		}
		fmt.Fprintf(
			out,
			"%s  file=%s  %s  reason=%q  created=%s\n",
			record.ID, record.FileID, status, record.Reason,
			record.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}
	return nil
}

// RunResolveQuarantine marks a quarantine record as resolved, making it
// eligible for retention purging.
func RunResolveQuarantine(
	ctx context.Context,
	quarantine quarantineUseCase.UseCase,
	logger *slog.Logger,
	out io.Writer,
	id string,
) error {
	recordID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid record id: %w", err)
	}

	if err := quarantine.Resolve(ctx, recordID); err != nil {
		return fmt.Errorf("failed to resolve quarantine record: %w", err)
	}

	logger.Info("quarantine record resolved", slog.String("id", id))
	fmt.Fprintf(out, "Resolved quarantine record %s\n", id)
	return nil
}

// RunPurgeExpiredQuarantine destroys resolved quarantine records past the
// retention window.
func RunPurgeExpiredQuarantine(
	ctx context.Context,
	quarantine quarantineUseCase.UseCase,
	logger *slog.Logger,
	out io.Writer,
	retentionDays int,
	format string,
) error {
	report, err := quarantine.PurgeExpired(ctx, retentionDays)
	if err != nil {
		return fmt.Errorf("failed to purge expired quarantine records: %w", err)
	}

	logger.Info("quarantine purge completed",
		slog.Int64("purged", report.Purged),
		slog.Int64("failed", report.Failed),
	)

	if format == "json" {
		return writeJSON(out, report)
	}

	fmt.Fprintf(out, "Purged %d expired quarantine record(s), %d failed\n", report.Purged, report.Failed)
	for _, item := range report.Errors {
		fmt.Fprintf(out, "  %s (%s): %s\n", item.RecordID, item.Path, item.Error)
	}
	return nil
}

// RunPurgeQuarantine securely destroys the artifact at the given path.
func RunPurgeQuarantine(
	ctx context.Context,
	quarantine quarantineUseCase.UseCase,
	logger *slog.Logger,
	out io.Writer,
	path string,
) error {
	purged, err := quarantine.Purge(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to purge quarantine artifact: %w", err)
	}

	if purged {
		logger.Info("quarantine artifact purged", slog.String("path", path))
		fmt.Fprintf(out, "Securely destroyed %s\n", path)
	} else {
		fmt.Fprintf(out, "Nothing to purge at %s\n", path)
	}
	return nil
}
