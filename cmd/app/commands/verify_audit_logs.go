package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	auditUseCase "github.com/allisson/fileguard/internal/audit/usecase"
)

// RunVerifyAuditLogs checks the HMAC signatures of audit events created inside
// the given RFC 3339 time range. Empty bounds default to the last 24 hours.
func RunVerifyAuditLogs(
	ctx context.Context,
	audit auditUseCase.UseCase,
	logger *slog.Logger,
	out io.Writer,
	start, end, format string,
) error {
	endTime := time.Now().UTC()
	if end != "" {
		parsed, err := time.Parse(time.RFC3339, end)
		if err != nil {
			return fmt.Errorf("invalid end time: %w", err)
		}
		endTime = parsed
	}

	startTime := endTime.Add(-24 * time.Hour)
	if start != "" {
		parsed, err := time.Parse(time.RFC3339, start)
		if err != nil {
			return fmt.Errorf("invalid start time: %w", err)
		}
		startTime = parsed
	}

	report, err := audit.VerifyBatch(ctx, startTime, endTime)
	if err != nil {
		return fmt.Errorf("failed to verify audit logs: %w", err)
	}

	logger.Info("audit verification completed",
		slog.Int64("total_checked", report.TotalChecked),
		slog.Int64("invalid_count", report.InvalidCount),
	)

	if format == "json" {
		return writeJSON(out, report)
	}

	fmt.Fprintf(out, "Checked %d events: %d valid, %d invalid, %d unsigned\n",
		report.TotalChecked, report.ValidCount, report.InvalidCount, report.UnsignedCount)
	for _, id := range report.InvalidIDs {
		fmt.Fprintf(out, "  invalid signature: %s\n", id)
	}
	return nil
}
