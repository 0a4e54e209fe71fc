package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	auditUseCase "github.com/allisson/fileguard/internal/audit/usecase"
)

// RunCleanAuditLogs purges general audit events past generalDays and resolved
// security incidents past securityDays. With dryRun only the counts are shown.
func RunCleanAuditLogs(
	ctx context.Context,
	audit auditUseCase.UseCase,
	logger *slog.Logger,
	out io.Writer,
	generalDays, securityDays int,
	dryRun bool,
	format string,
) error {
	summary, err := audit.DeleteOlderThan(ctx, generalDays, securityDays, dryRun)
	if err != nil {
		return fmt.Errorf("failed to clean audit logs: %w", err)
	}

	logger.Info("audit retention completed",
		slog.Int64("general_deleted", summary.GeneralDeleted),
		slog.Int64("incidents_deleted", summary.IncidentsDeleted),
		slog.Bool("dry_run", dryRun),
	)

	if format == "json" {
		return writeJSON(out, map[string]any{
			"general_deleted":   summary.GeneralDeleted,
			"incidents_deleted": summary.IncidentsDeleted,
			"dry_run":           dryRun,
		})
	}

	verb := "Deleted"
	if dryRun {
		verb = "Would delete"
	}
	fmt.Fprintf(out, "%s %d general events and %d resolved incidents\n",
		verb, summary.GeneralDeleted, summary.IncidentsDeleted)
	return nil
}
