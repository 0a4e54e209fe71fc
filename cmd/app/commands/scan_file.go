package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	scanUseCase "github.com/allisson/fileguard/internal/scan/usecase"
)

// RunScanFile scans a file on disk and reports the verdict. The file itself is
// not modified, stored or quarantined.
func RunScanFile(
	ctx context.Context,
	scanner scanUseCase.UseCase,
	logger *slog.Logger,
	out io.Writer,
	path, format string,
) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	result, err := scanner.Scan(ctx, content, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to scan file: %w", err)
	}

	logger.Info("scan completed",
		slog.String("path", path),
		slog.Bool("is_clean", result.IsClean),
		slog.String("engine", string(result.Engine)),
	)

	if format == "json" {
		return writeJSON(out, map[string]any{
			"path":        path,
			"is_clean":    result.IsClean,
			"threat":      result.Threat,
			"threat_type": string(result.ThreatType),
			"confidence":  result.Confidence,
			"engine":      string(result.Engine),
			"duration_ms": result.Duration.Milliseconds(),
		})
	}

	if result.IsClean {
		fmt.Fprintf(out, "%s: OK (engine: %s)\n", path, result.Engine)
	} else {
		fmt.Fprintf(
			out,
			"%s: INFECTED %s (%s, confidence %.2f, engine: %s)\n",
			path, result.Threat, result.ThreatType, result.Confidence, result.Engine,
		)
	}
	return nil
}

// RunUpdateDefinitions triggers a signature database refresh.
func RunUpdateDefinitions(
	ctx context.Context,
	scanner scanUseCase.UseCase,
	logger *slog.Logger,
	out io.Writer,
) error {
	output, err := scanner.UpdateDefinitions(ctx)
	if err != nil {
		return fmt.Errorf("failed to update definitions: %w", err)
	}

	logger.Info("definitions updated")
	fmt.Fprintln(out, output)
	return nil
}
