package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/fileguard/internal/errors"
	filesDomain "github.com/allisson/fileguard/internal/files/domain"
	"github.com/allisson/fileguard/internal/metrics"
)

// fileUseCaseWithMetrics decorates UseCase with metrics instrumentation.
type fileUseCaseWithMetrics struct {
	next    UseCase
	metrics metrics.BusinessMetrics
}

// NewFileUseCaseWithMetrics wraps a file UseCase with metrics recording.
func NewFileUseCaseWithMetrics(useCase UseCase, m metrics.BusinessMetrics) UseCase {
	return &fileUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Ingest records metrics for ingest operations. An infected verdict counts as
// success: the pipeline did its job.
func (f *fileUseCaseWithMetrics) Ingest(
	ctx context.Context,
	name string,
	content []byte,
	password string,
	expiresAt *time.Time,
) (*IngestOutcome, error) {
	start := time.Now()
	outcome, err := f.next.Ingest(ctx, name, content, password, expiresAt)

	status := "success"
	if err != nil && !apperrors.Is(err, filesDomain.ErrFileInfected) {
		status = "error"
	}

	f.metrics.RecordOperation(ctx, "files", "file_ingest", status)
	f.metrics.RecordDuration(ctx, "files", "file_ingest", time.Since(start), status)

	return outcome, err
}

// Fetch records metrics for fetch operations.
func (f *fileUseCaseWithMetrics) Fetch(
	ctx context.Context,
	id uuid.UUID,
	password string,
) ([]byte, *filesDomain.File, error) {
	start := time.Now()
	plaintext, file, err := f.next.Fetch(ctx, id, password)

	status := "success"
	if err != nil {
		status = "error"
	}

	f.metrics.RecordOperation(ctx, "files", "file_fetch", status)
	f.metrics.RecordDuration(ctx, "files", "file_fetch", time.Since(start), status)

	return plaintext, file, err
}

// CleanupExpired records metrics for expired-file sweeps.
func (f *fileUseCaseWithMetrics) CleanupExpired(ctx context.Context) (*CleanupReport, error) {
	start := time.Now()
	report, err := f.next.CleanupExpired(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}

	f.metrics.RecordOperation(ctx, "files", "cleanup_expired", status)
	f.metrics.RecordDuration(ctx, "files", "cleanup_expired", time.Since(start), status)

	return report, err
}

// DeactivateExpiredShares records metrics for share deactivation sweeps.
func (f *fileUseCaseWithMetrics) DeactivateExpiredShares(ctx context.Context) (int64, error) {
	start := time.Now()
	count, err := f.next.DeactivateExpiredShares(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}

	f.metrics.RecordOperation(ctx, "files", "deactivate_expired_shares", status)
	f.metrics.RecordDuration(ctx, "files", "deactivate_expired_shares", time.Since(start), status)

	return count, err
}

// TotalSize passes through without instrumentation.
func (f *fileUseCaseWithMetrics) TotalSize(ctx context.Context) (int64, error) {
	return f.next.TotalSize(ctx)
}
