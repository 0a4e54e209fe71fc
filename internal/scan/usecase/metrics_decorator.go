package usecase

import (
	"context"
	"time"

	"github.com/allisson/fileguard/internal/metrics"
	scanDomain "github.com/allisson/fileguard/internal/scan/domain"
)

// scanUseCaseWithMetrics decorates UseCase with metrics instrumentation.
type scanUseCaseWithMetrics struct {
	next    UseCase
	metrics metrics.BusinessMetrics
}

// NewScanUseCaseWithMetrics wraps a scan UseCase with metrics recording.
func NewScanUseCaseWithMetrics(useCase UseCase, m metrics.BusinessMetrics) UseCase {
	return &scanUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Scan records metrics for scan operations and their verdicts.
func (s *scanUseCaseWithMetrics) Scan(
	ctx context.Context,
	content []byte,
	filename string,
) (*scanDomain.Result, error) {
	start := time.Now()
	result, err := s.next.Scan(ctx, content, filename)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "scan", "scan", status)
	s.metrics.RecordDuration(ctx, "scan", "scan", time.Since(start), status)
	if result != nil {
		s.metrics.RecordScanVerdict(ctx, string(result.Engine), result.IsClean)
	}

	return result, err
}

// Engine reports the active engine of the wrapped orchestrator.
func (s *scanUseCaseWithMetrics) Engine() scanDomain.Engine {
	return s.next.Engine()
}

// UpdateDefinitions records metrics for definition update operations.
func (s *scanUseCaseWithMetrics) UpdateDefinitions(ctx context.Context) (string, error) {
	start := time.Now()
	output, err := s.next.UpdateDefinitions(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "scan", "update_definitions", status)
	s.metrics.RecordDuration(ctx, "scan", "update_definitions", time.Since(start), status)

	return output, err
}
