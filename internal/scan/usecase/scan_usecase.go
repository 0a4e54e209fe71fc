package usecase

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	auditDomain "github.com/allisson/fileguard/internal/audit/domain"
	scanDomain "github.com/allisson/fileguard/internal/scan/domain"
	scanService "github.com/allisson/fileguard/internal/scan/service"
)

// scanUseCase coordinates the active scanner, the heuristic fallback, the
// scan-rate limiter and the audit collaborator.
type scanUseCase struct {
	scanner    scanService.Scanner
	fallback   scanService.Scanner
	updater    scanService.DefinitionsUpdater
	reporter   IncidentReporter
	limiter    *rate.Limiter
	failClosed bool
}

// Engine reports which detector is currently active.
func (s *scanUseCase) Engine() scanDomain.Engine {
	return s.scanner.Engine()
}

// Scan runs the pipeline: rate limit, active scanner, per-call heuristic
// fallback when the primary engine errors, and the fail policy when no
// detector can produce a verdict. Every infected verdict and every scan error
// is reported as a security incident.
func (s *scanUseCase) Scan(
	ctx context.Context,
	content []byte,
	filename string,
) (*scanDomain.Result, error) {
	start := time.Now()

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	result, err := s.scanner.Scan(ctx, content, filename)
	if err != nil && s.scanner.Engine() == scanDomain.EnginePrimary {
		slog.WarnContext(ctx, "primary scan engine failed, falling back to heuristic scanner",
			"filename", filename,
			"error", err,
		)
		result, err = s.fallback.Scan(ctx, content, filename)
	}

	if err != nil {
		s.reportIncident(ctx, auditDomain.EventAntivirusScanError, map[string]any{
			"filename": filename,
			"error":    err.Error(),
		})
		result = s.failVerdict()
	}

	result.Duration = time.Since(start)
	if result.Timestamp.IsZero() {
		result.Timestamp = time.Now().UTC()
	}

	if !result.IsClean && result.Threat != scanDomain.ThreatScanError {
		s.reportIncident(ctx, auditDomain.EventMalwareDetected, map[string]any{
			"filename":    filename,
			"threat":      result.Threat,
			"threat_type": string(result.ThreatType),
			"confidence":  result.Confidence,
			"engine":      string(result.Engine),
		})
	}

	return result, nil
}

// failVerdict applies the configured fail policy when the scan pipeline
// itself failed: fail-closed treats unknown content as infected, fail-open
// as clean. Both carry engine "error" so callers can tell the verdict is
// synthetic.
func (s *scanUseCase) failVerdict() *scanDomain.Result {
	result := &scanDomain.Result{
		Engine:    scanDomain.EngineError,
		Timestamp: time.Now().UTC(),
	}
	if s.failClosed {
		result.IsClean = false
		result.Threat = scanDomain.ThreatScanError
		result.ThreatType = scanDomain.ThreatTypeUnknown
		result.Confidence = 1.0
	} else {
		result.IsClean = true
	}
	return result
}

// reportIncident logs the incident to the audit collaborator. Audit failures
// never break the scan verdict.
func (s *scanUseCase) reportIncident(
	ctx context.Context,
	eventType auditDomain.EventType,
	payload map[string]any,
) {
	if err := s.reporter.LogSecurityIncident(ctx, eventType, payload); err != nil {
		slog.ErrorContext(ctx, "failed to report scan incident",
			"event_type", string(eventType),
			"error", err,
		)
	}
}

// UpdateDefinitions triggers a signature database refresh.
func (s *scanUseCase) UpdateDefinitions(ctx context.Context) (string, error) {
	return s.updater.Update(ctx)
}

// NewScanUseCase creates the scan orchestrator. The enabled flag and a bounded
// engine version probe select the active scanner at initialization: disabled
// when the flag is off, the primary engine when the probe succeeds, the
// heuristic fallback otherwise. The orchestrator never retries the probe.
func NewScanUseCase(
	ctx context.Context,
	enabled bool,
	client scanService.EngineClient,
	scratchDir string,
	updater scanService.DefinitionsUpdater,
	reporter IncidentReporter,
	failClosed bool,
	ratePerSec float64,
	burst int,
) UseCase {
	uc := &scanUseCase{
		fallback:   scanService.NewHeuristicScanner(),
		updater:    updater,
		reporter:   reporter,
		limiter:    rate.NewLimiter(rate.Limit(ratePerSec), burst),
		failClosed: failClosed,
	}

	if !enabled {
		uc.scanner = scanService.NewDisabledScanner()
		slog.Info("malware scanning disabled, all verdicts are fail-open clean")
		return uc
	}

	version, err := client.Version(ctx)
	if err != nil {
		uc.scanner = scanService.NewDisabledScanner()
		slog.Warn("scan engine probe failed, scanning disabled", "error", err)
		return uc
	}

	uc.scanner = scanService.NewPrimaryScanner(client, scratchDir)
	slog.Info("scan engine ready", "version", version)
	return uc
}
