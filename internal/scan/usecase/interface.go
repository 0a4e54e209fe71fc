// Package usecase orchestrates malware scanning: engine selection, heuristic
// fallback, fail-open/fail-closed policy and incident reporting.
package usecase

import (
	"context"

	auditDomain "github.com/allisson/fileguard/internal/audit/domain"
	scanDomain "github.com/allisson/fileguard/internal/scan/domain"
)

// IncidentReporter is the audit collaborator contract the orchestrator needs:
// infection verdicts and scan errors become security incidents.
type IncidentReporter interface {
	LogSecurityIncident(ctx context.Context, eventType auditDomain.EventType, payload map[string]any) error
}

// UseCase is the scan orchestrator consumed by the file ingest pipeline.
type UseCase interface {
	// Scan produces a definitive verdict for the content. Pipeline failures
	// are converted into a verdict per the configured fail policy rather than
	// returned as errors; only context cancellation aborts.
	Scan(ctx context.Context, content []byte, filename string) (*scanDomain.Result, error)

	// Engine reports which detector is currently active.
	Engine() scanDomain.Engine

	// UpdateDefinitions triggers a signature database refresh.
	UpdateDefinitions(ctx context.Context) (string, error)
}
