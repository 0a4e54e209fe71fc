// Package usecase implements the audit trail business logic.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/fileguard/internal/audit/domain"
)

// EventRepository defines audit event persistence operations.
type EventRepository interface {
	Create(ctx context.Context, event *auditDomain.Event) error
	Get(ctx context.Context, id uuid.UUID) (*auditDomain.Event, error)
	MarkResolved(ctx context.Context, id uuid.UUID, resolvedAt time.Time) error

	// List retrieves events ordered by created_at ascending with pagination and
	// optional inclusive time-range filtering (nil means no bound).
	List(
		ctx context.Context,
		offset, limit int,
		createdAtFrom, createdAtTo *time.Time,
	) ([]*auditDomain.Event, error)

	// CountGeneralOlderThan counts general (non-incident) events strictly
	// older than the cutoff.
	CountGeneralOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	// DeleteGeneralOlderThan deletes general events strictly older than the cutoff.
	DeleteGeneralOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// CountResolvedIncidentsOlderThan counts resolved security incidents
	// strictly older than the cutoff. Unresolved incidents are never counted.
	CountResolvedIncidentsOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	// DeleteResolvedIncidentsOlderThan deletes resolved security incidents
	// strictly older than the cutoff.
	DeleteResolvedIncidentsOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionSummary reports the outcome of one audit retention run.
type RetentionSummary struct {
	GeneralDeleted   int64 `json:"general_deleted"`
	IncidentsDeleted int64 `json:"incidents_deleted"`
}

// VerificationReport summarizes a batch signature verification run over the
// audit trail.
type VerificationReport struct {
	TotalChecked  int64       `json:"total_checked"`
	ValidCount    int64       `json:"valid_count"`
	InvalidCount  int64       `json:"invalid_count"`
	UnsignedCount int64       `json:"unsigned_count"`
	InvalidIDs    []uuid.UUID `json:"invalid_ids,omitempty"`
}

// UseCase defines the audit collaborator contract consumed by the rest of the
// pipeline: every infection verdict, scan error, quarantine action and
// cleanup-task completion is reported here.
type UseCase interface {
	// LogEvent records a routine audit event.
	LogEvent(ctx context.Context, eventType auditDomain.EventType, payload map[string]any) error

	// LogSecurityIncident records a security incident subject to the longer
	// retention window.
	LogSecurityIncident(ctx context.Context, eventType auditDomain.EventType, payload map[string]any) error

	// ResolveIncident marks a security incident as resolved, making it
	// eligible for retention purging once past the incident window.
	ResolveIncident(ctx context.Context, id uuid.UUID) error

	// DeleteOlderThan purges general events past generalDays and resolved
	// incidents past securityDays. With dryRun only the counts are reported.
	DeleteOlderThan(ctx context.Context, generalDays, securityDays int, dryRun bool) (RetentionSummary, error)

	// VerifyBatch checks the HMAC signatures of all events created within
	// [startTime, endTime] and reports valid, invalid and unsigned counts.
	VerifyBatch(ctx context.Context, startTime, endTime time.Time) (*VerificationReport, error)
}
