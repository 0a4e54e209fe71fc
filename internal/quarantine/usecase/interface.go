// Package usecase implements the quarantine lifecycle: isolate infected
// content encrypted, resolve after review, securely purge past retention.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/fileguard/internal/audit/domain"
	quarantineDomain "github.com/allisson/fileguard/internal/quarantine/domain"
)

// RecordRepository defines quarantine record persistence operations.
type RecordRepository interface {
	Create(ctx context.Context, record *quarantineDomain.Record) error
	Get(ctx context.Context, id uuid.UUID) (*quarantineDomain.Record, error)
	List(ctx context.Context, offset, limit int) ([]*quarantineDomain.Record, error)
	MarkResolved(ctx context.Context, id uuid.UUID, resolvedAt time.Time) error
	// ListResolvedOlderThan returns resolved records created strictly before
	// the cutoff, the only records eligible for automatic purging.
	ListResolvedOlderThan(ctx context.Context, cutoff time.Time) ([]*quarantineDomain.Record, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AuditReporter is the audit collaborator contract quarantine actions report to.
type AuditReporter interface {
	LogEvent(ctx context.Context, eventType auditDomain.EventType, payload map[string]any) error
	LogSecurityIncident(ctx context.Context, eventType auditDomain.EventType, payload map[string]any) error
}

// PurgeItemError records one failed purge inside a sweep.
type PurgeItemError struct {
	RecordID uuid.UUID `json:"record_id"`
	Path     string    `json:"path"`
	Error    string    `json:"error"`
}

// PurgeReport summarizes one quarantine purge sweep. Item failures are
// isolated: one broken artifact never aborts the sweep.
type PurgeReport struct {
	Purged int64            `json:"purged"`
	Failed int64            `json:"failed"`
	Errors []PurgeItemError `json:"errors,omitempty"`
}

// UseCase is the quarantine manager contract.
type UseCase interface {
	// Quarantine encrypts the payload, writes it to isolated storage named
	// from the file ID and a timestamp, records it and emits a
	// security-incident event carrying the path and reason.
	Quarantine(ctx context.Context, data []byte, fileID uuid.UUID, reason string) (*quarantineDomain.Record, error)

	// Resolve marks a record as cleared by operator or automated review.
	Resolve(ctx context.Context, id uuid.UUID) error

	// Purge securely destroys the artifact at the given path: three random
	// overwrite passes, then removal. Returns false (not an error) when the
	// path does not exist.
	Purge(ctx context.Context, quarantinePath string) (bool, error)

	// PurgeExpired destroys resolved records past the retention window and
	// removes their database records. Unresolved records are never touched.
	PurgeExpired(ctx context.Context, retentionDays int) (*PurgeReport, error)

	// Get retrieves a quarantine record.
	Get(ctx context.Context, id uuid.UUID) (*quarantineDomain.Record, error)

	// List retrieves quarantine records with pagination.
	List(ctx context.Context, offset, limit int) ([]*quarantineDomain.Record, error)
}
