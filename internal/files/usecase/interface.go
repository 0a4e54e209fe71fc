// Package usecase implements the file ingest/fetch pipeline: scan first, then
// encrypt and store clean content or quarantine infected content.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	filesDomain "github.com/allisson/fileguard/internal/files/domain"
	quarantineDomain "github.com/allisson/fileguard/internal/quarantine/domain"
	scanDomain "github.com/allisson/fileguard/internal/scan/domain"
)

// FileRepository defines file metadata persistence operations.
type FileRepository interface {
	Create(ctx context.Context, file *filesDomain.File) error
	Get(ctx context.Context, id uuid.UUID) (*filesDomain.File, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// ListExpired returns files whose expiry is strictly before now.
	ListExpired(ctx context.Context, now time.Time) ([]*filesDomain.File, error)
	// TotalSize sums the stored payload sizes for the quota watchdog.
	TotalSize(ctx context.Context) (int64, error)
}

// ShareRepository defines share persistence operations.
type ShareRepository interface {
	Create(ctx context.Context, share *filesDomain.Share) error
	// DeactivateExpired soft-deactivates active shares whose expiry is
	// strictly before now and returns how many were flagged.
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// IngestOutcome reports the result of one ingest attempt. Scan is always set.
// Exactly one of File (clean path) and Quarantine (infected path) is set.
type IngestOutcome struct {
	Scan       *scanDomain.Result
	File       *filesDomain.File
	Quarantine *quarantineDomain.Record
}

// CleanupItemError records one failed deletion inside an expired-file sweep.
type CleanupItemError struct {
	FileID uuid.UUID `json:"file_id"`
	Error  string    `json:"error"`
}

// CleanupReport aggregates an expired-file sweep: item failures are isolated
// and counted, never aborting the sweep.
type CleanupReport struct {
	Cleaned int64              `json:"cleaned"`
	Failed  int64              `json:"failed"`
	Errors  []CleanupItemError `json:"errors,omitempty"`
}

// UseCase is the file pipeline contract.
type UseCase interface {
	// Ingest scans the content and, once a definitive verdict exists, either
	// encrypts and stores it (clean) or quarantines it (infected, returning
	// ErrFileInfected alongside the outcome). Unscanned content is never
	// stored.
	Ingest(
		ctx context.Context,
		name string,
		content []byte,
		password string,
		expiresAt *time.Time,
	) (*IngestOutcome, error)

	// Fetch retrieves and decrypts a stored file.
	Fetch(ctx context.Context, id uuid.UUID, password string) ([]byte, *filesDomain.File, error)

	// CleanupExpired deletes payload, thumbnail and metadata of every expired
	// file, isolating per-item failures.
	CleanupExpired(ctx context.Context) (*CleanupReport, error)

	// DeactivateExpiredShares soft-deactivates expired shares.
	DeactivateExpiredShares(ctx context.Context) (int64, error)

	// TotalSize reports the stored payload volume for the quota watchdog.
	TotalSize(ctx context.Context) (int64, error)
}
