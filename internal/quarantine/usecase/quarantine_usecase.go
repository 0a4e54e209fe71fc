package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/fileguard/internal/audit/domain"
	cryptoService "github.com/allisson/fileguard/internal/crypto/service"
	"github.com/allisson/fileguard/internal/database"
	apperrors "github.com/allisson/fileguard/internal/errors"
	quarantineDomain "github.com/allisson/fileguard/internal/quarantine/domain"
	"github.com/allisson/fileguard/internal/storage"
)

// quarantineUseCase implements the UseCase interface.
type quarantineUseCase struct {
	recordRepo     RecordRepository
	envelopeEngine cryptoService.EnvelopeEngine
	deleter        *storage.SecureDeleter
	reporter       AuditReporter
	tx             database.TxManager
	quarantinePath string
}

// Quarantine encrypts the payload and isolates it. Malware is never written
// to quarantine storage in plaintext.
func (q *quarantineUseCase) Quarantine(
	ctx context.Context,
	data []byte,
	fileID uuid.UUID,
	reason string,
) (*quarantineDomain.Record, error) {
	envelope, err := q.envelopeEngine.EncryptFile(ctx, data, "")
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encrypt quarantine payload")
	}

	serialized, err := envelope.Marshal()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to serialize quarantine envelope")
	}

	if err := os.MkdirAll(q.quarantinePath, 0o700); err != nil {
		return nil, apperrors.Wrap(err, "failed to create quarantine directory")
	}

	artifactPath := filepath.Join(
		q.quarantinePath,
		fmt.Sprintf("%s_%d.qtn", fileID, time.Now().Unix()),
	)
	if err := os.WriteFile(artifactPath, serialized, 0o600); err != nil {
		return nil, apperrors.Wrap(err, "failed to write quarantine artifact")
	}

	record := &quarantineDomain.Record{
		ID:             uuid.Must(uuid.NewV7()),
		FileID:         fileID,
		QuarantinePath: artifactPath,
		Reason:         reason,
		CreatedAt:      time.Now().UTC(),
	}

	// The record and its incident event commit or roll back together.
	err = q.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := q.recordRepo.Create(ctx, record); err != nil {
			return apperrors.Wrap(err, "failed to create quarantine record")
		}
		return q.reporter.LogSecurityIncident(ctx, auditDomain.EventFileQuarantined, map[string]any{
			"file_id": fileID.String(),
			"path":    artifactPath,
			"reason":  reason,
		})
	})
	if err != nil {
		// Roll back the artifact so no orphan remains on disk.
		if _, delErr := q.deleter.Delete(artifactPath); delErr != nil {
			slog.ErrorContext(ctx, "failed to remove quarantine artifact after record failure",
				"path", artifactPath,
				"error", delErr,
			)
		}
		return nil, err
	}

	return record, nil
}

// Resolve marks a record as cleared.
func (q *quarantineUseCase) Resolve(ctx context.Context, id uuid.UUID) error {
	return q.recordRepo.MarkResolved(ctx, id, time.Now().UTC())
}

// Purge securely destroys the artifact at the given path.
func (q *quarantineUseCase) Purge(_ context.Context, quarantinePath string) (bool, error) {
	return q.deleter.Delete(quarantinePath)
}

// PurgeExpired sweeps resolved records past the retention window. Each item
// is destroyed and its record removed independently; failures are collected
// into the report rather than aborting the sweep.
func (q *quarantineUseCase) PurgeExpired(
	ctx context.Context,
	retentionDays int,
) (*PurgeReport, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)

	records, err := q.recordRepo.ListResolvedOlderThan(ctx, cutoff)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list expired quarantine records")
	}

	report := &PurgeReport{}
	for _, record := range records {
		if err := q.purgeRecord(ctx, record); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, PurgeItemError{
				RecordID: record.ID,
				Path:     record.QuarantinePath,
				Error:    err.Error(),
			})
			slog.WarnContext(ctx, "failed to purge quarantine record",
				"record_id", record.ID.String(),
				"error", err,
			)
			continue
		}
		report.Purged++
	}

	return report, nil
}

func (q *quarantineUseCase) purgeRecord(ctx context.Context, record *quarantineDomain.Record) error {
	if _, err := q.deleter.Delete(record.QuarantinePath); err != nil {
		return err
	}
	// A missing artifact is not an error: the record is stale and removed.
	return q.recordRepo.Delete(ctx, record.ID)
}

// Get retrieves a quarantine record.
func (q *quarantineUseCase) Get(ctx context.Context, id uuid.UUID) (*quarantineDomain.Record, error) {
	return q.recordRepo.Get(ctx, id)
}

// List retrieves quarantine records with pagination.
func (q *quarantineUseCase) List(
	ctx context.Context,
	offset, limit int,
) ([]*quarantineDomain.Record, error) {
	return q.recordRepo.List(ctx, offset, limit)
}

// NewQuarantineUseCase creates a new quarantine manager instance.
func NewQuarantineUseCase(
	recordRepo RecordRepository,
	envelopeEngine cryptoService.EnvelopeEngine,
	deleter *storage.SecureDeleter,
	reporter AuditReporter,
	tx database.TxManager,
	quarantinePath string,
) UseCase {
	return &quarantineUseCase{
		recordRepo:     recordRepo,
		envelopeEngine: envelopeEngine,
		deleter:        deleter,
		reporter:       reporter,
		tx:             tx,
		quarantinePath: quarantinePath,
	}
}
