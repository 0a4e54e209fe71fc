package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/fileguard/internal/crypto/domain"
	cryptoService "github.com/allisson/fileguard/internal/crypto/service"
	apperrors "github.com/allisson/fileguard/internal/errors"
	filesDomain "github.com/allisson/fileguard/internal/files/domain"
	quarantineUseCase "github.com/allisson/fileguard/internal/quarantine/usecase"
	scanUseCase "github.com/allisson/fileguard/internal/scan/usecase"
	"github.com/allisson/fileguard/internal/storage"
)

// fileUseCase implements the UseCase interface.
type fileUseCase struct {
	fileRepo       FileRepository
	shareRepo      ShareRepository
	scanner        scanUseCase.UseCase
	quarantine     quarantineUseCase.UseCase
	envelopeEngine cryptoService.EnvelopeEngine
	store          storage.ObjectStore
}

// Ingest runs the pipeline in strict order: a definitive scan verdict always
// precedes any storage attempt.
func (f *fileUseCase) Ingest(
	ctx context.Context,
	name string,
	content []byte,
	password string,
	expiresAt *time.Time,
) (*IngestOutcome, error) {
	verdict, err := f.scanner.Scan(ctx, content, name)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to scan content")
	}

	outcome := &IngestOutcome{Scan: verdict}

	if !verdict.IsClean {
		fileID := uuid.Must(uuid.NewV7())
		record, err := f.quarantine.Quarantine(ctx, content, fileID, verdict.Threat)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to quarantine infected content")
		}
		outcome.Quarantine = record
		return outcome, filesDomain.ErrFileInfected
	}

	envelope, err := f.envelopeEngine.EncryptFile(ctx, content, password)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encrypt content")
	}
	serialized, err := envelope.Marshal()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to serialize envelope")
	}

	file := &filesDomain.File{
		ID:        uuid.Must(uuid.NewV7()),
		Name:      name,
		Size:      int64(len(content)),
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	file.Locator = "files/" + file.ID.String()

	if err := f.store.Write(ctx, file.Locator, serialized); err != nil {
		return nil, apperrors.Wrap(err, "failed to store encrypted payload")
	}
	if err := f.fileRepo.Create(ctx, file); err != nil {
		// Remove the orphaned payload so storage and metadata stay in sync.
		if _, delErr := f.store.Delete(ctx, file.Locator); delErr != nil {
			slog.ErrorContext(ctx, "failed to remove orphaned payload",
				"locator", file.Locator,
				"error", delErr,
			)
		}
		return nil, apperrors.Wrap(err, "failed to create file record")
	}

	outcome.File = file
	return outcome, nil
}

// Fetch retrieves and decrypts a stored file.
func (f *fileUseCase) Fetch(
	ctx context.Context,
	id uuid.UUID,
	password string,
) ([]byte, *filesDomain.File, error) {
	file, err := f.fileRepo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	serialized, err := f.store.Read(ctx, file.Locator)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to read encrypted payload")
	}

	envelope, err := cryptoDomain.UnmarshalEnvelope(serialized)
	if err != nil {
		return nil, nil, err
	}

	plaintext, err := f.envelopeEngine.OpenEnvelope(ctx, envelope, password)
	if err != nil {
		return nil, nil, err
	}

	return plaintext, file, nil
}

// CleanupExpired sweeps expired files: payload and thumbnail are securely
// destroyed in object storage, then the metadata record is removed. One
// broken file never aborts the sweep.
func (f *fileUseCase) CleanupExpired(ctx context.Context) (*CleanupReport, error) {
	expired, err := f.fileRepo.ListExpired(ctx, time.Now().UTC())
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list expired files")
	}

	report := &CleanupReport{}
	for _, file := range expired {
		if err := f.cleanupFile(ctx, file); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, CleanupItemError{
				FileID: file.ID,
				Error:  err.Error(),
			})
			slog.WarnContext(ctx, "failed to clean expired file",
				"file_id", file.ID.String(),
				"error", err,
			)
			continue
		}
		report.Cleaned++
	}

	return report, nil
}

func (f *fileUseCase) cleanupFile(ctx context.Context, file *filesDomain.File) error {
	if _, err := f.store.SecureDelete(ctx, file.Locator); err != nil {
		return err
	}
	if file.ThumbnailLocator != "" {
		if _, err := f.store.SecureDelete(ctx, file.ThumbnailLocator); err != nil {
			return err
		}
	}
	return f.fileRepo.Delete(ctx, file.ID)
}

// DeactivateExpiredShares soft-deactivates expired shares.
func (f *fileUseCase) DeactivateExpiredShares(ctx context.Context) (int64, error) {
	return f.shareRepo.DeactivateExpired(ctx, time.Now().UTC())
}

// TotalSize reports the stored payload volume.
func (f *fileUseCase) TotalSize(ctx context.Context) (int64, error) {
	return f.fileRepo.TotalSize(ctx)
}

// NewFileUseCase creates a new file pipeline instance.
func NewFileUseCase(
	fileRepo FileRepository,
	shareRepo ShareRepository,
	scanner scanUseCase.UseCase,
	quarantine quarantineUseCase.UseCase,
	envelopeEngine cryptoService.EnvelopeEngine,
	store storage.ObjectStore,
) UseCase {
	return &fileUseCase{
		fileRepo:       fileRepo,
		shareRepo:      shareRepo,
		scanner:        scanner,
		quarantine:     quarantine,
		envelopeEngine: envelopeEngine,
		store:          store,
	}
}
