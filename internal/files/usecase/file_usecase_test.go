package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoService "github.com/allisson/fileguard/internal/crypto/service"
	apperrors "github.com/allisson/fileguard/internal/errors"
	filesDomain "github.com/allisson/fileguard/internal/files/domain"
	quarantineDomain "github.com/allisson/fileguard/internal/quarantine/domain"
	quarantineUseCase "github.com/allisson/fileguard/internal/quarantine/usecase"
	scanDomain "github.com/allisson/fileguard/internal/scan/domain"
	"github.com/allisson/fileguard/internal/storage"
)

// xorKeeper is a toy master-key keeper for tests.
type xorKeeper struct{}

func (x *xorKeeper) Encrypt(_ context.Context, plaintext []byte) ([]byte, error) {
	out := make([]byte, len(plaintext))
	for i, b := range plaintext {
		out[i] = b ^ 0x5a
	}
	return out, nil
}

func (x *xorKeeper) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	return x.Encrypt(ctx, ciphertext)
}

func (x *xorKeeper) Close() error { return nil }

// fakeFileRepository is an in-memory FileRepository.
type fakeFileRepository struct {
	files     map[uuid.UUID]*filesDomain.File
	createErr error
}

func newFakeFileRepository() *fakeFileRepository {
	return &fakeFileRepository{files: make(map[uuid.UUID]*filesDomain.File)}
}

func (f *fakeFileRepository) Create(_ context.Context, file *filesDomain.File) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.files[file.ID] = file
	return nil
}

func (f *fakeFileRepository) Get(_ context.Context, id uuid.UUID) (*filesDomain.File, error) {
	file, ok := f.files[id]
	if !ok {
		return nil, filesDomain.ErrFileNotFound
	}
	return file, nil
}

func (f *fakeFileRepository) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.files, id)
	return nil
}

func (f *fakeFileRepository) ListExpired(_ context.Context, now time.Time) ([]*filesDomain.File, error) {
	var expired []*filesDomain.File
	for _, file := range f.files {
		if file.Expired(now) {
			expired = append(expired, file)
		}
	}
	return expired, nil
}

func (f *fakeFileRepository) TotalSize(_ context.Context) (int64, error) {
	var total int64
	for _, file := range f.files {
		total += file.Size
	}
	return total, nil
}

// fakeShareRepository is an in-memory ShareRepository.
type fakeShareRepository struct {
	shares []*filesDomain.Share
}

func (f *fakeShareRepository) Create(_ context.Context, share *filesDomain.Share) error {
	f.shares = append(f.shares, share)
	return nil
}

func (f *fakeShareRepository) DeactivateExpired(_ context.Context, now time.Time) (int64, error) {
	var count int64
	for _, share := range f.shares {
		if share.IsActive && share.ExpiresAt.Before(now) {
			share.IsActive = false
			count++
		}
	}
	return count, nil
}

// stubScanUseCase returns a canned verdict.
type stubScanUseCase struct {
	result *scanDomain.Result
	err    error
}

func (s *stubScanUseCase) Scan(_ context.Context, _ []byte, _ string) (*scanDomain.Result, error) {
	return s.result, s.err
}

func (s *stubScanUseCase) Engine() scanDomain.Engine {
	return scanDomain.EnginePrimary
}

func (s *stubScanUseCase) UpdateDefinitions(_ context.Context) (string, error) {
	return "", nil
}

// stubQuarantine records quarantined payloads.
type stubQuarantine struct {
	records []*quarantineDomain.Record
}

func (s *stubQuarantine) Quarantine(
	_ context.Context,
	_ []byte,
	fileID uuid.UUID,
	reason string,
) (*quarantineDomain.Record, error) {
	record := &quarantineDomain.Record{
		ID:             uuid.Must(uuid.NewV7()),
		FileID:         fileID,
		Reason:         reason,
		QuarantinePath: "/quarantine/" + fileID.String(),
		CreatedAt:      time.Now().UTC(),
	}
	s.records = append(s.records, record)
	return record, nil
}

func (s *stubQuarantine) Resolve(_ context.Context, _ uuid.UUID) error { return nil }

func (s *stubQuarantine) Purge(_ context.Context, _ string) (bool, error) { return false, nil }

func (s *stubQuarantine) PurgeExpired(_ context.Context, _ int) (*quarantineUseCase.PurgeReport, error) {
	return &quarantineUseCase.PurgeReport{}, nil
}

func (s *stubQuarantine) Get(_ context.Context, _ uuid.UUID) (*quarantineDomain.Record, error) {
	return nil, quarantineDomain.ErrRecordNotFound
}

func (s *stubQuarantine) List(_ context.Context, _, _ int) ([]*quarantineDomain.Record, error) {
	return nil, nil
}

type pipelineEnv struct {
	uc         UseCase
	fileRepo   *fakeFileRepository
	shareRepo  *fakeShareRepository
	quarantine *stubQuarantine
	store      storage.ObjectStore
}

func newPipelineEnv(t *testing.T, verdict *scanDomain.Result) *pipelineEnv {
	t.Helper()
	store, err := storage.NewObjectStore(context.Background(), "mem://")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})

	fileRepo := newFakeFileRepository()
	shareRepo := &fakeShareRepository{}
	quarantine := &stubQuarantine{}
	engine := cryptoService.NewEnvelopeService(cryptoService.NewAEADManager(), &xorKeeper{}, 1000)

	return &pipelineEnv{
		uc: NewFileUseCase(
			fileRepo,
			shareRepo,
			&stubScanUseCase{result: verdict},
			quarantine,
			engine,
			store,
		),
		fileRepo:   fileRepo,
		shareRepo:  shareRepo,
		quarantine: quarantine,
		store:      store,
	}
}

func cleanVerdict() *scanDomain.Result {
	return &scanDomain.Result{IsClean: true, Engine: scanDomain.EnginePrimary}
}

func infectedVerdict() *scanDomain.Result {
	return &scanDomain.Result{
		IsClean:    false,
		Threat:     "Win.Trojan.Agent",
		ThreatType: scanDomain.ThreatTypeTrojan,
		Confidence: 1.0,
		Engine:     scanDomain.EnginePrimary,
	}
}

func TestFileUseCase_Ingest_CleanRoundTrip(t *testing.T) {
	env := newPipelineEnv(t, cleanVerdict())
	ctx := context.Background()
	content := []byte("the report for Q3")

	outcome, err := env.uc.Ingest(ctx, "report.pdf", content, "", nil)
	require.NoError(t, err)
	require.NotNil(t, outcome.File)
	assert.Nil(t, outcome.Quarantine)
	assert.True(t, outcome.Scan.IsClean)
	assert.Equal(t, int64(len(content)), outcome.File.Size)

	// Stored payload is an envelope, not plaintext.
	stored, err := env.store.Read(ctx, outcome.File.Locator)
	require.NoError(t, err)
	assert.NotContains(t, string(stored), "the report for Q3")

	plaintext, file, err := env.uc.Fetch(ctx, outcome.File.ID, "")
	require.NoError(t, err)
	assert.Equal(t, content, plaintext)
	assert.Equal(t, outcome.File.ID, file.ID)
}

func TestFileUseCase_Ingest_PasswordRoundTrip(t *testing.T) {
	env := newPipelineEnv(t, cleanVerdict())
	ctx := context.Background()
	content := []byte("password protected content")

	outcome, err := env.uc.Ingest(ctx, "doc.txt", content, "correct horse", nil)
	require.NoError(t, err)

	plaintext, _, err := env.uc.Fetch(ctx, outcome.File.ID, "correct horse")
	require.NoError(t, err)
	assert.Equal(t, content, plaintext)

	// Wrong password is an authentication failure, never partial plaintext.
	_, _, err = env.uc.Fetch(ctx, outcome.File.ID, "wrong password")
	assert.ErrorIs(t, err, apperrors.ErrAuthenticationFailed)
}

func TestFileUseCase_Ingest_InfectedQuarantines(t *testing.T) {
	env := newPipelineEnv(t, infectedVerdict())
	ctx := context.Background()

	outcome, err := env.uc.Ingest(ctx, "evil.exe", []byte("malware"), "", nil)
	assert.ErrorIs(t, err, filesDomain.ErrFileInfected)
	require.NotNil(t, outcome)
	assert.Nil(t, outcome.File)
	require.NotNil(t, outcome.Quarantine)
	assert.Equal(t, "Win.Trojan.Agent", outcome.Quarantine.Reason)

	// Nothing reached storage or the metadata table.
	assert.Empty(t, env.fileRepo.files)
	total, err := env.store.TotalSize(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestFileUseCase_Ingest_RecordFailureRemovesPayload(t *testing.T) {
	env := newPipelineEnv(t, cleanVerdict())
	env.fileRepo.createErr = assert.AnError

	_, err := env.uc.Ingest(context.Background(), "doc.txt", []byte("content"), "", nil)
	require.Error(t, err)

	total, err := env.store.TotalSize(context.Background())
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestFileUseCase_CleanupExpired(t *testing.T) {
	env := newPipelineEnv(t, cleanVerdict())
	ctx := context.Background()

	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)

	expired, err := env.uc.Ingest(ctx, "old.txt", []byte("old"), "", &past)
	require.ErrorIs(t, err, nil)
	fresh, err := env.uc.Ingest(ctx, "new.txt", []byte("new"), "", &future)
	require.NoError(t, err)
	forever, err := env.uc.Ingest(ctx, "keep.txt", []byte("keep"), "", nil)
	require.NoError(t, err)

	report, err := env.uc.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.Cleaned)
	assert.Zero(t, report.Failed)

	_, _, err = env.uc.Fetch(ctx, expired.File.ID, "")
	assert.ErrorIs(t, err, filesDomain.ErrFileNotFound)
	exists, err := env.store.Exists(ctx, expired.File.Locator)
	require.NoError(t, err)
	assert.False(t, exists)
	_, _, err = env.uc.Fetch(ctx, fresh.File.ID, "")
	assert.NoError(t, err)
	_, _, err = env.uc.Fetch(ctx, forever.File.ID, "")
	assert.NoError(t, err)
}

func TestFileUseCase_DeactivateExpiredShares(t *testing.T) {
	env := newPipelineEnv(t, cleanVerdict())
	ctx := context.Background()

	env.shareRepo.shares = []*filesDomain.Share{
		{ID: uuid.Must(uuid.NewV7()), ExpiresAt: time.Now().UTC().Add(-time.Minute), IsActive: true},
		{ID: uuid.Must(uuid.NewV7()), ExpiresAt: time.Now().UTC().Add(time.Minute), IsActive: true},
		{ID: uuid.Must(uuid.NewV7()), ExpiresAt: time.Now().UTC().Add(-time.Minute), IsActive: false},
	}

	count, err := env.uc.DeactivateExpiredShares(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// Soft only: the expired share still exists, just inactive.
	assert.Len(t, env.shareRepo.shares, 3)
	assert.False(t, env.shareRepo.shares[0].IsActive)
}
