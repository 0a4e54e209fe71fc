package usecase

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/fileguard/internal/audit/domain"
	auditRepository "github.com/allisson/fileguard/internal/audit/repository"
	auditService "github.com/allisson/fileguard/internal/audit/service"
	auditUseCase "github.com/allisson/fileguard/internal/audit/usecase"
	cryptoDomain "github.com/allisson/fileguard/internal/crypto/domain"
	cryptoService "github.com/allisson/fileguard/internal/crypto/service"
	"github.com/allisson/fileguard/internal/database"
	quarantineDomain "github.com/allisson/fileguard/internal/quarantine/domain"
	quarantineRepository "github.com/allisson/fileguard/internal/quarantine/repository"
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

// fakeRecordRepository is an in-memory RecordRepository.
type fakeRecordRepository struct {
	records   map[uuid.UUID]*quarantineDomain.Record
	createErr error
}

func newFakeRecordRepository() *fakeRecordRepository {
	return &fakeRecordRepository{records: make(map[uuid.UUID]*quarantineDomain.Record)}
}

func (f *fakeRecordRepository) Create(_ context.Context, record *quarantineDomain.Record) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.records[record.ID] = record
	return nil
}

func (f *fakeRecordRepository) Get(_ context.Context, id uuid.UUID) (*quarantineDomain.Record, error) {
	record, ok := f.records[id]
	if !ok {
		return nil, quarantineDomain.ErrRecordNotFound
	}
	return record, nil
}

func (f *fakeRecordRepository) List(_ context.Context, _, _ int) ([]*quarantineDomain.Record, error) {
	records := make([]*quarantineDomain.Record, 0, len(f.records))
	for _, record := range f.records {
		records = append(records, record)
	}
	return records, nil
}

func (f *fakeRecordRepository) MarkResolved(_ context.Context, id uuid.UUID, resolvedAt time.Time) error {
	record, ok := f.records[id]
	if !ok {
		return quarantineDomain.ErrRecordNotFound
	}
	record.IsResolved = true
	record.ResolvedAt = &resolvedAt
	return nil
}

func (f *fakeRecordRepository) ListResolvedOlderThan(
	_ context.Context,
	cutoff time.Time,
) ([]*quarantineDomain.Record, error) {
	var expired []*quarantineDomain.Record
	for _, record := range f.records {
		if record.IsResolved && record.CreatedAt.Before(cutoff) {
			expired = append(expired, record)
		}
	}
	return expired, nil
}

func (f *fakeRecordRepository) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.records, id)
	return nil
}

// passthroughTxManager runs the function without a real transaction.
type passthroughTxManager struct{}

func (passthroughTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// recordingAuditReporter collects reported events.
type recordingAuditReporter struct {
	events      []auditDomain.EventType
	incidents   []auditDomain.EventType
	payloads    []map[string]any
	incidentErr error
}

func (r *recordingAuditReporter) LogEvent(
	_ context.Context,
	eventType auditDomain.EventType,
	_ map[string]any,
) error {
	r.events = append(r.events, eventType)
	return nil
}

func (r *recordingAuditReporter) LogSecurityIncident(
	_ context.Context,
	eventType auditDomain.EventType,
	payload map[string]any,
) error {
	if r.incidentErr != nil {
		return r.incidentErr
	}
	r.incidents = append(r.incidents, eventType)
	r.payloads = append(r.payloads, payload)
	return nil
}

type testEnv struct {
	uc       UseCase
	repo     *fakeRecordRepository
	reporter *recordingAuditReporter
	engine   cryptoService.EnvelopeEngine
	dir      string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo := newFakeRecordRepository()
	reporter := &recordingAuditReporter{}
	engine := cryptoService.NewEnvelopeService(cryptoService.NewAEADManager(), &xorKeeper{}, 1000)
	dir := filepath.Join(t.TempDir(), "quarantine")

	return &testEnv{
		uc:       NewQuarantineUseCase(repo, engine, storage.NewSecureDeleter(), reporter, passthroughTxManager{}, dir),
		repo:     repo,
		reporter: reporter,
		engine:   engine,
		dir:      dir,
	}
}

func TestQuarantineUseCase_Quarantine(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	fileID := uuid.Must(uuid.NewV7())
	payload := []byte("malicious payload bytes")

	record, err := env.uc.Quarantine(ctx, payload, fileID, "Win.Trojan.Agent")
	require.NoError(t, err)
	assert.Equal(t, fileID, record.FileID)
	assert.Equal(t, "Win.Trojan.Agent", record.Reason)
	assert.False(t, record.IsResolved)
	assert.True(t, strings.HasPrefix(filepath.Base(record.QuarantinePath), fileID.String()+"_"))
	assert.True(t, strings.HasSuffix(record.QuarantinePath, ".qtn"))

	// Artifact exists, is encrypted (never plaintext) and round-trips.
	artifact, err := os.ReadFile(record.QuarantinePath)
	require.NoError(t, err)
	assert.NotContains(t, string(artifact), "malicious payload bytes")

	envelope, err := cryptoDomain.UnmarshalEnvelope(artifact)
	require.NoError(t, err)
	plaintext, err := env.engine.OpenEnvelope(ctx, envelope, "")
	require.NoError(t, err)
	assert.Equal(t, payload, plaintext)

	// Incident carries path and reason.
	require.Len(t, env.reporter.incidents, 1)
	assert.Equal(t, auditDomain.EventFileQuarantined, env.reporter.incidents[0])
	assert.Equal(t, record.QuarantinePath, env.reporter.payloads[0]["path"])
	assert.Equal(t, "Win.Trojan.Agent", env.reporter.payloads[0]["reason"])
}

func TestQuarantineUseCase_Quarantine_RecordFailureRemovesArtifact(t *testing.T) {
	env := newTestEnv(t)
	env.repo.createErr = assert.AnError

	_, err := env.uc.Quarantine(context.Background(), []byte("x"), uuid.Must(uuid.NewV7()), "r")
	require.Error(t, err)

	entries, err := os.ReadDir(env.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestQuarantineUseCase_Quarantine_IncidentFailureRemovesArtifact(t *testing.T) {
	env := newTestEnv(t)
	env.reporter.incidentErr = assert.AnError

	_, err := env.uc.Quarantine(context.Background(), []byte("x"), uuid.Must(uuid.NewV7()), "r")
	require.Error(t, err)

	entries, err := os.ReadDir(env.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestQuarantineUseCase_Quarantine_RecordAndIncidentShareTransaction(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})

	// Both inserts run inside the same transaction.
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO quarantine_records`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO audit_events`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	audit := auditUseCase.NewAuditUseCase(
		auditRepository.NewPostgreSQLAuditEventRepository(db),
		auditService.NewAuditSigner(),
		make([]byte, 32),
	)
	engine := cryptoService.NewEnvelopeService(cryptoService.NewAEADManager(), &xorKeeper{}, 1000)
	uc := NewQuarantineUseCase(
		quarantineRepository.NewPostgreSQLRecordRepository(db),
		engine,
		storage.NewSecureDeleter(),
		audit,
		database.NewTxManager(db),
		filepath.Join(t.TempDir(), "quarantine"),
	)

	_, err = uc.Quarantine(context.Background(), []byte("payload"), uuid.Must(uuid.NewV7()), "threat")
	require.NoError(t, err)
}

func TestQuarantineUseCase_Purge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	record, err := env.uc.Quarantine(ctx, []byte("payload"), uuid.Must(uuid.NewV7()), "r")
	require.NoError(t, err)

	destroyed, err := env.uc.Purge(ctx, record.QuarantinePath)
	require.NoError(t, err)
	assert.True(t, destroyed)

	// Second purge of the same path reports false, not an error.
	destroyed, err = env.uc.Purge(ctx, record.QuarantinePath)
	require.NoError(t, err)
	assert.False(t, destroyed)
}

func TestQuarantineUseCase_PurgeExpired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	oldResolved, err := env.uc.Quarantine(ctx, []byte("a"), uuid.Must(uuid.NewV7()), "r1")
	require.NoError(t, err)
	require.NoError(t, env.uc.Resolve(ctx, oldResolved.ID))

	oldUnresolved, err := env.uc.Quarantine(ctx, []byte("b"), uuid.Must(uuid.NewV7()), "r2")
	require.NoError(t, err)

	fresh, err := env.uc.Quarantine(ctx, []byte("c"), uuid.Must(uuid.NewV7()), "r3")
	require.NoError(t, err)
	require.NoError(t, env.uc.Resolve(ctx, fresh.ID))

	// Age the first two past the 30-day window.
	env.repo.records[oldResolved.ID].CreatedAt = time.Now().UTC().AddDate(0, 0, -60)
	env.repo.records[oldUnresolved.ID].CreatedAt = time.Now().UTC().AddDate(0, 0, -60)

	report, err := env.uc.PurgeExpired(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.Purged)
	assert.Zero(t, report.Failed)

	// Resolved+expired record is gone, artifact destroyed.
	_, err = env.uc.Get(ctx, oldResolved.ID)
	assert.ErrorIs(t, err, quarantineDomain.ErrRecordNotFound)
	_, statErr := os.Stat(oldResolved.QuarantinePath)
	assert.True(t, os.IsNotExist(statErr))

	// Unresolved record survives regardless of age.
	_, err = env.uc.Get(ctx, oldUnresolved.ID)
	assert.NoError(t, err)
	_, statErr = os.Stat(oldUnresolved.QuarantinePath)
	assert.NoError(t, statErr)

	// Fresh resolved record survives the window.
	_, err = env.uc.Get(ctx, fresh.ID)
	assert.NoError(t, err)
}
