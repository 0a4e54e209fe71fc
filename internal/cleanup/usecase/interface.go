// Package usecase implements the retention and cleanup scheduler: a uniform
// task list ticked by cron, with synchronous manual dispatch and an emergency
// cascade for storage pressure.
package usecase

import (
	"context"

	auditDomain "github.com/allisson/fileguard/internal/audit/domain"
	auditUseCase "github.com/allisson/fileguard/internal/audit/usecase"
	cleanupDomain "github.com/allisson/fileguard/internal/cleanup/domain"
	filesUseCase "github.com/allisson/fileguard/internal/files/usecase"
	quarantineUseCase "github.com/allisson/fileguard/internal/quarantine/usecase"
)

// FilePipeline is the slice of the file pipeline the scheduler drives.
type FilePipeline interface {
	CleanupExpired(ctx context.Context) (*filesUseCase.CleanupReport, error)
	DeactivateExpiredShares(ctx context.Context) (int64, error)
	TotalSize(ctx context.Context) (int64, error)
}

// AuditManager is the slice of the audit trail the scheduler drives and
// reports to.
type AuditManager interface {
	LogEvent(ctx context.Context, eventType auditDomain.EventType, payload map[string]any) error
	LogSecurityIncident(ctx context.Context, eventType auditDomain.EventType, payload map[string]any) error
	DeleteOlderThan(ctx context.Context, generalDays, securityDays int, dryRun bool) (auditUseCase.RetentionSummary, error)
}

// QuarantinePurger is the slice of the quarantine manager the scheduler drives.
type QuarantinePurger interface {
	PurgeExpired(ctx context.Context, retentionDays int) (*quarantineUseCase.PurgeReport, error)
}

// DefinitionsUpdater is the slice of the scan orchestrator the scheduler drives.
type DefinitionsUpdater interface {
	UpdateDefinitions(ctx context.Context) (string, error)
}

// UseCase is the cleanup scheduler contract.
type UseCase interface {
	// Setup registers the task list idle. It must be called once before
	// Start or RunManual.
	Setup() error

	// Start begins ticking the registered tasks. Start after Stop resumes
	// the same registration.
	Start()

	// Stop pauses ticking and waits for in-flight tasks to finish. The
	// registration is kept so Start can resume it.
	Stop()

	// RunManual dispatches synchronously by task name. "all" runs every
	// registered task in order, "emergency" runs the emergency cascade, an
	// unknown name is a hard error.
	RunManual(ctx context.Context, name string) ([]*cleanupDomain.Report, error)

	// Tasks returns the registered tasks with their current run state.
	Tasks() []*cleanupDomain.Task
}
