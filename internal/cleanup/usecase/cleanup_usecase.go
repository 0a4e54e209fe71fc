package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	auditDomain "github.com/allisson/fileguard/internal/audit/domain"
	cleanupDomain "github.com/allisson/fileguard/internal/cleanup/domain"
	apperrors "github.com/allisson/fileguard/internal/errors"
	"github.com/allisson/fileguard/internal/storage"
)

// Storage pressure thresholds for the quota watchdog. Both are strict: usage
// must exceed the ratio to trigger.
const (
	quotaHighWatermark      = 0.90
	quotaEmergencyWatermark = 0.95
)

// cleanupUseCase implements the UseCase interface.
type cleanupUseCase struct {
	files      FilePipeline
	audit      AuditManager
	quarantine QuarantinePurger
	scanner    DefinitionsUpdater
	deleter    *storage.SecureDeleter
	policy     cleanupDomain.Policy

	mu     sync.Mutex
	cron   *cron.Cron
	tasks  []*cleanupDomain.Task
	byName map[string]*cleanupDomain.Task
	setUp  bool
}

// Setup registers the task list idle. Scheduled runs only begin on Start.
func (c *cleanupUseCase) Setup() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.setUp {
		return apperrors.New("cleanup scheduler already set up")
	}

	c.tasks = []*cleanupDomain.Task{
		{Name: cleanupDomain.TaskExpiredShares, Interval: time.Hour, Handler: c.deactivateExpiredShares},
		{Name: cleanupDomain.TaskExpiredFiles, Interval: 24 * time.Hour, Handler: c.cleanExpiredFiles},
		{Name: cleanupDomain.TaskAuditRetention, Interval: 168 * time.Hour, Handler: c.cleanAuditLogs},
		{Name: cleanupDomain.TaskQuarantinePurge, Interval: 24 * time.Hour, Handler: c.purgeQuarantine},
		{Name: cleanupDomain.TaskTempSweep, Interval: time.Hour, Handler: c.sweepTempFiles},
		{Name: cleanupDomain.TaskDefinitionsUpdate, Interval: 24 * time.Hour, Handler: c.updateDefinitions},
		{Name: cleanupDomain.TaskQuotaWatchdog, Interval: 24 * time.Hour, Handler: c.watchQuota},
	}
	c.byName = make(map[string]*cleanupDomain.Task, len(c.tasks))

	for _, task := range c.tasks {
		task := task
		c.byName[task.Name] = task
		schedule := fmt.Sprintf("@every %s", task.Interval)
		if _, err := c.cron.AddFunc(schedule, func() {
			if _, err := c.runTask(context.Background(), task); err != nil {
				slog.Error("scheduled cleanup task failed",
					"task", task.Name,
					"error", err,
				)
			}
		}); err != nil {
			return apperrors.Wrapf(err, "failed to schedule task %s", task.Name)
		}
	}

	c.setUp = true
	slog.Info("cleanup scheduler set up", "tasks", len(c.tasks))
	return nil
}

// Start begins ticking. The registration from Setup is kept across
// Stop/Start cycles.
func (c *cleanupUseCase) Start() {
	c.cron.Start()
	slog.Info("cleanup scheduler started")
}

// Stop pauses ticking and waits for in-flight tasks to finish.
func (c *cleanupUseCase) Stop() {
	ctx := c.cron.Stop()
	<-ctx.Done()
	slog.Info("cleanup scheduler stopped")
}

// RunManual dispatches synchronously by task name.
func (c *cleanupUseCase) RunManual(ctx context.Context, name string) ([]*cleanupDomain.Report, error) {
	c.mu.Lock()
	if !c.setUp {
		c.mu.Unlock()
		return nil, apperrors.New("cleanup scheduler not set up")
	}
	c.mu.Unlock()

	switch name {
	case cleanupDomain.TaskAll:
		return c.runAll(ctx)
	case cleanupDomain.TaskEmergency:
		return c.runEmergency(ctx)
	default:
		c.mu.Lock()
		task, ok := c.byName[name]
		c.mu.Unlock()
		if !ok {
			return nil, apperrors.Wrapf(cleanupDomain.ErrUnknownTask, "%q", name)
		}
		report, err := c.runTask(ctx, task)
		if err != nil {
			return nil, err
		}
		if report == nil {
			return []*cleanupDomain.Report{}, nil
		}
		return []*cleanupDomain.Report{report}, nil
	}
}

// Tasks returns the registered tasks with their current run state.
func (c *cleanupUseCase) Tasks() []*cleanupDomain.Task {
	c.mu.Lock()
	defer c.mu.Unlock()

	tasks := make([]*cleanupDomain.Task, len(c.tasks))
	copy(tasks, c.tasks)
	return tasks
}

func (c *cleanupUseCase) runAll(ctx context.Context) ([]*cleanupDomain.Report, error) {
	c.mu.Lock()
	tasks := make([]*cleanupDomain.Task, len(c.tasks))
	copy(tasks, c.tasks)
	c.mu.Unlock()

	reports := make([]*cleanupDomain.Report, 0, len(tasks))
	for _, task := range tasks {
		report, err := c.runTask(ctx, task)
		if err != nil {
			reports = append(reports, failedTaskReport(ctx, task.Name, err))
			continue
		}
		if report != nil {
			reports = append(reports, report)
		}
	}
	return reports, nil
}

// runEmergency frees storage in strict order: expired files first, then audit
// logs, quarantine artifacts and temp files. Once started the cascade runs to
// completion, a failing step does not stop the later steps.
func (c *cleanupUseCase) runEmergency(ctx context.Context) ([]*cleanupDomain.Report, error) {
	cascade := []string{
		cleanupDomain.TaskExpiredFiles,
		cleanupDomain.TaskAuditRetention,
		cleanupDomain.TaskQuarantinePurge,
		cleanupDomain.TaskTempSweep,
	}

	reports := make([]*cleanupDomain.Report, 0, len(cascade))
	payload := map[string]any{}
	for _, name := range cascade {
		c.mu.Lock()
		task := c.byName[name]
		c.mu.Unlock()

		report, err := c.runTask(ctx, task)
		if err != nil {
			reports = append(reports, failedTaskReport(ctx, name, err))
			continue
		}
		if report != nil {
			reports = append(reports, report)
			payload[name] = report.Cleaned
		}
	}

	if err := c.audit.LogSecurityIncident(ctx, auditDomain.EventEmergencyCleanupPerformed, payload); err != nil {
		slog.ErrorContext(ctx, "failed to record emergency cleanup incident", "error", err)
	}
	return reports, nil
}

// failedTaskReport folds a task error into its own report. A failing task is
// recorded and its siblings keep running.
func failedTaskReport(ctx context.Context, name string, err error) *cleanupDomain.Report {
	slog.ErrorContext(ctx, "cleanup task failed", "task", name, "error", err)
	return &cleanupDomain.Report{
		Task:   name,
		Failed: 1,
		Errors: []cleanupDomain.ItemError{{ID: name, Error: err.Error()}},
	}
}

// runTask executes one task cycle with an overlap guard: a task still running
// from a previous tick is skipped, not queued.
func (c *cleanupUseCase) runTask(ctx context.Context, task *cleanupDomain.Task) (*cleanupDomain.Report, error) {
	c.mu.Lock()
	if task.IsRunning {
		c.mu.Unlock()
		slog.WarnContext(ctx, "cleanup task still running, skipping", "task", task.Name)
		return nil, nil
	}
	task.IsRunning = true
	c.mu.Unlock()

	started := time.Now().UTC()
	defer func() {
		c.mu.Lock()
		task.IsRunning = false
		task.LastRunAt = &started
		c.mu.Unlock()
	}()

	report, err := task.Handler(ctx)
	duration := time.Since(started)
	if err != nil {
		return nil, apperrors.Wrapf(err, "cleanup task %s failed", task.Name)
	}
	report.Task = task.Name

	slog.InfoContext(ctx, "cleanup task completed",
		"task", task.Name,
		"cleaned", report.Cleaned,
		"failed", report.Failed,
		"duration_ms", duration.Milliseconds(),
	)
	if err := c.audit.LogEvent(ctx, auditDomain.EventCleanupTaskCompleted, map[string]any{
		"task":        task.Name,
		"cleaned":     report.Cleaned,
		"failed":      report.Failed,
		"duration_ms": duration.Milliseconds(),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to record cleanup event", "task", task.Name, "error", err)
	}

	return report, nil
}

func (c *cleanupUseCase) deactivateExpiredShares(ctx context.Context) (*cleanupDomain.Report, error) {
	count, err := c.files.DeactivateExpiredShares(ctx)
	if err != nil {
		return nil, err
	}

	if count > 0 {
		c.logEvent(ctx, auditDomain.EventExpiredShareDeactivated, map[string]any{"count": count})
	}
	return &cleanupDomain.Report{Cleaned: count}, nil
}

func (c *cleanupUseCase) cleanExpiredFiles(ctx context.Context) (*cleanupDomain.Report, error) {
	fileReport, err := c.files.CleanupExpired(ctx)
	if err != nil {
		return nil, err
	}

	report := &cleanupDomain.Report{Cleaned: fileReport.Cleaned, Failed: fileReport.Failed}
	for _, item := range fileReport.Errors {
		report.Errors = append(report.Errors, cleanupDomain.ItemError{
			ID:    item.FileID.String(),
			Error: item.Error,
		})
	}

	if report.Cleaned > 0 {
		c.logEvent(ctx, auditDomain.EventExpiredFileCleaned, map[string]any{"count": report.Cleaned})
	}
	return report, nil
}

func (c *cleanupUseCase) cleanAuditLogs(ctx context.Context) (*cleanupDomain.Report, error) {
	summary, err := c.audit.DeleteOlderThan(
		ctx,
		c.policy.AuditRetentionDays,
		c.policy.SecurityAuditRetentionDays,
		false,
	)
	if err != nil {
		return nil, err
	}

	cleaned := summary.GeneralDeleted + summary.IncidentsDeleted
	if cleaned > 0 {
		c.logEvent(ctx, auditDomain.EventAuditLogsCleaned, map[string]any{
			"general_deleted":   summary.GeneralDeleted,
			"incidents_deleted": summary.IncidentsDeleted,
		})
	}
	return &cleanupDomain.Report{
		Cleaned: cleaned,
		Details: map[string]any{
			"general_deleted":   summary.GeneralDeleted,
			"incidents_deleted": summary.IncidentsDeleted,
		},
	}, nil
}

func (c *cleanupUseCase) purgeQuarantine(ctx context.Context) (*cleanupDomain.Report, error) {
	purgeReport, err := c.quarantine.PurgeExpired(ctx, c.policy.QuarantineRetentionDays)
	if err != nil {
		return nil, err
	}

	report := &cleanupDomain.Report{Cleaned: purgeReport.Purged, Failed: purgeReport.Failed}
	for _, item := range purgeReport.Errors {
		report.Errors = append(report.Errors, cleanupDomain.ItemError{
			ID:    item.RecordID.String(),
			Error: item.Error,
		})
	}

	if report.Cleaned > 0 {
		c.logEvent(ctx, auditDomain.EventQuarantinePurged, map[string]any{"count": report.Cleaned})
	}
	return report, nil
}

// sweepTempFiles removes temp files older than the configured age from every
// configured temp directory. Scratch scan copies leaked by a crashed scan are
// caught here.
func (c *cleanupUseCase) sweepTempFiles(ctx context.Context) (*cleanupDomain.Report, error) {
	report := &cleanupDomain.Report{}
	cutoff := time.Now().Add(-c.policy.TempMaxAge)

	for _, dir := range c.policy.TempPaths {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			report.Failed++
			report.Errors = append(report.Errors, cleanupDomain.ItemError{ID: dir, Error: err.Error()})
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if !info.ModTime().Before(cutoff) {
				continue
			}

			path := filepath.Join(dir, entry.Name())
			deleted, err := c.deleter.Delete(path)
			if err != nil {
				report.Failed++
				report.Errors = append(report.Errors, cleanupDomain.ItemError{ID: path, Error: err.Error()})
				continue
			}
			if deleted {
				report.Cleaned++
			}
		}
	}

	if report.Cleaned > 0 {
		c.logEvent(ctx, auditDomain.EventTempFilesCleaned, map[string]any{"count": report.Cleaned})
	}
	return report, nil
}

func (c *cleanupUseCase) updateDefinitions(ctx context.Context) (*cleanupDomain.Report, error) {
	output, err := c.scanner.UpdateDefinitions(ctx)
	if err != nil {
		return nil, err
	}

	c.logEvent(ctx, auditDomain.EventDefinitionsUpdated, map[string]any{"output": output})
	return &cleanupDomain.Report{Details: map[string]any{"output": output}}, nil
}

// watchQuota checks storage usage against the quota. Above the high watermark
// an incident is recorded; above the emergency watermark the emergency
// cascade runs.
func (c *cleanupUseCase) watchQuota(ctx context.Context) (*cleanupDomain.Report, error) {
	if c.policy.QuotaBytes <= 0 {
		return &cleanupDomain.Report{Details: map[string]any{"quota_bytes": int64(0)}}, nil
	}

	usage, err := c.files.TotalSize(ctx)
	if err != nil {
		return nil, err
	}
	ratio := float64(usage) / float64(c.policy.QuotaBytes)

	report := &cleanupDomain.Report{Details: map[string]any{
		"usage_bytes": usage,
		"quota_bytes": c.policy.QuotaBytes,
		"usage_ratio": ratio,
	}}
	if ratio <= quotaHighWatermark {
		return report, nil
	}

	if err := c.audit.LogSecurityIncident(ctx, auditDomain.EventStorageQuotaHigh, map[string]any{
		"usage_bytes": usage,
		"quota_bytes": c.policy.QuotaBytes,
		"usage_ratio": ratio,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to record storage quota incident", "error", err)
	}

	if ratio > quotaEmergencyWatermark {
		slog.WarnContext(ctx, "storage quota critical, running emergency cleanup", "usage_ratio", ratio)
		reports, err := c.runEmergency(ctx)
		if err != nil {
			return nil, err
		}
		for _, r := range reports {
			report.Cleaned += r.Cleaned
			report.Failed += r.Failed
		}
	}

	return report, nil
}

func (c *cleanupUseCase) logEvent(ctx context.Context, eventType auditDomain.EventType, payload map[string]any) {
	if err := c.audit.LogEvent(ctx, eventType, payload); err != nil {
		slog.ErrorContext(ctx, "failed to record cleanup event",
			"event_type", string(eventType),
			"error", err,
		)
	}
}

// NewCleanupUseCase creates a new cleanup scheduler instance. Setup must be
// called before Start or RunManual.
func NewCleanupUseCase(
	files FilePipeline,
	audit AuditManager,
	quarantine QuarantinePurger,
	scanner DefinitionsUpdater,
	deleter *storage.SecureDeleter,
	policy cleanupDomain.Policy,
) UseCase {
	return &cleanupUseCase{
		files:      files,
		audit:      audit,
		quarantine: quarantine,
		scanner:    scanner,
		deleter:    deleter,
		policy:     policy,
		cron:       cron.New(),
	}
}
