// Package domain defines the cleanup scheduler task model.
package domain

import (
	"context"
	"time"
)

// Task names accepted by the scheduler, including the two pseudo-targets
// recognized by manual dispatch only.
const (
	TaskExpiredShares     = "expired_shares"
	TaskExpiredFiles      = "expired_files"
	TaskAuditRetention    = "audit_retention"
	TaskQuarantinePurge   = "quarantine_purge"
	TaskTempSweep         = "temp_sweep"
	TaskDefinitionsUpdate = "definitions_update"
	TaskQuotaWatchdog     = "quota_watchdog"

	// TaskAll dispatches every registered task in registration order.
	TaskAll = "all"
	// TaskEmergency dispatches the emergency cascade.
	TaskEmergency = "emergency"
)

// Handler executes one cleanup cycle and reports what it did.
type Handler func(ctx context.Context) (*Report, error)

// Task is one registered cleanup job. LastRunAt and IsRunning are maintained
// by the scheduler under its own lock.
type Task struct {
	Name      string
	Interval  time.Duration
	Handler   Handler
	LastRunAt *time.Time
	IsRunning bool
}

// ItemError records one failed item inside a cleanup cycle.
type ItemError struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// Report aggregates one cleanup cycle. Item failures are isolated and
// counted, never aborting the cycle.
type Report struct {
	Task    string         `json:"task"`
	Cleaned int64          `json:"cleaned"`
	Failed  int64          `json:"failed"`
	Errors  []ItemError    `json:"errors,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// Policy holds the retention windows and limits the scheduler applies.
type Policy struct {
	// AuditRetentionDays is the window for general audit events.
	AuditRetentionDays int
	// SecurityAuditRetentionDays is the window for resolved security incidents.
	SecurityAuditRetentionDays int
	// QuarantineRetentionDays is the window for resolved quarantine records.
	QuarantineRetentionDays int
	// TempMaxAge is how old a temp file must be before the sweep removes it.
	TempMaxAge time.Duration
	// TempPaths are the directories swept for stale temp files.
	TempPaths []string
	// QuotaBytes is the storage quota watched by the quota task (0 = unlimited).
	QuotaBytes int64
}
