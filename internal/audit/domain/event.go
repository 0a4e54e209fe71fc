package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType is an enumerated audit event symbol.
type EventType string

// Audit event types emitted by the security pipeline.
const (
	EventFileQuarantined           EventType = "FILE_QUARANTINED"
	EventAntivirusScanError        EventType = "ANTIVIRUS_SCAN_ERROR"
	EventMalwareDetected           EventType = "MALWARE_DETECTED"
	EventExpiredFileCleaned        EventType = "EXPIRED_FILE_CLEANED"
	EventExpiredShareDeactivated   EventType = "EXPIRED_SHARE_DEACTIVATED"
	EventAuditLogsCleaned          EventType = "AUDIT_LOGS_CLEANED"
	EventQuarantinePurged          EventType = "QUARANTINE_PURGED"
	EventTempFilesCleaned          EventType = "TEMP_FILES_CLEANED"
	EventDefinitionsUpdated        EventType = "DEFINITIONS_UPDATED"
	EventStorageQuotaHigh          EventType = "STORAGE_QUOTA_HIGH"
	EventEmergencyCleanupPerformed EventType = "EMERGENCY_CLEANUP_PERFORMED"
	EventCleanupTaskCompleted      EventType = "CLEANUP_TASK_COMPLETED"
)

// Event records one audit entry: a routine pipeline event or a security
// incident. Security incidents are retained under a longer window than general
// events and purged only once marked resolved.
type Event struct {
	ID                 uuid.UUID
	Type               EventType
	Payload            map[string]any
	IsSecurityIncident bool
	IsResolved         bool
	ResolvedAt         *time.Time
	Signature          []byte
	CreatedAt          time.Time
}
