// Package domain defines the quarantine record entity.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Record represents one isolated artifact. Created on an infected verdict,
// marked resolved by operator or automated review, and destroyed (secure
// overwrite plus record removal) once resolved and past the retention window.
// Unresolved records are never purged automatically, regardless of age.
type Record struct {
	ID             uuid.UUID
	FileID         uuid.UUID
	QuarantinePath string
	Reason         string
	IsResolved     bool
	ResolvedAt     *time.Time
	CreatedAt      time.Time
}
