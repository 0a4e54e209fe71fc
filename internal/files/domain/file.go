// Package domain defines the stored entities swept by the cleanup scheduler.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// File is the metadata record of one encrypted payload in object storage.
// The payload itself is an envelope blob at Locator; an optional thumbnail
// lives at ThumbnailLocator. A nil ExpiresAt means the file never expires.
type File struct {
	ID               uuid.UUID
	Name             string
	Locator          string
	ThumbnailLocator string
	Size             int64
	ExpiresAt        *time.Time
	CreatedAt        time.Time
}

// Expired reports whether the file is past its expiry at the given instant.
// The boundary is strict: a file expiring exactly now is not yet expired.
func (f *File) Expired(now time.Time) bool {
	return f.ExpiresAt != nil && f.ExpiresAt.Before(now)
}

// Share grants time-bounded access to a file. Expired shares are soft
// deactivated by the scheduler, never hard deleted.
type Share struct {
	ID        uuid.UUID
	FileID    uuid.UUID
	ExpiresAt time.Time
	IsActive  bool
	CreatedAt time.Time
}
