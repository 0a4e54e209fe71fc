package domain

import (
	"github.com/allisson/fileguard/internal/errors"
)

var (
	// ErrFileNotFound indicates the requested file record does not exist.
	ErrFileNotFound = errors.Wrap(errors.ErrNotFound, "file not found")

	// ErrFileInfected indicates the content failed the malware scan and was
	// quarantined instead of stored.
	ErrFileInfected = errors.Wrap(errors.ErrInvalidInput, "file content is infected")
)
