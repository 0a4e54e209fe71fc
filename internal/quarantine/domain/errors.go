package domain

import (
	"github.com/allisson/fileguard/internal/errors"
)

var (
	// ErrRecordNotFound indicates the quarantine record does not exist.
	ErrRecordNotFound = errors.Wrap(errors.ErrNotFound, "quarantine record not found")
)
