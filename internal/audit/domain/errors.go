package domain

import (
	"github.com/allisson/fileguard/internal/errors"
)

var (
	// ErrSignatureInvalid indicates an audit event signature did not verify:
	// the stored record was tampered with or signed under a different key.
	ErrSignatureInvalid = errors.Wrap(errors.ErrAuthenticationFailed, "audit signature invalid")

	// ErrEventNotFound indicates the requested audit event does not exist.
	ErrEventNotFound = errors.Wrap(errors.ErrNotFound, "audit event not found")
)
