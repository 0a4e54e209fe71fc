package domain

import (
	"github.com/allisson/fileguard/internal/errors"
)

// Cryptographic operation error definitions.
//
// Parameter-length errors wrap ErrInvalidInput and are raised before any
// cryptographic primitive runs. Decryption failures collapse into a single
// ErrDecryptionFailed wrapping ErrAuthenticationFailed: callers must not be
// able to distinguish a wrong key from corrupted ciphertext, while the audit
// trail records full detail internally.
var (
	// ErrUnsupportedAlgorithm indicates the requested encryption algorithm is not supported.
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates the key is not exactly 32 bytes.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrInvalidIVSize indicates the initialization vector is not exactly 12 bytes.
	ErrInvalidIVSize = errors.Wrap(errors.ErrInvalidInput, "invalid iv size")

	// ErrInvalidTagSize indicates the authentication tag is not exactly 16 bytes.
	ErrInvalidTagSize = errors.Wrap(errors.ErrInvalidInput, "invalid auth tag size")

	// ErrInvalidSaltSize indicates the salt is not exactly 16 bytes.
	ErrInvalidSaltSize = errors.Wrap(errors.ErrInvalidInput, "invalid salt size")

	// ErrInvalidIterations indicates a non-positive key derivation iteration count.
	ErrInvalidIterations = errors.Wrap(errors.ErrInvalidInput, "invalid iteration count")

	// ErrDecryptionFailed indicates an authenticated decryption failed.
	// The tag did not verify: wrong key, tampered ciphertext or corrupted data.
	// No plaintext is ever returned alongside this error.
	ErrDecryptionFailed = errors.Wrap(errors.ErrAuthenticationFailed, "decryption failed")

	// ErrMalformedEnvelope indicates a serialized envelope could not be parsed
	// or carries parameters violating the format invariants.
	ErrMalformedEnvelope = errors.Wrap(errors.ErrInvalidInput, "malformed envelope")

	// ErrKeeperNotConfigured indicates no KMS keeper is available to wrap or
	// unwrap data keys (KMS_KEY_URI not set).
	ErrKeeperNotConfigured = errors.Wrap(errors.ErrUnavailable, "kms keeper not configured")
)
