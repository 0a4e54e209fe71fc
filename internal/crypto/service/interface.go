// Package service provides the cryptographic envelope engine.
// Implements AEAD ciphers (AES-256-GCM, ChaCha20-Poly1305) with detached
// authentication tags, password-based key derivation and KMS-wrapped data keys.
package service

import (
	"context"

	cryptoDomain "github.com/allisson/fileguard/internal/crypto/domain"
)

// AEAD defines authenticated encryption with a caller-supplied IV and a
// detached authentication tag. Implementations validate the IV length before
// touching the plaintext and verify the tag before returning any plaintext.
type AEAD interface {
	// Seal encrypts plaintext with the given IV and optional AAD, returning
	// the ciphertext and the detached 16-byte authentication tag.
	Seal(plaintext, iv, aad []byte) (ciphertext, tag []byte, err error)

	// Open verifies the tag and decrypts the ciphertext. On tag mismatch it
	// returns ErrDecryptionFailed and never partially-decrypted data.
	Open(ciphertext, iv, tag, aad []byte) ([]byte, error)
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	// The key must be exactly 32 bytes.
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}

// EnvelopeEngine defines the contract of the crypto envelope engine.
type EnvelopeEngine interface {
	// GenerateKey returns 32 cryptographically secure random bytes.
	GenerateKey() []byte

	// GenerateIV returns 12 cryptographically secure random bytes.
	GenerateIV() []byte

	// GenerateSalt returns 16 cryptographically secure random bytes.
	GenerateSalt() []byte

	// DeriveKey derives a 32-byte key from a password and salt via
	// PBKDF2-SHA256. Deterministic for identical inputs.
	DeriveKey(password string, salt []byte, iterations int) ([]byte, error)

	// Encrypt performs authenticated encryption with explicit parameters,
	// returning ciphertext and the detached tag.
	Encrypt(plaintext, key, iv []byte) (ciphertext, tag []byte, err error)

	// Decrypt verifies the tag and returns the plaintext.
	Decrypt(ciphertext, key, iv, tag []byte) ([]byte, error)

	// EncryptFile encrypts data into a serializable envelope. With a password
	// the key is derived from a fresh salt; without one a random data key is
	// generated and wrapped by the master-key keeper.
	EncryptFile(ctx context.Context, data []byte, password string) (*cryptoDomain.Envelope, error)

	// OpenEnvelope recovers the plaintext from an envelope, re-deriving the
	// key from the password or unwrapping the carried data key.
	OpenEnvelope(ctx context.Context, env *cryptoDomain.Envelope, password string) ([]byte, error)

	// GenerateHMAC computes a detached HMAC-SHA256 tag over data.
	GenerateHMAC(data, key []byte) []byte

	// VerifyHMAC checks a detached HMAC-SHA256 tag in constant time.
	VerifyHMAC(data, key, tag []byte) error
}

// KMSService opens KMS keepers for master-key operations.
type KMSService interface {
	// OpenKeeper opens a keeper for the configured KMS provider.
	// Returns an error if the key URI is invalid or the connection fails.
	OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error)
}
