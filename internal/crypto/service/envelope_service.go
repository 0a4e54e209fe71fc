package service

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"time"

	"golang.org/x/crypto/pbkdf2"

	cryptoDomain "github.com/allisson/fileguard/internal/crypto/domain"
)

// EnvelopeService implements the EnvelopeEngine interface.
//
// It orchestrates key/IV/salt generation, authenticated encryption and the
// versioned envelope format. Per-file data keys are either derived from a
// password (PBKDF2-SHA256) or generated at random and wrapped by the
// master-key keeper, so the plaintext key never travels with the ciphertext.
type EnvelopeService struct {
	aeadManager AEADManager
	keeper      cryptoDomain.KMSKeeper
	algorithm   cryptoDomain.Algorithm
	iterations  int
}

// NewEnvelopeService creates a new EnvelopeService.
//
// The keeper may be nil when no KMS is configured; EncryptFile and
// OpenEnvelope then require a password for every call. A non-positive
// iterations value falls back to the default (100000).
func NewEnvelopeService(
	aeadManager AEADManager,
	keeper cryptoDomain.KMSKeeper,
	iterations int,
) *EnvelopeService {
	if iterations <= 0 {
		iterations = cryptoDomain.DefaultIterations
	}
	return &EnvelopeService{
		aeadManager: aeadManager,
		keeper:      keeper,
		algorithm:   cryptoDomain.AESGCM,
		iterations:  iterations,
	}
}

// GenerateKey returns 32 cryptographically secure random bytes.
func (s *EnvelopeService) GenerateKey() []byte {
	return randomBytes(cryptoDomain.KeySize)
}

// GenerateIV returns 12 cryptographically secure random bytes.
func (s *EnvelopeService) GenerateIV() []byte {
	return randomBytes(cryptoDomain.IVSize)
}

// GenerateSalt returns 16 cryptographically secure random bytes.
func (s *EnvelopeService) GenerateSalt() []byte {
	return randomBytes(cryptoDomain.SaltSize)
}

// DeriveKey derives a 32-byte key from a password and salt using
// PBKDF2-SHA256. Deterministic for identical inputs; different salts yield
// different keys. Rejects a wrong salt length or a non-positive iteration
// count before any derivation work.
func (s *EnvelopeService) DeriveKey(password string, salt []byte, iterations int) ([]byte, error) {
	if len(salt) != cryptoDomain.SaltSize {
		return nil, cryptoDomain.ErrInvalidSaltSize
	}
	if iterations <= 0 {
		return nil, cryptoDomain.ErrInvalidIterations
	}
	return pbkdf2.Key([]byte(password), salt, iterations, cryptoDomain.KeySize, sha256.New), nil
}

// Encrypt performs authenticated encryption with explicit key and IV,
// returning ciphertext and the detached 16-byte tag. Key and IV lengths are
// validated before the plaintext is touched.
func (s *EnvelopeService) Encrypt(plaintext, key, iv []byte) (ciphertext, tag []byte, err error) {
	aead, err := s.aeadManager.CreateCipher(key, s.algorithm)
	if err != nil {
		return nil, nil, err
	}
	return aead.Seal(plaintext, iv, nil)
}

// Decrypt verifies the authentication tag and returns the plaintext.
// Malformed parameter lengths are rejected first; a tag mismatch yields
// ErrDecryptionFailed and never partially-decrypted data.
func (s *EnvelopeService) Decrypt(ciphertext, key, iv, tag []byte) ([]byte, error) {
	aead, err := s.aeadManager.CreateCipher(key, s.algorithm)
	if err != nil {
		return nil, err
	}
	return aead.Open(ciphertext, iv, tag, nil)
}

// EncryptFile encrypts data into a serializable envelope.
//
// With a password, a fresh salt is generated and the key derived from it; the
// envelope carries salt and iteration count so the key can be re-derived.
// Without a password, a random data key is generated and wrapped by the
// master-key keeper; only the wrapped key travels in the envelope. The
// plaintext key is wiped before returning.
func (s *EnvelopeService) EncryptFile(
	ctx context.Context,
	data []byte,
	password string,
) (*cryptoDomain.Envelope, error) {
	env := &cryptoDomain.Envelope{
		Version:   cryptoDomain.EnvelopeVersion,
		Algorithm: s.algorithm,
		IV:        s.GenerateIV(),
		Metadata: cryptoDomain.EnvelopeMetadata{
			KeyLength: cryptoDomain.KeySize,
			IVLength:  cryptoDomain.IVSize,
			TagLength: cryptoDomain.TagSize,
			Timestamp: time.Now().UTC(),
		},
	}

	var key []byte
	if password != "" {
		env.Salt = s.GenerateSalt()
		env.Metadata.SaltLength = cryptoDomain.SaltSize
		env.Metadata.Iterations = s.iterations

		derived, err := s.DeriveKey(password, env.Salt, s.iterations)
		if err != nil {
			return nil, err
		}
		key = derived
	} else {
		if s.keeper == nil {
			return nil, cryptoDomain.ErrKeeperNotConfigured
		}
		key = s.GenerateKey()

		wrapped, err := s.keeper.Encrypt(ctx, key)
		if err != nil {
			cryptoDomain.Zero(key)
			return nil, fmt.Errorf("failed to wrap data key: %w", err)
		}
		env.WrappedKey = wrapped
	}
	defer cryptoDomain.Zero(key)

	ciphertext, tag, err := s.Encrypt(data, key, env.IV)
	if err != nil {
		return nil, err
	}

	env.Ciphertext = ciphertext
	env.AuthTag = tag
	return env, nil
}

// OpenEnvelope recovers the plaintext from an envelope.
//
// The envelope is validated before any cryptographic operation. For
// password-derived envelopes the key is re-derived from the carried salt and
// iteration count; otherwise the wrapped data key is unwrapped through the
// master-key keeper. The recovered key is wiped before returning.
func (s *EnvelopeService) OpenEnvelope(
	ctx context.Context,
	env *cryptoDomain.Envelope,
	password string,
) ([]byte, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}

	var key []byte
	if env.PasswordDerived() {
		derived, err := s.DeriveKey(password, env.Salt, env.Metadata.Iterations)
		if err != nil {
			return nil, err
		}
		key = derived
	} else {
		if s.keeper == nil {
			return nil, cryptoDomain.ErrKeeperNotConfigured
		}
		unwrapped, err := s.keeper.Decrypt(ctx, env.WrappedKey)
		if err != nil {
			return nil, cryptoDomain.ErrDecryptionFailed
		}
		key = unwrapped
	}
	defer cryptoDomain.Zero(key)

	aead, err := s.aeadManager.CreateCipher(key, env.Algorithm)
	if err != nil {
		return nil, err
	}
	return aead.Open(env.Ciphertext, env.IV, env.AuthTag, nil)
}

// GenerateHMAC computes a detached HMAC-SHA256 tag over data, for contexts
// needing authentication without full AEAD.
func (s *EnvelopeService) GenerateHMAC(data, key []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

// VerifyHMAC checks a detached HMAC-SHA256 tag in constant time.
// Returns ErrDecryptionFailed on mismatch.
func (s *EnvelopeService) VerifyHMAC(data, key, tag []byte) error {
	expected := s.GenerateHMAC(data, key)
	if !hmac.Equal(expected, tag) {
		return cryptoDomain.ErrDecryptionFailed
	}
	return nil
}

// randomBytes returns n bytes from the CSPRNG. crypto/rand.Read is documented
// to always succeed; a failure means the platform's randomness source is
// broken and no cryptographic operation can proceed safely.
func randomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("csprng failure: %v", err))
	}
	return b
}
