package service

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	cryptoDomain "github.com/allisson/fileguard/internal/crypto/domain"
)

// AESGCMCipher implements the AEAD interface using AES-256-GCM
// (Advanced Encryption Standard with Galois/Counter Mode).
//
// Unlike the usual Seal/Open convenience wrappers, this implementation takes a
// caller-supplied IV and returns the authentication tag detached from the
// ciphertext, because the envelope format persists IV, ciphertext and tag as
// separate fields.
//
// Security properties:
//   - 256-bit key size
//   - 12-byte IV, supplied by the caller and never reused with the same key
//   - 16-byte authentication tag, verified before any plaintext is returned
//
// Thread safety: the cipher instance is stateless and safe for concurrent use
// from multiple goroutines.
type AESGCMCipher struct {
	aead cipher.AEAD
}

// NewAESGCM creates a new AES-256-GCM cipher instance.
//
// The key must be exactly 32 bytes (256 bits) for AES-256. Keys should be
// generated using crypto/rand for cryptographic security.
func NewAESGCM(key []byte) (*AESGCMCipher, error) {
	if len(key) != cryptoDomain.KeySize {
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &AESGCMCipher{aead: aead}, nil
}

// Seal encrypts plaintext using AES-256-GCM with the caller-supplied IV and
// optional additional authenticated data.
//
// The IV must be exactly 12 bytes and must never be reused with the same key.
// The returned tag is the final 16 bytes produced by GCM, detached from the
// ciphertext so the envelope can persist them separately.
func (a *AESGCMCipher) Seal(plaintext, iv, aad []byte) (ciphertext, tag []byte, err error) {
	if len(iv) != cryptoDomain.IVSize {
		return nil, nil, cryptoDomain.ErrInvalidIVSize
	}

	sealed := a.aead.Seal(nil, iv, plaintext, aad)
	boundary := len(sealed) - cryptoDomain.TagSize
	return sealed[:boundary], sealed[boundary:], nil
}

// Open verifies the authentication tag and decrypts the ciphertext.
//
// The same IV and AAD used during encryption must be provided. The tag is
// verified before any plaintext is returned; on mismatch the method returns
// ErrDecryptionFailed without disclosing whether the key was wrong or the
// ciphertext was tampered with.
func (a *AESGCMCipher) Open(ciphertext, iv, tag, aad []byte) ([]byte, error) {
	if len(iv) != cryptoDomain.IVSize {
		return nil, cryptoDomain.ErrInvalidIVSize
	}
	if len(tag) != cryptoDomain.TagSize {
		return nil, cryptoDomain.ErrInvalidTagSize
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := a.aead.Open(nil, iv, sealed, aad)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	return plaintext, nil
}
