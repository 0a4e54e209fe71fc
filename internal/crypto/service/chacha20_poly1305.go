package service

import (
	"crypto/cipher"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	cryptoDomain "github.com/allisson/fileguard/internal/crypto/domain"
)

// ChaCha20Poly1305Cipher implements the AEAD interface using ChaCha20-Poly1305.
//
// ChaCha20-Poly1305 combines the ChaCha20 stream cipher with the Poly1305 MAC
// for authentication. It's particularly efficient on platforms without
// hardware AES acceleration. Same caller-supplied IV and detached-tag contract
// as AESGCMCipher.
type ChaCha20Poly1305Cipher struct {
	aead cipher.AEAD
}

// NewChaCha20Poly1305 creates a new ChaCha20-Poly1305 cipher instance.
// The key must be exactly 32 bytes (256 bits).
func NewChaCha20Poly1305(key []byte) (*ChaCha20Poly1305Cipher, error) {
	if len(key) != cryptoDomain.KeySize {
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create ChaCha20-Poly1305 cipher: %w", err)
	}

	return &ChaCha20Poly1305Cipher{aead: aead}, nil
}

// Seal encrypts plaintext with the caller-supplied 12-byte IV and optional AAD,
// returning ciphertext and the detached Poly1305 tag.
func (c *ChaCha20Poly1305Cipher) Seal(plaintext, iv, aad []byte) (ciphertext, tag []byte, err error) {
	if len(iv) != cryptoDomain.IVSize {
		return nil, nil, cryptoDomain.ErrInvalidIVSize
	}

	sealed := c.aead.Seal(nil, iv, plaintext, aad)
	boundary := len(sealed) - cryptoDomain.TagSize
	return sealed[:boundary], sealed[boundary:], nil
}

// Open verifies the Poly1305 tag and decrypts the ciphertext. Returns
// ErrDecryptionFailed on any verification failure.
func (c *ChaCha20Poly1305Cipher) Open(ciphertext, iv, tag, aad []byte) ([]byte, error) {
	if len(iv) != cryptoDomain.IVSize {
		return nil, cryptoDomain.ErrInvalidIVSize
	}
	if len(tag) != cryptoDomain.TagSize {
		return nil, cryptoDomain.ErrInvalidTagSize
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := c.aead.Open(nil, iv, sealed, aad)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	return plaintext, nil
}
