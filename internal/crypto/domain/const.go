package domain

// Algorithm represents the cryptographic algorithm used for encryption.
//
// All supported algorithms provide Authenticated Encryption with Associated Data
// (AEAD), ensuring both confidentiality and authenticity of encrypted payloads.
type Algorithm string

const (
	// AESGCM represents the AES-256-GCM authenticated encryption algorithm.
	// Uses a 256-bit key, 12-byte nonce and 16-byte authentication tag.
	// Excellent performance on CPUs with AES-NI hardware acceleration.
	AESGCM Algorithm = "aes-256-gcm"

	// ChaCha20 represents the ChaCha20-Poly1305 authenticated encryption algorithm.
	// Same key/nonce/tag sizes as AESGCM with a constant-time software
	// implementation for platforms without AES acceleration.
	ChaCha20 Algorithm = "chacha20-poly1305"
)

// Fixed parameter lengths shared by all supported algorithms. Every byte-length
// mismatch is rejected before any cryptographic primitive runs.
const (
	// KeySize is the required key length in bytes (256 bits).
	KeySize = 32

	// IVSize is the required initialization vector length in bytes (96 bits).
	IVSize = 12

	// TagSize is the required authentication tag length in bytes (128 bits).
	TagSize = 16

	// SaltSize is the required salt length in bytes for password-based derivation.
	SaltSize = 16

	// DefaultIterations is the default PBKDF2 iteration count.
	DefaultIterations = 100000
)

// EnvelopeVersion is the current serialized envelope format version.
const EnvelopeVersion = "1.0"
