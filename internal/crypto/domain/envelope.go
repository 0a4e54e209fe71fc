package domain

import (
	"encoding/json"
	"time"
)

// EnvelopeMetadata carries the parameter lengths and derivation settings of a
// serialized envelope. Lengths are redundant with the byte fields but allow a
// reader to reject a malformed envelope without touching the ciphertext.
type EnvelopeMetadata struct {
	KeyLength  int       `json:"keyLength"`
	IVLength   int       `json:"ivLength"`
	TagLength  int       `json:"tagLength"`
	SaltLength int       `json:"saltLength"`
	Iterations int       `json:"iterations,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Envelope is the serialized bundle of ciphertext plus the cryptographic
// parameters needed to decrypt it.
//
// Exactly one key transport is present:
//   - Salt + Metadata.Iterations: the key is re-derived from a password.
//   - WrappedKey: a random data key wrapped by the master-key keeper. The
//     plaintext data key never travels with the ciphertext; unwrapping
//     requires access to the KMS-held master key.
//
// Envelopes are created once at ingestion time and read-only thereafter,
// except for secure destruction when the owning file is purged.
type Envelope struct {
	Version    string           `json:"version"`
	Algorithm  Algorithm        `json:"algorithm"`
	Ciphertext []byte           `json:"ciphertext"`
	IV         []byte           `json:"iv"`
	AuthTag    []byte           `json:"authTag"`
	Salt       []byte           `json:"salt,omitempty"`
	WrappedKey []byte           `json:"wrappedKey,omitempty"`
	Metadata   EnvelopeMetadata `json:"metadata"`
}

// PasswordDerived reports whether the envelope's key must be re-derived from a
// password (salt and iteration count present).
func (e *Envelope) PasswordDerived() bool {
	return len(e.Salt) > 0 && e.Metadata.Iterations > 0
}

// Validate rejects envelopes violating the format invariants before any
// cryptographic operation runs.
func (e *Envelope) Validate() error {
	if e.Version != EnvelopeVersion {
		return ErrMalformedEnvelope
	}
	if e.Algorithm != AESGCM && e.Algorithm != ChaCha20 {
		return ErrUnsupportedAlgorithm
	}
	if len(e.IV) != IVSize {
		return ErrInvalidIVSize
	}
	if len(e.AuthTag) != TagSize {
		return ErrInvalidTagSize
	}
	if len(e.Salt) != 0 && len(e.Salt) != SaltSize {
		return ErrInvalidSaltSize
	}
	if e.PasswordDerived() == (len(e.WrappedKey) > 0) {
		// Exactly one key transport must be present.
		return ErrMalformedEnvelope
	}
	return nil
}

// Marshal serializes the envelope to its versioned JSON representation.
// Byte fields are base64-encoded by encoding/json.
func (e *Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalEnvelope parses a serialized envelope and validates its invariants.
func UnmarshalEnvelope(data []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, ErrMalformedEnvelope
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}
