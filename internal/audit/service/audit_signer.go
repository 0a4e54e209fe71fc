package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	auditDomain "github.com/allisson/fileguard/internal/audit/domain"
	cryptoDomain "github.com/allisson/fileguard/internal/crypto/domain"
)

// AuditSigner signs and verifies audit events so that stored records can be
// checked for tampering after the fact.
type AuditSigner interface {
	Sign(key []byte, event *auditDomain.Event) ([]byte, error)
	Verify(key []byte, event *auditDomain.Event) error
}

type auditSigner struct{}

// NewAuditSigner creates a new HMAC-based audit event signer using HKDF-SHA256
// for key derivation and HMAC-SHA256 for signature generation.
func NewAuditSigner() AuditSigner {
	return &auditSigner{}
}

// deriveSigningKey uses HKDF-SHA256 to derive a 32-byte signing key from the
// root key, separating signing key usage from any encryption usage of the
// same material. Info parameter is versioned for future algorithm changes.
func (a *auditSigner) deriveSigningKey(rootKey []byte) ([]byte, error) {
	info := []byte("audit-event-signing-v1")
	kdf := hkdf.New(sha256.New, rootKey, nil, info)

	signingKey := make([]byte, 32)
	if _, err := io.ReadFull(kdf, signingKey); err != nil {
		return nil, err
	}

	return signingKey, nil
}

// canonicalize converts an audit event to its canonical byte representation.
// Format: id || type || payload || incident-flag || created_at, with
// length-prefixed encoding for variable-length fields to prevent ambiguity.
func (a *auditSigner) canonicalize(event *auditDomain.Event) ([]byte, error) {
	buf := make([]byte, 0, 512)

	buf = append(buf, event.ID[:]...)
	buf = appendLengthPrefixed(buf, []byte(string(event.Type)))

	if event.Payload != nil {
		payloadBytes, err := json.Marshal(event.Payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		buf = appendLengthPrefixed(buf, payloadBytes)
	} else {
		buf = appendLengthPrefixed(buf, nil)
	}

	if event.IsSecurityIncident {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}

	timeBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(timeBytes, uint64(event.CreatedAt.UnixNano()))
	buf = append(buf, timeBytes...)

	return buf, nil
}

// appendLengthPrefixed adds a 4-byte big-endian length prefix followed by data.
func appendLengthPrefixed(buf []byte, data []byte) []byte {
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))
	buf = append(buf, length...)
	buf = append(buf, data...)
	return buf
}

// Sign generates an HMAC-SHA256 signature for the audit event.
func (a *auditSigner) Sign(key []byte, event *auditDomain.Event) ([]byte, error) {
	signingKey, err := a.deriveSigningKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to derive signing key: %w", err)
	}
	defer cryptoDomain.Zero(signingKey)

	canonical, err := a.canonicalize(event)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize event: %w", err)
	}

	mac := hmac.New(sha256.New, signingKey)
	mac.Write(canonical)
	return mac.Sum(nil), nil
}

// Verify checks the audit event signature.
// Returns nil if valid, ErrSignatureInvalid if tampered or invalid.
func (a *auditSigner) Verify(key []byte, event *auditDomain.Event) error {
	expectedSig, err := a.Sign(key, event)
	if err != nil {
		return fmt.Errorf("failed to compute expected signature: %w", err)
	}

	if !hmac.Equal(event.Signature, expectedSig) {
		return auditDomain.ErrSignatureInvalid
	}

	return nil
}
