package commands

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// RunCreateMasterKey generates fresh random key material for the environment:
// a 32-byte master key as a base64key:// URI and a 32-byte audit signing key.
func RunCreateMasterKey(out io.Writer) error {
	masterKey := make([]byte, 32)
	if _, err := rand.Read(masterKey); err != nil {
		return fmt.Errorf("failed to generate master key: %w", err)
	}

	signingKey := make([]byte, 32)
	if _, err := rand.Read(signingKey); err != nil {
		return fmt.Errorf("failed to generate signing key: %w", err)
	}

	fmt.Fprintf(out, "KMS_KEY_URI=\"base64key://%s\"\n", base64.URLEncoding.EncodeToString(masterKey))
	fmt.Fprintf(out, "AUDIT_SIGNING_KEY=\"%s\"\n", base64.StdEncoding.EncodeToString(signingKey))
	return nil
}
