package domain

import "context"

// KMSKeeper wraps and unwraps data keys using a master key held by an external
// key-management service. The master key never leaves the KMS; only wrapped
// keys travel with the envelopes they protect.
//
// *gocloud.dev/secrets.Keeper implements this interface.
type KMSKeeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}
