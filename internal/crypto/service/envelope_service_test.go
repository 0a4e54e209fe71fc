package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/fileguard/internal/crypto/domain"
	apperrors "github.com/allisson/fileguard/internal/errors"
)

// fakeKeeper reversibly "wraps" keys by prefixing a marker, standing in for a
// real KMS keeper in tests.
type fakeKeeper struct {
	failDecrypt bool
}

func (f *fakeKeeper) Encrypt(_ context.Context, plaintext []byte) ([]byte, error) {
	return append([]byte("wrapped:"), plaintext...), nil
}

func (f *fakeKeeper) Decrypt(_ context.Context, ciphertext []byte) ([]byte, error) {
	if f.failDecrypt {
		return nil, errors.New("kms unavailable")
	}
	return ciphertext[len("wrapped:"):], nil
}

func (f *fakeKeeper) Close() error { return nil }

func newTestService() *EnvelopeService {
	return NewEnvelopeService(NewAEADManager(), &fakeKeeper{}, 1000)
}

func TestEnvelopeService_Generate(t *testing.T) {
	svc := newTestService()

	assert.Len(t, svc.GenerateKey(), 32)
	assert.Len(t, svc.GenerateIV(), 12)
	assert.Len(t, svc.GenerateSalt(), 16)

	// Two keys from the CSPRNG must differ
	assert.NotEqual(t, svc.GenerateKey(), svc.GenerateKey())
}

func TestEnvelopeService_DeriveKey(t *testing.T) {
	svc := newTestService()
	salt := svc.GenerateSalt()

	t.Run("deterministic for identical inputs", func(t *testing.T) {
		k1, err := svc.DeriveKey("password", salt, 1000)
		require.NoError(t, err)
		k2, err := svc.DeriveKey("password", salt, 1000)
		require.NoError(t, err)
		assert.Equal(t, k1, k2)
		assert.Len(t, k1, 32)
	})

	t.Run("different salts yield different keys", func(t *testing.T) {
		k1, err := svc.DeriveKey("password", salt, 1000)
		require.NoError(t, err)
		k2, err := svc.DeriveKey("password", svc.GenerateSalt(), 1000)
		require.NoError(t, err)
		assert.NotEqual(t, k1, k2)
	})

	t.Run("rejects wrong salt length", func(t *testing.T) {
		_, err := svc.DeriveKey("password", make([]byte, 8), 1000)
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidSaltSize)
	})

	t.Run("rejects non-positive iterations", func(t *testing.T) {
		_, err := svc.DeriveKey("password", salt, 0)
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidIterations)

		_, err = svc.DeriveKey("password", salt, -1)
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidIterations)
	})
}

func TestEnvelopeService_EncryptDecrypt(t *testing.T) {
	svc := newTestService()
	key := svc.GenerateKey()
	iv := svc.GenerateIV()
	plaintext := []byte("the quick brown fox")

	t.Run("round trip", func(t *testing.T) {
		ciphertext, tag, err := svc.Encrypt(plaintext, key, iv)
		require.NoError(t, err)
		assert.Len(t, tag, 16)

		decrypted, err := svc.Decrypt(ciphertext, key, iv, tag)
		require.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)
	})

	t.Run("flipping any ciphertext bit fails authentication", func(t *testing.T) {
		ciphertext, tag, err := svc.Encrypt(plaintext, key, iv)
		require.NoError(t, err)

		for i := range ciphertext {
			tampered := make([]byte, len(ciphertext))
			copy(tampered, ciphertext)
			tampered[i] ^= 0x01

			decrypted, err := svc.Decrypt(tampered, key, iv, tag)
			assert.ErrorIs(t, err, apperrors.ErrAuthenticationFailed)
			assert.Nil(t, decrypted)
		}
	})

	t.Run("flipping any tag bit fails authentication", func(t *testing.T) {
		ciphertext, tag, err := svc.Encrypt(plaintext, key, iv)
		require.NoError(t, err)

		for i := range tag {
			tampered := make([]byte, len(tag))
			copy(tampered, tag)
			tampered[i] ^= 0x01

			decrypted, err := svc.Decrypt(ciphertext, key, iv, tampered)
			assert.ErrorIs(t, err, apperrors.ErrAuthenticationFailed)
			assert.Nil(t, decrypted)
		}
	})

	t.Run("wrong key fails authentication", func(t *testing.T) {
		ciphertext, tag, err := svc.Encrypt(plaintext, key, iv)
		require.NoError(t, err)

		_, err = svc.Decrypt(ciphertext, svc.GenerateKey(), iv, tag)
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
	})

	t.Run("length validation runs before any primitive", func(t *testing.T) {
		_, _, err := svc.Encrypt(plaintext, make([]byte, 16), iv)
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidKeySize)

		_, _, err = svc.Encrypt(plaintext, key, make([]byte, 8))
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidIVSize)

		_, err = svc.Decrypt([]byte("x"), key, iv, make([]byte, 15))
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidTagSize)

		_, err = svc.Decrypt([]byte("x"), make([]byte, 64), iv, make([]byte, 16))
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidKeySize)
	})
}

func TestEnvelopeService_EncryptFile(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	data := []byte("file contents to protect")

	t.Run("password path round trip", func(t *testing.T) {
		env, err := svc.EncryptFile(ctx, data, "hunter2")
		require.NoError(t, err)

		assert.Equal(t, "1.0", env.Version)
		assert.Len(t, env.Salt, 16)
		assert.Equal(t, 1000, env.Metadata.Iterations)
		assert.Empty(t, env.WrappedKey)
		assert.True(t, env.PasswordDerived())

		plaintext, err := svc.OpenEnvelope(ctx, env, "hunter2")
		require.NoError(t, err)
		assert.Equal(t, data, plaintext)
	})

	t.Run("wrong password fails authentication", func(t *testing.T) {
		env, err := svc.EncryptFile(ctx, data, "hunter2")
		require.NoError(t, err)

		_, err = svc.OpenEnvelope(ctx, env, "wrong")
		assert.ErrorIs(t, err, apperrors.ErrAuthenticationFailed)
	})

	t.Run("wrapped key path round trip", func(t *testing.T) {
		env, err := svc.EncryptFile(ctx, data, "")
		require.NoError(t, err)

		assert.Empty(t, env.Salt)
		assert.NotEmpty(t, env.WrappedKey)
		assert.False(t, env.PasswordDerived())

		plaintext, err := svc.OpenEnvelope(ctx, env, "")
		require.NoError(t, err)
		assert.Equal(t, data, plaintext)
	})

	t.Run("serialized envelope round trip", func(t *testing.T) {
		env, err := svc.EncryptFile(ctx, data, "")
		require.NoError(t, err)

		raw, err := env.Marshal()
		require.NoError(t, err)

		parsed, err := cryptoDomain.UnmarshalEnvelope(raw)
		require.NoError(t, err)

		plaintext, err := svc.OpenEnvelope(ctx, parsed, "")
		require.NoError(t, err)
		assert.Equal(t, data, plaintext)
	})

	t.Run("without keeper and without password", func(t *testing.T) {
		bare := NewEnvelopeService(NewAEADManager(), nil, 1000)
		_, err := bare.EncryptFile(ctx, data, "")
		assert.ErrorIs(t, err, cryptoDomain.ErrKeeperNotConfigured)
	})

	t.Run("keeper failure surfaces as decryption failure", func(t *testing.T) {
		env, err := svc.EncryptFile(ctx, data, "")
		require.NoError(t, err)

		failing := NewEnvelopeService(NewAEADManager(), &fakeKeeper{failDecrypt: true}, 1000)
		_, err = failing.OpenEnvelope(ctx, env, "")
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
	})
}

func TestEnvelopeService_HMAC(t *testing.T) {
	svc := newTestService()
	key := svc.GenerateKey()
	data := []byte("payload")

	tag := svc.GenerateHMAC(data, key)
	assert.Len(t, tag, 32)
	assert.NoError(t, svc.VerifyHMAC(data, key, tag))

	t.Run("tampered data fails verification", func(t *testing.T) {
		err := svc.VerifyHMAC([]byte("payload!"), key, tag)
		assert.ErrorIs(t, err, apperrors.ErrAuthenticationFailed)
	})

	t.Run("tampered tag fails verification", func(t *testing.T) {
		bad := make([]byte, len(tag))
		copy(bad, tag)
		bad[0] ^= 0x01
		err := svc.VerifyHMAC(data, key, bad)
		assert.ErrorIs(t, err, apperrors.ErrAuthenticationFailed)
	})
}
