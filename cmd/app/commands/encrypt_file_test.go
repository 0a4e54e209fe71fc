package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	cryptoService "github.com/allisson/fileguard/internal/crypto/service"
)

func TestRunEncryptDecryptFile(t *testing.T) {
	ctx := context.Background()
	engine := cryptoService.NewEnvelopeService(cryptoService.NewAEADManager(), nil, 1000)

	t.Run("password-round-trip", func(t *testing.T) {
		dir := t.TempDir()
		plainPath := filepath.Join(dir, "plain.txt")
		envelopePath := filepath.Join(dir, "plain.txt.enc")
		restoredPath := filepath.Join(dir, "restored.txt")
		content := []byte("secret report contents")
		require.NoError(t, os.WriteFile(plainPath, content, 0o600))

		var out bytes.Buffer
		err := RunEncryptFile(ctx, engine, &out, plainPath, envelopePath, "hunter2")
		require.NoError(t, err)
		require.Contains(t, out.String(), "Encrypted")

		serialized, err := os.ReadFile(envelopePath)
		require.NoError(t, err)
		require.NotContains(t, string(serialized), "secret report contents")

		out.Reset()
		err = RunDecryptFile(ctx, engine, &out, envelopePath, restoredPath, "hunter2")
		require.NoError(t, err)

		restored, err := os.ReadFile(restoredPath)
		require.NoError(t, err)
		require.Equal(t, content, restored)
	})

	t.Run("wrong-password", func(t *testing.T) {
		dir := t.TempDir()
		plainPath := filepath.Join(dir, "plain.txt")
		envelopePath := filepath.Join(dir, "plain.txt.enc")
		require.NoError(t, os.WriteFile(plainPath, []byte("data"), 0o600))

		var out bytes.Buffer
		require.NoError(t, RunEncryptFile(ctx, engine, &out, plainPath, envelopePath, "correct"))

		err := RunDecryptFile(ctx, engine, &out, envelopePath, filepath.Join(dir, "restored.txt"), "wrong")
		require.Error(t, err)
	})

	t.Run("missing-input", func(t *testing.T) {
		var out bytes.Buffer
		err := RunEncryptFile(ctx, engine, &out, "/nonexistent/file", "/tmp/out.enc", "pw")

		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to read input file")
	})

	t.Run("garbage-envelope", func(t *testing.T) {
		dir := t.TempDir()
		badPath := filepath.Join(dir, "bad.enc")
		require.NoError(t, os.WriteFile(badPath, []byte("not an envelope"), 0o600))

		var out bytes.Buffer
		err := RunDecryptFile(ctx, engine, &out, badPath, filepath.Join(dir, "out.txt"), "pw")

		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to parse envelope")
	})
}
