package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	cryptoDomain "github.com/allisson/fileguard/internal/crypto/domain"
	cryptoService "github.com/allisson/fileguard/internal/crypto/service"
)

// RunEncryptFile encrypts a file into a serialized envelope. With an empty
// password the data key is wrapped by the configured KMS master key.
func RunEncryptFile(
	ctx context.Context,
	engine cryptoService.EnvelopeEngine,
	out io.Writer,
	inputPath, outputPath, password string,
) error {
	content, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}

	envelope, err := engine.EncryptFile(ctx, content, password)
	if err != nil {
		return fmt.Errorf("failed to encrypt file: %w", err)
	}

	serialized, err := envelope.Marshal()
	if err != nil {
		return fmt.Errorf("failed to serialize envelope: %w", err)
	}

	if err := os.WriteFile(outputPath, serialized, 0o600); err != nil {
		return fmt.Errorf("failed to write envelope: %w", err)
	}

	fmt.Fprintf(out, "Encrypted %s -> %s (%d bytes)\n", inputPath, outputPath, len(serialized))
	return nil
}

// RunDecryptFile opens a serialized envelope and writes the plaintext.
func RunDecryptFile(
	ctx context.Context,
	engine cryptoService.EnvelopeEngine,
	out io.Writer,
	inputPath, outputPath, password string,
) error {
	serialized, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}

	envelope, err := cryptoDomain.UnmarshalEnvelope(serialized)
	if err != nil {
		return fmt.Errorf("failed to parse envelope: %w", err)
	}

	plaintext, err := engine.OpenEnvelope(ctx, envelope, password)
	if err != nil {
		return fmt.Errorf("failed to decrypt file: %w", err)
	}

	if err := os.WriteFile(outputPath, plaintext, 0o600); err != nil {
		return fmt.Errorf("failed to write plaintext: %w", err)
	}

	fmt.Fprintf(out, "Decrypted %s -> %s (%d bytes)\n", inputPath, outputPath, len(plaintext))
	return nil
}
