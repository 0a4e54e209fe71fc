package commands

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	scanDomain "github.com/allisson/fileguard/internal/scan/domain"
)

type stubScanner struct {
	result            *scanDomain.Result
	scanErr           error
	definitionsOutput string
	definitionsErr    error
	scannedName       string
}

func (s *stubScanner) Scan(_ context.Context, _ []byte, filename string) (*scanDomain.Result, error) {
	s.scannedName = filename
	return s.result, s.scanErr
}

func (s *stubScanner) Engine() scanDomain.Engine {
	return scanDomain.EnginePrimary
}

func (s *stubScanner) UpdateDefinitions(_ context.Context) (string, error) {
	return s.definitionsOutput, s.definitionsErr
}

func writeTempFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func TestRunScanFile(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("clean-text-output", func(t *testing.T) {
		scanner := &stubScanner{
			result: &scanDomain.Result{
				IsClean:  true,
				Engine:   scanDomain.EnginePrimary,
				Duration: 5 * time.Millisecond,
			},
		}
		path := writeTempFile(t, "clean.txt", []byte("hello"))

		var out bytes.Buffer
		err := RunScanFile(ctx, scanner, logger, &out, path, "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "OK (engine: primary)")
		require.Equal(t, "clean.txt", scanner.scannedName)
	})

	t.Run("infected-text-output", func(t *testing.T) {
		scanner := &stubScanner{
			result: &scanDomain.Result{
				IsClean:    false,
				Threat:     "Eicar-Test-Signature",
				ThreatType: scanDomain.ThreatTypeVirus,
				Confidence: 1.0,
				Engine:     scanDomain.EnginePrimary,
			},
		}
		path := writeTempFile(t, "infected.txt", []byte("payload"))

		var out bytes.Buffer
		err := RunScanFile(ctx, scanner, logger, &out, path, "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "INFECTED Eicar-Test-Signature")
		require.Contains(t, out.String(), "VIRUS")
	})

	t.Run("json-output", func(t *testing.T) {
		scanner := &stubScanner{
			result: &scanDomain.Result{
				IsClean: true,
				Engine:  scanDomain.EngineHeuristic,
			},
		}
		path := writeTempFile(t, "clean.txt", []byte("hello"))

		var out bytes.Buffer
		err := RunScanFile(ctx, scanner, logger, &out, path, "json")

		require.NoError(t, err)
		require.Contains(t, out.String(), `"is_clean": true`)
		require.Contains(t, out.String(), `"engine": "heuristic"`)
	})

	t.Run("missing-file", func(t *testing.T) {
		scanner := &stubScanner{}
		err := RunScanFile(ctx, scanner, logger, &bytes.Buffer{}, "/nonexistent/file", "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to read file")
	})
}

func TestRunUpdateDefinitions(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	scanner := &stubScanner{definitionsOutput: "database updated"}

	var out bytes.Buffer
	err := RunUpdateDefinitions(ctx, scanner, logger, &out)

	require.NoError(t, err)
	require.Contains(t, out.String(), "database updated")
}
