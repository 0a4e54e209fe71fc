package service

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	scanDomain "github.com/allisson/fileguard/internal/scan/domain"
)

// primaryScanner submits content to the external scanning engine. Content is
// written to a transient scratch copy so the engine can read it; the copy is
// removed on every exit path.
type primaryScanner struct {
	client     EngineClient
	scratchDir string
}

// NewPrimaryScanner creates a Scanner backed by the external engine, staging
// content in scratchDir.
func NewPrimaryScanner(client EngineClient, scratchDir string) Scanner {
	return &primaryScanner{client: client, scratchDir: scratchDir}
}

// Engine identifies this scanner as the primary engine.
func (p *primaryScanner) Engine() scanDomain.Engine {
	return scanDomain.EnginePrimary
}

// Scan stages content to scratch storage and asks the engine for a verdict.
// An error return means the engine could not produce a verdict; the caller
// decides whether to fall back.
func (p *primaryScanner) Scan(
	ctx context.Context,
	content []byte,
	filename string,
) (*scanDomain.Result, error) {
	if err := os.MkdirAll(p.scratchDir, 0o700); err != nil {
		return nil, err
	}

	scratchPath := filepath.Join(p.scratchDir, uuid.NewString()+".scan")
	if err := os.WriteFile(scratchPath, content, 0o600); err != nil {
		return nil, err
	}
	defer func() {
		// Best effort: a leaked scratch copy is swept by the temp cleanup task.
		if err := os.Remove(scratchPath); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove scan scratch copy",
				"path", scratchPath,
				"error", err,
			)
		}
	}()

	engineScan, err := p.client.ScanFile(ctx, scratchPath)
	if err != nil {
		return nil, err
	}

	result := &scanDomain.Result{
		IsClean:   !engineScan.Infected,
		Engine:    scanDomain.EnginePrimary,
		Signature: engineScan.Signature,
		Timestamp: time.Now().UTC(),
	}
	if engineScan.Infected {
		threat := engineScan.Signature
		if len(engineScan.Threats) > 0 {
			threat = engineScan.Threats[0]
		}
		result.Threat = threat
		result.ThreatType = scanDomain.ClassifyThreat(threat)
		result.Confidence = 1.0
	}

	return result, nil
}
