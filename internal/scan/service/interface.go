// Package service implements the malware detection engines: the external
// daemon client, the heuristic fallback and the disabled pass-through.
package service

import (
	"context"

	scanDomain "github.com/allisson/fileguard/internal/scan/domain"
)

// Scanner produces a normalized verdict for raw content. Implementations are
// the primary engine adapter, the heuristic fallback and the disabled
// pass-through; callers select between them at initialization time.
type Scanner interface {
	Scan(ctx context.Context, content []byte, filename string) (*scanDomain.Result, error)
	Engine() scanDomain.Engine
}

// EngineScan is the raw outcome reported by the external scanning engine.
type EngineScan struct {
	Infected  bool
	Threats   []string
	Signature string
}

// EngineClient is the narrow contract required of the external scanning
// engine daemon.
type EngineClient interface {
	// Version probes the engine and returns its version banner.
	Version(ctx context.Context) (string, error)
	// ScanFile submits the file at path for scanning.
	ScanFile(ctx context.Context, path string) (*EngineScan, error)
}

// DefinitionsUpdater triggers a refresh of the engine's signature database.
type DefinitionsUpdater interface {
	Update(ctx context.Context) (string, error)
}
