package service

import (
	"context"
	"time"

	scanDomain "github.com/allisson/fileguard/internal/scan/domain"
)

// disabledScanner is the fail-open pass-through used when scanning is turned
// off or the engine probe failed at startup: every verdict is clean with zero
// confidence.
type disabledScanner struct{}

// NewDisabledScanner creates the fail-open pass-through scanner.
func NewDisabledScanner() Scanner {
	return &disabledScanner{}
}

// Engine identifies this scanner as disabled.
func (d *disabledScanner) Engine() scanDomain.Engine {
	return scanDomain.EngineDisabled
}

// Scan returns a clean verdict without inspecting the content.
func (d *disabledScanner) Scan(
	_ context.Context,
	_ []byte,
	_ string,
) (*scanDomain.Result, error) {
	return &scanDomain.Result{
		IsClean:   true,
		Engine:    scanDomain.EngineDisabled,
		Timestamp: time.Now().UTC(),
	}, nil
}
