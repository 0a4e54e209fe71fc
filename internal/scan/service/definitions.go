package service

import (
	"context"
	"os/exec"
	"strings"
	"time"

	apperrors "github.com/allisson/fileguard/internal/errors"
)

// commandDefinitionsUpdater refreshes the engine's signature database by
// running the external updater tool (freshclam for clamd) under a bounded
// timeout.
type commandDefinitionsUpdater struct {
	command string
	timeout time.Duration
}

// NewDefinitionsUpdater creates an updater that runs the given command. An
// empty command defaults to "freshclam".
func NewDefinitionsUpdater(command string, timeout time.Duration) DefinitionsUpdater {
	if command == "" {
		command = "freshclam"
	}
	return &commandDefinitionsUpdater{command: command, timeout: timeout}
}

// Update runs the updater tool and returns its combined output. A timeout is
// treated identically to a tool failure.
func (c *commandDefinitionsUpdater) Update(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.command)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return strings.TrimSpace(string(output)), apperrors.Wrap(err, "definitions update failed")
	}

	return strings.TrimSpace(string(output)), nil
}
