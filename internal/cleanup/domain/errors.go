package domain

import (
	"fmt"

	apperrors "github.com/allisson/fileguard/internal/errors"
)

// ErrUnknownTask indicates a manual dispatch named a task that is not
// registered.
var ErrUnknownTask = fmt.Errorf("unknown cleanup task: %w", apperrors.ErrNotFound)
