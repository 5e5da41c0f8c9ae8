package plan

import (
	"fmt"

	"github.com/covermapio/api/pkg/domain/shared"
)

// ErrNotFound is returned when a plan code has no catalog entry.
var ErrNotFound = shared.ErrNotFound

// NotFoundError wraps ErrNotFound with the missing plan code.
func NotFoundError(code string) error {
	return fmt.Errorf("plan %q: %w", code, ErrNotFound)
}
