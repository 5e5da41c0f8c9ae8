package repo

import (
	"fmt"

	"github.com/covermapio/api/pkg/domain/shared"
)

// NotFoundError returns a not-found error for the named repository.
func NotFoundError(name string) error {
	return fmt.Errorf("repo %q: %w", name, shared.ErrNotFound)
}
