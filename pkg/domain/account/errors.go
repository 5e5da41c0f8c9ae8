package account

import (
	"errors"
	"fmt"

	"github.com/covermapio/api/pkg/domain/shared"
)

// ErrNotFound is returned when no subscription exists for an owner.
var ErrNotFound = shared.ErrNotFound

// ErrPendingVerification is returned when a submit is attempted while a
// prior incomplete upgrade still awaits payment verification and the
// caller has not confirmed discarding it.
var ErrPendingVerification = errors.New("pending payment verification")

// NotFoundError wraps ErrNotFound with the owner pair.
func NotFoundError(provider, owner string) error {
	return fmt.Errorf("account %s/%s: %w", provider, owner, ErrNotFound)
}
