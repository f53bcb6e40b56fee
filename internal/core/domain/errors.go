package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownProvider  = errors.New("unknown provider")
	ErrProviderInit     = errors.New("provider initialization failed")
	ErrStoreUnavailable = errors.New("vector store unavailable")
	ErrInvalidInput     = errors.New("invalid input")
	ErrConfigNotFound   = errors.New("provider config not found")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
