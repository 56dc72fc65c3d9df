package notification

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the requested notification does not exist.
var ErrNotFound = errors.New("notification not found")

// ValidationError rejects a create or update request with bad input.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsValidationError reports whether err carries a ValidationError.
func IsValidationError(err error) bool {
	var v ValidationError
	return errors.As(err, &v)
}
