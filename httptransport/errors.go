package httptransport

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingURI is returned for descriptors without uri.
	ErrMissingURI = errors.New("descriptor has no uri")

	// ErrMissingAPIRoot is returned when no api root is configured.
	ErrMissingAPIRoot = errors.New("api root is not configured")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}
