package catalog

import (
	"errors"
	"fmt"
)

// ErrDataUnavailable is returned when there is no catalog to serve: nothing is cached
// and the refresh failed.
var ErrDataUnavailable = errors.New("assessment catalog is unavailable")

// ErrEmptyCatalog is returned by refreshers that produced no records.
var ErrEmptyCatalog = errors.New("refresh produced no assessments")

// RefreshError wraps a failed explicit refresh. It also matches ErrDataUnavailable
// when there was no catalog to fall back on.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("refresh catalog: %v", e.Err)
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}
