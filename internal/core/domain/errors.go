package domain

import (
	"errors"
	"strings"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrValidationFailed    = errors.New("validation failed")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrInternal            = errors.New("internal error")
	ErrAlreadyExists       = errors.New("already exists")
	ErrForbidden           = errors.New("forbidden")
)

// ValidationError reports a write rejected because some requested items could
// not be resolved. It matches ErrValidationFailed under errors.Is.
type ValidationError struct {
	Reason      string
	Unavailable []string
}

func (e *ValidationError) Error() string {
	if len(e.Unavailable) == 0 {
		return e.Reason
	}
	return e.Reason + ": **" + strings.Join(e.Unavailable, ",") + "**"
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}
