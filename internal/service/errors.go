package service

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the auth service and its HTTP surface. Handlers map
// these onto status codes with errors.Is.
var (
	ErrMissingField = errors.New("missing required field")
	ErrInvalidField = errors.New("invalid field")
	ErrConflict     = errors.New("already exists")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInternal     = errors.New("internal error")

	ErrBadCredentials = fmt.Errorf("%w: bad credentials", ErrUnauthorized)
	ErrTokenExpired   = fmt.Errorf("%w: token expired, log in again", ErrUnauthorized)
	ErrTokenInvalid   = fmt.Errorf("%w: invalid token", ErrUnauthorized)
)

// Reason returns the machine-readable sub-reason of an unauthorized error,
// or "" for anything else.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrBadCredentials):
		return "bad-credentials"
	case errors.Is(err, ErrTokenExpired):
		return "expired-token"
	case errors.Is(err, ErrTokenInvalid):
		return "invalid-token"
	}
	return ""
}

func missing(field string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, field)
}

func internal(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrInternal, op, err)
}
