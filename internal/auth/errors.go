package auth

import (
	"errors"
	"fmt"
)

// Authentication failure taxonomy. The HTTP layer collapses all of these into
// a uniform 401 so a caller cannot distinguish an unknown account from a wrong
// password or a revoked key; the distinct kinds exist for logs and metrics.
var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrTokenInvalid       = errors.New("auth: invalid token")
	ErrTokenExpired       = errors.New("auth: token expired")
	ErrAPIKeyInvalid      = errors.New("auth: invalid api key")
	ErrAPIKeyRevoked      = errors.New("auth: api key revoked")
	ErrAPIKeyExpired      = errors.New("auth: api key expired")
	ErrUnauthenticated    = errors.New("auth: unauthenticated")
)

// Store and input errors.
var (
	ErrNotFound     = errors.New("auth: not found")
	ErrConflict     = errors.New("auth: resource conflict")
	ErrInvalidInput = errors.New("auth: invalid input")
)

// MissingPermissionError is returned when an authenticated principal lacks a
// required permission code. Unlike the authentication errors above it is a
// "forbidden" condition: the caller is known, just not allowed.
type MissingPermissionError struct {
	Code string
}

func (e *MissingPermissionError) Error() string {
	return fmt.Sprintf("auth: missing permission %s", e.Code)
}

// IsAuthenticationFailure reports whether err belongs to the class of failures
// that must surface as a uniform "unauthenticated" signal.
func IsAuthenticationFailure(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrTokenInvalid) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrAPIKeyInvalid) ||
		errors.Is(err, ErrAPIKeyRevoked) ||
		errors.Is(err, ErrAPIKeyExpired) ||
		errors.Is(err, ErrUnauthenticated)
}
