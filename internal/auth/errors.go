package auth

import (
	"errors"
	"fmt"
)

// AuthError is the general authentication failure. Message is meant for the
// user and should say what to do next; Cause keeps the underlying error for
// diagnostics.
type AuthError struct {
	Message string
	Cause   error
}

func (e *AuthError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (caused by: %v)", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Cause
}

// TokenRefreshError is returned when stored credentials could not be refreshed.
type TokenRefreshError struct {
	AuthError
}

// As lets errors.As match a *TokenRefreshError against **AuthError.
func (e *TokenRefreshError) As(target any) bool {
	if t, ok := target.(**AuthError); ok {
		*t = &e.AuthError
		return true
	}
	return false
}

// CredentialsNotFoundError is returned when no credential source is configured:
// no client secrets and no application default credentials.
type CredentialsNotFoundError struct {
	AuthError
}

// As lets errors.As match a *CredentialsNotFoundError against **AuthError.
func (e *CredentialsNotFoundError) As(target any) bool {
	if t, ok := target.(**AuthError); ok {
		*t = &e.AuthError
		return true
	}
	return false
}

func newAuthError(cause error, format string, args ...any) *AuthError {
	return &AuthError{Message: fmt.Sprintf(format, args...), Cause: cause}
}

func newRefreshError(cause error, format string, args ...any) *TokenRefreshError {
	return &TokenRefreshError{AuthError{Message: fmt.Sprintf(format, args...), Cause: cause}}
}

// IsAuthError reports whether err is, or wraps, any of the authentication
// error kinds.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// unavailableError marks a strategy failure after which the manager moves on
// to the next strategy instead of failing the call.
type unavailableError struct {
	err error
}

func (e *unavailableError) Error() string { return e.err.Error() }
func (e *unavailableError) Unwrap() error { return e.err }

func unavailable(err error) error {
	return &unavailableError{err: err}
}

func isUnavailable(err error) bool {
	var u *unavailableError
	return errors.As(err, &u)
}

var errNoStoredCredentials = errors.New("no stored credentials")
