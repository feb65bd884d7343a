package library

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the engine. Storage failures are never
// folded into these; they propagate wrapped with %w.
var (
	ErrNotFound        = errors.New("record not found")
	ErrUnknownMember   = errors.New("member does not exist")
	ErrUnknownBook     = errors.New("book does not exist")
	ErrBookUnavailable = errors.New("book is already borrowed or unavailable")
	ErrUsernameTaken   = errors.New("username already exists")
)

// ValidationError reports malformed caller input. Always recoverable: the
// caller corrects the field and retries.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AuthReason classifies an authentication failure.
type AuthReason string

const (
	ReasonInvalidCredentials AuthReason = "invalid_credentials"
	ReasonAccountLocked      AuthReason = "account_locked"
	ReasonUnknownRole        AuthReason = "unknown_role"
)

// AuthError is a failed authentication attempt. The message for
// ReasonInvalidCredentials is identical whether the username was unknown or
// the password wrong, so callers cannot tell the two apart.
type AuthError struct {
	Reason AuthReason
}

func (e *AuthError) Error() string {
	switch e.Reason {
	case ReasonAccountLocked:
		return "account is locked"
	case ReasonUnknownRole:
		return "account role is not recognized"
	default:
		return "incorrect username or password"
	}
}

// IsAuthFailure reports whether err is an AuthError with the given reason.
func IsAuthFailure(err error, reason AuthReason) bool {
	var ae *AuthError
	return errors.As(err, &ae) && ae.Reason == reason
}
