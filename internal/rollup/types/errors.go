package types

import (
	"fmt"
	"math/big"

	"github.com/pkg/errors"
)

// ValidationError reports the first out-of-range or malformed builder field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError.
func NewValidationError(field string, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// PackingOverflowError means a value exceeds the largest magnitude a packing profile can hold.
type PackingOverflowError struct {
	Profile string
	Value   *big.Int
}

func (e *PackingOverflowError) Error() string {
	return fmt.Sprintf("value %s overflows %s packing", e.Value.String(), e.Profile)
}

// AuthErrorKind classifies base-chain authentication failures.
type AuthErrorKind int

const (
	AuthUserRejected AuthErrorKind = iota + 1
	AuthSessionDisconnected
	AuthTimeout
	AuthContextMismatch
)

func (k AuthErrorKind) String() string {
	switch k {
	case AuthUserRejected:
		return "user rejected"
	case AuthSessionDisconnected:
		return "session disconnected"
	case AuthTimeout:
		return "timeout"
	case AuthContextMismatch:
		return "context mismatch"
	default:
		return "unknown"
	}
}

// AuthBackendError is returned by authentication backends. The envelope stays in its prior state.
type AuthBackendError struct {
	Kind    AuthErrorKind
	Backend string
	Err     error
}

// NewAuthBackendError builds an AuthBackendError.
func NewAuthBackendError(kind AuthErrorKind, backend string, err error) *AuthBackendError {
	return &AuthBackendError{Kind: kind, Backend: backend, Err: err}
}

func (e *AuthBackendError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s auth backend: %s", e.Backend, e.Kind)
	}
	return fmt.Sprintf("%s auth backend: %s: %v", e.Backend, e.Kind, e.Err)
}

func (e *AuthBackendError) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether err carries an AuthBackendError of the given kind.
func IsAuthError(err error, kind AuthErrorKind) bool {
	var authErr *AuthBackendError
	if errors.As(err, &authErr) {
		return authErr.Kind == kind
	}
	return false
}

// ProtocolMismatchError means the network or chain id differs between a transaction and a backend.
type ProtocolMismatchError struct {
	What     string
	Expected string
	Actual   string
}

func (e *ProtocolMismatchError) Error() string {
	return fmt.Sprintf("%s mismatch: expected %s, got %s", e.What, e.Expected, e.Actual)
}

// SubmissionRejectedError is a definitive operator rejection. The envelope stays valid.
type SubmissionRejectedError struct {
	Code   int
	Reason string
}

func (e *SubmissionRejectedError) Error() string {
	return fmt.Sprintf("submission rejected (%d): %s", e.Code, e.Reason)
}
