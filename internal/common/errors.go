// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Common application errors.
var (
	// Storage errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("duplicate entry")

	// Provider errors.
	ErrNotSupported         = errors.New("not supported by provider")
	ErrNoProviderConfigured = errors.New("no AI provider configured")
	ErrRateLimit            = errors.New("rate limit exceeded")

	// Staging errors.
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNoStagedFiles     = errors.New("no staged files eligible")

	// Configuration errors.
	ErrNoRootDir     = errors.New("no root storage location configured")
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsNotSupported reports whether an error signals a provider capability
// mismatch. Providers wrap ErrNotSupported, but errors crossing an HTTP
// boundary can arrive as plain text, so the message marker counts too.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotSupported) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "not supported")
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
