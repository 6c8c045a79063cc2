package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserError(t *testing.T) {
	wrapped := NewUserError("the database could not be opened", ErrInvalidConfig)

	var userErr *UserError
	assert.True(t, errors.As(wrapped, &userErr))
	assert.Equal(t, "the database could not be opened", userErr.UserMessage)
	assert.Contains(t, wrapped.Error(), "invalid configuration")
	assert.ErrorIs(t, wrapped, ErrInvalidConfig)

	bare := &UserError{UserMessage: "just a message"}
	assert.Equal(t, "just a message", bare.Error())
	assert.Nil(t, bare.Unwrap())
}

func TestIsNotSupported(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "sentinel", err: ErrNotSupported, want: true},
		{name: "wrapped sentinel", err: errors.New("vision analysis: " + ErrNotSupported.Error()), want: true},
		{name: "message marker", err: errors.New("PDF input is Not Supported here"), want: true},
		{name: "unrelated", err: errors.New("connection refused"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNotSupported(tt.err))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrRateLimit))
	assert.False(t, IsRetryable(ErrNotFound))
	assert.True(t, IsRetryable(&RetryableError{Err: errors.New("flaky"), Retryable: true}))
	assert.False(t, IsRetryable(&RetryableError{Err: errors.New("fatal"), Retryable: false}))
}
