package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainErrorMessage(t *testing.T) {
	err := NewDomainError(ErrorTypeValidation, "bad input", nil)
	assert.Equal(t, "validation: bad input", err.Error())

	wrapped := NewDomainError(ErrorTypeInternal, "query failed", errors.New("connection reset"))
	assert.Equal(t, "internal: query failed (connection reset)", wrapped.Error())
}

func TestDomainErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewDomainError(ErrorTypeInternal, "query failed", cause)

	assert.ErrorIs(t, err, cause)
}

func TestDomainErrorIsMatchesOnType(t *testing.T) {
	err := NewDomainError(ErrorTypeValidation, "one message", nil)
	other := NewDomainError(ErrorTypeValidation, "another message", nil)

	assert.ErrorIs(t, err, other)
	assert.NotErrorIs(t, err, ErrForbidden)
}

func TestErrorTypeHelpers(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		checker func(error) bool
	}{
		{"not found", ErrDocumentNotFound, IsNotFoundError},
		{"validation", ErrInvalidThreshold, IsValidationError},
		{"unauthorized", ErrInvalidToken, IsUnauthorizedError},
		{"forbidden", ErrForbidden, IsForbiddenError},
		{"internal", ErrDimensionMismatch, IsInternalError},
		{"external", ErrLLMUnavailable, IsExternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.checker(tt.err))

			// Detection survives wrapping
			wrapped := fmt.Errorf("context: %w", tt.err)
			assert.True(t, tt.checker(wrapped))
		})
	}

	assert.False(t, IsNotFoundError(errors.New("plain error")))
	assert.False(t, IsValidationError(nil))
}

func TestWithDetail(t *testing.T) {
	err := NewDomainError(ErrorTypeValidation, "bad input", nil).
		WithDetail("field", "threshold").
		WithDetail("value", 1.5)

	details := GetErrorDetails(err)
	require.NotNil(t, details)
	assert.Equal(t, "threshold", details["field"])
	assert.Equal(t, 1.5, details["value"])

	assert.Nil(t, GetErrorDetails(errors.New("plain error")))
}
