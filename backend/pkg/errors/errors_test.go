package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsErrorTypeOnTypedErrors(t *testing.T) {
	assert.True(t, IsErrorType(NewValidation("confidence", "must be 0-1"), ErrorTypeValidation))
	assert.True(t, IsErrorType(NewInvalidEntity("Claim"), ErrorTypeContract))
	assert.True(t, IsErrorType(NewClaimNotFound("missing"), ErrorTypeIntegrity))
	assert.True(t, IsErrorType(ErrNotConnected, ErrorTypeConnectivity))
	assert.True(t, IsErrorType(ErrEdgeLookupUnsupported, ErrorTypeUnsupported))

	assert.False(t, IsErrorType(NewValidation("x", "y"), ErrorTypeGraph))
	assert.False(t, IsErrorType(fmt.Errorf("plain"), ErrorTypeValidation))
	assert.False(t, IsErrorType(nil, ErrorTypeValidation))
}

func TestIsErrorTypeWalksWrapChain(t *testing.T) {
	inner := NewQueryFailed("create claim", fmt.Errorf("socket closed"))
	wrapped := fmt.Errorf("seeding failed: %w", inner)
	assert.True(t, IsErrorType(wrapped, ErrorTypeGraph))
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(NewValidation("confidence", "must be 0-1")))
	assert.False(t, IsRetryable(NewInvalidEntity("Edge")))
	assert.True(t, IsRetryable(NewConnectionFailed("bolt://localhost:7687", fmt.Errorf("refused"))))
	assert.True(t, IsRetryable(NewQueryFailed("get claim", fmt.Errorf("timeout"))))
}

func TestErrorMessages(t *testing.T) {
	err := NewClaimNotFound("claim-9")
	assert.Contains(t, err.Error(), "claim-9")
	assert.Contains(t, err.Error(), "[integrity]")

	wrapped := NewQueryFailed("get claim", fmt.Errorf("boom"))
	assert.Contains(t, wrapped.Error(), "boom")
	assert.EqualError(t, wrapped.Unwrap(), "boom")
}
