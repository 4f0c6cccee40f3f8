// internal/services/errors_test.go
package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfClassifiesServiceErrors(t *testing.T) {
	err := NewServiceError(ErrKindInsufficientStock, "not enough apples")

	assert.Equal(t, ErrKindInsufficientStock, KindOf(err))
	assert.True(t, IsKind(err, ErrKindInsufficientStock))
	assert.False(t, IsKind(err, ErrKindNotFound))
}

func TestKindOfUnwrapsWrappedErrors(t *testing.T) {
	inner := NewServiceError(ErrKindNotFound, "order missing")
	wrapped := fmt.Errorf("while cancelling: %w", inner)

	assert.Equal(t, ErrKindNotFound, KindOf(wrapped))
}

func TestKindOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, ErrKindInternal, KindOf(errors.New("driver: bad connection")))
}

func TestWithDetailsKeepsKindAndMessage(t *testing.T) {
	err := NewServiceErrorf(ErrKindInvalidTransition, "cannot go from %s to %s", "delivered", "created").
		WithDetails(map[string]interface{}{"current": "delivered"})

	assert.Equal(t, ErrKindInvalidTransition, err.Kind)
	assert.Contains(t, err.Error(), "delivered")
	assert.Equal(t, "delivered", err.Details["current"])
}
