package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeOf(t *testing.T) {
	t.Run("app error", func(t *testing.T) {
		assert.Equal(t, ErrorTypeConflict, TypeOf(NewConflictError("dup")))
	})

	t.Run("wrapped app error", func(t *testing.T) {
		err := fmt.Errorf("attach: %w", NewNotFoundError("missing"))
		assert.Equal(t, ErrorTypeNotFound, TypeOf(err))
		assert.True(t, IsNotFound(err))
	})

	t.Run("plain error is internal", func(t *testing.T) {
		assert.Equal(t, ErrorTypeInternal, TypeOf(fmt.Errorf("boom")))
		assert.False(t, IsConflict(fmt.Errorf("boom")))
	})

	t.Run("nil is not found", func(t *testing.T) {
		assert.False(t, IsNotFound(nil))
	})
}

func TestAppError_Error(t *testing.T) {
	err := NewUnavailableError("store unreachable", fmt.Errorf("dial tcp: refused"))
	assert.Equal(t, "UNAVAILABLE: store unreachable: dial tcp: refused", err.Error())
	assert.EqualError(t, err.Unwrap(), "dial tcp: refused")

	v := NewFieldValidationError("invalid query", map[string]string{"radius": "must be a number"})
	assert.Equal(t, "VALIDATION: invalid query", v.Error())
	assert.Equal(t, "must be a number", v.Fields["radius"])
}
