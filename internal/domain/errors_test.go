package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	t.Run("single error", func(t *testing.T) {
		err := NewValidationError("Role")
		err.AddError("missing marker")

		assert.Equal(t, "validation error for Role: missing marker", err.Error())
		assert.True(t, err.HasErrors(), "Should have errors")
		assert.Len(t, err.Errors, 1, "Should have one error")
	})

	t.Run("multiple errors", func(t *testing.T) {
		err := NewValidationError("Registry")
		err.AddError("duplicate marker")
		err.AddError("marker prefix")

		assert.Equal(t, "validation errors for Registry: [duplicate marker marker prefix]", err.Error())
		assert.Len(t, err.Errors, 2)
	})

	t.Run("no errors", func(t *testing.T) {
		err := NewValidationError("Config")
		assert.False(t, err.HasErrors())
	})

	t.Run("matches invalid configuration", func(t *testing.T) {
		err := NewValidationError("Config")
		err.AddError("bad")
		assert.True(t, errors.Is(err, ErrInvalidConfiguration))
	})
}
