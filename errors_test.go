package pagekit

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPagekitErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *PagekitError
		want string
	}{
		{"plain", NewInvalidEnvelopeError("no payload"), "[validation:INVALID_ENVELOPE] no payload"},
		{"component", NewComponentNotFoundError("card"), "[not_found:COMPONENT_NOT_FOUND] component card: component not found"},
		{"field", NewValidationError("title", "too short"), "[validation:VALIDATION_FAILED] field 'title': too short"},
		{"component and field", NewFieldNotFoundError("card", "ghost"), "[not_found:FIELD_NOT_FOUND] component card field 'ghost': field not declared by component"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestPagekitErrorWrapping(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewSaveFailedError("card-1", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "card-1", err.Details["componentId"])
	assert.Equal(t, ErrorTypeStorage, err.Type)

	wrapped := fmt.Errorf("autosave: %w", err)
	var pe *PagekitError
	assert.ErrorAs(t, wrapped, &pe)
	assert.Equal(t, ErrCodeSaveFailed, pe.Code)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(NewDesignNotFoundError("x")))
	assert.True(t, IsNotFound(fmt.Errorf("load: %w", NewPresetNotFoundError("card", "loud"))))
	assert.False(t, IsNotFound(NewInvalidBreakpointError("watch")))
	assert.False(t, IsNotFound(errors.New("not found")))
	assert.False(t, IsNotFound(nil))
}
