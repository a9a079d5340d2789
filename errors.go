package pagekit

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of error
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeStorage    ErrorType = "storage"
	ErrorTypeSchema     ErrorType = "schema"
	ErrorTypeConflict   ErrorType = "conflict"
	ErrorTypeInternal   ErrorType = "internal"
)

// PagekitError is the error returned by import, registry and storage entry points.
// Field validation failures are never reported this way; they are collected in
// a ValidationResult.
type PagekitError struct {
	Type      ErrorType      `json:"type"`
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Component string         `json:"component,omitempty"`
	Field     string         `json:"field,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Cause     error          `json:"-"`
}

func (e *PagekitError) Error() string {
	if e.Component != "" && e.Field != "" {
		return fmt.Sprintf("[%s:%s] component %s field '%s': %s", e.Type, e.Code, e.Component, e.Field, e.Message)
	}
	if e.Component != "" {
		return fmt.Sprintf("[%s:%s] component %s: %s", e.Type, e.Code, e.Component, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("[%s:%s] field '%s': %s", e.Type, e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

func (e *PagekitError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a single detail
func (e *PagekitError) WithDetail(key string, value any) *PagekitError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause adds a cause
func (e *PagekitError) WithCause(cause error) *PagekitError {
	e.Cause = cause
	return e
}

// WithComponent adds component context
func (e *PagekitError) WithComponent(component string) *PagekitError {
	e.Component = component
	return e
}

// WithField adds field context
func (e *PagekitError) WithField(field string) *PagekitError {
	e.Field = field
	return e
}

const (
	ErrCodeInvalidJSON        = "INVALID_JSON"
	ErrCodeInvalidEnvelope    = "INVALID_ENVELOPE"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeComponentNotFound  = "COMPONENT_NOT_FOUND"
	ErrCodePresetNotFound     = "PRESET_NOT_FOUND"
	ErrCodeFieldNotFound      = "FIELD_NOT_FOUND"
	ErrCodeInvalidBreakpoint  = "INVALID_BREAKPOINT"
	ErrCodeSchemaInvalid      = "SCHEMA_INVALID"
	ErrCodeDesignNotFound     = "DESIGN_NOT_FOUND"
	ErrCodeDesignConflict     = "DESIGN_CONFLICT"
	ErrCodeProjectNotFound    = "PROJECT_NOT_FOUND"
	ErrCodeStorageUnavailable = "STORAGE_UNAVAILABLE"
	ErrCodeSaveFailed         = "SAVE_FAILED"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// NewPagekitError creates a new error
func NewPagekitError(errorType ErrorType, code, message string) *PagekitError {
	return &PagekitError{
		Type:    errorType,
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}
}

// NewValidationError creates a field-scoped validation error
func NewValidationError(field, message string) *PagekitError {
	return NewPagekitError(ErrorTypeValidation, ErrCodeValidationFailed, message).WithField(field)
}

// NewInvalidJSONError wraps a decoding failure of imported data
func NewInvalidJSONError(cause error) *PagekitError {
	return NewPagekitError(ErrorTypeValidation, ErrCodeInvalidJSON, "import data is not valid JSON").WithCause(cause)
}

// NewInvalidEnvelopeError reports an import envelope without a usable payload
func NewInvalidEnvelopeError(message string) *PagekitError {
	return NewPagekitError(ErrorTypeValidation, ErrCodeInvalidEnvelope, message)
}

// NewComponentNotFoundError creates a component not found error
func NewComponentNotFoundError(name string) *PagekitError {
	return NewPagekitError(ErrorTypeNotFound, ErrCodeComponentNotFound, "component not found").WithComponent(name)
}

// NewPresetNotFoundError creates a preset not found error
func NewPresetNotFoundError(component, preset string) *PagekitError {
	return NewPagekitError(ErrorTypeNotFound, ErrCodePresetNotFound, fmt.Sprintf("preset %q not found", preset)).
		WithComponent(component)
}

// NewFieldNotFoundError reports an edit to a key the schema does not declare
func NewFieldNotFoundError(component, field string) *PagekitError {
	return NewPagekitError(ErrorTypeNotFound, ErrCodeFieldNotFound, "field not declared by component").
		WithComponent(component).
		WithField(field)
}

// NewInvalidBreakpointError reports an unknown breakpoint id
func NewInvalidBreakpointError(bp Breakpoint) *PagekitError {
	return NewPagekitError(ErrorTypeValidation, ErrCodeInvalidBreakpoint, fmt.Sprintf("unknown breakpoint %q", bp))
}

// NewSchemaInvalidError reports a component schema that failed its self-check
func NewSchemaInvalidError(component string, problems []string) *PagekitError {
	return NewPagekitError(ErrorTypeSchema, ErrCodeSchemaInvalid, "component schema is invalid").
		WithComponent(component).
		WithDetail("problems", problems)
}

// NewDesignNotFoundError creates a design not found error
func NewDesignNotFoundError(componentID string) *PagekitError {
	return NewPagekitError(ErrorTypeNotFound, ErrCodeDesignNotFound, "design not found").
		WithDetail("componentId", componentID)
}

// NewDesignConflictError reports a component id already owned by another project
func NewDesignConflictError(componentID string) *PagekitError {
	return NewPagekitError(ErrorTypeConflict, ErrCodeDesignConflict, "design belongs to another project").
		WithDetail("componentId", componentID)
}

// NewInternalError wraps a failure that carries no pagekit classification
func NewInternalError(cause error) *PagekitError {
	return NewPagekitError(ErrorTypeInternal, ErrCodeInternalError, "internal error").WithCause(cause)
}

// NewSaveFailedError wraps a failed downstream save
func NewSaveFailedError(componentID string, cause error) *PagekitError {
	return NewPagekitError(ErrorTypeStorage, ErrCodeSaveFailed, "failed to save design").
		WithDetail("componentId", componentID).
		WithCause(cause)
}

// IsNotFound reports whether err is a pagekit not-found error
func IsNotFound(err error) bool {
	var pe *PagekitError
	if errors.As(err, &pe) {
		return pe.Type == ErrorTypeNotFound
	}
	return false
}
