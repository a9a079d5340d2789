package pagekit

import (
	"context"
)

// DesignStore is the persistence collaborator. It stores exported envelopes
// keyed by component instance id and knows nothing about their contents.
type DesignStore interface {
	Save(ctx context.Context, componentID string, envelope []byte) error
	// Load returns a not-found PagekitError when nothing is stored under componentID.
	Load(ctx context.Context, componentID string) ([]byte, error)
}

// PreviewSink is the render-surface collaborator. It receives fully resolved
// props and the styles of the active breakpoint.
type PreviewSink interface {
	Preview(componentID string, props ValueSet, styles StyleMap)
}

// PreviewFunc adapts a function to PreviewSink.
type PreviewFunc func(componentID string, props ValueSet, styles StyleMap)

func (f PreviewFunc) Preview(componentID string, props ValueSet, styles StyleMap) {
	f(componentID, props, styles)
}

// Editor is one editing session over a single component instance.
type Editor interface {
	ComponentID() string
	Schema() *ComponentSchema

	// Field edits
	SetValue(key FieldKey, value any) error
	Values() ValueSet
	ResolvedProps() ValueSet
	VisibleFields() []FieldDefinition
	FieldStates() []FieldState
	AffectedFields(key FieldKey) []FieldKey
	Validate() map[FieldKey]ValidationResult

	// Responsive styles
	SetStyle(bp Breakpoint, key string, value any) error
	InheritStyles(from, to Breakpoint, keys ...string) error
	ResetStyles(bp Breakpoint) error
	SetActiveBreakpoint(bp Breakpoint) error
	ActiveBreakpoint() Breakpoint
	Styles() BreakpointStyleMap
	ResolvedStyles() StyleMap

	// History
	Undo() bool
	Redo() bool
	CanUndo() bool
	CanRedo() bool

	// Bulk operations
	ApplyPreset(key string) error
	Reset()
	Export(meta map[string]any) ([]byte, error)
	Import(data []byte) error

	// Persistence
	Save(ctx context.Context) error
	Load(ctx context.Context) error
	LastSaveError() error

	Close()
}
