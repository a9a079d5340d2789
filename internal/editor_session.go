package internal

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lychee-technology/pagekit"
	"go.uber.org/zap"
)

// EditorOptions wires one editing session.
type EditorOptions struct {
	ComponentID string
	Schema      *pagekit.ComponentSchema
	Config      pagekit.EditorConfig

	// Initial replaces the schema defaults as the starting value set.
	Initial       pagekit.ValueSet
	InitialStyles pagekit.BreakpointStyleMap

	// Validator may be shared between sessions; nil creates a private one.
	Validator *pagekit.Validator
	Store     pagekit.DesignStore
	Preview   pagekit.PreviewSink

	SaveTimeout time.Duration
}

// editorSession implements pagekit.Editor. State is guarded by mu; the store,
// the preview sink and the debouncers are always called without it.
type editorSession struct {
	mu sync.Mutex

	componentID string
	schema      *pagekit.ComponentSchema
	cfg         pagekit.EditorConfig
	graph       *pagekit.DependencyGraph
	validator   *pagekit.Validator

	values  pagekit.ValueSet
	styles  *pagekit.BreakpointStore
	history *pagekit.History[pagekit.Snapshot]
	active  pagekit.Breakpoint

	store       pagekit.DesignStore
	sink        pagekit.PreviewSink
	saveTimeout time.Duration
	preview     *Debouncer
	autoSave    *Debouncer
	lastSaveErr error
	closed      atomic.Bool
}

// NewEditorSession builds a session seeded with the schema defaults (or
// opts.Initial) and a single-entry history.
func NewEditorSession(opts EditorOptions) (pagekit.Editor, error) {
	if opts.Schema == nil {
		return nil, fmt.Errorf("editor session requires a component schema")
	}
	if opts.ComponentID == "" {
		return nil, pagekit.NewValidationError("componentId", "component id cannot be empty")
	}
	if err := opts.Schema.Check(); err != nil {
		return nil, err
	}

	active := opts.Config.DefaultBreakpoint
	if active == "" {
		active = pagekit.BreakpointDesktop
	}
	if !active.Valid() {
		return nil, pagekit.NewInvalidBreakpointError(active)
	}

	validator := opts.Validator
	if validator == nil {
		validator = pagekit.NewValidator()
	}

	values := opts.Schema.Defaults()
	if opts.Initial != nil {
		values = opts.Initial.Clone()
	}
	styles := pagekit.NewBreakpointStore(opts.InitialStyles)

	saveTimeout := opts.SaveTimeout
	if saveTimeout <= 0 {
		saveTimeout = 10 * time.Second
	}

	e := &editorSession{
		componentID: opts.ComponentID,
		schema:      opts.Schema,
		cfg:         opts.Config,
		graph:       pagekit.BuildDependencyGraph(opts.Schema.Fields),
		validator:   validator,
		values:      values,
		styles:      styles,
		history:     pagekit.NewHistory(pagekit.NewSnapshot(values, styles.Snapshot()), opts.Config.HistoryLimit),
		active:      active,
		store:       opts.Store,
		sink:        opts.Preview,
		saveTimeout: saveTimeout,
		preview:     NewDebouncer(opts.Config.PreviewDebounce),
		autoSave:    NewDebouncer(opts.Config.AutoSaveDelay),
	}
	return e, nil
}

func (e *editorSession) ComponentID() string { return e.componentID }

func (e *editorSession) Schema() *pagekit.ComponentSchema { return e.schema }

// SetValue records one field edit. Unknown keys are kept unless StrictKeys is set.
func (e *editorSession) SetValue(key pagekit.FieldKey, value any) error {
	return e.edit(func() error {
		if _, ok := e.schema.Field(key); !ok && e.cfg.StrictKeys {
			return pagekit.NewFieldNotFoundError(e.schema.Name, key)
		}
		incoming := pagekit.ValueSet{key: value}.Clone()
		e.values[key] = incoming[key]
		return nil
	})
}

func (e *editorSession) Values() pagekit.ValueSet {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.values.Clone()
}

func (e *editorSession) ResolvedProps() pagekit.ValueSet {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resolvedPropsLocked()
}

// resolvedPropsLocked merges defaults under the current values and keeps only
// declared fields that are visible.
func (e *editorSession) resolvedPropsLocked() pagekit.ValueSet {
	props := pagekit.ValueSet{}
	for _, f := range e.graph.VisibleFields(e.values) {
		if v, ok := e.values[f.Key]; ok {
			props[f.Key] = v
		} else if f.Default != nil {
			props[f.Key] = f.Default
		}
	}
	return props.Clone()
}

func (e *editorSession) VisibleFields() []pagekit.FieldDefinition {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.schema.SortFields(e.graph.VisibleFields(e.values))
}

func (e *editorSession) FieldStates() []pagekit.FieldState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph.States(e.values)
}

func (e *editorSession) AffectedFields(key pagekit.FieldKey) []pagekit.FieldKey {
	return e.graph.AffectedFields(key)
}

// Validate checks every visible field; hidden fields are skipped.
func (e *editorSession) Validate() map[pagekit.FieldKey]pagekit.ValidationResult {
	e.mu.Lock()
	results := e.validator.ValidateVisible(e.values, e.schema.Fields, e.graph)
	e.mu.Unlock()

	failing := 0
	for _, r := range results {
		if !r.IsValid {
			failing++
		}
	}
	EmitValidationErrors(context.Background(), e.schema.Name, failing)
	return results
}

func (e *editorSession) SetStyle(bp pagekit.Breakpoint, key string, value any) error {
	return e.edit(func() error {
		return e.styles.Update(bp, key, value)
	})
}

func (e *editorSession) InheritStyles(from, to pagekit.Breakpoint, keys ...string) error {
	return e.edit(func() error {
		return e.styles.Inherit(from, to, keys...)
	})
}

func (e *editorSession) ResetStyles(bp pagekit.Breakpoint) error {
	return e.edit(func() error {
		return e.styles.ResetAt(bp)
	})
}

// SetActiveBreakpoint switches the preview breakpoint. It is not an edit and
// does not touch history.
func (e *editorSession) SetActiveBreakpoint(bp pagekit.Breakpoint) error {
	if !bp.Valid() {
		return pagekit.NewInvalidBreakpointError(bp)
	}
	e.mu.Lock()
	e.active = bp
	e.mu.Unlock()

	e.schedulePreview()
	return nil
}

func (e *editorSession) ActiveBreakpoint() pagekit.Breakpoint {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

func (e *editorSession) Styles() pagekit.BreakpointStyleMap {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.styles.Snapshot()
}

func (e *editorSession) ResolvedStyles() pagekit.StyleMap {
	e.mu.Lock()
	defer e.mu.Unlock()
	styles, _ := e.styles.ResolveFor(e.active)
	return styles
}

func (e *editorSession) Undo() bool {
	return e.travel(true)
}

func (e *editorSession) Redo() bool {
	return e.travel(false)
}

// travel steps one entry back (or forward) and restores the entry it lands on.
func (e *editorSession) travel(back bool) bool {
	e.mu.Lock()
	var snap pagekit.Snapshot
	var ok bool
	if back {
		snap, ok = e.history.Undo()
	} else {
		snap, ok = e.history.Redo()
	}
	if ok {
		e.values = snap.Values.Clone()
		e.styles.Restore(snap.Styles)
	}
	e.mu.Unlock()

	if ok {
		e.notify()
	}
	return ok
}

func (e *editorSession) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanUndo()
}

func (e *editorSession) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanRedo()
}

// ApplyPreset merges the preset's values and styles as one undoable edit.
func (e *editorSession) ApplyPreset(key string) error {
	preset, ok := e.schema.Preset(key)
	if !ok {
		return pagekit.NewPresetNotFoundError(e.schema.Name, key)
	}
	return e.edit(func() error {
		styles := pagekit.NewBreakpointStore(e.styles.Snapshot())
		if err := pagekit.ApplyPresetStyles(preset, styles); err != nil {
			return err
		}
		e.values = pagekit.ApplyPreset(preset, e.values)
		e.styles = styles
		return nil
	})
}

// Reset restores schema defaults and clears every style override. It is
// recorded in history, so it can be undone.
func (e *editorSession) Reset() {
	_ = e.edit(func() error {
		e.values = e.schema.Defaults()
		e.styles.ResetAll()
		return nil
	})
}

func (e *editorSession) Export(meta map[string]any) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exportLocked(meta)
}

func (e *editorSession) exportLocked(meta map[string]any) ([]byte, error) {
	merged := map[string]any{
		"componentId": e.componentID,
		"component":   e.schema.Name,
	}
	if e.schema.Version != 0 {
		merged["schemaVersion"] = e.schema.Version
	}
	for k, v := range meta {
		merged[k] = v
	}
	return pagekit.ExportDesignToJSON(e.values, e.styles.Snapshot(), merged)
}

// Import replaces the value set as one undoable edit. When the envelope
// carries a style payload, even an empty one, the styles are replaced too.
// Unknown keys are dropped.
func (e *editorSession) Import(data []byte) error {
	values, styles, err := pagekit.ImportDesignFromJSON(data, e.schema.Fields)
	if err != nil {
		return err
	}

	return e.edit(func() error {
		e.values = values
		if styles != nil {
			e.styles.Restore(styles)
		}
		return nil
	})
}

// Save exports the current design and hands it to the store. A failure is
// recorded for LastSaveError and returned; it is never retried.
func (e *editorSession) Save(ctx context.Context) error {
	e.autoSave.Cancel()
	return e.save(ctx)
}

func (e *editorSession) save(ctx context.Context) error {
	if e.store == nil {
		return pagekit.NewPagekitError(pagekit.ErrorTypeStorage, pagekit.ErrCodeStorageUnavailable, "no design store configured").
			WithComponent(e.schema.Name)
	}

	e.mu.Lock()
	envelope, err := e.exportLocked(nil)
	e.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to export design: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.saveTimeout)
	defer cancel()

	start := time.Now()
	err = e.store.Save(ctx, e.componentID, envelope)
	elapsed := time.Since(start).Milliseconds()

	e.mu.Lock()
	e.lastSaveErr = err
	e.mu.Unlock()

	if err != nil {
		EmitSaveLatency(ctx, "error", elapsed)
		zap.S().Warnw("design save failed", "componentId", e.componentID, "component", e.schema.Name, "error", err)
		return err
	}
	EmitSaveLatency(ctx, "ok", elapsed)
	zap.S().Debugw("design saved", "componentId", e.componentID, "bytes", len(envelope), "ms", elapsed)
	return nil
}

// Load replaces the session state with the stored design and starts a fresh
// history from it.
func (e *editorSession) Load(ctx context.Context) error {
	if e.store == nil {
		return pagekit.NewPagekitError(pagekit.ErrorTypeStorage, pagekit.ErrCodeStorageUnavailable, "no design store configured").
			WithComponent(e.schema.Name)
	}
	data, err := e.store.Load(ctx, e.componentID)
	if err != nil {
		return err
	}
	values, styles, err := pagekit.ImportDesignFromJSON(data, e.schema.Fields)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.values = values
	e.styles.Restore(styles)
	e.history = pagekit.NewHistory(pagekit.NewSnapshot(e.values, e.styles.Snapshot()), e.cfg.HistoryLimit)
	e.mu.Unlock()

	e.schedulePreview()
	return nil
}

func (e *editorSession) LastSaveError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastSaveErr
}

// Close drops pending preview and auto-save calls. The session stays readable.
func (e *editorSession) Close() {
	e.closed.Store(true)
	e.preview.Cancel()
	e.autoSave.Cancel()
}

// edit applies fn under the lock and, when it succeeds, records the result
// in history and notifies the debounced collaborators after unlocking.
func (e *editorSession) edit(fn func() error) error {
	e.mu.Lock()
	if err := fn(); err != nil {
		e.mu.Unlock()
		return err
	}
	e.history.Push(pagekit.NewSnapshot(e.values, e.styles.Snapshot()))
	depth := e.history.Len()
	e.mu.Unlock()

	EmitHistoryDepth(context.Background(), e.schema.Name, depth)
	e.notify()
	return nil
}

func (e *editorSession) notify() {
	e.schedulePreview()
	e.scheduleAutoSave()
}

func (e *editorSession) schedulePreview() {
	if e.sink == nil || e.closed.Load() {
		return
	}
	e.preview.Schedule(e.firePreview)
}

func (e *editorSession) firePreview() {
	if e.closed.Load() {
		return
	}
	e.mu.Lock()
	props := e.resolvedPropsLocked()
	styles, _ := e.styles.ResolveFor(e.active)
	e.mu.Unlock()

	e.sink.Preview(e.componentID, props, styles)
}

func (e *editorSession) scheduleAutoSave() {
	if !e.cfg.AutoSaveEnabled || e.store == nil || e.closed.Load() {
		return
	}
	e.autoSave.Schedule(func() {
		if e.closed.Load() {
			return
		}
		// Failures are already recorded and logged by save.
		_ = e.save(context.Background())
	})
}
