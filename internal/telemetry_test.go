package internal

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emitted struct {
	name   string
	labels map[string]string
	value  any
}

func TestTelemetryFromEditor(t *testing.T) {
	var mu sync.Mutex
	var events []emitted
	RegisterTelemetryEmitter(func(ctx context.Context, name string, labels map[string]string, value any) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, emitted{name: name, labels: labels, value: value})
	})
	t.Cleanup(func() { RegisterTelemetryEmitter(nil) })

	editor := newTestEditor(t, EditorOptions{Store: NewMemoryDesignStore()})
	require.NoError(t, editor.SetValue("label", ""))
	editor.Validate()
	require.NoError(t, editor.Save(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 3)
	assert.Equal(t, emitted{"editor_history_depth", map[string]string{"component": "button"}, 2}, events[0])
	assert.Equal(t, emitted{"editor_validation_errors", map[string]string{"component": "button"}, 1}, events[1])
	assert.Equal(t, "design_save_latency_ms", events[2].name)
	assert.Equal(t, map[string]string{"outcome": "ok"}, events[2].labels)
}

func TestRegisterNilEmitterRestoresNoop(t *testing.T) {
	RegisterTelemetryEmitter(nil)
	assert.NotPanics(t, func() {
		EmitHistoryDepth(context.Background(), "button", 1)
	})
}
