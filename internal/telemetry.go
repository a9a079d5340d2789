package internal

import (
	"context"
	"sync"
)

// Lightweight telemetry hooks for editor sessions. The default emitter is a
// no-op; service wiring may register a metrics-backed emitter or a test stub.

type telemetryEmitter func(ctx context.Context, name string, labels map[string]string, value any)

var (
	teleMu   sync.Mutex
	teleImpl telemetryEmitter = func(ctx context.Context, name string, labels map[string]string, value any) {}
)

// RegisterTelemetryEmitter registers a custom emitter function. Passing nil
// restores the no-op emitter.
func RegisterTelemetryEmitter(fn telemetryEmitter) {
	teleMu.Lock()
	defer teleMu.Unlock()
	if fn == nil {
		teleImpl = func(ctx context.Context, name string, labels map[string]string, value any) {}
		return
	}
	teleImpl = fn
}

func emit(ctx context.Context, name string, labels map[string]string, value any) {
	teleMu.Lock()
	fn := teleImpl
	teleMu.Unlock()
	fn(ctx, name, labels, value)
}

// EmitSaveLatency records how long a design save took, in milliseconds.
// name: "design_save_latency_ms" with label {"outcome": "ok"|"error"}
func EmitSaveLatency(ctx context.Context, outcome string, ms int64) {
	emit(ctx, "design_save_latency_ms", map[string]string{"outcome": outcome}, ms)
}

// EmitValidationErrors records the number of fields failing validation.
// name: "editor_validation_errors" with label {"component": "<name>"}
func EmitValidationErrors(ctx context.Context, component string, count int) {
	emit(ctx, "editor_validation_errors", map[string]string{"component": component}, count)
}

// EmitHistoryDepth records the history length after an edit.
// name: "editor_history_depth" with label {"component": "<name>"}
func EmitHistoryDepth(ctx context.Context, component string, depth int) {
	emit(ctx, "editor_history_depth", map[string]string{"component": component}, depth)
}
