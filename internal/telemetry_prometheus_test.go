package internal

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusTelemetry(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, RegisterPrometheusTelemetry(reg))
	t.Cleanup(func() { RegisterTelemetryEmitter(nil) })

	editor := newTestEditor(t, EditorOptions{Store: NewMemoryDesignStore()})
	require.NoError(t, editor.SetValue("label", ""))
	require.NoError(t, editor.SetValue("label", "Go"))
	editor.Validate()
	require.NoError(t, editor.Save(context.Background()))

	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	families, err := reg.Gather()
	require.NoError(t, err)
	byName := map[string]float64{}
	for _, mf := range families {
		m := mf.GetMetric()[0]
		switch {
		case m.GetGauge() != nil:
			byName[mf.GetName()] = m.GetGauge().GetValue()
		case m.GetHistogram() != nil:
			byName[mf.GetName()] = float64(m.GetHistogram().GetSampleCount())
		}
	}
	assert.Equal(t, float64(3), byName["pagekit_editor_history_depth"])
	assert.Equal(t, float64(1), byName["pagekit_design_save_latency_ms"])
	assert.Contains(t, byName, "pagekit_editor_validation_errors")
}

func TestPrometheusTelemetryDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, RegisterPrometheusTelemetry(reg))
	t.Cleanup(func() { RegisterTelemetryEmitter(nil) })

	assert.Error(t, RegisterPrometheusTelemetry(reg))
}

func TestMetricValue(t *testing.T) {
	v, ok := metricValue(int64(12))
	assert.True(t, ok)
	assert.Equal(t, float64(12), v)

	_, ok = metricValue("12")
	assert.False(t, ok)
}
