package internal

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type promTelemetry struct {
	saveLatency      *prometheus.HistogramVec
	validationErrors *prometheus.GaugeVec
	historyDepth     *prometheus.GaugeVec
}

// RegisterPrometheusTelemetry registers editor metrics on reg and routes the
// telemetry hooks to them.
func RegisterPrometheusTelemetry(reg prometheus.Registerer) error {
	t := &promTelemetry{
		saveLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pagekit",
			Name:      "design_save_latency_ms",
			Help:      "Design save latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}, []string{"outcome"}),
		validationErrors: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "pagekit",
			Name:      "editor_validation_errors",
			Help:      "Fields failing validation on the last validation pass.",
		}, []string{"component"}),
		historyDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "pagekit",
			Name:      "editor_history_depth",
			Help:      "History length after the last edit.",
		}, []string{"component"}),
	}

	for _, c := range []prometheus.Collector{t.saveLatency, t.validationErrors, t.historyDepth} {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("register editor metric: %w", err)
		}
	}

	RegisterTelemetryEmitter(t.emit)
	return nil
}

func (t *promTelemetry) emit(_ context.Context, name string, labels map[string]string, value any) {
	v, ok := metricValue(value)
	if !ok {
		zap.S().Debugw("dropping non-numeric telemetry value", "metric", name)
		return
	}
	switch name {
	case "design_save_latency_ms":
		t.saveLatency.WithLabelValues(labels["outcome"]).Observe(v)
	case "editor_validation_errors":
		t.validationErrors.WithLabelValues(labels["component"]).Set(v)
	case "editor_history_depth":
		t.historyDepth.WithLabelValues(labels["component"]).Set(v)
	}
}

func metricValue(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}
