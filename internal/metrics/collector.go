// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector records scheduling and checkpoint metrics for simulation runs.
type Collector struct {
	stepsTotal         prometheus.Counter
	consultationsTotal *prometheus.CounterVec
	currentPeriod      prometheus.Gauge
	checkpointDuration prometheus.Histogram

	logger *zap.Logger
}

// NewCollector creates a Collector registered against reg. When reg is nil,
// the default prometheus registerer is used.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.stepsTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "steps_total",
		Help:      "Total number of simulation steps seen by the plugin manager",
	})

	c.consultationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consultations_total",
			Help:      "Total number of plugin consultations by merged action",
		},
		[]string{"action"},
	)

	c.currentPeriod = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "consultation_period_steps",
		Help:      "Current number of steps between plugin consultations",
	})

	c.checkpointDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "checkpoint_duration_seconds",
		Help:      "Checkpoint duration in seconds",
		Buckets:   prometheus.DefBuckets,
	})

	c.logger.Info("metrics collector initialized", zap.String("namespace", namespace))
	return c
}

// RecordStep counts one simulation step.
func (c *Collector) RecordStep() {
	c.stepsTotal.Inc()
}

// RecordConsultation counts one consultation with its merged action and the
// newly recomputed period.
func (c *Collector) RecordConsultation(action string, period uint64) {
	c.consultationsTotal.WithLabelValues(action).Inc()
	c.currentPeriod.Set(float64(period))
}

// ObserveCheckpoint records the duration of a successful checkpoint.
func (c *Collector) ObserveCheckpoint(d time.Duration) {
	c.checkpointDuration.Observe(d.Seconds())
}
