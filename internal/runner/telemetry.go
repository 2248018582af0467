package runner

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/talgya/swarmsim/internal/metrics"
)

// Telemetry holds the runner's Prometheus collectors. A nil *Telemetry records nothing.
type Telemetry struct {
	Runs        *prometheus.CounterVec
	RunSeconds  *prometheus.HistogramVec
	Steps       prometheus.Counter
	Undefined   *prometheus.CounterVec
	Instability *prometheus.CounterVec
}

// NewTelemetry creates the collectors and registers them with reg when reg is non-nil.
func NewTelemetry(reg prometheus.Registerer) *Telemetry {
	t := &Telemetry{
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swarmsim_runs_total",
				Help: "Finished sweep entries by outcome.",
			},
			[]string{"experiment", "outcome"},
		),
		RunSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "swarmsim_run_duration_seconds",
				Help:    "Wall time of successful runs.",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
			},
			[]string{"experiment"},
		),
		Steps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "swarmsim_steps_total",
			Help: "Simulation steps taken by successful runs.",
		}),
		Undefined: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swarmsim_metric_undefined_total",
				Help: "Metric values left undefined.",
			},
			[]string{"metric"},
		),
		Instability: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swarmsim_metric_instability_total",
				Help: "Metric values flagged as numerically unstable.",
			},
			[]string{"metric"},
		),
	}
	if reg != nil {
		reg.MustRegister(t.Runs, t.RunSeconds, t.Steps, t.Undefined, t.Instability)
	}
	return t
}

func (t *Telemetry) observe(o Outcome) {
	if t == nil {
		return
	}
	name := o.Config.Name
	if o.Err != nil {
		t.Runs.WithLabelValues(name, o.Kind()).Inc()
		return
	}
	t.Runs.WithLabelValues(name, "ok").Inc()
	t.RunSeconds.WithLabelValues(name).Observe(o.Elapsed.Seconds())
	t.Steps.Add(float64(o.Config.StepCount))
	for metric, v := range o.Result.Values {
		if !v.Defined {
			t.Undefined.WithLabelValues(metric).Inc()
		}
		if v.HasFlag(metrics.FlagNumericInstability) {
			t.Instability.WithLabelValues(metric).Inc()
		}
	}
}
