package metrics

import (
	"fmt"

	"github.com/talgya/swarmsim/internal/config"
	"github.com/talgya/swarmsim/internal/engine"
)

// Sample is one metric value computed over one window.
type Sample struct {
	Value float64
	Flags Flags
}

// Metric computes a scalar from a window of consecutive collective states.
// Implementations are stateless and safe for concurrent use.
type Metric interface {
	Name() string
	Window(win engine.Trajectory, p config.MetricParams) Sample
}

// registry is the closed set of metric variants, keyed by name.
var registry = map[string]Metric{
	config.MetricIntegration: integration{},
	config.MetricComplexity:  complexity{},
	config.MetricSaturation:  saturation{},
	config.MetricCoherence:   coherence{},
	config.MetricFlow:        flow{},
}

// Lookup returns the metric registered under name.
func Lookup(name string) (Metric, error) {
	m, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownMetric, name)
	}
	return m, nil
}

// Names returns every registered metric name in a fixed order.
func Names() []string {
	return append([]string(nil), config.KnownMetrics...)
}
