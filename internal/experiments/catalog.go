// Package experiments is the catalog of named experiments. A name always selects the same
// sweep, so repeated invocations reproduce the same result distribution.
package experiments

import (
	"fmt"

	"github.com/talgya/swarmsim/internal/config"
)

// Entry is one named experiment.
type Entry struct {
	Name        string
	Description string
	Sweeps      []config.Sweep
}

// Configs expands every sweep of the entry, in order.
func (e Entry) Configs() []config.Experiment {
	var out []config.Experiment
	for _, s := range e.Sweeps {
		out = append(out, s.Expand()...)
	}
	return out
}

// Names lists the catalog in presentation order.
func Names() []string {
	return []string{"baseline", "scaling", "complexity", "saturation", "all"}
}

// Lookup returns the named experiment.
func Lookup(name string) (Entry, error) {
	switch name {
	case "baseline":
		return Entry{Name: name, Description: "four movement policies at N=50 over 2000 steps", Sweeps: []config.Sweep{baseline()}}, nil
	case "scaling":
		return Entry{Name: name, Description: "swarm sizes 20 to 200 over 1000 steps", Sweeps: []config.Sweep{scaling()}}, nil
	case "complexity":
		return Entry{Name: name, Description: "swarm size against squashing gain", Sweeps: []config.Sweep{complexity()}}, nil
	case "saturation":
		return Entry{Name: name, Description: "pairwise coupling as the swarm grows", Sweeps: []config.Sweep{saturation()}}, nil
	case "all":
		return Entry{
			Name:        name,
			Description: "every experiment",
			Sweeps:      []config.Sweep{baseline(), scaling(), complexity(), saturation()},
		}, nil
	default:
		return Entry{}, fmt.Errorf("unknown experiment %q (known: %v)", name, Names())
	}
}

func base(name string, steps int) config.Experiment {
	cfg := config.Default()
	cfg.Name = name
	cfg.StepCount = steps
	cfg.ReportEvery = 100
	return cfg
}

func baseline() config.Sweep {
	cfg := base("baseline", 2000)
	cfg.Metrics = config.KnownMetrics
	return config.Sweep{
		Name: "baseline",
		Base: cfg,
		Grid: config.Grid{
			Policies: []config.Policy{config.PolicyStandard, config.PolicyRandom, config.PolicyBoids, config.PolicyGreedy},
		},
	}
}

func scaling() config.Sweep {
	cfg := base("scaling", 1000)
	cfg.Metrics = config.KnownMetrics
	return config.Sweep{
		Name: "scaling",
		Base: cfg,
		Grid: config.Grid{SwarmSizes: []int{20, 50, 100, 200}},
	}
}

func complexity() config.Sweep {
	cfg := base("complexity", 500)
	cfg.Metrics = []string{config.MetricIntegration, config.MetricComplexity}
	return config.Sweep{
		Name: "complexity",
		Base: cfg,
		Grid: config.Grid{
			SwarmSizes:   []int{2, 5, 10, 20, 50},
			Complexities: []float64{0.5, 1, 2, 4},
			Seeds:        []int64{1, 2, 3},
		},
	}
}

func saturation() config.Sweep {
	cfg := base("saturation", 500)
	cfg.Metrics = []string{config.MetricSaturation, config.MetricIntegration}
	return config.Sweep{
		Name: "saturation",
		Base: cfg,
		Grid: config.Grid{
			SwarmSizes: []int{5, 10, 20, 40, 80, 160},
			Seeds:      []int64{1, 2},
		},
	}
}
