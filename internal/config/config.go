// Package config defines the experiment configuration consumed by the simulation core.
//
// An Experiment is an immutable value: the core copies it, reads it, and never writes it back.
// Defaults trace to internal/phi. Files are loaded by Load and expanded into run grids by
// Sweep.Expand.
package config

import (
	"fmt"
	"slices"

	"github.com/talgya/swarmsim/internal/phi"
)

// Boundary selects how positions leaving the box are brought back inside.
type Boundary string

const (
	BoundaryReflect Boundary = "reflect"
	BoundaryWrap    Boundary = "wrap" // toroidal
)

// Rule is a neighbour connectivity rule.
type Rule string

const (
	RuleDistance    Rule = "distance-threshold"
	RuleKNearest    Rule = "k-nearest"
	RuleFixedRandom Rule = "fixed-random"
)

// Aggregation combines neighbour activations into one coupling input.
type Aggregation string

const (
	AggregateMean Aggregation = "mean"
	AggregateMax  Aggregation = "max"
	AggregateSum  Aggregation = "sum"
)

// Policy is the movement rule shared by every agent in a run.
type Policy string

const (
	PolicyStandard Policy = "standard" // velocity plus bounded random walk
	PolicyRandom   Policy = "random"   // random walk only, no neighbour coupling
	PolicyBoids    Policy = "boids"    // velocity relaxes toward neighbours
	PolicyGreedy   Policy = "greedy"   // velocity climbs the environment field
)

// IntegrationMode selects the integration metric variant.
type IntegrationMode string

const (
	IntegrationTotalCorrelation IntegrationMode = "total-correlation"
	IntegrationPredictive       IntegrationMode = "predictive"
)

// Metric names. The metrics registry is keyed by these.
const (
	MetricIntegration = "integration"
	MetricComplexity  = "complexity"
	MetricSaturation  = "saturation"
	MetricCoherence   = "coherence"
	MetricFlow        = "information_flow"
)

// KnownMetrics lists every metric name in registry order.
var KnownMetrics = []string{
	MetricIntegration,
	MetricComplexity,
	MetricSaturation,
	MetricCoherence,
	MetricFlow,
}

// Bounds is an axis-aligned box. len(Min) == len(Max) is the spatial dimension D.
type Bounds struct {
	Min []float64 `yaml:"min" json:"min"`
	Max []float64 `yaml:"max" json:"max"`
}

// Dim returns the spatial dimension.
func (b Bounds) Dim() int {
	return len(b.Min)
}

// Connectivity describes how the neighbour graph is built.
type Connectivity struct {
	Rule Rule `yaml:"rule" json:"rule"`

	// Radius is the distance threshold (distance-threshold).
	Radius float64 `yaml:"radius,omitempty" json:"radius,omitempty" mapstructure:"radius"`
	// K is the neighbour count (k-nearest).
	K int `yaml:"k,omitempty" json:"k,omitempty" mapstructure:"k"`
	// Degree is the expected mean degree of the fixed random graph (fixed-random).
	Degree float64 `yaml:"degree,omitempty" json:"degree,omitempty" mapstructure:"degree"`
	// Cadence rebuilds position-based graphs every Cadence steps. 0 and 1 mean every step.
	Cadence int `yaml:"cadence,omitempty" json:"cadence,omitempty" mapstructure:"cadence"`
	// Directed keeps k-nearest edges one-way instead of mirroring them.
	Directed bool `yaml:"directed,omitempty" json:"directed,omitempty" mapstructure:"directed"`

	// Params carries rule-specific parameters from config files; Resolve decodes them
	// into the typed fields above.
	Params map[string]any `yaml:"params,omitempty" json:"-"`
}

// Distribution describes the initial activation draw.
type Distribution struct {
	Kind  string  `yaml:"kind" json:"kind"` // "uniform" or "normal"
	Low   float64 `yaml:"low,omitempty" json:"low,omitempty"`
	High  float64 `yaml:"high,omitempty" json:"high,omitempty"`
	Mean  float64 `yaml:"mean,omitempty" json:"mean,omitempty"`
	Scale float64 `yaml:"scale,omitempty" json:"scale,omitempty"`
}

// Dynamics holds the agent update parameters.
type Dynamics struct {
	Policy           Policy      `yaml:"policy" json:"policy"`
	Decay            float64     `yaml:"decay" json:"decay"`
	Coupling         float64     `yaml:"coupling" json:"coupling"`
	Aggregation      Aggregation `yaml:"aggregation" json:"aggregation"`
	FallbackCoupling float64     `yaml:"fallback_coupling" json:"fallback_coupling"`
	ActivationMin    float64     `yaml:"activation_min" json:"activation_min"`
	ActivationMax    float64     `yaml:"activation_max" json:"activation_max"`
	Noise            float64     `yaml:"noise" json:"noise"`
	StepScale        float64     `yaml:"step_scale" json:"step_scale"`
	MaxSpeed         float64     `yaml:"max_speed" json:"max_speed"`
	InitialSpeed     float64     `yaml:"initial_speed" json:"initial_speed"`
	Alignment        float64     `yaml:"alignment" json:"alignment"`
	InitialEnergy    float64     `yaml:"initial_energy" json:"initial_energy"`
	EnergyDecay      float64     `yaml:"energy_decay" json:"energy_decay"`
	InformedFraction float64     `yaml:"informed_fraction" json:"informed_fraction"`
	FieldStrength    float64     `yaml:"field_strength" json:"field_strength"`
	FieldScale       float64     `yaml:"field_scale" json:"field_scale"`
	FieldTimeScale   float64     `yaml:"field_time_scale" json:"field_time_scale"`

	InitialActivation Distribution `yaml:"initial_activation" json:"initial_activation"`
}

// MetricParams holds the metric engine tuning.
type MetricParams struct {
	Epsilon             float64         `yaml:"epsilon" json:"epsilon"`
	IntegrationMode     IntegrationMode `yaml:"integration_mode" json:"integration_mode"`
	OptimalDegree       float64         `yaml:"optimal_degree" json:"optimal_degree"`
	SaturationCeiling   float64         `yaml:"saturation_ceiling" json:"saturation_ceiling"`
	SaturationTolerance float64         `yaml:"saturation_tolerance" json:"saturation_tolerance"`
	// ReportWindows keeps the per-window sequence in results.
	ReportWindows bool `yaml:"report_windows" json:"report_windows"`
}

// Experiment is the full parameter set for one simulation run.
type Experiment struct {
	Name         string       `yaml:"name" json:"name"`
	SwarmSize    int          `yaml:"swarm_size" json:"swarm_size"`
	Bounds       Bounds       `yaml:"bounds" json:"bounds"`
	Boundary     Boundary     `yaml:"boundary" json:"boundary"`
	StepCount    int          `yaml:"step_count" json:"step_count"`
	Complexity   float64      `yaml:"complexity" json:"complexity"`
	Connectivity Connectivity `yaml:"connectivity" json:"connectivity"`
	Seed         int64        `yaml:"seed" json:"seed"`
	MetricWindow int          `yaml:"metric_window" json:"metric_window"`
	Metrics      []string     `yaml:"metrics" json:"metrics"`
	Dynamics     Dynamics     `yaml:"dynamics" json:"dynamics"`
	MetricParams MetricParams `yaml:"metric_params" json:"metric_params"`

	// ReportEvery logs simulation progress every N steps. 0 disables progress logs.
	ReportEvery int `yaml:"report_every" json:"report_every"`
}

// Key identifies a run for downstream joining.
type Key struct {
	Name       string  `json:"name" db:"name"`
	SwarmSize  int     `json:"swarm_size" db:"swarm_size"`
	Complexity float64 `json:"complexity" db:"complexity"`
	Seed       int64   `json:"seed" db:"seed"`
	Policy     Policy  `json:"policy" db:"policy"`
}

// String renders the key for logs and CLI tables.
func (k Key) String() string {
	return fmt.Sprintf("%s n=%d c=%g seed=%d policy=%s", k.Name, k.SwarmSize, k.Complexity, k.Seed, k.Policy)
}

// Key returns the identifying parameters of the experiment.
func (e Experiment) Key() Key {
	return Key{
		Name:       e.Name,
		SwarmSize:  e.SwarmSize,
		Complexity: e.Complexity,
		Seed:       e.Seed,
		Policy:     e.Dynamics.Policy,
	}
}

// Default returns the baseline experiment: 50 agents on a 50×50 torus under the standard
// policy.
func Default() Experiment {
	return Experiment{
		Name:       "default",
		SwarmSize:  50,
		Bounds:     Bounds{Min: []float64{0, 0}, Max: []float64{50, 50}},
		Boundary:   BoundaryWrap,
		StepCount:  500,
		Complexity: phi.Monad,
		Connectivity: Connectivity{
			Rule:    RuleDistance,
			Radius:  2 * phi.Nous,
			K:       int(phi.Excess),
			Degree:  phi.Completion,
			Cadence: 1,
		},
		Seed:         42,
		MetricWindow: 32,
		Metrics:      []string{MetricIntegration, MetricComplexity, MetricSaturation},
		Dynamics: Dynamics{
			Policy:           PolicyStandard,
			Decay:            phi.Matter,
			Coupling:         phi.Psyche,
			Aggregation:      AggregateMean,
			FallbackCoupling: 0,
			ActivationMin:    -phi.Monad,
			ActivationMax:    phi.Monad,
			Noise:            phi.Agnosis * phi.Agnosis,
			StepScale:        phi.Agnosis,
			MaxSpeed:         phi.Nous,
			InitialSpeed:     phi.Psyche,
			Alignment:        phi.Psyche,
			InitialEnergy:    100,
			EnergyDecay:      0,
			InformedFraction: phi.Agnosis,
			FieldStrength:    phi.Psyche,
			FieldScale:       0.1,
			FieldTimeScale:   0.01,
			InitialActivation: Distribution{
				Kind: "uniform",
				Low:  -phi.Monad / 2,
				High: phi.Monad / 2,
			},
		},
		MetricParams: MetricParams{
			Epsilon:             phi.Epsilon,
			IntegrationMode:     IntegrationTotalCorrelation,
			OptimalDegree:       phi.Completion,
			SaturationCeiling:   phi.Psyche,
			SaturationTolerance: 0.05,
		},
	}
}

// Clone returns a deep copy so the caller can derive a variant without aliasing slices.
func (e Experiment) Clone() Experiment {
	out := e
	out.Bounds = Bounds{
		Min: append([]float64(nil), e.Bounds.Min...),
		Max: append([]float64(nil), e.Bounds.Max...),
	}
	out.Metrics = append([]string(nil), e.Metrics...)
	if e.Connectivity.Params != nil {
		out.Connectivity.Params = make(map[string]any, len(e.Connectivity.Params))
		for k, v := range e.Connectivity.Params {
			out.Connectivity.Params[k] = v
		}
	}
	return out
}

// HasMetric reports whether the named metric is requested.
func (e Experiment) HasMetric(name string) bool {
	return slices.Contains(e.Metrics, name)
}
