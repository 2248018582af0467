package config

import (
	"math"
	"slices"
)

// Validate checks every parameter and returns the first problem as an *Error.
func (e Experiment) Validate() error {
	if e.SwarmSize <= 0 {
		return invalid("swarm_size", "must be > 0, got %d", e.SwarmSize)
	}
	if err := e.Bounds.Validate(); err != nil {
		return err
	}
	switch e.Boundary {
	case BoundaryReflect, BoundaryWrap:
	default:
		return invalid("boundary", "unknown mode %q", e.Boundary)
	}
	if e.StepCount < 1 {
		return invalid("step_count", "must be >= 1, got %d", e.StepCount)
	}
	// Complexity is the squashing gain: tanh(c·x). Non-positive gains invert or kill
	// the nonlinearity.
	if !finite(e.Complexity) || e.Complexity <= 0 {
		return invalid("complexity", "must be a finite value > 0, got %g", e.Complexity)
	}
	if err := e.Connectivity.Validate(); err != nil {
		return err
	}
	if e.MetricWindow < 2 {
		return invalid("metric_window", "must be >= 2, got %d", e.MetricWindow)
	}
	if len(e.Metrics) == 0 {
		return invalid("metrics", "at least one metric is required")
	}
	for _, m := range e.Metrics {
		if !slices.Contains(KnownMetrics, m) {
			return invalid("metrics", "unknown metric %q", m)
		}
	}
	if err := e.Dynamics.Validate(); err != nil {
		return err
	}
	if err := e.MetricParams.Validate(); err != nil {
		return err
	}
	if e.ReportEvery < 0 {
		return invalid("report_every", "must be >= 0, got %d", e.ReportEvery)
	}
	return nil
}

// Validate rejects boxes with mismatched, non-finite, or zero-volume extents.
func (b Bounds) Validate() error {
	if len(b.Min) == 0 {
		return invalid("bounds", "dimension must be >= 1")
	}
	if len(b.Min) != len(b.Max) {
		return invalid("bounds", "min has %d dims, max has %d", len(b.Min), len(b.Max))
	}
	for i := range b.Min {
		if !finite(b.Min[i]) || !finite(b.Max[i]) {
			return invalid("bounds", "axis %d is not finite", i)
		}
		if b.Max[i] <= b.Min[i] {
			return invalid("bounds", "axis %d has zero or negative extent [%g, %g]", i, b.Min[i], b.Max[i])
		}
	}
	return nil
}

// Validate checks the rule and its rule-specific parameters.
func (c Connectivity) Validate() error {
	switch c.Rule {
	case RuleDistance:
		if !finite(c.Radius) || c.Radius <= 0 {
			return invalid("connectivity.radius", "must be > 0, got %g", c.Radius)
		}
	case RuleKNearest:
		if c.K < 1 {
			return invalid("connectivity.k", "must be >= 1, got %d", c.K)
		}
	case RuleFixedRandom:
		if !finite(c.Degree) || c.Degree < 0 {
			return invalid("connectivity.degree", "must be >= 0, got %g", c.Degree)
		}
	default:
		return invalid("connectivity.rule", "unknown rule %q", c.Rule)
	}
	if c.Cadence < 0 {
		return invalid("connectivity.cadence", "must be >= 0, got %d", c.Cadence)
	}
	if c.Directed && c.Rule != RuleKNearest {
		return invalid("connectivity.directed", "only k-nearest graphs can be directed")
	}
	return nil
}

// Validate checks the initial activation distribution.
func (d Distribution) Validate() error {
	switch d.Kind {
	case "uniform":
		if !finite(d.Low) || !finite(d.High) || d.High < d.Low {
			return invalid("dynamics.initial_activation", "uniform needs low <= high, got [%g, %g]", d.Low, d.High)
		}
	case "normal":
		if !finite(d.Mean) || !finite(d.Scale) || d.Scale < 0 {
			return invalid("dynamics.initial_activation", "normal needs scale >= 0, got %g", d.Scale)
		}
	default:
		return invalid("dynamics.initial_activation", "unknown distribution %q", d.Kind)
	}
	return nil
}

// Validate checks the agent update parameters.
func (d Dynamics) Validate() error {
	switch d.Policy {
	case PolicyStandard, PolicyRandom, PolicyBoids, PolicyGreedy:
	default:
		return invalid("dynamics.policy", "unknown policy %q", d.Policy)
	}
	switch d.Aggregation {
	case AggregateMean, AggregateMax, AggregateSum:
	default:
		return invalid("dynamics.aggregation", "unknown aggregation %q", d.Aggregation)
	}
	if !finite(d.Decay) || d.Decay < 0 || d.Decay > 1 {
		return invalid("dynamics.decay", "must be in [0, 1], got %g", d.Decay)
	}
	if !finite(d.ActivationMin) || !finite(d.ActivationMax) || d.ActivationMax <= d.ActivationMin {
		return invalid("dynamics.activation_max", "activation range [%g, %g] is empty", d.ActivationMin, d.ActivationMax)
	}
	if !finite(d.FallbackCoupling) {
		return invalid("dynamics.fallback_coupling", "must be finite")
	}
	nonNegative := []struct {
		field string
		v     float64
	}{
		{"dynamics.coupling", d.Coupling},
		{"dynamics.noise", d.Noise},
		{"dynamics.step_scale", d.StepScale},
		{"dynamics.initial_speed", d.InitialSpeed},
		{"dynamics.alignment", d.Alignment},
		{"dynamics.initial_energy", d.InitialEnergy},
		{"dynamics.energy_decay", d.EnergyDecay},
		{"dynamics.field_strength", d.FieldStrength},
		{"dynamics.field_time_scale", d.FieldTimeScale},
	}
	for _, p := range nonNegative {
		if !finite(p.v) || p.v < 0 {
			return invalid(p.field, "must be a finite value >= 0, got %g", p.v)
		}
	}
	if !finite(d.MaxSpeed) || d.MaxSpeed <= 0 {
		return invalid("dynamics.max_speed", "must be > 0, got %g", d.MaxSpeed)
	}
	if !finite(d.FieldScale) || d.FieldScale <= 0 {
		return invalid("dynamics.field_scale", "must be > 0, got %g", d.FieldScale)
	}
	if !finite(d.InformedFraction) || d.InformedFraction < 0 || d.InformedFraction > 1 {
		return invalid("dynamics.informed_fraction", "must be in [0, 1], got %g", d.InformedFraction)
	}
	if d.EnergyDecay > 0 && d.InitialEnergy <= 0 {
		return invalid("dynamics.initial_energy", "must be > 0 when energy decays")
	}
	return d.InitialActivation.Validate()
}

// Validate checks the metric engine tuning.
func (p MetricParams) Validate() error {
	if !finite(p.Epsilon) || p.Epsilon <= 0 {
		return invalid("metric_params.epsilon", "must be > 0, got %g", p.Epsilon)
	}
	switch p.IntegrationMode {
	case IntegrationTotalCorrelation, IntegrationPredictive:
	default:
		return invalid("metric_params.integration_mode", "unknown mode %q", p.IntegrationMode)
	}
	if !finite(p.OptimalDegree) || p.OptimalDegree <= 0 {
		return invalid("metric_params.optimal_degree", "must be > 0, got %g", p.OptimalDegree)
	}
	if !finite(p.SaturationCeiling) || p.SaturationCeiling <= 0 || p.SaturationCeiling > 1 {
		return invalid("metric_params.saturation_ceiling", "must be in (0, 1], got %g", p.SaturationCeiling)
	}
	if !finite(p.SaturationTolerance) || p.SaturationTolerance < 0 || p.SaturationTolerance >= 1 {
		return invalid("metric_params.saturation_tolerance", "must be in [0, 1), got %g", p.SaturationTolerance)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
