// Package analysis reduces a sweep's metric records to the curves and thresholds the
// experiments report: critical mass, optimal complexity, and the saturation point.
package analysis

import (
	"sort"

	"github.com/talgya/swarmsim/internal/config"
	"github.com/talgya/swarmsim/internal/metrics"
	"github.com/talgya/swarmsim/internal/phi"
)

// Axis is the sweep parameter a curve is plotted against.
type Axis int

const (
	BySwarmSize Axis = iota
	ByComplexity
)

func (a Axis) String() string {
	if a == ByComplexity {
		return "complexity"
	}
	return "swarm_size"
}

// Point is one cell of a curve: the mean of a metric over every run sharing the axis value.
type Point struct {
	X       float64 `json:"x"`
	Mean    float64 `json:"mean"`
	Runs    int     `json:"runs"`    // runs with a defined value
	Defined bool    `json:"defined"` // false when no run in the cell had a defined value
}

// Curve groups results by the axis value and averages the named metric within each
// group. Undefined values are skipped. Points are sorted by X.
func Curve(results []metrics.Result, metric string, axis Axis) []Point {
	type cell struct {
		sum  float64
		runs int
	}
	cells := make(map[float64]*cell)
	for _, r := range results {
		x := float64(r.Key.SwarmSize)
		if axis == ByComplexity {
			x = r.Key.Complexity
		}
		c, ok := cells[x]
		if !ok {
			c = &cell{}
			cells[x] = c
		}
		if v, ok := r.Mean(metric); ok {
			c.sum += v
			c.runs++
		}
	}

	out := make([]Point, 0, len(cells))
	for x, c := range cells {
		p := Point{X: x, Runs: c.runs}
		if c.runs > 0 {
			p.Mean = c.sum / float64(c.runs)
			p.Defined = true
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].X < out[j].X })
	return out
}

// Filter returns the results whose key satisfies keep.
func Filter(results []metrics.Result, keep func(config.Key) bool) []metrics.Result {
	var out []metrics.Result
	for _, r := range results {
		if keep(r.Key) {
			out = append(out, r)
		}
	}
	return out
}

// CriticalMass returns the first point whose mean exceeds threshold.
func CriticalMass(curve []Point, threshold float64) (Point, bool) {
	for _, p := range curve {
		if p.Defined && p.Mean > threshold {
			return p, true
		}
	}
	return Point{}, false
}

// SaturationPoint returns the first point whose saturation ratio reaches 1 − tolerance.
func SaturationPoint(curve []Point, tolerance float64) (Point, bool) {
	for _, p := range curve {
		if p.Defined && p.Mean >= 1-tolerance {
			return p, true
		}
	}
	return Point{}, false
}

// PeakIndex returns the index of the largest value, preferring the earliest on ties.
// It returns -1 for an empty slice.
func PeakIndex(values []float64) int {
	best := -1
	for i, v := range values {
		if best < 0 || v > values[best] {
			best = i
		}
	}
	return best
}

// Peaked reports whether the largest value lies strictly inside the sequence, so the
// curve rises and then falls.
func Peaked(values []float64) bool {
	i := PeakIndex(values)
	return i > 0 && i < len(values)-1
}

// Optimum returns the defined point with the largest mean, and whether that point is an
// interior peak of the defined curve.
func Optimum(curve []Point) (Point, bool) {
	var defined []Point
	var means []float64
	for _, p := range curve {
		if p.Defined {
			defined = append(defined, p)
			means = append(means, p.Mean)
		}
	}
	i := PeakIndex(means)
	if i < 0 {
		return Point{}, false
	}
	return defined[i], Peaked(means)
}

// Thresholds tunes Summarize.
type Thresholds struct {
	Integration         float64 `json:"integration"`          // critical-mass level
	SaturationTolerance float64 `json:"saturation_tolerance"` // distance below ceiling that counts as saturated
}

// DefaultThresholds returns the standard thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{Integration: phi.Matter, SaturationTolerance: 0.05}
}

// Finding is a located point of interest on a curve.
type Finding struct {
	Point
	Found bool `json:"found"`
}

// Summary holds the headline findings of a sweep.
type Summary struct {
	Runs              int     `json:"runs"`
	CriticalMass      Finding `json:"critical_mass"`      // swarm size where integration first exceeds the threshold
	OptimalSize       Finding `json:"optimal_size"`       // swarm size of peak complexity
	OptimalComplexity Finding `json:"optimal_complexity"` // complexity parameter of peak integration
	SaturationPoint   Finding `json:"saturation_point"`   // swarm size where saturation reaches its ceiling
	Peaked            bool    `json:"peaked"`             // complexity over swarm size has an interior peak
}

// Summarize computes every headline finding. Findings for metrics absent from the results
// are reported as not found.
func Summarize(results []metrics.Result, th Thresholds) Summary {
	s := Summary{Runs: len(results)}

	if p, ok := CriticalMass(Curve(results, config.MetricIntegration, BySwarmSize), th.Integration); ok {
		s.CriticalMass = Finding{Point: p, Found: true}
	}
	if p, ok := SaturationPoint(Curve(results, config.MetricSaturation, BySwarmSize), th.SaturationTolerance); ok {
		s.SaturationPoint = Finding{Point: p, Found: true}
	}
	if p, peaked := Optimum(Curve(results, config.MetricComplexity, BySwarmSize)); p.Defined {
		s.OptimalSize = Finding{Point: p, Found: true}
		s.Peaked = peaked
	}
	if p, _ := Optimum(Curve(results, config.MetricIntegration, ByComplexity)); p.Defined {
		s.OptimalComplexity = Finding{Point: p, Found: true}
	}
	return s
}
