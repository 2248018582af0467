package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/talgya/swarmsim/internal/config"
	"github.com/talgya/swarmsim/internal/engine"
)

// saturation tracks mean pairwise coupling strength against a ceiling. Coupling between
// i and j is |ρᵢⱼ|, the correlation of their activations over the window, weighted by the
// fraction of window states in which they are neighbours. The value is the mean over all
// pairs divided by the ceiling, capped at 1.
type saturation struct{}

func (saturation) Name() string { return config.MetricSaturation }

func (saturation) Window(win engine.Trajectory, p config.MetricParams) Sample {
	s := Coupling(win, p.Epsilon)
	v := math.Min(s/p.SaturationCeiling, 1)
	var flags Flags
	if v >= 1-p.SaturationTolerance {
		flags = flags.With(FlagSaturated)
	}
	return Sample{Value: v, Flags: flags}
}

// Coupling returns the mean edge-weighted absolute activation correlation over all agent
// pairs of a window. It is 0 for fewer than two agents.
func Coupling(win engine.Trajectory, eps float64) float64 {
	n := win.SwarmSize()
	if n < 2 || win.Len() < 2 {
		return 0
	}

	x := mat.NewDense(win.Len(), n, activationMatrix(win))
	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, x, nil)

	frac := 1 / float64(win.Len())
	sum := 0.0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			f := 0.0
			for _, s := range win {
				if s.Graph != nil && (s.Graph.Has(i, j) || s.Graph.Has(j, i)) {
					f += frac
				}
			}
			if f == 0 {
				continue
			}
			rho := cov.At(i, j) / math.Sqrt((cov.At(i, i)+eps)*(cov.At(j, j)+eps))
			sum += f * math.Min(math.Abs(rho), 1)
		}
	}
	return 2 * sum / float64(n*(n-1))
}
