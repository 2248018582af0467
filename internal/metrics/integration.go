package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/talgya/swarmsim/internal/config"
	"github.com/talgya/swarmsim/internal/engine"
)

// maxRegularise bounds how many times the diagonal load is raised tenfold before a
// covariance is declared unfactorisable.
const maxRegularise = 8

// integration measures how far the joint activation distribution departs from independent
// agents, under a Gaussian model of the window.
//
// total-correlation: TC = ½(Σ log(σ²ᵢ+ε) − log det(Σ+εI)), the divergence between the
// joint and the product of marginals. Always >= 0.
//
// predictive: I(Xₜ; Xₜ₊₁) − Σ I(xᵢ,ₜ; xᵢ,ₜ₊₁), how much more the whole swarm predicts its
// own next state than its agents do separately. Can be negative.
//
// A single agent is its own whole, so both variants are 0 for N = 1.
type integration struct{}

func (integration) Name() string { return config.MetricIntegration }

func (integration) Window(win engine.Trajectory, p config.MetricParams) Sample {
	if win.SwarmSize() <= 1 {
		return Sample{Value: 0}
	}
	if p.IntegrationMode == config.IntegrationPredictive {
		return predictiveInformation(win, p.Epsilon)
	}
	return totalCorrelation(win, p.Epsilon)
}

func totalCorrelation(win engine.Trajectory, eps float64) Sample {
	n := win.SwarmSize()
	x := mat.NewDense(win.Len(), n, activationMatrix(win))
	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, x, nil)

	var flags Flags
	// Fewer samples than dimensions: the sample covariance is singular before loading.
	if win.Len()-1 < n {
		flags = flags.With(FlagNumericInstability)
	}

	ld, used, ok := regularisedLogDet(&cov, eps)
	if used != eps {
		flags = flags.With(FlagNumericInstability)
	}
	if !ok {
		return Sample{Value: math.NaN(), Flags: flags.With(FlagNumericInstability)}
	}

	marginals := 0.0
	for i := 0; i < n; i++ {
		marginals += math.Log(cov.At(i, i) + used)
	}
	// Hadamard's inequality makes this non-negative; clip rounding noise.
	return Sample{Value: math.Max(0, 0.5*(marginals-ld)), Flags: flags}
}

func predictiveInformation(win engine.Trajectory, eps float64) Sample {
	n := win.SwarmSize()
	pairs := win.Len() - 1
	if pairs < 2 {
		return Sample{Value: math.NaN(), Flags: Flags{FlagNumericInstability}}
	}

	// Each row is (Xₜ, Xₜ₊₁).
	z := mat.NewDense(pairs, 2*n, nil)
	for t := 0; t < pairs; t++ {
		for i := 0; i < n; i++ {
			z.Set(t, i, win[t].Agents[i].Activation)
			z.Set(t, n+i, win[t+1].Agents[i].Activation)
		}
	}
	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, z, nil)

	var flags Flags
	if pairs-1 < 2*n {
		flags = flags.With(FlagNumericInstability)
	}

	whole, unstable, ok := gaussianMI(&cov, n, eps)
	if !ok {
		return Sample{Value: math.NaN(), Flags: flags.With(FlagNumericInstability)}
	}
	if unstable {
		flags = flags.With(FlagNumericInstability)
	}

	parts := 0.0
	for i := 0; i < n; i++ {
		a := cov.At(i, i) + eps
		b := cov.At(n+i, n+i) + eps
		c := cov.At(i, n+i)
		det := a*b - c*c
		if det <= 0 {
			det = eps * eps
			flags = flags.With(FlagNumericInstability)
		}
		parts += 0.5 * (math.Log(a) + math.Log(b) - math.Log(det))
	}
	return Sample{Value: whole - parts, Flags: flags}
}

// gaussianMI returns I(A; B) for the joint covariance of A (first n dimensions) and B
// (the rest).
func gaussianMI(joint *mat.SymDense, n int, eps float64) (mi float64, unstable bool, ok bool) {
	dim := joint.SymmetricDim()
	ldJoint, usedJ, okJ := regularisedLogDet(joint, eps)
	ldA, usedA, okA := regularisedLogDet(subSym(joint, 0, n), eps)
	ldB, usedB, okB := regularisedLogDet(subSym(joint, n, dim), eps)
	if !okJ || !okA || !okB {
		return 0, true, false
	}
	unstable = usedJ != eps || usedA != eps || usedB != eps
	return 0.5 * (ldA + ldB - ldJoint), unstable, true
}

// regularisedLogDet returns log det(s + εI), raising ε tenfold until the Cholesky
// factorisation succeeds. It reports the ε used and whether any attempt succeeded.
func regularisedLogDet(s mat.Symmetric, eps float64) (float64, float64, bool) {
	n := s.SymmetricDim()
	loaded := mat.NewSymDense(n, nil)
	var chol mat.Cholesky
	for attempt := 0; attempt <= maxRegularise; attempt++ {
		loaded.CopySym(s)
		for i := 0; i < n; i++ {
			loaded.SetSym(i, i, loaded.At(i, i)+eps)
		}
		if chol.Factorize(loaded) {
			ld := chol.LogDet()
			if !math.IsNaN(ld) && !math.IsInf(ld, 0) {
				return ld, eps, true
			}
		}
		eps *= 10
	}
	return 0, eps, false
}

// subSym copies the block [lo, hi) × [lo, hi) of s.
func subSym(s mat.Symmetric, lo, hi int) *mat.SymDense {
	n := hi - lo
	out := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			out.SetSym(i, j, s.At(lo+i, lo+j))
		}
	}
	return out
}
