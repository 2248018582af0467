// Package phi provides the default swarm dynamics constants, all derived from the golden ratio.
// Defaults in internal/config trace back to these values so that a sweep never depends on an
// unexplained literal.
package phi

import "math"

// Phi is the golden ratio.
const Phi = 1.6180339887498948

// Powers of Phi used as dynamics defaults.
var (
	// Agnosis (Φ⁻³, ~0.236): random-walk step scale and informed-agent fraction.
	Agnosis = math.Pow(Phi, -3)

	// Psyche (Φ⁻², ~0.382): neighbour coupling gain, field drive, saturation ceiling.
	Psyche = math.Pow(Phi, -2)

	// Matter (Φ⁻¹, ~0.618): activation retention per step.
	Matter = math.Pow(Phi, -1)

	// Monad: unit complexity gain and activation bound.
	Monad = 1.0

	// Nous (Φ², ~2.618): maximum agent speed per step. Twice Nous is the default
	// interaction radius.
	Nous = math.Pow(Phi, 2)
)

// Structural limits.
const (
	// Completion is the pentad: the mean degree at which the complexity curve peaks.
	Completion = 5.0

	// Excess is one past Completion: k for the k-nearest connectivity default.
	Excess = 6.0
)

// Epsilon is the covariance diagonal regulariser and the floor for log and ratio arguments.
const Epsilon = 1e-6
