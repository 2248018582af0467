package metrics

import "github.com/talgya/swarmsim/internal/engine"

// WindowCount returns the number of windows of size w in a trajectory of length l:
// l-w+1, or 0 when l < w.
func WindowCount(l, w int) int {
	if w < 1 || l < w {
		return 0
	}
	return l - w + 1
}

// Windows splits a trajectory into every run of w consecutive states. A trajectory
// shorter than w yields an *InsufficientDataError.
func Windows(t engine.Trajectory, w int) ([]engine.Trajectory, error) {
	n := WindowCount(t.Len(), w)
	if n == 0 {
		return nil, &InsufficientDataError{Length: t.Len(), Window: w}
	}
	out := make([]engine.Trajectory, n)
	for i := range out {
		out[i] = t.Window(i, w)
	}
	return out, nil
}

// activationMatrix returns the window's activations as rows of states, columns of agents.
func activationMatrix(win engine.Trajectory) []float64 {
	n := win.SwarmSize()
	data := make([]float64, 0, win.Len()*n)
	for _, s := range win {
		for _, a := range s.Agents {
			data = append(data, a.Activation)
		}
	}
	return data
}

// meanOverStates averages a per-state statistic across a window.
func meanOverStates(win engine.Trajectory, f func(engine.CollectiveState) float64) float64 {
	if win.Len() == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range win {
		sum += f(s)
	}
	return sum / float64(win.Len())
}
