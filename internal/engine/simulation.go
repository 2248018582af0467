package engine

import (
	"fmt"
	"log/slog"
)

// Stats is an aggregate summary of one collective state.
type Stats struct {
	Step           int     `json:"step"`
	Active         int     `json:"active"`
	Edges          int     `json:"edges"`
	MeanDegree     float64 `json:"mean_degree"`
	MeanActivation float64 `json:"mean_activation"`
	MeanSpeed      float64 `json:"mean_speed"`
	MeanEnergy     float64 `json:"mean_energy"`
}

// Summarize computes the aggregate statistics of a state. Means are over active agents.
func Summarize(s CollectiveState) Stats {
	st := Stats{Step: s.Step}
	if s.Graph != nil {
		st.Edges = s.Graph.EdgeCount()
		st.MeanDegree = s.Graph.MeanDegree()
	}

	var act, speed, energy float64
	for _, a := range s.Agents {
		if !a.Active {
			continue
		}
		st.Active++
		act += a.Activation
		speed += a.Speed()
		energy += a.Energy
	}
	if st.Active > 0 {
		n := float64(st.Active)
		st.MeanActivation = act / n
		st.MeanSpeed = speed / n
		st.MeanEnergy = energy / n
	}
	return st
}

// LogProgress emits a progress report for a state.
func LogProgress(name string, s CollectiveState) {
	st := Summarize(s)
	slog.Info("progress report",
		"name", name,
		"step", st.Step,
		"active", st.Active,
		"edges", st.Edges,
		"mean_degree", fmt.Sprintf("%.3f", st.MeanDegree),
		"mean_activation", fmt.Sprintf("%.3f", st.MeanActivation),
		"mean_speed", fmt.Sprintf("%.3f", st.MeanSpeed),
		"mean_energy", fmt.Sprintf("%.1f", st.MeanEnergy),
	)
}
