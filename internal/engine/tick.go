// Package engine provides the swarm environment and the step loop that records a run's
// trajectory.
package engine

import (
	"log/slog"
	"time"
)

// Engine drives an environment forward for a fixed number of steps.
type Engine struct {
	Env         *Environment
	ReportEvery int // progress report interval in steps, 0 disables

	// Callbacks, populated during setup.
	OnStep   func(s CollectiveState) // every step, after the state is recorded
	OnReport func(s CollectiveState) // every ReportEvery steps
}

// NewEngine creates an engine over env.
func NewEngine(env *Environment) *Engine {
	return &Engine{Env: env}
}

// Run steps the environment steps times and returns the full trajectory, initial state
// included. Run is not interruptible: a trajectory is either complete or not produced.
func (e *Engine) Run(steps int) Trajectory {
	traj := make(Trajectory, 0, steps+1)
	traj = append(traj, e.Env.Snapshot())

	start := time.Now()
	for i := 0; i < steps; i++ {
		s := e.Env.Step()
		traj = append(traj, s)

		if e.OnStep != nil {
			e.OnStep(s)
		}
		if e.ReportEvery > 0 && s.Step%e.ReportEvery == 0 {
			e.report(s)
		}
	}

	slog.Debug("run finished",
		"name", e.Env.Config().Name,
		"steps", steps,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return traj
}

func (e *Engine) report(s CollectiveState) {
	if e.OnReport != nil {
		e.OnReport(s)
		return
	}
	LogProgress(e.Env.Config().Name, s)
}
