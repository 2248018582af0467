// Package metrics turns a run's trajectory into its metric record.
//
// Every metric sees the same sliding windows: a trajectory of L states and window W gives
// L−W+1 windows. Per-window values are reduced by their arithmetic mean. A trajectory
// shorter than W leaves every metric undefined with an *InsufficientDataError; a
// non-finite result leaves that metric undefined with reason "non-finite". Neither
// aborts the other metrics of the record.
package metrics

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/talgya/swarmsim/internal/config"
	"github.com/talgya/swarmsim/internal/engine"
)

// Compute evaluates every metric named by the experiment over the trajectory. The only
// error is an unknown metric name.
func Compute(traj engine.Trajectory, cfg config.Experiment) (Result, error) {
	res := Result{
		Key:    cfg.Key(),
		Length: traj.Len(),
		Window: cfg.MetricWindow,
		Values: make(map[string]Value, len(cfg.Metrics)),
	}
	ms := make([]Metric, 0, len(cfg.Metrics))
	for _, name := range cfg.Metrics {
		m, err := Lookup(name)
		if err != nil {
			return Result{}, err
		}
		ms = append(ms, m)
	}

	wins, err := Windows(traj, cfg.MetricWindow)
	for _, m := range ms {
		if err != nil {
			res.Values[m.Name()] = undefined(m.Name(), traj.Len(), cfg.MetricWindow)
			continue
		}
		res.Values[m.Name()] = reduce(m, wins, cfg.MetricParams)
	}
	return res, nil
}

// Evaluate computes a single metric over a trajectory.
func Evaluate(m Metric, traj engine.Trajectory, window int, p config.MetricParams) Value {
	wins, err := Windows(traj, window)
	if err != nil {
		return undefined(m.Name(), traj.Len(), window)
	}
	return reduce(m, wins, p)
}

func undefined(name string, length, window int) Value {
	err := &InsufficientDataError{Metric: name, Length: length, Window: window}
	return Value{Reason: err.Error(), Err: err}
}

func reduce(m Metric, wins []engine.Trajectory, p config.MetricParams) Value {
	v := Value{Count: len(wins)}
	values := make([]float64, len(wins))
	sum := 0.0
	finite := true
	for i, w := range wins {
		s := m.Window(w, p)
		values[i] = s.Value
		v.Flags = v.Flags.Merge(s.Flags)
		if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
			finite = false
			continue
		}
		sum += s.Value
	}
	if p.ReportWindows {
		v.Windows = values
	}
	if !finite {
		v.Reason = "non-finite"
		v.Windows = nil
		v.Err = fmt.Errorf("metrics: %s: non-finite window value", m.Name())
		slog.Debug("metric undefined", "metric", m.Name(), "reason", v.Reason)
		return v
	}
	v.Mean = sum / float64(len(wins))
	v.Defined = true
	return v
}
