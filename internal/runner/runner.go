// Package runner executes experiments: one run at a time with RunOne, or a sweep of
// independent runs spread over a worker pool with RunSweep.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/talgya/swarmsim/internal/config"
	"github.com/talgya/swarmsim/internal/engine"
	"github.com/talgya/swarmsim/internal/metrics"
)

// ErrCanceled marks a sweep entry skipped because the sweep was canceled before the run
// started.
var ErrCanceled = errors.New("run canceled")

// Error kinds reported per sweep entry.
const (
	KindConfig           = "ConfigError"
	KindInsufficientData = "InsufficientDataError"
	KindCanceled         = "Canceled"
	KindOther            = "Error"
)

// Kind classifies err into one of the reported error kinds. It returns "" for nil.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCanceled):
		return KindCanceled
	case errors.Is(err, config.ErrInvalid):
		return KindConfig
	case errors.Is(err, metrics.ErrInsufficientData):
		return KindInsufficientData
	default:
		return KindOther
	}
}

// Simulate runs one experiment and returns the full trajectory with its metric record.
// An invalid experiment fails with a *config.Error before any step is taken.
func Simulate(cfg config.Experiment) (engine.Trajectory, metrics.Result, error) {
	env, err := engine.New(cfg)
	if err != nil {
		return nil, metrics.Result{}, fmt.Errorf("construct environment: %w", err)
	}
	eng := engine.NewEngine(env)
	eng.ReportEvery = cfg.ReportEvery

	traj := eng.Run(cfg.StepCount)
	res, err := metrics.Compute(traj, cfg)
	if err != nil {
		return nil, metrics.Result{}, fmt.Errorf("compute metrics: %w", err)
	}
	return traj, res, nil
}

// RunOne runs an experiment and returns its metric record. Identical experiments give
// identical records.
func RunOne(cfg config.Experiment) (metrics.Result, error) {
	_, res, err := Simulate(cfg)
	return res, err
}

// Outcome is one sweep entry: the experiment and either its result or the error that
// stopped it.
type Outcome struct {
	Index   int               `json:"index"`
	Config  config.Experiment `json:"config"`
	Result  metrics.Result    `json:"result"`
	Err     error             `json:"-"`
	Elapsed time.Duration     `json:"elapsed"`
}

// OK reports whether the run succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Kind returns the error kind of the entry, "" on success.
func (o Outcome) Kind() string {
	return Kind(o.Err)
}

// Runner executes sweeps over a fixed-size worker pool.
type Runner struct {
	Workers   int        // defaults to GOMAXPROCS when <= 0
	Telemetry *Telemetry // optional

	// OnOutcome, if set, is called from worker goroutines as each run finishes. It must
	// be safe for concurrent use.
	OnOutcome func(Outcome)
}

// New creates a runner with the given pool size.
func New(workers int, tel *Telemetry) *Runner {
	return &Runner{Workers: workers, Telemetry: tel}
}

// RunSweep runs every experiment independently and returns exactly one outcome per
// experiment, in input order. A failing run is recorded in its outcome and the sweep
// continues. Canceling ctx stops new runs from starting; runs already in progress finish
// and the rest are reported with ErrCanceled.
func (r *Runner) RunSweep(ctx context.Context, configs []config.Experiment) []Outcome {
	type job struct {
		idx int
		cfg config.Experiment
	}

	out := make([]Outcome, len(configs))
	if len(configs) == 0 {
		return out
	}

	workers := r.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(configs) {
		workers = len(configs)
	}

	jobs := make(chan job)
	results := make(chan Outcome, len(configs))

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				o := r.runJob(ctx, j.idx, j.cfg)
				if r.OnOutcome != nil {
					r.OnOutcome(o)
				}
				results <- o
			}
		}()
	}

	for i, cfg := range configs {
		jobs <- job{idx: i, cfg: cfg}
	}
	close(jobs)

	wg.Wait()
	close(results)

	for o := range results {
		out[o.Index] = o
	}
	return out
}

func (r *Runner) runJob(ctx context.Context, idx int, cfg config.Experiment) Outcome {
	o := Outcome{Index: idx, Config: cfg}
	if err := ctx.Err(); err != nil {
		o.Err = fmt.Errorf("%w: %w", ErrCanceled, err)
		r.Telemetry.observe(o)
		return o
	}

	start := time.Now()
	o.Result, o.Err = RunOne(cfg)
	o.Elapsed = time.Since(start)
	r.Telemetry.observe(o)

	if o.Err != nil {
		slog.Warn("run failed",
			"index", idx,
			"key", cfg.Key().String(),
			"kind", o.Kind(),
			"error", o.Err,
		)
		return o
	}
	slog.Info("run finished",
		"index", idx,
		"key", cfg.Key().String(),
		"steps", cfg.StepCount,
		"elapsed", o.Elapsed.Round(time.Millisecond),
	)
	return o
}

// RunSweep runs configs on a default runner.
func RunSweep(ctx context.Context, configs []config.Experiment) []Outcome {
	return New(0, nil).RunSweep(ctx, configs)
}
