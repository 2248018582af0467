package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/swarmsim/internal/analysis"
	"github.com/talgya/swarmsim/internal/config"
	"github.com/talgya/swarmsim/internal/metrics"
)

func quick(n int) config.Experiment {
	cfg := config.Default()
	cfg.Name = "quick"
	cfg.SwarmSize = n
	cfg.StepCount = 40
	cfg.MetricWindow = 10
	cfg.Bounds = config.Bounds{Min: []float64{0, 0}, Max: []float64{10, 10}}
	cfg.Connectivity.Radius = 3
	return cfg
}

func TestRunOneIsDeterministic(t *testing.T) {
	cfg := quick(15)
	cfg.Metrics = config.KnownMetrics

	a, err := RunOne(cfg)
	require.NoError(t, err)
	b, err := RunOne(cfg)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	ja, err := json.Marshal(a)
	require.NoError(t, err)
	jb, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, ja, jb)
}

func TestSimulateTrajectoryLength(t *testing.T) {
	cfg := quick(6)
	traj, res, err := Simulate(cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg.StepCount+1, traj.Len())
	assert.Equal(t, cfg.StepCount+1, res.Length)
	assert.Equal(t, cfg.Key(), res.Key)
}

func TestRunOneRejectsInvalidConfig(t *testing.T) {
	cfg := quick(5)
	cfg.SwarmSize = -1
	_, err := RunOne(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalid)
	assert.Equal(t, KindConfig, Kind(err))
}

func TestShortRunIsUndefinedNotFailed(t *testing.T) {
	cfg := quick(5)
	cfg.StepCount = 3
	cfg.MetricWindow = 10

	res, err := RunOne(cfg)
	require.NoError(t, err)
	for _, name := range cfg.Metrics {
		v := res.Values[name]
		assert.False(t, v.Defined, name)
		assert.Equal(t, KindInsufficientData, Kind(v.Err), name)
	}
}

func TestSweepCompleteness(t *testing.T) {
	bad := quick(5)
	bad.MetricWindow = 1
	configs := []config.Experiment{quick(4), bad, quick(6)}

	reg := prometheus.NewRegistry()
	tel := NewTelemetry(reg)
	out := New(3, tel).RunSweep(context.Background(), configs)

	require.Len(t, out, 3)
	for i, o := range out {
		assert.Equal(t, i, o.Index)
		assert.Equal(t, configs[i].SwarmSize, o.Config.SwarmSize)
	}
	assert.True(t, out[0].OK())
	assert.Equal(t, KindConfig, out[1].Kind())
	assert.True(t, out[2].OK())
	assert.Equal(t, 4, out[0].Result.Key.SwarmSize)
	assert.Equal(t, 6, out[2].Result.Key.SwarmSize)

	assert.Equal(t, 2.0, testutil.ToFloat64(tel.Runs.WithLabelValues("quick", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(tel.Runs.WithLabelValues("quick", KindConfig)))
	assert.Equal(t, 80.0, testutil.ToFloat64(tel.Steps))
}

func TestSweepMatchesSequentialRuns(t *testing.T) {
	var configs []config.Experiment
	for seed := int64(1); seed <= 6; seed++ {
		cfg := quick(8)
		cfg.Seed = seed
		configs = append(configs, cfg)
	}
	out := New(4, nil).RunSweep(context.Background(), configs)
	for i, cfg := range configs {
		want, err := RunOne(cfg)
		require.NoError(t, err)
		assert.Equal(t, want, out[i].Result)
	}
}

func TestCanceledSweepReportsEveryEntry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := RunSweep(ctx, []config.Experiment{quick(3), quick(4)})
	require.Len(t, out, 2)
	for _, o := range out {
		assert.ErrorIs(t, o.Err, ErrCanceled)
		assert.ErrorIs(t, o.Err, context.Canceled)
		assert.Equal(t, KindCanceled, o.Kind())
	}
}

func TestCancelBetweenRuns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := New(1, nil)
	r.OnOutcome = func(o Outcome) {
		if o.Index == 0 {
			cancel()
		}
	}
	out := r.RunSweep(ctx, []config.Experiment{quick(3), quick(4), quick(5)})
	require.Len(t, out, 3)
	assert.True(t, out[0].OK())
	assert.Equal(t, KindCanceled, out[1].Kind())
	assert.Equal(t, KindCanceled, out[2].Kind())
}

func TestKind(t *testing.T) {
	assert.Equal(t, "", Kind(nil))
	assert.Equal(t, KindOther, Kind(errors.New("boom")))
	assert.Equal(t, KindInsufficientData, Kind(fmt.Errorf("wrap: %w", &metrics.InsufficientDataError{Window: 3})))
	assert.Equal(t, KindConfig, Kind(fmt.Errorf("wrap: %w", &config.Error{Field: "seed", Reason: "bad"})))
}

func TestComplexityPeaksOverSwarmSize(t *testing.T) {
	var configs []config.Experiment
	for _, n := range []int{2, 5, 10, 20, 50} {
		cfg := quick(n)
		cfg.StepCount = 60
		cfg.MetricWindow = 20
		cfg.Seed = 7
		cfg.Metrics = []string{config.MetricComplexity}
		configs = append(configs, cfg)
	}

	out := New(2, nil).RunSweep(context.Background(), configs)
	var means []float64
	for _, o := range out {
		require.NoError(t, o.Err)
		m, ok := o.Result.Mean(config.MetricComplexity)
		require.True(t, ok)
		means = append(means, m)
	}
	assert.True(t, analysis.Peaked(means), "complexity means %v", means)
}
