package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/muesli/termenv"
	"gopkg.in/yaml.v3"

	"github.com/talgya/swarmsim/internal/analysis"
	"github.com/talgya/swarmsim/internal/config"
	"github.com/talgya/swarmsim/internal/metrics"
	"github.com/talgya/swarmsim/internal/persistence"
	"github.com/talgya/swarmsim/internal/runner"
)

// sweepReport is what run and experiment print in json or yaml form.
type sweepReport struct {
	Name     string           `json:"name"`
	SweepID  string           `json:"sweep_id,omitempty"`
	Summary  analysis.Summary `json:"summary"`
	Outcomes []reportEntry    `json:"outcomes"`
}

type reportEntry struct {
	Index  int             `json:"index"`
	Key    config.Key      `json:"key"`
	Kind   string          `json:"kind,omitempty"`
	Error  string          `json:"error,omitempty"`
	Result *metrics.Result `json:"result,omitempty"`
}

type sweepOptions struct {
	format string // table, json or yaml
	save   bool
}

// executeSweep runs configs on the worker pool until done or interrupted, optionally
// stores the outcomes and prints the report.
func executeSweep(out io.Writer, name string, configs []config.Experiment, opts sweepOptions) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("sweep starting", "name", name, "runs", len(configs), "workers", rt.Workers)
	start := time.Now()

	r := runner.New(rt.Workers, nil)
	outcomes := r.RunSweep(ctx, configs)

	var results []metrics.Result
	failed := 0
	for _, o := range outcomes {
		if o.OK() {
			results = append(results, o.Result)
		} else {
			failed++
		}
	}
	summary := analysis.Summarize(results, analysis.DefaultThresholds())
	slog.Info("sweep finished", "name", name, "runs", len(outcomes), "failed", failed,
		"elapsed", time.Since(start).Round(time.Millisecond))

	report := sweepReport{Name: name, Summary: summary}
	for _, o := range outcomes {
		e := reportEntry{Index: o.Index, Key: o.Config.Key(), Kind: o.Kind()}
		if o.OK() {
			res := o.Result
			e.Result = &res
		} else {
			e.Error = o.Err.Error()
		}
		report.Outcomes = append(report.Outcomes, e)
	}

	if opts.save {
		id, err := store(name, outcomes, summary)
		if err != nil {
			return err
		}
		report.SweepID = id
	}

	if err := printReport(out, report, opts.format, time.Since(start)); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return fmt.Errorf("sweep %s interrupted", name)
	}
	return nil
}

func store(name string, outcomes []runner.Outcome, summary analysis.Summary) (string, error) {
	db, err := persistence.Open(rt.DBPath)
	if err != nil {
		return "", err
	}
	defer db.Close()

	sw, err := db.SaveSweep(name, outcomes, summary)
	if err != nil {
		return "", err
	}
	if err := db.SaveMeta("last_sweep", sw.ID); err != nil {
		return "", err
	}
	slog.Info("sweep stored", "id", sw.ID, "path", rt.DBPath)
	return sw.ID, nil
}

func printReport(out io.Writer, report sweepReport, format string, elapsed time.Duration) error {
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml":
		// Same field names and null means as the json form.
		data, err := json.Marshal(report)
		if err != nil {
			return err
		}
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return err
		}
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(doc)
	case "table", "":
		printTable(out, report, elapsed)
		return nil
	default:
		return fmt.Errorf("unknown format %q (want table, json or yaml)", format)
	}
}

func printTable(out io.Writer, report sweepReport, elapsed time.Duration) {
	p := termenv.EnvColorProfile()
	ok := termenv.String("ok").Foreground(p.Color("#4ade80"))
	bad := func(kind string) termenv.Style { return termenv.String(kind).Foreground(p.Color("#f87171")) }

	fmt.Fprintf(out, "%s: %s runs in %s\n", report.Name,
		humanize.Comma(int64(len(report.Outcomes))), elapsed.Round(time.Millisecond))

	var names []string
	for _, e := range report.Outcomes {
		if e.Result != nil {
			names = e.Result.Names()
			break
		}
	}

	fmt.Fprintf(out, "%5s  %-10s %6s %6s %6s  %-6s", "#", "policy", "N", "cplx", "seed", "status")
	for _, m := range names {
		fmt.Fprintf(out, " %16s", m)
	}
	fmt.Fprintln(out)

	for _, e := range report.Outcomes {
		status := ok
		if e.Kind != "" {
			status = bad(e.Kind)
		}
		fmt.Fprintf(out, "%5d  %-10s %6d %6.2f %6d  %s", e.Index, e.Key.Policy, e.Key.SwarmSize,
			e.Key.Complexity, e.Key.Seed, status)
		if e.Result == nil {
			fmt.Fprintf(out, "  %s\n", e.Error)
			continue
		}
		for _, m := range names {
			if v, defined := e.Result.Mean(m); defined {
				fmt.Fprintf(out, " %16.4f", v)
			} else {
				fmt.Fprintf(out, " %16s", "undefined")
			}
		}
		fmt.Fprintln(out)
	}

	s := report.Summary
	finding := func(label string, f analysis.Finding) {
		if f.Found {
			fmt.Fprintf(out, "%-20s %g (mean %.4f over %d runs)\n", label, f.X, f.Mean, f.Runs)
		} else {
			fmt.Fprintf(out, "%-20s not found\n", label)
		}
	}
	fmt.Fprintln(out)
	finding("critical mass", s.CriticalMass)
	finding("optimal size", s.OptimalSize)
	finding("optimal complexity", s.OptimalComplexity)
	finding("saturation point", s.SaturationPoint)
	fmt.Fprintf(out, "%-20s %t\n", "complexity peaked", s.Peaked)
	if report.SweepID != "" {
		fmt.Fprintf(out, "%-20s %s\n", "stored as", report.SweepID)
	}
}
