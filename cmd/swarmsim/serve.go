package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/talgya/swarmsim/internal/api"
	"github.com/talgya/swarmsim/internal/persistence"
	"github.com/talgya/swarmsim/internal/runner"
)

var (
	serveMaxWork    int
	serveTrustProxy bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored sweeps and on-demand runs over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := persistence.Open(rt.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		adminKey := os.Getenv("SWARMSIM_ADMIN_KEY")
		if adminKey == "" {
			slog.Warn("SWARMSIM_ADMIN_KEY not set, POST /api/v1/simulate is disabled")
		}

		srv := &api.Server{
			DB:         db,
			Gatherer:   reg,
			Telemetry:  runner.NewTelemetry(reg),
			Addr:       rt.Addr,
			AdminKey:   adminKey,
			Version:    version,
			MaxWork:    serveMaxWork,
			TrustProxy: serveTrustProxy,
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.Serve(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&rt.Addr, "addr", rt.Addr, "listen address")
	serveCmd.Flags().IntVar(&serveMaxWork, "max-work", api.DefaultMaxWork, "largest swarm_size × step_count accepted by POST /api/v1/simulate")
	serveCmd.Flags().BoolVar(&serveTrustProxy, "trust-proxy", false, "rate-limit by X-Forwarded-For (only behind a proxy that sets it)")
	rootCmd.AddCommand(serveCmd)
}
