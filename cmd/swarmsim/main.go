// Command swarmsim runs swarm experiments, stores their metric records and serves them
// over HTTP.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/talgya/swarmsim/internal/config"
	"github.com/talgya/swarmsim/internal/logging"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var rt = config.DefaultRuntime()

var rootCmd = &cobra.Command{
	Use:   "swarmsim",
	Short: "Swarm simulation with collective-integration metrics",
	Long: `swarmsim runs agent swarms under configurable connectivity and movement
policies and measures integration, complexity, saturation, coherence and
information flow over sliding windows of the collective trajectory.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logging.ParseLevel(rt.LogLevel)
		if err != nil {
			return err
		}
		slog.SetDefault(logging.New(level, os.Stderr))
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rt.DBPath, "db", rt.DBPath, "SQLite database for stored sweeps")
	rootCmd.PersistentFlags().StringVar(&rt.LogLevel, "log-level", rt.LogLevel, "debug, info, warn or error")
	rootCmd.PersistentFlags().IntVar(&rt.Workers, "workers", rt.Workers, "concurrent runs per sweep")
}
