package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/talgya/swarmsim/internal/experiments"
	"github.com/talgya/swarmsim/internal/metrics"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the experiment catalog and the metric registry",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "experiments:")
		for _, name := range experiments.Names() {
			e, err := experiments.Lookup(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "  %-12s %4d runs  %s\n", e.Name, len(e.Configs()), e.Description)
		}
		fmt.Fprintln(out, "metrics:")
		for _, name := range metrics.Names() {
			fmt.Fprintf(out, "  %s\n", name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
