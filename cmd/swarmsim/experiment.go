package main

import (
	"github.com/spf13/cobra"

	"github.com/talgya/swarmsim/internal/experiments"
)

var experimentOpts sweepOptions

var experimentCmd = &cobra.Command{
	Use:   "experiment <name>",
	Short: "Run a named experiment from the catalog",
	Long: `Run a named experiment from the catalog and store its outcomes.
See "swarmsim list" for the available names.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := experiments.Lookup(args[0])
		if err != nil {
			return err
		}
		return executeSweep(cmd.OutOrStdout(), e.Name, e.Configs(), experimentOpts)
	},
}

func init() {
	experimentCmd.Flags().StringVarP(&experimentOpts.format, "format", "f", "table", "output format: table, json or yaml")
	experimentCmd.Flags().BoolVar(&experimentOpts.save, "save", true, "store the outcomes in the database")
	rootCmd.AddCommand(experimentCmd)
}
