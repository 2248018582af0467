package main

import (
	"github.com/spf13/cobra"

	"github.com/talgya/swarmsim/internal/config"
)

var runOpts sweepOptions

var runCmd = &cobra.Command{
	Use:   "run [sweep.yaml]",
	Short: "Run a sweep file, or the default experiment when no file is given",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sw := config.Sweep{Name: "default", Base: config.Default()}
		if len(args) == 1 {
			var err error
			if sw, err = config.Load(args[0]); err != nil {
				return err
			}
		}
		name := sw.Name
		if name == "" {
			name = sw.Base.Name
		}
		return executeSweep(cmd.OutOrStdout(), name, sw.Expand(), runOpts)
	},
}

func init() {
	runCmd.Flags().StringVarP(&runOpts.format, "format", "f", "table", "output format: table, json or yaml")
	runCmd.Flags().BoolVar(&runOpts.save, "save", false, "store the outcomes in the database")
	rootCmd.AddCommand(runCmd)
}
