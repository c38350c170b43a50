package main

import (
	"github.com/spf13/cobra"

	"purple_go/pkg/rtlog"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:     "mlcrt",
	Short:   "Inspect and drive the polyglot object runtime",
	Version: "0.1.0",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		rtlog.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(tensorCmd)
	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(replCmd)
}
