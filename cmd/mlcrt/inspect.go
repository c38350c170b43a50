package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"purple_go/pkg/rtregistry"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <type-key>",
	Short: "Print a registered type's TypeInfo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ti, ok := rtregistry.Global().GetByKey(args[0])
		if !ok {
			return fmt.Errorf("type key %q is not registered", args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "type_key:   %s\n", ti.TypeKey)
		fmt.Fprintf(cmd.OutOrStdout(), "type_index: %d\n", ti.TypeIndex)
		fmt.Fprintf(cmd.OutOrStdout(), "depth:      %d\n", ti.TypeDepth)
		fmt.Fprintf(cmd.OutOrStdout(), "ancestors:  %v\n", ti.TypeAncestors)
		fmt.Fprintf(cmd.OutOrStdout(), "fields:     %d\n", len(ti.Fields))
		fmt.Fprintf(cmd.OutOrStdout(), "methods:    %d\n", len(ti.Methods))
		return nil
	},
}
