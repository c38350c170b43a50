package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"purple_go/pkg/rtregistry"
	"purple_go/pkg/rtstruct"
)

var evalCmd = &cobra.Command{
	Use:   "eval <envelope-file>",
	Short: "Round-trip a {values, type_keys, tensors} envelope and print its structural hash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		value, err := rtstruct.Deserialize(string(raw), nil)
		if err != nil {
			return fmt.Errorf("deserialize: %w", err)
		}
		defer value.Release()

		reEncoded, err := rtstruct.Serialize(rtregistry.Global(), value)
		if err != nil {
			return fmt.Errorf("serialize: %w", err)
		}

		h := rtstruct.Hash(rtregistry.Global(), value, false)
		fmt.Fprintf(cmd.OutOrStdout(), "hash:     %d\n", h)
		fmt.Fprintf(cmd.OutOrStdout(), "envelope: %s\n", reEncoded)
		return nil
	},
}
