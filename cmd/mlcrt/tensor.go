package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"purple_go/pkg/rtcontainer"
)

var tensorCmd = &cobra.Command{
	Use:   "tensor",
	Short: "Encode and decode DLPack-style tensor byte buffers",
}

var tensorEncodeCmd = &cobra.Command{
	Use:   "encode <raw-file>",
	Short: "Read a raw tensor byte buffer and print its base64 encoding",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		t, err := rtcontainer.FromBytes(raw)
		if err != nil {
			return err
		}
		defer t.Close()
		b64, err := t.ToBase64()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), b64)
		return nil
	},
}

var tensorDecodeCmd = &cobra.Command{
	Use:   "decode <base64>",
	Short: "Decode a base64 tensor buffer and print its shape and dtype",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := rtcontainer.FromBase64(args[0])
		if err != nil {
			return err
		}
		defer t.Close()
		fmt.Fprintf(cmd.OutOrStdout(), "shape: %v\n", t.Shape)
		fmt.Fprintf(cmd.OutOrStdout(), "dtype: code=%d bits=%d lanes=%d\n", t.DType.Code, t.DType.Bits, t.DType.Lanes)
		fmt.Fprintf(cmd.OutOrStdout(), "bytes: %d\n", len(t.Data))
		return nil
	},
}

func init() {
	tensorCmd.AddCommand(tensorEncodeCmd)
	tensorCmd.AddCommand(tensorDecodeCmd)
}
