package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"purple_go/pkg/rtregistry"
	"purple_go/pkg/rtstruct"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive loop: paste an envelope line, get back its structural hash",
	RunE: func(cmd *cobra.Command, args []string) error {
		rl, err := readline.New("mlcrt> ")
		if err != nil {
			return err
		}
		defer rl.Close()

		for {
			line, err := rl.Readline()
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			if line == "" {
				continue
			}
			if err := evalLine(cmd, line); err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "error:", err)
			}
		}
	},
}

func evalLine(cmd *cobra.Command, line string) error {
	value, err := rtstruct.Deserialize(line, nil)
	if err != nil {
		return err
	}
	defer value.Release()
	h := rtstruct.Hash(rtregistry.Global(), value, false)
	fmt.Fprintf(cmd.OutOrStdout(), "hash: %d\n", h)
	return nil
}
