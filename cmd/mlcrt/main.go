// Command mlcrt is a small inspection and interaction shell over the
// runtime: registered-type lookup, tensor codec round trips, and a
// read-eval-print loop over the {values, type_keys, tensors} envelope
// format. Grounded on the teacher's flag-driven main.go, generalized
// from a Lisp-to-C compiler driver to a cobra command tree in the
// style of joshuapare-hivekit/cmd/hivectl/root.go.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
