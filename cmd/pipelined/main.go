// Command pipelined exposes the pipeline engine as a standalone process:
// run a pipeline once, force-compile one ahead of time, or clear its
// on-disk compile cache.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "pipelined",
		Short: "JIT pipeline engine",
	}
	root.AddCommand(newRunCommand())
	root.AddCommand(newCompileCommand())
	root.AddCommand(newClearCacheCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
