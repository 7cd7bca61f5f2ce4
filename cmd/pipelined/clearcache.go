package main

import (
	"fmt"
	"os"

	"github.com/influxdata/pipelinejit/cli"
	"github.com/spf13/cobra"
)

type clearCacheOptions struct {
	cacheDir string
}

func newClearCacheCommand() *cobra.Command {
	o := &clearCacheOptions{}
	p := &cli.Program{
		Name: "pipelined-clear-cache",
		Run: func() error {
			return runClearCache(o)
		},
		Opts: []cli.Opt{
			cli.NewOpt(&o.cacheDir, "cache-dir", "pipeline-cache", "compile cache directory"),
		},
	}
	cmd := cli.NewCommand(p)
	cmd.Use = "clear-cache"
	cmd.Short = "Remove every emitted source file and compiled artifact from the cache directory"
	return cmd
}

func runClearCache(o *clearCacheOptions) error {
	if err := os.RemoveAll(o.cacheDir); err != nil {
		return fmt.Errorf("clear cache directory %s: %w", o.cacheDir, err)
	}
	fmt.Printf("cleared %s\n", o.cacheDir)
	return nil
}
