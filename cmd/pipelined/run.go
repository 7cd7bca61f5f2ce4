package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/influxdata/pipelinejit/cli"
	"github.com/influxdata/pipelinejit/configfile"
	"github.com/influxdata/pipelinejit/interp"
	"github.com/influxdata/pipelinejit/logger"
	"github.com/influxdata/pipelinejit/manager"
	"github.com/influxdata/pipelinejit/pipeline"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
)

type runOptions struct {
	pipelinePath string
	inputPath    string
	cacheDir     string
	mode         string
	logLevel     zapcore.Level
	logFormat    string
}

func newRunCommand() *cobra.Command {
	o := &runOptions{}
	p := &cli.Program{
		Name: "pipelined-run",
		Run: func() error {
			return runRun(o)
		},
		Opts: []cli.Opt{
			cli.NewOpt(&o.pipelinePath, "pipeline", "", "path to a JSON-encoded pipeline definition"),
			cli.NewOpt(&o.inputPath, "input", "", "path to a JSON object of input field name to literal text value"),
			cli.NewOpt(&o.cacheDir, "cache-dir", "pipeline-cache", "compile cache directory"),
			cli.NewOpt(&o.mode, "mode", "auto", "execution mode: interpreter, jit, or auto"),
			cli.NewOpt(&o.logFormat, "log-format", "logfmt", "log format: logfmt or json"),
		},
	}
	cmd := cli.NewCommand(p)
	cmd.Use = "run"
	cmd.Short = "Execute a pipeline once and print its outputs as JSON"
	cli.LevelVar(cmd.Flags(), &o.logLevel, "log-level", zapcore.InfoLevel, "log level: debug, info, warn, error")
	_ = cmd.MarkFlagRequired("pipeline")
	return cmd
}

func runRun(o *runOptions) error {
	cfg, err := loadPipelineConfig(o.pipelinePath)
	if err != nil {
		return err
	}
	inputs, err := loadInputLiterals(o.inputPath)
	if err != nil {
		return err
	}

	log := logger.New(os.Stderr, *newProcessLogger(o.logLevel, o.logFormat))

	rctx := interp.NewContext()
	for _, f := range cfg.Inputs {
		text, ok := inputs[f.Name]
		if !ok {
			continue
		}
		v, err := pipeline.ParseLiteral(text, f.Type)
		if err != nil {
			return fmt.Errorf("input %s: %w", f.Name, err)
		}
		rctx.SetVariable(f.Name, v)
	}

	m := manager.New(log)
	m.SetCacheDir(o.cacheDir)
	m.SetMode(configfile.Mode(o.mode))

	if err := m.Execute(context.Background(), cfg, rctx); err != nil {
		return err
	}

	result := make(map[string]string, len(cfg.Outputs))
	for _, f := range cfg.Outputs {
		if v, ok := rctx.Get(f.Name); ok {
			result[f.Name] = v.String()
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
