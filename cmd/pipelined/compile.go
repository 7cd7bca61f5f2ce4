package main

import (
	"context"
	"fmt"
	"os"

	"github.com/influxdata/pipelinejit/cache"
	"github.com/influxdata/pipelinejit/catalog"
	"github.com/influxdata/pipelinejit/cli"
	"github.com/influxdata/pipelinejit/codegen"
	"github.com/influxdata/pipelinejit/jit"
	"github.com/influxdata/pipelinejit/logger"
	"github.com/influxdata/pipelinejit/nativecompiler"
	"github.com/influxdata/pipelinejit/pipeline"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
)

type compileOptions struct {
	pipelinePath string
	cacheDir     string
	cxx          string
	std          string
	optLevel     string
	march        string
	headerPath   string
	logLevel     zapcore.Level
	logFormat    string
}

func newCompileCommand() *cobra.Command {
	o := &compileOptions{}
	p := &cli.Program{
		Name: "pipelined-compile",
		Run: func() error {
			return runCompile(o)
		},
		Opts: []cli.Opt{
			cli.NewOpt(&o.pipelinePath, "pipeline", "", "path to a JSON-encoded pipeline definition"),
			cli.NewOpt(&o.cacheDir, "cache-dir", "pipeline-cache", "compile cache directory"),
			cli.NewOpt(&o.cxx, "cxx", "c++", "C++ compiler binary"),
			cli.NewOpt(&o.std, "std", "c++17", "-std= value"),
			cli.NewOpt(&o.optLevel, "opt-level", "3", "-O level"),
			cli.NewOpt(&o.march, "march", "native", "-march value"),
			cli.NewOpt(&o.headerPath, "header-path", codegen.DefaultHeaderPath, "operator library header include path"),
			cli.NewOpt(&o.logFormat, "log-format", "logfmt", "log format: logfmt or json"),
		},
	}
	cmd := cli.NewCommand(p)
	cmd.Use = "compile"
	cmd.Short = "Force-compile a pipeline ahead of time and report the artifact path"
	cli.LevelVar(cmd.Flags(), &o.logLevel, "log-level", zapcore.InfoLevel, "log level: debug, info, warn, error")
	_ = cmd.MarkFlagRequired("pipeline")
	return cmd
}

func runCompile(o *compileOptions) error {
	cfg, err := loadPipelineConfig(o.pipelinePath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(catalog.ArityLookup()); err != nil {
		return err
	}
	if cfg.Fingerprint == "" {
		cfg.Fingerprint = pipeline.Fingerprint(cfg)
	}

	log := logger.New(os.Stderr, *newProcessLogger(o.logLevel, o.logFormat))

	c := cache.New()
	d := jit.New(c, log)
	opts := jit.Options{
		CacheDir: o.cacheDir,
		Emit:     codegen.Options{HeaderPath: o.headerPath},
		Compile: nativecompiler.Options{
			CXX:      o.cxx,
			Std:      o.std,
			OptLevel: o.optLevel,
			MArch:    o.march,
		},
	}

	entry, err := d.EnsureCompiled(context.Background(), cfg, opts)
	if err != nil {
		return err
	}

	fmt.Printf("fingerprint=%s artifact=%s source=%s compile_time=%s\n",
		cfg.Fingerprint, entry.ArtifactPath, entry.SourcePath, entry.CompileTime)
	return nil
}
