// Package nativecompiler wraps invocation of the host C++ compiler,
// producing a position-independent shared object from emitted source.
package nativecompiler

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/influxdata/pipelinejit/perr"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Options configures one compile invocation. Fields left empty fall back
// to sensible defaults (see Options.withDefaults).
type Options struct {
	// CXX is the compiler binary, e.g. "c++" or "clang++". Defaults to
	// "c++".
	CXX string
	// Std is the -std= value. Defaults to "c++17".
	Std string
	// OptLevel is the -O level. Defaults to "3".
	OptLevel string
	// MArch is the -march value. Defaults to "native" when empty, so the
	// flag is always passed.
	MArch string
	// IncludeDirs are added as -I paths, for the operator library header.
	IncludeDirs []string
	// ExtraFlags are appended verbatim after every other flag.
	ExtraFlags []string
}

func (o Options) withDefaults() Options {
	if o.CXX == "" {
		o.CXX = "c++"
	}
	if o.Std == "" {
		o.Std = "c++17"
	}
	if o.OptLevel == "" {
		o.OptLevel = "3"
	}
	if o.MArch == "" {
		o.MArch = "native"
	}
	return o
}

// Result is the outcome of one compile invocation.
type Result struct {
	Success     bool
	Diagnostics string
	CompileTime time.Duration
}

// Driver spawns the host compiler synchronously, blocking on subprocess
// I/O. It holds no resources past Compile's return.
type Driver struct {
	log *zap.Logger
}

// New returns a Driver that logs to log.
func New(log *zap.Logger) *Driver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Driver{log: log}
}

// Compile produces artifactPath from sourcePath. It returns success iff
// the compiler subprocess exits zero AND the artifact file exists
// afterward; on failure the captured combined stdout/stderr is returned in
// Result.Diagnostics and also wrapped into err as an ECompilation *perr.Error.
func (d *Driver) Compile(ctx context.Context, sourcePath, artifactPath string, opts Options) (Result, error) {
	const op = "nativecompiler.Driver.Compile"
	opts = opts.withDefaults()

	args := []string{
		"-O" + opts.OptLevel,
		"-std=" + opts.Std,
		"-fPIC",
		"-shared",
	}
	if opts.MArch != "" {
		args = append(args, "-march="+opts.MArch)
	}
	for _, dir := range opts.IncludeDirs {
		args = append(args, "-I"+dir)
	}
	args = append(args, opts.ExtraFlags...)
	args = append(args, "-o", artifactPath, sourcePath)

	d.log.Debug("invoking native compiler",
		zap.String("cxx", opts.CXX),
		zap.Strings("args", args),
		zap.String("source", sourcePath),
	)

	cmd := exec.CommandContext(ctx, opts.CXX, args...)
	var combined bytes.Buffer
	cmd.Stdout = &combined
	cmd.Stderr = &combined

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	result := Result{
		Diagnostics: combined.String(),
		CompileTime: elapsed,
	}

	if runErr != nil {
		d.log.Error("native compile failed",
			zap.Error(runErr),
			zap.String("diagnostics", result.Diagnostics),
			zap.Duration("elapsed", elapsed),
		)
		return result, &perr.Error{
			Code: perr.ECompilation,
			Op:   op,
			Msg:  fmt.Sprintf("compile of %s failed: %s", sourcePath, result.Diagnostics),
			Err:  errors.Wrap(runErr, "compiler subprocess"),
		}
	}

	if !artifactExists(artifactPath) {
		d.log.Error("native compile reported success but artifact is missing",
			zap.String("artifact", artifactPath),
		)
		result.Success = false
		return result, perr.New(perr.ECompilation, op, fmt.Sprintf("artifact %s missing after successful compile", artifactPath))
	}

	result.Success = true
	d.log.Info("native compile succeeded",
		zap.String("artifact", artifactPath),
		zap.Duration("elapsed", elapsed),
	)
	return result, nil
}

func artifactExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
