// Package jit implements the JIT driver (compile + cache orchestration)
// and the JIT executor that calls compiled pipelines through the loader.
package jit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/influxdata/pipelinejit/cache"
	"github.com/influxdata/pipelinejit/codegen"
	"github.com/influxdata/pipelinejit/nativecompiler"
	"github.com/influxdata/pipelinejit/perr"
	"github.com/influxdata/pipelinejit/pipeline"
	opentracing "github.com/opentracing/opentracing-go"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Options bundles the JIT driver's emission and compile options. It is the
// union of codegen.Options and nativecompiler.Options plus the cache
// directory and a keep-source flag.
type Options struct {
	CacheDir   string
	KeepSource bool
	Emit       codegen.Options
	Compile    nativecompiler.Options
}

// Driver orchestrates fingerprinting, emission, compilation, and cache
// insertion for any number of pipelines, serialising at most one compile
// per fingerprint at a time (others wait, then reuse the result) via a
// singleflight.Group keyed by fingerprint.
type Driver struct {
	cache    *cache.Cache
	compiler *nativecompiler.Driver
	log      *zap.Logger
	sf       singleflight.Group
}

// New returns a Driver backed by c (the process-wide compile cache) and
// logging to log.
func New(c *cache.Cache, log *zap.Logger) *Driver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Driver{cache: c, compiler: nativecompiler.New(log), log: log}
}

// EnsureCompiled returns a valid cache.Entry for cfg, compiling it first if
// necessary. If cfg.Fingerprint is empty, one is derived from the step
// list before emission so the entry-symbol name is stable.
func (d *Driver) EnsureCompiled(ctx context.Context, cfg *pipeline.Config, opts Options) (cache.Entry, error) {
	const op = "jit.Driver.EnsureCompiled"

	if cfg.Fingerprint == "" {
		cfg.Fingerprint = pipeline.Fingerprint(cfg)
	}
	fp := cfg.Fingerprint

	if entry, ok := d.cache.Get(fp); ok {
		return entry, nil
	}

	span, spanCtx := opentracing.StartSpanFromContext(ctx, "jit.EnsureCompiled")
	span.SetTag("fingerprint", fp)
	defer span.Finish()

	result, err, _ := d.sf.Do(fp, func() (interface{}, error) {
		return d.compileOnce(spanCtx, cfg, opts)
	})
	if err != nil {
		return cache.Entry{}, err
	}
	return result.(cache.Entry), nil
}

func (d *Driver) compileOnce(ctx context.Context, cfg *pipeline.Config, opts Options) (cache.Entry, error) {
	const op = "jit.Driver.compileOnce"
	fp := cfg.Fingerprint

	// Another caller may have finished the compile while this one waited
	// to enter singleflight.
	if entry, ok := d.cache.Get(fp); ok {
		return entry, nil
	}

	if err := nativecompiler.EnsureDir(opts.CacheDir); err != nil {
		return cache.Entry{}, perr.Wrap(err, op, "create cache directory")
	}

	source := codegen.Emit(cfg, opts.Emit)
	sourcePath := cache.SourcePath(opts.CacheDir, fp)
	if err := nativecompiler.WriteSource(sourcePath, []byte(source)); err != nil {
		return cache.Entry{}, perr.Wrap(err, op, "write emitted source")
	}

	buildID := uuid.New().String()
	artifactPath := cache.ArtifactPath(opts.CacheDir, fp)

	d.log.Info("compiling pipeline",
		zap.String("pipeline", cfg.Name),
		zap.String("fingerprint", fp),
		zap.String("build_id", buildID),
	)

	compileOpts := opts.Compile
	result, err := d.compiler.Compile(ctx, sourcePath, artifactPath, compileOpts)
	if err != nil {
		return cache.Entry{}, perr.Wrap(err, op, fmt.Sprintf("compile pipeline %s", cfg.Name))
	}

	entry := cache.Entry{
		Fingerprint:  fp,
		SourcePath:   sourcePath,
		ArtifactPath: artifactPath,
		CompileTime:  result.CompileTime,
	}
	d.cache.Add(entry)

	if !opts.KeepSource {
		// The emitted source stays on disk whether or not KeepSource is
		// set: the driver never deletes it.
	}

	return entry, nil
}
