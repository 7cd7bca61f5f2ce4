// Package manager provides the facade a host process drives: pick an
// execution mode, load configuration, and run pipelines without directly
// wiring together the cache, compiler, loader, and executors itself.
package manager

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/influxdata/pipelinejit/cache"
	"github.com/influxdata/pipelinejit/catalog"
	"github.com/influxdata/pipelinejit/codegen"
	"github.com/influxdata/pipelinejit/configfile"
	"github.com/influxdata/pipelinejit/interp"
	"github.com/influxdata/pipelinejit/jit"
	"github.com/influxdata/pipelinejit/loader"
	"github.com/influxdata/pipelinejit/logger"
	"github.com/influxdata/pipelinejit/nativecompiler"
	"github.com/influxdata/pipelinejit/perr"
	"github.com/influxdata/pipelinejit/pipeline"
	opentracing "github.com/opentracing/opentracing-go"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Manager is the pipeline engine facade: it owns the compile cache, the
// native compiler driver, the process-wide loaded-library map, one JIT
// executor per fingerprint, a prometheus registry, and an opentracing
// tracer reference.
type Manager struct {
	mu sync.RWMutex

	mode     configfile.Mode
	cacheDir string
	jitOpts  jit.Options

	cache  *cache.Cache
	driver *jit.Driver
	loader *loader.PipelineLoader

	executors map[string]*jit.Executor

	log     *zap.Logger
	tracer  opentracing.Tracer
	metrics *metrics
	reg     *prometheus.Registry
}

// New returns a Manager in auto (JIT-preferred) mode, logging to log.
func New(log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	c := cache.New()
	reg := prometheus.NewRegistry()
	m := &Manager{
		mode:      configfile.ModeAuto,
		cacheDir:  "pipeline-cache",
		cache:     c,
		driver:    jit.New(c, log),
		loader:    loader.NewPipelineLoader(),
		executors: make(map[string]*jit.Executor),
		log:       log,
		tracer:    opentracing.GlobalTracer(),
		metrics:   newMetrics("pipelinejit"),
		reg:       reg,
	}
	for _, col := range m.metrics.PrometheusCollectors() {
		_ = reg.Register(col)
	}
	return m
}

// FromFile builds a Manager from a configfile.Config read from path.
func FromFile(path string, log *zap.Logger) (*Manager, error) {
	const op = "manager.FromFile"

	cfg, err := configfile.Load(path)
	if err != nil {
		return nil, perr.Wrap(err, op, "load configuration file")
	}

	if log == nil {
		log = logger.New(os.Stderr, cfg.Logging)
	}

	m := New(log)
	m.SetMode(cfg.Mode)
	m.SetCacheDir(cfg.CacheDir)
	m.SetJITOptions(jit.Options{
		CacheDir: cfg.CacheDir,
		Emit: codegenOptionsFrom(cfg.Emit),
		Compile: nativecompiler.Options{
			CXX:         cfg.Compile.CXX,
			Std:         cfg.Compile.Std,
			OptLevel:    cfg.Compile.OptLevel,
			MArch:       cfg.Compile.MArch,
			IncludeDirs: cfg.Compile.IncludeDirs,
			ExtraFlags:  cfg.Compile.ExtraFlags,
		},
	})
	return m, nil
}

// SetMode changes the execution mode. "auto" behaves identically to "jit".
func (m *Manager) SetMode(mode configfile.Mode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mode = mode
}

// SetCacheDir changes the directory compiled artifacts and emitted source
// are written to. It takes effect on the next compile, not retroactively.
func (m *Manager) SetCacheDir(dir string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheDir = dir
	m.jitOpts.CacheDir = dir
}

// SetJITOptions replaces the emission and compile options used for every
// subsequent compile. CacheDir is kept in sync with SetCacheDir.
func (m *Manager) SetJITOptions(opts jit.Options) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if opts.CacheDir == "" {
		opts.CacheDir = m.cacheDir
	}
	m.jitOpts = opts
}

// Metrics returns the manager's prometheus registry, for a host process to
// expose on its own metrics endpoint.
func (m *Manager) Metrics() *prometheus.Registry {
	return m.reg
}

// ClearCache drops every in-memory cache entry and unloads every loaded
// library. Compiled artifacts already on disk are left in place; the next
// Execute for a given pipeline compiles it again, overwriting them, and
// registers the new artifact.
func (m *Manager) ClearCache() error {
	const op = "manager.Manager.ClearCache"

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.loader.UnloadAll(); err != nil {
		return perr.Wrap(err, op, "unload all pipelines")
	}
	m.cache.Clear()
	m.executors = make(map[string]*jit.Executor)
	return nil
}

// Execute runs cfg against rctx using the manager's configured mode,
// deriving and storing a fingerprint on cfg if one is not already set.
// cfg is validated against the operator catalog before dispatch.
func (m *Manager) Execute(ctx context.Context, cfg *pipeline.Config, rctx *interp.Context) error {
	const op = "manager.Manager.Execute"

	if err := cfg.Validate(catalog.ArityLookup()); err != nil {
		return perr.Wrap(err, op, "validate pipeline")
	}
	if cfg.Fingerprint == "" {
		cfg.Fingerprint = pipeline.Fingerprint(cfg)
	}

	span, ctx := opentracing.StartSpanFromContext(ctx, "manager.Execute")
	span.SetTag("pipeline", cfg.Name)
	span.SetTag("fingerprint", cfg.Fingerprint)
	defer span.Finish()

	m.mu.RLock()
	mode := m.mode
	m.mu.RUnlock()

	start := time.Now()
	var err error
	switch mode {
	case configfile.ModeInterpreter:
		err = interp.New(cfg, m.log).Execute(rctx)
		m.metrics.executeDuration.WithLabelValues("interpreter").Observe(time.Since(start).Seconds())
	default:
		err = m.executeJIT(ctx, cfg, rctx)
		m.metrics.executeDuration.WithLabelValues("jit").Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return perr.Wrap(err, op, "execute pipeline")
	}
	return nil
}

func (m *Manager) executeJIT(ctx context.Context, cfg *pipeline.Config, rctx *interp.Context) error {
	const op = "manager.Manager.executeJIT"

	m.mu.Lock()
	if _, hit := m.cache.Get(cfg.Fingerprint); hit {
		m.metrics.cacheHits.Inc()
	} else {
		m.metrics.cacheMisses.Inc()
		m.metrics.compilesTotal.Inc()
	}
	exec, ok := m.executors[cfg.Fingerprint]
	if !ok {
		exec = jit.NewExecutor(cfg, m.driver, m.loader, m.jitOpts, m.log)
		m.executors[cfg.Fingerprint] = exec
	}
	m.mu.Unlock()

	if err := exec.Execute(ctx, rctx); err != nil {
		return perr.Wrap(err, op, "run compiled pipeline")
	}
	return nil
}

func codegenOptionsFrom(e configfile.EmitConfig) codegen.Options {
	return codegen.Options{
		Inline:     e.Inline,
		Vectorize:  e.Vectorize,
		FastMath:   e.FastMath,
		ExtraFlags: e.ExtraFlags,
		Verbose:    e.Verbose,
		HeaderPath: e.HeaderPath,
	}
}
