package jit

import (
	"context"
	"sync"

	"github.com/influxdata/pipelinejit/dlopen"
	"github.com/influxdata/pipelinejit/interp"
	"github.com/influxdata/pipelinejit/loader"
	"github.com/influxdata/pipelinejit/perr"
	"github.com/influxdata/pipelinejit/pipeline"
	"go.uber.org/zap"
)

// scalarFamily mirrors codegen's array-view family mapping: it must agree
// with codegen.lowerInputUnpack/lowerOutputPack's per-family, declaration-
// order indexing or the JIT executor will hand the entry function values
// under the wrong index.
func scalarFamily(t pipeline.Type) string {
	switch t {
	case pipeline.TypeI32:
		return "i32"
	case pipeline.TypeI64:
		return "i64"
	case pipeline.TypeF32, pipeline.TypeF64:
		return "f64"
	case pipeline.TypeStr:
		return "str"
	default:
		return "f64"
	}
}

// Executor runs a single pipeline through its compiled native entry point,
// compiling and loading it on first use (or after Invalidate) and reusing
// the loaded handle on every subsequent call.
type Executor struct {
	mu sync.Mutex

	cfg    *pipeline.Config
	driver *Driver
	loader *loader.PipelineLoader
	opts   Options
	log    *zap.Logger

	loaded         bool
	needsRecompile bool
}

// NewExecutor returns an Executor for cfg, compiling through driver and
// loading through pl. cfg must already be valid and carry (or be able to
// derive) a fingerprint; see pipeline.Config.Validate and pipeline.Fingerprint.
func NewExecutor(cfg *pipeline.Config, driver *Driver, pl *loader.PipelineLoader, opts Options, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{cfg: cfg, driver: driver, loader: pl, opts: opts, log: log}
}

// Invalidate marks the executor's loaded library stale, forcing the next
// Execute to recompile and reload before dispatching. It does not itself
// unload the current library; the replacement Load call in ensureLoaded
// does that.
func (e *Executor) Invalidate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.needsRecompile = true
}

// Execute ensures the pipeline is compiled and loaded, marshals rctx's
// bound variables into the entry's array-view layout in the same per-
// family, declaration-order convention codegen emits, calls through the
// native entry, and writes results back into rctx under each output
// field's name with an explicit type conversion to its declared type.
func (e *Executor) Execute(ctx context.Context, rctx *interp.Context) error {
	const op = "jit.Executor.Execute"

	if err := e.ensureLoaded(ctx); err != nil {
		return perr.Wrap(err, op, "ensure pipeline compiled and loaded")
	}

	in := marshalInputs(e.cfg, rctx)
	out := allocateOutputs(e.cfg)

	ok, err := e.loader.Execute(e.cfg.Fingerprint, in, out)
	if err != nil {
		return perr.Wrap(err, op, "call native entry")
	}
	if !ok {
		return perr.New(perr.EDispatch, op, "native entry returned failure")
	}

	unmarshalOutputs(e.cfg, out, rctx)
	return nil
}

func (e *Executor) ensureLoaded(ctx context.Context) error {
	const op = "jit.Executor.ensureLoaded"

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.loaded && !e.needsRecompile && e.loader.Loaded(e.cfg.Fingerprint) {
		return nil
	}
	if e.needsRecompile {
		// Drop the cached entry so EnsureCompiled runs the compiler again
		// instead of returning the existing artifact.
		e.driver.cache.Remove(e.cfg.Fingerprint)
	}

	entry, err := e.driver.EnsureCompiled(ctx, e.cfg, e.opts)
	if err != nil {
		return perr.Wrap(err, op, "compile pipeline")
	}

	if err := e.loader.Load(e.cfg.Fingerprint, entry.ArtifactPath); err != nil {
		return perr.Wrap(err, op, "load compiled artifact")
	}

	e.loaded = true
	e.needsRecompile = false
	return nil
}

// marshalInputs builds InputArrays from cfg's input fields in declaration
// order, each family independently indexed, reading current values out of
// rctx (missing variables read as the family's zero value, matching the
// interpreter's coercion-miss policy).
func marshalInputs(cfg *pipeline.Config, rctx *interp.Context) dlopen.InputArrays {
	var in dlopen.InputArrays
	for _, f := range cfg.Inputs {
		v, _ := rctx.Get(f.Name)
		switch scalarFamily(f.Type) {
		case "f64":
			in.F64 = append(in.F64, v.AsF64())
		case "i64":
			in.I64 = append(in.I64, v.AsI64())
		case "i32":
			in.I32 = append(in.I32, int32(v.AsI64()))
		case "str":
			in.Str = append(in.Str, v.Str())
		}
	}
	return in
}

// allocateOutputs sizes an OutputArrays to hold one slot per output field
// of each numeric family, in declaration order, matching codegen's
// lowerOutputPack indexing. String outputs never cross the boundary.
func allocateOutputs(cfg *pipeline.Config) dlopen.OutputArrays {
	var out dlopen.OutputArrays
	for _, f := range cfg.Outputs {
		switch scalarFamily(f.Type) {
		case "f64":
			out.F64 = append(out.F64, 0)
		case "i64":
			out.I64 = append(out.I64, 0)
		case "i32":
			out.I32 = append(out.I32, 0)
		}
	}
	return out
}

// unmarshalOutputs writes each output field's result back into rctx,
// converting explicitly to the field's declared type.
func unmarshalOutputs(cfg *pipeline.Config, out dlopen.OutputArrays, rctx *interp.Context) {
	idx := map[string]int{"f64": 0, "i64": 0, "i32": 0}
	for _, f := range cfg.Outputs {
		family := scalarFamily(f.Type)
		if family == "str" {
			continue
		}
		i := idx[family]
		idx[family]++

		switch f.Type {
		case pipeline.TypeI32:
			rctx.SetVariable(f.Name, pipeline.NewI32(out.I32[i]))
		case pipeline.TypeI64:
			rctx.SetVariable(f.Name, pipeline.NewI64(out.I64[i]))
		case pipeline.TypeF32:
			rctx.SetVariable(f.Name, pipeline.NewF32(float32(out.F64[i])))
		case pipeline.TypeF64:
			rctx.SetVariable(f.Name, pipeline.NewF64(out.F64[i]))
		}
	}
}
