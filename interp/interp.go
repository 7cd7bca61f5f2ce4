// Package interp is the interpreter executor: it walks the pipeline IR
// directly and dispatches each step through catalog.Exec, the fixed table
// that mirrors the operator catalog's semantics. It serves as both a
// baseline executor and the semantic reference every JIT-executed pipeline
// must agree with.
package interp

import (
	"fmt"

	"github.com/influxdata/pipelinejit/catalog"
	"github.com/influxdata/pipelinejit/perr"
	"github.com/influxdata/pipelinejit/pipeline"
	"go.uber.org/zap"
)

// Context is the runtime record of named typed values a pipeline call
// reads from and writes into.
type Context struct {
	values map[string]pipeline.Value
}

// NewContext returns an empty Context.
func NewContext() *Context {
	return &Context{values: make(map[string]pipeline.Value)}
}

// SetVariable binds name to value.
func (c *Context) SetVariable(name string, value pipeline.Value) {
	c.values[name] = value
}

// Get returns the value bound to name, and whether it was found.
func (c *Context) Get(name string) (pipeline.Value, bool) {
	v, ok := c.values[name]
	return v, ok
}

// HasVariable reports whether name is bound.
func (c *Context) HasVariable(name string) bool {
	_, ok := c.values[name]
	return ok
}

// Clear removes every binding.
func (c *Context) Clear() {
	c.values = make(map[string]pipeline.Value)
}

// Executor walks cfg's steps in order against a Context, dispatching each
// through catalog.Exec.
type Executor struct {
	cfg *pipeline.Config
	log *zap.Logger
}

// New returns an Executor for cfg. cfg is assumed already valid.
func New(cfg *pipeline.Config, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{cfg: cfg, log: log}
}

// Execute runs every step of the pipeline against ctx in IR order,
// resolving each argument (variable lookup or literal parse), applying the
// operator, and assigning the result under the step's output_var.
// Division by zero and negative sqrt are coerced to zero by catalog.Exec
// rather than failing the pipeline, per the runtime error policy. An
// unknown operator name fails the step (and the pipeline) and is reported
// through the logger as well as the returned error.
func (e *Executor) Execute(ctx *Context) error {
	const op = "interp.Executor.Execute"

	for i, step := range e.cfg.Steps {
		args := make([]pipeline.Value, len(step.Args))
		for j, a := range step.Args {
			v, err := e.resolveArg(ctx, a)
			if err != nil {
				return perr.Wrap(err, op, fmt.Sprintf("step[%d] %s: resolve arg[%d]", i, step.OpName, j))
			}
			args[j] = v
		}

		result, ok := catalog.Exec(step.OpName, args)
		if !ok {
			e.log.Error("unknown operator", zap.String("op", step.OpName), zap.Int("step", i))
			return perr.New(perr.EDispatch, op, fmt.Sprintf("step[%d]: unknown operator %q", i, step.OpName))
		}

		ctx.SetVariable(step.OutputVar, result)
	}
	return nil
}

// resolveArg resolves one argument to a value: a variable reference reads
// from ctx with typed coercion (see coerce); a literal parses its text
// form. Division-by-zero-style runtime leniency lives in catalog.Exec, not
// here.
func (e *Executor) resolveArg(ctx *Context, a pipeline.Argument) (pipeline.Value, error) {
	switch a.Kind {
	case pipeline.ArgVariable:
		v, ok := ctx.Get(a.VarName)
		if !ok {
			e.log.Debug("variable missing, falling back to coercion chain", zap.String("var", a.VarName))
			return coerceMissing(a.VarType), nil
		}
		return coerce(v, a.VarType), nil
	case pipeline.ArgLiteral:
		return pipeline.ParseLiteral(a.LiteralText, a.LiteralType)
	default:
		return pipeline.Value{}, fmt.Errorf("argument has neither variable nor literal kind")
	}
}

// coerce converts v to want's type using the documented coercion matrix:
// identical types pass through; any two numeric types convert via the
// value's own widen/narrow accessors; anything else (type mismatch
// involving str or list types) falls through to the zero value of want,
// matching the "never throw from the hot path" policy.
func coerce(v pipeline.Value, want pipeline.Type) pipeline.Value {
	if v.Tag == want {
		return v
	}
	if want.IsNumeric() && v.Tag.IsNumeric() {
		switch want {
		case pipeline.TypeI32:
			return pipeline.NewI32(int32(v.AsF64()))
		case pipeline.TypeI64:
			return pipeline.NewI64(v.AsI64())
		case pipeline.TypeF32:
			return pipeline.NewF32(float32(v.AsF64()))
		case pipeline.TypeF64:
			return pipeline.NewF64(v.AsF64())
		}
	}
	if want == pipeline.TypeStr && v.Tag == pipeline.TypeStr {
		return v
	}
	return coerceMissing(want)
}

// coerceMissing returns the documented fallback for a variable that could
// not be found or coerced: the zero value of the requested type.
func coerceMissing(want pipeline.Type) pipeline.Value {
	switch want {
	case pipeline.TypeI32:
		return pipeline.NewI32(0)
	case pipeline.TypeI64:
		return pipeline.NewI64(0)
	case pipeline.TypeF32:
		return pipeline.NewF32(0)
	case pipeline.TypeF64:
		return pipeline.NewF64(0)
	case pipeline.TypeStr:
		return pipeline.NewStr("")
	default:
		return pipeline.Value{Tag: want}
	}
}
