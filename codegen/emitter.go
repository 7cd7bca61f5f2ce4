// Package codegen lowers a validated pipeline.Config plus the operator
// catalog into a self-contained C++ compilation unit that links against
// the operator library by header inclusion and exports a C-ABI entry
// symbol the JIT loader can resolve.
package codegen

import (
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/influxdata/pipelinejit/catalog"
	"github.com/influxdata/pipelinejit/pipeline"
)

// Options controls emission. None of these fields can make emission itself
// fail. Emit reads only HeaderPath and Inline; the other fields are carried
// along but do not change the emitted source, and ExtraFlags is not passed
// to the native compiler. A bad HeaderPath surfaces as a native-compiler
// diagnostic, never as an Emit error.
type Options struct {
	Inline     bool
	Vectorize  bool
	FastMath   bool
	ExtraFlags []string
	OutputDir  string
	UseCache   bool
	Verbose    bool

	// HeaderPath is the #include path for the operator library. It is
	// parameterized here rather than hard-coded, per the design note
	// that the original's hard-coded include path must become an
	// emission option.
	HeaderPath string
}

// DefaultHeaderPath is used when Options.HeaderPath is empty.
const DefaultHeaderPath = "pipeline_ops.hpp"

// field is one entry in the context record: a name and its IR type.
type field struct {
	Name string
	Type pipeline.Type
}

// context is the ordered, deduplicated set of fields the PipelineContext
// struct declares: inputs, then declared variables, then any step output
// not already present. A step whose output_var names an existing field
// reuses that field rather than declaring a second one — the permissive
// reading of the open question in the specification's design notes.
type context struct {
	order  []string
	fields map[string]field
}

func newContext() *context {
	return &context{fields: make(map[string]field)}
}

func (c *context) declare(name string, t pipeline.Type) {
	if _, ok := c.fields[name]; ok {
		return
	}
	c.order = append(c.order, name)
	c.fields[name] = field{Name: name, Type: t}
}

func (c *context) typeOf(name string) pipeline.Type {
	return c.fields[name].Type
}

func (c *context) has(name string) bool {
	_, ok := c.fields[name]
	return ok
}

func buildContext(cfg *pipeline.Config) *context {
	ctx := newContext()
	for _, f := range cfg.Inputs {
		ctx.declare(f.Name, f.Type)
	}
	for _, f := range cfg.Variables {
		ctx.declare(f.Name, f.Type)
	}
	for _, step := range cfg.Steps {
		desc, ok := catalog.Lookup(step.OpName)
		outType := pipeline.TypeUnknown
		if ok {
			outType = desc.ReturnType
		}
		ctx.declare(step.OutputVar, outType)
	}
	return ctx
}

// templateData is the view passed to the emission template.
type templateData struct {
	PipelineName  string
	Fingerprint   string
	EntrySymbol   string
	HeaderPath    string
	Inline        bool
	FastMath      bool
	ContextFields []field
	Steps         []string // pre-lowered step statements
	InputUnpack   []string
	OutputPack    []string
}

var unit = template.Must(template.New("unit").Funcs(template.FuncMap{
	"cpp": cppScalar,
}).Parse(`// Code generated by the pipeline engine's codegen package. DO NOT EDIT.
#include "{{.HeaderPath}}"
#include <cstdint>
#include <cstring>
#include <string>
#include <vector>

namespace {

struct PipelineInputArrays {
	const double* f64_values;
	const int64_t* i64_values;
	const int32_t* i32_values;
	const char* const* str_values;
};

struct PipelineOutputArrays {
	double* f64_values;
	int64_t* i64_values;
	int32_t* i32_values;
};

struct PipelineContext {
{{- range .ContextFields}}
	{{cpp .Type}} {{.Name}};
{{- end}}
};

{{if .Inline}}inline {{end}}bool execute_internal(PipelineContext& ctx) {
{{- range .Steps}}
	{{.}}
{{- end}}
	return true;
}

} // namespace

extern "C" bool {{.EntrySymbol}}(void* input_data, void* output_data) {
	const PipelineInputArrays* in = static_cast<const PipelineInputArrays*>(input_data);
	PipelineOutputArrays* out = static_cast<PipelineOutputArrays*>(output_data);
	PipelineContext ctx{};
{{- range .InputUnpack}}
	{{.}}
{{- end}}
	if (!execute_internal(ctx)) {
		return false;
	}
{{- range .OutputPack}}
	{{.}}
{{- end}}
	return true;
}

extern "C" const char* pipeline_name() {
	return "{{.PipelineName}}";
}

extern "C" const char* pipeline_fingerprint() {
	return "{{.Fingerprint}}";
}
`))

// Emit lowers cfg into a complete C++ translation unit. cfg must already
// be valid (see pipeline.Config.Validate); Emit does not re-validate it,
// and never itself returns an error — an operator not present in the
// catalog is emitted as a bare call under the operator-library namespace,
// deliberately passing the buck to the native compiler.
func Emit(cfg *pipeline.Config, opts Options) string {
	headerPath := opts.HeaderPath
	if headerPath == "" {
		headerPath = DefaultHeaderPath
	}

	sanitizedFP := pipeline.SanitizedFingerprint(cfg.Fingerprint)
	ctx := buildContext(cfg)

	fields := make([]field, len(ctx.order))
	for i, name := range ctx.order {
		fields[i] = ctx.fields[name]
	}

	data := templateData{
		PipelineName:  cfg.Name,
		Fingerprint:   sanitizedFP,
		EntrySymbol:   pipeline.EntrySymbol(sanitizedFP),
		HeaderPath:    headerPath,
		Inline:        opts.Inline,
		FastMath:      opts.FastMath,
		ContextFields: fields,
		Steps:         lowerSteps(cfg.Steps),
		InputUnpack:   lowerInputUnpack(cfg.Inputs),
		OutputPack:    lowerOutputPack(cfg.Outputs),
	}

	var b strings.Builder
	// template.Execute on a fixed template only errors if a field access
	// panics, which cannot happen given templateData's shape; any error
	// here would be a programming bug in the template itself.
	if err := unit.Execute(&b, data); err != nil {
		panic(fmt.Sprintf("codegen: template execution failed: %v", err))
	}
	return b.String()
}

// lowerSteps lowers each step in order to a C++ assignment statement.
func lowerSteps(steps []pipeline.OpCall) []string {
	out := make([]string, 0, len(steps))
	for _, step := range steps {
		out = append(out, lowerStep(step))
	}
	return out
}

func lowerStep(step pipeline.OpCall) string {
	desc, known := catalog.Lookup(step.OpName)

	args := make([]string, len(step.Args))
	for i, a := range step.Args {
		args[i] = lowerArg(a)
	}

	var call string
	switch {
	case known && desc.NeedsScalarParam:
		scalarType := desc.ReturnType
		if scalarType == pipeline.TypeUnknown {
			scalarType = desc.DefaultScalarParam
		}
		call = fmt.Sprintf("ops::%s<%s>(%s)", desc.Symbol, cppScalar(scalarType), strings.Join(args, ", "))
	case known:
		call = fmt.Sprintf("ops::%s(%s)", desc.Symbol, strings.Join(args, ", "))
	default:
		// Unknown operator: pass the buck to the native compiler.
		call = fmt.Sprintf("ops::%s(%s)", pipeline.SanitizeIdent(step.OpName), strings.Join(args, ", "))
	}

	return fmt.Sprintf("ctx.%s = %s;", pipeline.SanitizeIdent(step.OutputVar), call)
}

func lowerArg(a pipeline.Argument) string {
	switch a.Kind {
	case pipeline.ArgVariable:
		return "ctx." + pipeline.SanitizeIdent(a.VarName)
	case pipeline.ArgLiteral:
		if a.LiteralType == pipeline.TypeStr {
			return strconv.Quote(a.LiteralText)
		}
		return a.LiteralText
	default:
		return "0"
	}
}

// lowerInputUnpack emits, for each input field in declaration order, an
// assignment that reads the next element of its scalar family's array
// view. Each family's read index is independent and advances only when a
// field of that family is unpacked.
func lowerInputUnpack(inputs []pipeline.Field) []string {
	idx := map[string]int{"f64": 0, "i64": 0, "i32": 0, "str": 0}
	out := make([]string, 0, len(inputs))
	for _, f := range inputs {
		family := scalarFamily(f.Type)
		i := idx[family]
		idx[family]++
		name := pipeline.SanitizeIdent(f.Name)
		switch family {
		case "str":
			out = append(out, fmt.Sprintf("ctx.%s = in->str_values[%d];", name, i))
		default:
			out = append(out, fmt.Sprintf("ctx.%s = static_cast<%s>(in->%s_values[%d]);", name, cppScalar(f.Type), family, i))
		}
	}
	return out
}

// lowerOutputPack emits, for each output field in declaration order, a
// write into the corresponding array view, converting explicitly when the
// output's declared type differs from its resolved field's type. String
// outputs have no array-view family and are therefore skipped here; at
// present only numeric outputs cross the entry boundary.
func lowerOutputPack(outputs []pipeline.Field) []string {
	idx := map[string]int{"f64": 0, "i64": 0, "i32": 0}
	out := make([]string, 0, len(outputs))
	for _, f := range outputs {
		family := scalarFamily(f.Type)
		if family == "str" {
			continue
		}
		i := idx[family]
		idx[family]++
		name := pipeline.SanitizeIdent(f.Name)
		out = append(out, fmt.Sprintf("out->%s_values[%d] = static_cast<%s>(ctx.%s);", family, i, cppArrayElem(family), name))
	}
	return out
}
