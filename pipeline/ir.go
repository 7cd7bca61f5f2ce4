package pipeline

import (
	"fmt"

	"github.com/influxdata/pipelinejit/perr"
	"go.uber.org/multierr"
)

// Field is a named, typed input/variable/output declaration.
type Field struct {
	Name     string
	Type     Type
	Required bool
}

// ArgKind distinguishes a variable-reference argument from a literal one.
type ArgKind int

const (
	ArgVariable ArgKind = iota
	ArgLiteral
)

// Argument is one positional argument to an operator call.
type Argument struct {
	Kind ArgKind

	// Variable reference.
	VarName string
	VarType Type

	// Literal.
	LiteralText string
	LiteralType Type
}

// Var builds a variable-reference Argument.
func Var(name string, t Type) Argument {
	return Argument{Kind: ArgVariable, VarName: name, VarType: t}
}

// Lit builds a literal Argument. text must parse to t (checked at Validate).
func Lit(text string, t Type) Argument {
	return Argument{Kind: ArgLiteral, LiteralText: text, LiteralType: t}
}

// Type returns the argument's declared type regardless of kind.
func (a Argument) Type() Type {
	if a.Kind == ArgVariable {
		return a.VarType
	}
	return a.LiteralType
}

// OpCall is one step in a pipeline: an operator invocation that consumes
// args and assigns its result to OutputVar.
type OpCall struct {
	OpName    string
	OutputVar string
	Args      []Argument
	Options   map[string]string
}

// Config is a complete pipeline definition: a name, typed input/variable/
// output fields, and an ordered sequence of steps.
type Config struct {
	Name        string
	Inputs      []Field
	Variables   []Field
	Outputs     []Field
	Steps       []OpCall
	Fingerprint string
}

// fieldScope tracks every field name an argument's variable reference is
// permitted to name: the pipeline's inputs, declared variables, and the
// output_var of steps seen so far.
type fieldScope struct {
	types map[string]Type
}

func newFieldScope(inputs, variables []Field) *fieldScope {
	s := &fieldScope{types: make(map[string]Type)}
	for _, f := range inputs {
		s.types[f.Name] = f.Type
	}
	for _, f := range variables {
		s.types[f.Name] = f.Type
	}
	return s
}

func (s *fieldScope) declare(name string, t Type) {
	s.types[name] = t
}

func (s *fieldScope) has(name string) bool {
	_, ok := s.types[name]
	return ok
}

func (s *fieldScope) typeOf(name string) Type {
	return s.types[name]
}

// Validate checks every invariant from the data model: non-empty names,
// well-formed steps, argument resolution, arity (against cat, if non-nil),
// literal parseability, and output resolution/type-compatibility. It
// aggregates every violation found rather than stopping at the first.
func (c *Config) Validate(cat ArityLookup) error {
	const op = "pipeline.Config.Validate"
	var errs error

	if c.Name == "" {
		errs = multierr.Append(errs, perr.New(perr.EValidation, op, "pipeline name must not be empty"))
	}

	scope := newFieldScope(c.Inputs, c.Variables)

	for i, f := range c.Inputs {
		if f.Name == "" {
			errs = multierr.Append(errs, perr.New(perr.EValidation, op, fmt.Sprintf("input[%d] has empty name", i)))
		}
		if !f.Type.Valid() {
			errs = multierr.Append(errs, perr.New(perr.EValidation, op, fmt.Sprintf("input %q has invalid type %q", f.Name, f.Type)))
		}
	}
	for i, f := range c.Variables {
		if f.Name == "" {
			errs = multierr.Append(errs, perr.New(perr.EValidation, op, fmt.Sprintf("variable[%d] has empty name", i)))
		}
		if !f.Type.Valid() {
			errs = multierr.Append(errs, perr.New(perr.EValidation, op, fmt.Sprintf("variable %q has invalid type %q", f.Name, f.Type)))
		}
	}

	for i, step := range c.Steps {
		if step.OpName == "" {
			errs = multierr.Append(errs, perr.New(perr.EValidation, op, fmt.Sprintf("step[%d] has empty op_name", i)))
		}
		if step.OutputVar == "" {
			errs = multierr.Append(errs, perr.New(perr.EValidation, op, fmt.Sprintf("step[%d] (%s) has empty output_var", i, step.OpName)))
		}

		if cat != nil {
			if desc, ok := cat.Lookup(step.OpName); ok {
				if len(step.Args) != desc.Arity {
					errs = multierr.Append(errs, perr.New(perr.EValidation, op,
						fmt.Sprintf("step[%d] %s: expected %d args, got %d", i, step.OpName, desc.Arity, len(step.Args))))
				}
			}
		}

		for j, arg := range step.Args {
			switch arg.Kind {
			case ArgVariable:
				if !scope.has(arg.VarName) {
					errs = multierr.Append(errs, perr.New(perr.EValidation, op,
						fmt.Sprintf("step[%d] %s: arg[%d] references unknown variable %q", i, step.OpName, j, arg.VarName)))
				}
			case ArgLiteral:
				if _, err := ParseLiteral(arg.LiteralText, arg.LiteralType); err != nil {
					errs = multierr.Append(errs, &perr.Error{Code: perr.EValidation, Op: op,
						Msg: fmt.Sprintf("step[%d] %s: arg[%d] literal is not well-formed", i, step.OpName, j), Err: err})
				}
			}
		}

		if step.OutputVar != "" {
			scope.declare(step.OutputVar, outputType(cat, step))
		}
	}

	for i, f := range c.Outputs {
		if f.Name == "" {
			errs = multierr.Append(errs, perr.New(perr.EValidation, op, fmt.Sprintf("output[%d] has empty name", i)))
			continue
		}
		if !scope.has(f.Name) {
			errs = multierr.Append(errs, perr.New(perr.EValidation, op,
				fmt.Sprintf("output %q does not resolve to an input, variable, or step output", f.Name)))
			continue
		}
		if f.Type.Valid() && scope.typeOf(f.Name).Valid() && !compatible(f.Type, scope.typeOf(f.Name)) {
			errs = multierr.Append(errs, perr.New(perr.EValidation, op,
				fmt.Sprintf("output %q declared type %s incompatible with resolved type %s", f.Name, f.Type, scope.typeOf(f.Name))))
		}
	}

	return errs
}

// ArityLookup is the subset of the operator catalog Validate needs; it lets
// pipeline stay independent of the catalog package.
type ArityLookup interface {
	Lookup(name string) (Descriptor, bool)
}

// Descriptor mirrors catalog.Descriptor's fields that pipeline needs for
// validation, duplicated here (rather than imported) to keep pipeline a
// leaf package with no dependency on catalog.
type Descriptor struct {
	ReturnType Type
	Arity      int
}

func outputType(cat ArityLookup, step OpCall) Type {
	if cat == nil {
		return TypeUnknown
	}
	desc, ok := cat.Lookup(step.OpName)
	if !ok {
		return TypeUnknown
	}
	return desc.ReturnType
}

// compatible reports whether a value of type `have` may be assigned to a
// field declared as `want`, under the target language's scalar widening
// rules: identical types are always compatible; any two numeric types are
// compatible (implicit widen/narrow); str and list types are only
// compatible with themselves.
func compatible(want, have Type) bool {
	if want == have {
		return true
	}
	if want.IsNumeric() && have.IsNumeric() {
		return true
	}
	return false
}
