package pipeline

import (
	"strings"
	"testing"
)

type fakeArityLookup map[string]Descriptor

func (f fakeArityLookup) Lookup(name string) (Descriptor, bool) {
	d, ok := f[name]
	return d, ok
}

func TestValidateAcceptsWellFormedPipeline(t *testing.T) {
	cat := fakeArityLookup{
		"abs": {ReturnType: TypeF64, Arity: 1},
	}
	cfg := &Config{
		Name:   "ok",
		Inputs: []Field{{Name: "x", Type: TypeF64}},
		Steps: []OpCall{
			{OpName: "abs", OutputVar: "y", Args: []Argument{Var("x", TypeF64)}},
		},
		Outputs: []Field{{Name: "y", Type: TypeF64}},
	}
	if err := cfg.Validate(cat); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestValidateCatchesAllViolationsAtOnce(t *testing.T) {
	cat := fakeArityLookup{
		"abs": {ReturnType: TypeF64, Arity: 1},
	}
	cfg := &Config{
		Name: "",
		Inputs: []Field{
			{Name: "", Type: TypeF64},
		},
		Steps: []OpCall{
			{OpName: "abs", OutputVar: "y", Args: []Argument{Var("x", TypeF64), Var("extra", TypeF64)}},
			{OpName: "", OutputVar: "", Args: nil},
		},
		Outputs: []Field{
			{Name: "missing", Type: TypeF64},
		},
	}
	err := cfg.Validate(cat)
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{
		"pipeline name must not be empty",
		"has empty name",
		"expected 1 args, got 2",
		"references unknown variable",
		"has empty op_name",
		"has empty output_var",
		"does not resolve to an input, variable, or step output",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("aggregated error missing %q; got: %s", want, msg)
		}
	}
}

func TestValidateRejectsBadLiteral(t *testing.T) {
	cfg := &Config{
		Name: "lit",
		Steps: []OpCall{
			{OpName: "direct_output_int64", OutputVar: "z", Args: []Argument{Lit("not-a-number", TypeI64)}},
		},
	}
	if err := cfg.Validate(nil); err == nil {
		t.Fatal("expected validation error for malformed literal")
	}
}

func TestValidateOutputTypeIncompatibility(t *testing.T) {
	cat := fakeArityLookup{
		"direct_output_string": {ReturnType: TypeStr, Arity: 1},
	}
	cfg := &Config{
		Name: "mismatch",
		Steps: []OpCall{
			{OpName: "direct_output_string", OutputVar: "s", Args: []Argument{Lit("hi", TypeStr)}},
		},
		Outputs: []Field{{Name: "s", Type: TypeF64}},
	}
	if err := cfg.Validate(cat); err == nil {
		t.Fatal("expected validation error for incompatible output type")
	}
}
