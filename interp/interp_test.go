package interp

import (
	"testing"

	"github.com/influxdata/pipelinejit/pipeline"
)

func cfgWithSteps(steps ...pipeline.OpCall) *pipeline.Config {
	return &pipeline.Config{Name: "t", Steps: steps}
}

func TestExecuteDemoPipeline(t *testing.T) {
	cfg := cfgWithSteps(
		pipeline.OpCall{OpName: "add", OutputVar: "temp_sum", Args: []pipeline.Argument{
			pipeline.Var("price_a", pipeline.TypeF64), pipeline.Var("price_b", pipeline.TypeF64),
		}},
		pipeline.OpCall{OpName: "mul", OutputVar: "temp_product", Args: []pipeline.Argument{
			pipeline.Var("temp_sum", pipeline.TypeF64), pipeline.Var("volume", pipeline.TypeF64),
		}},
		pipeline.OpCall{OpName: "div", OutputVar: "final_score", Args: []pipeline.Argument{
			pipeline.Var("temp_product", pipeline.TypeF64), pipeline.Lit("100", pipeline.TypeF64),
		}},
	)

	ctx := NewContext()
	ctx.SetVariable("price_a", pipeline.NewF64(100.0))
	ctx.SetVariable("price_b", pipeline.NewF64(50.0))
	ctx.SetVariable("volume", pipeline.NewI32(10))

	if err := New(cfg, nil).Execute(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok := ctx.Get("final_score")
	if !ok {
		t.Fatal("final_score was never set")
	}
	if got.Float() != 15.0 {
		t.Errorf("final_score = %v, want 15.0", got.Float())
	}
}

func TestExecuteSign(t *testing.T) {
	cases := []struct {
		in   float64
		want int64
	}{
		{5.0, 1},
		{-5.0, -1},
		{0.0, 0},
	}
	for _, c := range cases {
		cfg := cfgWithSteps(pipeline.OpCall{
			OpName: "get_sign", OutputVar: "s",
			Args: []pipeline.Argument{pipeline.Var("x", pipeline.TypeF64)},
		})
		ctx := NewContext()
		ctx.SetVariable("x", pipeline.NewF64(c.in))
		if err := New(cfg, nil).Execute(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got, _ := ctx.Get("s")
		if got.Int() != c.want {
			t.Errorf("get_sign(%v) = %v, want %v", c.in, got.Int(), c.want)
		}
	}
}

func TestExecuteTypeConversions(t *testing.T) {
	cfg := cfgWithSteps(
		pipeline.OpCall{OpName: "direct_output_int32", OutputVar: "a", Args: []pipeline.Argument{pipeline.Lit("3.14", pipeline.TypeF64)}},
		pipeline.OpCall{OpName: "direct_output_int64", OutputVar: "b", Args: []pipeline.Argument{pipeline.Lit("3.14", pipeline.TypeF64)}},
		pipeline.OpCall{OpName: "direct_output_double", OutputVar: "c", Args: []pipeline.Argument{pipeline.Lit("42", pipeline.TypeI32)}},
	)
	ctx := NewContext()
	if err := New(cfg, nil).Execute(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a, _ := ctx.Get("a")
	if a.Int() != 3 {
		t.Errorf("direct_output_int32(3.14) = %v, want 3", a.Int())
	}
	b, _ := ctx.Get("b")
	if b.Int() != 3 {
		t.Errorf("direct_output_int64(3.14) = %v, want 3", b.Int())
	}
	c, _ := ctx.Get("c")
	if c.Float() != 42.0 {
		t.Errorf("direct_output_double(42) = %v, want 42.0", c.Float())
	}
}

func TestExecuteUnknownOperatorFails(t *testing.T) {
	cfg := cfgWithSteps(pipeline.OpCall{OpName: "not_a_real_operator", OutputVar: "y", Args: nil})
	if err := New(cfg, nil).Execute(NewContext()); err == nil {
		t.Fatal("expected an error for an unknown operator")
	}
}

func TestResolveArgMissingVariableCoercesToZero(t *testing.T) {
	cfg := cfgWithSteps(pipeline.OpCall{
		OpName: "abs", OutputVar: "y",
		Args: []pipeline.Argument{pipeline.Var("never_set", pipeline.TypeF64)},
	})
	ctx := NewContext()
	if err := New(cfg, nil).Execute(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := ctx.Get("y")
	if got.Float() != 0 {
		t.Errorf("missing variable did not coerce to zero: got %v", got.Float())
	}
}

func TestContextClearRemovesBindings(t *testing.T) {
	ctx := NewContext()
	ctx.SetVariable("x", pipeline.NewF64(1))
	ctx.Clear()
	if ctx.HasVariable("x") {
		t.Error("Clear did not remove a previously-set variable")
	}
}
