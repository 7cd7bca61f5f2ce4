package jit

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/influxdata/pipelinejit/dlopen"
	"github.com/influxdata/pipelinejit/interp"
	"github.com/influxdata/pipelinejit/pipeline"
)

func TestScalarFamilyMapping(t *testing.T) {
	cases := []struct {
		t    pipeline.Type
		want string
	}{
		{pipeline.TypeI32, "i32"},
		{pipeline.TypeI64, "i64"},
		{pipeline.TypeF32, "f64"},
		{pipeline.TypeF64, "f64"},
		{pipeline.TypeStr, "str"},
	}
	for _, c := range cases {
		if got := scalarFamily(c.t); got != c.want {
			t.Errorf("scalarFamily(%v) = %q, want %q", c.t, got, c.want)
		}
	}
}

func TestMarshalInputsGroupsByFamilyInDeclarationOrder(t *testing.T) {
	cfg := &pipeline.Config{
		Inputs: []pipeline.Field{
			{Name: "a", Type: pipeline.TypeF64},
			{Name: "b", Type: pipeline.TypeI32},
			{Name: "c", Type: pipeline.TypeF64},
			{Name: "d", Type: pipeline.TypeI64},
		},
	}
	rctx := interp.NewContext()
	rctx.SetVariable("a", pipeline.NewF64(1.5))
	rctx.SetVariable("b", pipeline.NewI32(7))
	rctx.SetVariable("c", pipeline.NewF64(2.5))
	rctx.SetVariable("d", pipeline.NewI64(99))

	got := marshalInputs(cfg, rctx)
	want := dlopen.InputArrays{
		F64: []float64{1.5, 2.5},
		I32: []int32{7},
		I64: []int64{99},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("marshalInputs mismatch (-want +got):\n%s", diff)
	}
}

func TestMarshalInputsMissingVariableReadsZero(t *testing.T) {
	cfg := &pipeline.Config{Inputs: []pipeline.Field{{Name: "never_set", Type: pipeline.TypeF64}}}
	in := marshalInputs(cfg, interp.NewContext())
	if len(in.F64) != 1 || in.F64[0] != 0 {
		t.Errorf("missing variable did not marshal as zero: %v", in.F64)
	}
}

func TestAllocateOutputsSizesPerFamily(t *testing.T) {
	cfg := &pipeline.Config{
		Outputs: []pipeline.Field{
			{Name: "x", Type: pipeline.TypeF64},
			{Name: "y", Type: pipeline.TypeI32},
			{Name: "z", Type: pipeline.TypeI64},
		},
	}
	out := allocateOutputs(cfg)
	if len(out.F64) != 1 || len(out.I32) != 1 || len(out.I64) != 1 {
		t.Errorf("allocateOutputs sizes = f64:%d i32:%d i64:%d, want 1 each", len(out.F64), len(out.I32), len(out.I64))
	}
}

func TestUnmarshalOutputsWritesDeclaredTypes(t *testing.T) {
	cfg := &pipeline.Config{
		Outputs: []pipeline.Field{
			{Name: "final_score", Type: pipeline.TypeF64},
			{Name: "sign", Type: pipeline.TypeI32},
			{Name: "count", Type: pipeline.TypeI64},
		},
	}
	out := allocateOutputs(cfg)
	out.F64[0] = 15.0
	out.I32[0] = -1
	out.I64[0] = 42

	rctx := interp.NewContext()
	unmarshalOutputs(cfg, out, rctx)

	score, _ := rctx.Get("final_score")
	if score.Float() != 15.0 {
		t.Errorf("final_score = %v, want 15.0", score.Float())
	}
	sign, _ := rctx.Get("sign")
	if sign.Int() != -1 {
		t.Errorf("sign = %v, want -1", sign.Int())
	}
	count, _ := rctx.Get("count")
	if count.Int() != 42 {
		t.Errorf("count = %v, want 42", count.Int())
	}
}

func TestInvalidateForcesRecompileOnNextExecute(t *testing.T) {
	e := &Executor{loaded: true}
	e.Invalidate()
	if !e.needsRecompile {
		t.Error("Invalidate did not set needsRecompile")
	}
}
