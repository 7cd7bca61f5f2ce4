package catalog

import (
	"testing"

	"github.com/influxdata/pipelinejit/pipeline"
)

func TestExecUnknownOperator(t *testing.T) {
	if _, ok := Exec("not_a_real_operator", nil); ok {
		t.Error("Exec reported an unknown operator as known")
	}
}

func TestExecDivisionByZeroCoercesToZero(t *testing.T) {
	v, ok := Exec("div", []pipeline.Value{pipeline.NewF64(10), pipeline.NewF64(0)})
	if !ok {
		t.Fatal("div not recognized")
	}
	if v.Float() != 0 {
		t.Errorf("div by zero = %v, want 0", v.Float())
	}
}

func TestExecNegativeSqrtCoercesToZero(t *testing.T) {
	v, ok := Exec("sqrt", []pipeline.Value{pipeline.NewF64(-4)})
	if !ok {
		t.Fatal("sqrt not recognized")
	}
	if v.Float() != 0 {
		t.Errorf("sqrt(-4) = %v, want 0", v.Float())
	}
}

func TestExecGetSign(t *testing.T) {
	cases := []struct {
		in   float64
		want int32
	}{
		{5, 1},
		{-5, -1},
		{0, 0},
	}
	for _, c := range cases {
		v, ok := Exec("get_sign", []pipeline.Value{pipeline.NewF64(c.in)})
		if !ok {
			t.Fatal("get_sign not recognized")
		}
		if v.Int() != int64(c.want) {
			t.Errorf("get_sign(%v) = %v, want %v", c.in, v.Int(), c.want)
		}
	}
}

func TestExecAvgAvgLog(t *testing.T) {
	cases := []struct {
		x    float64
		want int64
	}{
		{0, 0},
		{5000, 6},
		{-5000, -6},
		{20000, 18},
	}
	for _, c := range cases {
		args := []pipeline.Value{
			pipeline.NewF64(c.x),
			pipeline.NewF64(float64(avgAvgLogInter1)),
			pipeline.NewF64(float64(avgAvgLogT1)),
			pipeline.NewF64(float64(avgAvgLogInter2)),
			pipeline.NewF64(float64(avgAvgLogT2)),
		}
		v, ok := Exec("avg_avg_log", args)
		if !ok {
			t.Fatal("avg_avg_log not recognized")
		}
		if v.Int() != c.want {
			t.Errorf("avg_avg_log(%v) = %v, want %v", c.x, v.Int(), c.want)
		}
	}

	// Region 3 (|x| > t2) switches to the log-base-1.5 curve; 300000 with
	// the default parameters lands on 74 via the native operator's formula
	// (start=64 at the region-2/3 boundary, plus floor(log(60)/log(1.5))=10).
	posArgs := []pipeline.Value{
		pipeline.NewF64(300000),
		pipeline.NewF64(float64(avgAvgLogInter1)),
		pipeline.NewF64(float64(avgAvgLogT1)),
		pipeline.NewF64(float64(avgAvgLogInter2)),
		pipeline.NewF64(float64(avgAvgLogT2)),
	}
	v, ok := Exec("avg_avg_log", posArgs)
	if !ok {
		t.Fatal("avg_avg_log not recognized")
	}
	if v.Int() != 74 {
		t.Errorf("avg_avg_log(300000) = %v, want 74", v.Int())
	}
}

func TestExecCrossCount(t *testing.T) {
	a := pipeline.NewListI64([]int64{1, 2, 3})
	b := pipeline.NewListI64([]int64{2, 3, 4})

	count, ok := Exec("catein_list_cross_count", []pipeline.Value{a, b})
	if !ok {
		t.Fatal("catein_list_cross_count not recognized")
	}
	if count.Int() != 2 {
		t.Errorf("cross count = %v, want 2", count.Int())
	}

	crossed, ok := Exec("catein_list_cross", []pipeline.Value{a, b})
	if !ok {
		t.Fatal("catein_list_cross not recognized")
	}
	if crossed.Int() != 1 {
		t.Errorf("catein_list_cross = %v, want 1 (truthy)", crossed.Int())
	}
}

func TestExecMovingAverage(t *testing.T) {
	list := pipeline.NewListF64([]float64{1, 2, 3, 4, 5})

	v, ok := Exec("moving_average", []pipeline.Value{list, pipeline.NewI64(2)})
	if !ok {
		t.Fatal("moving_average not recognized")
	}
	if got, want := v.Float(), 4.5; got != want {
		t.Errorf("moving_average(window=2) = %v, want %v", got, want)
	}

	v, ok = Exec("moving_average", []pipeline.Value{list, pipeline.NewI64(0)})
	if !ok {
		t.Fatal("moving_average not recognized")
	}
	if got, want := v.Float(), 3.0; got != want {
		t.Errorf("moving_average(window<=0) = %v, want average of all elements %v", got, want)
	}
}

func TestExecVectorSumAndAvg(t *testing.T) {
	list := pipeline.NewListI64([]int64{1, 2, 3, 4})

	sum, ok := Exec("vector_sum", []pipeline.Value{list})
	if !ok {
		t.Fatal("vector_sum not recognized")
	}
	if sum.Float() != 10 {
		t.Errorf("vector_sum = %v, want 10", sum.Float())
	}

	avg, ok := Exec("vector_avg", []pipeline.Value{list})
	if !ok {
		t.Fatal("vector_avg not recognized")
	}
	if avg.Float() != 2.5 {
		t.Errorf("vector_avg = %v, want 2.5", avg.Float())
	}
}
