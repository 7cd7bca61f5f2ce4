package catalog

import (
	"math"
	"strconv"
	"strings"

	"github.com/influxdata/pipelinejit/pipeline"
)

// avgAvgLogParams are the operator's default scalar parameters, fixed at
// the values the native operator library compiles in. The native signature
// takes these as int32_t, so integer (truncating) division applies even to
// caller-supplied overrides.
const (
	avgAvgLogInter1 int32 = 1000
	avgAvgLogT1     int32 = 15000
	avgAvgLogInter2 int32 = 5000
	avgAvgLogT2     int32 = 250000
)

// Exec dispatches a single operator call against already-resolved
// pipeline.Value arguments and returns the operator's result. It is the
// interpreter's fixed dispatch table, and must mirror exactly what the
// generated native code computes by calling into the operator library:
// every boundary decision here (division by zero, negative sqrt) is a
// semantic commitment shared with the native side.
func Exec(opName string, args []pipeline.Value) (pipeline.Value, bool) {
	switch opName {
	case "get_sign":
		return pipeline.NewI32(sign(args[0].AsF64())), true

	case "price_diff":
		discount := args[0].AsF64()
		if discount == 0 {
			return pipeline.NewF64(0), true
		}
		return pipeline.NewF64(discount - args[1].AsF64()), true

	case "avg_avg_log":
		x := args[0].AsF64()
		inter1, t1, inter2, t2 := avgAvgLogInter1, avgAvgLogT1, avgAvgLogInter2, avgAvgLogT2
		if len(args) == 5 {
			inter1, t1, inter2, t2 = int32(args[1].AsF64()), int32(args[2].AsF64()), int32(args[3].AsF64()), int32(args[4].AsF64())
		}
		return pipeline.NewI64(avgAvgLog(x, inter1, t1, inter2, t2)), true

	case "direct_output_int32":
		return pipeline.NewI32(int32(args[0].AsF64())), true
	case "direct_output_int64":
		return pipeline.NewI64(int64(args[0].AsF64())), true
	case "direct_output_double":
		return pipeline.NewF64(args[0].AsF64()), true
	case "direct_output_string":
		return pipeline.NewStr(args[0].Str()), true

	case "len":
		return pipeline.NewI64(int64(listLen(args[0]))), true

	case "list_to_string":
		return pipeline.NewStr(listToString(args[0], args[1].Str())), true

	case "catein_list_cross":
		n := crossCount(args[0], args[1])
		if n > 0 {
			return pipeline.NewI32(1), true
		}
		return pipeline.NewI32(0), true

	case "catein_list_cross_count":
		return pipeline.NewI32(int32(crossCount(args[0], args[1]))), true

	case "add":
		return pipeline.NewF64(args[0].AsF64() + args[1].AsF64()), true
	case "sub":
		return pipeline.NewF64(args[0].AsF64() - args[1].AsF64()), true
	case "mul":
		return pipeline.NewF64(args[0].AsF64() * args[1].AsF64()), true
	case "div":
		b := args[1].AsF64()
		if b == 0 {
			return pipeline.NewF64(0), true
		}
		return pipeline.NewF64(args[0].AsF64() / b), true

	case "if_else":
		if args[0].AsF64() != 0 {
			return pipeline.NewF64(args[1].AsF64()), true
		}
		return pipeline.NewF64(args[2].AsF64()), true

	case "max":
		return pipeline.NewF64(math.Max(args[0].AsF64(), args[1].AsF64())), true
	case "min":
		return pipeline.NewF64(math.Min(args[0].AsF64(), args[1].AsF64())), true

	case "abs":
		return pipeline.NewF64(math.Abs(args[0].AsF64())), true
	case "square":
		v := args[0].AsF64()
		return pipeline.NewF64(v * v), true
	case "sqrt":
		v := args[0].AsF64()
		if v < 0 {
			return pipeline.NewF64(0), true
		}
		return pipeline.NewF64(math.Sqrt(v)), true

	case "floor":
		return pipeline.NewI32(int32(math.Floor(args[0].AsF64()))), true
	case "ceil":
		return pipeline.NewI32(int32(math.Ceil(args[0].AsF64()))), true

	case "percent":
		b := args[1].AsF64()
		if b == 0 {
			return pipeline.NewF64(0), true
		}
		return pipeline.NewF64(args[0].AsF64() / b * 100), true

	case "moving_average":
		return pipeline.NewF64(movingAverage(args[0], int(args[1].AsI64()))), true

	case "vector_sum":
		return pipeline.NewF64(vectorSum(args[0])), true
	case "vector_avg":
		return pipeline.NewF64(vectorAvg(args[0])), true

	default:
		return pipeline.Value{}, false
	}
}

func sign(x float64) int32 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

// avgAvgLog is the piecewise log-like scaling used to compress a wide
// dynamic range (e.g. traded volume) into a small integer band. Regions 1
// and 2 are linear and pick up where the previous region left off; region
// 3 switches to a log-base-1.5 curve. All arithmetic below t2 is integer
// division on int64, matching the native operator's int32_t parameters, so
// results stay bit-exact with the compiled library for non-aligned inputs.
func avgAvgLog(x float64, inter1, t1, inter2, t2 int32) int64 {
	if x == 0 {
		return 0
	}
	oriAbs := int64(math.Abs(x))
	var res int64
	switch {
	case oriAbs <= int64(t1):
		res = oriAbs/int64(inter1) + 1
	case oriAbs <= int64(t2):
		start := int64(t1)/int64(inter1) + 1
		res = start + (oriAbs-int64(t1))/int64(inter2) + 1
	default:
		start := int64(t1)/int64(inter1) + 1 + (int64(t2)-int64(t1))/int64(inter2) + 1
		realLog := oriAbs / int64(inter2)
		res = start + int64(math.Log(float64(realLog))/math.Log(1.5))
	}
	if x >= 0 {
		return res
	}
	return -res
}

func listLen(v pipeline.Value) int {
	switch v.Tag {
	case pipeline.TypeListI64:
		return len(v.ListI64())
	case pipeline.TypeListF64:
		return len(v.ListF64())
	case pipeline.TypeListStr:
		return len(v.ListStr())
	default:
		return 0
	}
}

func listToString(v pipeline.Value, sep string) string {
	switch v.Tag {
	case pipeline.TypeListI64:
		parts := make([]string, len(v.ListI64()))
		for i, e := range v.ListI64() {
			parts[i] = strconv.FormatInt(e, 10)
		}
		return strings.Join(parts, sep)
	case pipeline.TypeListF64:
		parts := make([]string, len(v.ListF64()))
		for i, e := range v.ListF64() {
			parts[i] = strconv.FormatFloat(e, 'g', -1, 64)
		}
		return strings.Join(parts, sep)
	case pipeline.TypeListStr:
		return strings.Join(v.ListStr(), sep)
	default:
		return ""
	}
}

// crossCount returns how many elements of a also occur in b, by value.
// Only integer lists participate; non-list or mismatched-element-type
// arguments yield zero.
func crossCount(a, b pipeline.Value) int {
	if a.Tag != pipeline.TypeListI64 || b.Tag != pipeline.TypeListI64 {
		return 0
	}
	set := make(map[int64]struct{}, len(b.ListI64()))
	for _, e := range b.ListI64() {
		set[e] = struct{}{}
	}
	n := 0
	for _, e := range a.ListI64() {
		if _, ok := set[e]; ok {
			n++
		}
	}
	return n
}

func vectorSum(v pipeline.Value) float64 {
	switch v.Tag {
	case pipeline.TypeListF64:
		var sum float64
		for _, e := range v.ListF64() {
			sum += e
		}
		return sum
	case pipeline.TypeListI64:
		var sum float64
		for _, e := range v.ListI64() {
			sum += float64(e)
		}
		return sum
	default:
		return 0
	}
}

func vectorAvg(v pipeline.Value) float64 {
	n := listLen(v)
	if n == 0 {
		return 0
	}
	return vectorSum(v) / float64(n)
}

// movingAverage averages the last window elements of v (or all of them, if
// window <= 0 or window exceeds the list length).
func movingAverage(v pipeline.Value, window int) float64 {
	n := listLen(v)
	if n == 0 {
		return 0
	}
	if window <= 0 || window > n {
		window = n
	}
	switch v.Tag {
	case pipeline.TypeListF64:
		elems := v.ListF64()[n-window:]
		var sum float64
		for _, e := range elems {
			sum += e
		}
		return sum / float64(window)
	case pipeline.TypeListI64:
		elems := v.ListI64()[n-window:]
		var sum float64
		for _, e := range elems {
			sum += float64(e)
		}
		return sum / float64(window)
	default:
		return 0
	}
}
