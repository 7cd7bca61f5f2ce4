package dlopen

/*
#include <stdint.h>
#include <stdlib.h>

typedef unsigned char (*pipeline_entry_fn)(void*, void*);

typedef struct {
	const double* f64_values;
	const int64_t* i64_values;
	const int32_t* i32_values;
	const char* const* str_values;
} pipeline_input_arrays;

typedef struct {
	double* f64_values;
	int64_t* i64_values;
	int32_t* i32_values;
} pipeline_output_arrays;

static unsigned char pipeline_call_entry_arrays(void *fn, pipeline_input_arrays *in, pipeline_output_arrays *out) {
	return ((pipeline_entry_fn)fn)(in, out);
}
*/
import "C"

import (
	"runtime"
	"unsafe"
)

// InputArrays mirrors the emitted entry's PipelineInputArrays layout: one
// contiguous slice per scalar family, indexed by each family's inputs in
// declaration order.
type InputArrays struct {
	F64 []float64
	I64 []int64
	I32 []int32
	Str []string
}

// OutputArrays mirrors the emitted entry's PipelineOutputArrays layout.
// String outputs do not cross the entry boundary (see codegen's
// lowerOutputPack), so there is no Str field here.
type OutputArrays struct {
	F64 []float64
	I64 []int64
	I32 []int32
}

// CallPipelineEntry invokes a resolved pipeline_execute_<fingerprint>
// entry, marshalling in into the array-view struct the emitted code
// unpacks from and leaving out's slices filled in place with the entry's
// results. Every Go slice handed to the entry is pinned for the duration
// of the call so the garbage collector cannot relocate it out from under
// the native code.
func CallPipelineEntry(fn unsafe.Pointer, in InputArrays, out OutputArrays) bool {
	var pinner runtime.Pinner
	defer pinner.Unpin()

	cin := C.pipeline_input_arrays{}
	if n := len(in.F64); n > 0 {
		pinner.Pin(&in.F64[0])
		cin.f64_values = (*C.double)(unsafe.Pointer(&in.F64[0]))
	}
	if n := len(in.I64); n > 0 {
		pinner.Pin(&in.I64[0])
		cin.i64_values = (*C.int64_t)(unsafe.Pointer(&in.I64[0]))
	}
	if n := len(in.I32); n > 0 {
		pinner.Pin(&in.I32[0])
		cin.i32_values = (*C.int32_t)(unsafe.Pointer(&in.I32[0]))
	}

	var cStrs []*C.char
	if n := len(in.Str); n > 0 {
		cStrs = make([]*C.char, n)
		for i, s := range in.Str {
			cStrs[i] = C.CString(s)
		}
		defer func() {
			for _, p := range cStrs {
				C.free(unsafe.Pointer(p))
			}
		}()
		pinner.Pin(&cStrs[0])
		cin.str_values = (**C.char)(unsafe.Pointer(&cStrs[0]))
	}

	cout := C.pipeline_output_arrays{}
	if n := len(out.F64); n > 0 {
		pinner.Pin(&out.F64[0])
		cout.f64_values = (*C.double)(unsafe.Pointer(&out.F64[0]))
	}
	if n := len(out.I64); n > 0 {
		pinner.Pin(&out.I64[0])
		cout.i64_values = (*C.int64_t)(unsafe.Pointer(&out.I64[0]))
	}
	if n := len(out.I32); n > 0 {
		pinner.Pin(&out.I32[0])
		cout.i32_values = (*C.int32_t)(unsafe.Pointer(&out.I32[0]))
	}

	return C.pipeline_call_entry_arrays(fn, &cin, &cout) != 0
}
