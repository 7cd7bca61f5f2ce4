// Package dlopen wraps the POSIX dynamic loader (dlopen/dlsym/dlclose) via
// cgo. It is the only portable way to load an arbitrary C-ABI shared
// object built by an external compiler into a running Go process — the
// standard library's plugin package only loads Go-built plugins.
package dlopen

/*
#cgo linux LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdlib.h>

typedef const char* (*pipeline_string_fn)(void);

static const char* pipeline_call_string_fn(void *fn) {
	return ((pipeline_string_fn)fn)();
}
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// Handle owns one dlopen'd library. It exclusively owns the underlying OS
// handle: move is allowed by passing the Handle around, copy of the
// pointer is not meaningful, and Close must be called exactly once.
type Handle struct {
	ptr unsafe.Pointer
}

// Open loads the shared object at path with lazy, process-local (RTLD_LOCAL)
// binding, matching a pipeline-loader's need to keep many fingerprints'
// symbols from colliding across separately loaded libraries.
func Open(path string) (*Handle, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	C.dlerror() // clear any pending error
	ptr := C.dlopen(cpath, C.RTLD_LAZY|C.RTLD_LOCAL)
	if ptr == nil {
		return nil, fmt.Errorf("dlopen %s: %s", path, lastError())
	}
	return &Handle{ptr: ptr}, nil
}

// Symbol resolves name to an address, or returns an error if it is not
// exported by the library. The returned unsafe.Pointer is only valid while
// h remains open.
func (h *Handle) Symbol(name string) (unsafe.Pointer, error) {
	if h.ptr == nil {
		return nil, fmt.Errorf("dlsym %s: handle is closed", name)
	}
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	C.dlerror()
	sym := C.dlsym(h.ptr, cname)
	if sym == nil {
		if errStr := lastError(); errStr != "" {
			return nil, fmt.Errorf("dlsym %s: %s", name, errStr)
		}
		return nil, fmt.Errorf("dlsym %s: symbol not found", name)
	}
	return sym, nil
}

// Close releases the underlying OS handle. Double-close is forbidden;
// calling Close more than once is a programming error and the second call
// is a no-op to avoid crashing the process on cleanup races.
func (h *Handle) Close() error {
	if h.ptr == nil {
		return nil
	}
	C.dlerror()
	if C.dlclose(h.ptr) != 0 {
		err := lastError()
		h.ptr = nil
		return fmt.Errorf("dlclose: %s", err)
	}
	h.ptr = nil
	return nil
}

// CallStringFn invokes a resolved pipeline_name/pipeline_fingerprint
// symbol, matching the C-ABI contract: const char*(void).
func CallStringFn(fn unsafe.Pointer) string {
	s := C.pipeline_call_string_fn(fn)
	if s == nil {
		return ""
	}
	return C.GoString(s)
}

func lastError() string {
	msg := C.dlerror()
	if msg == nil {
		return ""
	}
	return C.GoString(msg)
}
