// Package loader wraps OS shared-object open/close and symbol resolution,
// and maintains the fingerprint-keyed map of loaded pipeline libraries the
// JIT executor calls through.
package loader

import (
	"fmt"
	"unsafe"

	"github.com/influxdata/pipelinejit/dlopen"
	"github.com/influxdata/pipelinejit/perr"
)

// Loader wraps a single dlopen.Handle. Repeated Load on the same instance
// first closes the previous handle. Move is allowed (pass the *Loader
// around); copy is not meaningful since the handle is exclusively owned.
type Loader struct {
	handle *dlopen.Handle
	path   string
}

// New returns an unloaded Loader.
func New() *Loader { return &Loader{} }

// Load opens the shared object at path with lazy, process-local
// visibility. If a library is already loaded on this instance, it is
// closed first.
func (l *Loader) Load(path string) error {
	if l.handle != nil {
		_ = l.handle.Close()
		l.handle = nil
		l.path = ""
	}
	h, err := dlopen.Open(path)
	if err != nil {
		return perr.New(perr.ELoad, "loader.Loader.Load", err.Error())
	}
	l.handle = h
	l.path = path
	return nil
}

// Symbol resolves name to its address, or returns an error distinguishing
// "not loaded" from "loaded but symbol missing".
func (l *Loader) Symbol(name string) (unsafe.Pointer, error) {
	if l.handle == nil {
		return nil, perr.New(perr.ELoad, "loader.Loader.Symbol", fmt.Sprintf("no library loaded (wanted symbol %s)", name))
	}
	ptr, err := l.handle.Symbol(name)
	if err != nil {
		return nil, perr.New(perr.ELoad, "loader.Loader.Symbol", err.Error())
	}
	return ptr, nil
}

// Close releases the handle, if one is open. It is safe to call multiple
// times.
func (l *Loader) Close() error {
	if l.handle == nil {
		return nil
	}
	err := l.handle.Close()
	l.handle = nil
	l.path = ""
	if err != nil {
		return perr.New(perr.ELoad, "loader.Loader.Close", err.Error())
	}
	return nil
}

// Path returns the path of the currently loaded library, or "" if none.
func (l *Loader) Path() string { return l.path }
