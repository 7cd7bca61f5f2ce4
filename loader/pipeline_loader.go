package loader

import (
	"sync"
	"unsafe"

	"github.com/influxdata/pipelinejit/dlopen"
	"github.com/influxdata/pipelinejit/perr"
	"github.com/influxdata/pipelinejit/pipeline"
)

// loadedPipeline is one fingerprint's loaded library plus its resolved
// entry point and display name.
type loadedPipeline struct {
	loader *Loader
	entry  unsafe.Pointer
	name   string
	inUse  int
}

// PipelineLoader is the process-wide, fingerprint-keyed map of loaded
// pipeline libraries. Load eagerly resolves the fingerprint's entry
// symbol (falling back to a generic "pipeline_execute" symbol) and records
// an optional display name from pipeline_name(). Execute calls through the
// resolved entry; Unload/UnloadAll release handles, refusing to do so
// while any Execute is in flight on that fingerprint (or, for UnloadAll,
// on any fingerprint), per the concurrency model's "forbid unload while
// executing" rule.
type PipelineLoader struct {
	mu        sync.Mutex
	pipelines map[string]*loadedPipeline
}

// NewPipelineLoader returns an empty PipelineLoader.
func NewPipelineLoader() *PipelineLoader {
	return &PipelineLoader{pipelines: make(map[string]*loadedPipeline)}
}

// Load associates fingerprint with the library at path. Loading the same
// fingerprint twice replaces the prior loader instance for that
// fingerprint (closing it first) rather than double-opening the library.
func (pl *PipelineLoader) Load(fingerprint, path string) error {
	const op = "loader.PipelineLoader.Load"

	pl.mu.Lock()
	defer pl.mu.Unlock()
	if existing, ok := pl.pipelines[fingerprint]; ok {
		if existing.inUse > 0 {
			return perr.New(perr.ELoad, op, "fingerprint "+fingerprint+" is currently executing; cannot reload")
		}
		_ = existing.loader.Close()
		delete(pl.pipelines, fingerprint)
	}

	l := New()
	if err := l.Load(path); err != nil {
		return perr.Wrap(err, op, "open pipeline library")
	}

	sanitized := pipeline.SanitizedFingerprint(fingerprint)
	entrySym := pipeline.EntrySymbol(sanitized)

	entry, err := l.Symbol(entrySym)
	if err != nil {
		entry, err = l.Symbol("pipeline_execute")
		if err != nil {
			_ = l.Close()
			return perr.New(perr.ELoad, op, "neither "+entrySym+" nor the generic pipeline_execute symbol is exported")
		}
	}

	name := ""
	if nameFn, err := l.Symbol("pipeline_name"); err == nil {
		name = dlopen.CallStringFn(nameFn)
	}

	pl.pipelines[fingerprint] = &loadedPipeline{loader: l, entry: entry, name: name}
	return nil
}

// Loaded reports whether fingerprint currently has a loaded library.
func (pl *PipelineLoader) Loaded(fingerprint string) bool {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	_, ok := pl.pipelines[fingerprint]
	return ok
}

// Name returns the display name recorded for fingerprint, if loaded.
func (pl *PipelineLoader) Name(fingerprint string) (string, bool) {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	lp, ok := pl.pipelines[fingerprint]
	if !ok {
		return "", false
	}
	return lp.name, true
}

// Execute calls the resolved entry for fingerprint with in marshalled into
// the array-view layout and out's slices filled in place, returning the
// entry's boolean success flag.
func (pl *PipelineLoader) Execute(fingerprint string, in dlopen.InputArrays, out dlopen.OutputArrays) (bool, error) {
	const op = "loader.PipelineLoader.Execute"

	pl.mu.Lock()
	lp, ok := pl.pipelines[fingerprint]
	if !ok {
		pl.mu.Unlock()
		return false, perr.New(perr.ELoad, op, "fingerprint "+fingerprint+" is not loaded")
	}
	lp.inUse++
	pl.mu.Unlock()

	defer func() {
		pl.mu.Lock()
		lp.inUse--
		pl.mu.Unlock()
	}()

	return dlopen.CallPipelineEntry(lp.entry, in, out), nil
}

// Unload releases the library loaded for fingerprint, if any. It refuses
// to do so while an Execute call is in flight for that fingerprint.
func (pl *PipelineLoader) Unload(fingerprint string) error {
	const op = "loader.PipelineLoader.Unload"

	pl.mu.Lock()
	defer pl.mu.Unlock()

	lp, ok := pl.pipelines[fingerprint]
	if !ok {
		return nil
	}
	if lp.inUse > 0 {
		return perr.New(perr.ELoad, op, "fingerprint "+fingerprint+" is currently executing; cannot unload")
	}
	delete(pl.pipelines, fingerprint)
	if err := lp.loader.Close(); err != nil {
		return perr.Wrap(err, op, "close pipeline library")
	}
	return nil
}

// UnloadAll releases every loaded library. It refuses to do so while any
// Execute call is in flight anywhere in the map.
func (pl *PipelineLoader) UnloadAll() error {
	const op = "loader.PipelineLoader.UnloadAll"

	pl.mu.Lock()
	defer pl.mu.Unlock()

	for fp, lp := range pl.pipelines {
		if lp.inUse > 0 {
			return perr.New(perr.ELoad, op, "fingerprint "+fp+" is currently executing; cannot unload all")
		}
	}
	var firstErr error
	for fp, lp := range pl.pipelines {
		if err := lp.loader.Close(); err != nil && firstErr == nil {
			firstErr = perr.Wrap(err, op, "close pipeline library "+fp)
		}
		delete(pl.pipelines, fp)
	}
	return firstErr
}
