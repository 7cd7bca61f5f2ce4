package cache

import (
	"path/filepath"

	"github.com/influxdata/pipelinejit/pipeline"
)

// SourcePath returns the path a fingerprint's emitted source is written
// to under dir: pipeline_<fingerprint>.cpp.
func SourcePath(dir, fingerprint string) string {
	sanitized := pipeline.SanitizedFingerprint(fingerprint)
	return filepath.Join(dir, "pipeline_"+sanitized+".cpp")
}

// ArtifactPath returns the path a fingerprint's compiled shared object is
// written to under dir: libpipeline_<fingerprint>.so. The layout is stable
// across processes: the same fingerprint always maps to the same file name.
// Nothing in the cache reads this path back on its own; a new process
// compiles again before it records an entry.
func ArtifactPath(dir, fingerprint string) string {
	sanitized := pipeline.SanitizedFingerprint(fingerprint)
	return filepath.Join(dir, "libpipeline_"+sanitized+".so")
}
