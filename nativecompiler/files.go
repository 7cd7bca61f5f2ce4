package nativecompiler

import (
	"os"
	"path/filepath"
)

// WriteSource writes src to path, creating any missing parent directories.
func WriteSource(path string, src []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, src, 0o644)
}

// EnsureDir creates dir (and parents) if it does not already exist.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}
