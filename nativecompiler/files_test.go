package nativecompiler

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureDirCreatesNestedPath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !info.IsDir() {
		t.Error("EnsureDir did not create a directory")
	}
}

func TestEnsureDirIdempotent(t *testing.T) {
	dir := t.TempDir()
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("unexpected error on existing dir: %v", err)
	}
}
