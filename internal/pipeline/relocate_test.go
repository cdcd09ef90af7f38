package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestCopyReplace(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.pdf")
	dest := filepath.Join(dir, "out", "src.pdf")
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(src, []byte("payload"), 0o640); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(dest, []byte("stale"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := copyReplace(src, dest); err != nil {
		t.Fatalf("copyReplace() error = %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil || string(data) != "payload" {
		t.Fatalf("dest content = %q, %v", data, err)
	}
	entries, err := os.ReadDir(filepath.Dir(dest))
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("leftover temp files: %v", entries)
	}
}

func TestRelocateMissingSource(t *testing.T) {
	dir := t.TempDir()
	_, err := Relocate(filepath.Join(dir, "gone.pdf"), dir)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Relocate() error = %v, want ErrNotExist", err)
	}
}
