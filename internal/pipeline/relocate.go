package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Relocate moves src into dir under its base name, replacing any file
// already there. A plain rename is tried first; when that fails, for example
// across devices, the file is copied, synced and the source removed.
func Relocate(src, dir string) (string, error) {
	dest := filepath.Join(dir, filepath.Base(src))
	renameErr := os.Rename(src, dest)
	if renameErr == nil {
		return dest, nil
	}
	if _, err := os.Lstat(src); err != nil {
		return "", renameErr
	}
	if err := copyReplace(src, dest); err != nil {
		return "", fmt.Errorf("%w (copy fallback: %v)", renameErr, err)
	}
	if err := os.Remove(src); err != nil {
		return dest, fmt.Errorf("remove source after copy: %w", err)
	}
	return dest, nil
}

func copyReplace(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".printwatch-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}
	if _, err := io.Copy(tmp, in); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	_ = os.Chmod(tmpName, info.Mode().Perm())
	_ = os.Chtimes(tmpName, info.ModTime(), info.ModTime())
	if err := os.Rename(tmpName, dest); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
