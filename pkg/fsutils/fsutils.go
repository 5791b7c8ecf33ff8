package fsutils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
)

// CreateDir creates a directory and any missing parents.
func CreateDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// WriteFileAtomic replaces path with content. The bytes go to a temp file in
// the same directory first, so readers see either the old or the new file.
func WriteFileAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := CreateDir(dir); err != nil {
		return fmt.Errorf("failed to create directory %q: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %q: %w", dir, err)
	}
	tmpName := tmp.Name()
	// Cleanup on any failure below; after a successful rename this is a no-op.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file %q: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file %q: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("failed to set permissions on %q: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %q: %w", path, err)
	}
	return nil
}

// CreateFileSync writes content to a new file at path and fsyncs it before
// returning. An existing file is never replaced: the error then matches
// fs.ErrExist.
func CreateFileSync(path string, content []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("failed to create %q: %w", path, err)
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to sync %q: %w", path, err)
	}
	return f.Close()
}

// FileExists checks if a path exists and is a regular file (not a directory).
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// RemoveIfExists deletes path. A missing file is not an error; removed reports
// whether something was actually deleted.
func RemoveIfExists(path string) (removed bool, err error) {
	err = os.Remove(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to remove %q: %w", path, err)
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9.-]`)

// SanitizeFilename replaces every character outside [A-Za-z0-9.-] with an
// underscore, one underscore per character. An empty name becomes "_".
func SanitizeFilename(name string) string {
	if name == "" {
		return "_"
	}
	return unsafeFilenameChars.ReplaceAllString(name, "_")
}
