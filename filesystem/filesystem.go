// Package filesystem provides a virtualized abstraction layer for all filesystem operations.
//
// It utilizes the afero library to allow seamless switching between OS-level and in-memory filesystem backends.
package filesystem

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

var backend = afero.Afero{Fs: afero.NewOsFs()}

// API returns the active afero.Afero instance for filesystem interaction.
func API() afero.Afero {
	return backend
}

// SetOsFs restores the filesystem backend to the native operating system implementation.
func SetOsFs() {
	backend = afero.Afero{Fs: afero.NewOsFs()}
}

// SetMemMapFs initializes a volatile in-memory filesystem backend for unit testing and CI environments.
func SetMemMapFs() {
	backend = afero.Afero{Fs: afero.NewMemMapFs()}
}

// WriteAtomic writes data to a sibling temporary file and renames it over path,
// so readers observe either the previous content or the new one, never a prefix.
// Parent directories are created as needed.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	fs := API()
	dir := filepath.Dir(path)

	if err := fs.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(fs, dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	name := tmp.Name()
	cleanup := func() { _ = fs.Remove(name) }

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write %s: %w", name, err)
	}

	if err = tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close %s: %w", name, err)
	}

	if err = fs.Chmod(name, perm); err != nil {
		cleanup()
		return err
	}

	if err = fs.Rename(name, path); err != nil {
		cleanup()
		return fmt.Errorf("rename %s: %w", name, err)
	}

	return nil
}
