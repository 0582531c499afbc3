// Package security confines the files the tools read and write to one directory.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator resolves tool paths against a configured root directory
type PathValidator struct {
	root string
}

// NewPathValidator creates a validator rooted at directory. The directory
// does not have to exist yet.
func NewPathValidator(directory string) (*PathValidator, error) {
	if directory == "" {
		return nil, fmt.Errorf("configured directory cannot be empty")
	}
	abs, err := filepath.Abs(directory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve configured directory: %w", err)
	}
	return &PathValidator{root: filepath.Clean(abs)}, nil
}

// Directory returns the absolute root directory
func (v *PathValidator) Directory() string {
	return v.root
}

// Resolve returns the absolute form of path, which must name an existing
// regular file inside the root. Relative paths are taken relative to the root.
func (v *PathValidator) Resolve(path string) (string, error) {
	abs, err := v.confine(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("file does not exist: %s", path)
	}
	if err != nil {
		return "", fmt.Errorf("cannot access file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("path is a directory, not a file: %s", path)
	}
	return abs, nil
}

// ResolveOutput returns the absolute form of a path to be written. The file
// may not exist yet but its directory must lie inside the root.
func (v *PathValidator) ResolveOutput(path string) (string, error) {
	abs, err := v.confine(path)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		return "", fmt.Errorf("output path is a directory: %s", path)
	}
	if _, err := v.confine(filepath.Dir(abs)); err != nil {
		return "", err
	}
	return abs, nil
}

// Within reports whether path lies inside the root once symlinks are resolved
func (v *PathValidator) Within(path string) bool {
	_, err := v.confine(path)
	return err == nil
}

func (v *PathValidator) confine(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(v.root, path)
	}
	abs := filepath.Clean(path)

	if !inside(abs, v.root) {
		return "", fmt.Errorf("path is outside configured directory: %s", path)
	}

	// a symlink inside the root may still point elsewhere
	root := v.root
	if real, err := filepath.EvalSymlinks(root); err == nil {
		root = real
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil && !inside(real, root) && !inside(real, v.root) {
		return "", fmt.Errorf("path resolves outside configured directory: %s", path)
	}
	return abs, nil
}

func inside(path, dir string) bool {
	if path == dir {
		return true
	}
	return strings.HasPrefix(path, strings.TrimSuffix(dir, string(filepath.Separator))+string(filepath.Separator))
}
