// Package pathutil confines file arguments from untrusted callers (MCP
// tool inputs) to a set of data roots.
package pathutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoots is returned for a path that resolves outside every root.
var ErrOutsideRoots = errors.New("outside allowed directories")

// RedactPath shortens a path to .../<parent>/<basename> for error messages,
// e.g. "/data/run5/event12.json.bz2" becomes ".../run5/event12.json.bz2".
func RedactPath(path string) string {
	if path == "" {
		return ""
	}
	cleaned := filepath.Clean(path)
	parent := filepath.Base(filepath.Dir(cleaned))
	if parent == "." || parent == string(filepath.Separator) {
		return filepath.Base(cleaned)
	}
	return ".../" + parent + "/" + filepath.Base(cleaned)
}

// ValidatePath checks that path lies within one of roots after cleaning
// and resolving symlinks. The file itself need not exist.
func ValidatePath(path string, roots []string) error {
	_, err := resolve(path, roots)
	return err
}

// ResolveDataFile resolves path for reading. Relative paths are taken
// relative to roots[0]. The result must be an existing regular file
// inside one of roots.
func ResolveDataFile(path string, roots []string) (string, error) {
	if path != "" && len(roots) > 0 && !filepath.IsAbs(path) {
		path = filepath.Join(roots[0], path)
	}
	resolved, err := resolve(path, roots)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("path validation failed: %s: %w", RedactPath(resolved), err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("path validation failed: %s is not a regular file", RedactPath(resolved))
	}
	return resolved, nil
}

func resolve(path string, roots []string) (string, error) {
	switch {
	case path == "":
		return "", fmt.Errorf("path validation failed: path is empty")
	case len(roots) == 0:
		return "", fmt.Errorf("path validation failed: no allowed directories configured")
	case strings.ContainsRune(path, '\x00'):
		return "", fmt.Errorf("path validation failed: path contains null byte")
	}

	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("path validation failed: cannot resolve absolute path: %w", err)
	}
	// Symlinks are resolved on the deepest existing ancestor so a link
	// inside a root cannot point out of it.
	dir, err := evalExisting(filepath.Dir(abs))
	if err != nil {
		return "", fmt.Errorf("path validation failed: cannot resolve parent directory: %w", err)
	}
	resolved := filepath.Join(dir, filepath.Base(abs))

	for _, root := range roots {
		rootAbs, err := filepath.Abs(filepath.Clean(root))
		if err != nil {
			continue
		}
		rootResolved, err := evalExisting(rootAbs)
		if err != nil {
			continue
		}
		if within(resolved, rootResolved) {
			return resolved, nil
		}
	}
	return "", fmt.Errorf("path validation failed: %q is %w", RedactPath(abs), ErrOutsideRoots)
}

// evalExisting evaluates symlinks on the deepest existing ancestor of dir
// and re-appends the missing tail.
func evalExisting(dir string) (string, error) {
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		return resolved, nil
	}
	parent := filepath.Dir(dir)
	if parent == dir {
		return "", fmt.Errorf("cannot resolve path: %s", RedactPath(dir))
	}
	resolvedParent, err := evalExisting(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedParent, filepath.Base(dir)), nil
}

// within reports whether path equals root or lies below it.
func within(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// DefaultRoots returns the data roots used when none are configured:
// the working directory.
func DefaultRoots() ([]string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return []string{wd}, nil
}
