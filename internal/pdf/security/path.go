// Package security confines the directories a remote caller may touch to one
// configured root.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator resolves caller-supplied paths against a root directory and
// rejects anything that ends up outside it, symlinks included.
type PathValidator struct {
	root     string
	realRoot string
}

// NewPathValidator creates a validator confined to root. Unlike a read-only
// server, a page remover rewrites files, so root must exist.
func NewPathValidator(root string) (*PathValidator, error) {
	if root == "" {
		return nil, fmt.Errorf("configured directory cannot be empty")
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve configured directory: %w", err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("cannot access configured directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("configured path is not a directory: %s", root)
	}

	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate configured directory: %w", err)
	}

	return &PathValidator{root: absRoot, realRoot: filepath.Clean(realRoot)}, nil
}

// Root returns the absolute configured directory
func (v *PathValidator) Root() string {
	return v.root
}

// NormalizePath returns the absolute form of path, resolving a relative path
// against the root, and checks it stays inside the root.
func (v *PathValidator) NormalizePath(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(v.root, path)
	}
	absPath := filepath.Clean(path)

	if err := v.ValidatePath(absPath); err != nil {
		return "", err
	}
	return absPath, nil
}

// ValidatePath checks if path lies within the root. Missing trailing
// components are allowed so an output directory can be validated before it
// is created.
func (v *PathValidator) ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	realPath, err := resolveExisting(absPath)
	if err != nil {
		return fmt.Errorf("path validation failed: %w", err)
	}

	if !within(realPath, v.realRoot) {
		return fmt.Errorf("path is outside configured directory: %s", path)
	}
	return nil
}

// ResolveDirectory normalizes dir and requires it to be an existing directory
func (v *PathValidator) ResolveDirectory(dir string) (string, error) {
	absDir, err := v.NormalizePath(dir)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(absDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("directory does not exist: %s", dir)
		}
		return "", fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", dir)
	}
	return absDir, nil
}

// resolveExisting evaluates symlinks in the longest existing prefix of path
// and re-appends the components that do not exist yet.
func resolveExisting(path string) (string, error) {
	var missing []string
	current := filepath.Clean(path)

	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			for i := len(missing) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, missing[i])
			}
			return filepath.Clean(resolved), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}

		parent := filepath.Dir(current)
		if parent == current {
			return filepath.Clean(path), nil
		}
		missing = append(missing, filepath.Base(current))
		current = parent
	}
}

func within(path, dir string) bool {
	if path == dir {
		return true
	}
	if !strings.HasSuffix(dir, string(filepath.Separator)) {
		dir += string(filepath.Separator)
	}
	return strings.HasPrefix(path, dir)
}
