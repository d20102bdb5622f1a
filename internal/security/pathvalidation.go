// Package security keeps output paths built from untrusted input, such as
// track names read from JSON, inside the directory they were meant for.
package security

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrPathTraversal is returned when a path would escape its base directory.
var ErrPathTraversal = errors.New("path traversal detected")

// ValidatePathWithinDirectory checks that filePath stays inside safeDir once
// . and .. components are resolved. The check is lexical: neither path needs
// to exist, so it works with in-memory filesystems too.
func ValidatePathWithinDirectory(filePath, safeDir string) error {
	cleanPath := filepath.Clean(filePath)
	cleanDir := filepath.Clean(safeDir)
	if filepath.IsAbs(cleanPath) != filepath.IsAbs(cleanDir) {
		abs, err := filepath.Abs(cleanPath)
		if err != nil {
			return fmt.Errorf("failed to resolve absolute path: %w", err)
		}
		absDir, err := filepath.Abs(cleanDir)
		if err != nil {
			return fmt.Errorf("failed to resolve safe directory path: %w", err)
		}
		cleanPath, cleanDir = abs, absDir
	}

	relPath, err := filepath.Rel(cleanDir, cleanPath)
	if err != nil {
		return fmt.Errorf("%w: %s is outside %s", ErrPathTraversal, filePath, safeDir)
	}
	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) || filepath.IsAbs(relPath) {
		return fmt.Errorf("%w: %s attempts to escape %s", ErrPathTraversal, filePath, safeDir)
	}
	return nil
}

// JoinWithin joins elems onto base and rejects the result if it leaves base.
// Each element must be a single path component.
func JoinWithin(base string, elems ...string) (string, error) {
	for _, e := range elems {
		if e == "" || e == "." || e == ".." || strings.ContainsAny(e, `/\`) {
			return "", fmt.Errorf("%w: invalid path component %q", ErrPathTraversal, e)
		}
	}
	joined := filepath.Join(append([]string{base}, elems...)...)
	if err := ValidatePathWithinDirectory(joined, base); err != nil {
		return "", err
	}
	return joined, nil
}
