package paths

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var ErrRootPathRequired = errors.New("fixture root path is required")

// NormalizeRoot resolves the fixture's root directory to an absolute path.
func NormalizeRoot(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", ErrRootPathRequired
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve fixture root: %w", err)
	}

	return absPath, nil
}

// Resolve joins a root-relative definition key with the fixture root.
// Definition keys stay relative; item instances carry absolute paths.
func Resolve(root, key string) string {
	return filepath.Clean(filepath.Join(root, key))
}

// Within reports whether path is root itself or nested underneath it.
func Within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
