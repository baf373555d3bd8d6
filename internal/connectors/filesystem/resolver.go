package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolvePath converts a location argument into an absolute local path.
// Handles file:// URIs, a leading ~ and relative paths.
func ResolvePath(location string) (string, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return "", fmt.Errorf("empty location")
	}

	// Strip file:// prefix for local paths
	location = strings.TrimPrefix(location, "file://")

	if location == "~" || strings.HasPrefix(location, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		location = filepath.Join(home, strings.TrimPrefix(location, "~"))
	}

	abs, err := filepath.Abs(location)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", location, err)
	}
	return abs, nil
}
