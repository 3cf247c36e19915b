package server

import (
	"fmt"
	"os"
	"path/filepath"
)

// ResolveClientAssetsDir locates the site bundle served at /. The
// DRIFTFIELD_CLIENT_DIR override wins; otherwise client/ and ../client are
// probed relative to the working directory and the executable, so both
// `go run ./cmd/server` from the repo root and a packaged binary find it.
func ResolveClientAssetsDir() (string, error) {
	if dir := os.Getenv("DRIFTFIELD_CLIENT_DIR"); dir != "" {
		if resolved, ok := clientDirAt(dir); ok {
			return resolved, nil
		}
		return "", fmt.Errorf("DRIFTFIELD_CLIENT_DIR=%q is not a directory", dir)
	}

	var bases []string
	if cwd, err := os.Getwd(); err == nil {
		bases = append(bases, cwd)
	}
	if exePath, err := os.Executable(); err == nil {
		bases = append(bases, filepath.Dir(exePath))
	}
	for _, base := range bases {
		if dir, ok := resolveClientAssetsDirFrom(base); ok {
			return dir, nil
		}
	}
	return "", fmt.Errorf("client assets directory not found")
}

func resolveClientAssetsDirFrom(base string) (string, bool) {
	for _, candidate := range []string{
		filepath.Join(base, "client"),
		filepath.Join(base, "..", "client"),
	} {
		if dir, ok := clientDirAt(candidate); ok {
			return dir, true
		}
	}
	return "", false
}

func clientDirAt(path string) (string, bool) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return "", false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	return abs, true
}
