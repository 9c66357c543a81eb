package store

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/kairodev/kairo/internal/pathutil"
)

// ResolveBasePath resolves the configured store root. If empty, it
// falls back to ~/.kairo.
func ResolveBasePath(basePath string) (string, error) {
	if trimmed := strings.TrimSpace(basePath); trimmed != "" {
		return pathutil.Expand(trimmed)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".kairo"), nil
}

// ThreadsDir returns the directory holding thread message logs.
func ThreadsDir(basePath string) string {
	return filepath.Join(basePath, "threads")
}

// ThreadLogPath returns the JSONL path for one thread.
func ThreadLogPath(basePath, threadID string) string {
	return filepath.Join(ThreadsDir(basePath), threadID+".jsonl")
}

// IndexPath returns the thread index path.
func IndexPath(basePath string) string {
	return filepath.Join(ThreadsDir(basePath), "index.json")
}
