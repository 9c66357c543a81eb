package builtin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kairodev/kairo/internal/pathutil"
	toolcore "github.com/kairodev/kairo/internal/tool"
)

func init() {
	toolcore.RegisterBuiltin("read_file", func(options toolcore.BuiltinOptions) (toolcore.Tool, error) {
		return &ReadFileTool{maxSize: options.MaxFileSize}, nil
	})
	toolcore.RegisterBuiltin("write_file", func(options toolcore.BuiltinOptions) (toolcore.Tool, error) {
		return &WriteFileTool{}, nil
	})
}

// ReadFileTool returns a file's contents, capped at maxSize bytes.
type ReadFileTool struct {
	maxSize int64
}

func (t *ReadFileTool) Name() string {
	return "read_file"
}

func (t *ReadFileTool) Description() string {
	return "Read a text file and return its contents."
}

func (t *ReadFileTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Path of the file to read",
			},
		},
		"required": []string{"path"},
	}
}

func (t *ReadFileTool) Execute(_ context.Context, args map[string]interface{}) (string, error) {
	path, err := stringArg(args, "path")
	if err != nil {
		return "", err
	}
	expanded, err := pathutil.Expand(path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(expanded)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}
	if t.maxSize > 0 && info.Size() > t.maxSize {
		return "", fmt.Errorf("%s is too large (%d bytes, limit %d)", path, info.Size(), t.maxSize)
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		return "", err
	}
	return numberLines(string(data)), nil
}

// maxReadLines caps read_file output so a huge file cannot flood the
// model's context.
const maxReadLines = 2000

// numberLines renders content one numbered line per row, truncating
// past the cap with a count of what was left out.
func numberLines(content string) string {
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	shown := lines
	if len(shown) > maxReadLines {
		shown = shown[:maxReadLines]
	}
	var b strings.Builder
	for i, line := range shown {
		fmt.Fprintf(&b, "%4d| %s\n", i+1, line)
	}
	if len(lines) > maxReadLines {
		fmt.Fprintf(&b, "... (%d more lines)\n", len(lines)-maxReadLines)
	}
	return strings.TrimRight(b.String(), "\n")
}

// WriteFileTool writes content to a file, creating parent directories.
type WriteFileTool struct{}

func (t *WriteFileTool) Name() string {
	return "write_file"
}

func (t *WriteFileTool) Description() string {
	return "Write content to a file, creating it and any parent directories."
}

func (t *WriteFileTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Path of the file to write",
			},
			"content": map[string]interface{}{
				"type":        "string",
				"description": "Content to write",
			},
		},
		"required": []string{"path", "content"},
	}
}

func (t *WriteFileTool) Execute(_ context.Context, args map[string]interface{}) (string, error) {
	path, err := stringArg(args, "path")
	if err != nil {
		return "", err
	}
	content, ok := args["content"].(string)
	if !ok {
		return "", fmt.Errorf("content must be a string")
	}

	expanded, err := pathutil.Expand(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(expanded, []byte(content), 0644); err != nil {
		return "", err
	}
	return fmt.Sprintf("Wrote %d bytes to %s", len(content), path), nil
}
