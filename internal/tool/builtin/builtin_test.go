package builtin

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kairodev/kairo/internal/skill"
	toolcore "github.com/kairodev/kairo/internal/tool"
)

func TestRegistryWithBuiltins(t *testing.T) {
	skills := skill.NewRegistry()
	registry, err := toolcore.NewRegistryWithBuiltins(toolcore.BuiltinOptions{Skills: skills})
	require.NoError(t, err)

	for _, name := range []string{"bash", "read_file", "write_file", "load_skill"} {
		_, ok := registry.Get(name)
		assert.True(t, ok, "missing builtin %s", name)
	}
}

func TestBashTool(t *testing.T) {
	bash := &BashTool{}

	t.Run("plain command", func(t *testing.T) {
		out, err := bash.Execute(context.Background(), map[string]interface{}{"command": "echo hello"})
		require.NoError(t, err)
		assert.Equal(t, "hello\n\n[Exit code: 0]", out)
	})
	t.Run("shell pipeline", func(t *testing.T) {
		out, err := bash.Execute(context.Background(), map[string]interface{}{"command": "printf 'a\\nb\\n' | wc -l"})
		require.NoError(t, err)
		assert.Contains(t, out, "2")
	})
	t.Run("workdir", func(t *testing.T) {
		dir := t.TempDir()
		out, err := bash.Execute(context.Background(), map[string]interface{}{"command": "pwd", "workdir": dir})
		require.NoError(t, err)
		assert.Contains(t, out, filepath.Base(dir))
	})
	t.Run("nonzero exit reported in output", func(t *testing.T) {
		out, err := bash.Execute(context.Background(), map[string]interface{}{"command": "false"})
		require.NoError(t, err)
		assert.Contains(t, out, "[Exit code: 1]")
	})
	t.Run("failure output survives alongside exit code", func(t *testing.T) {
		out, err := bash.Execute(context.Background(), map[string]interface{}{"command": "ls /no/such/dir"})
		require.NoError(t, err)
		assert.Contains(t, out, "No such file")
		assert.Contains(t, out, "[Exit code: 2]")
	})
	t.Run("missing command", func(t *testing.T) {
		_, err := bash.Execute(context.Background(), map[string]interface{}{})
		assert.Error(t, err)
	})
}

func TestReadFileTool(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("contents"), 0644))

	reader := &ReadFileTool{maxSize: 64}

	out, err := reader.Execute(context.Background(), map[string]interface{}{"path": path})
	require.NoError(t, err)
	assert.Equal(t, "   1| contents", out)

	t.Run("lines are numbered", func(t *testing.T) {
		multi := filepath.Join(dir, "multi.txt")
		require.NoError(t, os.WriteFile(multi, []byte("alpha\nbeta\ngamma\n"), 0644))
		out, err := reader.Execute(context.Background(), map[string]interface{}{"path": multi})
		require.NoError(t, err)
		assert.Equal(t, "   1| alpha\n   2| beta\n   3| gamma", out)
	})
	t.Run("missing file", func(t *testing.T) {
		_, err := reader.Execute(context.Background(), map[string]interface{}{"path": filepath.Join(dir, "absent.txt")})
		assert.Error(t, err)
	})
	t.Run("directory", func(t *testing.T) {
		_, err := reader.Execute(context.Background(), map[string]interface{}{"path": dir})
		assert.Error(t, err)
	})
	t.Run("too large", func(t *testing.T) {
		big := filepath.Join(dir, "big.txt")
		require.NoError(t, os.WriteFile(big, make([]byte, 128), 0644))
		_, err := reader.Execute(context.Background(), map[string]interface{}{"path": big})
		assert.Error(t, err)
	})
}

func TestNumberLinesTruncation(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < maxReadLines+7; i++ {
		sb.WriteString("row\n")
	}

	out := numberLines(sb.String())
	lines := strings.Split(out, "\n")
	require.Len(t, lines, maxReadLines+1)
	assert.Equal(t, "   1| row", lines[0])
	assert.Equal(t, "2000| row", lines[maxReadLines-1])
	assert.Equal(t, "... (7 more lines)", lines[maxReadLines])
}

func TestWriteFileTool(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.txt")

	writer := &WriteFileTool{}
	out, err := writer.Execute(context.Background(), map[string]interface{}{"path": path, "content": "written"})
	require.NoError(t, err)
	assert.Contains(t, out, "7 bytes")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "written", string(data))
}

func TestLoadSkillTool(t *testing.T) {
	skills := skill.NewRegistry()
	skills.Register(&skill.Skill{Name: "pdf", Description: "PDF work", Content: "Use pdftotext."})

	loader := &LoadSkillTool{skills: skills}

	out, err := loader.Execute(context.Background(), map[string]interface{}{"skill_name": "pdf"})
	require.NoError(t, err)
	assert.Contains(t, out, "Use pdftotext.")

	t.Run("unknown skill lists available", func(t *testing.T) {
		_, err := loader.Execute(context.Background(), map[string]interface{}{"skill_name": "ghost"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pdf")
	})
	t.Run("missing argument", func(t *testing.T) {
		_, err := loader.Execute(context.Background(), map[string]interface{}{})
		assert.Error(t, err)
	})
}
