package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWorker(t *testing.T) *Worker {
	t.Helper()
	w, err := NewWorker(t.TempDir(), RuntimeConfig{})
	require.NoError(t, err)
	w.Start()
	t.Cleanup(w.Stop)
	return w
}

func boolPtr(v bool) *bool { return &v }

func TestAppendAndReadMessages(t *testing.T) {
	w := newTestWorker(t)

	require.NoError(t, w.AppendMessage("t1", Message{Role: RoleHuman, Content: "hello"}))
	require.NoError(t, w.AppendMessage("t1", Message{
		Role:             RoleAI,
		Content:          "hi there",
		ReasoningContent: "greeting",
		ToolCalls: []ToolCallRecord{
			{ID: "tool-1", Name: "bash", Args: map[string]any{"command": "ls"}},
		},
		ToolResults: map[string]ToolResultRecord{
			"tool-1": {Content: "[OK]\n\nfile1.txt", Success: boolPtr(true)},
		},
	}))

	messages, err := w.ReadMessages("t1", 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)

	assert.NotEmpty(t, messages[0].ID)
	assert.Equal(t, RoleHuman, messages[0].Role)
	assert.Equal(t, "hello", messages[0].Content)
	assert.False(t, messages[0].CreatedAt.IsZero())

	ai := messages[1]
	assert.Equal(t, RoleAI, ai.Role)
	assert.Equal(t, "greeting", ai.ReasoningContent)
	require.Len(t, ai.ToolCalls, 1)
	assert.Equal(t, "ls", ai.ToolCalls[0].Args["command"])
	require.Contains(t, ai.ToolResults, "tool-1")
	assert.Equal(t, "[OK]\n\nfile1.txt", ai.ToolResults["tool-1"].Content)
}

func TestReadMessagesLimitReturnsTail(t *testing.T) {
	w := newTestWorker(t)

	for _, content := range []string{"one", "two", "three"} {
		require.NoError(t, w.AppendMessage("t1", Message{Role: RoleHuman, Content: content}))
	}

	messages, err := w.ReadMessages("t1", 2)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "two", messages[0].Content)
	assert.Equal(t, "three", messages[1].Content)
}

func TestReadMessagesUnknownThread(t *testing.T) {
	w := newTestWorker(t)

	messages, err := w.ReadMessages("missing", 0)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestAppendUpdatesIndex(t *testing.T) {
	w := newTestWorker(t)

	require.NoError(t, w.AppendMessage("t1", Message{Role: RoleHuman, Content: "hello"}))
	require.NoError(t, w.AppendMessage("t1", Message{Role: RoleAI, Content: "hi"}))

	meta, err := w.GetThread("t1")
	require.NoError(t, err)
	assert.Equal(t, 2, meta.MessageCount)
	assert.False(t, meta.UpdatedAt.IsZero())

	threads, err := w.ListThreads()
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, "t1", threads[0].ID)
}

func TestSaveThreadMeta(t *testing.T) {
	w := newTestWorker(t)

	now := time.Now().UTC()
	require.NoError(t, w.SaveThread(&ThreadMeta{ID: "t1", Title: "shell session", CreatedAt: now}))

	meta, err := w.GetThread("t1")
	require.NoError(t, err)
	assert.Equal(t, "shell session", meta.Title)
}

func TestResetThreadRemovesLogAndIndexEntry(t *testing.T) {
	base := t.TempDir()
	w, err := NewWorker(base, RuntimeConfig{})
	require.NoError(t, err)
	w.Start()
	t.Cleanup(w.Stop)

	require.NoError(t, w.AppendMessage("t1", Message{Role: RoleHuman, Content: "hello"}))
	require.NoError(t, w.ResetThread("t1"))

	_, statErr := os.Stat(ThreadLogPath(base, "t1"))
	assert.True(t, os.IsNotExist(statErr))

	messages, err := w.ReadMessages("t1", 0)
	require.NoError(t, err)
	assert.Empty(t, messages)

	_, err = w.GetThread("t1")
	assert.Error(t, err)
}

func TestIndexSurvivesRestart(t *testing.T) {
	base := t.TempDir()

	w, err := NewWorker(base, RuntimeConfig{})
	require.NoError(t, err)
	w.Start()
	require.NoError(t, w.AppendMessage("t1", Message{Role: RoleHuman, Content: "hello"}))
	w.Stop()

	reopened, err := NewWorker(base, RuntimeConfig{})
	require.NoError(t, err)
	reopened.Start()
	t.Cleanup(reopened.Stop)

	meta, err := reopened.GetThread("t1")
	require.NoError(t, err)
	assert.Equal(t, 1, meta.MessageCount)

	messages, err := reopened.ReadMessages("t1", 0)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "hello", messages[0].Content)
}

func TestCorruptIndexStartsFresh(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "threads"), 0755))
	require.NoError(t, os.WriteFile(IndexPath(base), []byte("{corrupt"), 0644))

	w, err := NewWorker(base, RuntimeConfig{})
	require.NoError(t, err)
	w.Start()
	t.Cleanup(w.Stop)

	threads, err := w.ListThreads()
	require.NoError(t, err)
	assert.Empty(t, threads)
}

func TestOperationsAfterStop(t *testing.T) {
	w, err := NewWorker(t.TempDir(), RuntimeConfig{})
	require.NoError(t, err)
	w.Start()
	w.Stop()

	err = w.AppendMessage("t1", Message{Role: RoleHuman, Content: "late"})
	assert.Error(t, err)
}
