package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTurnBuilderAccumulatesText(t *testing.T) {
	b := NewTurnBuilder()
	b.AddText("Hello, ")
	b.AddText("world")
	b.AddReasoning("thinking about it")

	turn := b.Build()
	assert.Equal(t, "Hello, world", turn.Content)
	assert.Equal(t, "thinking about it", turn.Reasoning)
	assert.Empty(t, turn.ToolCalls)
}

func TestTurnBuilderFragmentedToolArgs(t *testing.T) {
	b := NewTurnBuilder()
	b.BeginTool("call-1", "bash")
	b.AppendToolArgs("call-1", `{"comm`)
	b.AppendToolArgs("call-1", `and": "ls"}`)

	turn := b.Build()
	require.Len(t, turn.ToolCalls, 1)
	assert.Equal(t, "call-1", turn.ToolCalls[0].ID)
	assert.Equal(t, "bash", turn.ToolCalls[0].Name)
	assert.Equal(t, `{"command": "ls"}`, turn.ToolCalls[0].Input)
}

func TestTurnBuilderImplicitBegin(t *testing.T) {
	b := NewTurnBuilder()
	b.AppendToolArgs("call-7", `{"path": "a.txt"}`)

	turn := b.Build()
	require.Len(t, turn.ToolCalls, 1)
	assert.Equal(t, "call-7", turn.ToolCalls[0].ID)
	assert.Empty(t, turn.ToolCalls[0].Name)
}

func TestTurnBuilderRepeatedBeginKeepsArgs(t *testing.T) {
	b := NewTurnBuilder()
	b.BeginTool("call-1", "")
	b.AppendToolArgs("call-1", `{"x":1}`)
	b.BeginTool("call-1", "bash")

	turn := b.Build()
	require.Len(t, turn.ToolCalls, 1)
	assert.Equal(t, "bash", turn.ToolCalls[0].Name)
	assert.Equal(t, `{"x":1}`, turn.ToolCalls[0].Input)
}

func TestTurnBuilderWholeToolReplacesFragments(t *testing.T) {
	b := NewTurnBuilder()
	b.BeginTool("call-1", "bash")
	b.AppendToolArgs("call-1", `{"partial`)
	b.AddWholeTool("call-1", "bash", `{"command": "pwd"}`)

	turn := b.Build()
	require.Len(t, turn.ToolCalls, 1)
	assert.Equal(t, `{"command": "pwd"}`, turn.ToolCalls[0].Input)
}

func TestTurnBuilderPreservesCallOrder(t *testing.T) {
	b := NewTurnBuilder()
	b.BeginTool("call-b", "write_file")
	b.BeginTool("call-a", "read_file")
	b.AppendToolArgs("call-b", `{}`)

	turn := b.Build()
	require.Len(t, turn.ToolCalls, 2)
	assert.Equal(t, "call-b", turn.ToolCalls[0].ID)
	assert.Equal(t, "call-a", turn.ToolCalls[1].ID)
}
