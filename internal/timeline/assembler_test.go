package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssemblerJoinsFragmentsAcrossArbitrarySplits(t *testing.T) {
	a := NewAssembler()
	a.Begin("call-1")
	a.Append("call-1", `{"comm`)
	a.Append("call-1", `and": "ls`)
	a.Append("call-1", ` -la"}`)

	args := a.Finalize("call-1")
	require.NotNil(t, args)
	assert.Equal(t, "ls -la", args["command"])
}

func TestAssemblerFinalizeIsIdempotent(t *testing.T) {
	a := NewAssembler()
	a.Begin("call-1")
	a.Append("call-1", `{"path": "a.txt"}`)

	first := a.Finalize("call-1")
	second := a.Finalize("call-1")
	assert.Equal(t, first, second)

	// Fragments after finalize are dropped rather than corrupting
	// the cached result.
	a.Append("call-1", `garbage`)
	assert.Equal(t, first, a.Finalize("call-1"))
}

func TestAssemblerMalformedInputYieldsEmptyArgs(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
	}{
		{name: "truncated object", fragment: `{"command": "ls`},
		{name: "not json", fragment: `command=ls`},
		{name: "json array", fragment: `["ls"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAssembler()
			a.Begin("call-1")
			a.Append("call-1", tt.fragment)

			args := a.Finalize("call-1")
			require.NotNil(t, args)
			assert.Empty(t, args)
		})
	}
}

func TestAssemblerEmptyBufferYieldsEmptyArgs(t *testing.T) {
	a := NewAssembler()
	a.Begin("call-1")

	args := a.Finalize("call-1")
	require.NotNil(t, args)
	assert.Empty(t, args)
}

func TestAssemblerImplicitBeginOnAppend(t *testing.T) {
	a := NewAssembler()
	a.Append("call-1", `{"skill_name": "pdf"}`)

	args := a.Finalize("call-1")
	assert.Equal(t, "pdf", args["skill_name"])
}

func TestAssemblerDuplicateBeginKeepsBuffer(t *testing.T) {
	a := NewAssembler()
	a.Begin("call-1")
	a.Append("call-1", `{"command":`)
	a.Begin("call-1")
	a.Append("call-1", ` "pwd"}`)

	args := a.Finalize("call-1")
	assert.Equal(t, "pwd", args["command"])
}

func TestAssemblerTracksIndependentCalls(t *testing.T) {
	a := NewAssembler()
	a.Begin("call-1")
	a.Begin("call-2")
	a.Append("call-1", `{"path": "one"}`)
	a.Append("call-2", `{"path": "two"}`)

	assert.ElementsMatch(t, []string{"call-1", "call-2"}, a.OpenIDs())
	assert.Equal(t, "one", a.Finalize("call-1")["path"])
	assert.Equal(t, "two", a.Finalize("call-2")["path"])
	assert.Empty(t, a.OpenIDs())
}
