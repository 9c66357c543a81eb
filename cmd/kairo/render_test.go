package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kairodev/kairo/internal/runstream"
	"github.com/kairodev/kairo/internal/skill"
)

func TestRendererFullRun(t *testing.T) {
	var buf bytes.Buffer
	r := newRenderer(&buf, 100)

	success := true
	r.Handle(runstream.Thinking{Content: "let me check"})
	r.Handle(runstream.Text{Content: "Running the command"})
	r.Handle(runstream.ToolCall{ID: "c1", Name: "bash"})
	r.Handle(runstream.ToolResult{ToolUseID: "c1", Content: "[OK]\n\nfile.txt", Success: &success})
	r.Handle(runstream.Done{Response: "Running the command"})

	out := buf.String()
	assert.Contains(t, out, "let me check")
	assert.Contains(t, out, "Running the command")
	assert.Contains(t, out, "bash")
	assert.Empty(t, r.Failed())
}

func TestRendererRunError(t *testing.T) {
	var buf bytes.Buffer
	r := newRenderer(&buf, 100)

	r.Handle(runstream.RunError{Message: "stream ended before completion"})

	assert.Contains(t, buf.String(), "stream ended before completion")
	assert.Equal(t, "stream ended before completion", r.Failed())
}

func TestRendererTruncatesToolResults(t *testing.T) {
	var buf bytes.Buffer
	r := newRenderer(&buf, 10)

	r.Handle(runstream.ToolResult{Content: "0123456789ABCDEF"})

	assert.Contains(t, buf.String(), "0123456789...")
	assert.NotContains(t, buf.String(), "ABCDEF")
}

func TestRendererDoneFallbackResponse(t *testing.T) {
	var buf bytes.Buffer
	r := newRenderer(&buf, 100)

	r.Handle(runstream.Done{Response: "whole answer"})

	assert.Contains(t, buf.String(), "whole answer")
}

func TestFormatSkillTable(t *testing.T) {
	out := formatSkillTable([]*skill.Skill{
		{Name: "pdf", Description: "Work with PDF files", Path: "/tmp/skills/pdf"},
	})
	assert.Contains(t, out, "pdf")
	assert.Contains(t, out, "Work with PDF files")

	assert.Equal(t, "No skills found", formatSkillTable(nil))
}
