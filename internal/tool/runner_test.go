package tool

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTool struct {
	name   string
	output string
	err    error
	delay  time.Duration
}

func (t *fakeTool) Name() string        { return t.name }
func (t *fakeTool) Description() string { return "fake tool for tests" }
func (t *fakeTool) Parameters() map[string]interface{} {
	return map[string]interface{}{"type": "object"}
}

func (t *fakeTool) Execute(ctx context.Context, _ map[string]interface{}) (string, error) {
	if t.delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(t.delay):
		}
	}
	return t.output, t.err
}

func TestRunnerSuccessOutcome(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&fakeTool{name: "echo", output: "hello"})
	runner := NewRunner(registry, 0)

	content, success := runner.Execute(context.Background(), "echo", nil)
	assert.True(t, success)
	assert.Equal(t, "[OK]\n\nhello", content)
}

func TestRunnerFailureOutcome(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&fakeTool{name: "broken", err: fmt.Errorf("exit code 1")})
	runner := NewRunner(registry, 0)

	content, success := runner.Execute(context.Background(), "broken", nil)
	assert.False(t, success)
	assert.True(t, strings.HasPrefix(content, "[FAILED]"))
	assert.Contains(t, content, "exit code 1")
}

func TestRunnerUnknownTool(t *testing.T) {
	runner := NewRunner(NewRegistry(), 0)

	content, success := runner.Execute(context.Background(), "ghost", nil)
	assert.False(t, success)
	assert.True(t, strings.HasPrefix(content, "[FAILED]"))
	assert.Contains(t, content, "ghost")
}

func TestRunnerTimeout(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&fakeTool{name: "slow", delay: time.Second})
	runner := NewRunner(registry, 10*time.Millisecond)

	content, success := runner.Execute(context.Background(), "slow", nil)
	assert.False(t, success)
	assert.True(t, strings.HasPrefix(content, "[FAILED]"))
}

func TestRegistryDescriptorsSorted(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&fakeTool{name: "zeta"})
	registry.Register(&fakeTool{name: "alpha"})
	registry.Register(&fakeTool{name: " alpha "}) // normalized duplicate

	descriptors := registry.GetDescriptors()
	require.Len(t, descriptors, 2)
	assert.Equal(t, "alpha", descriptors[0].Name)
	assert.Equal(t, "zeta", descriptors[1].Name)
}
