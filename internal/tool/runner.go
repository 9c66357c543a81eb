package tool

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kairodev/kairo/internal/logger"
)

// Outcome markers. The timeline infers failure from the "[FAILED]"
// prefix when no explicit flag travels with a result, and persisted
// history depends on the same convention, so these are stable.
const (
	SuccessMarker = "[OK]"
	FailureMarker = "[FAILED]"
)

// Runner executes tools by name and formats their outcome with the
// marker convention above.
type Runner struct {
	registry *Registry
	timeout  time.Duration
}

func NewRunner(registry *Registry, timeout time.Duration) *Runner {
	return &Runner{
		registry: registry,
		timeout:  timeout,
	}
}

func (r *Runner) GetDescriptors() []Descriptor {
	if r == nil || r.registry == nil {
		return nil
	}
	return r.registry.GetDescriptors()
}

// Execute handles the full lifecycle: resolve the tool, run it under
// the configured timeout, and fold the outcome into marked content.
// Failures are content, never errors: a broken tool call must not
// abort the turn that issued it.
func (r *Runner) Execute(ctx context.Context, toolName string, args map[string]interface{}) (content string, success bool) {
	t, ok := r.registry.Get(toolName)
	if !ok {
		slog.Warn("Unknown tool requested", "tool", toolName)
		return fmt.Sprintf("%s %v: %s", FailureMarker, ErrToolNotFound, NormalizeToolName(toolName)), false
	}
	resolvedToolName := NormalizeToolName(t.Name())

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	traceID := logger.GetTraceID(ctx)
	slog.Info("Executing tool", "tool", resolvedToolName, "trace_id", traceID)

	output, err := t.Execute(ctx, args)

	duration := time.Since(start)
	if err != nil {
		slog.Error("Tool execution failed", "tool", resolvedToolName, "error", err, "duration", duration, "trace_id", traceID)
		return fmt.Sprintf("%s %s", FailureMarker, err.Error()), false
	}

	slog.Info("Tool execution success", "tool", resolvedToolName, "duration", duration, "trace_id", traceID)
	return fmt.Sprintf("%s\n\n%s", SuccessMarker, output), true
}
