package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/kairodev/kairo/internal/config"
	"github.com/kairodev/kairo/internal/logger"
	"github.com/kairodev/kairo/internal/model"
	"github.com/kairodev/kairo/internal/model/contract"
	"github.com/kairodev/kairo/internal/runstream"
	"github.com/kairodev/kairo/internal/skill"
	"github.com/kairodev/kairo/internal/store"
	"github.com/kairodev/kairo/internal/tool"
)

// Agent runs the execution loop: stream one model turn, execute the
// tool calls it requested, feed the results back, repeat until the
// model answers without tools or the turn cap is hit. Each run is
// exposed as a runstream.Source so consumers fold live runs and
// recorded ones identically.
// pipeBuffer absorbs bursts of small deltas without blocking the
// producer on every send.
const pipeBuffer = 64

type Agent struct {
	router model.ModelRouter
	runner *tool.Runner
	skills *skill.Registry
	store  *store.Worker
	cfg    config.Config
}

func New(router model.ModelRouter, runner *tool.Runner, skills *skill.Registry, worker *store.Worker, cfg config.Config) *Agent {
	return &Agent{
		router: router,
		runner: runner,
		skills: skills,
		store:  worker,
		cfg:    cfg,
	}
}

// RunOption configures a single Run.
type RunOption func(*runConfig)

type runConfig struct {
	model string
}

// WithModel overrides the configured default model for this run.
func WithModel(name string) RunOption {
	return func(c *runConfig) {
		c.model = name
	}
}

// Run persists the user message and starts the loop in a producer
// goroutine. The returned source delivers the run's primitives; a
// terminal done or error primitive always precedes the normal end of
// stream unless the producer itself breaks.
func (a *Agent) Run(ctx context.Context, threadID, text string, opts ...RunOption) runstream.Source {
	cfg := runConfig{model: a.cfg.Models.Default}
	for _, opt := range opts {
		opt(&cfg)
	}

	if logger.GetTraceID(ctx) == "" {
		ctx = logger.WithTraceID(ctx, ulid.Make().String())
	}
	ctx = logger.WithThreadID(ctx, threadID)

	pipe := runstream.NewPipe(pipeBuffer)
	go a.produce(ctx, pipe, threadID, text, cfg.model)
	return pipe
}

func (a *Agent) produce(ctx context.Context, pipe *runstream.Pipe, threadID, text, modelName string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Agent producer panicked", "thread_id", threadID, "panic", r)
			pipe.Fail(fmt.Errorf("agent panic: %v", r))
		}
	}()

	traceID := logger.GetTraceID(ctx)
	slog.Info("Agent run started", "thread_id", threadID, "model", modelName, "trace_id", traceID)

	if err := a.store.AppendMessage(threadID, store.Message{
		ID:        ulid.Make().String(),
		Role:      store.RoleHuman,
		Content:   text,
		CreatedAt: time.Now(),
	}); err != nil {
		slog.Error("Failed to persist user message", "thread_id", threadID, "error", err)
	}

	history, err := a.store.ReadMessages(threadID, a.cfg.Agent.HistoryLimit)
	if err != nil {
		slog.Warn("Failed to read history", "thread_id", threadID, "error", err)
		history = nil
	}
	messages := historyToContract(history)

	emit := func(typ string, payload map[string]interface{}) error {
		return pipe.Send(ctx, runstream.NewPrimitive(typ, payload))
	}

	req := contract.StreamRequest{
		System:    a.SystemPrompt(),
		Tools:     toolDefs(a.runner.GetDescriptors()),
		MaxTokens: a.cfg.Models.MaxTokens,
	}
	if a.cfg.Models.Thinking {
		req.ThinkingBudget = a.cfg.Models.ThinkingBudget
	}

	maxTurns := a.cfg.Agent.MaxTurns
	if maxTurns <= 0 {
		maxTurns = config.DefaultAgentMaxTurns
	}
	for turnNo := 1; turnNo <= maxTurns; turnNo++ {
		if ctx.Err() != nil {
			pipe.Fail(ctx.Err())
			return
		}

		req.Messages = messages
		turn, err := a.router.StreamRoute(ctx, modelName, req, emit)
		if err != nil {
			slog.Error("Model turn failed", "thread_id", threadID, "turn", turnNo, "error", err)
			a.sendTerminal(ctx, pipe, runstream.PrimError, map[string]interface{}{
				"message": err.Error(),
			})
			return
		}

		row := a.assistantRow(turn)

		if len(turn.ToolCalls) == 0 {
			a.persist(threadID, row)
			a.sendTerminal(ctx, pipe, runstream.PrimDone, map[string]interface{}{
				"response": turn.Content,
			})
			slog.Info("Agent run finished", "thread_id", threadID, "turns", turnNo, "trace_id", traceID)
			return
		}

		messages = append(messages, assistantMessage(turn))
		for _, call := range turn.ToolCalls {
			content, success := a.executeCall(ctx, call)
			row.ToolResults[call.ID] = store.ToolResultRecord{Content: content, Success: &success}

			if err := emit(runstream.PrimToolResult, map[string]interface{}{
				"tool_use_id": call.ID,
				"name":        call.Name,
				"content":     content,
				"success":     success,
			}); err != nil {
				return
			}
			messages = append(messages, contract.Message{
				Role:       contract.RoleTool,
				Content:    content,
				ToolCallID: call.ID,
			})
		}
		a.persist(threadID, row)

		// Bookkeeping between turns; consumers drop unrecognized kinds.
		_ = emit(runstream.PrimTurnEnd, map[string]interface{}{"turn": turnNo})
	}

	slog.Warn("Agent hit turn cap", "thread_id", threadID, "max_turns", maxTurns)
	a.sendTerminal(ctx, pipe, runstream.PrimError, map[string]interface{}{
		"message": fmt.Sprintf("run stopped after %d turns without a final answer", maxTurns),
	})
}

// sendTerminal emits the run's terminal primitive and ends the stream.
func (a *Agent) sendTerminal(ctx context.Context, pipe *runstream.Pipe, typ string, payload map[string]interface{}) {
	_ = pipe.Send(ctx, runstream.NewPrimitive(typ, payload))
	pipe.CloseSend()
}

func (a *Agent) executeCall(ctx context.Context, call *contract.ToolCall) (string, bool) {
	args := map[string]interface{}{}
	if strings.TrimSpace(call.Input) != "" {
		if err := json.Unmarshal([]byte(call.Input), &args); err != nil {
			slog.Debug("Tool arguments did not parse", "tool", call.Name, "error", err)
			args = map[string]interface{}{}
		}
	}
	return a.runner.Execute(ctx, call.Name, args)
}

// SystemPrompt composes the configured base prompt with the current
// skill listing.
func (a *Agent) SystemPrompt() string {
	base := a.cfg.Prompts.System
	section := a.skills.PromptSection()
	if base == "" {
		return section
	}
	return base + "\n\n" + section
}

// assistantRow builds the persisted ai message for one turn. Tool
// results are filled in as calls execute.
func (a *Agent) assistantRow(turn *contract.Turn) store.Message {
	row := store.Message{
		ID:               ulid.Make().String(),
		Role:             store.RoleAI,
		Content:          turn.Content,
		ReasoningContent: turn.Reasoning,
		CreatedAt:        time.Now(),
	}
	if len(turn.ToolCalls) > 0 {
		row.ToolResults = make(map[string]store.ToolResultRecord)
		for _, call := range turn.ToolCalls {
			args := map[string]any{}
			if strings.TrimSpace(call.Input) != "" {
				_ = json.Unmarshal([]byte(call.Input), &args)
			}
			row.ToolCalls = append(row.ToolCalls, store.ToolCallRecord{
				ID:   call.ID,
				Name: call.Name,
				Args: args,
			})
		}
	}
	return row
}

func (a *Agent) persist(threadID string, row store.Message) {
	if err := a.store.AppendMessage(threadID, row); err != nil {
		slog.Error("Failed to persist assistant message", "thread_id", threadID, "error", err)
	}
}

func assistantMessage(turn *contract.Turn) contract.Message {
	msg := contract.Message{
		Role:      contract.RoleAssistant,
		Content:   turn.Content,
		Reasoning: turn.Reasoning,
	}
	msg.ToolCalls = append(msg.ToolCalls, turn.ToolCalls...)
	return msg
}

func toolDefs(descriptors []tool.Descriptor) []contract.ToolDef {
	defs := make([]contract.ToolDef, len(descriptors))
	for i, d := range descriptors {
		defs[i] = contract.ToolDef{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.Parameters,
		}
	}
	return defs
}
