package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/kairodev/kairo/internal/model/contract"
	"github.com/kairodev/kairo/internal/runstream"
)

// Provider streams completions from OpenAI-compatible chat APIs.
type Provider struct {
	client *openai.Client
	model  string
}

func New(apiKey, baseURL, model string) *Provider {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	}

	return &Provider{client: openai.NewClientWithConfig(cfg), model: model}
}

func (p *Provider) Name() string { return p.model }
func (p *Provider) Type() string { return "openai" }

func (p *Provider) Health(_ context.Context) error { return nil }

func (p *Provider) Stream(ctx context.Context, req contract.StreamRequest, emit contract.EmitFunc) (*contract.Turn, error) {
	stream, err := p.client.CreateChatCompletionStream(ctx, buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("openai stream: %w", err)
	}
	defer stream.Close()

	builder := contract.NewTurnBuilder()
	// Tool calls arrive as indexed deltas; the id only travels on the
	// first delta of each call.
	indexIDs := make(map[int]string)

	for {
		resp, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return nil, fmt.Errorf("openai stream: %w", recvErr)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta

		if delta.ReasoningContent != "" {
			builder.AddReasoning(delta.ReasoningContent)
			if err := emit(runstream.PrimThinkingDelta, map[string]interface{}{"content": delta.ReasoningContent}); err != nil {
				return nil, err
			}
		}
		if delta.Content != "" {
			builder.AddText(delta.Content)
			if err := emit(runstream.PrimTextDelta, map[string]interface{}{"content": delta.Content}); err != nil {
				return nil, err
			}
		}
		for _, call := range delta.ToolCalls {
			if err := p.handleToolCallDelta(call, indexIDs, builder, emit); err != nil {
				return nil, err
			}
		}
	}

	return builder.Build(), nil
}

func (p *Provider) handleToolCallDelta(call openai.ToolCall, indexIDs map[int]string, builder *contract.TurnBuilder, emit contract.EmitFunc) error {
	index := 0
	if call.Index != nil {
		index = *call.Index
	}

	if call.ID != "" {
		indexIDs[index] = call.ID
		builder.BeginTool(call.ID, call.Function.Name)
		if err := emit(runstream.PrimToolCallBegin, map[string]interface{}{
			"id":   call.ID,
			"name": call.Function.Name,
		}); err != nil {
			return err
		}
	}

	if call.Function.Arguments == "" {
		return nil
	}
	id := indexIDs[index]
	if id == "" {
		// Argument fragment before any id was seen; synthesize one so
		// the fragments still assemble.
		id = fmt.Sprintf("call-%d", index)
		indexIDs[index] = id
		builder.BeginTool(id, call.Function.Name)
	}
	builder.AppendToolArgs(id, call.Function.Arguments)
	return emit(runstream.PrimToolCallDelta, map[string]interface{}{
		"id":           id,
		"partial_json": call.Function.Arguments,
	})
}

func buildRequest(req contract.StreamRequest) openai.ChatCompletionRequest {
	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, m := range req.Messages {
		msg := openai.ChatCompletionMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Input,
				},
			})
		}
		messages = append(messages, msg)
	}

	var tools []openai.Tool
	for _, def := range req.Tools {
		params := def.Parameters
		if params == nil {
			params = map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			}
		}
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  params,
			},
		})
	}

	return openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: messages,
		Tools:    tools,
		Stream:   true,
	}
}
