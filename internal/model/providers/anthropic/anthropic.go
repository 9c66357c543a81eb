package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/kairodev/kairo/internal/model/contract"
	"github.com/kairodev/kairo/internal/runstream"
)

// Provider streams completions from the Anthropic Messages API.
type Provider struct {
	client anthropic.Client
	name   string
}

func New(apiKey, baseURL, name string) *Provider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Provider{
		client: anthropic.NewClient(opts...),
		name:   name,
	}
}

func (p *Provider) Name() string { return p.name }
func (p *Provider) Type() string { return "anthropic" }

func (p *Provider) Health(_ context.Context) error { return nil }

func (p *Provider) Stream(ctx context.Context, req contract.StreamRequest, emit contract.EmitFunc) (*contract.Turn, error) {
	params, err := buildParams(req)
	if err != nil {
		return nil, err
	}

	stream := p.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	builder := contract.NewTurnBuilder()
	// tool_use content blocks are correlated by block index.
	blockTools := make(map[int64]string)

	for stream.Next() {
		event := stream.Current()
		switch eventVariant := event.AsAny().(type) {
		case anthropic.ContentBlockStartEvent:
			if block, ok := eventVariant.ContentBlock.AsAny().(anthropic.ToolUseBlock); ok {
				blockTools[eventVariant.Index] = block.ID
				builder.BeginTool(block.ID, block.Name)
				if err := emit(runstream.PrimToolCallBegin, map[string]interface{}{
					"id":   block.ID,
					"name": block.Name,
				}); err != nil {
					return nil, err
				}
			}
		case anthropic.ContentBlockDeltaEvent:
			if err := p.handleDelta(eventVariant, blockTools, builder, emit); err != nil {
				return nil, err
			}
		case anthropic.ContentBlockStopEvent:
			delete(blockTools, eventVariant.Index)
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("anthropic stream: %w", err)
	}

	return builder.Build(), nil
}

func (p *Provider) handleDelta(event anthropic.ContentBlockDeltaEvent, blockTools map[int64]string, builder *contract.TurnBuilder, emit contract.EmitFunc) error {
	switch deltaVariant := event.Delta.AsAny().(type) {
	case anthropic.TextDelta:
		builder.AddText(deltaVariant.Text)
		return emit(runstream.PrimTextDelta, map[string]interface{}{"content": deltaVariant.Text})
	case anthropic.ThinkingDelta:
		builder.AddReasoning(deltaVariant.Thinking)
		return emit(runstream.PrimThinkingDelta, map[string]interface{}{"content": deltaVariant.Thinking})
	case anthropic.InputJSONDelta:
		id, ok := blockTools[event.Index]
		if !ok {
			return nil
		}
		builder.AppendToolArgs(id, deltaVariant.PartialJSON)
		return emit(runstream.PrimToolCallDelta, map[string]interface{}{
			"id":           id,
			"partial_json": deltaVariant.PartialJSON,
		})
	}
	return nil
}

func buildParams(req contract.StreamRequest) (anthropic.MessageNewParams, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(req.MaxTokens),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.ThinkingBudget > 0 {
		params.Thinking = anthropic.ThinkingConfigParamOfEnabled(int64(req.ThinkingBudget))
	}

	for _, def := range req.Tools {
		schema := anthropic.ToolInputSchemaParam{}
		if len(def.Parameters) > 0 {
			schema.ExtraFields = def.Parameters
		}
		params.Tools = append(params.Tools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        def.Name,
				Description: anthropic.String(def.Description),
				InputSchema: schema,
			},
		})
	}

	for _, msg := range req.Messages {
		converted, err := convertMessage(msg)
		if err != nil {
			return anthropic.MessageNewParams{}, err
		}
		params.Messages = append(params.Messages, converted...)
	}
	return params, nil
}

func convertMessage(msg contract.Message) ([]anthropic.MessageParam, error) {
	switch msg.Role {
	case contract.RoleUser:
		return []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)),
		}, nil
	case contract.RoleAssistant:
		var blocks []anthropic.ContentBlockParamUnion
		if msg.Content != "" {
			blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
		}
		for _, call := range msg.ToolCalls {
			input := call.Input
			if strings.TrimSpace(input) == "" {
				input = "{}"
			}
			blocks = append(blocks, anthropic.NewToolUseBlock(call.ID, json.RawMessage(input), call.Name))
		}
		if len(blocks) == 0 {
			return nil, nil
		}
		return []anthropic.MessageParam{anthropic.NewAssistantMessage(blocks...)}, nil
	case contract.RoleTool:
		isError := strings.HasPrefix(msg.Content, "[FAILED]")
		return []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, isError)),
		}, nil
	case contract.RoleSystem:
		// System content travels in MessageNewParams.System.
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported message role: %s", msg.Role)
	}
}
