package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"

	"github.com/kairodev/kairo/internal/model/contract"
	"github.com/kairodev/kairo/internal/runstream"
)

// Provider streams completions from the Gemini API. Gemini delivers
// function calls fully assembled rather than as argument fragments, so
// tool calls are emitted as whole tool_call primitives.
type Provider struct {
	client *genai.Client
	name   string
}

func New(apiKey, name string) (*Provider, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &Provider{client: client, name: name}, nil
}

func (p *Provider) Name() string { return p.name }
func (p *Provider) Type() string { return "gemini" }

func (p *Provider) Health(_ context.Context) error { return nil }

func (p *Provider) Stream(ctx context.Context, req contract.StreamRequest, emit contract.EmitFunc) (*contract.Turn, error) {
	contents := convertMessages(req.Messages)
	config := buildConfig(req)

	builder := contract.NewTurnBuilder()
	callSeq := 0

	for resp, err := range p.client.Models.GenerateContentStream(ctx, req.Model, contents, config) {
		if err != nil {
			return nil, fmt.Errorf("gemini stream: %w", err)
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			continue
		}
		for _, part := range resp.Candidates[0].Content.Parts {
			if err := p.handlePart(part, builder, emit, &callSeq); err != nil {
				return nil, err
			}
		}
	}

	return builder.Build(), nil
}

func (p *Provider) handlePart(part *genai.Part, builder *contract.TurnBuilder, emit contract.EmitFunc, callSeq *int) error {
	switch {
	case part.Thought && part.Text != "":
		builder.AddReasoning(part.Text)
		return emit(runstream.PrimThinkingDelta, map[string]interface{}{"content": part.Text})
	case part.Text != "":
		builder.AddText(part.Text)
		return emit(runstream.PrimTextDelta, map[string]interface{}{"content": part.Text})
	case part.FunctionCall != nil:
		call := part.FunctionCall
		id := call.ID
		if id == "" {
			id = fmt.Sprintf("%s-%d", call.Name, *callSeq)
		}
		*callSeq++

		argsJSON, err := json.Marshal(call.Args)
		if err != nil {
			argsJSON = []byte("{}")
		}
		builder.AddWholeTool(id, call.Name, string(argsJSON))
		return emit(runstream.PrimToolCall, map[string]interface{}{
			"id":   id,
			"name": call.Name,
			"args": call.Args,
		})
	}
	return nil
}

func buildConfig(req contract.StreamRequest) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		Tools: convertTools(req.Tools),
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.ThinkingBudget > 0 {
		config.ThinkingConfig = &genai.ThinkingConfig{IncludeThoughts: true}
	}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}
	return config
}

func convertMessages(msgs []contract.Message) []*genai.Content {
	var contents []*genai.Content
	for _, m := range msgs {
		switch m.Role {
		case contract.RoleTool:
			response := map[string]any{"output": m.Content}
			if strings.HasPrefix(m.Content, "[FAILED]") {
				response = map[string]any{"error": m.Content}
			}
			contents = append(contents, &genai.Content{
				Role: "user",
				Parts: []*genai.Part{{
					FunctionResponse: &genai.FunctionResponse{
						ID:       m.ToolCallID,
						Name:     toolNameForResult(m),
						Response: response,
					},
				}},
			})
		case contract.RoleAssistant:
			var parts []*genai.Part
			if m.Content != "" {
				parts = append(parts, &genai.Part{Text: m.Content})
			}
			for _, call := range m.ToolCalls {
				var args map[string]any
				_ = json.Unmarshal([]byte(call.Input), &args)
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						ID:   call.ID,
						Name: call.Name,
						Args: args,
					},
				})
			}
			if len(parts) == 0 {
				continue
			}
			contents = append(contents, &genai.Content{Role: "model", Parts: parts})
		default:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []*genai.Part{{Text: m.Content}},
			})
		}
	}
	return contents
}

// toolNameForResult falls back to the call id when the result message
// carries no tool name, matching what the API requires.
func toolNameForResult(m contract.Message) string {
	for _, call := range m.ToolCalls {
		if call.ID == m.ToolCallID {
			return call.Name
		}
	}
	return m.ToolCallID
}

func convertTools(defs []contract.ToolDef) []*genai.Tool {
	if len(defs) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, len(defs))
	for i, def := range defs {
		decls[i] = &genai.FunctionDeclaration{
			Name:                 def.Name,
			Description:          def.Description,
			ParametersJsonSchema: def.Parameters,
		}
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}
