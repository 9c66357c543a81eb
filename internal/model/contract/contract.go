package contract

// Message is one provider-neutral conversation message.
type Message struct {
	Role       string      `json:"role"`
	Content    string      `json:"content"`
	Reasoning  string      `json:"reasoning,omitempty"`
	ToolCallID string      `json:"tool_call_id,omitempty"`
	ToolCalls  []*ToolCall `json:"tool_calls,omitempty"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

type ToolDef struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
}

// ToolCall is an assembled invocation request from the model. Input is
// the raw JSON argument document.
type ToolCall struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Input string `json:"input"`
}

// StreamRequest is one streaming completion call.
type StreamRequest struct {
	Model          string     `json:"model"`
	System         string     `json:"system,omitempty"`
	Messages       []Message  `json:"messages"`
	Tools          []ToolDef  `json:"tools,omitempty"`
	MaxTokens      int        `json:"max_tokens,omitempty"`
	ThinkingBudget int        `json:"thinking_budget,omitempty"`
}

// Turn is the assembled outcome of one streamed model turn.
type Turn struct {
	Content   string      `json:"content"`
	Reasoning string      `json:"reasoning,omitempty"`
	ToolCalls []*ToolCall `json:"tool_calls,omitempty"`
}

// EmitFunc receives one raw streaming primitive: a type tag and its
// payload fields. Providers call it for every delta as it arrives.
type EmitFunc func(typ string, payload map[string]interface{}) error
