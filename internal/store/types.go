package store

import "time"

// --- Thread Index (threads/index.json) ---

type ThreadMeta struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
}

type ThreadIndex struct {
	Threads map[string]ThreadMeta `json:"threads"`
}

// --- Messages (threads/<id>.jsonl) ---

type Role string

const (
	RoleHuman  Role = "human"
	RoleAI     Role = "ai"
	RoleTool   Role = "tool"
	RoleSystem Role = "system"
)

// ToolCallRecord is one serialized tool invocation on an ai message.
type ToolCallRecord struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// ToolResultRecord is one serialized tool outcome, stored on the ai
// message keyed by the originating tool call id.
type ToolResultRecord struct {
	Content string `json:"content"`
	Success *bool  `json:"success,omitempty"`
}

// Message is one persisted conversation row. The shape mirrors the
// history boundary: role, content, optional reasoning content, and the
// serialized tool calls/results an ai row carries.
type Message struct {
	ID               string                      `json:"id"` // ULID
	Role             Role                        `json:"role"`
	Content          string                      `json:"content"`
	ReasoningContent string                      `json:"reasoning_content,omitempty"`
	ToolCalls        []ToolCallRecord            `json:"tool_calls,omitempty"`
	ToolResults      map[string]ToolResultRecord `json:"tool_results,omitempty"`
	ToolCallID       string                      `json:"tool_call_id,omitempty"`
	CreatedAt        time.Time                   `json:"created_at"`
}
