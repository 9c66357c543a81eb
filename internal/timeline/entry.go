package timeline

import "time"

// Phase is the lifecycle state of one assistant entry. Transitions move
// forward only, except for the responding/analyzing cycle while tool
// output is being processed.
type Phase string

const (
	PhaseWaiting    Phase = "waiting"
	PhaseThinking   Phase = "thinking"
	PhaseResponding Phase = "responding"
	PhaseAnalyzing  Phase = "analyzing"
	PhaseDone       Phase = "done"
	PhaseError      Phase = "error"
)

// Terminal reports whether the phase ends a turn.
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseError
}

type ToolStatus string

const (
	ToolRunning ToolStatus = "running"
	ToolSuccess ToolStatus = "success"
	ToolFailed  ToolStatus = "failed"
)

// Resolved reports whether the status is terminal for the call.
func (s ToolStatus) Resolved() bool {
	return s == ToolSuccess || s == ToolFailed
}

// ToolCallView is the reconciled state of one tool invocation inside an
// assistant entry. At most one view exists per id per entry; Args only
// ever grows, and a resolved Status never regresses to running.
type ToolCallView struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Args     map[string]any `json:"args"`
	Status   ToolStatus     `json:"status"`
	Result   string         `json:"result,omitempty"`
	Success  *bool          `json:"success,omitempty"`
	Expanded bool           `json:"expanded"` // display-only flag, owned by the render layer
}

type Kind string

const (
	KindUser      Kind = "user"
	KindAssistant Kind = "assistant"
	KindSystem    Kind = "system"
)

// Entry is one timeline row. Identity is an opaque ULID unique within
// the thread; ordering is append order and rows are never reordered.
// User and System rows are immutable; an Assistant row mutates in place
// until it reaches a terminal phase.
type Entry struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"created_at"`

	// User / System
	Text     string `json:"text,omitempty"`
	Markdown bool   `json:"markdown,omitempty"`

	// Assistant
	Phase    Phase          `json:"phase,omitempty"`
	Thinking string         `json:"thinking,omitempty"`
	Response string         `json:"response,omitempty"`
	Tools    []ToolCallView `json:"tools,omitempty"`
	Err      string         `json:"error,omitempty"`
}

// Clone deep-copies the entry so snapshots never alias live fold state.
func (e *Entry) Clone() Entry {
	out := *e
	if e.Tools != nil {
		out.Tools = make([]ToolCallView, len(e.Tools))
		for i, tool := range e.Tools {
			out.Tools[i] = tool.clone()
		}
	}
	return out
}

func (v ToolCallView) clone() ToolCallView {
	out := v
	if v.Args != nil {
		out.Args = make(map[string]any, len(v.Args))
		for k, val := range v.Args {
			out.Args[k] = val
		}
	}
	if v.Success != nil {
		success := *v.Success
		out.Success = &success
	}
	return out
}
