package runstream

// Event is the closed union of canonical stream events produced by a
// single agent run. Exactly one kind per instance; the unexported marker
// method keeps the union sealed so consumers can switch exhaustively.
type Event interface {
	event()
}

// Thinking is an incremental fragment of the model's reasoning content.
type Thinking struct {
	Content string
}

// Text is an incremental fragment of the model's response text.
type Text struct {
	Content string
}

// ToolCall announces or extends one tool invocation. ID may be empty on
// malformed upstream streams; Args carries fields delivered already
// parsed, ArgsDelta carries a raw fragment of the JSON-encoded argument
// document. A single call is typically spread over several ToolCall
// events.
type ToolCall struct {
	ID        string
	Name      string
	Args      map[string]any
	ArgsDelta string
}

// ToolResult carries the output of one executed tool. Success and
// ToolUseID are optional; absent values trigger the reconciler's
// fallback matching and success inference.
type ToolResult struct {
	Name      string
	Content   string
	Success   *bool
	ToolUseID string
}

// Done terminates a run normally. Response is only consulted when no
// Text fragments were accumulated during the run.
type Done struct {
	Response string
}

// RunError terminates a run with a user-visible failure message. It
// covers both in-band error events and synthetic transport failures.
type RunError struct {
	Message string
}

func (Thinking) event()   {}
func (Text) event()       {}
func (ToolCall) event()   {}
func (ToolResult) event() {}
func (Done) event()       {}
func (RunError) event()   {}

// Interface compliance checks.
var (
	_ Event = Thinking{}
	_ Event = Text{}
	_ Event = ToolCall{}
	_ Event = ToolResult{}
	_ Event = Done{}
	_ Event = RunError{}
)

// IsTerminal reports whether evt ends a run.
func IsTerminal(evt Event) bool {
	switch evt.(type) {
	case Done, RunError:
		return true
	}
	return false
}
