package runstream

import "encoding/json"

// primitivePayload is the superset of fields a recognized primitive may
// carry. Content accepts the aliases producers are known to use.
type primitivePayload struct {
	Content     string         `json:"content"`
	Delta       string         `json:"delta"`
	Text        string         `json:"text"`
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Args        map[string]any `json:"args"`
	PartialJSON string         `json:"partial_json"`
	Success     *bool          `json:"success"`
	ToolUseID   string         `json:"tool_use_id"`
	Response    string         `json:"response"`
	Message     string         `json:"message"`
}

// Normalize converts one raw primitive into its canonical event.
// Unrecognized primitive types return ok=false and are dropped: new
// producer-side types must never break existing consumers. Ordering is
// the caller's concern; Normalize itself is pure and stateless.
func Normalize(p Primitive) (Event, bool) {
	var payload primitivePayload
	if len(p.Data) > 0 {
		// A payload that fails to decode is treated like a missing one;
		// the kind switch below still produces a well-formed event.
		_ = json.Unmarshal(p.Data, &payload)
	}

	switch p.Type {
	case PrimThinkingDelta:
		return Thinking{Content: payload.text()}, true
	case PrimTextDelta:
		return Text{Content: payload.text()}, true
	case PrimToolCallBegin:
		return ToolCall{ID: payload.ID, Name: payload.Name}, true
	case PrimToolCallDelta:
		return ToolCall{ID: payload.ID, ArgsDelta: payload.PartialJSON}, true
	case PrimToolCall:
		return ToolCall{ID: payload.ID, Name: payload.Name, Args: payload.Args}, true
	case PrimToolResult:
		return ToolResult{
			Name:      payload.Name,
			Content:   payload.text(),
			Success:   payload.Success,
			ToolUseID: payload.ToolUseID,
		}, true
	case PrimDone:
		return Done{Response: payload.Response}, true
	case PrimError:
		msg := payload.Message
		if msg == "" {
			msg = payload.text()
		}
		return RunError{Message: msg}, true
	}

	return nil, false
}

// text extracts textual content by field priority: content > delta > text.
func (p primitivePayload) text() string {
	if p.Content != "" {
		return p.Content
	}
	if p.Delta != "" {
		return p.Delta
	}
	return p.Text
}
