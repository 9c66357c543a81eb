package runstream

import "encoding/json"

// Primitive is one raw streaming unit from the agent execution
// pipeline. The engine assumes no wire encoding beyond a type
// discriminator plus a JSON payload; unknown types are ignorable.
type Primitive struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Primitive types recognized by the normalizer. Producers may emit
// additional types (usage counters, turn bookkeeping); those pass
// through Normalize unrecognized and are dropped.
const (
	PrimThinkingDelta = "thinking_delta"
	PrimTextDelta     = "text_delta"
	PrimToolCallBegin = "tool_call_begin"
	PrimToolCallDelta = "tool_call_delta"
	PrimToolCall      = "tool_call"
	PrimToolResult    = "tool_result"
	PrimDone          = "done"
	PrimError         = "error"

	// PrimTurnEnd is producer bookkeeping: it carries the assembled
	// model turn so the agent loop can decide whether to execute tools.
	// The normalizer deliberately does not recognize it.
	PrimTurnEnd = "turn_end"
)

// NewPrimitive marshals payload into a Primitive of the given type.
// Marshal failures yield an empty payload rather than an error; every
// payload type used by producers is a plain struct or map.
func NewPrimitive(primType string, payload any) Primitive {
	data, err := json.Marshal(payload)
	if err != nil {
		data = nil
	}
	return Primitive{Type: primType, Data: data}
}
