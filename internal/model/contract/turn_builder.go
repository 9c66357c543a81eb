package contract

import "strings"

// TurnBuilder accumulates a provider's streamed deltas into a Turn so
// every provider shares one assembly path. Tool argument fragments are
// concatenated as raw text; parsing is the consumer's concern.
type TurnBuilder struct {
	content   strings.Builder
	reasoning strings.Builder
	order     []string
	calls     map[string]*toolAccum
}

type toolAccum struct {
	name string
	args strings.Builder
}

func NewTurnBuilder() *TurnBuilder {
	return &TurnBuilder{calls: make(map[string]*toolAccum)}
}

func (b *TurnBuilder) AddText(s string) {
	b.content.WriteString(s)
}

func (b *TurnBuilder) AddReasoning(s string) {
	b.reasoning.WriteString(s)
}

// BeginTool registers a call id. Repeated begins for the same id keep
// the existing accumulation; a later non-empty name fills a blank one.
func (b *TurnBuilder) BeginTool(id, name string) {
	if acc, ok := b.calls[id]; ok {
		if acc.name == "" {
			acc.name = name
		}
		return
	}
	b.calls[id] = &toolAccum{name: name}
	b.order = append(b.order, id)
}

func (b *TurnBuilder) AppendToolArgs(id, fragment string) {
	acc, ok := b.calls[id]
	if !ok {
		acc = &toolAccum{}
		b.calls[id] = acc
		b.order = append(b.order, id)
	}
	acc.args.WriteString(fragment)
}

// AddWholeTool records a call whose arguments arrived fully assembled.
func (b *TurnBuilder) AddWholeTool(id, name, argsJSON string) {
	b.BeginTool(id, name)
	b.calls[id].args.Reset()
	b.calls[id].args.WriteString(argsJSON)
}

func (b *TurnBuilder) Build() *Turn {
	turn := &Turn{
		Content:   b.content.String(),
		Reasoning: b.reasoning.String(),
	}
	for _, id := range b.order {
		acc := b.calls[id]
		turn.ToolCalls = append(turn.ToolCalls, &ToolCall{
			ID:    id,
			Name:  acc.name,
			Input: acc.args.String(),
		})
	}
	return turn
}
