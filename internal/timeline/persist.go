package timeline

import "github.com/kairodev/kairo/internal/store"

// ToMessage converts a settled entry into its persisted form. Tool
// state rides on the assistant row itself, results keyed by call id,
// so a later Restore can rejoin them without scanning neighbors.
func ToMessage(entry Entry) store.Message {
	msg := store.Message{
		ID:        entry.ID,
		CreatedAt: entry.CreatedAt,
	}
	switch entry.Kind {
	case KindUser:
		msg.Role = store.RoleHuman
		msg.Content = entry.Text
	case KindSystem:
		msg.Role = store.RoleSystem
		msg.Content = entry.Text
	case KindAssistant:
		msg.Role = store.RoleAI
		msg.Content = entry.Response
		msg.ReasoningContent = entry.Thinking
		if entry.Phase == PhaseError && entry.Response == "" {
			msg.Content = entry.Err
		}
		for _, tool := range entry.Tools {
			msg.ToolCalls = append(msg.ToolCalls, store.ToolCallRecord{
				ID:   tool.ID,
				Name: tool.Name,
				Args: tool.Args,
			})
			if tool.Status.Resolved() {
				if msg.ToolResults == nil {
					msg.ToolResults = make(map[string]store.ToolResultRecord)
				}
				msg.ToolResults[tool.ID] = store.ToolResultRecord{
					Content: tool.Result,
					Success: tool.Success,
				}
			}
		}
	}
	return msg
}
