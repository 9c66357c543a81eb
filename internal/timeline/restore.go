package timeline

import (
	"github.com/kairodev/kairo/internal/store"
)

// Restore rebuilds a thread's timeline from its persisted messages.
// Assistant rows come back in a terminal phase with their tool calls
// joined against the recorded results; a call with no recorded result
// is shown as still running, which is what an interrupted run looks
// like. Standalone tool rows, written by older logs that recorded
// results as separate messages, fold into the nearest preceding
// assistant entry by call id.
func Restore(threadID string, messages []store.Message) *Thread {
	t := NewThread(threadID)

	for _, msg := range messages {
		switch msg.Role {
		case store.RoleHuman:
			t.entries = append(t.entries, Entry{
				ID:        msg.ID,
				Kind:      KindUser,
				CreatedAt: msg.CreatedAt,
				Text:      msg.Content,
			})
		case store.RoleSystem:
			t.entries = append(t.entries, Entry{
				ID:        msg.ID,
				Kind:      KindSystem,
				CreatedAt: msg.CreatedAt,
				Text:      msg.Content,
			})
		case store.RoleAI:
			t.entries = append(t.entries, restoreAssistant(t, msg))
		case store.RoleTool:
			foldToolRow(t.entries, msg)
		}
	}
	return t
}

func restoreAssistant(t *Thread, msg store.Message) Entry {
	entry := Entry{
		ID:        msg.ID,
		Kind:      KindAssistant,
		CreatedAt: msg.CreatedAt,
		Phase:     PhaseDone,
		Thinking:  msg.ReasoningContent,
		Response:  msg.Content,
	}
	for _, call := range msg.ToolCalls {
		view := ToolCallView{
			ID:     call.ID,
			Name:   call.Name,
			Args:   call.Args,
			Status: ToolRunning,
		}
		if view.Args == nil {
			view.Args = map[string]any{}
		}
		if rec, ok := msg.ToolResults[call.ID]; ok {
			applyResultRecord(&view, rec.Content, rec.Success)
		}
		t.noteSkill(view.Name, view.Args)
		entry.Tools = append(entry.Tools, view)
	}
	return entry
}

func foldToolRow(entries []Entry, msg store.Message) {
	if msg.ToolCallID == "" {
		return
	}
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Kind != KindAssistant {
			continue
		}
		for j := range entries[i].Tools {
			if entries[i].Tools[j].ID == msg.ToolCallID {
				applyResultRecord(&entries[i].Tools[j], msg.Content, nil)
				return
			}
		}
	}
}

func applyResultRecord(view *ToolCallView, content string, explicit *bool) {
	view.Result = content
	success := InferSuccess(explicit, content)
	view.Success = &success
	if success {
		view.Status = ToolSuccess
	} else {
		view.Status = ToolFailed
	}
}
