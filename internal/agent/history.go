package agent

import (
	"encoding/json"

	"github.com/kairodev/kairo/internal/model/contract"
	"github.com/kairodev/kairo/internal/store"
)

// historyToContract converts persisted rows into provider-neutral
// messages. An ai row carries its tool results inline; each one is
// expanded into a follow-up tool message so providers see the
// call/result pairing they produced. Calls without a stored result
// were interrupted mid-run and are dropped, since every provider
// rejects a dangling tool call.
func historyToContract(rows []store.Message) []contract.Message {
	var msgs []contract.Message
	for _, row := range rows {
		switch row.Role {
		case store.RoleHuman:
			msgs = append(msgs, contract.Message{Role: contract.RoleUser, Content: row.Content})

		case store.RoleSystem:
			msgs = append(msgs, contract.Message{Role: contract.RoleSystem, Content: row.Content})

		case store.RoleTool:
			msgs = append(msgs, contract.Message{
				Role:       contract.RoleTool,
				Content:    row.Content,
				ToolCallID: row.ToolCallID,
			})

		case store.RoleAI:
			msg := contract.Message{
				Role:      contract.RoleAssistant,
				Content:   row.Content,
				Reasoning: row.ReasoningContent,
			}
			var results []contract.Message
			for _, call := range row.ToolCalls {
				result, ok := row.ToolResults[call.ID]
				if !ok {
					continue
				}
				input, err := json.Marshal(call.Args)
				if err != nil {
					input = []byte("{}")
				}
				msg.ToolCalls = append(msg.ToolCalls, &contract.ToolCall{
					ID:    call.ID,
					Name:  call.Name,
					Input: string(input),
				})
				results = append(results, contract.Message{
					Role:       contract.RoleTool,
					Content:    result.Content,
					ToolCallID: call.ID,
				})
			}
			if msg.Content == "" && len(msg.ToolCalls) == 0 {
				continue
			}
			msgs = append(msgs, msg)
			msgs = append(msgs, results...)
		}
	}
	return msgs
}
