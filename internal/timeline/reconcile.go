package timeline

import "strings"

// FailureMarker is the reserved prefix a tool result may carry to
// signal failure when no explicit success flag travels with it.
const FailureMarker = "[FAILED]"

// MatchTier records how a tool result was bound to its call, from
// strongest to weakest evidence.
type MatchTier int

const (
	// MatchExact bound by tool_use_id.
	MatchExact MatchTier = iota
	// MatchName bound to the most recent unresolved call with the
	// same tool name.
	MatchName
	// MatchAny bound to the most recent unresolved call regardless
	// of name.
	MatchAny
	// MatchOrphan found no candidate; the caller synthesizes a view.
	MatchOrphan
)

func (t MatchTier) String() string {
	switch t {
	case MatchExact:
		return "exact"
	case MatchName:
		return "name"
	case MatchAny:
		return "any"
	default:
		return "orphan"
	}
}

// Match locates the tool view a result belongs to. It tries the
// explicit tool_use_id first, then falls back to recency so that
// providers that omit correlation ids still resolve their calls, and
// reports MatchOrphan with index -1 when nothing is unresolved.
func Match(tools []ToolCallView, toolUseID, name string) (int, MatchTier) {
	if toolUseID != "" {
		for i := range tools {
			if tools[i].ID == toolUseID {
				return i, MatchExact
			}
		}
	}
	if name != "" {
		for i := len(tools) - 1; i >= 0; i-- {
			if tools[i].Name == name && !tools[i].Status.Resolved() {
				return i, MatchName
			}
		}
	}
	for i := len(tools) - 1; i >= 0; i-- {
		if !tools[i].Status.Resolved() {
			return i, MatchAny
		}
	}
	return -1, MatchOrphan
}

// InferSuccess decides the outcome of a tool call. An explicit flag
// from the runtime always wins; otherwise the result content is
// consulted for the reserved failure marker.
func InferSuccess(explicit *bool, content string) bool {
	if explicit != nil {
		return *explicit
	}
	return !strings.HasPrefix(content, FailureMarker)
}
