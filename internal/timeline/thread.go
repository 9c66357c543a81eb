package timeline

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	apperrors "github.com/kairodev/kairo/internal/errors"
	"github.com/kairodev/kairo/internal/runstream"
)

// SkillTool is the tool name whose skill_name argument updates the
// thread's active skill hint.
const SkillTool = "load_skill"

// Thread folds one conversation's event stream into an ordered entry
// list. Events for a thread arrive from a single session goroutine;
// the mutex exists for readers taking snapshots and for the display
// layer toggling expansion, not for concurrent folding.
type Thread struct {
	id string

	mu          sync.Mutex
	entries     []Entry
	activeIdx   int // index of the assistant entry being folded, -1 when idle
	assembler   *Assembler
	activeSkill string
}

func NewThread(id string) *Thread {
	return &Thread{id: id, activeIdx: -1}
}

func (t *Thread) ID() string { return t.id }

// Submit appends the user's prompt together with a fresh waiting
// assistant entry, atomically, so no observer ever sees a prompt with
// nowhere for the reply to land. It fails while a run is in flight.
func (t *Thread) Submit(text string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.activeIdx >= 0 {
		return "", apperrors.ThreadBusy(fmt.Sprintf("thread %s has a run in flight", t.id))
	}

	now := time.Now().UTC()
	t.entries = append(t.entries, Entry{
		ID:        ulid.Make().String(),
		Kind:      KindUser,
		CreatedAt: now,
		Text:      text,
	})
	assistant := Entry{
		ID:        ulid.Make().String(),
		Kind:      KindAssistant,
		CreatedAt: now,
		Phase:     PhaseWaiting,
	}
	t.entries = append(t.entries, assistant)
	t.activeIdx = len(t.entries) - 1
	t.assembler = NewAssembler()
	return assistant.ID, nil
}

// AddSystem appends an informational row, such as slash-command output.
func (t *Thread) AddSystem(text string, markdown bool) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry := Entry{
		ID:        ulid.Make().String(),
		Kind:      KindSystem,
		CreatedAt: time.Now().UTC(),
		Text:      text,
		Markdown:  markdown,
	}
	t.entries = append(t.entries, entry)
	return entry.ID
}

// Apply folds one normalized event into the active assistant entry.
// Events arriving with no run in flight, or after the entry reached a
// terminal phase, are dropped so replays and late deliveries cannot
// corrupt a settled timeline.
func (t *Thread) Apply(evt runstream.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.activeIdx < 0 {
		slog.Debug("dropping event",
			slog.String("thread_id", t.id),
			slog.String("event", fmt.Sprintf("%T", evt)),
			slog.Any("error", apperrors.ProtocolViolation("event with no active run")))
		return
	}
	entry := &t.entries[t.activeIdx]
	if entry.Phase.Terminal() {
		slog.Debug("dropping event",
			slog.String("thread_id", t.id),
			slog.String("phase", string(entry.Phase)),
			slog.Any("error", apperrors.ProtocolViolation("event after terminal phase")))
		return
	}

	switch e := evt.(type) {
	case runstream.Thinking:
		entry.Thinking += e.Content
		if entry.Phase == PhaseWaiting {
			entry.Phase = PhaseThinking
		}
	case runstream.Text:
		entry.Response += e.Content
		entry.Phase = PhaseResponding
	case runstream.ToolCall:
		t.applyToolCall(entry, e)
	case runstream.ToolResult:
		t.applyToolResult(entry, e)
	case runstream.Done:
		t.finish(entry, e)
	case runstream.RunError:
		entry.Err = e.Message
		entry.Phase = PhaseError
		t.endRun()
	}
}

func (t *Thread) applyToolCall(entry *Entry, e runstream.ToolCall) {
	id := e.ID
	if id == "" {
		// A bare argument fragment carries no identity of its own;
		// bind it to the newest call still running, the same recency
		// assumption the result matcher makes.
		if e.Name == "" && e.Args == nil && e.ArgsDelta != "" {
			for i := len(entry.Tools) - 1; i >= 0; i-- {
				if entry.Tools[i].Status == ToolRunning {
					id = entry.Tools[i].ID
					break
				}
			}
		}
		if id == "" {
			id = fmt.Sprintf("%s-%d", e.Name, len(entry.Tools))
		}
	}

	idx := -1
	for i := range entry.Tools {
		if entry.Tools[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		entry.Tools = append(entry.Tools, ToolCallView{
			ID:     id,
			Name:   e.Name,
			Status: ToolRunning,
		})
		idx = len(entry.Tools) - 1
		t.assembler.Begin(id)
	}
	view := &entry.Tools[idx]
	if view.Name == "" {
		view.Name = e.Name
	}

	if e.ArgsDelta != "" {
		t.assembler.Append(id, e.ArgsDelta)
	}
	if e.Args != nil {
		if view.Args == nil {
			view.Args = make(map[string]any, len(e.Args))
		}
		for k, v := range e.Args {
			view.Args[k] = v
		}
	}
	t.noteSkill(view.Name, e.Args)

	if entry.Phase == PhaseWaiting || entry.Phase == PhaseThinking {
		entry.Phase = PhaseResponding
	}
}

func (t *Thread) applyToolResult(entry *Entry, e runstream.ToolResult) {
	idx, tier := Match(entry.Tools, e.ToolUseID, e.Name)
	if idx < 0 {
		// A result with no visible call still deserves a row.
		id := e.ToolUseID
		if id == "" {
			id = fmt.Sprintf("%s-%d", e.Name, len(entry.Tools))
		}
		slog.Debug("synthesizing orphan tool row",
			slog.String("thread_id", t.id),
			slog.String("tool_call_id", id),
			slog.Any("error", fmt.Errorf("result %q: %w", e.Name, apperrors.ErrUnmatchedResult)))
		entry.Tools = append(entry.Tools, ToolCallView{
			ID:   id,
			Name: e.Name,
			Args: map[string]any{},
		})
		idx = len(entry.Tools) - 1
	}
	view := &entry.Tools[idx]
	if tier != MatchExact {
		slog.Debug("tool result matched by fallback",
			slog.String("thread_id", t.id),
			slog.String("tool", view.Name),
			slog.String("tier", tier.String()))
	}

	t.mergeArgs(view)
	view.Result = e.Content
	success := InferSuccess(e.Success, e.Content)
	view.Success = &success
	if success {
		view.Status = ToolSuccess
	} else {
		view.Status = ToolFailed
	}
	t.noteSkill(view.Name, view.Args)

	entry.Phase = PhaseAnalyzing
}

func (t *Thread) finish(entry *Entry, e runstream.Done) {
	for i := range entry.Tools {
		t.mergeArgs(&entry.Tools[i])
	}
	if entry.Response == "" && e.Response != "" {
		entry.Response = e.Response
	}
	entry.Phase = PhaseDone
	t.endRun()
}

// mergeArgs folds the assembler's parsed fragments into the view
// without discarding arguments that arrived whole.
func (t *Thread) mergeArgs(view *ToolCallView) {
	if t.assembler == nil {
		return
	}
	if !t.assembler.Open(view.ID) && t.assembler.Finalized(view.ID) && view.Args != nil {
		return
	}
	args := t.assembler.Finalize(view.ID)
	if view.Args == nil {
		view.Args = args
		return
	}
	for k, v := range args {
		if _, exists := view.Args[k]; !exists {
			view.Args[k] = v
		}
	}
}

func (t *Thread) noteSkill(name string, args map[string]any) {
	if name != SkillTool || args == nil {
		return
	}
	if skill, ok := args["skill_name"].(string); ok && skill != "" {
		t.activeSkill = skill
	}
}

func (t *Thread) endRun() {
	t.activeIdx = -1
	t.assembler = nil
}

// Active reports whether a run is in flight.
func (t *Thread) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.activeIdx >= 0
}

// ActiveSkill returns the last skill name observed in a load_skill
// call, or empty when none was loaded this thread.
func (t *Thread) ActiveSkill() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.activeSkill
}

// Snapshot returns a deep copy of the entries for rendering.
func (t *Thread) Snapshot() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Entry, len(t.entries))
	for i := range t.entries {
		out[i] = t.entries[i].Clone()
	}
	return out
}

// LastEntry returns a copy of the newest entry, if any.
func (t *Thread) LastEntry() (Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.entries) == 0 {
		return Entry{}, false
	}
	return t.entries[len(t.entries)-1].Clone(), true
}

// ToggleExpanded flips a tool row's expansion flag. Folding never
// touches the flag, so the display state survives result delivery.
func (t *Thread) ToggleExpanded(entryID, toolID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.entries {
		if t.entries[i].ID != entryID {
			continue
		}
		for j := range t.entries[i].Tools {
			if t.entries[i].Tools[j].ID == toolID {
				t.entries[i].Tools[j].Expanded = !t.entries[i].Tools[j].Expanded
				return true
			}
		}
	}
	return false
}
