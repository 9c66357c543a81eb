package timeline

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	apperrors "github.com/kairodev/kairo/internal/errors"
)

// Assembler accumulates streamed tool-call argument fragments per call
// id and parses the joined text once, at finalize time. Fragments are
// concatenated in arrival order with no delimiter; a fragment is never
// parsed on its own because any prefix of a JSON document is expected
// to be invalid.
type Assembler struct {
	pending map[string]*strings.Builder
	final   map[string]map[string]any
}

func NewAssembler() *Assembler {
	return &Assembler{
		pending: make(map[string]*strings.Builder),
		final:   make(map[string]map[string]any),
	}
}

// Begin opens an accumulation slot for the call id. A duplicate begin
// for an id still accumulating, or one already finalized, is ignored
// with a diagnostic rather than clobbering the buffer.
func (a *Assembler) Begin(id string) {
	if _, done := a.final[id]; done {
		slog.Debug("ignoring tool call begin",
			slog.String("tool_call_id", id),
			slog.Any("error", apperrors.ProtocolViolation("begin for finalized call")))
		return
	}
	if _, open := a.pending[id]; open {
		slog.Debug("ignoring tool call begin",
			slog.String("tool_call_id", id),
			slog.Any("error", apperrors.ProtocolViolation("duplicate begin")))
		return
	}
	a.pending[id] = &strings.Builder{}
}

// Append adds a raw fragment to the call's buffer. An unknown id opens
// a slot implicitly, so a stream whose begin marker was lost still
// assembles correctly. Appends after Finalize are dropped.
func (a *Assembler) Append(id, fragment string) {
	if _, done := a.final[id]; done {
		return
	}
	buf, ok := a.pending[id]
	if !ok {
		buf = &strings.Builder{}
		a.pending[id] = buf
	}
	buf.WriteString(fragment)
}

// Finalize parses the accumulated fragments into an argument map and
// caches the result, making repeated calls idempotent. Empty input
// yields an empty map, as does malformed JSON: argument loss degrades
// the display but never aborts the run.
func (a *Assembler) Finalize(id string) map[string]any {
	if args, done := a.final[id]; done {
		return args
	}
	args := map[string]any{}
	if buf, ok := a.pending[id]; ok {
		raw := buf.String()
		if raw != "" {
			if err := json.Unmarshal([]byte(raw), &args); err != nil {
				slog.Debug("discarding unparseable tool arguments",
					slog.String("tool_call_id", id),
					slog.Int("bytes", len(raw)),
					slog.Any("error", fmt.Errorf("%v: %w", err, apperrors.ErrMalformedFragment)))
				args = map[string]any{}
			}
		}
		delete(a.pending, id)
	}
	a.final[id] = args
	return args
}

// Finalized reports whether the id has already been parsed.
func (a *Assembler) Finalized(id string) bool {
	_, done := a.final[id]
	return done
}

// Open reports whether the id has an unfinalized buffer.
func (a *Assembler) Open(id string) bool {
	_, ok := a.pending[id]
	return ok
}

// OpenIDs returns the ids still accumulating, in unspecified order.
func (a *Assembler) OpenIDs() []string {
	ids := make([]string, 0, len(a.pending))
	for id := range a.pending {
		ids = append(ids, id)
	}
	return ids
}
