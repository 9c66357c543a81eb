package main

import (
	"fmt"
	"io"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/kairodev/kairo/internal/runstream"
	"github.com/kairodev/kairo/internal/skill"
	"github.com/kairodev/kairo/internal/timeline"
)

// renderer writes one run's events to a terminal as they arrive.
// Thinking content is dimmed, tool activity is prefixed, failures are
// red. It tracks the previous event kind so section breaks land
// between thinking, response text and tool output.
type renderer struct {
	out         io.Writer
	resultLimit int
	lastKind    string
	failed      string

	dim    lipgloss.Style
	tool   lipgloss.Style
	errSt  lipgloss.Style
	okMark lipgloss.Style
}

func newRenderer(out io.Writer, resultLimit int) *renderer {
	return &renderer{
		out:         out,
		resultLimit: resultLimit,
		dim:         lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		tool:        lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true),
		errSt:       lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		okMark:      lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
	}
}

// Failed returns the run error message, if the run ended with one.
func (r *renderer) Failed() string {
	return r.failed
}

func (r *renderer) Handle(evt runstream.Event) {
	switch e := evt.(type) {
	case runstream.Thinking:
		r.sectionBreak("thinking")
		fmt.Fprint(r.out, r.dim.Render(e.Content))
	case runstream.Text:
		r.sectionBreak("text")
		fmt.Fprint(r.out, e.Content)
	case runstream.ToolCall:
		if e.Name == "" {
			return
		}
		r.sectionBreak("tool")
		fmt.Fprintln(r.out, r.tool.Render("⚙ "+e.Name))
		r.lastKind = "tool_done"
	case runstream.ToolResult:
		r.sectionBreak("tool")
		mark := r.okMark.Render("✓")
		if e.Success != nil && !*e.Success {
			mark = r.errSt.Render("✗")
		}
		fmt.Fprintf(r.out, "%s %s\n", mark, truncate(e.Content, r.resultLimit))
		r.lastKind = "tool_done"
	case runstream.Done:
		if r.lastKind != "" {
			fmt.Fprintln(r.out)
		}
		if r.lastKind != "text" && e.Response != "" {
			fmt.Fprintln(r.out, e.Response)
		}
		r.lastKind = ""
	case runstream.RunError:
		if r.lastKind != "" {
			fmt.Fprintln(r.out)
		}
		fmt.Fprintln(r.out, r.errSt.Render("Error: "+e.Message))
		r.failed = e.Message
		r.lastKind = ""
	}
}

func (r *renderer) sectionBreak(kind string) {
	if r.lastKind != "" && r.lastKind != kind {
		fmt.Fprintln(r.out)
	}
	r.lastKind = kind
}

// renderHistory prints a restored timeline snapshot.
func (r *renderer) renderHistory(entries []timeline.Entry) {
	user := lipgloss.NewStyle().Bold(true)
	for _, entry := range entries {
		switch entry.Kind {
		case timeline.KindUser:
			fmt.Fprintln(r.out, user.Render("> "+entry.Text))
		case timeline.KindSystem:
			fmt.Fprintln(r.out, r.dim.Render(entry.Text))
		case timeline.KindAssistant:
			for _, tc := range entry.Tools {
				mark := r.okMark.Render("✓")
				switch tc.Status {
				case timeline.ToolFailed:
					mark = r.errSt.Render("✗")
				case timeline.ToolRunning:
					mark = r.dim.Render("…")
				}
				fmt.Fprintf(r.out, "%s %s\n", r.tool.Render("⚙ "+tc.Name), mark)
			}
			if entry.Response != "" {
				fmt.Fprintln(r.out, entry.Response)
			}
			if entry.Phase == timeline.PhaseError && entry.Err != "" {
				fmt.Fprintln(r.out, r.errSt.Render("Error: "+entry.Err))
			}
		}
		fmt.Fprintln(r.out)
	}
}

func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}

// formatSkillTable renders the discovered skills as a bordered table.
func formatSkillTable(skills []*skill.Skill) string {
	if len(skills) == 0 {
		return "No skills found"
	}

	purple := lipgloss.Color("99")
	headerStyle := lipgloss.NewStyle().Foreground(purple).Bold(true).Align(lipgloss.Center).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(purple)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("Name", "Description", "Path")

	for _, sk := range skills {
		t.Row(sk.Name, truncate(strings.TrimSpace(sk.Description), 60), sk.Path)
	}
	return t.Render()
}
