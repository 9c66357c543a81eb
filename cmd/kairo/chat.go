package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/shlex"

	"github.com/kairodev/kairo/internal/timeline"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withComponents(func(c *components) error {
			threadID, _ := cmd.Flags().GetString("thread")

			ctx, cancel := signalContext(context.Background())
			defer cancel()

			repl := newREPL(c, threadID)
			return repl.start(ctx)
		})
	},
}

type repl struct {
	components *components
	reader     *bufio.Reader
	threadID   string
}

func newREPL(c *components, threadID string) *repl {
	return &repl{
		components: c,
		reader:     bufio.NewReader(os.Stdin),
		threadID:   threadID,
	}
}

func (r *repl) start(ctx context.Context) error {
	c := r.components

	// Rebuild the timeline from persisted history so resumed threads
	// show resolved tool state.
	rows, err := c.store.ReadMessages(r.threadID, c.cfg.Agent.HistoryLimit)
	if err == nil && len(rows) > 0 {
		thread := timeline.Restore(r.threadID, rows)
		c.timelines.Put(thread)
		newRenderer(os.Stdout, c.cfg.Agent.ResultDisplayN).renderHistory(thread.Snapshot())
	}

	fmt.Printf("Kairo chat on thread %q. Type /help for commands, /exit to quit.\n", r.threadID)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		fmt.Print("> ")
		line, err := r.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			exit, err := r.command(line)
			if err != nil {
				fmt.Println(err)
			}
			if exit {
				return nil
			}
			continue
		}

		if err := streamTurn(ctx, c, r.threadID, line, os.Stdout); err != nil {
			fmt.Println(err)
		}
	}
}

// command handles one slash command line. The line is tokenized with
// shell quoting rules so arguments may contain spaces.
func (r *repl) command(line string) (exit bool, err error) {
	tokens, err := shlex.Split(strings.TrimPrefix(line, "/"))
	if err != nil {
		return false, fmt.Errorf("invalid command: %w", err)
	}
	if len(tokens) == 0 {
		return false, nil
	}

	c := r.components
	switch tokens[0] {
	case "exit", "quit":
		return true, nil
	case "help":
		fmt.Println("Commands: /skills, /prompt, /history, /thread <id>, /reset, /exit")
	case "skills":
		fmt.Println(formatSkillTable(c.skills.List()))
	case "prompt":
		fmt.Println(c.agent.SystemPrompt())
	case "history":
		thread := c.timelines.Thread(r.threadID)
		newRenderer(os.Stdout, c.cfg.Agent.ResultDisplayN).renderHistory(thread.Snapshot())
	case "thread":
		if len(tokens) < 2 {
			return false, fmt.Errorf("usage: /thread <id>")
		}
		r.threadID = tokens[1]
		fmt.Printf("Switched to thread %q\n", r.threadID)
	case "reset":
		if err := c.store.ResetThread(r.threadID); err != nil {
			return false, err
		}
		c.timelines.Remove(r.threadID)
		fmt.Printf("Thread %q reset\n", r.threadID)
	default:
		return false, fmt.Errorf("unknown command: /%s", tokens[0])
	}
	return false, nil
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringP("thread", "t", "default", "Thread ID to chat on")
}
