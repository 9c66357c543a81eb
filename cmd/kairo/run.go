package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/kairodev/kairo/internal/runstream"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [message]",
	Short: "Run a single agent turn and print the result",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withComponents(func(c *components) error {
			threadID, _ := cmd.Flags().GetString("thread")
			message := strings.Join(args, " ")

			ctx, cancel := signalContext(context.Background())
			defer cancel()

			return streamTurn(ctx, c, threadID, message, os.Stdout)
		})
	},
}

// streamTurn runs one submission, folding events into the thread
// timeline and rendering them as they arrive.
func streamTurn(ctx context.Context, c *components, threadID, message string, out *os.File) error {
	thread := c.timelines.Thread(threadID)
	if _, err := thread.Submit(message); err != nil {
		return err
	}

	r := newRenderer(out, c.cfg.Agent.ResultDisplayN)
	src := c.agent.Run(ctx, threadID, message)
	session := runstream.NewSession(threadID, src, func(evt runstream.Event) {
		thread.Apply(evt)
		r.Handle(evt)
	})
	session.Start()

	select {
	case <-session.Done():
	case <-ctx.Done():
		session.Cancel()
		session.Wait()
	}

	if msg := r.Failed(); msg != "" {
		return fmt.Errorf("run failed: %s", msg)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("thread", "t", "default", "Thread ID to run on")
}
